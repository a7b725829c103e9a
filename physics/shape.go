// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/solidforge/mechfizix/math/lin"
)

// shape.go generalizes the teacher's physics/shape.go (Abox, sphere,
// box) to this engine's six collider kinds and its support-mapping
// contract. The teacher's box shape is absorbed into ConvexHull (a box
// is just a hull built from 8 points, see halfedge.go NewBoxHull).

// ShapeKind enumerates the collider kinds.
type ShapeKind uint8

const (
	KindSphere ShapeKind = iota
	KindCapsule
	KindConvexHull
	KindCompound
	KindTriangleMesh
	KindHeightField
)

func (k ShapeKind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindCapsule:
		return "capsule"
	case KindConvexHull:
		return "convexhull"
	case KindCompound:
		return "compound"
	case KindTriangleMesh:
		return "trianglemesh"
	case KindHeightField:
		return "heightfield"
	default:
		return "unknown"
	}
}

// ConvexShape is the contract every convex primitive must satisfy: a
// support mapping and a closest-point query, plus the bounding/mass
// data the rest of the pipeline needs. Sphere, Capsule, ConvexHull and
// Triangle (trimesh.go) all implement it.
type ConvexShape interface {
	Kind() ShapeKind

	// Support returns the vertex of the shape (in local space) that is
	// farthest along direction d: argmax over the shape of dot(d, v).
	Support(d lin.V3) lin.V3

	// ClosestPoint returns the point on the shape's surface closest to p
	// (local space in, local space out).
	ClosestPoint(p lin.V3) lin.V3

	// Aabb returns the local-space shape's bounding box under transform
	// t, expanded by margin on every side.
	Aabb(t *lin.T, margin float64) Abox

	Volume() float64

	// Inertia returns the diagonal of the local-space inertia tensor
	// for the given mass (principal axes assumed aligned to local
	// axes, true for every shape kind here).
	Inertia(mass float64) lin.V3
}

// Abox is an axis-aligned bounding box, kept in the teacher's
// min/max-point shape (physics/shape.go Abox) with spec's Sx/Sy/Sz →
// Lx/Ly/Lz renamed Min/Max for clarity across the larger codebase.
type Abox struct {
	Min, Max lin.V3
}

// Overlaps reports whether two AABBs intersect (teacher's Abox.Overlaps,
// kept faithfully: strict inequality treats touching as non-overlapping).
func (a Abox) Overlaps(b Abox) bool {
	return a.Max.X > b.Min.X && a.Min.X < b.Max.X &&
		a.Max.Y > b.Min.Y && a.Min.Y < b.Max.Y &&
		a.Max.Z > b.Min.Z && a.Min.Z < b.Max.Z
}

// Contains reports whether b lies entirely within a.
func (a Abox) Contains(b Abox) bool {
	return a.Min.X <= b.Min.X && a.Max.X >= b.Max.X &&
		a.Min.Y <= b.Min.Y && a.Max.Y >= b.Max.Y &&
		a.Min.Z <= b.Min.Z && a.Max.Z >= b.Max.Z
}

// Union returns the smallest AABB containing both a and b.
func (a Abox) Union(b Abox) Abox {
	return Abox{
		Min: lin.V3{X: math.Min(a.Min.X, b.Min.X), Y: math.Min(a.Min.Y, b.Min.Y), Z: math.Min(a.Min.Z, b.Min.Z)},
		Max: lin.V3{X: math.Max(a.Max.X, b.Max.X), Y: math.Max(a.Max.Y, b.Max.Y), Z: math.Max(a.Max.Z, b.Max.Z)},
	}
}

// Expand grows the box by margin on every side.
func (a Abox) Expand(margin float64) Abox {
	return Abox{
		Min: lin.V3{X: a.Min.X - margin, Y: a.Min.Y - margin, Z: a.Min.Z - margin},
		Max: lin.V3{X: a.Max.X + margin, Y: a.Max.Y + margin, Z: a.Max.Z + margin},
	}
}

// Center returns the box midpoint.
func (a Abox) Center() lin.V3 {
	return lin.V3{X: (a.Min.X + a.Max.X) / 2, Y: (a.Min.Y + a.Max.Y) / 2, Z: (a.Min.Z + a.Max.Z) / 2}
}

// =============================================================================
// Sphere

// Sphere is a convex primitive defined by a radius around the local origin.
type Sphere struct {
	Radius float64
}

func NewSphere(radius float64) Sphere { return Sphere{Radius: math.Abs(radius)} }

func (s Sphere) Kind() ShapeKind { return KindSphere }

func (s Sphere) Support(d lin.V3) lin.V3 {
	n := d.Unit()
	return lin.V3{X: n.X * s.Radius, Y: n.Y * s.Radius, Z: n.Z * s.Radius}
}

func (s Sphere) ClosestPoint(p lin.V3) lin.V3 {
	if p.AeqZ() {
		return lin.V3{X: s.Radius}
	}
	n := p.Unit()
	return lin.V3{X: n.X * s.Radius, Y: n.Y * s.Radius, Z: n.Z * s.Radius}
}

func (s Sphere) Aabb(t *lin.T, margin float64) Abox {
	r := s.Radius + margin
	c := t.Loc
	return Abox{
		Min: lin.V3{X: c.X - r, Y: c.Y - r, Z: c.Z - r},
		Max: lin.V3{X: c.X + r, Y: c.Y + r, Z: c.Z + r},
	}
}

func (s Sphere) Volume() float64 { return 4.0 / 3.0 * math.Pi * s.Radius * s.Radius * s.Radius }

func (s Sphere) Inertia(mass float64) lin.V3 {
	e := 0.4 * mass * s.Radius * s.Radius
	return lin.V3{X: e, Y: e, Z: e}
}

// =============================================================================
// Capsule

// Capsule is a line segment of the given half-length along the local Y
// axis, swept by Radius. Endpoints are (0,±HalfLength,0).
type Capsule struct {
	Radius     float64
	HalfLength float64
}

func NewCapsule(radius, length float64) Capsule {
	return Capsule{Radius: math.Abs(radius), HalfLength: math.Abs(length) / 2}
}

func (c Capsule) Kind() ShapeKind { return KindCapsule }

func (c Capsule) A() lin.V3 { return lin.V3{Y: -c.HalfLength} }
func (c Capsule) B() lin.V3 { return lin.V3{Y: c.HalfLength} }

func (c Capsule) Support(d lin.V3) lin.V3 {
	// Picks the nearer line endpoint then adds the radial component
	// along d.
	end := c.A()
	if d.Y > 0 {
		end = c.B()
	}
	n := d.Unit()
	return lin.V3{X: end.X + n.X*c.Radius, Y: end.Y + n.Y*c.Radius, Z: end.Z + n.Z*c.Radius}
}

func (c Capsule) ClosestPoint(p lin.V3) lin.V3 {
	a, b := c.A(), c.B()
	cp := closestPointOnSegment(p, a, b)
	dir := p
	dir.X -= cp.X
	dir.Y -= cp.Y
	dir.Z -= cp.Z
	if dir.AeqZ() {
		dir = lin.V3{Y: 1}
	} else {
		dir.Unit()
	}
	return lin.V3{X: cp.X + dir.X*c.Radius, Y: cp.Y + dir.Y*c.Radius, Z: cp.Z + dir.Z*c.Radius}
}

func (c Capsule) Aabb(t *lin.T, margin float64) Abox {
	wa := t.App(&lin.V3{Y: -c.HalfLength})
	wb := t.App(&lin.V3{Y: c.HalfLength})
	r := c.Radius + margin
	min := lin.V3{X: math.Min(wa.X, wb.X) - r, Y: math.Min(wa.Y, wb.Y) - r, Z: math.Min(wa.Z, wb.Z) - r}
	max := lin.V3{X: math.Max(wa.X, wb.X) + r, Y: math.Max(wa.Y, wb.Y) + r, Z: math.Max(wa.Z, wb.Z) + r}
	return Abox{Min: min, Max: max}
}

func (c Capsule) Volume() float64 {
	cyl := math.Pi * c.Radius * c.Radius * (2 * c.HalfLength)
	sph := 4.0 / 3.0 * math.Pi * c.Radius * c.Radius * c.Radius
	return cyl + sph
}

func (c Capsule) Inertia(mass float64) lin.V3 {
	r, h := c.Radius, 2*c.HalfLength
	cylVol := math.Pi * r * r * h
	sphVol := 4.0 / 3.0 * math.Pi * r * r * r
	totalVol := cylVol + sphVol
	if totalVol <= 0 {
		return lin.V3{}
	}
	cylMass := mass * cylVol / totalVol
	sphMass := mass * sphVol / totalVol

	iyCyl := 0.5 * cylMass * r * r
	ixCyl := cylMass*(3*r*r+h*h)/12.0 + sphMass*(0.4*r*r+0.375*r*h+0.25*h*h)
	return lin.V3{X: ixCyl, Y: iyCyl, Z: ixCyl}
}

// closestPointOnSegment returns the closest point to p on segment ab.
func closestPointOnSegment(p, a, b lin.V3) lin.V3 {
	ab := lin.V3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
	ap := lin.V3{X: p.X - a.X, Y: p.Y - a.Y, Z: p.Z - a.Z}
	denom := ab.Dot(&ab)
	t := 0.0
	if denom > lin.Epsilon {
		t = ap.Dot(&ab) / denom
		t = lin.Clamp(t, 0, 1)
	}
	return lin.V3{X: a.X + ab.X*t, Y: a.Y + ab.Y*t, Z: a.Z + ab.Z*t}
}

// closestPtSegmentSegment returns the closest points (pa on ab, pb on
// cd) between two line segments, and the parameters s,t used to reach
// them — needed by capsule-capsule narrow phase to detect the
// parallel/coplanar double-contact case, and by SAT's edge-edge test
// for the witness points of a winning edge pair.
func closestPtSegmentSegment(a, b, c, d lin.V3) (pa, pb lin.V3, s, t float64) {
	d1 := lin.V3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
	d2 := lin.V3{X: d.X - c.X, Y: d.Y - c.Y, Z: d.Z - c.Z}
	r := lin.V3{X: a.X - c.X, Y: a.Y - c.Y, Z: a.Z - c.Z}
	aLen := d1.Dot(&d1)
	eLen := d2.Dot(&d2)
	f := d2.Dot(&r)

	if aLen <= lin.Epsilon && eLen <= lin.Epsilon {
		return a, c, 0, 0
	}
	if aLen <= lin.Epsilon {
		t = lin.Clamp(f/eLen, 0, 1)
		return a, lin.V3{X: c.X + d2.X*t, Y: c.Y + d2.Y*t, Z: c.Z + d2.Z*t}, 0, t
	}
	cc := d1.Dot(&r)
	if eLen <= lin.Epsilon {
		s = lin.Clamp(-cc/aLen, 0, 1)
		return lin.V3{X: a.X + d1.X*s, Y: a.Y + d1.Y*s, Z: a.Z + d1.Z*s}, c, s, 0
	}
	b0 := d1.Dot(&d2)
	denom := aLen*eLen - b0*b0
	if denom > lin.Epsilon {
		s = lin.Clamp((b0*f-cc*eLen)/denom, 0, 1)
	} else {
		s = 0
	}
	t = (b0*s + f) / eLen
	if t < 0 {
		t = 0
		s = lin.Clamp(-cc/aLen, 0, 1)
	} else if t > 1 {
		t = 1
		s = lin.Clamp((b0-cc)/aLen, 0, 1)
	}
	pa = lin.V3{X: a.X + d1.X*s, Y: a.Y + d1.Y*s, Z: a.Z + d1.Z*s}
	pb = lin.V3{X: c.X + d2.X*t, Y: c.Y + d2.Y*t, Z: c.Z + d2.Z*t}
	return pa, pb, s, t
}
