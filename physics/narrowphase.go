// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/solidforge/mechfizix/math/lin"
)

// narrowphase.go dispatches a body pair to the right collision routine
// by shape kind, mirroring the teacher's move/move.go
// algorithms[type1][type2] dispatch-table design: analytic fast paths
// for sphere/capsule pairs, SAT for hull/hull and hull/triangle,
// closest-point routines for sphere/capsule against hulls and mesh
// triangles, and GJK+EPA as the generic fallback for whatever pairing
// still has no dedicated routine (compound expansion and
// mesh/height-field routing happen one level up in broadphase.go,
// which calls narrowPhase once per resolved leaf pair).

// narrowPhase computes the contact manifold (nil if separated) between
// two convex shapes under world transforms ta, tb.
func narrowPhase(a ConvexShape, ta *lin.T, b ConvexShape, tb *lin.T) *Manifold {
	ka, kb := a.Kind(), b.Kind()

	switch {
	case ka == KindSphere && kb == KindSphere:
		return sphereSphere(a.(Sphere), ta, b.(Sphere), tb)
	case ka == KindSphere && kb == KindCapsule:
		return sphereCapsule(a.(Sphere), ta, b.(Capsule), tb, false)
	case ka == KindCapsule && kb == KindSphere:
		return sphereCapsule(b.(Sphere), tb, a.(Capsule), ta, true)
	case ka == KindCapsule && kb == KindCapsule:
		return capsuleCapsule(a.(Capsule), ta, b.(Capsule), tb)
	case ka == KindConvexHull && kb == KindConvexHull:
		return HullVsHull(a.(*ConvexHull), ta, b.(*ConvexHull), tb)
	case ka == KindSphere && kb == KindConvexHull:
		return sphereHull(a.(Sphere), ta, b.(*ConvexHull), tb, false)
	case ka == KindConvexHull && kb == KindSphere:
		return sphereHull(b.(Sphere), tb, a.(*ConvexHull), ta, true)
	case ka == KindCapsule && kb == KindConvexHull:
		return capsuleHull(a.(Capsule), ta, b.(*ConvexHull), tb, false)
	case ka == KindConvexHull && kb == KindCapsule:
		return capsuleHull(b.(Capsule), tb, a.(*ConvexHull), ta, true)
	case ka == KindSphere && kb == KindTriangleMesh:
		return sphereTriangle(a.(Sphere), ta, b.(Triangle), tb, false)
	case ka == KindTriangleMesh && kb == KindSphere:
		return sphereTriangle(b.(Sphere), tb, a.(Triangle), ta, true)
	case ka == KindCapsule && kb == KindTriangleMesh:
		return capsuleTriangle(a.(Capsule), ta, b.(Triangle), tb, false)
	case ka == KindTriangleMesh && kb == KindCapsule:
		return capsuleTriangle(b.(Capsule), tb, a.(Triangle), ta, true)
	case ka == KindConvexHull && kb == KindTriangleMesh:
		return hullTriangle(a.(*ConvexHull), ta, b.(Triangle), tb, false)
	case ka == KindTriangleMesh && kb == KindConvexHull:
		return hullTriangle(b.(*ConvexHull), tb, a.(Triangle), ta, true)
	default:
		return gjkEpaManifold(a, ta, b, tb)
	}
}

func sphereSphere(a Sphere, ta *lin.T, b Sphere, tb *lin.T) *Manifold {
	d := lin.V3{X: tb.Loc.X - ta.Loc.X, Y: tb.Loc.Y - ta.Loc.Y, Z: tb.Loc.Z - ta.Loc.Z}
	dist := d.Len()
	minDist := a.Radius + b.Radius
	if dist >= minDist {
		return nil
	}
	var n lin.V3
	if dist > lin.Epsilon {
		n = lin.V3{X: d.X / dist, Y: d.Y / dist, Z: d.Z / dist}
	} else {
		n = lin.V3{Y: 1}
	}
	posA := lin.V3{X: ta.Loc.X + n.X*a.Radius, Y: ta.Loc.Y + n.Y*a.Radius, Z: ta.Loc.Z + n.Z*a.Radius}
	posB := lin.V3{X: tb.Loc.X - n.X*b.Radius, Y: tb.Loc.Y - n.Y*b.Radius, Z: tb.Loc.Z - n.Z*b.Radius}
	t1, t2 := basisFromNormal(n)
	return &Manifold{
		Normal: n, Tangent1: t1, Tangent2: t2,
		Points: []ContactPoint{{PositionA: posA, PositionB: posB, Separation: dist - minDist, FeatureID: 0}},
	}
}

// sphereCapsule handles both orderings; flip indicates the caller
// passed (capsule, sphere) and wants the returned normal still
// pointing consistently from the logical "A" to "B" of the original
// call.
func sphereCapsule(s Sphere, ts *lin.T, c Capsule, tc *lin.T, flip bool) *Manifold {
	a := *tc.App(&lin.V3{Y: -c.HalfLength})
	b := *tc.App(&lin.V3{Y: c.HalfLength})
	cp := closestPointOnSegment(*ts.Loc, a, b)
	d := lin.V3{X: ts.Loc.X - cp.X, Y: ts.Loc.Y - cp.Y, Z: ts.Loc.Z - cp.Z}
	dist := d.Len()
	minDist := s.Radius + c.Radius
	if dist >= minDist {
		return nil
	}
	var n lin.V3
	if dist > lin.Epsilon {
		n = lin.V3{X: d.X / dist, Y: d.Y / dist, Z: d.Z / dist}
	} else {
		n = lin.V3{Y: 1}
	}
	spherePt := lin.V3{X: ts.Loc.X - n.X*s.Radius, Y: ts.Loc.Y - n.Y*s.Radius, Z: ts.Loc.Z - n.Z*s.Radius}
	capsulePt := lin.V3{X: cp.X + n.X*c.Radius, Y: cp.Y + n.Y*c.Radius, Z: cp.Z + n.Z*c.Radius}
	posA, posB := spherePt, capsulePt
	if flip {
		posA, posB = capsulePt, spherePt
		n = lin.V3{X: -n.X, Y: -n.Y, Z: -n.Z}
	}
	t1, t2 := basisFromNormal(n)
	return &Manifold{
		Normal: n, Tangent1: t1, Tangent2: t2,
		Points: []ContactPoint{{PositionA: posA, PositionB: posB, Separation: dist - minDist, FeatureID: 0}},
	}
}

// capsuleCapsule supplements the generic GJK path with the coplanar,
// near-parallel double-contact case the spec calls out: when the two
// segments are (almost) parallel, a single closest-segment-pair point
// under-constrains rotation about the shared axis, so two contacts —
// one per overlapping end — are produced instead.
func capsuleCapsule(a Capsule, ta *lin.T, b Capsule, tb *lin.T) *Manifold {
	a0 := *ta.App(&lin.V3{Y: -a.HalfLength})
	a1 := *ta.App(&lin.V3{Y: a.HalfLength})
	b0 := *tb.App(&lin.V3{Y: -b.HalfLength})
	b1 := *tb.App(&lin.V3{Y: b.HalfLength})

	axisA := lin.V3{X: a1.X - a0.X, Y: a1.Y - a0.Y, Z: a1.Z - a0.Z}
	axisB := lin.V3{X: b1.X - b0.X, Y: b1.Y - b0.Y, Z: b1.Z - b0.Z}
	axisA.Unit()
	axisB.Unit()
	parallel := math.Abs(axisA.Dot(&axisB)) > 0.999

	minDist := a.Radius + b.Radius
	if parallel {
		pts := parallelCapsuleContacts(a0, a1, b0, b1, minDist)
		if len(pts) == 0 {
			return nil
		}
		d := lin.V3{X: b0.X - a0.X, Y: b0.Y - a0.Y, Z: b0.Z - a0.Z}
		var n lin.V3
		var rad lin.V3
		rad.Cross(&axisA, &d)
		rad.Cross(&rad, &axisA)
		if rad.AeqZ() {
			n = lin.V3{Y: 1}
		} else {
			rad.Unit()
			n = rad
		}
		t1, t2 := basisFromNormal(n)
		return &Manifold{Normal: n, Tangent1: t1, Tangent2: t2, Points: pts}
	}

	pa, pb, _, _ := closestPtSegmentSegment(a0, a1, b0, b1)
	d := lin.V3{X: pb.X - pa.X, Y: pb.Y - pa.Y, Z: pb.Z - pa.Z}
	dist := d.Len()
	if dist >= minDist {
		return nil
	}
	var n lin.V3
	if dist > lin.Epsilon {
		n = lin.V3{X: d.X / dist, Y: d.Y / dist, Z: d.Z / dist}
	} else {
		n = lin.V3{Y: 1}
	}
	posA := lin.V3{X: pa.X + n.X*a.Radius, Y: pa.Y + n.Y*a.Radius, Z: pa.Z + n.Z*a.Radius}
	posB := lin.V3{X: pb.X - n.X*b.Radius, Y: pb.Y - n.Y*b.Radius, Z: pb.Z - n.Z*b.Radius}
	t1, t2 := basisFromNormal(n)
	return &Manifold{
		Normal: n, Tangent1: t1, Tangent2: t2,
		Points: []ContactPoint{{PositionA: posA, PositionB: posB, Separation: dist - minDist, FeatureID: 0}},
	}
}

func parallelCapsuleContacts(a0, a1, b0, b1 lin.V3, minDist float64) []ContactPoint {
	axisA := lin.V3{X: a1.X - a0.X, Y: a1.Y - a0.Y, Z: a1.Z - a0.Z}
	lenA := axisA.Len()
	if lenA < lin.Epsilon {
		return nil
	}
	dir := lin.V3{X: axisA.X / lenA, Y: axisA.Y / lenA, Z: axisA.Z / lenA}
	project := func(p lin.V3) float64 {
		d := lin.V3{X: p.X - a0.X, Y: p.Y - a0.Y, Z: p.Z - a0.Z}
		return d.Dot(&dir)
	}
	lo, hi := 0.0, lenA
	bLo, bHi := project(b0), project(b1)
	if bLo > bHi {
		bLo, bHi = bHi, bLo
	}
	overlapLo := math.Max(lo, bLo)
	overlapHi := math.Min(hi, bHi)
	if overlapLo >= overlapHi {
		return nil
	}
	var pts []ContactPoint
	for i, t := range []float64{overlapLo, overlapHi} {
		pa := lin.V3{X: a0.X + dir.X*t, Y: a0.Y + dir.Y*t, Z: a0.Z + dir.Z*t}
		cp := closestPointOnSegment(pa, b0, b1)
		d := lin.V3{X: cp.X - pa.X, Y: cp.Y - pa.Y, Z: cp.Z - pa.Z}
		dist := d.Len()
		if dist >= minDist {
			continue
		}
		pts = append(pts, ContactPoint{PositionA: pa, PositionB: cp, Separation: dist - minDist, FeatureID: uint32(i)})
	}
	return pts
}

// closestPointOnHullLocal returns the point on h's boundary (in h's
// own local space) closest to p, the face that produced it, and
// whether p lies inside the hull — found by scanning every face's
// triangle fan, the same technique ConvexHull.ClosestPoint uses, but
// also reporting the winning face so callers can fall back to its
// outward normal when p is too deep inside the hull for a clean
// surface direction.
func closestPointOnHullLocal(h *ConvexHull, p lin.V3) (closest lin.V3, faceIdx int, inside bool) {
	bestD := math.MaxFloat64
	inside = true
	for fi, f := range h.faces {
		v0 := h.verts[f.verts[0]]
		rel := lin.V3{X: p.X - v0.X, Y: p.Y - v0.Y, Z: p.Z - v0.Z}
		if f.normal.Dot(&rel) > 1e-9 {
			inside = false
		}
		for i := 1; i+1 < len(f.verts); i++ {
			a, b, c := h.verts[f.verts[0]], h.verts[f.verts[i]], h.verts[f.verts[i+1]]
			cp := closestPointOnTriangle(p, a, b, c)
			d := lin.V3{X: cp.X - p.X, Y: cp.Y - p.Y, Z: cp.Z - p.Z}
			if dd := d.Dot(&d); dd < bestD {
				bestD = dd
				closest = cp
				faceIdx = fi
			}
		}
	}
	return closest, faceIdx, inside
}

func hullCentroidLocal(h *ConvexHull) lin.V3 {
	var c lin.V3
	for _, v := range h.verts {
		c.X += v.X
		c.Y += v.Y
		c.Z += v.Z
	}
	n := float64(len(h.verts))
	return lin.V3{X: c.X / n, Y: c.Y / n, Z: c.Z / n}
}

// sphereHull handles sphere-vs-convex-hull directly rather than
// falling through to GJK+EPA: the closest point on the hull's surface
// to the sphere's center (clamped per face, as ConvexHull.ClosestPoint
// does), with the hit face's own normal used as the push-out direction
// when the center has penetrated deep enough that center-minus-closest
// no longer points outward.
func sphereHull(s Sphere, ts *lin.T, h *ConvexHull, th *lin.T, flip bool) *Manifold {
	local := *th.Inv(&lin.V3{X: ts.Loc.X, Y: ts.Loc.Y, Z: ts.Loc.Z})
	closest, faceIdx, inside := closestPointOnHullLocal(h, local)
	d := lin.V3{X: local.X - closest.X, Y: local.Y - closest.Y, Z: local.Z - closest.Z}
	dist := d.Len()

	var triOut lin.V3 // hull -> sphere, in hull-local space
	var sdist float64
	switch {
	case inside:
		triOut = h.faces[faceIdx].normal
		sdist = -dist
	case dist > lin.Epsilon:
		triOut = lin.V3{X: d.X / dist, Y: d.Y / dist, Z: d.Z / dist}
		sdist = dist
	default:
		triOut = h.faces[faceIdx].normal
		sdist = 0
	}
	sep := sdist - s.Radius
	if sep >= 0 {
		return nil
	}

	n := appR3(th, lin.V3{X: -triOut.X, Y: -triOut.Y, Z: -triOut.Z}) // sphere -> hull
	hullPt := *th.App(&closest)
	spherePt := lin.V3{X: ts.Loc.X + n.X*s.Radius, Y: ts.Loc.Y + n.Y*s.Radius, Z: ts.Loc.Z + n.Z*s.Radius}

	posA, posB := spherePt, hullPt
	if flip {
		posA, posB = hullPt, spherePt
		n = lin.V3{X: -n.X, Y: -n.Y, Z: -n.Z}
	}
	t1, t2 := basisFromNormal(n)
	return &Manifold{
		Normal: n, Tangent1: t1, Tangent2: t2,
		Points: []ContactPoint{{PositionA: posA, PositionB: posB, Separation: sep, FeatureID: 0}},
	}
}

// capsuleHull handles capsule-vs-convex-hull with a dedicated SAT
// pass: axes are the hull's face normals plus the cross product of the
// capsule's axis with every hull edge, the standard separating-axis
// set for a line segment (with radius) against a polytope. Each axis
// is tested by interval overlap (sign-independent, since an edge-pair
// cross product has no inherent orientation), and the axis with the
// least overlap becomes the contact normal.
func capsuleHull(c Capsule, tc *lin.T, h *ConvexHull, th *lin.T, flip bool) *Manifold {
	c0 := *th.Inv(tc.App(&lin.V3{Y: -c.HalfLength}))
	c1 := *th.Inv(tc.App(&lin.V3{Y: c.HalfLength}))
	axis := lin.V3{X: c1.X - c0.X, Y: c1.Y - c0.Y, Z: c1.Z - c0.Z}
	axisLen := axis.Len()
	if axisLen > lin.Epsilon {
		axis.Scale(&axis, 1/axisLen)
	}

	project := func(n lin.V3) float64 {
		minA, maxA := math.MaxFloat64, -math.MaxFloat64
		for _, v := range h.verts {
			d := n.Dot(&v)
			if d < minA {
				minA = d
			}
			if d > maxA {
				maxA = d
			}
		}
		proj0, proj1 := n.Dot(&c0), n.Dot(&c1)
		minB, maxB := math.Min(proj0, proj1)-c.Radius, math.Max(proj0, proj1)+c.Radius
		return math.Max(minB-maxA, minA-maxB)
	}

	bestSep := -math.MaxFloat64
	var bestAxis lin.V3
	for _, f := range h.faces {
		if sep := project(f.normal); sep > bestSep {
			bestSep, bestAxis = sep, f.normal
		}
	}
	if axisLen > lin.Epsilon {
		for _, e := range h.edges {
			ev := lin.V3{X: h.verts[e.b].X - h.verts[e.a].X, Y: h.verts[e.b].Y - h.verts[e.a].Y, Z: h.verts[e.b].Z - h.verts[e.a].Z}
			var n lin.V3
			n.Cross(&axis, &ev)
			if n.AeqZ() {
				continue
			}
			n.Unit()
			if sep := project(n); sep > bestSep {
				bestSep, bestAxis = sep, n
			}
		}
	}
	if bestSep > 0 {
		return nil
	}

	mid := lin.V3{X: (c0.X + c1.X) / 2, Y: (c0.Y + c1.Y) / 2, Z: (c0.Z + c1.Z) / 2}
	hullCenter := hullCentroidLocal(h)
	toCapsule := lin.V3{X: mid.X - hullCenter.X, Y: mid.Y - hullCenter.Y, Z: mid.Z - hullCenter.Z}
	if bestAxis.Dot(&toCapsule) > 0 {
		bestAxis = lin.V3{X: -bestAxis.X, Y: -bestAxis.Y, Z: -bestAxis.Z}
	}

	capsuleCenter := c0
	if bestAxis.Dot(&c1) > bestAxis.Dot(&c0) {
		capsuleCenter = c1
	}
	capsulePtLocal := lin.V3{X: capsuleCenter.X + bestAxis.X*c.Radius, Y: capsuleCenter.Y + bestAxis.Y*c.Radius, Z: capsuleCenter.Z + bestAxis.Z*c.Radius}
	hullPtLocal, _, _ := closestPointOnHullLocal(h, capsuleCenter)

	n := appR3(th, bestAxis)
	worldCapsulePt := *th.App(&capsulePtLocal)
	worldHullPt := *th.App(&hullPtLocal)

	posA, posB := worldCapsulePt, worldHullPt
	if flip {
		posA, posB = worldHullPt, worldCapsulePt
		n = lin.V3{X: -n.X, Y: -n.Y, Z: -n.Z}
	}
	t1, t2 := basisFromNormal(n)
	return &Manifold{
		Normal: n, Tangent1: t1, Tangent2: t2,
		Points: []ContactPoint{{PositionA: posA, PositionB: posB, Separation: bestSep, FeatureID: 0}},
	}
}

// sphereTriangle handles sphere-vs-mesh-triangle directly: closest
// point on the (two-sided, zero-thickness) triangle to the sphere
// center, found by closestPointOnTriangle's clamped-barycentric search.
func sphereTriangle(s Sphere, ts *lin.T, tri Triangle, tt *lin.T, flip bool) *Manifold {
	local := *tt.Inv(&lin.V3{X: ts.Loc.X, Y: ts.Loc.Y, Z: ts.Loc.Z})
	closest := closestPointOnTriangle(local, tri.A, tri.B, tri.C)
	d := lin.V3{X: local.X - closest.X, Y: local.Y - closest.Y, Z: local.Z - closest.Z}
	dist := d.Len()
	if dist >= s.Radius {
		return nil
	}

	var triOut lin.V3 // triangle -> sphere, in triangle-local space
	if dist > lin.Epsilon {
		triOut = lin.V3{X: d.X / dist, Y: d.Y / dist, Z: d.Z / dist}
	} else {
		ab := lin.V3{X: tri.B.X - tri.A.X, Y: tri.B.Y - tri.A.Y, Z: tri.B.Z - tri.A.Z}
		ac := lin.V3{X: tri.C.X - tri.A.X, Y: tri.C.Y - tri.A.Y, Z: tri.C.Z - tri.A.Z}
		triOut.Cross(&ab, &ac)
		triOut.Unit()
	}

	n := appR3(tt, lin.V3{X: -triOut.X, Y: -triOut.Y, Z: -triOut.Z}) // sphere -> triangle
	triPt := *tt.App(&closest)
	spherePt := lin.V3{X: ts.Loc.X + n.X*s.Radius, Y: ts.Loc.Y + n.Y*s.Radius, Z: ts.Loc.Z + n.Z*s.Radius}

	posA, posB := spherePt, triPt
	sep := dist - s.Radius
	if flip {
		posA, posB = triPt, spherePt
		n = lin.V3{X: -n.X, Y: -n.Y, Z: -n.Z}
	}
	t1, t2 := basisFromNormal(n)
	return &Manifold{
		Normal: n, Tangent1: t1, Tangent2: t2,
		Points: []ContactPoint{{PositionA: posA, PositionB: posB, Separation: sep, FeatureID: 0}},
	}
}

// capsuleTriangle handles capsule-vs-mesh-triangle directly: the
// closest pair of points between the capsule's axis segment and the
// triangle, checked against both the triangle's clamped-barycentric
// closest point (for the two axis endpoints) and its three edges (for
// the capsule barrel against a triangle edge), then offset by radius.
func capsuleTriangle(c Capsule, tc *lin.T, tri Triangle, tt *lin.T, flip bool) *Manifold {
	c0 := *tt.Inv(tc.App(&lin.V3{Y: -c.HalfLength}))
	c1 := *tt.Inv(tc.App(&lin.V3{Y: c.HalfLength}))

	bestDist := math.MaxFloat64
	var bestCap, bestTri lin.V3
	consider := func(pc, pt lin.V3) {
		d := lin.V3{X: pc.X - pt.X, Y: pc.Y - pt.Y, Z: pc.Z - pt.Z}
		if dist := d.Len(); dist < bestDist {
			bestDist, bestCap, bestTri = dist, pc, pt
		}
	}
	consider(c0, closestPointOnTriangle(c0, tri.A, tri.B, tri.C))
	consider(c1, closestPointOnTriangle(c1, tri.A, tri.B, tri.C))
	for _, e := range [][2]lin.V3{{tri.A, tri.B}, {tri.B, tri.C}, {tri.C, tri.A}} {
		pa, pb, _, _ := closestPtSegmentSegment(c0, c1, e[0], e[1])
		consider(pa, pb)
	}
	// an axis crossing the triangle's plane is also checked at its
	// crossing point, which touches the triangle when it lies inside it.
	var pn lin.V3
	pn.Cross(&lin.V3{X: tri.B.X - tri.A.X, Y: tri.B.Y - tri.A.Y, Z: tri.B.Z - tri.A.Z}, &lin.V3{X: tri.C.X - tri.A.X, Y: tri.C.Y - tri.A.Y, Z: tri.C.Z - tri.A.Z})
	da := pn.Dot(&lin.V3{X: c0.X - tri.A.X, Y: c0.Y - tri.A.Y, Z: c0.Z - tri.A.Z})
	db := pn.Dot(&lin.V3{X: c1.X - tri.A.X, Y: c1.Y - tri.A.Y, Z: c1.Z - tri.A.Z})
	if da*db < 0 {
		s := da / (da - db)
		p := lin.V3{X: c0.X + (c1.X-c0.X)*s, Y: c0.Y + (c1.Y-c0.Y)*s, Z: c0.Z + (c1.Z-c0.Z)*s}
		consider(p, closestPointOnTriangle(p, tri.A, tri.B, tri.C))
	}

	if bestDist >= c.Radius {
		return nil
	}

	var triOut lin.V3 // triangle -> capsule, in triangle-local space
	if bestDist > lin.Epsilon {
		triOut = lin.V3{X: (bestCap.X - bestTri.X) / bestDist, Y: (bestCap.Y - bestTri.Y) / bestDist, Z: (bestCap.Z - bestTri.Z) / bestDist}
	} else {
		ab := lin.V3{X: tri.B.X - tri.A.X, Y: tri.B.Y - tri.A.Y, Z: tri.B.Z - tri.A.Z}
		ac := lin.V3{X: tri.C.X - tri.A.X, Y: tri.C.Y - tri.A.Y, Z: tri.C.Z - tri.A.Z}
		triOut.Cross(&ab, &ac)
		triOut.Unit()
	}

	n := appR3(tt, lin.V3{X: -triOut.X, Y: -triOut.Y, Z: -triOut.Z}) // capsule -> triangle
	triPt := *tt.App(&bestTri)
	capsulePt := *tt.App(&bestCap)
	capsulePt = lin.V3{X: capsulePt.X + n.X*c.Radius, Y: capsulePt.Y + n.Y*c.Radius, Z: capsulePt.Z + n.Z*c.Radius}

	posA, posB := capsulePt, triPt
	sep := bestDist - c.Radius
	if flip {
		posA, posB = triPt, capsulePt
		n = lin.V3{X: -n.X, Y: -n.Y, Z: -n.Z}
	}
	t1, t2 := basisFromNormal(n)
	return &Manifold{
		Normal: n, Tangent1: t1, Tangent2: t2,
		Points: []ContactPoint{{PositionA: posA, PositionB: posB, Separation: sep, FeatureID: 0}},
	}
}

// hullTriangle handles convex-hull-vs-mesh-triangle with a dedicated
// SAT pass treating the triangle as a degenerate (zero-thickness)
// hull: axes are the hull's own face normals, the triangle's one face
// normal, and every hull-edge × triangle-edge cross product — the same
// Minkowski-face edge set HullVsHull tests, specialized to a
// three-edge triangle instead of a general polytope. The contact point
// is the hull's support vertex deepest along the winning axis,
// projected onto the triangle (clamped to its bounds); a full
// clipped manifold would emit more points but isn't required for a
// triangle this small to produce stable resting contact once several
// triangles of a mesh are each contributing one.
func hullTriangle(h *ConvexHull, th *lin.T, tri Triangle, tt *lin.T, flip bool) *Manifold {
	wa := *tt.App(&tri.A)
	wb := *tt.App(&tri.B)
	wc := *tt.App(&tri.C)
	triVerts := [3]lin.V3{wa, wb, wc}

	hullVerts := make([]lin.V3, len(h.verts))
	for i, v := range h.verts {
		hullVerts[i] = *th.App(&v)
	}

	projectHull := func(n lin.V3) (lo, hi float64) {
		lo, hi = math.MaxFloat64, -math.MaxFloat64
		for _, v := range hullVerts {
			d := n.Dot(&v)
			if d < lo {
				lo = d
			}
			if d > hi {
				hi = d
			}
		}
		return
	}
	projectTri := func(n lin.V3) (lo, hi float64) {
		lo, hi = math.MaxFloat64, -math.MaxFloat64
		for _, v := range triVerts {
			d := n.Dot(&v)
			if d < lo {
				lo = d
			}
			if d > hi {
				hi = d
			}
		}
		return
	}
	testAxis := func(n lin.V3) (float64, bool) {
		if n.AeqZ() {
			return 0, false
		}
		n.Unit()
		hLo, hHi := projectHull(n)
		tLo, tHi := projectTri(n)
		return math.Max(tLo-hHi, hLo-tHi), true
	}

	bestSep := -math.MaxFloat64
	var bestAxis lin.V3
	for _, f := range h.faces {
		n := appR3(th, f.normal)
		if sep, ok := testAxis(n); ok {
			if sep > 0 {
				return nil
			}
			if sep > bestSep {
				bestSep, bestAxis = sep, n
			}
		}
	}

	var triNormal lin.V3
	ab := lin.V3{X: wb.X - wa.X, Y: wb.Y - wa.Y, Z: wb.Z - wa.Z}
	ac := lin.V3{X: wc.X - wa.X, Y: wc.Y - wa.Y, Z: wc.Z - wa.Z}
	triNormal.Cross(&ab, &ac)
	if sep, ok := testAxis(triNormal); ok {
		if sep > 0 {
			return nil
		}
		if sep > bestSep {
			bestSep, bestAxis = sep, triNormal
		}
	}

	triEdges := [][2]lin.V3{{wa, wb}, {wb, wc}, {wc, wa}}
	for _, e := range h.edges {
		va, vb := h.verts[e.a], h.verts[e.b]
		hv0 := *th.App(&va)
		hv1 := *th.App(&vb)
		hdir := lin.V3{X: hv1.X - hv0.X, Y: hv1.Y - hv0.Y, Z: hv1.Z - hv0.Z}
		for _, te := range triEdges {
			tdir := lin.V3{X: te[1].X - te[0].X, Y: te[1].Y - te[0].Y, Z: te[1].Z - te[0].Z}
			var axis lin.V3
			axis.Cross(&hdir, &tdir)
			if sep, ok := testAxis(axis); ok {
				if sep > 0 {
					return nil
				}
				if sep > bestSep {
					bestSep, bestAxis = sep, axis
				}
			}
		}
	}
	if bestSep > 0 {
		return nil
	}

	var hullCenter lin.V3
	for _, v := range hullVerts {
		hullCenter.X += v.X
		hullCenter.Y += v.Y
		hullCenter.Z += v.Z
	}
	hn := float64(len(hullVerts))
	hullCenter = lin.V3{X: hullCenter.X / hn, Y: hullCenter.Y / hn, Z: hullCenter.Z / hn}
	triCenter := lin.V3{X: (wa.X + wb.X + wc.X) / 3, Y: (wa.Y + wb.Y + wc.Y) / 3, Z: (wa.Z + wb.Z + wc.Z) / 3}
	toTri := lin.V3{X: triCenter.X - hullCenter.X, Y: triCenter.Y - hullCenter.Y, Z: triCenter.Z - hullCenter.Z}
	if bestAxis.Dot(&toTri) < 0 {
		bestAxis = lin.V3{X: -bestAxis.X, Y: -bestAxis.Y, Z: -bestAxis.Z}
	}

	deepIdx := 0
	deepestProj := -math.MaxFloat64
	for i, v := range hullVerts {
		if d := bestAxis.Dot(&v); d > deepestProj {
			deepestProj = d
			deepIdx = i
		}
	}
	hullPt := hullVerts[deepIdx]
	triPt := closestPointOnTriangle(hullPt, wa, wb, wc)

	n := bestAxis
	posA, posB := hullPt, triPt
	if flip {
		posA, posB = triPt, hullPt
		n = lin.V3{X: -n.X, Y: -n.Y, Z: -n.Z}
	}
	t1, t2 := basisFromNormal(n)
	return &Manifold{
		Normal: n, Tangent1: t1, Tangent2: t2,
		Points: []ContactPoint{{PositionA: posA, PositionB: posB, Separation: bestSep, FeatureID: 0}},
	}
}

// gjkEpaManifold is the generic fallback narrow-phase path, used only
// for shape pairs with no dedicated routine above: GJK for overlap,
// EPA for the normal/depth and each shape's own witness point.
func gjkEpaManifold(a ConvexShape, ta *lin.T, b ConvexShape, tb *lin.T) *Manifold {
	hit, simplex := GJK(a, b, ta, tb)
	if !hit {
		return nil
	}
	normal, depth, onA, onB, ok := EPA(a, b, ta, tb, simplex)
	if !ok {
		return nil
	}
	t1, t2 := basisFromNormal(normal)
	return &Manifold{
		Normal: normal, Tangent1: t1, Tangent2: t2,
		Points: []ContactPoint{{PositionA: onA, PositionB: onB, Separation: -depth, FeatureID: 0}},
	}
}
