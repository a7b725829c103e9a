// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/solidforge/mechfizix/math/lin"

// collider.go ties one of the engine's six shape kinds to a body and an
// ID, and adds the Compound kind (a fixed set of child shapes rigidly
// offset from one body's origin) that has no single ConvexShape
// representation of its own. The teacher never needed this layer (one
// body, one box, always); it's grounded on original_source's
// collisionObject.h, which is exactly this kind of tagged union of
// shape pointer plus owning body.

// CompoundChild is one convex primitive inside a Compound, rigidly
// offset from the owning body's origin by Local.
type CompoundChild struct {
	Shape ConvexShape
	Local lin.T
}

// Compound is a collider made of several convex children under one
// rigid body, for shapes a single hull can't express (an L beam, a car
// chassis with wheel wells).
type Compound struct {
	Children []CompoundChild
}

// Aabb returns the union of every child's world AABB under the body
// transform t.
func (c *Compound) Aabb(t *lin.T, margin float64) Abox {
	box := Abox{}
	for i, ch := range c.Children {
		var childT lin.T
		loc := *t.Loc
		rot := *t.Rot
		childT.Loc, childT.Rot = &loc, &rot
		childT.Mult(t, &lin.T{Loc: ch.Local.Loc, Rot: ch.Local.Rot})
		cb := ch.Shape.Aabb(&childT, margin)
		if i == 0 {
			box = cb
		} else {
			box = box.Union(cb)
		}
	}
	return box
}

// worldTransform returns child i's world transform given the owning
// body's world transform t.
func (c *Compound) worldTransform(i int, t *lin.T) lin.T {
	ch := c.Children[i]
	var out lin.T
	loc := *t.Loc
	rot := *t.Rot
	out.Loc, out.Rot = &loc, &rot
	out.Mult(t, &lin.T{Loc: ch.Local.Loc, Rot: ch.Local.Rot})
	return out
}

// Inertia sums each child's inertia about the compound's own origin
// (parallel-axis term included), mass split among children in
// proportion to their individual volumes.
func (c *Compound) Inertia(mass float64) lin.V3 {
	totalVol := 0.0
	for _, ch := range c.Children {
		totalVol += ch.Shape.Volume()
	}
	if totalVol <= 0 {
		return lin.V3{}
	}
	var sum lin.V3
	for _, ch := range c.Children {
		childMass := mass * ch.Shape.Volume() / totalVol
		local := ch.Shape.Inertia(childMass)
		d := *ch.Local.Loc
		r2 := d.Dot(&d)
		sum.X += local.X + childMass*(r2-d.X*d.X)
		sum.Y += local.Y + childMass*(r2-d.Y*d.Y)
		sum.Z += local.Z + childMass*(r2-d.Z*d.Z)
	}
	return sum
}

func (c *Compound) Volume() float64 {
	total := 0.0
	for _, ch := range c.Children {
		total += ch.Shape.Volume()
	}
	return total
}

// Collider ties one of the engine's six shape kinds to the rigid body
// that owns it and the ID the rest of the world (octree, caches,
// manifolds) addresses it by.
type Collider struct {
	ID   int
	Kind ShapeKind

	Convex   ConvexShape   // Sphere, Capsule, *ConvexHull
	Mesh     *TriangleMesh // KindTriangleMesh
	Field    *HeightField  // KindHeightField
	Compound *Compound     // KindCompound

	Body *RigidBody

	// radius is the shape's bounding-sphere radius at identity
	// transform, computed once at construction and used by
	// broadphase.go's CCD ratio test.
	radius float64
}

// Aabb returns the collider's current world AABB under its body's
// transform, expanded by margin.
func (c *Collider) Aabb(margin float64) Abox {
	return c.boxAt(&c.Body.Transform, margin)
}

// boxAt returns the collider's world AABB under an arbitrary transform
// (used by broadphase.go to compute the previous-step box without
// mutating the body).
func (c *Collider) boxAt(t *lin.T, margin float64) Abox {
	switch c.Kind {
	case KindTriangleMesh:
		box := Abox{}
		for i, tri := range c.Mesh.Triangles {
			b := tri.Aabb(t, margin)
			if i == 0 {
				box = b
			} else {
				box = box.Union(b)
			}
		}
		return box
	case KindHeightField:
		// height fields are effectively infinite in extent for broad
		// phase purposes, so the octree pairs one with every nearby
		// shape; pairdispatch.go's meshVsShapes then picks the candidate
		// triangles via HeightField.QueryAabb.
		return Abox{Min: lin.V3{X: -lin.Large, Y: -lin.Large, Z: -lin.Large}, Max: lin.V3{X: lin.Large, Y: lin.Large, Z: lin.Large}}
	case KindCompound:
		return c.Compound.Aabb(t, margin)
	default:
		return c.Convex.Aabb(t, margin)
	}
}

// boundingRadius returns the shape's precomputed bounding-sphere
// radius, for broadphase.go's CCD ratio test.
func (c *Collider) boundingRadius() float64 { return c.radius }

// computeRadius derives a bounding-sphere radius: a sphere's own
// radius, otherwise half the diagonal of the collider's
// identity-transform AABB. Called once at construction (world.go), not
// every step.
func computeRadius(c *Collider) float64 {
	if s, ok := c.Convex.(Sphere); ok {
		return s.Radius
	}
	identity := lin.T{Loc: &lin.V3{}, Rot: &lin.Q{W: 1}}
	box := c.boxAt(&identity, 0)
	if box.Max.X < box.Min.X {
		return 0
	}
	d := lin.V3{X: box.Max.X - box.Min.X, Y: box.Max.Y - box.Min.Y, Z: box.Max.Z - box.Min.Z}
	return d.Len() / 2
}
