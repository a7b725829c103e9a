// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/solidforge/mechfizix/math/lin"

// pairdispatch.go routes a Collider pair to narrowPhase, expanding
// Compound into its children and TriangleMesh/HeightField into the
// candidate triangles under the other side's current AABB footprint, so
// narrowphase.go itself only ever has to know about convex primitives.

// shapeInstance is one convex primitive at a world transform, either a
// collider's own shape or one child of a Compound.
type shapeInstance struct {
	shape     ConvexShape
	transform lin.T
}

// shapeList flattens a collider to the convex primitives narrow phase
// can run against directly; nil for the two kinds (mesh, height field)
// that need triangle extraction instead.
func shapeList(c *Collider) []shapeInstance {
	switch c.Kind {
	case KindCompound:
		out := make([]shapeInstance, len(c.Compound.Children))
		for i := range c.Compound.Children {
			out[i] = shapeInstance{shape: c.Compound.Children[i].Shape, transform: c.Compound.worldTransform(i, &c.Body.Transform)}
		}
		return out
	case KindTriangleMesh, KindHeightField:
		return nil
	default:
		return []shapeInstance{{shape: c.Convex, transform: c.Body.Transform}}
	}
}

// collidePair returns every penetrating (or within-slop) manifold
// between two colliders, tagged with their collider IDs in BodyA/BodyB
// order matching the call. hullCache is updated only for hull-vs-hull
// pairs.
func collidePair(ca, cb *Collider, hullCache *HullVsHullCache) []*Manifold {
	aStatic := ca.Kind == KindTriangleMesh || ca.Kind == KindHeightField
	bStatic := cb.Kind == KindTriangleMesh || cb.Kind == KindHeightField
	if aStatic && bStatic {
		return nil // two static colliders never need a narrow-phase test.
	}
	if aStatic {
		return meshVsShapes(ca, cb, true)
	}
	if bStatic {
		return meshVsShapes(cb, ca, false)
	}

	var out []*Manifold
	for _, sa := range shapeList(ca) {
		for _, sb := range shapeList(cb) {
			m := narrowPhaseCached(sa.shape, &sa.transform, sb.shape, &sb.transform, ca.ID, cb.ID, hullCache)
			if m != nil {
				m.BodyA, m.BodyB = ca.ID, cb.ID
				out = append(out, m)
			}
		}
	}
	return out
}

// narrowPhaseCached calls narrowPhase, or HullVsHull when both sides
// are convex hulls, and then stores an entry in the hull-vs-hull cache
// (face indices 0, 0 and the first and last contact positions). The
// cache is not read here: every hull pair runs the full face/edge query.
func narrowPhaseCached(a ConvexShape, ta *lin.T, b ConvexShape, tb *lin.T, idA, idB int, hullCache *HullVsHullCache) *Manifold {
	ha, oka := a.(*ConvexHull)
	hb, okb := b.(*ConvexHull)
	if !oka || !okb || hullCache == nil {
		return narrowPhase(a, ta, b, tb)
	}
	m := HullVsHull(ha, ta, hb, tb)
	if m != nil && len(m.Points) > 0 {
		hullCache.Store(idA, idB, 0, 0, m.Points[0].PositionA, m.Points[len(m.Points)-1].PositionB)
	}
	return m
}

// meshVsShapes collides a static mesh/field collider against every
// convex primitive in other (itself, or its Compound children),
// extracting only the candidate triangles under each primitive's local
// footprint via the mesh's broad-culling BVH or the field's grid
// lookup.
func meshVsShapes(mesh, other *Collider, meshIsA bool) []*Manifold {
	var out []*Manifold
	for _, si := range shapeList(other) {
		worldBox := si.shape.Aabb(&si.transform, collisionMargin)
		localBox := worldToLocalAabb(worldBox, &mesh.Body.Transform)

		var tris []Triangle
		if mesh.Kind == KindTriangleMesh {
			for _, idx := range mesh.Mesh.QueryAabb(localBox) {
				tris = append(tris, mesh.Mesh.Triangles[idx])
			}
		} else {
			tris = mesh.Field.QueryAabb(localBox)
		}

		for _, tri := range tris {
			var m *Manifold
			if meshIsA {
				m = narrowPhase(tri, &mesh.Body.Transform, si.shape, &si.transform)
				if m != nil {
					m.BodyA, m.BodyB = mesh.ID, other.ID
				}
			} else {
				m = narrowPhase(si.shape, &si.transform, tri, &mesh.Body.Transform)
				if m != nil {
					m.BodyA, m.BodyB = other.ID, mesh.ID
				}
			}
			if m != nil {
				out = append(out, m)
			}
		}
	}
	return out
}

// worldToLocalAabb transforms box's eight corners into t's local space
// and rebuilds the axis-aligned bound, the usual (slightly loose)
// technique for pushing a world AABB through a rotation.
func worldToLocalAabb(box Abox, t *lin.T) Abox {
	corners := [8]lin.V3{
		{X: box.Min.X, Y: box.Min.Y, Z: box.Min.Z}, {X: box.Max.X, Y: box.Min.Y, Z: box.Min.Z},
		{X: box.Min.X, Y: box.Max.Y, Z: box.Min.Z}, {X: box.Max.X, Y: box.Max.Y, Z: box.Min.Z},
		{X: box.Min.X, Y: box.Min.Y, Z: box.Max.Z}, {X: box.Max.X, Y: box.Min.Y, Z: box.Max.Z},
		{X: box.Min.X, Y: box.Max.Y, Z: box.Max.Z}, {X: box.Max.X, Y: box.Max.Y, Z: box.Max.Z},
	}
	out := Abox{}
	for i, c := range corners {
		lx, ly, lz := t.InvS(c.X, c.Y, c.Z)
		p := lin.V3{X: lx, Y: ly, Z: lz}
		if i == 0 {
			out.Min, out.Max = p, p
			continue
		}
		if p.X < out.Min.X {
			out.Min.X = p.X
		}
		if p.Y < out.Min.Y {
			out.Min.Y = p.Y
		}
		if p.Z < out.Min.Z {
			out.Min.Z = p.Z
		}
		if p.X > out.Max.X {
			out.Max.X = p.X
		}
		if p.Y > out.Max.Y {
			out.Max.Y = p.Y
		}
		if p.Z > out.Max.Z {
			out.Max.Z = p.Z
		}
	}
	return out
}
