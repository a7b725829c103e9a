// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/solidforge/mechfizix/math/lin"

// broadphase.go drives one step's broad phase: per dynamic body, decide
// discrete vs continuous update against the octree, collect candidate
// pairs, run the narrow phase (via pairdispatch.go), and hand
// penetrating manifolds back to world.go for the solver plus
// buildIslands. The teacher's broad.go does this with an O(n²)
// bounding-sphere sweep (broad_get_collision_pairs) and no CCD at all;
// this keeps its union-find/island idea (island.go) but replaces the
// sweep with the octree and adds CCD sub-stepping.

// collisionMargin is added to every AABB inserted into the octree, the
// usual broad-phase slop so a body doesn't leave its leaves on a
// sub-pixel move.
const collisionMargin = 0.04

// BroadPhase owns the octree and the per-pair caches that persist
// across steps.
type BroadPhase struct {
	Octree    *Octree
	HullCache *HullVsHullCache
}

// NewBroadPhase builds an empty broad phase sized per settings.
func NewBroadPhase(s Settings) *BroadPhase {
	return &BroadPhase{
		Octree:    NewOctree(s.OctreeBound, s.OctreeDepth),
		HullCache: NewHullVsHullCache(s.CacheRetentionFrames),
	}
}

// Step runs one physics step's broad+narrow phase over every collider,
// returning the penetrating manifolds and the contact pairs found (for
// buildIslands).
func (bp *BroadPhase) Step(s Settings, colliders map[int]*Collider) (manifolds []*Manifold, contactPairs [][2]int) {
	for id, c := range colliders {
		bp.updateOne(s, id, c, colliders)
	}

	seen := map[pairKey]bool{} // finished-collisions table: one pass per unordered pair per step.
	for _, pair := range bp.Octree.QueryPairs() {
		ca, cb := colliders[pair[0]], colliders[pair[1]]
		if ca == nil || cb == nil {
			continue
		}
		key := makePairKey(pair[0], pair[1])
		if seen[key] {
			continue
		}
		seen[key] = true
		if !ca.Body.Awake() && !cb.Body.Awake() {
			continue // two sleeping/kinematic bodies can't newly start touching.
		}
		for _, m := range collidePair(ca, cb, bp.HullCache) {
			manifolds = append(manifolds, m)
			contactPairs = append(contactPairs, [2]int{m.BodyA, m.BodyB})
		}
	}
	bp.HullCache.Age()
	return manifolds, contactPairs
}

// updateOne decides discrete vs continuous for one body
// (|Δposition|²/radius ≥ CCDThreshold triggers CCD) and updates its
// octree residency accordingly.
func (bp *BroadPhase) updateOne(s Settings, id int, c *Collider, colliders map[int]*Collider) {
	if !c.Body.Awake() {
		bp.Octree.Update(id, c.Aabb(collisionMargin))
		bp.checkLeafCap(s, id)
		return
	}

	prevBox := c.boxAt(&c.Body.PrevTransform, collisionMargin)
	curBox := c.Aabb(collisionMargin)

	d := lin.V3{X: c.Body.Transform.Loc.X - c.Body.PrevTransform.Loc.X, Y: c.Body.Transform.Loc.Y - c.Body.PrevTransform.Loc.Y, Z: c.Body.Transform.Loc.Z - c.Body.PrevTransform.Loc.Z}
	radius := c.boundingRadius()
	if radius > lin.Epsilon && d.Dot(&d)/radius >= s.CCDThreshold {
		bp.continuousUpdate(id, c, colliders, prevBox, curBox)
		bp.checkLeafCap(s, id)
		return
	}
	bp.Octree.Update(id, curBox)
	bp.checkLeafCap(s, id)
}

// checkLeafCap enforces the octree's "an entity may reside in up to 8
// leaves" design assertion: exceeding it means the collider is too
// large for the current world bound/depth, a world-construction error
// rather than a per-step numerical one.
func (bp *BroadPhase) checkLeafCap(s Settings, id int) {
	assertInvariant(s.Debug, bp.Octree.LeafCount(id) <= 8,
		"octree: collider resides in more than 8 leaves (id=%d, count=%d); increase world bound or reduce depth",
		id, bp.Octree.LeafCount(id))
}

// continuousUpdate walks the swept AABB's leaves, TOI-tests every
// resident, advances the body to the earliest impact via SubStep, then
// falls through to a discrete update from the sub-stepped pose.
func (bp *BroadPhase) continuousUpdate(id int, c *Collider, colliders map[int]*Collider, prevBox, curBox Abox) {
	bp.Octree.UpdateContinuous(id, prevBox, curBox)
	swept := prevBox.Union(curBox)

	best := 1.0
	for _, otherID := range bp.Octree.QueryBox(swept) {
		if otherID == id {
			continue
		}
		other := colliders[otherID]
		if other == nil {
			continue
		}
		t, hit := sweepTOI(c, other)
		if hit && t < best {
			best = t
		}
	}
	if best < 1 {
		c.Body.SubStep(best)
	}
	bp.Octree.Update(id, c.Aabb(collisionMargin))
}

// sweepTOI runs the TOI query between two colliders' primary shapes.
// Compound/mesh expansion happens in the narrow-phase dispatcher; this
// keeps CCD to the common single-shape-vs-single-shape case and lets
// the post-substep discrete pass resolve any remaining penetration for
// compounds and meshes.
func sweepTOI(moving, other *Collider) (t float64, hit bool) {
	ms := shapeList(moving)
	if len(ms) == 0 {
		return 1, false
	}
	os := shapeList(other)
	if len(os) == 0 {
		// other is a static mesh/height field: TOI against its nearest
		// triangle under the swept footprint.
		return sweepTOIAgainstStatic(ms[0].shape, moving, other)
	}
	best, hitAny := 1.0, false
	for _, ma := range ms {
		for _, ob := range os {
			tt, ok := TOI(ma.shape, &moving.Body.PrevTransform, &moving.Body.Transform, ob.shape, &other.Body.PrevTransform, &other.Body.Transform)
			if ok && tt < best {
				best, hitAny = tt, true
			}
		}
	}
	return best, hitAny
}

func sweepTOIAgainstStatic(shape ConvexShape, moving, static *Collider) (float64, bool) {
	box := shape.Aabb(&moving.Body.Transform, collisionMargin).Union(shape.Aabb(&moving.Body.PrevTransform, collisionMargin))
	localBox := worldToLocalAabb(box, &static.Body.Transform)
	var tris []Triangle
	if static.Kind == KindTriangleMesh {
		for _, idx := range static.Mesh.QueryAabb(localBox) {
			tris = append(tris, static.Mesh.Triangles[idx])
		}
	} else if static.Kind == KindHeightField {
		tris = static.Field.QueryAabb(localBox)
	}
	best, hitAny := 1.0, false
	for _, tri := range tris {
		tt, ok := TOI(shape, &moving.Body.PrevTransform, &moving.Body.Transform, tri, &static.Body.Transform, &static.Body.Transform)
		if ok && tt < best {
			best, hitAny = tt, true
		}
	}
	return best, hitAny
}
