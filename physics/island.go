// Copyright © 2024 Galvanized Logic Inc.

package physics

import "log/slog"

// island.go generalizes the teacher's physics/broad.go union-find
// (uf_find/uf_union/uf_collect_all/broad_collect_simulation_islands)
// from its flat O(n²) bounding-sphere sweep to an Island entity: a
// transitively-contacting group of dynamic colliders, built
// from whatever pairs the octree's narrow phase reported penetrating
// this step, plus every non-contact constraint (so two boxes joined by
// a hinge but not currently touching still wake and sleep together).

// unionFind is the path-compressing disjoint-set the teacher's
// uf_find/uf_union pair implements recursively; kept here as a small
// struct instead of a bare map so island building doesn't need a
// package-level body lookup (the teacher's body_get_by_id).
type unionFind struct {
	parent map[int]int
}

func newUnionFind(ids []int) *unionFind {
	uf := &unionFind{parent: make(map[int]int, len(ids))}
	for _, id := range ids {
		uf.parent[id] = id
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	p, ok := uf.parent[x]
	if !ok {
		slog.Error("island: union-find missing member", "id", x)
		return x
	}
	if p == x {
		return x
	}
	root := uf.find(p)
	uf.parent[x] = root // path compression
	return root
}

func (uf *unionFind) union(x, y int) {
	rx, ry := uf.find(x), uf.find(y)
	if rx != ry {
		uf.parent[ry] = rx
	}
}

// Island is an ordered set of collider IDs that are mutually
// transitively in contact (or constrained together), used to wake and
// sleep colliders as one unit.
type Island struct {
	Members []int
}

// buildIslands groups every awake dynamic body into islands using the
// pairs this step's broad/narrow phase reported and every live
// constraint, mirroring broad_collect_simulation_islands but taking
// plain (id, id) pairs instead of walking a body table directly.
func buildIslands(bodyIDs []int, contactPairs [][2]int, constraintPairs [][2]int) []Island {
	uf := newUnionFind(bodyIDs)
	for _, p := range contactPairs {
		uf.union(p[0], p[1])
	}
	for _, p := range constraintPairs {
		uf.union(p[0], p[1])
	}

	order := map[int]int{}
	var islands []Island
	for _, id := range bodyIDs {
		root := uf.find(id)
		idx, ok := order[root]
		if !ok {
			idx = len(islands)
			order[root] = idx
			islands = append(islands, Island{})
		}
		islands[idx].Members = append(islands[idx].Members, id)
	}
	return islands
}

// wake marks every member of the island awake: a contact constraint
// pushing a non-zero impulse on its last solver iteration activates
// both endpoints' islands in full.
func (isl Island) wake(bodies map[int]*RigidBody) {
	for _, id := range isl.Members {
		if b, ok := bodies[id]; ok {
			b.Wake()
		}
	}
}

// allAsleep reports whether every member of the island is asleep or
// kinematic, the eviction condition the teacher calls "all island
// neighbours report NOTCOLLIDING".
func (isl Island) allAsleep(bodies map[int]*RigidBody) bool {
	for _, id := range isl.Members {
		if b, ok := bodies[id]; ok && b.Awake() {
			return false
		}
	}
	return true
}
