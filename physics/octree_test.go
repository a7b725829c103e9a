// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/solidforge/mechfizix/math/lin"
)

func box(cx, cy, cz, half float64) Abox {
	return Abox{
		Min: lin.V3{X: cx - half, Y: cy - half, Z: cz - half},
		Max: lin.V3{X: cx + half, Y: cy + half, Z: cz + half},
	}
}

func TestOctreeQueryPairsFindsOverlapping(t *testing.T) {
	o := NewOctree(100, 4)
	o.Insert(1, box(0, 0, 0, 1))
	o.Insert(2, box(0.5, 0, 0, 1))
	o.Insert(3, box(50, 50, 50, 1))

	pairs := o.QueryPairs()
	if !hasPair(pairs, 1, 2) {
		t.Errorf("expected pair (1,2) among co-resident bodies, got %v", pairs)
	}
	if hasPair(pairs, 1, 3) || hasPair(pairs, 2, 3) {
		t.Errorf("body 3 is far away and should not pair with 1 or 2, got %v", pairs)
	}
}

func TestOctreeRemoveDropsResidency(t *testing.T) {
	o := NewOctree(100, 4)
	o.Insert(1, box(0, 0, 0, 1))
	o.Insert(2, box(0, 0, 0, 1))
	o.Remove(1)
	pairs := o.QueryPairs()
	if hasPair(pairs, 1, 2) {
		t.Error("expected removed body to no longer pair with anything")
	}
}

func TestOctreeUpdateMovesResidency(t *testing.T) {
	o := NewOctree(100, 4)
	o.Insert(1, box(0, 0, 0, 1))
	o.Insert(2, box(50, 50, 50, 1))
	if hasPair(o.QueryPairs(), 1, 2) {
		t.Fatal("bodies should not start out co-resident")
	}
	o.Update(1, box(50, 50, 50, 1))
	if !hasPair(o.QueryPairs(), 1, 2) {
		t.Error("expected body 1 to pair with body 2 after moving next to it")
	}
}

// TestOctreeUpdateNeighborWalkFindsAdjacentLeaf moves a body by less
// than one cell width, the case the neighbour-walk path (not the
// insert-from-root fallback) is expected to handle.
func TestOctreeUpdateNeighborWalkFindsAdjacentLeaf(t *testing.T) {
	o := NewOctree(8, 2) // leaf half-size = 8/2^2 = 2, so a leaf is 4 wide: x boundaries at -8,-4,0,4,8.
	o.Insert(1, box(2, 1, 1, 0.5)) // solidly inside the [0,4]x[0,4]x[0,4] leaf.
	o.Insert(2, box(6, 1, 1, 0.5)) // solidly inside the adjacent [4,8]x[0,4]x[0,4] leaf.
	if hasPair(o.QueryPairs(), 1, 2) {
		t.Fatal("bodies should not start out co-resident")
	}

	o.Update(1, box(3.6, 1, 1, 0.5)) // small move, now straddling into body 2's leaf.
	if !hasPair(o.QueryPairs(), 1, 2) {
		t.Error("expected the neighbour walk to find body 2's leaf after a small move")
	}
}

// TestOctreeUpdatePrunesStaleLeaves checks a body dropped from a leaf
// it no longer overlaps stops pairing with something left behind there.
func TestOctreeUpdatePrunesStaleLeaves(t *testing.T) {
	o := NewOctree(8, 2)
	o.Insert(1, box(2, 1, 1, 0.5))
	o.Insert(2, box(2, 1, 1, 0.5))
	o.Update(1, box(6, 1, 1, 0.5))
	if hasPair(o.QueryPairs(), 1, 2) {
		t.Error("expected body 1 to no longer pair with body 2 after moving away")
	}
}

// TestOctreeStepNeighborReturnsNilOutsideRoot checks a step off the
// edge of the tree's own bound doesn't panic or wrap around.
func TestOctreeStepNeighborReturnsNilOutsideRoot(t *testing.T) {
	o := NewOctree(8, 2)
	corner := &o.root
	for corner.depth < o.maxDepth {
		subdivide(corner)
		corner = &corner.children[0] // the (-,-,-) octant, the tree's own corner.
	}
	if n := o.stepNeighbor(corner, -1, -1, -1); n != nil {
		t.Errorf("expected stepping outward past the root bound to return nil, got %+v", n)
	}
}

func TestOctreeQueryBoxFindsSweptResidents(t *testing.T) {
	o := NewOctree(100, 4)
	o.Insert(1, box(10, 0, 0, 1))
	o.Insert(2, box(90, 90, 90, 1))
	swept := box(0, 0, 0, 1).Union(box(10, 0, 0, 1))
	ids := o.QueryBox(swept)
	if !hasID(ids, 1) {
		t.Errorf("expected swept query to find body 1, got %v", ids)
	}
	if hasID(ids, 2) {
		t.Errorf("expected swept query to exclude distant body 2, got %v", ids)
	}
}

func hasPair(pairs [][2]int, a, b int) bool {
	if a > b {
		a, b = b, a
	}
	for _, p := range pairs {
		x, y := p[0], p[1]
		if x > y {
			x, y = y, x
		}
		if x == a && y == b {
			return true
		}
	}
	return false
}

func hasID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
