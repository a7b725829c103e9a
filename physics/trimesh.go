// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/solidforge/mechfizix/math/lin"
)

// trimesh.go adds the static triangle-mesh collider. The teacher has
// no mesh collider at all (its only static geometry is a convex hull);
// this is grounded on the shape taken by original_source/mech3D/
// geometry/triangleMesh.cpp, a flat vertex/index buffer plus a
// recursive 8-way (octant) bounding-volume hierarchy so broad culling
// doesn't need to test every triangle.

// Triangle is a single mesh face treated as a degenerate ConvexShape
// (zero-volume) so it can flow through the same narrow-phase dispatch
// as any other convex primitive.
type Triangle struct {
	A, B, C lin.V3
}

func (t Triangle) Kind() ShapeKind { return KindTriangleMesh }

func (t Triangle) Support(d lin.V3) lin.V3 {
	best := t.A
	bestDot := d.Dot(&t.A)
	if dv := d.Dot(&t.B); dv > bestDot {
		bestDot, best = dv, t.B
	}
	if dv := d.Dot(&t.C); dv > bestDot {
		best = t.C
	}
	return best
}

func (t Triangle) ClosestPoint(p lin.V3) lin.V3 {
	return closestPointOnTriangle(p, t.A, t.B, t.C)
}

func (t Triangle) Aabb(tr *lin.T, margin float64) Abox {
	wa := *tr.App(&lin.V3{X: t.A.X, Y: t.A.Y, Z: t.A.Z})
	wb := *tr.App(&lin.V3{X: t.B.X, Y: t.B.Y, Z: t.B.Z})
	wc := *tr.App(&lin.V3{X: t.C.X, Y: t.C.Y, Z: t.C.Z})
	box := Abox{Min: wa, Max: wa}
	for _, v := range []lin.V3{wb, wc} {
		box.Min.X, box.Max.X = math.Min(box.Min.X, v.X), math.Max(box.Max.X, v.X)
		box.Min.Y, box.Max.Y = math.Min(box.Min.Y, v.Y), math.Max(box.Max.Y, v.Y)
		box.Min.Z, box.Max.Z = math.Min(box.Min.Z, v.Z), math.Max(box.Max.Z, v.Z)
	}
	return box.Expand(margin)
}

func (t Triangle) Volume() float64 { return 0 }

func (t Triangle) Inertia(mass float64) lin.V3 { return lin.V3{} }

// trimeshNode is one node of the mesh's static 8-way BVH, built once
// at TriangleMesh construction and never rebalanced (the mesh is
// immutable).
type trimeshNode struct {
	box      Abox
	tris     []int // leaf: indices into the mesh's triangle list
	children []*trimeshNode
}

// TriangleMesh is a static collision mesh: a flat triangle list plus
// its BVH for broad culling of mesh-vs-shape queries.
type TriangleMesh struct {
	Triangles []Triangle
	bvh       *trimeshNode
}

// NewTriangleMesh builds the mesh and its BVH from an already-indexed
// triangle soup.
func NewTriangleMesh(verts []lin.V3, indices []int) *TriangleMesh {
	tm := &TriangleMesh{}
	for i := 0; i+2 < len(indices); i += 3 {
		tm.Triangles = append(tm.Triangles, Triangle{A: verts[indices[i]], B: verts[indices[i+1]], C: verts[indices[i+2]]})
	}
	all := make([]int, len(tm.Triangles))
	for i := range all {
		all[i] = i
	}
	tm.bvh = buildBVH(tm.Triangles, all, 0)
	return tm
}

const bvhLeafSize = 8
const bvhMaxDepth = 16

// buildBVH recursively partitions idx into up to 8 octant buckets
// around the node box's own center — the three coordinate signs
// relative to center pick one of 8 children, the way an octree
// subdivides space, rather than a binary median split along one axis.
// A bucket that ends up holding every triangle (no split occurred,
// e.g. several triangles sharing one centroid) terminates the
// recursion as a leaf instead of looping forever.
func buildBVH(tris []Triangle, idx []int, depth int) *trimeshNode {
	box := triBounds(tris, idx[0])
	for _, i := range idx[1:] {
		box = box.Union(triBounds(tris, i))
	}
	if len(idx) <= bvhLeafSize || depth >= bvhMaxDepth {
		return &trimeshNode{box: box, tris: idx}
	}

	center := box.Center()
	var buckets [8][]int
	for _, i := range idx {
		o := octantOf(triCentroid(tris, i), center)
		buckets[o] = append(buckets[o], i)
	}

	full := 0
	for _, bkt := range buckets {
		if len(bkt) == len(idx) {
			full++
		}
	}
	if full > 0 {
		return &trimeshNode{box: box, tris: idx}
	}

	var children []*trimeshNode
	for _, bkt := range buckets {
		if len(bkt) == 0 {
			continue
		}
		children = append(children, buildBVH(tris, bkt, depth+1))
	}
	return &trimeshNode{box: box, children: children}
}

// octantOf returns which of the 8 octants around center p falls in,
// encoded as bit0=X>=cx, bit1=Y>=cy, bit2=Z>=cz.
func octantOf(p, center lin.V3) int {
	o := 0
	if p.X >= center.X {
		o |= 1
	}
	if p.Y >= center.Y {
		o |= 2
	}
	if p.Z >= center.Z {
		o |= 4
	}
	return o
}

func triCentroid(tris []Triangle, i int) lin.V3 {
	t := tris[i]
	return lin.V3{
		X: (t.A.X + t.B.X + t.C.X) / 3,
		Y: (t.A.Y + t.B.Y + t.C.Y) / 3,
		Z: (t.A.Z + t.B.Z + t.C.Z) / 3,
	}
}

func triBounds(tris []Triangle, i int) Abox {
	t := tris[i]
	box := Abox{Min: t.A, Max: t.A}
	for _, v := range []lin.V3{t.B, t.C} {
		box.Min.X, box.Max.X = math.Min(box.Min.X, v.X), math.Max(box.Max.X, v.X)
		box.Min.Y, box.Max.Y = math.Min(box.Min.Y, v.Y), math.Max(box.Max.Y, v.Y)
		box.Min.Z, box.Max.Z = math.Min(box.Min.Z, v.Z), math.Max(box.Max.Z, v.Z)
	}
	return box
}

// QueryAabb returns the indices of triangles whose bounds overlap box.
func (tm *TriangleMesh) QueryAabb(box Abox) []int {
	var out []int
	var walk func(n *trimeshNode)
	walk = func(n *trimeshNode) {
		if n == nil || !n.box.Overlaps(box) {
			return
		}
		if n.children == nil {
			out = append(out, n.tris...)
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(tm.bvh)
	return out
}
