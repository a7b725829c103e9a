// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/solidforge/mechfizix/math/lin"
)

// halfedge.go generalizes the teacher's collider_Convex_Hull face/
// vertex/neighbor maps (physics/collider.go) into a reusable ConvexHull
// shape, and adds an incremental QuickHull-3D construction from a raw
// point cloud (the teacher only ever consumes a hull that is already
// built).

// hullFace is one planar face of a hull: its vertex loop (in winding
// order) and outward normal, mirroring collider_Convex_Hull_Face.
type hullFace struct {
	verts  []int
	normal lin.V3
}

// hullEdge is one edge of the hull, with the two faces that border it
// (needed by SAT's Minkowski-face edge-pair test, which tests whether
// an edge of A and an edge of B could together form a face of the
// Minkowski difference).
type hullEdge struct {
	a, b         int // endpoint vertex indices
	faceA, faceB int // the two faces sharing this edge
}

// ConvexHull is a convex polyhedron given by its vertices and faces,
// plus the adjacency maps the rest of the pipeline needs: which faces
// touch a vertex, which faces neighbor which (clipping's incident-face
// lookup), and which edges border which face pair (SAT's edge-pair
// enumeration).
type ConvexHull struct {
	verts      []lin.V3
	faces      []hullFace
	vertFaces  [][]int // vertex -> touching face indices
	faceNeighb [][]int // face -> neighboring face indices (share an edge)
	edges      []hullEdge
}

func (h *ConvexHull) Kind() ShapeKind { return KindConvexHull }

func (h *ConvexHull) Support(d lin.V3) lin.V3 {
	best := 0
	bestDot := -math.MaxFloat64
	for i, v := range h.verts {
		dot := v.X*d.X + v.Y*d.Y + v.Z*d.Z
		if dot > bestDot {
			bestDot = dot
			best = i
		}
	}
	return h.verts[best]
}

// SupportIndex is Support but also returns which vertex won, needed by
// SAT/clipping to walk the adjacency maps from the support point.
func (h *ConvexHull) SupportIndex(d lin.V3) (lin.V3, int) {
	best := 0
	bestDot := -math.MaxFloat64
	for i, v := range h.verts {
		dot := v.X*d.X + v.Y*d.Y + v.Z*d.Z
		if dot > bestDot {
			bestDot = dot
			best = i
		}
	}
	return h.verts[best], best
}

func (h *ConvexHull) ClosestPoint(p lin.V3) lin.V3 {
	best := h.verts[0]
	bestD := math.MaxFloat64
	// Closest point on every face's clipped triangle fan; good enough
	// for the margin/rest queries this is used for (not an exact
	// closest-point-on-hull, but the broad/TOI paths don't need one).
	for _, f := range h.faces {
		for i := 1; i+1 < len(f.verts); i++ {
			a, b, c := h.verts[f.verts[0]], h.verts[f.verts[i]], h.verts[f.verts[i+1]]
			cp := closestPointOnTriangle(p, a, b, c)
			d := (cp.X-p.X)*(cp.X-p.X) + (cp.Y-p.Y)*(cp.Y-p.Y) + (cp.Z-p.Z)*(cp.Z-p.Z)
			if d < bestD {
				bestD = d
				best = cp
			}
		}
	}
	return best
}

func (h *ConvexHull) Aabb(t *lin.T, margin float64) Abox {
	wv := t.App(&lin.V3{X: h.verts[0].X, Y: h.verts[0].Y, Z: h.verts[0].Z})
	box := Abox{Min: *wv, Max: *wv}
	for _, v := range h.verts[1:] {
		wv := t.App(&lin.V3{X: v.X, Y: v.Y, Z: v.Z})
		box.Min.X, box.Max.X = math.Min(box.Min.X, wv.X), math.Max(box.Max.X, wv.X)
		box.Min.Y, box.Max.Y = math.Min(box.Min.Y, wv.Y), math.Max(box.Max.Y, wv.Y)
		box.Min.Z, box.Max.Z = math.Min(box.Min.Z, wv.Z), math.Max(box.Max.Z, wv.Z)
	}
	return box.Expand(margin)
}

// Volume uses the divergence-theorem tetrahedron decomposition (every
// triangle of every face paired with the origin).
func (h *ConvexHull) Volume() float64 {
	vol := 0.0
	for _, f := range h.faces {
		a := h.verts[f.verts[0]]
		for i := 1; i+1 < len(f.verts); i++ {
			b, c := h.verts[f.verts[i]], h.verts[f.verts[i+1]]
			vol += (a.X*(b.Y*c.Z-b.Z*c.Y) - a.Y*(b.X*c.Z-b.Z*c.X) + a.Z*(b.X*c.Y-b.Y*c.X)) / 6.0
		}
	}
	return math.Abs(vol)
}

// Inertia approximates the hull as its vertex point cloud (teacher's
// colliders_get_default_inertia_tensor vertex-mass approach, diagonal
// terms only — off-diagonal products of inertia are assumed
// negligible for the convex shapes this engine targets).
func (h *ConvexHull) Inertia(mass float64) lin.V3 {
	if len(h.verts) == 0 {
		return lin.V3{}
	}
	mv := mass / float64(len(h.verts))
	var ix, iy, iz float64
	for _, v := range h.verts {
		ix += mv * (v.Y*v.Y + v.Z*v.Z)
		iy += mv * (v.X*v.X + v.Z*v.Z)
		iz += mv * (v.X*v.X + v.Y*v.Y)
	}
	return lin.V3{X: ix, Y: iy, Z: iz}
}

func closestPointOnTriangle(p, a, b, c lin.V3) lin.V3 {
	ab := lin.V3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
	ac := lin.V3{X: c.X - a.X, Y: c.Y - a.Y, Z: c.Z - a.Z}
	ap := lin.V3{X: p.X - a.X, Y: p.Y - a.Y, Z: p.Z - a.Z}
	d1 := ab.Dot(&ap)
	d2 := ac.Dot(&ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := lin.V3{X: p.X - b.X, Y: p.Y - b.Y, Z: p.Z - b.Z}
	d3 := ab.Dot(&bp)
	d4 := ac.Dot(&bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return lin.V3{X: a.X + ab.X*v, Y: a.Y + ab.Y*v, Z: a.Z + ab.Z*v}
	}
	cp := lin.V3{X: p.X - c.X, Y: p.Y - c.Y, Z: p.Z - c.Z}
	d5 := ab.Dot(&cp)
	d6 := ac.Dot(&cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return lin.V3{X: a.X + ac.X*w, Y: a.Y + ac.Y*w, Z: a.Z + ac.Z*w}
	}
	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return lin.V3{X: b.X + (c.X-b.X)*w, Y: b.Y + (c.Y-b.Y)*w, Z: b.Z + (c.Z-b.Z)*w}
	}
	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return lin.V3{X: a.X + ab.X*v + ac.X*w, Y: a.Y + ab.Y*v + ac.Y*w, Z: a.Z + ab.Z*v + ac.Z*w}
}

// NewBoxHull builds the axis-aligned box hull the teacher used to
// special-case (physics/shape.go's box) as a generic 8-vertex,
// 6-face ConvexHull — the box is no longer a distinct shape kind, it
// is absorbed into the hull kind.
func NewBoxHull(hx, hy, hz float64) *ConvexHull {
	v := []lin.V3{
		{X: -hx, Y: -hy, Z: -hz}, {X: hx, Y: -hy, Z: -hz},
		{X: hx, Y: hy, Z: -hz}, {X: -hx, Y: hy, Z: -hz},
		{X: -hx, Y: -hy, Z: hz}, {X: hx, Y: -hy, Z: hz},
		{X: hx, Y: hy, Z: hz}, {X: -hx, Y: hy, Z: hz},
	}
	idx := [][]int{
		{0, 3, 2, 1}, {4, 5, 6, 7}, {0, 1, 5, 4},
		{2, 3, 7, 6}, {1, 2, 6, 5}, {0, 4, 7, 3},
	}
	return NewConvexHull(v, idx)
}

// NewConvexHull builds a ConvexHull (and its adjacency maps) from an
// already-convex vertex set and face loops — the shape collider_
// convex_hull_create assumed was already given to it.
func NewConvexHull(verts []lin.V3, faceLoops [][]int) *ConvexHull {
	h := &ConvexHull{verts: verts}
	h.vertFaces = make([][]int, len(verts))
	for fi, loop := range faceLoops {
		a, b, c := verts[loop[0]], verts[loop[1]], verts[loop[2]]
		ab := lin.V3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
		ac := lin.V3{X: c.X - a.X, Y: c.Y - a.Y, Z: c.Z - a.Z}
		n := lin.V3{}
		n.Cross(&ab, &ac)
		n.Unit()
		h.faces = append(h.faces, hullFace{verts: append([]int(nil), loop...), normal: n})
		for _, vi := range loop {
			h.vertFaces[vi] = append(h.vertFaces[vi], fi)
		}
	}
	h.faceNeighb = make([][]int, len(h.faces))
	for i := range h.faces {
		for j := range h.faces {
			if i == j {
				continue
			}
			if sharesEdge(h.faces[i].verts, h.faces[j].verts) {
				h.faceNeighb[i] = append(h.faceNeighb[i], j)
			}
		}
	}
	h.edges = buildHullEdges(h.faces)
	return h
}

// buildHullEdges walks every face loop's consecutive vertex pairs and
// pairs each edge with the second face that shares it, so every edge
// of the hull appears exactly once with both bordering faces recorded.
func buildHullEdges(faces []hullFace) []hullEdge {
	type firstSeen struct {
		a, b, face int
	}
	seen := map[[2]int]firstSeen{}
	var edges []hullEdge
	for fi, f := range faces {
		n := len(f.verts)
		for i := 0; i < n; i++ {
			a, b := f.verts[i], f.verts[(i+1)%n]
			k := [2]int{a, b}
			if a > b {
				k = [2]int{b, a}
			}
			if fs, ok := seen[k]; ok {
				edges = append(edges, hullEdge{a: fs.a, b: fs.b, faceA: fs.face, faceB: fi})
				delete(seen, k)
			} else {
				seen[k] = firstSeen{a: a, b: b, face: fi}
			}
		}
	}
	return edges
}

func sharesEdge(a, b []int) bool {
	shared := 0
	for _, x := range a {
		for _, y := range b {
			if x == y {
				shared++
			}
		}
	}
	return shared >= 2
}

// Faces exposes the face normals/loops for SAT face-query and clipping.
func (h *ConvexHull) Faces() []hullFace { return h.faces }

// Edges exposes the hull's edge/bordering-face list for SAT's
// edge-pair test.
func (h *ConvexHull) Edges() []hullEdge { return h.edges }

// FaceVertex returns the world-space position of loop vertex i of face f.
func (h *ConvexHull) FaceVertex(f, i int) lin.V3 { return h.verts[h.faces[f].verts[i]] }

// Vertices exposes the hull's raw point set.
func (h *ConvexHull) Vertices() []lin.V3 { return h.verts }

// quickHullFace is a working face of the incremental hull under
// construction: its vertex triple (by index into the original point
// cloud) and the set of remaining points lying outside it.
type quickHullFace struct {
	a, b, c int
	outside []int
}

func mkQuickHullFace(points []lin.V3, inward int, a, b, c int) quickHullFace {
	na := faceNormal(points[a], points[b], points[c])
	toInward := lin.V3{X: points[inward].X - points[a].X, Y: points[inward].Y - points[a].Y, Z: points[inward].Z - points[a].Z}
	if na.Dot(&toInward) > 0 {
		a, b = b, a
	}
	return quickHullFace{a: a, b: b, c: c}
}

func assignOutside(faces []quickHullFace, points []lin.V3, used map[int]bool) []quickHullFace {
	for i := range faces {
		f := &faces[i]
		n := faceNormal(points[f.a], points[f.b], points[f.c])
		d := n.Dot(&points[f.a])
		f.outside = f.outside[:0]
		for pi, p := range points {
			if used[pi] {
				continue
			}
			if n.Dot(&p)-d > 1e-9 {
				f.outside = append(f.outside, pi)
			}
		}
	}
	return faces
}

// QuickHull builds the convex hull of an arbitrary point cloud using
// the incremental divide-and-conquer algorithm (grounded on
// quickHull.h): start from an extreme tetrahedron, then repeatedly pick
// the furthest outside point of the first face that still has outside
// points and re-triangulate the horizon.
func QuickHull(points []lin.V3) *ConvexHull {
	if len(points) < 4 {
		return degenerateHull(points)
	}
	i0, i1 := extremePair(points)
	i2 := farthestFromLine(points, points[i0], points[i1])
	i3 := farthestFromPlane(points, points[i0], points[i1], points[i2])
	if i2 < 0 || i3 < 0 {
		return degenerateHull(points)
	}

	faces := []quickHullFace{
		mkQuickHullFace(points, i0, i0, i1, i2),
		mkQuickHullFace(points, i0, i0, i2, i3),
		mkQuickHullFace(points, i0, i0, i3, i1),
		mkQuickHullFace(points, i0, i1, i3, i2),
	}

	used := map[int]bool{i0: true, i1: true, i2: true, i3: true}
	faces = assignOutside(faces, points, used)

	for iter := 0; iter < 10000; iter++ {
		fi := -1
		for i, f := range faces {
			if len(f.outside) > 0 {
				fi = i
				break
			}
		}
		if fi < 0 {
			break
		}
		f := faces[fi]
		n := faceNormal(points[f.a], points[f.b], points[f.c])
		d := n.Dot(&points[f.a])
		apex := f.outside[0]
		bestDist := 0.0
		for _, pi := range f.outside {
			dist := n.Dot(&points[pi]) - d
			if dist > bestDist {
				bestDist = dist
				apex = pi
			}
		}
		used[apex] = true

		// remove every face visible from apex, collect horizon edges.
		type edge struct{ a, b int }
		edgeCount := map[edge]int{}
		keep := faces[:0:0]
		for _, g := range faces {
			gn := faceNormal(points[g.a], points[g.b], points[g.c])
			gd := gn.Dot(&points[g.a])
			if gn.Dot(&points[apex])-gd > 1e-9 {
				es := [3]edge{{g.a, g.b}, {g.b, g.c}, {g.c, g.a}}
				for _, e := range es {
					edgeCount[e]++
					edgeCount[edge{e.b, e.a}]++
				}
			} else {
				keep = append(keep, g)
			}
		}
		var horizon []edge
		for e, cnt := range edgeCount {
			rev := edge{e.b, e.a}
			if cnt == 1 && edgeCount[rev] == 0 {
				horizon = append(horizon, e)
			}
		}
		for _, e := range horizon {
			keep = append(keep, mkQuickHullFace(points, i0, e.a, e.b, apex))
		}
		faces = assignOutside(keep, points, used)
	}

	idxSet := map[int]bool{}
	for _, f := range faces {
		idxSet[f.a], idxSet[f.b], idxSet[f.c] = true, true, true
	}
	remap := map[int]int{}
	var verts []lin.V3
	for i, p := range points {
		if idxSet[i] {
			remap[i] = len(verts)
			verts = append(verts, p)
		}
	}
	var loops [][]int
	for _, f := range faces {
		loops = append(loops, []int{remap[f.a], remap[f.b], remap[f.c]})
	}
	return NewConvexHull(verts, loops)
}

func faceNormal(a, b, c lin.V3) lin.V3 {
	ab := lin.V3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
	ac := lin.V3{X: c.X - a.X, Y: c.Y - a.Y, Z: c.Z - a.Z}
	n := lin.V3{}
	n.Cross(&ab, &ac)
	n.Unit()
	return n
}

func extremePair(points []lin.V3) (int, int) {
	minX, maxX := 0, 0
	for i, p := range points {
		if p.X < points[minX].X {
			minX = i
		}
		if p.X > points[maxX].X {
			maxX = i
		}
	}
	if minX == maxX {
		maxX = (minX + 1) % len(points)
	}
	return minX, maxX
}

func farthestFromLine(points []lin.V3, a, b lin.V3) int {
	best, bestD := -1, 0.0
	ab := lin.V3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
	for i, p := range points {
		ap := lin.V3{X: p.X - a.X, Y: p.Y - a.Y, Z: p.Z - a.Z}
		cr := lin.V3{}
		cr.Cross(&ab, &ap)
		d := cr.LenSqr()
		if d > bestD {
			bestD = d
			best = i
		}
	}
	return best
}

func farthestFromPlane(points []lin.V3, a, b, c lin.V3) int {
	n := faceNormal(a, b, c)
	d := n.Dot(&a)
	best, bestD := -1, 0.0
	for i, p := range points {
		dist := math.Abs(n.Dot(&p) - d)
		if dist > bestD {
			bestD = dist
			best = i
		}
	}
	return best
}

func degenerateHull(points []lin.V3) *ConvexHull {
	if len(points) == 0 {
		return &ConvexHull{}
	}
	return &ConvexHull{verts: points}
}
