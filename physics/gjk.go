// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/solidforge/mechfizix/math/lin"
)

// gjk.go generalizes the teacher's gjk.go (do_simplex_2/3/4 region
// tests over a fixed 4-point simplex) from a boolean overlap test to
// two queries: GJK (boolean, with witness simplex for EPA) and
// GJKDistance (closest-point-pair between disjoint shapes, via
// Johnson's subalgorithm instead of the teacher's region cases).

// mdPoint is one point of the Minkowski difference A⊖B, carrying the
// local-shape support points that produced it so witness points can be
// recovered once GJK/EPA converge.
type mdPoint struct {
	p   lin.V3
	onA lin.V3
	onB lin.V3
}

func invRotate(q *lin.Q, d lin.V3) lin.V3 {
	conj := lin.Q{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
	var out lin.V3
	out.MultvQ(&d, &conj)
	return out
}

// mdSupport returns the Minkowski-difference support point of A⊖B
// along world-space direction d, given each shape's world transform.
func mdSupport(a, b ConvexShape, ta, tb *lin.T, d lin.V3) mdPoint {
	da := invRotate(ta.Rot, d)
	sa := a.Support(da)
	wa := *ta.App(&sa)

	dn := lin.V3{X: -d.X, Y: -d.Y, Z: -d.Z}
	db := invRotate(tb.Rot, dn)
	sb := b.Support(db)
	wb := *tb.App(&sb)

	return mdPoint{
		p:   lin.V3{X: wa.X - wb.X, Y: wa.Y - wb.Y, Z: wa.Z - wb.Z},
		onA: wa,
		onB: wb,
	}
}

func tripleCross(a, b, c lin.V3) lin.V3 {
	var t, ab lin.V3
	ab.Cross(&a, &b)
	t.Cross(&ab, &c)
	return t
}

const gjkMaxIterations = 64

// GJK tests whether two shapes under transforms ta, tb overlap. On
// overlap it returns the terminal tetrahedron (4 Minkowski-difference
// points enclosing the origin, closest-added first) for EPA to expand.
func GJK(a, b ConvexShape, ta, tb *lin.T) (hit bool, simplex []mdPoint) {
	dir := lin.V3{X: 1}
	s := []mdPoint{mdSupport(a, b, ta, tb, dir)}
	dir = lin.V3{X: -s[0].p.X, Y: -s[0].p.Y, Z: -s[0].p.Z}

	for i := 0; i < gjkMaxIterations; i++ {
		if dir.AeqZ() {
			return true, s
		}
		next := mdSupport(a, b, ta, tb, dir)
		if next.p.Dot(&dir) < 0 {
			return false, s
		}
		s = append([]mdPoint{next}, s...)
		var encloses bool
		s, dir, encloses = reduceSimplex(s)
		if encloses {
			return true, s
		}
	}
	return false, s
}

// reduceSimplex takes a simplex (newest point first, up to 4 points)
// and returns the minimal sub-simplex still relevant to reaching the
// origin, the new search direction, and whether a 4-point simplex
// already encloses the origin (mirrors the teacher's do_simplex_2/3/4
// region logic, generalized to mdPoint and slice length instead of a
// fixed a/b/c/d struct).
func reduceSimplex(s []mdPoint) ([]mdPoint, lin.V3, bool) {
	switch len(s) {
	case 2:
		return reduceLine(s)
	case 3:
		return reduceTriangle(s)
	case 4:
		return reduceTetrahedron(s)
	}
	a := s[0].p
	return s, lin.V3{X: -a.X, Y: -a.Y, Z: -a.Z}, false
}

func reduceLine(s []mdPoint) ([]mdPoint, lin.V3, bool) {
	a, b := s[0].p, s[1].p
	ao := lin.V3{X: -a.X, Y: -a.Y, Z: -a.Z}
	ab := lin.V3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
	if ab.Dot(&ao) > 0 {
		return s, tripleCross(ab, ao, ab), false
	}
	return s[:1], ao, false
}

func reduceTriangle(s []mdPoint) ([]mdPoint, lin.V3, bool) {
	a, b, c := s[0].p, s[1].p, s[2].p
	ao := lin.V3{X: -a.X, Y: -a.Y, Z: -a.Z}
	ab := lin.V3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
	ac := lin.V3{X: c.X - a.X, Y: c.Y - a.Y, Z: c.Z - a.Z}
	var abc lin.V3
	abc.Cross(&ab, &ac)

	var abPerp lin.V3
	abPerp.Cross(&ab, &abc)
	if abPerp.Dot(&ao) > 0 {
		if ab.Dot(&ao) > 0 {
			return s[:2], tripleCross(ab, ao, ab), false
		}
		return s[:1], ao, false
	}
	var acPerp lin.V3
	acPerp.Cross(&abc, &ac)
	if acPerp.Dot(&ao) > 0 {
		if ac.Dot(&ao) > 0 {
			return []mdPoint{s[0], s[2]}, tripleCross(ac, ao, ac), false
		}
		return s[:1], ao, false
	}
	if abc.Dot(&ao) > 0 {
		return s, abc, false
	}
	return []mdPoint{s[0], s[2], s[1]}, lin.V3{X: -abc.X, Y: -abc.Y, Z: -abc.Z}, false
}

func reduceTetrahedron(s []mdPoint) ([]mdPoint, lin.V3, bool) {
	a, b, c, d := s[0].p, s[1].p, s[2].p, s[3].p
	ao := lin.V3{X: -a.X, Y: -a.Y, Z: -a.Z}
	ab := lin.V3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
	ac := lin.V3{X: c.X - a.X, Y: c.Y - a.Y, Z: c.Z - a.Z}
	ad := lin.V3{X: d.X - a.X, Y: d.Y - a.Y, Z: d.Z - a.Z}
	var abc, acd, adb lin.V3
	abc.Cross(&ab, &ac)
	acd.Cross(&ac, &ad)
	adb.Cross(&ad, &ab)

	outABC := abc.Dot(&ao) > 0
	outACD := acd.Dot(&ao) > 0
	outADB := adb.Dot(&ao) > 0

	if !outABC && !outACD && !outADB {
		return s, lin.V3{}, true
	}
	switch {
	case outABC:
		tri, dir, _ := reduceTriangle([]mdPoint{s[0], s[1], s[2]})
		return tri, dir, false
	case outACD:
		tri, dir, _ := reduceTriangle([]mdPoint{s[0], s[2], s[3]})
		return tri, dir, false
	default:
		tri, dir, _ := reduceTriangle([]mdPoint{s[0], s[3], s[1]})
		return tri, dir, false
	}
}

// GJKDistance computes the closest points between two disjoint convex
// shapes using Johnson's subalgorithm: repeatedly find the minimum-norm
// point of the current simplex (shrinking to whichever vertices/edges/
// face actually support it), then walk toward the origin until no
// further support point improves on it.
func GJKDistance(a, b ConvexShape, ta, tb *lin.T) (dist float64, onA, onB lin.V3) {
	dir := lin.V3{X: 1}
	pts := []mdPoint{mdSupport(a, b, ta, tb, dir)}

	var closest lin.V3
	for i := 0; i < gjkMaxIterations; i++ {
		var sub []mdPoint
		closest, sub = closestOnSimplex(pts)
		pts = sub
		if closest.AeqZ() {
			return 0, pts[0].onA, pts[0].onB
		}
		dir = lin.V3{X: -closest.X, Y: -closest.Y, Z: -closest.Z}
		next := mdSupport(a, b, ta, tb, dir)
		improvement := next.p.Dot(&dir) - closest.Dot(&dir)
		if improvement < 1e-10 {
			break
		}
		pts = append(pts, next)
		if len(pts) > 4 {
			pts = pts[len(pts)-4:]
		}
	}
	onA, onB = witnessFromSimplex(pts, closest)
	return closest.Len(), onA, onB
}

// closestOnSimplex returns the minimum-norm point of conv(pts) and the
// minimal subset of pts that supports it.
func closestOnSimplex(pts []mdPoint) (lin.V3, []mdPoint) {
	switch len(pts) {
	case 1:
		return pts[0].p, pts
	case 2:
		return closestOnSegmentMD(pts[0], pts[1])
	case 3:
		return closestOnTriangleMD(pts[0], pts[1], pts[2])
	default:
		return closestOnTetrahedronMD(pts)
	}
}

func closestOnSegmentMD(a, b mdPoint) (lin.V3, []mdPoint) {
	ab := lin.V3{X: b.p.X - a.p.X, Y: b.p.Y - a.p.Y, Z: b.p.Z - a.p.Z}
	neg := lin.V3{X: -a.p.X, Y: -a.p.Y, Z: -a.p.Z}
	denom := ab.Dot(&ab)
	if denom < lin.Epsilon {
		return a.p, []mdPoint{a}
	}
	t := lin.Clamp(neg.Dot(&ab)/denom, 0, 1)
	if t <= 0 {
		return a.p, []mdPoint{a}
	}
	if t >= 1 {
		return b.p, []mdPoint{b}
	}
	cp := lin.V3{X: a.p.X + ab.X*t, Y: a.p.Y + ab.Y*t, Z: a.p.Z + ab.Z*t}
	return cp, []mdPoint{a, b}
}

func closestOnTriangleMD(a, b, c mdPoint) (lin.V3, []mdPoint) {
	cp := closestPointOnTriangle(lin.V3{}, a.p, b.p, c.p)
	if nearlyEq(cp, a.p) {
		return cp, []mdPoint{a}
	}
	if nearlyEq(cp, b.p) {
		return cp, []mdPoint{b}
	}
	if nearlyEq(cp, c.p) {
		return cp, []mdPoint{c}
	}
	if pointNearSegment(cp, a.p, b.p) {
		return cp, []mdPoint{a, b}
	}
	if pointNearSegment(cp, a.p, c.p) {
		return cp, []mdPoint{a, c}
	}
	if pointNearSegment(cp, b.p, c.p) {
		return cp, []mdPoint{b, c}
	}
	return cp, []mdPoint{a, b, c}
}

func nearlyEq(p, q lin.V3) bool {
	d := lin.V3{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
	return d.AeqZ()
}

func pointNearSegment(p, a, b lin.V3) bool {
	cp := closestPointOnSegment(p, a, b)
	return nearlyEq(p, cp)
}

func closestOnTetrahedronMD(pts []mdPoint) (lin.V3, []mdPoint) {
	faces := [4][3]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 1}, {1, 3, 2}}
	best := pts[0].p
	bestD := math.MaxFloat64
	var bestSub []mdPoint
	for _, f := range faces {
		cp, sub := closestOnTriangleMD(pts[f[0]], pts[f[1]], pts[f[2]])
		d := cp.LenSqr()
		if d < bestD {
			bestD = d
			best = cp
			bestSub = sub
		}
	}
	return best, bestSub
}

func witnessFromSimplex(pts []mdPoint, closest lin.V3) (onA, onB lin.V3) {
	switch len(pts) {
	case 1:
		return pts[0].onA, pts[0].onB
	case 2:
		t := segmentParam(closest, pts[0].p, pts[1].p)
		onA = lin.V3{
			X: pts[0].onA.X + (pts[1].onA.X-pts[0].onA.X)*t,
			Y: pts[0].onA.Y + (pts[1].onA.Y-pts[0].onA.Y)*t,
			Z: pts[0].onA.Z + (pts[1].onA.Z-pts[0].onA.Z)*t,
		}
		onB = lin.V3{
			X: pts[0].onB.X + (pts[1].onB.X-pts[0].onB.X)*t,
			Y: pts[0].onB.Y + (pts[1].onB.Y-pts[0].onB.Y)*t,
			Z: pts[0].onB.Z + (pts[1].onB.Z-pts[0].onB.Z)*t,
		}
		return onA, onB
	default:
		// 3+ points: nearest vertex's witness is a good enough
		// approximation — GJKDistance is only used for separated
		// (non-overlapping) rest-contact queries, not deep contacts.
		bestI := 0
		bestD := math.MaxFloat64
		for i, p := range pts {
			d := p.p.DistSqr(&closest)
			if d < bestD {
				bestD = d
				bestI = i
			}
		}
		return pts[bestI].onA, pts[bestI].onB
	}
}

func segmentParam(p, a, b lin.V3) float64 {
	ab := lin.V3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
	denom := ab.Dot(&ab)
	if denom < lin.Epsilon {
		return 0
	}
	ap := lin.V3{X: p.X - a.X, Y: p.Y - a.Y, Z: p.Z - a.Z}
	return lin.Clamp(ap.Dot(&ab)/denom, 0, 1)
}
