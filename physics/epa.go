// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/solidforge/mechfizix/math/lin"
)

// epa.go generalizes the teacher's epa.go (expanding polytope over a
// v3Int/lin.V3 index soup) to operate on mdPoint so the penetration
// witness points on each shape ride along with the expansion — the
// narrow phase needs a world contact point back, not just a normal and
// depth.

type epaFace struct {
	a, b, c  int // indices into the polytope's point list
	normal   lin.V3
	distance float64 // distance from origin to the face's plane
}

const epaEpsilon = 1e-4
const epaMaxIterations = 64

// EPA expands the GJK terminal simplex (4 points enclosing the origin)
// until it finds the polytope face closest to the origin, returning
// the contact normal (pointing from A to B), penetration depth, and
// world-space witness points on each shape.
func EPA(a, b ConvexShape, ta, tb *lin.T, simplex []mdPoint) (normal lin.V3, depth float64, onA, onB lin.V3, ok bool) {
	if len(simplex) != 4 {
		return normal, 0, onA, onB, false
	}
	poly := append([]mdPoint(nil), simplex...)
	faces := []epaFace{
		mkEpaFace(poly, 0, 1, 2),
		mkEpaFace(poly, 0, 2, 3),
		mkEpaFace(poly, 0, 3, 1),
		mkEpaFace(poly, 1, 3, 2),
	}

	for it := 0; it < epaMaxIterations; it++ {
		closest := 0
		for i := 1; i < len(faces); i++ {
			if faces[i].distance < faces[closest].distance {
				closest = i
			}
		}
		f := faces[closest]
		support := mdSupport(a, b, ta, tb, f.normal)
		d := f.normal.Dot(&support.p)

		if math.Abs(d-f.distance) < epaEpsilon {
			normal = f.normal
			depth = f.distance
			onA, onB = baryWitness(poly[f.a], poly[f.b], poly[f.c])
			return normal, depth, onA, onB, true
		}

		newIdx := len(poly)
		poly = append(poly, support)
		type edge struct{ a, b int }
		edgeCount := map[edge]int{}
		kept := faces[:0]
		for _, g := range faces {
			toSupport := lin.V3{X: support.p.X - poly[g.a].p.X, Y: support.p.Y - poly[g.a].p.Y, Z: support.p.Z - poly[g.a].p.Z}
			if g.normal.Dot(&toSupport) > 0 {
				es := [3]edge{{g.a, g.b}, {g.b, g.c}, {g.c, g.a}}
				for _, e := range es {
					edgeCount[e]++
					edgeCount[edge{e.b, e.a}]++
				}
			} else {
				kept = append(kept, g)
			}
		}
		faces = kept
		for e, cnt := range edgeCount {
			rev := edge{e.b, e.a}
			if cnt == 1 && edgeCount[rev] == 0 {
				faces = append(faces, mkEpaFace(poly, e.a, e.b, newIdx))
			}
		}
	}
	return normal, 0, onA, onB, false
}

func mkEpaFace(poly []mdPoint, a, b, c int) epaFace {
	pa, pb, pc := poly[a].p, poly[b].p, poly[c].p
	ab := lin.V3{X: pb.X - pa.X, Y: pb.Y - pa.Y, Z: pb.Z - pa.Z}
	ac := lin.V3{X: pc.X - pa.X, Y: pc.Y - pa.Y, Z: pc.Z - pa.Z}
	var n lin.V3
	n.Cross(&ab, &ac)
	n.Unit()
	d := n.Dot(&pa)
	if d < 0 {
		n = lin.V3{X: -n.X, Y: -n.Y, Z: -n.Z}
		d = -d
		a, b = b, a
	}
	return epaFace{a: a, b: b, c: c, normal: n, distance: d}
}

// baryWitness recovers world witness points on A and B for the origin's
// projection onto triangle abc, via barycentric coordinates of the
// projected origin (the closest point on the face to the origin —
// EPA guarantees the origin is inside the face's Voronoi region once
// converged, so this is the simple planar case, not the general
// closest-point-on-triangle clamp).
func baryWitness(a, b, c mdPoint) (onA, onB lin.V3) {
	u, v, w := baryOfOrigin(a.p, b.p, c.p)
	onA = lin.V3{
		X: u*a.onA.X + v*b.onA.X + w*c.onA.X,
		Y: u*a.onA.Y + v*b.onA.Y + w*c.onA.Y,
		Z: u*a.onA.Z + v*b.onA.Z + w*c.onA.Z,
	}
	onB = lin.V3{
		X: u*a.onB.X + v*b.onB.X + w*c.onB.X,
		Y: u*a.onB.Y + v*b.onB.Y + w*c.onB.Y,
		Z: u*a.onB.Z + v*b.onB.Z + w*c.onB.Z,
	}
	return onA, onB
}

func baryOfOrigin(a, b, c lin.V3) (u, v, w float64) {
	ab := lin.V3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
	ac := lin.V3{X: c.X - a.X, Y: c.Y - a.Y, Z: c.Z - a.Z}
	ao := lin.V3{X: -a.X, Y: -a.Y, Z: -a.Z}
	d00 := ab.Dot(&ab)
	d01 := ab.Dot(&ac)
	d11 := ac.Dot(&ac)
	d20 := ao.Dot(&ab)
	d21 := ao.Dot(&ac)
	denom := d00*d11 - d01*d01
	if math.Abs(denom) < lin.Epsilon {
		return 1.0 / 3, 1.0 / 3, 1.0 / 3
	}
	v = (d11*d20 - d01*d21) / denom
	w = (d00*d21 - d01*d20) / denom
	u = 1 - v - w
	return u, v, w
}
