// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/solidforge/mechfizix/math/lin"
)

// manifold.go defines the contact manifold types narrow phase and the
// solver exchange, plus the enforce4Contacts reduction rule documented
// in DESIGN.md.

// ContactPoint is one point of a manifold: the witness positions on
// each body's surface (PositionA on BodyA, PositionB on BodyB — the
// two coincide within slop once resting, but diverge by the
// penetration depth along Normal while overlapping), separation
// (negative = penetrating), and a stable feature ID used to carry the
// impulse cache across frames.
type ContactPoint struct {
	PositionA  lin.V3
	PositionB  lin.V3
	Separation float64
	FeatureID  uint32
}

// Manifold is the full contact result between a body pair: a shared
// normal (from A to B) and up to 4 contact points (the
// enforce-4-contacts cap).
type Manifold struct {
	BodyA, BodyB int
	Normal       lin.V3
	Tangent1     lin.V3
	Tangent2     lin.V3
	Points       []ContactPoint
}

// basisFromNormal builds an orthonormal tangent frame from the contact
// normal (Gram-Schmidt against whichever axis is least parallel),
// needed for the solver's two friction directions.
func basisFromNormal(n lin.V3) (t1, t2 lin.V3) {
	axis := lin.V3{X: 1}
	if math.Abs(n.X) > 0.9 {
		axis = lin.V3{Y: 1}
	}
	t1.Cross(&n, &axis)
	t1.Unit()
	t2.Cross(&n, &t1)
	t2.Unit()
	return t1, t2
}

// enforce4Contacts reduces an oversized candidate point set to at most
// 4, per DESIGN.md's decision: keep the deepest point, then the point
// farthest from it, then greedily add whichever remaining point
// maximizes the area of the quadrilateral formed so far. This beats a
// naive "keep the 4 deepest" rule because it preserves the support
// polygon's spread, which is what keeps the solver from letting a body
// rock on a degenerate line of contacts.
func enforce4Contacts(pts []ContactPoint) []ContactPoint {
	if len(pts) <= 4 {
		return pts
	}
	deepest := 0
	for i, p := range pts {
		if p.Separation < pts[deepest].Separation {
			deepest = i
		}
	}
	chosen := []int{deepest}
	farthest := farthestFrom(pts, deepest, chosen)
	chosen = append(chosen, farthest)

	for len(chosen) < 4 {
		best, bestArea := -1, -1.0
		for i := range pts {
			if contains(chosen, i) {
				continue
			}
			area := quadArea(pts, append(chosen, i))
			if area > bestArea {
				bestArea = area
				best = i
			}
		}
		if best < 0 {
			break
		}
		chosen = append(chosen, best)
	}

	out := make([]ContactPoint, 0, len(chosen))
	for _, i := range chosen {
		out = append(out, pts[i])
	}
	return out
}

func farthestFrom(pts []ContactPoint, from int, exclude []int) int {
	best, bestD := -1, -1.0
	for i, p := range pts {
		if contains(exclude, i) {
			continue
		}
		d := p.PositionA.DistSqr(&pts[from].PositionA)
		if d > bestD {
			bestD = d
			best = i
		}
	}
	if best < 0 {
		best = from
	}
	return best
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// quadArea sums twice the triangle areas (the cross-product lengths)
// of the polygon fan formed by idx
// (in selection order), a cheap proxy for "how spread out is this
// point set" that doesn't require the points to be coplanar or convex.
func quadArea(pts []ContactPoint, idx []int) float64 {
	if len(idx) < 3 {
		return 0
	}
	total := 0.0
	a := pts[idx[0]].PositionA
	for i := 1; i+1 < len(idx); i++ {
		b, c := pts[idx[i]].PositionA, pts[idx[i+1]].PositionA
		ab := lin.V3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
		ac := lin.V3{X: c.X - a.X, Y: c.Y - a.Y, Z: c.Z - a.Z}
		var cr lin.V3
		cr.Cross(&ab, &ac)
		total += cr.Len()
	}
	return total
}
