// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/solidforge/mechfizix/math/lin"

// solver.go generalizes the teacher's solver.go (setupConstraints,
// convertContacts, setupContactConstraint/setupFrictionConstraint,
// solveIterations, resolveSplitPenetrationImpulse, finish) off its
// solverBody/solverConstraint pair onto constraint.go's shared axis
// primitive: contact and friction rows are built per point exactly as
// the teacher does (one normal row clamped to [0,∞), two tangent rows
// clamped to the normal row's own running impulse), but every other
// book-keeping field the teacher's solverConstraint carries
// (frictionIndex, oPoint, cfm...) is implicit instead of stored.
//
// Penetration correction is split into its own pass rather than folded
// into the velocity row's bias (the teacher's splitImpulse branch):
// after the velocity iterations settle, a separate position pass nudges
// the bodies' positions directly along the contact normal in proportion
// to inverse mass, the simplest form of Baumgarte-by-direct-correction
// and one that needs no separate push/turn velocity bookkeeping.

// contactPoint is one manifold point's prepared solver state: a normal
// axis plus its two tangent friction axes, whose limits are re-clamped
// to the normal axis's running impulse every velocity sweep.
type contactPoint struct {
	normal   axis
	tangent1 axis
	tangent2 axis
	friction float64
	point    *ContactPoint
	manifold *Manifold
}

// Solver runs the sequential-impulse velocity pass, the position
// correction pass, and the cache/wake bookkeeping.
type Solver struct {
	Impulses *ImpulseCache
}

// NewSolver returns a solver backed by the given impulse cache.
func NewSolver(cache *ImpulseCache) *Solver {
	return &Solver{Impulses: cache}
}

// warmStartFactor scales last step's cached impulse before reapplying
// it. The teacher's solverInfo.warmstartingFactor uses 0.85; this
// engine's reference implementation (original_source) always reapplies
// the full cached impulse, so the factor here is 1.
const warmStartFactor = 1.0

// Solve runs one physics step's constraint solve: every manifold's
// contact points plus every non-contact Constraint, against the bodies
// named by collider ID in bodies.
func (s *Solver) Solve(settings Settings, manifolds []*Manifold, constraints []*Constraint, bodies map[int]*RigidBody, dt float64) {
	contacts := s.prepareContacts(settings, manifolds, bodies, dt)
	jointAxes := make([][]axis, len(constraints))
	for i, c := range constraints {
		jointAxes[i] = c.axes(dt)
	}

	for _, cp := range contacts {
		cp.normal.warmStart()
		cp.tangent1.warmStart()
		cp.tangent2.warmStart()
	}
	for _, rows := range jointAxes {
		for i := range rows {
			rows[i].warmStart()
		}
	}

	for iter := 0; iter < settings.VelocityIterations; iter++ {
		for _, cp := range contacts {
			limit := cp.friction * cp.normal.appliedImpulse
			cp.tangent1.lowerLimit, cp.tangent1.upperLimit = -limit, limit
			cp.tangent2.lowerLimit, cp.tangent2.upperLimit = -limit, limit
			cp.tangent1.resolveAxis()
			cp.tangent2.resolveAxis()
			cp.normal.resolveAxis()
		}
		for _, rows := range jointAxes {
			for i := range rows {
				rows[i].resolveAxis()
			}
		}
	}

	s.correctPenetrations(settings, manifolds, bodies)
	s.storeAndWake(contacts, manifolds, bodies)
}

// prepareContacts builds one contactPoint per manifold point still
// within the touching tolerance, warm-started from the impulse cache
// keyed by collider pair and feature ID.
func (s *Solver) prepareContacts(settings Settings, manifolds []*Manifold, bodies map[int]*RigidBody, dt float64) []*contactPoint {
	var out []*contactPoint
	for _, m := range manifolds {
		bodyA, bodyB := bodies[m.BodyA], bodies[m.BodyB]
		if bodyA == nil || bodyB == nil {
			continue
		}
		friction := combinedFriction(bodyA.Material(), bodyB.Material())
		restitution := combinedRestitution(bodyA.Material(), bodyB.Material())
		// the manifold normal points from A to B; the solver axis points
		// from B to A so a positive (pushing) impulse moves A away from B.
		normal := lin.V3{X: -m.Normal.X, Y: -m.Normal.Y, Z: -m.Normal.Z}

		for i := range m.Points {
			p := &m.Points[i]
			if p.Separation > settings.LinearSlop {
				continue // not touching: no constraint this step.
			}

			relA := lin.V3{X: p.PositionA.X - bodyA.Transform.Loc.X, Y: p.PositionA.Y - bodyA.Transform.Loc.Y, Z: p.PositionA.Z - bodyA.Transform.Loc.Z}
			relB := lin.V3{X: p.PositionB.X - bodyB.Transform.Loc.X, Y: p.PositionB.Y - bodyB.Transform.Loc.Y, Z: p.PositionB.Z - bodyB.Transform.Loc.Z}

			closingVel := velocityAlongAxis(bodyA, bodyB, relA, relB, normal)
			bounce := 0.0
			if -closingVel > settings.MinRestitutionVel {
				bounce = restitution * closingVel
			}

			cached := s.Impulses.Fetch(bodyA.ColliderID, bodyB.ColliderID, p.FeatureID)

			normalAx := prepareAxis(bodyA, bodyB, relA, relB, normal, bounce, 0, lin.Large)
			normalAx.appliedImpulse = cached.Normal * warmStartFactor

			t1Ax := prepareAxis(bodyA, bodyB, relA, relB, m.Tangent1, 0, -lin.Large, lin.Large)
			t1Ax.appliedImpulse = cached.Tangent1 * warmStartFactor
			t2Ax := prepareAxis(bodyA, bodyB, relA, relB, m.Tangent2, 0, -lin.Large, lin.Large)
			t2Ax.appliedImpulse = cached.Tangent2 * warmStartFactor

			out = append(out, &contactPoint{normal: normalAx, tangent1: t1Ax, tangent2: t2Ax, friction: friction, point: p, manifold: m})
		}
	}
	return out
}

// correctPenetrations runs settings.PositionIterations sweeps of direct
// position correction: bodies still overlapping by more than LinearSlop
// are pushed apart along the contact normal, split by inverse mass.
// This is a deliberately simplified stand-in for the teacher's
// resolveSplitPenetrationImpulse push/turn velocities — it corrects
// linear position only, no angular term, which is sufficient for the
// box-stacking and sphere-rest scenarios this engine targets.
func (s *Solver) correctPenetrations(settings Settings, manifolds []*Manifold, bodies map[int]*RigidBody) {
	for iter := 0; iter < settings.PositionIterations; iter++ {
		for _, m := range manifolds {
			bodyA, bodyB := bodies[m.BodyA], bodies[m.BodyB]
			if bodyA == nil || bodyB == nil {
				continue
			}
			totalInvMass := bodyA.InverseMass + bodyB.InverseMass
			if totalInvMass < lin.Epsilon {
				continue
			}
			for i := range m.Points {
				p := &m.Points[i]
				penetration := -p.Separation - settings.LinearSlop
				if penetration <= 0 {
					continue
				}
				correction := settings.BaumgarteFactor * penetration / totalInvMass
				moveA := correction * bodyA.InverseMass
				moveB := correction * bodyB.InverseMass
				bodyA.Transform.Loc.X -= m.Normal.X * moveA
				bodyA.Transform.Loc.Y -= m.Normal.Y * moveA
				bodyA.Transform.Loc.Z -= m.Normal.Z * moveA
				bodyB.Transform.Loc.X += m.Normal.X * moveB
				bodyB.Transform.Loc.Y += m.Normal.Y * moveB
				bodyB.Transform.Loc.Z += m.Normal.Z * moveB
				p.Separation += (bodyA.InverseMass + bodyB.InverseMass) * correction
			}
		}
	}
}

// storeAndWake writes this step's accumulated impulses back to the
// cache and wakes both endpoints of any contact that carried a
// non-zero impulse on the final iteration (the island wake-up rule).
func (s *Solver) storeAndWake(contacts []*contactPoint, manifolds []*Manifold, bodies map[int]*RigidBody) {
	woken := map[*Manifold]bool{}
	for _, cp := range contacts {
		m := cp.manifold
		s.Impulses.Store(m.BodyA, m.BodyB, cp.point.FeatureID, cp.normal.appliedImpulse, cp.tangent1.appliedImpulse, cp.tangent2.appliedImpulse)
		if cp.normal.appliedImpulse > lin.Epsilon {
			woken[m] = true
		}
	}
	for m, w := range woken {
		if !w {
			continue
		}
		if bodyA, ok := bodies[m.BodyA]; ok {
			bodyA.Wake()
		}
		if bodyB, ok := bodies[m.BodyB]; ok {
			bodyB.Wake()
		}
	}
}
