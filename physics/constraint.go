// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/solidforge/mechfizix/math/lin"
)

// constraint.go generalizes the teacher's solver.go solverConstraint
// (a single 1-D Jacobian row along a world normal, λ clamped to
// [lowerLimit,upperLimit], warm-started via appliedImpulse) from its
// hard-coded contact+friction pair to the full joint taxonomy: Contact,
// AnchorPoint, AngularRotation, HingeAxis, Cone, Hinge and Motor. Every
// variant reduces to a handful of these rows — the same
// "one axis, one Jacobian, one λ" primitive the teacher uses, just
// built from different geometry each time.
//
// Unlike the teacher's solverBody indirection (a side table the old
// solver keeps so static bodies can share one fixed instance), a
// kinematic RigidBody here simply carries InverseMass 0 and an
// all-zero world inverse inertia tensor (rigidbody.go never populates
// either for a kinematic body), so every axis below can treat bodyA
// and bodyB uniformly: a kinematic body's contribution to the
// effective mass and to any impulse is zero by construction, with no
// nil checks required.

// axis is one scalar Jacobian row shared by every constraint variant:
// a world-space direction (linear Jacobian on A, its negation on B)
// plus the two angular Jacobian terms, the combined effective mass
// inverse, and the running accumulated impulse used for warm-starting
// and for clamping to [lowerLimit, upperLimit].
type axis struct {
	bodyA, bodyB           *RigidBody
	normal                 lin.V3
	relA, relB             lin.V3
	angA, angB             lin.V3 // I⁻¹·(r×n) cached at prepare time
	jacDiagInv             float64
	bias                   float64
	lowerLimit, upperLimit float64
	appliedImpulse         float64
}

// velocityAlongAxis returns the current relative velocity of bodyA
// relative to bodyB, projected onto the axis's linear Jacobian at the
// given body-local moment arms.
func velocityAlongAxis(bodyA, bodyB *RigidBody, relA, relB, normal lin.V3) float64 {
	var wA, wB lin.V3
	wA.Cross(&bodyA.AngularVelocity, &relA)
	wB.Cross(&bodyB.AngularVelocity, &relB)
	var vA, vB lin.V3
	vA.Add(&bodyA.LinearVelocity, &wA)
	vB.Add(&bodyB.LinearVelocity, &wB)
	var diff lin.V3
	diff.Sub(&vA, &vB)
	return normal.Dot(&diff)
}

// prepareAxis builds one Jacobian row: relA/relB are the world-space
// vectors from each body's center of mass to the point the axis acts
// through, normal is the world-space direction (a positive impulse
// pushes body A along it and body B against it), bias is the
// constant term b (Baumgarte position feedback or a restitution
// target), and [lower,upper] bound the accumulated impulse.
func prepareAxis(bodyA, bodyB *RigidBody, relA, relB, normal lin.V3, bias, lower, upper float64) axis {
	var torqueA, negNormal, torqueB lin.V3
	torqueA.Cross(&relA, &normal)
	negNormal.Neg(&normal)
	torqueB.Cross(&relB, &negNormal)

	a := axis{bodyA: bodyA, bodyB: bodyB, normal: normal, relA: relA, relB: relB, bias: bias, lowerLimit: lower, upperLimit: upper}
	a.angA.MultMv(&bodyA.invInertiaW, &torqueA)
	a.angB.MultMv(&bodyB.invInertiaW, &torqueB)

	var tA, negAngB, tB lin.V3
	tA.Cross(&a.angA, &relA)
	negAngB.Neg(&a.angB)
	tB.Cross(&negAngB, &relB)
	denom := bodyA.InverseMass + bodyB.InverseMass + normal.Dot(&tA) + normal.Dot(&tB)

	if denom > lin.Epsilon {
		a.jacDiagInv = 1.0 / denom
	}
	return a
}

// rhsValue computes the right-hand side of λ = −(JV + b)/(JM⁻¹Jᵀ), the
// value resolveAxis clamps and accumulates each sequential-impulse
// sweep.
func (a *axis) rhsValue() float64 {
	jv := velocityAlongAxis(a.bodyA, a.bodyB, a.relA, a.relB, a.normal)
	return -(jv + a.bias) * a.jacDiagInv
}

// resolveAxis runs one sequential-impulse sweep: compute the unclamped
// impulse delta, clamp the running total to [lowerLimit,upperLimit],
// and apply the resulting delta to both bodies' velocities. Mirrors
// the teacher's resolveSingleConstraint, generalized off the
// solverBody indirection since kinematic bodies already zero
// themselves out of the math.
func (a *axis) resolveAxis() {
	delta := a.rhsValue()
	sum := a.appliedImpulse + delta
	if sum < a.lowerLimit {
		delta = a.lowerLimit - a.appliedImpulse
		a.appliedImpulse = a.lowerLimit
	} else if sum > a.upperLimit {
		delta = a.upperLimit - a.appliedImpulse
		a.appliedImpulse = a.upperLimit
	} else {
		a.appliedImpulse = sum
	}
	a.applyImpulseDelta(delta)
}

// warmStart applies the axis's already-set appliedImpulse (carried over
// from the previous step's cache) before the first velocity sweep, so
// the solver starts close to last frame's solution.
func (a *axis) warmStart() {
	a.applyImpulseDelta(a.appliedImpulse)
}

// applyImpulseDelta pushes a scalar impulse delta along the axis's
// Jacobian into both bodies' velocities.
func (a *axis) applyImpulseDelta(delta float64) {
	a.bodyA.LinearVelocity.X += a.normal.X * delta * a.bodyA.InverseMass
	a.bodyA.LinearVelocity.Y += a.normal.Y * delta * a.bodyA.InverseMass
	a.bodyA.LinearVelocity.Z += a.normal.Z * delta * a.bodyA.InverseMass
	a.bodyB.LinearVelocity.X -= a.normal.X * delta * a.bodyB.InverseMass
	a.bodyB.LinearVelocity.Y -= a.normal.Y * delta * a.bodyB.InverseMass
	a.bodyB.LinearVelocity.Z -= a.normal.Z * delta * a.bodyB.InverseMass

	a.bodyA.AngularVelocity.X += a.angA.X * delta
	a.bodyA.AngularVelocity.Y += a.angA.Y * delta
	a.bodyA.AngularVelocity.Z += a.angA.Z * delta
	a.bodyB.AngularVelocity.X += a.angB.X * delta
	a.bodyB.AngularVelocity.Y += a.angB.Y * delta
	a.bodyB.AngularVelocity.Z += a.angB.Z * delta
}

// ConstraintKind enumerates the non-contact joint variants.
type ConstraintKind uint8

const (
	KindContactConstraint ConstraintKind = iota
	KindAnchorPoint
	KindAngularRotation
	KindHingeAxis
	KindCone
	KindHinge
	KindMotor
)

// Constraint is a non-contact joint between two bodies. Contact
// constraints are built per-manifold directly by the solver
// instead (see solver.go prepareContact) since they need the narrow
// phase's per-point data; every other variant is fully described by
// this struct's fields and built fresh each step by axes().
type Constraint struct {
	Kind         ConstraintKind
	BodyA, BodyB *RigidBody

	AnchorA, AnchorB lin.V3 // local-space anchor points
	AxisA, AxisB     lin.V3 // local-space reference axis (hinge/cone/motor)
	WorldAxis        lin.V3 // world-space axis (AngularRotation)

	LimitMin, LimitMax   float64 // AngularRotation / Hinge angle limits
	ConeHalfAngle        float64
	TargetAngularVelocity float64
	MinTorque, MaxTorque float64

	BaumgarteFactor float64
	LinearSlop      float64
}

// worldAnchors returns the constraint's anchor on each body, in world
// space, plus the world-space center-of-mass-relative offset each
// axis's Jacobian needs.
func (c *Constraint) worldAnchors() (wa, wb, relA, relB lin.V3) {
	wa = *c.BodyA.Transform.App(&lin.V3{X: c.AnchorA.X, Y: c.AnchorA.Y, Z: c.AnchorA.Z})
	wb = *c.BodyB.Transform.App(&lin.V3{X: c.AnchorB.X, Y: c.AnchorB.Y, Z: c.AnchorB.Z})
	relA = lin.V3{X: wa.X - c.BodyA.Transform.Loc.X, Y: wa.Y - c.BodyA.Transform.Loc.Y, Z: wa.Z - c.BodyA.Transform.Loc.Z}
	relB = lin.V3{X: wb.X - c.BodyB.Transform.Loc.X, Y: wb.Y - c.BodyB.Transform.Loc.Y, Z: wb.Z - c.BodyB.Transform.Loc.Z}
	return
}

// rotateLocal rotates a local-space vector into world space using the
// body's current orientation (the forward, non-inverse rotate GJK's
// invRotate helper doesn't provide).
func rotateLocal(q *lin.Q, v lin.V3) lin.V3 {
	var out lin.V3
	out.MultQ(&v, q)
	return out
}

// AngularRotation and HingeAxis, Cone, Hinge, Motor all need a small
// amount of angle bookkeeping about a world axis; swingAngle returns
// the unsigned angle between axisA and axisB, in [0, π], computed
// exactly as atan2(|a×b|, a·b).
func swingAngle(axisA, axisB lin.V3) float64 {
	var cross lin.V3
	cross.Cross(&axisA, &axisB)
	sinTheta := cross.Len()
	cosTheta := axisA.Dot(&axisB)
	return math.Atan2(sinTheta, cosTheta)
}

// axes builds this step's Jacobian rows for a non-contact constraint.
func (c *Constraint) axes(dt float64) []axis {
	switch c.Kind {
	case KindAnchorPoint:
		return c.anchorPointAxes(dt)
	case KindAngularRotation:
		return c.angularRotationAxes(dt)
	case KindHingeAxis:
		return c.hingeAxisAxes(dt)
	case KindCone:
		return c.coneAxes(dt)
	case KindHinge:
		return c.hingeAxes(dt)
	case KindMotor:
		return c.motorAxes(dt)
	default:
		return nil
	}
}

// anchorPointAxes binds AnchorA on bodyA to AnchorB on bodyB along the
// three world axes: a point-to-point joint with a zero target.
func (c *Constraint) anchorPointAxes(dt float64) []axis {
	wa, wb, relA, relB := c.worldAnchors()
	err := lin.V3{X: wb.X - wa.X, Y: wb.Y - wa.Y, Z: wb.Z - wa.Z}
	dirs := []lin.V3{{X: 1}, {Y: 1}, {Z: 1}}
	out := make([]axis, 0, 3)
	for _, d := range dirs {
		bias := -c.BaumgarteFactor / dt * err.Dot(&d)
		out = append(out, prepareAxis(c.BodyA, c.BodyB, relA, relB, d, bias, -lin.Large, lin.Large))
	}
	return out
}

// angularRotationAxes limits rotation about a single world axis to
// [LimitMin, LimitMax].
func (c *Constraint) angularRotationAxes(dt float64) []axis {
	angle := c.currentAngle()
	lower, upper := -lin.Large, lin.Large
	bias := 0.0
	if angle >= c.LimitMax {
		upper = 0
		bias = -c.BaumgarteFactor / dt * (c.LimitMax - angle)
	} else if angle <= c.LimitMin {
		lower = 0
		bias = -c.BaumgarteFactor / dt * (c.LimitMin - angle)
	} else {
		return nil
	}
	return []axis{prepareAxis(c.BodyA, c.BodyB, lin.V3{}, lin.V3{}, c.WorldAxis, bias, lower, upper)}
}

// currentAngle recovers the relative twist about WorldAxis from the
// two bodies' orientations via the quaternion difference's angle.
func (c *Constraint) currentAngle() float64 {
	return c.signedHingeAngle(c.WorldAxis)
}

// hingeAxisAxes constrains the two world directions perpendicular to
// the hinge axis so the hinge cannot swing off-axis.
func (c *Constraint) hingeAxisAxes(dt float64) []axis {
	_, _, relA, relB := c.worldAnchors()
	axisWorldA := rotateLocal(c.BodyA.Transform.Rot, c.AxisA)
	t1, t2 := basisFromNormal(axisWorldA)
	out := make([]axis, 0, 2)
	for _, d := range []lin.V3{t1, t2} {
		out = append(out, prepareAxis(c.BodyA, c.BodyB, relA, relB, d, 0, -lin.Large, lin.Large))
	}
	return out
}

// coneAxes combines a point constraint (anchor) with a single limit
// axis on the twist-cone half-angle.
func (c *Constraint) coneAxes(dt float64) []axis {
	out := c.anchorPointAxes(dt)
	axisWorldA := rotateLocal(c.BodyA.Transform.Rot, c.AxisA)
	axisWorldB := rotateLocal(c.BodyB.Transform.Rot, c.AxisB)
	angle := swingAngle(axisWorldA, axisWorldB)
	if angle > c.ConeHalfAngle {
		var limitAxis lin.V3
		limitAxis.Cross(&axisWorldA, &axisWorldB)
		if !limitAxis.AeqZ() {
			limitAxis.Unit()
			bias := -c.BaumgarteFactor / dt * (c.ConeHalfAngle - angle)
			out = append(out, prepareAxis(c.BodyA, c.BodyB, lin.V3{}, lin.V3{}, limitAxis, bias, 0, lin.Large))
		}
	}
	return out
}

// hingeAxes combines an anchor, the two off-axis hinge constraints,
// and an optional angle limit about the hinge axis itself.
func (c *Constraint) hingeAxes(dt float64) []axis {
	out := c.anchorPointAxes(dt)
	out = append(out, c.hingeAxisAxes(dt)...)
	axisWorld := rotateLocal(c.BodyA.Transform.Rot, c.AxisA)
	angle := c.signedHingeAngle(axisWorld)
	if angle >= c.LimitMax {
		bias := -c.BaumgarteFactor / dt * (c.LimitMax - angle)
		out = append(out, prepareAxis(c.BodyA, c.BodyB, lin.V3{}, lin.V3{}, axisWorld, bias, -lin.Large, 0))
	} else if angle <= c.LimitMin {
		bias := -c.BaumgarteFactor / dt * (c.LimitMin - angle)
		out = append(out, prepareAxis(c.BodyA, c.BodyB, lin.V3{}, lin.V3{}, axisWorld, bias, 0, lin.Large))
	}
	return out
}

// signedHingeAngle measures bodyB's rotation relative to bodyA about
// the world-space hinge axis.
func (c *Constraint) signedHingeAngle(axisWorld lin.V3) float64 {
	var diff lin.Q
	var invA lin.Q
	invA.Inv(c.BodyA.Transform.Rot)
	diff.Mult(&invA, c.BodyB.Transform.Rot)
	ax, ay, az, ang := diff.Aa()
	n := lin.V3{X: ax, Y: ay, Z: az}
	sign := 1.0
	if n.Dot(&axisWorld) < 0 {
		sign = -1
	}
	return sign * ang
}

// motorAxes is a Hinge whose angle constraint targets a velocity
// instead of a position limit, with torque bounded to
// [MinTorque, MaxTorque].
func (c *Constraint) motorAxes(dt float64) []axis {
	out := c.anchorPointAxes(dt)
	out = append(out, c.hingeAxisAxes(dt)...)
	axisWorld := rotateLocal(c.BodyA.Transform.Rot, c.AxisA)
	bias := -c.TargetAngularVelocity
	out = append(out, prepareAxis(c.BodyA, c.BodyB, lin.V3{}, lin.V3{}, axisWorld, bias, c.MinTorque*dt, c.MaxTorque*dt))
	return out
}

