// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/solidforge/mechfizix/math/lin"
)

// rigidbody.go generalizes the teacher's physics/body.go (mass,
// inverse inertia, damping, integrateVelocities) to a RigidBody entity
// driven by a semi-implicit-Euler-with-sleep integrator. The teacher
// ties one body to one shape and carries cgo scratch fields (coi/cor)
// for its Bullet-derived box-box routine; those are dropped since
// narrow phase here is pure Go, but the motion-accumulator and
// sleep-EWMA shape is new (the teacher has no sleeping at all) and is
// grounded on original_source's rigidBody.h motion-clock idea.

// sleepHalfLife is the EWMA half-life, in seconds, folded into
// motion = 0.5^Δt·motion + (1-0.5^Δt)·sample.
const sleepHalfLife = 1.0

// RigidBody is one dynamic (or static) body in the world: a transform,
// its motion state, and the accumulators the integrator and solver
// consume each step.
type RigidBody struct {
	ColliderID int

	Transform     lin.T
	PrevTransform lin.T

	LinearVelocity  lin.V3
	AngularVelocity lin.V3

	InverseMass    float64
	InverseInertia lin.V3 // local-space diagonal
	invInertiaW    lin.M3 // world-space, recomputed each step

	Force  lin.V3
	Torque lin.V3

	deltaPos lin.V3
	deltaRot lin.V3

	motion   float64
	asleep   bool
	kinematic bool

	material PhysicsMaterial
}

// NewRigidBody returns a body at the identity transform with the given
// mass and local inertia diagonal. A zero mass marks it kinematic
// (immovable, infinite mass), mirroring the teacher's "no mass, static
// body by default" convention in body.setMaterial.
func NewRigidBody(colliderID int, mass float64, inertia lin.V3, mat PhysicsMaterial) *RigidBody {
	b := &RigidBody{
		ColliderID: colliderID,
		Transform:  lin.T{Loc: &lin.V3{}, Rot: &lin.Q{W: 1}},
		material:   mat,
	}
	b.PrevTransform = b.Transform
	if lin.AeqZ(mass) {
		b.kinematic = true
		return b
	}
	b.InverseMass = 1.0 / mass
	b.InverseInertia = invertDiagonal(inertia)
	return b
}

func invertDiagonal(v lin.V3) lin.V3 {
	inv := func(x float64) float64 {
		if lin.AeqZ(x) {
			return 0
		}
		return 1.0 / x
	}
	return lin.V3{X: inv(v.X), Y: inv(v.Y), Z: inv(v.Z)}
}

// Awake reports whether the body currently participates in
// integration and solving.
func (b *RigidBody) Awake() bool { return !b.asleep && !b.kinematic }

// Wake clears the sleeping flag and resets the motion accumulator so
// the body needs a fresh quiet interval before it can sleep again —
// island wake-up calls this on every body in an island whenever the
// last solver iteration pushed a non-zero impulse.
func (b *RigidBody) Wake() {
	b.asleep = false
	b.motion = 0
}

// ApplyForce adds to the force accumulator (world space, acting at the
// center of mass).
func (b *RigidBody) ApplyForce(f lin.V3) {
	if b.kinematic {
		return
	}
	b.Force.X += f.X
	b.Force.Y += f.Y
	b.Force.Z += f.Z
}

// ApplyTorque adds to the torque accumulator (world space).
func (b *RigidBody) ApplyTorque(t lin.V3) {
	if b.kinematic {
		return
	}
	b.Torque.X += t.X
	b.Torque.Y += t.Y
	b.Torque.Z += t.Z
}

// updateInertiaTensorWorld recomputes the world-space inverse inertia
// tensor from the current orientation, mirroring the teacher's
// body.updateInertiaTensor (R · diag(I⁻¹) · Rᵀ).
func (b *RigidBody) updateInertiaTensorWorld() {
	var basis, transposed lin.M3
	basis.SetQ(b.Transform.Rot)
	transposed.Transpose(&basis)
	b.invInertiaW.Mult(basis.ScaleV(&b.InverseInertia), &transposed)
}

// integrateVelocities applies gravity, accumulated forces/torques and
// damping to the body's velocities.
func (b *RigidBody) integrateVelocities(s Settings, dt float64) {
	if !b.Awake() {
		return
	}
	b.LinearVelocity.X += (s.Gravity.X + b.Force.X*b.InverseMass) * dt
	b.LinearVelocity.Y += (s.Gravity.Y + b.Force.Y*b.InverseMass) * dt
	b.LinearVelocity.Z += (s.Gravity.Z + b.Force.Z*b.InverseMass) * dt

	var angAccel lin.V3
	angAccel.MultMv(&b.invInertiaW, &b.Torque)
	b.AngularVelocity.X += angAccel.X * dt
	b.AngularVelocity.Y += angAccel.Y * dt
	b.AngularVelocity.Z += angAccel.Z * dt

	ld := math.Pow(1.0-s.LinearDamping, dt)
	ad := math.Pow(1.0-s.AngularDamping, dt)
	b.LinearVelocity.Scale(&b.LinearVelocity, ld)
	b.AngularVelocity.Scale(&b.AngularVelocity, ad)

	// clamp angular velocity: collision geometry can't keep up with a
	// rotation faster than a quarter turn per step (teacher's
	// integrateVelocities HalfPi clamp, generalized to any dt).
	avel := b.AngularVelocity.Len()
	if avel*dt > lin.HalfPi {
		b.AngularVelocity.Scale(&b.AngularVelocity, lin.HalfPi/dt/avel)
	}
}

// Step advances the body one full Δt under the semi-implicit Euler
// integrator with sleep tracking. Kinematic (infinite-mass) bodies
// never move under it.
func (b *RigidBody) Step(s Settings, dt float64) {
	if b.kinematic {
		b.Force, b.Torque = lin.V3{}, lin.V3{}
		return
	}
	if b.asleep {
		return
	}

	b.deltaPos.X, b.deltaPos.Y, b.deltaPos.Z =
		b.deltaPos.X+b.LinearVelocity.X*dt,
		b.deltaPos.Y+b.LinearVelocity.Y*dt,
		b.deltaPos.Z+b.LinearVelocity.Z*dt
	b.deltaRot.X, b.deltaRot.Y, b.deltaRot.Z =
		b.deltaRot.X+b.AngularVelocity.X*dt,
		b.deltaRot.Y+b.AngularVelocity.Y*dt,
		b.deltaRot.Z+b.AngularVelocity.Z*dt

	if b.sleepEligible(s) {
		decay := math.Pow(0.5, dt/sleepHalfLife)
		sample := b.deltaPos.Dot(&b.deltaPos) + b.deltaRot.Dot(&b.deltaRot)
		b.motion = decay*b.motion + (1-decay)*sample
		if b.motion > s.MaxMotion {
			b.motion = s.MaxMotion
		}
		if b.motion < s.SleepEpsilon {
			b.LinearVelocity, b.AngularVelocity = lin.V3{}, lin.V3{}
			b.Force, b.Torque = lin.V3{}, lin.V3{}
			b.asleep = true
			return
		}
	} else {
		b.motion = 0
	}

	b.PrevTransform = b.Transform
	b.applyDelta(dt)
	b.updateInertiaTensorWorld()
	b.Force, b.Torque = lin.V3{}, lin.V3{}
}

// sleepEligible gates sleep on "not kinematic, within a configurable
// velocity budget": a body spinning or translating faster than the
// max-motion clamp never qualifies for sleep.
func (b *RigidBody) sleepEligible(s Settings) bool {
	return b.LinearVelocity.Dot(&b.LinearVelocity)+b.AngularVelocity.Dot(&b.AngularVelocity) < s.MaxMotion*4
}

// applyDelta moves position by deltaPos and orientation by deltaRot
// (treated as a small rotation vector), mirroring the teacher's
// lin.T.Integrate exponential-map update, then clears the accumulators.
func (b *RigidBody) applyDelta(dt float64) {
	var next lin.T
	loc := *b.Transform.Loc
	rot := *b.Transform.Rot
	next.Loc, next.Rot = &loc, &rot
	next.Integrate(&b.Transform, &b.LinearVelocity, &b.AngularVelocity, dt)
	b.Transform = next
	b.deltaPos, b.deltaRot = lin.V3{}, lin.V3{}
}

// SubStep interpolates between prevTransform and the current
// transform to fractional time t ∈ [0,1] and assigns that as the new
// current transform, the continuous-collision advance step.
func (b *RigidBody) SubStep(t float64) {
	tr := lerpTransform(&b.PrevTransform, &b.Transform, t)
	b.Transform = tr
}

// Material returns the body's physical material (used by the solver
// to derive combined friction/restitution for a pair).
func (b *RigidBody) Material() PhysicsMaterial { return b.material }
