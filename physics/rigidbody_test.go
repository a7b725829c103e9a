// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/solidforge/mechfizix/math/lin"
)

func TestNewRigidBodyDynamic(t *testing.T) {
	b := NewRigidBody(0, 2, lin.V3{X: 1, Y: 1, Z: 1}, PhysicsMaterial{})
	if b.kinematic {
		t.Error("expected dynamic body for non-zero mass")
	}
	if !lin.Aeq(b.InverseMass, 0.5) {
		t.Errorf("expected inverse mass 0.5, got %f", b.InverseMass)
	}
	if !lin.Aeq(b.InverseInertia.X, 1) {
		t.Errorf("expected inverse inertia 1, got %f", b.InverseInertia.X)
	}
}

func TestNewRigidBodyKinematic(t *testing.T) {
	b := NewRigidBody(0, 0, lin.V3{}, PhysicsMaterial{})
	if !b.kinematic {
		t.Error("expected kinematic body for zero mass")
	}
	if b.Awake() {
		t.Error("a kinematic body never reports awake")
	}
}

func TestIntegrateVelocitiesAppliesGravity(t *testing.T) {
	b := NewRigidBody(0, 1, lin.V3{X: 1, Y: 1, Z: 1}, PhysicsMaterial{})
	s := DefaultSettings()
	b.integrateVelocities(s, 1.0)
	if !lin.Aeq(b.LinearVelocity.Y, s.Gravity.Y) {
		t.Errorf("expected linear velocity Y %f, got %f", s.Gravity.Y, b.LinearVelocity.Y)
	}
}

func TestIntegrateVelocitiesSkipsSleepingBody(t *testing.T) {
	b := NewRigidBody(0, 1, lin.V3{X: 1, Y: 1, Z: 1}, PhysicsMaterial{})
	b.asleep = true
	s := DefaultSettings()
	b.integrateVelocities(s, 1.0)
	if b.LinearVelocity != (lin.V3{}) {
		t.Error("a sleeping body should not accumulate velocity")
	}
}

func TestWakeResetsMotion(t *testing.T) {
	b := NewRigidBody(0, 1, lin.V3{X: 1, Y: 1, Z: 1}, PhysicsMaterial{})
	b.asleep = true
	b.motion = 5
	b.Wake()
	if b.asleep || b.motion != 0 {
		t.Error("Wake should clear asleep and reset motion")
	}
}

func TestStepFallsAsleepWhenQuiet(t *testing.T) {
	b := NewRigidBody(0, 1, lin.V3{X: 1, Y: 1, Z: 1}, PhysicsMaterial{})
	s := DefaultSettings()
	for i := 0; i < 200; i++ {
		b.Step(s, 1.0/60.0)
		if b.asleep {
			break
		}
	}
	if !b.asleep {
		t.Error("expected a motionless body to fall asleep after enough quiet steps")
	}
}

func TestStepMovesAwakeBody(t *testing.T) {
	b := NewRigidBody(0, 1, lin.V3{X: 1, Y: 1, Z: 1}, PhysicsMaterial{})
	b.LinearVelocity = lin.V3{X: 1}
	s := DefaultSettings()
	b.Step(s, 1.0)
	if !lin.Aeq(b.Transform.Loc.X, 1) {
		t.Errorf("expected body to move to x=1, got %f", b.Transform.Loc.X)
	}
}

func TestKinematicBodyNeverMoves(t *testing.T) {
	b := NewRigidBody(0, 0, lin.V3{}, PhysicsMaterial{})
	b.LinearVelocity = lin.V3{X: 5}
	s := DefaultSettings()
	b.Step(s, 1.0)
	if *b.Transform.Loc != (lin.V3{}) {
		t.Error("a kinematic body must not move under Step")
	}
}

func TestSubStepInterpolates(t *testing.T) {
	b := NewRigidBody(0, 1, lin.V3{X: 1, Y: 1, Z: 1}, PhysicsMaterial{})
	b.PrevTransform = lin.T{Loc: &lin.V3{}, Rot: &lin.Q{W: 1}}
	b.Transform = lin.T{Loc: &lin.V3{X: 2}, Rot: &lin.Q{W: 1}}
	b.SubStep(0.5)
	if !lin.Aeq(b.Transform.Loc.X, 1) {
		t.Errorf("expected halfway substep x=1, got %f", b.Transform.Loc.X)
	}
}
