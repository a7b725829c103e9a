// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/solidforge/mechfizix/math/lin"
)

func approachingPair() (*RigidBody, *RigidBody) {
	a := NewRigidBody(1, 1, lin.V3{X: 1, Y: 1, Z: 1}, PhysicsMaterial{})
	b := NewRigidBody(2, 0, lin.V3{}, PhysicsMaterial{}) // kinematic: infinite mass.
	a.LinearVelocity = lin.V3{X: -1}
	return a, b
}

func TestResolveAxisZeroesClosingVelocity(t *testing.T) {
	a, b := approachingPair()
	ax := prepareAxis(a, b, lin.V3{}, lin.V3{}, lin.V3{X: 1}, 0, 0, lin.Large)
	ax.resolveAxis()
	if !lin.Aeq(a.LinearVelocity.X, 0) {
		t.Errorf("expected closing velocity fully resolved to 0, got %f", a.LinearVelocity.X)
	}
	if !lin.Aeq(ax.appliedImpulse, 1) {
		t.Errorf("expected applied impulse 1, got %f", ax.appliedImpulse)
	}
}

func TestResolveAxisClampsToUpperLimit(t *testing.T) {
	a, b := approachingPair()
	ax := prepareAxis(a, b, lin.V3{}, lin.V3{}, lin.V3{X: 1}, 0, 0, 0.5)
	ax.resolveAxis()
	if !lin.Aeq(ax.appliedImpulse, 0.5) {
		t.Errorf("expected impulse clamped to upper limit 0.5, got %f", ax.appliedImpulse)
	}
	if !lin.Aeq(a.LinearVelocity.X, -0.5) {
		t.Errorf("expected half the closing velocity to remain, got %f", a.LinearVelocity.X)
	}
}

func TestResolveAxisClampsToLowerLimit(t *testing.T) {
	a, b := approachingPair()
	a.LinearVelocity.X = 1 // separating, not approaching.
	ax := prepareAxis(a, b, lin.V3{}, lin.V3{}, lin.V3{X: 1}, 0, 0, lin.Large)
	ax.resolveAxis()
	if !lin.Aeq(ax.appliedImpulse, 0) {
		t.Errorf("expected a separating contact to apply no impulse, got %f", ax.appliedImpulse)
	}
}

func TestWarmStartReappliesCachedImpulse(t *testing.T) {
	a, b := approachingPair()
	ax := prepareAxis(a, b, lin.V3{}, lin.V3{}, lin.V3{X: 1}, 0, 0, lin.Large)
	ax.appliedImpulse = 2
	ax.warmStart()
	if !lin.Aeq(a.LinearVelocity.X, 1) { // -1 + 2*1*invMass(1)
		t.Errorf("expected warm start to add the cached impulse, got %f", a.LinearVelocity.X)
	}
}

func TestConstraintCurrentAngleMatchesSignedHingeAngle(t *testing.T) {
	c := &Constraint{
		Kind:      KindAngularRotation,
		BodyA:     NewRigidBody(1, 1, lin.V3{X: 1, Y: 1, Z: 1}, PhysicsMaterial{}),
		BodyB:     NewRigidBody(2, 0, lin.V3{}, PhysicsMaterial{}),
		WorldAxis: lin.V3{Y: 1},
	}
	if got, want := c.currentAngle(), c.signedHingeAngle(c.WorldAxis); !lin.Aeq(got, want) {
		t.Errorf("expected currentAngle to delegate to signedHingeAngle, got %f want %f", got, want)
	}
}
