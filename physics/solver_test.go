// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/solidforge/mechfizix/math/lin"
)

func TestSolveZeroesClosingVelocityAtContact(t *testing.T) {
	mat := NewPhysicsMaterial(1, 0, 0)
	a := NewRigidBody(1, 1, Sphere{Radius: 1}.Inertia(1), mat)
	b := NewRigidBody(2, 0, lin.V3{}, mat) // kinematic floor.
	a.LinearVelocity = lin.V3{Y: -2}

	m := &Manifold{
		BodyA: 1, BodyB: 2,
		Normal: lin.V3{Y: -1}, Tangent1: lin.V3{X: 1}, Tangent2: lin.V3{Z: 1}, // A down toward the floor.
		Points: []ContactPoint{{PositionA: lin.V3{}, PositionB: lin.V3{}, Separation: -0.01, FeatureID: 1}},
	}
	bodies := map[int]*RigidBody{1: a, 2: b}
	s := NewSolver(NewImpulseCache(3))
	settings := DefaultSettings()
	settings.VelocityIterations = 8

	s.Solve(settings, []*Manifold{m}, nil, bodies, 1.0/60.0)

	if a.LinearVelocity.Y < -lin.Epsilon {
		t.Errorf("expected closing velocity resolved to >= 0, got %f", a.LinearVelocity.Y)
	}
}

func TestSolveSkipsSeparatedPoints(t *testing.T) {
	mat := NewPhysicsMaterial(1, 0, 0)
	a := NewRigidBody(1, 1, Sphere{Radius: 1}.Inertia(1), mat)
	b := NewRigidBody(2, 0, lin.V3{}, mat)
	a.LinearVelocity = lin.V3{Y: -2}

	m := &Manifold{
		BodyA: 1, BodyB: 2,
		Normal: lin.V3{Y: 1}, Tangent1: lin.V3{X: 1}, Tangent2: lin.V3{Z: 1},
		Points: []ContactPoint{{PositionA: lin.V3{}, PositionB: lin.V3{}, Separation: 1.0, FeatureID: 1}}, // well clear.
	}
	bodies := map[int]*RigidBody{1: a, 2: b}
	s := NewSolver(NewImpulseCache(3))
	s.Solve(DefaultSettings(), []*Manifold{m}, nil, bodies, 1.0/60.0)

	if !lin.Aeq(a.LinearVelocity.Y, -2) {
		t.Errorf("expected a non-touching point to leave velocity untouched, got %f", a.LinearVelocity.Y)
	}
}

func TestCorrectPenetrationsSeparatesBodies(t *testing.T) {
	mat := NewPhysicsMaterial(1, 0, 0)
	a := NewRigidBody(1, 1, Sphere{Radius: 1}.Inertia(1), mat)
	b := NewRigidBody(2, 1, Sphere{Radius: 1}.Inertia(1), mat)

	m := &Manifold{
		BodyA: 1, BodyB: 2,
		Normal: lin.V3{Y: 1},
		Points: []ContactPoint{{PositionA: lin.V3{}, PositionB: lin.V3{}, Separation: -0.1, FeatureID: 1}},
	}
	bodies := map[int]*RigidBody{1: a, 2: b}
	s := NewSolver(NewImpulseCache(3))
	settings := DefaultSettings()
	settings.PositionIterations = 4

	beforeA, beforeB := a.Transform.Loc.Y, b.Transform.Loc.Y
	s.correctPenetrations(settings, []*Manifold{m}, bodies)

	if a.Transform.Loc.Y >= beforeA {
		t.Errorf("expected body A pushed down away from the normal, got %f", a.Transform.Loc.Y)
	}
	if b.Transform.Loc.Y <= beforeB {
		t.Errorf("expected body B pushed up along the normal, got %f", b.Transform.Loc.Y)
	}
}

func TestStoreAndWakeWakesBothEndpoints(t *testing.T) {
	mat := NewPhysicsMaterial(1, 0, 0)
	a := NewRigidBody(1, 1, Sphere{Radius: 1}.Inertia(1), mat)
	b := NewRigidBody(2, 1, Sphere{Radius: 1}.Inertia(1), mat)
	a.asleep, b.asleep = true, true

	m := &Manifold{
		BodyA: 1, BodyB: 2, Normal: lin.V3{Y: -1}, // B below A.
		Points: []ContactPoint{{PositionA: lin.V3{}, PositionB: lin.V3{}, Separation: -0.01, FeatureID: 1}},
	}
	bodies := map[int]*RigidBody{1: a, 2: b}
	s := NewSolver(NewImpulseCache(3))
	a.LinearVelocity = lin.V3{Y: -1}
	s.Solve(DefaultSettings(), []*Manifold{m}, nil, bodies, 1.0/60.0)

	if a.asleep || b.asleep {
		t.Error("expected a non-zero contact impulse to wake both bodies")
	}
}
