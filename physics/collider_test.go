// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/solidforge/mechfizix/math/lin"
)

func identityT() lin.T { return lin.T{Loc: &lin.V3{}, Rot: &lin.Q{W: 1}} }

func TestCompoundVolumeSumsChildren(t *testing.T) {
	c := &Compound{Children: []CompoundChild{
		{Shape: NewSphere(1), Local: identityT()},
		{Shape: NewSphere(1), Local: identityT()},
	}}
	want := 2 * NewSphere(1).Volume()
	if !lin.Aeq(c.Volume(), want) {
		t.Errorf("expected volume %f, got %f", want, c.Volume())
	}
}

func TestCompoundAabbUnionsChildren(t *testing.T) {
	offset := identityT()
	offset.Loc = &lin.V3{X: 5}
	c := &Compound{Children: []CompoundChild{
		{Shape: NewSphere(1), Local: identityT()},
		{Shape: NewSphere(1), Local: offset},
	}}
	at := identityT()
	b := c.Aabb(&at, 0)
	if b.Max.X < 6 {
		t.Errorf("expected compound AABB to reach the offset child, got max.X=%f", b.Max.X)
	}
	if b.Min.X > -1 {
		t.Errorf("expected compound AABB to reach the origin child, got min.X=%f", b.Min.X)
	}
}

func TestCompoundWorldTransformAppliesBodyPose(t *testing.T) {
	offset := identityT()
	offset.Loc = &lin.V3{X: 2}
	c := &Compound{Children: []CompoundChild{{Shape: NewSphere(1), Local: offset}}}

	bodyAt := identityT()
	bodyAt.Loc = &lin.V3{X: 10}

	world := c.worldTransform(0, &bodyAt)
	if !lin.Aeq(world.Loc.X, 12) {
		t.Errorf("expected child world location x=12, got %f", world.Loc.X)
	}
}

func TestCompoundInertiaIsPositive(t *testing.T) {
	offset := identityT()
	offset.Loc = &lin.V3{X: 1}
	c := &Compound{Children: []CompoundChild{
		{Shape: NewSphere(1), Local: identityT()},
		{Shape: NewSphere(1), Local: offset},
	}}
	inertia := c.Inertia(2)
	if inertia.X <= 0 || inertia.Y <= 0 || inertia.Z <= 0 {
		t.Errorf("expected strictly positive inertia diagonal, got %+v", inertia)
	}
}

func TestComputeRadiusMatchesSphere(t *testing.T) {
	body := NewRigidBody(0, 1, Sphere{Radius: 2}.Inertia(1), PhysicsMaterial{})
	col := &Collider{ID: 0, Kind: KindSphere, Convex: NewSphere(2), Body: body}
	r := computeRadius(col)
	if !lin.Aeq(r, 2) {
		t.Errorf("expected bounding radius 2 for a radius-2 sphere, got %f", r)
	}
}

func TestColliderAabbUsesBodyTransform(t *testing.T) {
	body := NewRigidBody(0, 1, Sphere{Radius: 1}.Inertia(1), PhysicsMaterial{})
	body.Transform.Loc = &lin.V3{X: 5}
	col := &Collider{ID: 0, Kind: KindSphere, Convex: NewSphere(1), Body: body}
	b := col.Aabb(0)
	if !lin.Aeq(b.Center().X, 5) {
		t.Errorf("expected AABB centered at body location x=5, got %f", b.Center().X)
	}
}
