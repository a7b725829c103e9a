// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/solidforge/mechfizix/math/lin"
)

func TestAddSphereAssignsIncrementingIDs(t *testing.T) {
	w := NewWorld(DefaultSettings())
	mat := NewPhysicsMaterial(1, 0.5, 0.5)
	id0 := w.AddSphere(NewSphere(1), 1, mat, identityT())
	id1 := w.AddSphere(NewSphere(1), 1, mat, identityT())
	if id1-id0 != 1 {
		t.Errorf("expected incrementing collider IDs, got %d then %d", id0, id1)
	}
	if w.Collider(id0) == nil || w.Collider(id1) == nil {
		t.Fatal("expected both colliders registered")
	}
}

func TestAddSphereComputesBoundingRadius(t *testing.T) {
	w := NewWorld(DefaultSettings())
	mat := NewPhysicsMaterial(1, 0.5, 0.5)
	id := w.AddSphere(NewSphere(3), 1, mat, identityT())
	c := w.Collider(id)
	if !lin.Aeq(c.boundingRadius(), 3) {
		t.Errorf("expected bounding radius 3, got %f", c.boundingRadius())
	}
}

func TestUpdateAppliesGravityToFallingSphere(t *testing.T) {
	w := NewWorld(DefaultSettings())
	mat := NewPhysicsMaterial(1, 0, 0)
	id := w.AddSphere(NewSphere(1), 1, mat, identityT())

	startY := w.Collider(id).Body.Transform.Loc.Y
	for i := 0; i < 10; i++ {
		w.Update(1.0 / 60.0)
	}
	endY := w.Collider(id).Body.Transform.Loc.Y
	if endY >= startY {
		t.Errorf("expected a falling sphere under gravity to drop, start %f end %f", startY, endY)
	}
}

func TestUpdateRestsSphereOnStaticFloor(t *testing.T) {
	w := NewWorld(DefaultSettings())
	mat := NewPhysicsMaterial(1, 0, 0.5)

	floorAt := identityT()
	floorAt.Loc = &lin.V3{Y: -1}
	w.AddConvexHull(NewBoxHull(50, 1, 50), 0, mat, floorAt)

	ballAt := identityT()
	ballAt.Loc = &lin.V3{Y: 1.45}
	ballID := w.AddSphere(NewSphere(0.5), 1, mat, ballAt)

	for i := 0; i < 240; i++ {
		w.Update(1.0 / 60.0)
	}

	restY := w.Collider(ballID).Body.Transform.Loc.Y
	if restY < 0.3 || restY > 0.7 {
		t.Errorf("expected the sphere to settle near y=0.5 on the floor, got %f", restY)
	}
}

func TestAddCompoundRegistersOneBodyManyChildren(t *testing.T) {
	w := NewWorld(DefaultSettings())
	mat := NewPhysicsMaterial(1, 0, 0.5)
	children := []CompoundChild{
		{Shape: NewSphere(1), Local: identityT()},
		{Shape: NewSphere(1), Local: func() lin.T { at := identityT(); at.Loc = &lin.V3{X: 3}; return at }()},
	}
	id := w.AddCompound(children, 2, mat, identityT())
	c := w.Collider(id)
	if c.Kind != KindCompound || len(c.Compound.Children) != 2 {
		t.Errorf("expected a compound collider with 2 children, got %+v", c)
	}
}

func TestAddTriangleMeshIsStatic(t *testing.T) {
	w := NewWorld(DefaultSettings())
	mat := NewPhysicsMaterial(1, 0, 0.5)
	mesh := NewTriangleMesh([]lin.V3{{}, {X: 1}, {Z: 1}}, []int{0, 1, 2})
	id := w.AddTriangleMesh(mesh, mat, identityT())
	c := w.Collider(id)
	if c.Body.Awake() {
		t.Error("expected a triangle-mesh collider's body to be kinematic (never awake)")
	}
}

func TestRemoveColliderDropsIt(t *testing.T) {
	w := NewWorld(DefaultSettings())
	mat := NewPhysicsMaterial(1, 0, 0.5)
	id := w.AddSphere(NewSphere(1), 1, mat, identityT())
	w.RemoveCollider(id)
	if w.Collider(id) != nil {
		t.Error("expected collider removed from the world")
	}
}
