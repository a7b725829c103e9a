// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/solidforge/mechfizix/math/lin"
)

func checkManifoldPositions(t *testing.T, m *Manifold) {
	t.Helper()
	for _, p := range m.Points {
		d := lin.V3{X: p.PositionB.X - p.PositionA.X, Y: p.PositionB.Y - p.PositionA.Y, Z: p.PositionB.Z - p.PositionA.Z}
		got := m.Normal.Dot(&d)
		if !lin.Aeq(got, p.Separation) {
			t.Errorf("dot(n, posB-posA) = %f, want %f (= separation)", got, p.Separation)
		}
	}
}

func TestSphereHullPenetrating(t *testing.T) {
	hull := NewBoxHull(1, 1, 1)
	sphere := NewSphere(0.5)
	ta := lin.NewT()
	tb := lin.NewT()
	tb.Loc = &lin.V3{Y: 1.2} // hull center 1.2 above the sphere (at origin); hull bottom face at y=0.2 overlaps the sphere's top at y=0.5.

	m := sphereHull(sphere, ta, hull, tb, false)
	if m == nil {
		t.Fatal("expected a manifold for an overlapping sphere and hull")
	}
	if len(m.Points) != 1 {
		t.Fatalf("expected a single contact point, got %d", len(m.Points))
	}
	if m.Normal.Y <= 0 {
		t.Errorf("expected normal pointing from sphere up to hull, got %+v", m.Normal)
	}
	checkManifoldPositions(t, m)
}

func TestSphereHullSeparated(t *testing.T) {
	hull := NewBoxHull(1, 1, 1)
	sphere := NewSphere(0.5)
	ta := lin.NewT()
	tb := lin.NewT()
	tb.Loc = &lin.V3{Y: 10}

	if m := sphereHull(sphere, ta, hull, tb, false); m != nil {
		t.Errorf("expected no manifold for a far-away sphere, got %+v", m)
	}
}

func TestSphereHullDoesNotMutateSharedState(t *testing.T) {
	hull := NewBoxHull(1, 1, 1)
	sphere := NewSphere(0.5)
	ta := lin.NewT()
	tb := lin.NewT()
	tb.Loc = &lin.V3{Y: 1.2}

	wantLoc := *tb.Loc
	wantVerts := make([]lin.V3, len(hull.verts))
	copy(wantVerts, hull.verts)

	sphereHull(sphere, ta, hull, tb, false)

	if *tb.Loc != wantLoc {
		t.Errorf("sphereHull mutated the sphere's transform: got %+v, want %+v", *tb.Loc, wantLoc)
	}
	for i, v := range hull.verts {
		if v != wantVerts[i] {
			t.Errorf("sphereHull mutated hull vertex %d: got %+v, want %+v", i, v, wantVerts[i])
		}
	}
}

func TestCapsuleHullPenetrating(t *testing.T) {
	hull := NewBoxHull(1, 1, 1)
	cap := NewCapsule(0.3, 1.0) // half-length 0.5, radius 0.3.
	ta := lin.NewT()
	tb := lin.NewT()
	tb.Loc = &lin.V3{Y: 1.1} // hull bottom face at y=0.1 overlaps the capsule's top endpoint at y=0.5.

	m := capsuleHull(cap, ta, hull, tb, false)
	if m == nil {
		t.Fatal("expected a manifold for an overlapping capsule and hull")
	}
	checkManifoldPositions(t, m)
}

func TestCapsuleHullSeparated(t *testing.T) {
	hull := NewBoxHull(1, 1, 1)
	cap := NewCapsule(0.3, 1.0)
	ta := lin.NewT()
	tb := lin.NewT()
	tb.Loc = &lin.V3{Y: 10}

	if m := capsuleHull(cap, ta, hull, tb, false); m != nil {
		t.Errorf("expected no manifold for a far-away capsule, got %+v", m)
	}
}

func flatTriangle() Triangle {
	return Triangle{
		A: lin.V3{X: -2, Z: -2},
		B: lin.V3{X: 2, Z: -2},
		C: lin.V3{X: 0, Z: 2},
	}
}

func TestSphereTrianglePenetrating(t *testing.T) {
	tri := flatTriangle()
	sphere := NewSphere(0.5)
	ta := lin.NewT()
	tt := lin.NewT()
	ta.Loc = &lin.V3{Y: 0.2} // sphere center just above the triangle's plane (y=0).

	m := sphereTriangle(sphere, ta, tri, tt, false)
	if m == nil {
		t.Fatal("expected a manifold for a sphere resting on the triangle")
	}
	if len(m.Points) != 1 {
		t.Fatalf("expected a single contact point, got %d", len(m.Points))
	}
	checkManifoldPositions(t, m)
}

func TestSphereTriangleSeparated(t *testing.T) {
	tri := flatTriangle()
	sphere := NewSphere(0.5)
	ta := lin.NewT()
	tt := lin.NewT()
	ta.Loc = &lin.V3{Y: 10}

	if m := sphereTriangle(sphere, ta, tri, tt, false); m != nil {
		t.Errorf("expected no manifold for a far-away sphere, got %+v", m)
	}
}

func TestCapsuleTrianglePenetrating(t *testing.T) {
	tri := flatTriangle()
	cap := NewCapsule(0.3, 1.0)
	ta := lin.NewT()
	tt := lin.NewT()
	ta.Loc = &lin.V3{Y: 0.2}

	m := capsuleTriangle(cap, ta, tri, tt, false)
	if m == nil {
		t.Fatal("expected a manifold for a capsule resting on the triangle")
	}
	checkManifoldPositions(t, m)
}

func TestCapsuleTriangleSeparated(t *testing.T) {
	tri := flatTriangle()
	cap := NewCapsule(0.3, 1.0)
	ta := lin.NewT()
	tt := lin.NewT()
	ta.Loc = &lin.V3{Y: 10}

	if m := capsuleTriangle(cap, ta, tri, tt, false); m != nil {
		t.Errorf("expected no manifold for a far-away capsule, got %+v", m)
	}
}

func TestHullTrianglePenetrating(t *testing.T) {
	hull := NewBoxHull(1, 1, 1)
	tri := flatTriangle()
	th := lin.NewT()
	tt := lin.NewT()
	th.Loc = &lin.V3{Y: 0.9} // hull's bottom face at y=-0.1, overlapping the triangle's plane at y=0.

	m := hullTriangle(hull, th, tri, tt, false)
	if m == nil {
		t.Fatal("expected a manifold for a hull resting on the triangle")
	}
	if len(m.Points) != 1 {
		t.Fatalf("expected hullTriangle's documented single-point simplification, got %d points", len(m.Points))
	}
	checkManifoldPositions(t, m)
}

func TestHullTriangleSeparated(t *testing.T) {
	hull := NewBoxHull(1, 1, 1)
	tri := flatTriangle()
	th := lin.NewT()
	tt := lin.NewT()
	th.Loc = &lin.V3{Y: 10}

	if m := hullTriangle(hull, th, tri, tt, false); m != nil {
		t.Errorf("expected no manifold for a far-away hull, got %+v", m)
	}
}

func TestHullTriangleDoesNotMutateSharedState(t *testing.T) {
	hull := NewBoxHull(1, 1, 1)
	tri := flatTriangle()
	th := lin.NewT()
	tt := lin.NewT()
	th.Loc = &lin.V3{Y: 0.9}

	wantVerts := make([]lin.V3, len(hull.verts))
	copy(wantVerts, hull.verts)
	wantTri := tri

	hullTriangle(hull, th, tri, tt, false)

	for i, v := range hull.verts {
		if v != wantVerts[i] {
			t.Errorf("hullTriangle mutated hull vertex %d: got %+v, want %+v", i, v, wantVerts[i])
		}
	}
	if tri != wantTri {
		t.Errorf("hullTriangle mutated its triangle argument: got %+v, want %+v", tri, wantTri)
	}
}

// TestDispatchRoutesHullVsTriangleBothOrderings checks narrowPhase picks
// the dedicated SAT routine (not the generic GJK+EPA fallback) for both
// argument orders of a hull/triangle pair.
func TestDispatchRoutesHullVsTriangleBothOrderings(t *testing.T) {
	hull := NewBoxHull(1, 1, 1)
	tri := flatTriangle()
	th := lin.NewT()
	tt := lin.NewT()
	th.Loc = &lin.V3{Y: 0.9}

	m1 := narrowPhase(hull, th, tri, tt)
	if m1 == nil {
		t.Fatal("expected a manifold for hull-then-triangle dispatch")
	}

	m2 := narrowPhase(tri, tt, hull, th)
	if m2 == nil {
		t.Fatal("expected a manifold for triangle-then-hull dispatch")
	}
	if m1.Normal.Dot(&m2.Normal) >= 0 {
		t.Errorf("expected swapped dispatch to flip the contact normal, got %+v and %+v", m1.Normal, m2.Normal)
	}
}
