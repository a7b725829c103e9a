// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"
	"testing"

	"github.com/solidforge/mechfizix/math/lin"
)

func TestHullVsHullFaceContactProducesFourPoints(t *testing.T) {
	box := NewBoxHull(1, 1, 1)
	ta := lin.NewT()
	tb := lin.NewT()
	tb.Loc = &lin.V3{Y: 1.9} // resting box, overlapping the bottom face by 0.1.

	m := HullVsHull(box, ta, box, tb)
	if m == nil {
		t.Fatal("expected a manifold for two overlapping boxes")
	}
	if len(m.Points) != 4 {
		t.Errorf("expected a 4-point face manifold, got %d", len(m.Points))
	}
	if m.Normal.Y <= 0 {
		t.Errorf("expected normal pointing from A up to B, got %+v", m.Normal)
	}
}

func TestHullVsHullContactPointsSatisfyPenetrationProperty(t *testing.T) {
	box := NewBoxHull(1, 1, 1)
	ta := lin.NewT()
	tb := lin.NewT()
	tb.Loc = &lin.V3{Y: 1.9}

	m := HullVsHull(box, ta, box, tb)
	if m == nil {
		t.Fatal("expected a manifold")
	}
	for _, p := range m.Points {
		d := lin.V3{X: p.PositionB.X - p.PositionA.X, Y: p.PositionB.Y - p.PositionA.Y, Z: p.PositionB.Z - p.PositionA.Z}
		got := m.Normal.Dot(&d)
		if !lin.Aeq(got, p.Separation) {
			t.Errorf("dot(n, posB-posA) = %f, want %f (= separation)", got, p.Separation)
		}
	}
}

func TestHullVsHullSeparatedBoxesReturnNil(t *testing.T) {
	box := NewBoxHull(1, 1, 1)
	ta := lin.NewT()
	tb := lin.NewT()
	tb.Loc = &lin.V3{Y: 10}

	if m := HullVsHull(box, ta, box, tb); m != nil {
		t.Errorf("expected no manifold for far-apart boxes, got %+v", m)
	}
}

// TestHullVsHullCrossedBoxesContact turns box B 45 degrees about the
// world Y axis so one of its vertical edges pokes into A's +X face
// rather than meeting it face-to-face. No edge pair of these boxes
// builds a Minkowski face, so the contact comes from face clipping.
func TestHullVsHullCrossedBoxesContact(t *testing.T) {
	box := NewBoxHull(1, 1, 1)
	ta := lin.NewT()
	tb := lin.NewT()
	tb.Rot = lin.NewQ().SetAa(0, 1, 0, math.Pi/4)
	tb.Loc = &lin.V3{X: 1.3}

	m := HullVsHull(box, ta, box, tb)
	if m == nil {
		t.Fatal("expected a manifold for the crossed boxes")
	}
	if len(m.Points) == 0 {
		t.Fatal("expected at least one contact point")
	}
	for _, p := range m.Points {
		d := lin.V3{X: p.PositionB.X - p.PositionA.X, Y: p.PositionB.Y - p.PositionA.Y, Z: p.PositionB.Z - p.PositionA.Z}
		got := m.Normal.Dot(&d)
		if !lin.Aeq(got, p.Separation) {
			t.Errorf("dot(n, posB-posA) = %f, want %f (= separation)", got, p.Separation)
		}
	}
}

func TestIsMinkowskiFaceRejectsNonCrossingArcs(t *testing.T) {
	// Two edges of the same box face share a bordering normal with a
	// near-parallel pair never building a Minkowski face (arcs don't cross).
	a1 := lin.V3{Y: 1}
	a2 := lin.V3{X: 1}
	b1 := lin.V3{Y: 1}
	b2 := lin.V3{X: 1}
	if isMinkowskiFace(a1, a2, b1, b2) {
		t.Error("expected identical normal pairs to never build a Minkowski face")
	}
}
