// Copyright © 2024 Galvanized Logic Inc.

package physics

import "testing"

func TestSlabInsertGetErase(t *testing.T) {
	s := newSlab[string]()
	a := s.insert("a")
	b := s.insert("b")
	if *s.get(a) != "a" || *s.get(b) != "b" {
		t.Fatalf("expected stored values back, got %v %v", s.get(a), s.get(b))
	}
	s.erase(a)
	if s.has(a) {
		t.Error("expected erased slot to report not live")
	}
	if s.get(a) != nil {
		t.Error("expected get on erased slot to return nil")
	}
}

func TestSlabReusesErasedSlot(t *testing.T) {
	s := newSlab[int]()
	a := s.insert(1)
	s.erase(a)
	if got := s.peekNextIndex(); got != a {
		t.Errorf("expected peekNextIndex to predict the freed slot %d, got %d", a, got)
	}
	b := s.insert(2)
	if b != a {
		t.Errorf("expected insert to reuse the freed slot %d, got %d", a, b)
	}
}

func TestSlabLenTracksLiveEntries(t *testing.T) {
	s := newSlab[int]()
	a := s.insert(1)
	s.insert(2)
	if s.len() != 2 {
		t.Errorf("expected len 2, got %d", s.len())
	}
	s.erase(a)
	if s.len() != 1 {
		t.Errorf("expected len 1 after erase, got %d", s.len())
	}
}

func TestSlabEachVisitsOnlyLive(t *testing.T) {
	s := newSlab[int]()
	a := s.insert(10)
	s.insert(20)
	s.erase(a)

	seen := map[int]int{}
	s.each(func(idx int, v *int) { seen[idx] = *v })
	if len(seen) != 1 {
		t.Fatalf("expected each to visit exactly 1 live slot, got %d", len(seen))
	}
	if _, ok := seen[a]; ok {
		t.Error("expected erased slot to be skipped by each")
	}
}
