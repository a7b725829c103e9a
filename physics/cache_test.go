// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/solidforge/mechfizix/math/lin"
)

func TestPairKeySymmetric(t *testing.T) {
	if makePairKey(3, 7) != makePairKey(7, 3) {
		t.Error("pairKey must be order-independent")
	}
}

func TestImpulseCacheFetchMiss(t *testing.T) {
	c := NewImpulseCache(3)
	got := c.Fetch(1, 2, 9)
	if got != (cachedImpulse{}) {
		t.Errorf("expected zero value on cache miss, got %+v", got)
	}
}

func TestImpulseCacheStoreAndFetch(t *testing.T) {
	c := NewImpulseCache(3)
	c.Store(1, 2, 9, 1.5, 0.1, 0.2)
	got := c.Fetch(2, 1, 9) // reversed order: must still hit.
	if !lin.Aeq(got.Normal, 1.5) || !lin.Aeq(got.Tangent1, 0.1) || !lin.Aeq(got.Tangent2, 0.2) {
		t.Errorf("expected stored impulses back, got %+v", got)
	}
}

func TestImpulseCacheAgesOut(t *testing.T) {
	c := NewImpulseCache(2)
	c.Store(1, 2, 9, 1.5, 0, 0)
	c.Age()
	c.Age()
	got := c.Fetch(1, 2, 9)
	if got.Normal != 0 {
		t.Errorf("expected entry evicted after retentionFrames ages, got %+v", got)
	}
}

func TestImpulseCacheRefreshResetsRetention(t *testing.T) {
	c := NewImpulseCache(2)
	c.Store(1, 2, 9, 1.5, 0, 0)
	c.Age()
	c.Store(1, 2, 9, 2.0, 0, 0) // refresh before it expires.
	c.Age()
	got := c.Fetch(1, 2, 9)
	if !lin.Aeq(got.Normal, 2.0) {
		t.Errorf("expected refreshed entry to survive, got %+v", got)
	}
}

func TestImpulseCacheDrop(t *testing.T) {
	c := NewImpulseCache(5)
	c.Store(1, 2, 9, 1.5, 0, 0)
	c.Drop(1, 2)
	got := c.Fetch(1, 2, 9)
	if got.Normal != 0 {
		t.Error("expected Drop to remove the pair's entries")
	}
}

func TestHullVsHullCacheValidUntilMoved(t *testing.T) {
	c := NewHullVsHullCache(3)
	ref, inc := lin.V3{X: 1}, lin.V3{X: -1}
	c.Store(1, 2, 4, 7, ref, inc)
	if _, ok := c.Valid(1, 2, ref, inc); !ok {
		t.Error("expected fresh entry to validate")
	}
	moved := lin.V3{X: 10}
	if _, ok := c.Valid(1, 2, moved, inc); ok {
		t.Error("expected entry to invalidate once the reference centroid moves")
	}
}

func TestHullVsHullCacheAgesOut(t *testing.T) {
	c := NewHullVsHullCache(1)
	c.Store(1, 2, 0, 0, lin.V3{}, lin.V3{})
	c.Age()
	c.Age()
	if _, ok := c.Valid(1, 2, lin.V3{}, lin.V3{}); ok {
		t.Error("expected entry evicted after retention elapses")
	}
}
