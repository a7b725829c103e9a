// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/solidforge/mechfizix/math/lin"

// cache.go replaces the teacher's contactPair/pointOfContact
// closestPoint/largestArea matching (contact.go) — built for a fixed
// 4-slot array addressed by spatial proximity — with an ImpulseCache
// and HullVsHullContactCache: keyed by the narrow phase's own
// contact/feature IDs instead of nearest-point search, and aged by an
// explicit retention counter rather than the teacher's breakingLimit
// distance test. The warm-start/retention *idea* (persist per-contact
// impulses across steps, discard once stale) is the same; the key
// scheme is generalized to cover every shape pair, not just box/box.

// pairKey is a pairing-order-independent key for a body pair:
// (A,B) and (B,A) must produce the same key.
type pairKey struct{ a, b int }

func makePairKey(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// cachedImpulse is one contact point's accumulated impulses from the
// previous step, used to warm-start the next.
type cachedImpulse struct {
	Normal, Tangent1, Tangent2 float64
	retention                  uint
}

// ImpulseCache persists per-contact-point impulses across steps,
// indexed by pair and feature ID.
type ImpulseCache struct {
	entries         map[pairKey]map[uint32]*cachedImpulse
	retentionFrames uint
}

// NewImpulseCache returns an empty cache whose entries are evicted
// after retentionFrames consecutive steps without a refresh.
func NewImpulseCache(retentionFrames uint) *ImpulseCache {
	return &ImpulseCache{entries: map[pairKey]map[uint32]*cachedImpulse{}, retentionFrames: retentionFrames}
}

// Fetch returns the warm-start impulses for (a, b, featureID), or the
// zero value if nothing is cached — a cache miss is never fatal, the
// solver just starts that contact cold.
func (c *ImpulseCache) Fetch(a, b int, featureID uint32) cachedImpulse {
	if perPair, ok := c.entries[makePairKey(a, b)]; ok {
		if e, ok := perPair[featureID]; ok {
			return *e
		}
	}
	return cachedImpulse{}
}

// Store records this step's accumulated impulses for (a, b,
// featureID), resetting its retention counter.
func (c *ImpulseCache) Store(a, b int, featureID uint32, normal, t1, t2 float64) {
	key := makePairKey(a, b)
	perPair, ok := c.entries[key]
	if !ok {
		perPair = map[uint32]*cachedImpulse{}
		c.entries[key] = perPair
	}
	perPair[featureID] = &cachedImpulse{Normal: normal, Tangent1: t1, Tangent2: t2, retention: c.retentionFrames}
}

// Age decrements every entry's retention counter and removes those
// that reach zero, the per-step cache-manager sweep.
func (c *ImpulseCache) Age() {
	for key, perPair := range c.entries {
		for fid, e := range perPair {
			if e.retention == 0 {
				delete(perPair, fid)
				continue
			}
			e.retention--
			if e.retention == 0 {
				delete(perPair, fid)
			}
		}
		if len(perPair) == 0 {
			delete(c.entries, key)
		}
	}
}

// Drop removes every cached entry for a pair at once, rather than
// waiting for Age to retire them.
func (c *ImpulseCache) Drop(a, b int) {
	delete(c.entries, makePairKey(a, b))
}

// hullFacePair records a reference/incident face pair and two tracking
// points for a hull pair, aged like the impulse cache. It is written by
// pairdispatch.go's narrowPhaseCached every hull-vs-hull step but never
// read back: HullVsHull always runs the full face/edge query.
type hullFacePair struct {
	referenceFace, incidentFace int
	refCentroid, incCentroid    lin.V3
	valid                       bool
	retention                   uint
}

// HullVsHullCache persists SAT reference/incident face choices across
// steps, keyed by hull pair.
type HullVsHullCache struct {
	entries         map[pairKey]*hullFacePair
	retentionFrames uint
}

func NewHullVsHullCache(retentionFrames uint) *HullVsHullCache {
	return &HullVsHullCache{entries: map[pairKey]*hullFacePair{}, retentionFrames: retentionFrames}
}

// Valid reports whether a's reference/incident face choice from last
// step is still usable, i.e. its centroids haven't moved enough to
// invalidate the cached axis. Re-derivation (recomputing from scratch
// on a miss) is the caller's responsibility — this cache only ever
// says "trust it" or "don't", never produces stale geometry itself.
func (c *HullVsHullCache) Valid(a, b int, refCentroid, incCentroid lin.V3) (hullFacePair, bool) {
	e, ok := c.entries[makePairKey(a, b)]
	if !ok || !e.valid {
		return hullFacePair{}, false
	}
	const moveTol = 1e-3
	d1 := lin.V3{X: refCentroid.X - e.refCentroid.X, Y: refCentroid.Y - e.refCentroid.Y, Z: refCentroid.Z - e.refCentroid.Z}
	d2 := lin.V3{X: incCentroid.X - e.incCentroid.X, Y: incCentroid.Y - e.incCentroid.Y, Z: incCentroid.Z - e.incCentroid.Z}
	if d1.Dot(&d1) > moveTol || d2.Dot(&d2) > moveTol {
		return hullFacePair{}, false
	}
	return *e, true
}

func (c *HullVsHullCache) Store(a, b int, referenceFace, incidentFace int, refCentroid, incCentroid lin.V3) {
	c.entries[makePairKey(a, b)] = &hullFacePair{
		referenceFace: referenceFace, incidentFace: incidentFace,
		refCentroid: refCentroid, incCentroid: incCentroid,
		valid: true, retention: c.retentionFrames,
	}
}

// Age mirrors ImpulseCache.Age for the face-pair cache.
func (c *HullVsHullCache) Age() {
	for key, e := range c.entries {
		if e.retention == 0 {
			delete(c.entries, key)
			continue
		}
		e.retention--
		if e.retention == 0 {
			delete(c.entries, key)
		}
	}
}
