package cache

import (
	"github.com/GormazAR/overlay/internal/pool"
	"github.com/GormazAR/overlay/pkg/core"
)

// Resolver maps a marker reference name to its pool.
type Resolver interface {
	Resolve(markerName string) (pool.ID, bool)
}

// CandidateTracker holds, per pool, the marker currently representing it.
// It is not safe for concurrent use; the overlay manager serializes access.
type CandidateTracker struct {
	resolver   Resolver
	candidates map[pool.ID]*core.TrackedMarker
}

// NewCandidateTracker creates an empty tracker.
func NewCandidateTracker(resolver Resolver) *CandidateTracker {
	return &CandidateTracker{
		resolver:   resolver,
		candidates: make(map[pool.ID]*core.TrackedMarker),
	}
}

// Offer makes m its pool's candidate if m is actively tracked and its pool resolves.
// The last offer wins. Returns the pool and whether the candidate was set.
func (c *CandidateTracker) Offer(m *core.TrackedMarker) (pool.ID, bool) {
	if !m.IsTracking() {
		return "", false
	}
	id, ok := c.resolver.Resolve(m.ReferenceName)
	if !ok {
		return "", false
	}
	c.candidates[id] = m
	return id, true
}

// ClearIfMatches removes m from every pool it is the candidate of. A handle
// whose reference name changed after it was offered can sit in more than one
// slot, so the slots are searched rather than resolved from the current name.
func (c *CandidateTracker) ClearIfMatches(m *core.TrackedMarker) bool {
	if m == nil {
		return false
	}
	cleared := false
	for id, candidate := range c.candidates {
		if candidate == m {
			delete(c.candidates, id)
			cleared = true
		}
	}
	return cleared
}

// Get returns the pool's candidate.
func (c *CandidateTracker) Get(id pool.ID) (*core.TrackedMarker, bool) {
	m, ok := c.candidates[id]
	return m, ok
}

// Clear removes the pool's candidate.
func (c *CandidateTracker) Clear(id pool.ID) {
	delete(c.candidates, id)
}

// Restore makes m the pool's candidate without the tracking checks of Offer.
// It undoes a Clear when the step that needed it fails.
func (c *CandidateTracker) Restore(id pool.ID, m *core.TrackedMarker) {
	c.candidates[id] = m
}

// Reset removes all candidates.
func (c *CandidateTracker) Reset() {
	c.candidates = make(map[pool.ID]*core.TrackedMarker)
}

// Len returns the number of pools with a candidate.
func (c *CandidateTracker) Len() int {
	return len(c.candidates)
}
