package cache

import (
	"sync"

	"github.com/GormazAR/overlay/pkg/core"
)

// TrackableCache keeps one stable handle per trackable id so that repeated
// updates from the host mutate the same *core.TrackedMarker.
type TrackableCache struct {
	mu      sync.Mutex
	markers map[string]*core.TrackedMarker
}

// NewTrackableCache creates an empty cache.
func NewTrackableCache() *TrackableCache {
	return &TrackableCache{
		markers: make(map[string]*core.TrackedMarker),
	}
}

// Upsert copies the observed state into the handle for m.ID, creating it if
// needed, and returns the stable handle. When the host reuses an id for a
// different reference name the old handle is retired: a fresh handle is
// stored and the old one is returned as replaced so callers can treat it as
// removed.
func (c *TrackableCache) Upsert(m core.TrackedMarker) (handle, replaced *core.TrackedMarker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.markers[m.ID]; ok {
		if existing.ReferenceName == m.ReferenceName {
			*existing = m
			return existing, nil
		}
		replaced = existing
	}
	handle = &m
	c.markers[m.ID] = handle
	return handle, replaced
}

// Get returns the handle for id.
func (c *TrackableCache) Get(id string) (*core.TrackedMarker, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.markers[id]
	return m, ok
}

// Forget drops m if it is still the handle stored for its id. A handle
// already retired by Upsert leaves its successor in place.
func (c *TrackableCache) Forget(m *core.TrackedMarker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.markers[m.ID] == m {
		delete(c.markers, m.ID)
	}
}

// Len returns the number of known trackables.
func (c *TrackableCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.markers)
}

// Reset forgets all trackables.
func (c *TrackableCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers = make(map[string]*core.TrackedMarker)
}
