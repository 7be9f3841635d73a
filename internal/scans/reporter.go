// Package scans reports each recognized reference image once per session.
package scans

import (
	"sort"
	"sync"

	"github.com/GormazAR/overlay/pkg/core"
)

// EnqueueFunc hands a reference name to whatever sends the increment.
type EnqueueFunc func(referenceName string) error

// Reporter remembers which reference names were already reported in the
// current session.
type Reporter struct {
	mu       sync.Mutex
	reported map[string]struct{}
	enqueue  EnqueueFunc
	onError  func(referenceName string, err error)
}

// NewReporter creates a Reporter. onError may be nil.
func NewReporter(enqueue EnqueueFunc, onError func(string, error)) *Reporter {
	return &Reporter{
		reported: make(map[string]struct{}),
		enqueue:  enqueue,
		onError:  onError,
	}
}

// Observe enqueues every actively tracked, not yet reported reference name
// among the added and updated markers of b. Returns the names enqueued.
func (r *Reporter) Observe(b core.Batch) []string {
	var fresh []string

	r.mu.Lock()
	for _, list := range [][]*core.TrackedMarker{b.Added, b.Updated} {
		for _, m := range list {
			if !m.IsTracking() || m.ReferenceName == "" {
				continue
			}
			if _, done := r.reported[m.ReferenceName]; done {
				continue
			}
			r.reported[m.ReferenceName] = struct{}{}
			fresh = append(fresh, m.ReferenceName)
		}
	}
	r.mu.Unlock()

	for _, name := range fresh {
		if err := r.enqueue(name); err != nil && r.onError != nil {
			r.onError(name, err)
		}
	}
	return fresh
}

// Reported returns the names reported this session, sorted.
func (r *Reporter) Reported() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.reported))
	for name := range r.reported {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Reset starts a new session.
func (r *Reporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reported = make(map[string]struct{})
}
