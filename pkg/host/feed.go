package host

import (
	"errors"
	"sort"
	"sync"

	"github.com/GormazAR/overlay/pkg/core"
)

// Feed is an in-memory TrackingSource. Publish fans a batch out to all
// subscribers in name order.
type Feed struct {
	mu          sync.RWMutex
	subscribers map[string]BatchFunc
}

// NewFeed creates a Feed without subscribers.
func NewFeed() *Feed {
	return &Feed{subscribers: make(map[string]BatchFunc)}
}

// Subscribe implements TrackingSource. A second subscription under the same name replaces the first.
func (f *Feed) Subscribe(name string, fn BatchFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers[name] = fn
}

// Unsubscribe implements TrackingSource.
func (f *Feed) Unsubscribe(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subscribers, name)
}

// Subscribers returns the number of current subscribers.
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

// Publish delivers b to every subscriber and joins their errors.
func (f *Feed) Publish(b core.Batch) error {
	f.mu.RLock()
	names := make([]string, 0, len(f.subscribers))
	for name := range f.subscribers {
		names = append(names, name)
	}
	sort.Strings(names)
	fns := make([]BatchFunc, 0, len(names))
	for _, name := range names {
		fns = append(fns, f.subscribers[name])
	}
	f.mu.RUnlock()

	var errs []error
	for _, fn := range fns {
		if err := fn(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
