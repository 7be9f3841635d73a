package overlay

import (
	"errors"

	"github.com/GormazAR/overlay/pkg/core"
)

// reconcile converges the store to one overlay per pool following that pool's
// candidate. Removals are applied before candidates are re-evaluated, and a
// pool's stale overlays are evicted before its new one is created.
func (m *Manager) reconcile(b core.Batch) error {
	var errs []error

	for _, tm := range b.Added {
		m.candidates.Offer(tm)
	}
	for _, tm := range b.Updated {
		m.candidates.Offer(tm)
	}

	for _, tm := range b.Removed {
		if err := m.store.Remove(tm); err != nil {
			errs = append(errs, err)
		}
		m.candidates.ClearIfMatches(tm)
	}

	for _, id := range m.deps.Registry.Pools() {
		candidate, ok := m.candidates.Get(id)
		if !ok {
			if err := m.store.RemoveAllForPool(id); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		if m.store.Has(candidate) {
			if err := m.store.Update(candidate); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		if err := m.store.RemoveAllForPool(id); err != nil {
			errs = append(errs, err)
		}
		created, err := m.store.Create(candidate, id)
		if err != nil {
			m.logger.Error("overlay creation failed", "pool", id, "error", err)
			errs = append(errs, err)
			continue
		}
		if created {
			m.setPinAvailable(true)
		}
	}

	return errors.Join(errs...)
}
