// Package memory keeps the scan statistics in process memory.
package memory

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/GormazAR/overlay/internal/model"
)

// Backend stores the statistics in maps guarded by one mutex.
type Backend struct {
	catalog []model.Graffiti

	graffiti map[string]*model.Graffiti // keyed by DocID
	users    map[string]*model.User     // keyed by UserID
	stats    model.GlobalStats

	mu sync.RWMutex
}

// New creates a new memory backend seeded with catalog
func New(catalog []model.Graffiti) *Backend {
	b := &Backend{catalog: slices.Clone(catalog)}
	b.reset()
	return b
}

func (b *Backend) reset() {
	b.graffiti = make(map[string]*model.Graffiti, len(b.catalog))
	for i, g := range b.catalog {
		g.ID = uint(i + 1)
		b.graffiti[g.DocID] = &g
	}
	b.users = make(map[string]*model.User)
	b.stats = model.GlobalStats{ID: model.GlobalStatsID}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// RegisterUser adds userID to the known users.
func (b *Backend) RegisterUser(_ context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, model.ErrMissingUserID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.users[userID]; ok {
		return false, nil
	}
	b.users[userID] = &model.User{UserID: userID, Scanned: []string{}}
	b.stats.UniqueUsers++
	return true, nil
}

// IncrementScan counts one scan of docID by userID.
func (b *Backend) IncrementScan(_ context.Context, docID, userID string) (model.ScanResult, error) {
	if userID == "" {
		return model.ScanResult{}, model.ErrMissingUserID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	doc, ok := b.graffiti[docID]
	if !ok {
		return model.ScanResult{}, model.ErrDocumentNotFound
	}
	user, ok := b.users[userID]
	if !ok {
		return model.ScanResult{}, model.ErrUserNotFound
	}

	doc.Scans++
	if user.AddScan(docID) && user.MarkCompletedIfDone(b.catalogIDs()) {
		b.stats.UsersCompleted++
	}

	return model.ScanResult{
		Name:        doc.Name,
		Scans:       doc.Scans,
		UserScanned: slices.Clone([]string(user.Scanned)),
	}, nil
}

func (b *Backend) catalogIDs() []string {
	ids := make([]string, 0, len(b.catalog))
	for _, g := range b.catalog {
		ids = append(ids, g.DocID)
	}
	return ids
}

// EndSession folds a session into the running average.
func (b *Backend) EndSession(_ context.Context, _ string, seconds float64) (model.SessionResult, error) {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return model.SessionResult{}, model.ErrInvalidDuration
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.RecordSession(seconds)
	return model.SessionResult{
		SessionDuration:    seconds,
		AverageSessionTime: b.stats.AverageSessionTime,
	}, nil
}

// Stats returns a copy of the counters and the catalog in seed order.
func (b *Backend) Stats(_ context.Context) (model.StatsResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := model.StatsResult{GlobalStats: b.stats}
	for _, g := range b.catalog {
		out.Graffiti = append(out.Graffiti, *b.graffiti[g.DocID])
	}
	return out, nil
}
