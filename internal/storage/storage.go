// Package storage defines the stats backend behind the scan-statistics API.
package storage

import (
	"context"

	"github.com/GormazAR/overlay/internal/model"
)

// Errors returned by every Backend.
var (
	ErrUserNotFound     = model.ErrUserNotFound
	ErrDocumentNotFound = model.ErrDocumentNotFound
	ErrMissingUserID    = model.ErrMissingUserID
	ErrInvalidDuration  = model.ErrInvalidDuration
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// RegisterUser adds userID. created is false when it was already known.
	RegisterUser(ctx context.Context, userID string) (created bool, err error)
	// IncrementScan counts one scan of docID by userID.
	IncrementScan(ctx context.Context, docID, userID string) (model.ScanResult, error)
	// EndSession folds a session of seconds into the running average.
	EndSession(ctx context.Context, userID string, seconds float64) (model.SessionResult, error)

	Stats(ctx context.Context) (model.StatsResult, error)
}

// Snapshotter is an optional interface for backends that can write a
// point-in-time copy of their data to a file.
type Snapshotter interface {
	Snapshot(path string) error
}
