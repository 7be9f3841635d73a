// Package handlers implements the host commands on top of the overlay manager,
// the scan reporter and the stats API.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/GormazAR/overlay/internal/cache"
	"github.com/GormazAR/overlay/internal/model"
	"github.com/GormazAR/overlay/internal/overlay"
	"github.com/GormazAR/overlay/internal/parser"
	"github.com/GormazAR/overlay/internal/pool"
	"github.com/GormazAR/overlay/internal/scans"
	"github.com/GormazAR/overlay/internal/session"
	"github.com/GormazAR/overlay/pkg/core"
	"github.com/GormazAR/overlay/pkg/host"
)

// ErrMissingDependency is returned by NewService when a required dependency is nil.
var ErrMissingDependency = errors.New("missing handler dependency")

// StatsClient is the part of the stats API the handlers use.
type StatsClient interface {
	RegisterUser(ctx context.Context, userID string) (bool, error)
	IncrementScan(ctx context.Context, docID, userID string) (model.ScanResult, error)
	EndSession(ctx context.Context, userID string, d time.Duration) (model.SessionResult, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Parser     *parser.Parser
	Trackables *cache.TrackableCache
	Feed       *host.Feed
	Overlays   *overlay.Manager
	Registry   *pool.Registry
	Session    *session.Context
	Reporter   *scans.Reporter
	// Stats may be nil when running without a backend.
	Stats  StatsClient
	Logger *slog.Logger
}

// Service provides handler methods for processing host commands
type Service struct {
	deps   Dependencies
	logger *slog.Logger
}

// NewService creates a new handler service
func NewService(deps Dependencies) (*Service, error) {
	if deps.Parser == nil || deps.Trackables == nil || deps.Feed == nil ||
		deps.Overlays == nil || deps.Registry == nil || deps.Session == nil || deps.Reporter == nil {
		return nil, ErrMissingDependency
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{deps: deps, logger: logger.With("component", "handlers")}, nil
}

// TrackingResult summarizes one delivered tracking batch.
type TrackingResult struct {
	Added    int      `json:"added"`
	Updated  int      `json:"updated"`
	Removed  int      `json:"removed"`
	Reported []string `json:"reported,omitempty"`
}

// HandleTrackingChanged decodes a batch, resolves its markers to stable
// handles and publishes it to the overlay manager's feed.
func (s *Service) HandleTrackingChanged(args []string) (TrackingResult, error) {
	parsed, err := s.deps.Parser.ParseTrackingBatch(args)
	if err != nil {
		return TrackingResult{}, err
	}

	var b core.Batch
	upsert := func(m core.TrackedMarker) *core.TrackedMarker {
		h, replaced := s.deps.Trackables.Upsert(m)
		if replaced != nil {
			s.logger.Debug("trackable changed reference, old handle retired",
				"id", m.ID, "from", replaced.ReferenceName, "to", m.ReferenceName)
			b.Removed = append(b.Removed, replaced)
		}
		return h
	}
	for _, m := range parsed.Added {
		b.Added = append(b.Added, upsert(m))
	}
	for _, m := range parsed.Updated {
		b.Updated = append(b.Updated, upsert(m))
	}
	for _, id := range parsed.Removed {
		m, ok := s.deps.Trackables.Get(id)
		if !ok {
			s.logger.Debug("removal of unknown trackable skipped", "id", id)
			continue
		}
		b.Removed = append(b.Removed, m)
	}

	res := TrackingResult{Added: len(b.Added), Updated: len(b.Updated), Removed: len(b.Removed)}
	if b.Empty() {
		return res, nil
	}

	pubErr := s.deps.Feed.Publish(b)
	for _, m := range b.Removed {
		s.deps.Trackables.Forget(m)
	}
	res.Reported = s.deps.Reporter.Observe(b)
	return res, pubErr
}

// TogglePin pins or unpins an overlay.
func (s *Service) TogglePin() (string, error) {
	state, err := s.deps.Overlays.TogglePin()
	if err != nil {
		s.logger.Error("pin toggle had host errors", "state", state.String(), "error", err)
	}
	return state.String(), err
}

// PinAvailable reports whether the pin trigger should be visible.
func (s *Service) PinAvailable() bool {
	return s.deps.Overlays.PinAvailable()
}

// PoolStatus is the per-pool view in Status.
type PoolStatus struct {
	Pool      pool.ID `json:"pool"`
	Candidate string  `json:"candidate,omitempty"`
	Overlay   bool    `json:"overlay"`
}

// Status is the reply of the :STATUS: command.
type Status struct {
	Attached      bool         `json:"attached"`
	Pin           string       `json:"pin"`
	PinAvailable  bool         `json:"pinAvailable"`
	PinnedPool    pool.ID      `json:"pinnedPool,omitempty"`
	Pools         []PoolStatus `json:"pools"`
	Trackables    int          `json:"trackables"`
	UserID        string       `json:"userId"`
	SessionUptime float64      `json:"sessionUptime"`
	Reported      []string     `json:"reported"`
}

// Status collects the current state of the overlay manager and session.
func (s *Service) Status() Status {
	m := s.deps.Overlays
	st := Status{
		Attached:      m.Attached(),
		Pin:           m.PinState().String(),
		PinAvailable:  m.PinAvailable(),
		Trackables:    s.deps.Trackables.Len(),
		UserID:        s.deps.Session.UserID(),
		SessionUptime: s.deps.Session.Duration().Seconds(),
		Reported:      s.deps.Reporter.Reported(),
	}
	if p, ok := m.Pinned(); ok {
		st.PinnedPool = p.Pool
	}
	for _, id := range s.deps.Registry.Pools() {
		ps := PoolStatus{Pool: id}
		if cand, ok := m.Candidate(id); ok {
			ps.Candidate = cand.ID
		}
		_, ps.Overlay = m.Overlay(id)
		st.Pools = append(st.Pools, ps)
	}
	return st
}

// RegisterUser announces the session user to the backend.
func (s *Service) RegisterUser(ctx context.Context) error {
	if s.deps.Stats == nil {
		return nil
	}
	userID := s.deps.Session.UserID()
	created, err := s.deps.Stats.RegisterUser(ctx, userID)
	if err != nil {
		s.logger.Error("user registration failed", "user", userID, "error", err)
		return err
	}
	s.logger.Info("user registered", "user", userID, "created", created)
	return nil
}

// IncrementScan reports one scanned document to the backend.
func (s *Service) IncrementScan(ctx context.Context, docID string) (model.ScanResult, error) {
	if s.deps.Stats == nil {
		s.logger.Debug("no stats backend, scan not sent", "doc", docID)
		return model.ScanResult{}, nil
	}
	res, err := s.deps.Stats.IncrementScan(ctx, docID, s.deps.Session.UserID())
	if err != nil {
		s.logger.Error("scan increment failed", "doc", docID, "error", err)
		return model.ScanResult{}, err
	}
	s.logger.Debug("scan counted", "doc", docID, "scans", res.Scans)
	return res, nil
}

// EndSession closes the current session and reports its duration. An
// explicit duration overrides the session clock. The next session starts
// immediately with a fresh set of reported scans.
func (s *Service) EndSession(ctx context.Context, explicit time.Duration, hasExplicit bool) (model.SessionResult, error) {
	d := s.deps.Session.Restart()
	if hasExplicit {
		d = explicit
	}
	s.deps.Reporter.Reset()

	if s.deps.Stats == nil {
		return model.SessionResult{SessionDuration: d.Seconds()}, nil
	}
	res, err := s.deps.Stats.EndSession(ctx, s.deps.Session.UserID(), d)
	if err != nil {
		s.logger.Error("session report failed", "duration", d, "error", err)
		return model.SessionResult{SessionDuration: d.Seconds()}, err
	}
	s.logger.Info("session ended", "duration", d, "average", res.AverageSessionTime)
	return res, nil
}
