// Package overlay keeps at most one visual overlay per marker pool in sync with
// the tracking stream, and pins a single overlay in front of the camera on request.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GormazAR/overlay/internal/cache"
	"github.com/GormazAR/overlay/internal/pool"
	"github.com/GormazAR/overlay/pkg/core"
	"github.com/GormazAR/overlay/pkg/host"
)

// SubscriptionName is the name the manager subscribes under on a tracking source.
const SubscriptionName = "overlay-manager"

var (
	// ErrNotAttached is returned when a batch is delivered to a detached manager.
	ErrNotAttached = errors.New("overlay manager is not attached to a tracking source")
	// ErrMissingDependency is returned by New when a required collaborator is nil.
	ErrMissingDependency = errors.New("missing dependency")
)

// Default configuration values.
const (
	DefaultScaleFactor      = 0.1
	DefaultDisplayDistance  = 2.0
	DefaultPinWidthFraction = 0.9
)

// Config holds the manager tunables.
type Config struct {
	// ScaleFactor scales the marker's physical size onto the overlay's in-plane axes.
	ScaleFactor float64
	// DisplayDistance is how far in front of the camera a pinned overlay is shown.
	DisplayDistance float64
	// PinWidthFraction is the share of the visible width a pinned overlay fills.
	PinWidthFraction float64
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		ScaleFactor:      DefaultScaleFactor,
		DisplayDistance:  DefaultDisplayDistance,
		PinWidthFraction: DefaultPinWidthFraction,
	}
}

// Dependencies holds the manager's collaborators.
type Dependencies struct {
	Registry *pool.Registry
	Renderer host.Renderer
	Camera   host.CameraRig
	Logger   *slog.Logger

	// OnPinAvailable is called whenever the pin trigger becomes usable or unusable.
	// It runs with the manager locked and must not call back into the manager.
	OnPinAvailable func(bool)
}

// Manager reconciles tracking batches into overlays and owns the pin state.
type Manager struct {
	mu sync.Mutex

	cfg     Config
	deps    Dependencies
	logger  *slog.Logger
	metrics *metrics

	candidates *cache.CandidateTracker
	store      *Store

	source       host.TrackingSource
	pinned       *Overlay
	pinAvailable bool
}

// New creates a manager. Zero config values fall back to the defaults.
func New(cfg Config, deps Dependencies) (*Manager, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("%w: pool registry", ErrMissingDependency)
	}
	if deps.Renderer == nil {
		return nil, fmt.Errorf("%w: renderer", ErrMissingDependency)
	}
	if deps.Camera == nil {
		return nil, fmt.Errorf("%w: camera", ErrMissingDependency)
	}

	def := DefaultConfig()
	if cfg.ScaleFactor == 0 {
		cfg.ScaleFactor = def.ScaleFactor
	}
	if cfg.DisplayDistance == 0 {
		cfg.DisplayDistance = def.DisplayDistance
	}
	if cfg.PinWidthFraction == 0 {
		cfg.PinWidthFraction = def.PinWidthFraction
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "overlay")

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:        cfg,
		deps:       deps,
		logger:     logger,
		metrics:    m,
		candidates: cache.NewCandidateTracker(deps.Registry),
		store:      newStore(deps.Renderer, deps.Registry, cfg.ScaleFactor, logger, m),
	}, nil
}

// Attach subscribes the manager to src. Attaching to a new source detaches from the old one.
func (m *Manager) Attach(src host.TrackingSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.source == src {
		return
	}
	if m.source != nil {
		m.source.Unsubscribe(SubscriptionName)
	}
	m.source = src
	src.Subscribe(SubscriptionName, m.HandleBatch)
	m.logger.Info("attached to tracking source")
}

// Detach unsubscribes the manager. Batches delivered afterwards are rejected.
func (m *Manager) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.source == nil {
		return
	}
	m.source.Unsubscribe(SubscriptionName)
	m.source = nil
	m.logger.Info("detached from tracking source")
}

// Attached reports whether the manager is subscribed to a source.
func (m *Manager) Attached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source != nil
}

// HandleBatch processes one tracking batch to completion. While pinned the
// batch is received but produces no overlay or candidate changes.
// Only host failures are returned.
func (m *Manager) HandleBatch(b core.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.source == nil {
		m.logger.Debug("batch ignored, not attached")
		return ErrNotAttached
	}
	if m.pinned != nil {
		m.metrics.suppressed.Add(context.Background(), 1)
		m.logger.Debug("batch suppressed while pinned",
			"added", len(b.Added), "updated", len(b.Updated), "removed", len(b.Removed))
		return nil
	}

	m.metrics.batches.Add(context.Background(), 1)
	return m.reconcile(b)
}

// PinState returns the current pin state.
func (m *Manager) PinState() PinState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pinned != nil {
		return Pinned
	}
	return Unpinned
}

// PinAvailable reports whether the pin trigger should be offered to the user.
func (m *Manager) PinAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pinAvailable
}

// Candidate returns the pool's current candidate.
func (m *Manager) Candidate(id pool.ID) (*core.TrackedMarker, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.candidates.Get(id)
}

// Overlay returns the live overlay tied to the pool's candidate.
func (m *Manager) Overlay(id pool.ID) (Overlay, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cand, ok := m.candidates.Get(id)
	if !ok {
		return Overlay{}, false
	}
	return m.store.Get(cand)
}

// Pinned returns the pinned overlay.
func (m *Manager) Pinned() (Overlay, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pinned == nil {
		return Overlay{}, false
	}
	return *m.pinned, true
}

// Reset destroys every overlay, pinned or not, and clears all candidates.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reset()
}

func (m *Manager) reset() error {
	var errs []error
	if m.pinned != nil {
		if err := m.deps.Renderer.Destroy(m.pinned.Handle); err != nil {
			errs = append(errs, fmt.Errorf("destroy pinned overlay: %w", err))
		} else {
			m.metrics.destroyed.Add(context.Background(), 1, poolAttr(m.pinned.Pool))
		}
		m.pinned = nil
	}
	if err := m.store.DestroyAll(); err != nil {
		errs = append(errs, err)
	}
	m.candidates.Reset()
	m.setPinAvailable(false)
	return errors.Join(errs...)
}

func (m *Manager) setPinAvailable(v bool) {
	if m.pinAvailable == v {
		return
	}
	m.pinAvailable = v
	if m.deps.OnPinAvailable != nil {
		m.deps.OnPinAvailable(v)
	}
}
