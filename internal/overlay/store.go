package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/GormazAR/overlay/internal/pool"
	"github.com/GormazAR/overlay/pkg/core"
	"github.com/GormazAR/overlay/pkg/host"
)

// flatLay turns a prototype modelled upright so it lies flat on the marker plane.
var flatLay = core.EulerX(90)

// Overlay is a live visual object tied to one marker.
type Overlay struct {
	Pool      pool.ID
	Marker    *core.TrackedMarker
	Handle    host.Handle
	Transform core.Transform
}

// Store maps tracked markers to their overlays and performs the host calls
// that keep them placed. It is not safe for concurrent use.
type Store struct {
	renderer    host.Renderer
	registry    *pool.Registry
	scaleFactor float64
	logger      *slog.Logger
	metrics     *metrics

	overlays map[*core.TrackedMarker]*Overlay
	warned   map[pool.ID]bool
}

func newStore(renderer host.Renderer, registry *pool.Registry, scaleFactor float64, logger *slog.Logger, m *metrics) *Store {
	return &Store{
		renderer:    renderer,
		registry:    registry,
		scaleFactor: scaleFactor,
		logger:      logger,
		metrics:     m,
		overlays:    make(map[*core.TrackedMarker]*Overlay),
		warned:      make(map[pool.ID]bool),
	}
}

// Has reports whether m has an overlay.
func (s *Store) Has(m *core.TrackedMarker) bool {
	_, ok := s.overlays[m]
	return ok
}

// Get returns the overlay of m.
func (s *Store) Get(m *core.TrackedMarker) (Overlay, bool) {
	o, ok := s.overlays[m]
	if !ok {
		return Overlay{}, false
	}
	return *o, true
}

// Create instantiates the pool's prototype at m's pose. A pool without a
// prototype is a configuration gap: it is logged once and nothing is created.
// The mapping is only recorded after the host succeeds.
func (s *Store) Create(m *core.TrackedMarker, id pool.ID) (bool, error) {
	prototype, ok := s.registry.Prototype(id)
	if !ok {
		if !s.warned[id] {
			s.logger.Warn("no prototype registered for pool", "pool", id, "marker", m.ReferenceName)
			s.warned[id] = true
		}
		return false, nil
	}

	rotation := layFlat(m.Pose)
	h, err := s.renderer.Instantiate(prototype, m.Pose.Position, rotation)
	if err != nil {
		return false, fmt.Errorf("instantiate %s for pool %s: %w", prototype, id, err)
	}

	s.overlays[m] = &Overlay{
		Pool:   id,
		Marker: m,
		Handle: h,
		Transform: core.Transform{
			Position: m.Pose.Position,
			Rotation: rotation,
			Scale:    core.UnitScale,
		},
	}
	s.metrics.created.Add(context.Background(), 1, poolAttr(id))
	s.logger.Debug("overlay created", "pool", id, "marker", m.ID, "handle", h)
	return true, nil
}

// Update moves m's overlay onto m's current pose and scales it to the marker size.
func (s *Store) Update(m *core.TrackedMarker) error {
	o, ok := s.overlays[m]
	if !ok {
		return nil
	}
	t := core.Transform{
		Position: m.Pose.Position,
		Rotation: layFlat(m.Pose),
		Scale:    r3.Vec{X: m.Size.X * s.scaleFactor, Y: m.Size.Y * s.scaleFactor, Z: 1},
	}
	if err := s.renderer.SetTransform(o.Handle, t); err != nil {
		return fmt.Errorf("update overlay for pool %s: %w", o.Pool, err)
	}
	o.Transform = t
	return nil
}

// Remove destroys m's overlay. The mapping is dropped even if the host fails.
func (s *Store) Remove(m *core.TrackedMarker) error {
	o, ok := s.overlays[m]
	if !ok {
		return nil
	}
	err := s.destroy(o)
	delete(s.overlays, m)
	return err
}

// RemoveAllForPool destroys every overlay belonging to the pool.
func (s *Store) RemoveAllForPool(id pool.ID) error {
	var errs []error
	for _, o := range s.sorted() {
		if o.Pool != id {
			continue
		}
		if err := s.destroy(o); err != nil {
			errs = append(errs, err)
		}
		delete(s.overlays, o.Marker)
	}
	return errors.Join(errs...)
}

// Take removes m's overlay from the store without destroying it.
func (s *Store) Take(m *core.TrackedMarker) (Overlay, bool) {
	o, ok := s.overlays[m]
	if !ok {
		return Overlay{}, false
	}
	delete(s.overlays, m)
	return *o, true
}

// Restore puts back an overlay previously removed with Take.
func (s *Store) Restore(o Overlay) {
	s.overlays[o.Marker] = &o
}

// DestroyAll destroys every overlay in the store.
func (s *Store) DestroyAll() error {
	var errs []error
	for _, o := range s.sorted() {
		if err := s.destroy(o); err != nil {
			errs = append(errs, err)
		}
		delete(s.overlays, o.Marker)
	}
	return errors.Join(errs...)
}

// Len returns the number of live overlays.
func (s *Store) Len() int {
	return len(s.overlays)
}

// CountForPool returns the number of live overlays belonging to the pool.
func (s *Store) CountForPool(id pool.ID) int {
	n := 0
	for _, o := range s.overlays {
		if o.Pool == id {
			n++
		}
	}
	return n
}

func (s *Store) destroy(o *Overlay) error {
	if err := s.renderer.Destroy(o.Handle); err != nil {
		return fmt.Errorf("destroy overlay for pool %s: %w", o.Pool, err)
	}
	s.metrics.destroyed.Add(context.Background(), 1, poolAttr(o.Pool))
	s.logger.Debug("overlay destroyed", "pool", o.Pool, "marker", o.Marker.ID, "handle", o.Handle)
	return nil
}

// sorted returns the overlays ordered by handle so host calls are deterministic.
func (s *Store) sorted() []*Overlay {
	out := make([]*Overlay, 0, len(s.overlays))
	for _, o := range s.overlays {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

func layFlat(p core.Pose) r3.Rotation {
	return core.Compose(core.Normalize(p.Rotation), flatLay)
}
