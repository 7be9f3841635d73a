package overlay

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/GormazAR/overlay/pkg/core"
)

// PinState is the pin controller state.
type PinState uint8

const (
	// Unpinned is the initial state: overlays follow their markers.
	Unpinned PinState = iota
	// Pinned shows one overlay fixed in front of the camera and freezes reconciliation.
	Pinned
)

// String returns the state name.
func (s PinState) String() string {
	if s == Pinned {
		return "pinned"
	}
	return "unpinned"
}

// TogglePin pins the first eligible overlay, or, when pinned, tears everything down.
// Pinning with no eligible overlay is a no-op. If the host cannot present the
// overlay the pin is rolled back and the overlay stays on its marker.
func (m *Manager) TogglePin() (PinState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.toggles.Add(context.Background(), 1)

	if m.pinned != nil {
		err := m.reset()
		m.logger.Info("overlay unpinned")
		return Unpinned, err
	}

	for _, id := range m.deps.Registry.Pools() {
		candidate, ok := m.candidates.Get(id)
		if !ok || !m.store.Has(candidate) {
			continue
		}

		o, _ := m.store.Take(candidate)
		m.candidates.Clear(id)

		if err := m.present(&o); err != nil {
			m.store.Restore(o)
			m.candidates.Restore(id, candidate)
			m.logger.Warn("pin rolled back", "pool", id, "marker", candidate.ID, "error", err)
			return Unpinned, err
		}
		m.pinned = &o
		m.logger.Info("overlay pinned", "pool", id, "marker", candidate.ID)
		return Pinned, nil
	}

	m.logger.Debug("pin ignored, no overlay eligible")
	return Unpinned, nil
}

// present applies the fixed camera-facing transform to the pinned overlay.
func (m *Manager) present(o *Overlay) error {
	width, err := m.deps.Renderer.BoundingWidth(o.Handle)
	if err != nil {
		return fmt.Errorf("measure pinned overlay: %w", err)
	}

	t := Presentation(m.deps.Camera.Camera(), m.cfg.DisplayDistance, m.cfg.PinWidthFraction, width, o.Transform.Scale)
	if err := m.deps.Renderer.SetTransform(o.Handle, t); err != nil {
		return fmt.Errorf("place pinned overlay: %w", err)
	}
	o.Transform = t
	return nil
}

// Presentation computes the pinned placement: centred at distance in front of
// the camera, facing along the view direction, uniformly scaled so the
// overlay's width becomes widthFraction of the visible width at that distance.
// currentWidth is the overlay's measured width at currentScale; a
// non-positive measurement counts as 1.
func Presentation(cam core.Camera, distance, widthFraction, currentWidth float64, currentScale r3.Vec) core.Transform {
	if currentWidth <= 0 {
		currentWidth = 1
	}
	target := cam.VisibleWidth(distance) * widthFraction
	factor := target / currentWidth

	return core.Transform{
		Position: cam.PointAhead(distance),
		Rotation: core.Normalize(cam.Rotation),
		Scale:    r3.Scale(factor, currentScale),
	}
}
