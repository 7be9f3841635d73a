// Package host defines the capabilities a rendering/tracking host provides to the overlay manager,
// an in-memory reference host, and the command bridge hosts call into.
package host

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/GormazAR/overlay/pkg/core"
)

// Handle identifies a visual object owned by the host.
type Handle uint64

// Renderer creates, places and destroys visual objects.
type Renderer interface {
	Instantiate(prototype string, position r3.Vec, rotation r3.Rotation) (Handle, error)
	Destroy(h Handle) error
	SetTransform(h Handle, t core.Transform) error
	// BoundingWidth returns the world-space width of the object's bounds at its current scale.
	BoundingWidth(h Handle) (float64, error)
}

// CameraRig exposes the viewing camera. It is read live when needed.
type CameraRig interface {
	Camera() core.Camera
}

// BatchFunc receives one tracking-changed batch.
type BatchFunc func(core.Batch) error

// TrackingSource delivers tracking batches to subscribers.
type TrackingSource interface {
	Subscribe(name string, fn BatchFunc)
	Unsubscribe(name string)
}
