// pkg/core/camera.go
package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is a snapshot of the viewing camera.
type Camera struct {
	Position r3.Vec
	Rotation r3.Rotation
	// FieldOfView is the vertical field of view in degrees.
	FieldOfView float64
	// Aspect is width divided by height.
	Aspect float64
}

// Forward returns the unit view direction.
func (c Camera) Forward() r3.Vec {
	return Normalize(c.Rotation).Rotate(Forward)
}

// PointAhead returns the world point at distance along the view direction.
func (c Camera) PointAhead(distance float64) r3.Vec {
	return r3.Add(c.Position, r3.Scale(distance, c.Forward()))
}

// VisibleWidth returns the width of the view frustum at distance.
func (c Camera) VisibleWidth(distance float64) float64 {
	halfFOV := c.FieldOfView * 0.5 * math.Pi / 180
	return 2 * distance * math.Tan(halfFOV) * c.Aspect
}
