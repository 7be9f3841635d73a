// pkg/core/pose.go
package core

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Host space axes: +Z forward, +Y up, +X right.
var (
	Forward = r3.Vec{Z: 1}
	Up      = r3.Vec{Y: 1}
	Right   = r3.Vec{X: 1}
)

// IdentityRotation is the rotation that leaves vectors unchanged.
var IdentityRotation = r3.Rotation{Real: 1}

// Pose is a position and orientation in world space.
type Pose struct {
	Position r3.Vec
	Rotation r3.Rotation
}

// Size is the physical 2D extent of a marker.
type Size struct {
	X float64
	Y float64
}

// Transform is the full placement of a visual object.
type Transform struct {
	Position r3.Vec
	Rotation r3.Rotation
	Scale    r3.Vec
}

// UnitScale is the default scale of a freshly instantiated object.
var UnitScale = r3.Vec{X: 1, Y: 1, Z: 1}

// Compose returns the rotation that applies b first and then a.
func Compose(a, b r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Mul(quat.Number(a), quat.Number(b)))
}

// EulerX returns a rotation of deg degrees about the X axis.
func EulerX(deg float64) r3.Rotation {
	return r3.NewRotation(deg*math.Pi/180, Right)
}

// Normalize returns r scaled to unit length. A zero rotation becomes the identity.
func Normalize(r r3.Rotation) r3.Rotation {
	n := quat.Abs(quat.Number(r))
	if n == 0 {
		return IdentityRotation
	}
	return r3.Rotation(quat.Scale(1/n, quat.Number(r)))
}
