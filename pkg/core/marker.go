// pkg/core/marker.go
package core

import "fmt"

// TrackingState is the tracking quality reported for a marker.
type TrackingState uint8

const (
	// TrackingNone means the marker is known but not currently tracked.
	TrackingNone TrackingState = iota
	// TrackingLimited means the marker is tracked with degraded quality.
	TrackingLimited
	// Tracking means the marker is actively tracked.
	Tracking
)

// String returns the wire name of the state.
func (s TrackingState) String() string {
	switch s {
	case Tracking:
		return "tracking"
	case TrackingLimited:
		return "limited"
	default:
		return "none"
	}
}

// ParseTrackingState converts a wire name to a TrackingState.
func ParseTrackingState(s string) (TrackingState, error) {
	switch s {
	case "tracking":
		return Tracking, nil
	case "limited":
		return TrackingLimited, nil
	case "none", "":
		return TrackingNone, nil
	default:
		return TrackingNone, fmt.Errorf("unknown tracking state %q", s)
	}
}

// TrackedMarker is a handle to one physical marker known to the tracking subsystem.
// The tracking subsystem owns it and mutates it in place between batches;
// consumers compare handles by pointer.
type TrackedMarker struct {
	ID            string
	ReferenceName string
	State         TrackingState
	Pose          Pose
	Size          Size
}

// IsTracking reports whether the marker is actively tracked.
func (m *TrackedMarker) IsTracking() bool {
	return m != nil && m.State == Tracking
}

// Batch is one tracking-changed notification.
type Batch struct {
	Added   []*TrackedMarker
	Updated []*TrackedMarker
	Removed []*TrackedMarker
}

// Empty returns true if the batch carries no markers.
func (b Batch) Empty() bool {
	return len(b.Added) == 0 && len(b.Updated) == 0 && len(b.Removed) == 0
}
