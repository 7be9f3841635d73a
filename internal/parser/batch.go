package parser

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/GormazAR/overlay/pkg/core"
)

// markerRecord is one marker on the wire.
//
//	{"id":"t1","name":"irlDate","state":"tracking","position":[x,y,z],"rotation":[x,y,z,w],"size":[w,h]}
type markerRecord struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	State    string    `json:"state"`
	Position []float64 `json:"position"`
	Rotation []float64 `json:"rotation"`
	Size     []float64 `json:"size"`
}

type batchRecord struct {
	Added   []markerRecord `json:"added"`
	Updated []markerRecord `json:"updated"`
	Removed []markerRecord `json:"removed"`
}

// ParsedBatch is a decoded tracking batch. Added and Updated hold marker
// snapshots; Removed holds trackable ids.
type ParsedBatch struct {
	Added   []core.TrackedMarker
	Updated []core.TrackedMarker
	Removed []string
}

// Len returns the number of entries in the batch.
func (b ParsedBatch) Len() int {
	return len(b.Added) + len(b.Updated) + len(b.Removed)
}

// ParseTrackingBatch parses the JSON batch carried by a :TRACKING:CHANGED: call.
func (p *Parser) ParseTrackingBatch(args []string) (ParsedBatch, error) {
	var out ParsedBatch
	if len(args) < 1 {
		return out, fmt.Errorf("%w: %w", ErrInvalidBatch, ErrMissingArgs)
	}

	var rec batchRecord
	if err := decodeArg(args[0], &rec); err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidBatch, err)
	}

	var err error
	if out.Added, err = toMarkers("added", rec.Added); err != nil {
		return ParsedBatch{}, err
	}
	if out.Updated, err = toMarkers("updated", rec.Updated); err != nil {
		return ParsedBatch{}, err
	}
	for i, r := range rec.Removed {
		if r.ID == "" {
			return ParsedBatch{}, fmt.Errorf("%w: removed[%d]: missing id", ErrInvalidBatch, i)
		}
		out.Removed = append(out.Removed, r.ID)
	}

	p.logger.Debug("parsed tracking batch",
		"added", len(out.Added), "updated", len(out.Updated), "removed", len(out.Removed))
	return out, nil
}

func toMarkers(set string, recs []markerRecord) ([]core.TrackedMarker, error) {
	out := make([]core.TrackedMarker, 0, len(recs))
	for i, r := range recs {
		m, err := toMarker(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %w", ErrInvalidBatch, set, i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func toMarker(r markerRecord) (core.TrackedMarker, error) {
	if r.ID == "" {
		return core.TrackedMarker{}, fmt.Errorf("missing id")
	}
	state, err := core.ParseTrackingState(r.State)
	if err != nil {
		return core.TrackedMarker{}, err
	}

	m := core.TrackedMarker{
		ID:            r.ID,
		ReferenceName: r.Name,
		State:         state,
		Pose:          core.Pose{Rotation: core.IdentityRotation},
	}

	switch len(r.Position) {
	case 0:
	case 3:
		m.Pose.Position = r3.Vec{X: r.Position[0], Y: r.Position[1], Z: r.Position[2]}
	default:
		return core.TrackedMarker{}, fmt.Errorf("position needs 3 components, got %d", len(r.Position))
	}

	switch len(r.Rotation) {
	case 0:
	case 4:
		// wire order is x, y, z, w
		m.Pose.Rotation = core.Normalize(r3.Rotation{
			Imag: r.Rotation[0],
			Jmag: r.Rotation[1],
			Kmag: r.Rotation[2],
			Real: r.Rotation[3],
		})
	default:
		return core.TrackedMarker{}, fmt.Errorf("rotation needs 4 components, got %d", len(r.Rotation))
	}

	switch len(r.Size) {
	case 0:
	case 2:
		m.Size = core.Size{X: r.Size[0], Y: r.Size[1]}
	default:
		return core.TrackedMarker{}, fmt.Errorf("size needs 2 components, got %d", len(r.Size))
	}

	return m, nil
}
