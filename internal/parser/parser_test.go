package parser

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/GormazAR/overlay/pkg/core"
)

func newTestParser() *Parser {
	return NewParser(slog.Default())
}

func TestParseTrackingBatch(t *testing.T) {
	p := newTestParser()

	b, err := p.ParseTrackingBatch([]string{`{
		"added": [{"id":"t1","name":"irlDate","state":"tracking","position":[1,2,3],"rotation":[0,0,0,1],"size":[0.6,0.4]}],
		"updated": [{"id":"t2","name":"irlMonk","state":"limited"}],
		"removed": [{"id":"t3"}]
	}`})
	require.NoError(t, err)

	require.Len(t, b.Added, 1)
	a := b.Added[0]
	assert.Equal(t, "t1", a.ID)
	assert.Equal(t, "irlDate", a.ReferenceName)
	assert.Equal(t, core.Tracking, a.State)
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, a.Pose.Position)
	assert.Equal(t, core.IdentityRotation, a.Pose.Rotation)
	assert.Equal(t, core.Size{X: 0.6, Y: 0.4}, a.Size)

	require.Len(t, b.Updated, 1)
	assert.Equal(t, core.TrackingLimited, b.Updated[0].State)
	assert.Equal(t, core.IdentityRotation, b.Updated[0].Pose.Rotation, "missing rotation is identity")

	assert.Equal(t, []string{"t3"}, b.Removed)
	assert.Equal(t, 3, b.Len())
}

func TestParseTrackingBatch_RotationOrderAndNormalization(t *testing.T) {
	p := newTestParser()

	b, err := p.ParseTrackingBatch([]string{`{"added":[{"id":"t1","name":"n","state":"tracking","rotation":[0,2,0,0]}]}`})
	require.NoError(t, err)

	rot := b.Added[0].Pose.Rotation
	assert.InDelta(t, 1, rot.Jmag, 1e-12)
	assert.InDelta(t, 0, rot.Real, 1e-12)
}

func TestParseTrackingBatch_DoubledQuotes(t *testing.T) {
	p := newTestParser()

	b, err := p.ParseTrackingBatch([]string{`"{""added"":[{""id"":""t1"",""name"":""irlSoldier"",""state"":""tracking""}]}"`})
	require.NoError(t, err)
	require.Len(t, b.Added, 1)
	assert.Equal(t, "irlSoldier", b.Added[0].ReferenceName)
}

func TestParseTrackingBatch_EmptyStringsSurvive(t *testing.T) {
	p := newTestParser()

	b, err := p.ParseTrackingBatch([]string{`{"updated":[{"id":"t1","name":"","state":""}]}`})
	require.NoError(t, err)
	require.Len(t, b.Updated, 1)
	assert.Equal(t, "", b.Updated[0].ReferenceName)
	assert.Equal(t, core.TrackingNone, b.Updated[0].State)
}

func TestParseTrackingBatch_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"not json", []string{`{added`}},
		{"missing id", []string{`{"added":[{"name":"irlDate","state":"tracking"}]}`}},
		{"bad state", []string{`{"added":[{"id":"t1","state":"lost"}]}`}},
		{"short position", []string{`{"added":[{"id":"t1","position":[1,2]}]}`}},
		{"short rotation", []string{`{"updated":[{"id":"t1","rotation":[0,0,1]}]}`}},
		{"long size", []string{`{"updated":[{"id":"t1","size":[1,2,3]}]}`}},
		{"removed without id", []string{`{"removed":[{}]}`}},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseTrackingBatch(tt.args)
			assert.ErrorIs(t, err, ErrInvalidBatch)
		})
	}
}

func TestParseDocID(t *testing.T) {
	p := newTestParser()

	id, err := p.ParseDocID([]string{`"irlDate"`})
	require.NoError(t, err)
	assert.Equal(t, "irlDate", id)

	_, err = p.ParseDocID(nil)
	assert.ErrorIs(t, err, ErrMissingArgs)

	_, err = p.ParseDocID([]string{`""`})
	assert.ErrorIs(t, err, ErrMissingArgs)
}

func TestParseSessionDuration(t *testing.T) {
	p := newTestParser()

	d, ok, err := p.ParseSessionDuration([]string{"90.5"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 90500*time.Millisecond, d)

	_, ok, err = p.ParseSessionDuration(nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = p.ParseSessionDuration([]string{"soon"})
	assert.Error(t, err)
}
