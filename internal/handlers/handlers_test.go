package handlers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

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

type fakeStats struct {
	mu         sync.Mutex
	registered []string
	scans      []string
	sessions   []time.Duration
	err        error
}

func (f *fakeStats) RegisterUser(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, userID)
	return true, f.err
}

func (f *fakeStats) IncrementScan(_ context.Context, docID, _ string) (model.ScanResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.ScanResult{}, f.err
	}
	f.scans = append(f.scans, docID)
	return model.ScanResult{Name: docID, Scans: int64(len(f.scans))}, nil
}

func (f *fakeStats) EndSession(_ context.Context, _ string, d time.Duration) (model.SessionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.SessionResult{}, f.err
	}
	f.sessions = append(f.sessions, d)
	return model.SessionResult{SessionDuration: d.Seconds(), AverageSessionTime: d.Seconds()}, nil
}

type fixture struct {
	svc      *Service
	scene    *host.Scene
	manager  *overlay.Manager
	stats    *fakeStats
	enqueued []string
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		scene: host.NewScene(core.Camera{Rotation: core.IdentityRotation, FieldOfView: 60, Aspect: 1}),
		stats: &fakeStats{},
		now:   time.Unix(1000, 0),
	}
	registry, err := pool.New([]pool.Definition{
		{ID: "date", Prototype: "overlayDate", Markers: []string{"irlDate"}},
		{ID: "monk", Prototype: "overlayMonk", Markers: []string{"irlMonk"}},
	})
	require.NoError(t, err)

	feed := host.NewFeed()
	f.manager, err = overlay.New(overlay.Config{}, overlay.Dependencies{
		Registry: registry,
		Renderer: f.scene,
		Camera:   f.scene,
	})
	require.NoError(t, err)
	f.manager.Attach(feed)

	f.svc, err = NewService(Dependencies{
		Parser:     parser.NewParser(slog.Default()),
		Trackables: cache.NewTrackableCache(),
		Feed:       feed,
		Overlays:   f.manager,
		Registry:   registry,
		Session:    session.NewContextWithClock("device-1", func() time.Time { return f.now }),
		Reporter: scans.NewReporter(func(name string) error {
			f.enqueued = append(f.enqueued, name)
			return nil
		}, nil),
		Stats: f.stats,
	})
	require.NoError(t, err)
	return f
}

const (
	addDate    = `{"added":[{"id":"t1","name":"irlDate","state":"tracking","position":[1,0,0],"size":[1,0.5]}]}`
	moveDate   = `{"updated":[{"id":"t1","name":"irlDate","state":"tracking","position":[2,0,0],"size":[1,0.5]}]}`
	removeDate = `{"removed":[{"id":"t1"}]}`
)

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := NewService(Dependencies{})
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestHandleTrackingChanged_CreatesAndMovesOverlay(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.HandleTrackingChanged([]string{addDate})
	require.NoError(t, err)
	assert.Equal(t, TrackingResult{Added: 1, Reported: []string{"irlDate"}}, res)
	require.Len(t, f.scene.Objects(), 1)

	first, ok := f.manager.Overlay("date")
	require.True(t, ok)

	res, err = f.svc.HandleTrackingChanged([]string{moveDate})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Empty(t, res.Reported)

	second, ok := f.manager.Overlay("date")
	require.True(t, ok)
	assert.Same(t, first.Marker, second.Marker, "updates reuse the same handle")
	assert.Equal(t, r3.Vec{X: 2}, second.Transform.Position)
	assert.Equal(t, []string{"irlDate"}, f.enqueued)
}

func TestHandleTrackingChanged_RemovalEvictsTrackable(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.HandleTrackingChanged([]string{addDate})
	require.NoError(t, err)

	res, err := f.svc.HandleTrackingChanged([]string{removeDate})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.Empty(t, f.scene.Objects())
	assert.Zero(t, f.svc.Status().Trackables)

	res, err = f.svc.HandleTrackingChanged([]string{removeDate})
	require.NoError(t, err)
	assert.Zero(t, res.Removed, "unknown removals are skipped")
}

func TestHandleTrackingChanged_ReusedIDMovesPools(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.HandleTrackingChanged([]string{addDate})
	require.NoError(t, err)
	require.Equal(t, 1, f.scene.CountByPrototype("overlayDate"))

	renamed := `{"updated":[{"id":"t1","name":"irlMonk","state":"tracking","position":[1,0,0],"size":[1,0.5]}]}`
	res, err := f.svc.HandleTrackingChanged([]string{renamed})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Removed, "the retired handle counts as removed")

	assert.Zero(t, f.scene.CountByPrototype("overlayDate"))
	assert.Equal(t, 1, f.scene.CountByPrototype("overlayMonk"))
	assert.Equal(t, 1, f.svc.Status().Trackables)

	_, err = f.svc.HandleTrackingChanged([]string{removeDate})
	require.NoError(t, err)
	assert.Empty(t, f.scene.Objects())

	// a later unrelated batch must not bring the date overlay back
	_, err = f.svc.HandleTrackingChanged([]string{`{"added":[{"id":"t9","name":"unknown","state":"tracking"}]}`})
	require.NoError(t, err)
	assert.Empty(t, f.scene.Objects())
}

func TestHandleTrackingChanged_HostQuotedJSON(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.HandleTrackingChanged([]string{`"{""added"":[{""id"":""t1"",""name"":""irlMonk"",""state"":""tracking""}]}"`})
	require.NoError(t, err)
	assert.Equal(t, 1, f.scene.CountByPrototype("overlayMonk"))
}

func TestHandleTrackingChanged_InvalidBatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.HandleTrackingChanged([]string{`{not json`})
	assert.ErrorIs(t, err, parser.ErrInvalidBatch)
	assert.Empty(t, f.scene.Objects())
}

func TestTogglePin(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.svc.PinAvailable())

	_, err := f.svc.HandleTrackingChanged([]string{addDate})
	require.NoError(t, err)
	assert.True(t, f.svc.PinAvailable())

	state, err := f.svc.TogglePin()
	require.NoError(t, err)
	assert.Equal(t, "pinned", state)
	assert.Equal(t, overlay.Pinned, f.manager.PinState())
	assert.Equal(t, pool.ID("date"), f.svc.Status().PinnedPool)

	state, err = f.svc.TogglePin()
	require.NoError(t, err)
	assert.Equal(t, "unpinned", state)
	assert.False(t, f.svc.PinAvailable())
	assert.Empty(t, f.scene.Objects())
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.HandleTrackingChanged([]string{addDate})
	require.NoError(t, err)
	f.now = f.now.Add(90 * time.Second)

	st := f.svc.Status()
	assert.True(t, st.Attached)
	assert.Equal(t, "unpinned", st.Pin)
	assert.True(t, st.PinAvailable)
	assert.Equal(t, "device-1", st.UserID)
	assert.Equal(t, 90.0, st.SessionUptime)
	assert.Equal(t, 1, st.Trackables)
	assert.Equal(t, []string{"irlDate"}, st.Reported)
	assert.Equal(t, []PoolStatus{
		{Pool: "date", Candidate: "t1", Overlay: true},
		{Pool: "monk"},
	}, st.Pools)
}

func TestRegisterAndIncrement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RegisterUser(ctx))
	assert.Equal(t, []string{"device-1"}, f.stats.registered)

	res, err := f.svc.IncrementScan(ctx, "irlDate")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Scans)

	f.stats.err = errors.New("offline")
	_, err = f.svc.IncrementScan(ctx, "irlDate")
	assert.Error(t, err)
}

func TestEndSession_UsesClockAndResetsReporter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.HandleTrackingChanged([]string{addDate})
	require.NoError(t, err)
	f.now = f.now.Add(2 * time.Minute)

	res, err := f.svc.EndSession(ctx, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 120.0, res.SessionDuration)
	assert.Equal(t, []time.Duration{2 * time.Minute}, f.stats.sessions)

	_, err = f.svc.HandleTrackingChanged([]string{moveDate})
	require.NoError(t, err)
	assert.Equal(t, []string{"irlDate", "irlDate"}, f.enqueued, "new session reports again")
}

func TestEndSession_ExplicitDuration(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.EndSession(context.Background(), 45*time.Second, true)
	require.NoError(t, err)
	assert.Equal(t, 45.0, res.SessionDuration)
}

func TestEndSession_FailureStillRestarts(t *testing.T) {
	f := newFixture(t)
	f.stats.err = errors.New("offline")
	f.now = f.now.Add(time.Minute)

	res, err := f.svc.EndSession(context.Background(), 0, false)
	assert.Error(t, err)
	assert.Equal(t, 60.0, res.SessionDuration)
	assert.Zero(t, f.svc.Status().SessionUptime)
}

func TestWithoutStatsBackend(t *testing.T) {
	f := newFixture(t)
	f.svc.deps.Stats = nil
	ctx := context.Background()

	assert.NoError(t, f.svc.RegisterUser(ctx))
	_, err := f.svc.IncrementScan(ctx, "irlDate")
	assert.NoError(t, err)
	res, err := f.svc.EndSession(ctx, 10*time.Second, true)
	assert.NoError(t, err)
	assert.Equal(t, 10.0, res.SessionDuration)
}
