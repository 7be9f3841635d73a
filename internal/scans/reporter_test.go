package scans

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GormazAR/overlay/pkg/core"
)

func marker(name string, state core.TrackingState) *core.TrackedMarker {
	return &core.TrackedMarker{ID: name + "-id", ReferenceName: name, State: state}
}

func TestObserve_OncePerSession(t *testing.T) {
	var sent []string
	r := NewReporter(func(name string) error {
		sent = append(sent, name)
		return nil
	}, nil)

	r.Observe(core.Batch{Added: []*core.TrackedMarker{marker("irlDate", core.Tracking)}})
	r.Observe(core.Batch{Updated: []*core.TrackedMarker{marker("irlDate", core.Tracking)}})
	fresh := r.Observe(core.Batch{Updated: []*core.TrackedMarker{
		marker("irlDate", core.Tracking),
		marker("irlMonk", core.Tracking),
	}})

	assert.Equal(t, []string{"irlMonk"}, fresh)
	assert.Equal(t, []string{"irlDate", "irlMonk"}, sent)
	assert.Equal(t, []string{"irlDate", "irlMonk"}, r.Reported())
}

func TestObserve_IgnoresNotTrackingAndRemoved(t *testing.T) {
	var sent []string
	r := NewReporter(func(name string) error {
		sent = append(sent, name)
		return nil
	}, nil)

	r.Observe(core.Batch{
		Added:   []*core.TrackedMarker{marker("irlDate", core.TrackingLimited)},
		Updated: []*core.TrackedMarker{marker("irlMonk", core.TrackingNone)},
		Removed: []*core.TrackedMarker{marker("irlSoldier", core.Tracking)},
	})

	assert.Empty(t, sent)
	assert.Empty(t, r.Reported())
}

func TestObserve_UnpooledNamesCount(t *testing.T) {
	r := NewReporter(func(string) error { return nil }, nil)

	fresh := r.Observe(core.Batch{Added: []*core.TrackedMarker{marker("poster", core.Tracking)}})
	assert.Equal(t, []string{"poster"}, fresh)
}

func TestObserve_EnqueueErrorStillCountsAsReported(t *testing.T) {
	var failed []string
	r := NewReporter(func(string) error { return errors.New("queue full") }, func(name string, err error) {
		failed = append(failed, name)
	})

	r.Observe(core.Batch{Added: []*core.TrackedMarker{marker("irlDate", core.Tracking)}})
	r.Observe(core.Batch{Added: []*core.TrackedMarker{marker("irlDate", core.Tracking)}})

	assert.Equal(t, []string{"irlDate"}, failed)
}

func TestReset(t *testing.T) {
	count := 0
	r := NewReporter(func(string) error {
		count++
		return nil
	}, nil)

	b := core.Batch{Added: []*core.TrackedMarker{marker("irlDate", core.Tracking)}}
	r.Observe(b)
	r.Reset()
	r.Observe(b)

	assert.Equal(t, 2, count)
}
