package host

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GormazAR/overlay/pkg/core"
)

func TestFeed_PublishInNameOrder(t *testing.T) {
	f := NewFeed()
	var order []string
	f.Subscribe("b", func(core.Batch) error { order = append(order, "b"); return nil })
	f.Subscribe("a", func(core.Batch) error { order = append(order, "a"); return nil })

	assert.NoError(t, f.Publish(core.Batch{}))
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestFeed_ReplaceAndUnsubscribe(t *testing.T) {
	f := NewFeed()
	calls := 0
	f.Subscribe("overlay", func(core.Batch) error { calls += 100; return nil })
	f.Subscribe("overlay", func(core.Batch) error { calls++; return nil })
	assert.Equal(t, 1, f.Subscribers())

	assert.NoError(t, f.Publish(core.Batch{}))
	assert.Equal(t, 1, calls)

	f.Unsubscribe("overlay")
	assert.Zero(t, f.Subscribers())
	assert.NoError(t, f.Publish(core.Batch{}))
	assert.Equal(t, 1, calls)
}

func TestFeed_JoinsErrors(t *testing.T) {
	f := NewFeed()
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	reached := false
	f.Subscribe("a", func(core.Batch) error { return errA })
	f.Subscribe("b", func(core.Batch) error { return errB })
	f.Subscribe("c", func(core.Batch) error { reached = true; return nil })

	err := f.Publish(core.Batch{})
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.True(t, reached)
}

func TestFeed_SubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	f := NewFeed()
	f.Subscribe("once", func(core.Batch) error {
		f.Unsubscribe("once")
		return nil
	})

	assert.NoError(t, f.Publish(core.Batch{}))
	assert.Zero(t, f.Subscribers())
}
