package memory

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GormazAR/overlay/internal/model"
)

func TestNew(t *testing.T) {
	b := New(model.DefaultCatalog())

	require.NotNil(t, b)
	assert.Len(t, b.graffiti, 3)
	assert.Empty(t, b.users)
	assert.Equal(t, model.GlobalStatsID, b.stats.ID)
	assert.NoError(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestNew_CopiesCatalog(t *testing.T) {
	catalog := model.DefaultCatalog()
	b := New(catalog)
	catalog[0].Name = "changed"

	assert.NotEqual(t, "changed", b.graffiti[catalog[0].DocID].Name)
}

func TestIncrementScan_ResultDoesNotAlias(t *testing.T) {
	ctx := context.Background()
	b := New(model.DefaultCatalog())
	_, err := b.RegisterUser(ctx, "u1")
	require.NoError(t, err)

	res, err := b.IncrementScan(ctx, "irlDate", "u1")
	require.NoError(t, err)
	res.UserScanned[0] = "mutated"

	assert.Equal(t, []string{"irlDate"}, []string(b.users["u1"].Scanned))
}

func TestEndSession_RejectsNonFinite(t *testing.T) {
	b := New(nil)
	for _, v := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := b.EndSession(context.Background(), "u1", v)
		assert.ErrorIs(t, err, model.ErrInvalidDuration)
	}
	assert.Zero(t, b.stats.SessionsCount)
}

func TestConcurrentScans(t *testing.T) {
	ctx := context.Background()
	b := New(model.DefaultCatalog())
	_, err := b.RegisterUser(ctx, "u1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.IncrementScan(ctx, "irlMonk", "u1")
		}()
	}
	wg.Wait()

	stats, err := b.Stats(ctx)
	require.NoError(t, err)
	for _, g := range stats.Graffiti {
		if g.DocID == "irlMonk" {
			assert.Equal(t, int64(50), g.Scans)
		}
	}
}
