package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gormazPools() []Definition {
	return []Definition{
		{ID: "irlDate", Prototype: "overlayDate", Markers: []string{"irlDate"}},
		{ID: "irlSoldier", Prototype: "overlaySoldier", Markers: []string{"irlSoldier", "irlSoldierAlt"}},
		{ID: "irlMonk", Prototype: "", Markers: []string{"irlMonk"}},
	}
}

func TestNew_ResolvesMarkers(t *testing.T) {
	r, err := New(gormazPools())
	require.NoError(t, err)

	id, ok := r.Resolve("irlDate")
	require.True(t, ok)
	assert.Equal(t, ID("irlDate"), id)

	id, ok = r.Resolve("irlSoldierAlt")
	require.True(t, ok, "many-to-one mapping")
	assert.Equal(t, ID("irlSoldier"), id)
}

func TestResolve_UnknownMarker(t *testing.T) {
	r, err := New(gormazPools())
	require.NoError(t, err)

	_, ok := r.Resolve("poster")
	assert.False(t, ok)
}

func TestPools_KeepsConfiguredOrder(t *testing.T) {
	r, err := New(gormazPools())
	require.NoError(t, err)

	assert.Equal(t, []ID{"irlDate", "irlSoldier", "irlMonk"}, r.Pools())

	// callers cannot reorder the registry
	pools := r.Pools()
	pools[0] = "x"
	assert.Equal(t, ID("irlDate"), r.Pools()[0])
}

func TestPrototype(t *testing.T) {
	r, err := New(gormazPools())
	require.NoError(t, err)

	p, ok := r.Prototype("irlSoldier")
	require.True(t, ok)
	assert.Equal(t, "overlaySoldier", p)

	_, ok = r.Prototype("irlMonk")
	assert.False(t, ok, "empty prototype is not registered")

	_, ok = r.Prototype("nope")
	assert.False(t, ok)
}

func TestMarkers(t *testing.T) {
	r, err := New(gormazPools())
	require.NoError(t, err)

	assert.Equal(t, []string{"irlSoldier", "irlSoldierAlt"}, r.Markers("irlSoldier"))
	assert.Empty(t, r.Markers("nope"))
}

func TestNew_RejectsMarkerInTwoPools(t *testing.T) {
	_, err := New([]Definition{
		{ID: "a", Markers: []string{"m"}},
		{ID: "b", Markers: []string{"m"}},
	})
	assert.ErrorIs(t, err, ErrDuplicateMarker)
}

func TestNew_RejectsDuplicatePool(t *testing.T) {
	_, err := New([]Definition{{ID: "a"}, {ID: "a"}})
	assert.ErrorIs(t, err, ErrDuplicatePool)
}

func TestNew_RejectsEmptyID(t *testing.T) {
	_, err := New([]Definition{{Markers: []string{"m"}}})
	assert.ErrorIs(t, err, ErrEmptyPoolID)
}

func TestLookup(t *testing.T) {
	r, err := New(gormazPools())
	require.NoError(t, err)

	d, err := r.Lookup("irlSoldier")
	require.NoError(t, err)
	assert.Equal(t, "overlaySoldier", d.Prototype)
	assert.Equal(t, []string{"irlSoldier", "irlSoldierAlt"}, d.Markers)

	_, err = r.Lookup("poster")
	assert.ErrorIs(t, err, ErrUnknownPool)
}
