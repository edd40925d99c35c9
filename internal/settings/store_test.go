package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records how many times each key was fetched.
type countingStore struct {
	values map[string]string
	calls  map[string]int
	err    error
}

func newCountingStore(values map[string]string) *countingStore {
	return &countingStore{values: values, calls: make(map[string]int)}
}

func (s *countingStore) Get(_ context.Context, key string) (string, bool, error) {
	s.calls[key]++
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func TestStaticGet(t *testing.T) {
	s := Static{"booking.max_pending": "3"}

	v, ok, err := s.Get(context.Background(), "booking.max_pending")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	_, ok, err = s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachedReadsInnerOnce(t *testing.T) {
	inner := newCountingStore(map[string]string{"booking.max_daily": "2"})
	cached := NewCached(inner)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, ok, err := cached.Get(ctx, "booking.max_daily")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "2", v)
	}
	assert.Equal(t, 1, inner.calls["booking.max_daily"])
}

func TestCachedDoesNotCacheMisses(t *testing.T) {
	inner := newCountingStore(nil)
	cached := NewCached(inner)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, ok, err := cached.Get(ctx, "unset")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 2, inner.calls["unset"])
}

func TestCachedInvalidate(t *testing.T) {
	inner := newCountingStore(map[string]string{"booking.cutoff_hour": "12"})
	cached := NewCached(inner)
	ctx := context.Background()

	v, _, err := cached.Get(ctx, "booking.cutoff_hour")
	require.NoError(t, err)
	assert.Equal(t, "12", v)

	inner.values["booking.cutoff_hour"] = "14"
	v, _, err = cached.Get(ctx, "booking.cutoff_hour")
	require.NoError(t, err)
	assert.Equal(t, "12", v, "stale until invalidated")

	cached.Invalidate()
	v, _, err = cached.Get(ctx, "booking.cutoff_hour")
	require.NoError(t, err)
	assert.Equal(t, "14", v)
	assert.Equal(t, 2, inner.calls["booking.cutoff_hour"])
}

func TestCachedPropagatesErrors(t *testing.T) {
	inner := newCountingStore(nil)
	inner.err = errors.New("db down")
	cached := NewCached(inner)

	_, _, err := cached.Get(context.Background(), "any")
	assert.Error(t, err)
}

func TestTypedGetters(t *testing.T) {
	ctx := context.Background()
	s := Static{
		"int":       "7",
		"float":     "0.5",
		"bool":      "true",
		"malformed": "not-a-number",
	}

	assert.Equal(t, 7, GetInt(ctx, s, "int", 1))
	assert.Equal(t, 1, GetInt(ctx, s, "missing", 1))
	assert.Equal(t, 1, GetInt(ctx, s, "malformed", 1))

	assert.Equal(t, 0.5, GetFloat(ctx, s, "float", 1.0))
	assert.Equal(t, 1.0, GetFloat(ctx, s, "missing", 1.0))
	assert.Equal(t, 1.0, GetFloat(ctx, s, "malformed", 1.0))

	assert.True(t, GetBool(ctx, s, "bool", false))
	assert.False(t, GetBool(ctx, s, "missing", false))
	assert.False(t, GetBool(ctx, s, "malformed", false))
}

func TestTypedGettersFallBackOnStoreError(t *testing.T) {
	inner := newCountingStore(nil)
	inner.err = errors.New("db down")
	ctx := context.Background()

	assert.Equal(t, 4, GetInt(ctx, inner, "k", 4))
	assert.Equal(t, 2.5, GetFloat(ctx, inner, "k", 2.5))
	assert.True(t, GetBool(ctx, inner, "k", true))
}
