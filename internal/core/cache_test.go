package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intel_service/internal/domain/model"
)

type countingCacheObserver struct {
	hits, misses map[string]int
}

func (o *countingCacheObserver) CacheHit(op string)  { o.hits[op]++ }
func (o *countingCacheObserver) CacheMiss(op string) { o.misses[op]++ }

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "predict|Delhi|3|gradientBoosting", CacheKey(OpPredict, "Delhi", 3, "gradientBoosting"))
	assert.Equal(t,
		CacheKey(OpPredict, "Delhi", 3, "gradientBoosting"),
		CacheKey(OpPredict, "Delhi", float64(3), model.GradientBoosting))
	assert.Equal(t,
		CacheKey(OpBatchPredict, []string{"Delhi", "Pune"}, []int{1, 2}),
		CacheKey(OpBatchPredict, []any{"Delhi", "Pune"}, []any{int64(1), 2.0}))
	assert.NotEqual(t, CacheKey(OpPredict, 2.5), CacheKey(OpPredict, 2))
}

func TestCached(t *testing.T) {
	obs := &countingCacheObserver{hits: map[string]int{}, misses: map[string]int{}}
	c := NewCache(obs)
	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := cached(c, "op", []any{1}, compute)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	v, err = cached(c, "op", []any{1}, compute)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, obs.hits["op"])
	assert.Equal(t, 1, obs.misses["op"])

	_, err = cached(c, "op", []any{2}, func() (int, error) { return 0, errors.New("boom") })
	assert.Error(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestCacheDeleteOperation(t *testing.T) {
	c := NewCache(nil)
	c.set("a", CacheKey("a", 1), 1)
	c.set("a", CacheKey("a", 2), 2)
	c.set("b", CacheKey("b", 1), 3)

	assert.Equal(t, 2, c.DeleteOperation("a"))
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Delete("b", 1))
	assert.Zero(t, c.Len())
}
