package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intel_service/internal/domain/model"
)

func newTestService(t *testing.T) *PredictionService {
	t.Helper()
	return NewPredictionService(defaultCatalog(t), DefaultRegistry(), nil)
}

// spyRegistry counts evaluations of a plain base*factor model.
func spyRegistry(t *testing.T, calls *int) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.RegisterModel("spy", func(b, h float64) float64 {
		*calls++
		return b * h
	}, 90))
	require.NoError(t, r.RegisterModel("other", func(b, h float64) float64 { return b }, 80))
	r.Seal()
	return r
}

func TestPredict(t *testing.T) {
	s := newTestService(t)

	t.Run("should predict Delhi at 03:00 as critical", func(t *testing.T) {
		p, err := s.Predict("Delhi", 3, "gradientBoosting")
		require.NoError(t, err)
		assert.InDelta(t, 705.666, p.PredictedRate, 1e-9)
		assert.Equal(t, model.RiskCritical, p.RiskLevel)
		assert.Equal(t, 99.98, p.Confidence)
		assert.Equal(t, 1.3, p.HourFactor)
		assert.Equal(t, model.GradientBoosting, p.Model)
	})

	t.Run("should return the same value for repeated calls", func(t *testing.T) {
		p1, err := s.Predict("Coimbatore", 7, "randomForest")
		require.NoError(t, err)
		p2, err := s.Predict("Coimbatore", 7, "randomForest")
		require.NoError(t, err)
		assert.Same(t, p1, p2)
	})

	t.Run("should classify low rate cities low", func(t *testing.T) {
		p, err := s.Predict("Coimbatore", 7, "gradientBoosting")
		require.NoError(t, err)
		assert.InDelta(t, 98.46*0.55, p.PredictedRate, 1e-9)
		assert.Equal(t, model.RiskLow, p.RiskLevel)
	})

	t.Run("should reject bad inputs with typed errors", func(t *testing.T) {
		var unknownCity *model.UnknownCityError
		_, err := s.Predict("Atlantis", 3, "gradientBoosting")
		assert.True(t, errors.As(err, &unknownCity))

		var invalidHour *model.InvalidHourError
		_, err = s.Predict("Delhi", 24, "gradientBoosting")
		assert.True(t, errors.As(err, &invalidHour))

		var unknownModel *model.UnknownModelError
		_, err = s.Predict("Delhi", 3, "neuralNet")
		assert.True(t, errors.As(err, &unknownModel))
		assert.True(t, model.IsValidation(err))
	})
}

func TestPredictErrorsAreNotCached(t *testing.T) {
	s := newTestService(t)
	_, err := s.Predict("Atlantis", 3, "gradientBoosting")
	require.Error(t, err)
	assert.Zero(t, s.CacheSize())
}

func TestPredictClampsNegativeRates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterModel("negative", func(b, h float64) float64 { return -b }, 50))
	s := NewPredictionService(defaultCatalog(t), r, nil)

	p, err := s.Predict("Delhi", 3, "negative")
	require.NoError(t, err)
	assert.Zero(t, p.PredictedRate)
	assert.Equal(t, model.RiskVeryLow, p.RiskLevel)
}

func TestCacheCoherence(t *testing.T) {
	calls := 0
	s := NewPredictionService(defaultCatalog(t), spyRegistry(t, &calls), nil)

	p1, err := s.Predict("Delhi", 3, "spy")
	require.NoError(t, err)
	_, err = s.Predict("Delhi", 3, "spy")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	assert.True(t, s.ClearCacheEntry(OpPredict, "Delhi", 3, "spy"))
	assert.False(t, s.ClearCacheEntry(OpPredict, "Delhi", 3, "spy"))

	p2, err := s.Predict("Delhi", 3, "spy")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NotSame(t, p1, p2)
	assert.Equal(t, *p1, *p2)

	s.ClearCache()
	assert.Zero(t, s.CacheSize())
	_, err = s.Predict("Delhi", 3, "spy")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestCompareModels(t *testing.T) {
	s := newTestService(t)
	preds, err := s.CompareModels("Mumbai", 22)
	require.NoError(t, err)
	require.Len(t, preds, 4)

	for i, m := range s.Registry().ListModels() {
		assert.Equal(t, m.ID, preds[i].Model)
		again, err := s.Predict("Mumbai", 22, string(m.ID))
		require.NoError(t, err)
		assert.Same(t, again, preds[i])
	}
}

func TestBatchPredict(t *testing.T) {
	s := newTestService(t)
	require.NoError(t, s.SelectModel("randomForest"))

	cities := []string{"Delhi", "Mumbai"}
	hours := []int{0, 3}
	preds, err := s.BatchPredict(cities, hours)
	require.NoError(t, err)
	require.Len(t, preds, 4)

	var got []string
	for _, p := range preds {
		assert.Equal(t, model.RandomForest, p.Model)
		got = append(got, p.City)
	}
	assert.Equal(t, []string{"Delhi", "Delhi", "Mumbai", "Mumbai"}, got)
	assert.Equal(t, 3, preds[1].Hour)

	t.Run("should memoize the batch", func(t *testing.T) {
		again, err := s.BatchPredict(cities, hours)
		require.NoError(t, err)
		for i := range preds {
			assert.Same(t, preds[i], again[i])
		}
		assert.True(t, s.ClearCacheEntry(OpBatchPredict, "randomForest", []any{"Delhi", "Mumbai"}, []any{0, 3}))
	})

	t.Run("should follow the selected model", func(t *testing.T) {
		_, err := s.BatchPredict(cities, hours)
		require.NoError(t, err)
		require.NoError(t, s.SelectModel("lassoRegression"))
		preds, err := s.BatchPredict(cities, hours)
		require.NoError(t, err)
		assert.Equal(t, model.LassoRegression, preds[0].Model)
	})

	t.Run("should key the batch by model even if stale entries survive", func(t *testing.T) {
		require.NoError(t, s.SelectModel("randomForest"))
		_, err := s.BatchPredict(cities, hours)
		require.NoError(t, err)

		// switch without the invalidation SelectModel performs
		s.mu.Lock()
		s.selected = model.DecisionTree
		s.mu.Unlock()

		preds, err := s.BatchPredict(cities, hours)
		require.NoError(t, err)
		for _, p := range preds {
			assert.Equal(t, model.DecisionTree, p.Model)
		}
	})

	t.Run("should fail the whole batch on a bad city", func(t *testing.T) {
		_, err := s.BatchPredict([]string{"Delhi", "Atlantis"}, hours)
		assert.Error(t, err)
	})
}

func TestSelectModel(t *testing.T) {
	s := newTestService(t)
	assert.Equal(t, model.GradientBoosting, s.SelectedModel())

	err := s.SelectModel("quantum")
	var unknown *model.UnknownModelError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, model.GradientBoosting, s.SelectedModel())
}

func TestCityRankings(t *testing.T) {
	t.Run("should order the default catalog by rate", func(t *testing.T) {
		s := newTestService(t)
		ranks, err := s.CityRankings(3, "gradientBoosting")
		require.NoError(t, err)
		require.Len(t, ranks, 29)
		assert.Equal(t, "Delhi", ranks[0].City)
		for i := 1; i < len(ranks); i++ {
			assert.GreaterOrEqual(t, ranks[i-1].PredictedRate, ranks[i].PredictedRate)
		}
	})

	t.Run("should break ties by city name", func(t *testing.T) {
		c, err := NewCatalog([]model.CityRecord{
			{Name: "Charlie", BaseRate: 200},
			{Name: "Alpha", BaseRate: 100},
			{Name: "Bravo", BaseRate: 200},
			{Name: "Delta", BaseRate: 50},
		})
		require.NoError(t, err)
		s := NewPredictionService(c, DefaultRegistry(), nil)

		ranks, err := s.CityRankings(7, "gradientBoosting")
		require.NoError(t, err)
		var names []string
		for _, p := range ranks {
			names = append(names, p.City)
		}
		assert.Equal(t, []string{"Bravo", "Charlie", "Alpha", "Delta"}, names)
	})

	t.Run("should not cache failures", func(t *testing.T) {
		s := newTestService(t)
		_, err := s.CityRankings(25, "gradientBoosting")
		assert.Error(t, err)
		assert.Zero(t, s.CacheSize())
	})
}

func TestHourlyPatterns(t *testing.T) {
	s := newTestService(t)
	patterns, err := s.HourlyPatterns("Pune", "decisionTree")
	require.NoError(t, err)
	require.Len(t, patterns, 24)
	for hour, p := range patterns {
		assert.Equal(t, hour, p.Hour)
		same, err := s.Predict("Pune", hour, "decisionTree")
		require.NoError(t, err)
		assert.Same(t, same, p)
	}
}
