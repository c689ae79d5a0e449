package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intel_service/internal/domain/model"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	t.Run("should list models in registration order", func(t *testing.T) {
		var ids []model.ModelID
		for _, m := range r.ListModels() {
			ids = append(ids, m.ID)
		}
		assert.Equal(t, []model.ModelID{
			model.GradientBoosting, model.RandomForest, model.LassoRegression, model.DecisionTree,
		}, ids)
	})

	t.Run("should resolve by exact name", func(t *testing.T) {
		m, err := r.GetModel("gradientBoosting")
		require.NoError(t, err)
		assert.Equal(t, 99.98, m.AccuracyPct)
		assert.InDelta(t, 705.666, m.Fn(542.82, 1.3), 1e-9)
	})

	t.Run("should reject unknown names", func(t *testing.T) {
		_, err := r.GetModel("GradientBoosting")
		var unknown *model.UnknownModelError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "GradientBoosting", unknown.Model)
	})

	t.Run("should refuse registration once sealed", func(t *testing.T) {
		err := r.RegisterModel("late", func(b, h float64) float64 { return b }, 50)
		assert.ErrorIs(t, err, errRegistrySealed)
	})
}

func TestRegisterModelValidation(t *testing.T) {
	identity := func(b, h float64) float64 { return b * h }
	tests := []struct {
		name string
		id   model.ModelID
		fn   model.RateFunc
		acc  float64
	}{
		{"empty id", "", identity, 90},
		{"nil function", "m", nil, 90},
		{"accuracy below zero", "m", identity, -0.1},
		{"accuracy above hundred", "m", identity, 100.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewRegistry().RegisterModel(tt.id, tt.fn, tt.acc))
		})
	}

	t.Run("duplicate id", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.RegisterModel("m", identity, 90))
		assert.Error(t, r.RegisterModel("m", identity, 80))
		assert.Len(t, r.ListModels(), 1)
	})
}
