package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intel_service/internal/domain/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		rate float64
		want model.RiskLevel
	}{
		{0, model.RiskVeryLow},
		{49.999, model.RiskVeryLow},
		{50, model.RiskLow},
		{99.99, model.RiskLow},
		{100, model.RiskMedium},
		{199.999, model.RiskMedium},
		{200, model.RiskHigh},
		{299.99, model.RiskHigh},
		{299.999, model.RiskHigh},
		{300, model.RiskCritical},
		{705.666, model.RiskCritical},
		{math.MaxFloat64, model.RiskCritical},
	}
	for _, tt := range tests {
		got, err := Classify(tt.rate)
		require.NoError(t, err, "rate %v", tt.rate)
		assert.Equal(t, tt.want, got, "rate %v", tt.rate)
	}
}

func TestClassifyRejectsInvalidRates(t *testing.T) {
	for _, rate := range []float64{-1, -0.0001, math.NaN(), math.Inf(-1)} {
		_, err := Classify(rate)
		var invalid *model.InvalidRateError
		assert.True(t, errors.As(err, &invalid), "rate %v", rate)
	}
}

func TestRiskLevelOrderAndNames(t *testing.T) {
	assert.True(t, model.RiskVeryLow < model.RiskLow)
	assert.True(t, model.RiskHigh < model.RiskCritical)
	assert.Equal(t, "CRITICAL", model.RiskCritical.String())
	assert.False(t, model.RiskMedium.Alertable())
	assert.True(t, model.RiskHigh.Alertable())

	lvl, err := model.ParseRiskLevel("VERY_LOW")
	require.NoError(t, err)
	assert.Equal(t, model.RiskVeryLow, lvl)
}
