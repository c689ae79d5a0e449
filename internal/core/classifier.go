package core

import (
	"math"

	"intel_service/internal/domain/model"
)

// Нижние границы уровней, начиная с самого опасного. Значение на границе
// относится к более высокому уровню
var riskThresholds = []struct {
	min   float64
	level model.RiskLevel
}{
	{300, model.RiskCritical},
	{200, model.RiskHigh},
	{100, model.RiskMedium},
	{50, model.RiskLow},
	{0, model.RiskVeryLow},
}

// Classify переводит неотрицательный уровень преступности в уровень риска
func Classify(rate float64) (model.RiskLevel, error) {
	if rate < 0 || math.IsNaN(rate) {
		return 0, &model.InvalidRateError{Rate: rate}
	}
	for _, t := range riskThresholds {
		if rate >= t.min {
			return t.level, nil
		}
	}
	// недостижимо: последняя граница 0
	return model.RiskVeryLow, nil
}
