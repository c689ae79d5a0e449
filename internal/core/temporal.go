package core

import (
	"intel_service/internal/domain/model"
)

// HourlyProfile описывает суточный профиль города для одной модели
type HourlyProfile struct {
	City          string         `json:"city"`
	Model         model.ModelID  `json:"model"`
	PeakHour      int            `json:"peak_hour"`
	QuietestHour  int            `json:"quietest_hour"`
	MeanRate      float64        `json:"mean_rate"`
	PeakRate      float64        `json:"peak_rate"`
	AlertHours    []int          `json:"alert_hours"` // часы с уровнем HIGH и выше
	TrendSlope    float64        `json:"trend_slope"` // изменение за час, МНК
	LevelsByCount map[string]int `json:"levels_by_count"`
}

type TemporalAnalyzer struct{}

// Analyze ожидает прогнозы, где индекс равен часу, как их отдаёт HourlyPatterns.
// При равенстве пика или минимума берётся самый ранний час
func (a *TemporalAnalyzer) Analyze(patterns []*model.Prediction) HourlyProfile {
	profile := HourlyProfile{LevelsByCount: map[string]int{}}
	if len(patterns) == 0 {
		return profile
	}
	profile.City = patterns[0].City
	profile.Model = patterns[0].Model

	var sum float64
	peak, trough := 0, 0
	for i, p := range patterns {
		sum += p.PredictedRate
		if p.PredictedRate > patterns[peak].PredictedRate {
			peak = i
		}
		if p.PredictedRate < patterns[trough].PredictedRate {
			trough = i
		}
		if p.RiskLevel.Alertable() {
			profile.AlertHours = append(profile.AlertHours, p.Hour)
		}
		profile.LevelsByCount[p.RiskLevel.String()]++
	}
	n := float64(len(patterns))
	profile.MeanRate = sum / n
	profile.PeakHour = patterns[peak].Hour
	profile.PeakRate = patterns[peak].PredictedRate
	profile.QuietestHour = patterns[trough].Hour

	// Наклон тренда методом наименьших квадратов
	var meanHour float64
	for _, p := range patterns {
		meanHour += float64(p.Hour)
	}
	meanHour /= n
	var num, den float64
	for _, p := range patterns {
		dx := float64(p.Hour) - meanHour
		num += dx * (p.PredictedRate - profile.MeanRate)
		den += dx * dx
	}
	if den > 0 {
		profile.TrendSlope = num / den
	}
	return profile
}

// HourlyProfile анализирует закэшированный суточный профиль города
func (s *PredictionService) HourlyProfile(city string, modelName string) (HourlyProfile, error) {
	patterns, err := s.HourlyPatterns(city, modelName)
	if err != nil {
		return HourlyProfile{}, err
	}
	analyzer := TemporalAnalyzer{}
	return analyzer.Analyze(patterns), nil
}
