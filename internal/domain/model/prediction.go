package model

import (
	"encoding/json"
	"fmt"
)

// RiskLevel - упорядоченный уровень риска, больше значит опаснее
type RiskLevel int

const (
	RiskVeryLow RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

var riskNames = [...]string{"VERY_LOW", "LOW", "MEDIUM", "HIGH", "CRITICAL"}

func (l RiskLevel) String() string {
	if l < RiskVeryLow || l > RiskCritical {
		return fmt.Sprintf("RiskLevel(%d)", int(l))
	}
	return riskNames[l]
}

// Alertable сообщает, требует ли уровень тревоги
func (l RiskLevel) Alertable() bool {
	return l >= RiskHigh
}

func (l RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *RiskLevel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("risk level must be a string: %w", err)
	}
	parsed, err := ParseRiskLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseRiskLevel - обратная к String
func ParseRiskLevel(s string) (RiskLevel, error) {
	for i, name := range riskNames {
		if name == s {
			return RiskLevel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown risk level %q", s)
}

// ModelID - имя зарегистрированной формулы прогноза
type ModelID string

const (
	GradientBoosting ModelID = "gradientBoosting"
	RandomForest     ModelID = "randomForest"
	LassoRegression  ModelID = "lassoRegression"
	DecisionTree     ModelID = "decisionTree"
)

// RateFunc превращает базовый уровень и часовой множитель в прогноз.
// Реализации должны быть чистыми функциями
type RateFunc func(baseRate, hourFactor float64) float64

// ModelInfo содержит информацию о модели
type ModelInfo struct {
	ID          ModelID `json:"id"`
	AccuracyPct float64 `json:"accuracy_pct"`
}

// Prediction содержит результат предсказания. Изменять его нельзя:
// кэш отдаёт один и тот же указатель всем вызывающим
type Prediction struct {
	City          string    `json:"city"`
	Hour          int       `json:"hour"`
	Model         ModelID   `json:"model"`
	PredictedRate float64   `json:"predicted_rate"`
	Confidence    float64   `json:"confidence"`
	RiskLevel     RiskLevel `json:"risk_level"`
	HourFactor    float64   `json:"hour_factor"`
}
