package model

import (
	"fmt"
	"time"
)

type AlertType string

const (
	AlertPrediction AlertType = "prediction"
	AlertHotspot    AlertType = "hotspot"
)

// AlertSignal содержит данные источника, нужные тревоге
type AlertSignal struct {
	Type       AlertType
	Zone       string
	City       string
	Level      RiskLevel
	Confidence float64
	RiskScore  float64
	Position   *Coordinates
}

// AlertSource - всё, что может поднять тревогу
type AlertSource interface {
	AlertSignal() AlertSignal
}

// AlertSignal реализует AlertSource. Зона прогноза по городу задаётся часом
func (p *Prediction) AlertSignal() AlertSignal {
	return AlertSignal{
		Type:       AlertPrediction,
		Zone:       fmt.Sprintf("%s@%02d:00", p.City, p.Hour),
		City:       p.City,
		Level:      p.RiskLevel,
		Confidence: p.Confidence,
		RiskScore:  p.PredictedRate,
	}
}

// AlertSignal реализует AlertSource
func (h Hotspot) AlertSignal() AlertSignal {
	pos := h.Position
	return AlertSignal{
		Type:       AlertHotspot,
		Zone:       h.Name,
		City:       h.City,
		Level:      h.Priority,
		Confidence: 100,
		RiskScore:  h.Density,
		Position:   &pos,
	}
}

// Alert - тревога для диспетчеризации. Dispatched меняется один раз, через очередь
type Alert struct {
	ID           string       `json:"id"`
	Type         AlertType    `json:"type"`
	Zone         string       `json:"zone"`
	City         string       `json:"city"`
	Level        RiskLevel    `json:"level"`
	Confidence   float64      `json:"confidence"`
	RiskScore    float64      `json:"risk_score"`
	Position     *Coordinates `json:"position,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	Dispatched   bool         `json:"dispatched"`
	DispatchedAt *time.Time   `json:"dispatched_at,omitempty"`
}

type ResolutionReason string

const (
	ResolvedArrived       ResolutionReason = "arrived"
	ResolvedTimeout       ResolutionReason = "timeout"
	ResolvedSessionClosed ResolutionReason = "session_closed"
)

// ResolvedAlert - тревога, убранная из активных
type ResolvedAlert struct {
	Alert      `json:"alert"`
	UnitID     string           `json:"unit_id,omitempty"`
	Reason     ResolutionReason `json:"reason"`
	ResolvedAt time.Time        `json:"resolved_at"`
}
