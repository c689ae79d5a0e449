package core

import (
	"time"

	"intel_service/internal/domain/model"
)

// Observer получает события ядра для метрик. Реализации должны быть
// дешёвыми и не должны вызывать Engine
type Observer interface {
	CacheObserver
	ModelEvaluated(id model.ModelID)
	AlertRaised(level model.RiskLevel)
	AlertDispatched(level model.RiskLevel)
	AlertResolved(reason model.ResolutionReason)
	TickCompleted(elapsed time.Duration, units []model.PatrolUnit, coverageKm float64)
}

// NopObserver игнорирует все события
type NopObserver struct{}

func (NopObserver) CacheHit(string)                                          {}
func (NopObserver) CacheMiss(string)                                         {}
func (NopObserver) ModelEvaluated(model.ModelID)                             {}
func (NopObserver) AlertRaised(model.RiskLevel)                              {}
func (NopObserver) AlertDispatched(model.RiskLevel)                          {}
func (NopObserver) AlertResolved(model.ResolutionReason)                     {}
func (NopObserver) TickCompleted(time.Duration, []model.PatrolUnit, float64) {}
