package core

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"intel_service/internal/domain/model"
)

var errRegistrySealed = errors.New("model registry is sealed")

// Model - зарегистрированная формула прогноза
type Model struct {
	ID          model.ModelID
	AccuracyPct float64
	Fn          model.RateFunc
}

func (m *Model) Info() model.ModelInfo {
	return model.ModelInfo{ID: m.ID, AccuracyPct: m.AccuracyPct}
}

// Registry хранит модели в порядке регистрации. Заполняется при старте
// и запечатывается до передачи другим компонентам
type Registry struct {
	mu     sync.RWMutex
	order  []*Model
	byID   map[model.ModelID]*Model
	sealed bool
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[model.ModelID]*Model)}
}

// DefaultRegistry возвращает запечатанный реестр со встроенными формулами
func DefaultRegistry() *Registry {
	r := NewRegistry()
	defs := []struct {
		id  model.ModelID
		fn  model.RateFunc
		acc float64
	}{
		{model.GradientBoosting, func(b, h float64) float64 { return b * h }, 99.98},
		{model.RandomForest, func(b, h float64) float64 { return b * (0.85*h + 0.15) }, 99.91},
		{model.LassoRegression, func(b, h float64) float64 { return 0.92*b*h + 5 }, 96.47},
		{model.DecisionTree, func(b, h float64) float64 { return b * math.Round(h*4) / 4 }, 98.62},
	}
	for _, d := range defs {
		if err := r.RegisterModel(d.id, d.fn, d.acc); err != nil {
			panic(fmt.Sprintf("default registry: %v", err))
		}
	}
	r.Seal()
	return r
}

func (r *Registry) RegisterModel(id model.ModelID, fn model.RateFunc, accuracyPct float64) error {
	if id == "" {
		return errors.New("model id is required")
	}
	if fn == nil {
		return fmt.Errorf("model %s: rate function is required", id)
	}
	if accuracyPct < 0 || accuracyPct > 100 || math.IsNaN(accuracyPct) {
		return fmt.Errorf("model %s: accuracy %v outside [0,100]", id, accuracyPct)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("register %s: %w", id, errRegistrySealed)
	}
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("model %s already registered", id)
	}
	m := &Model{ID: id, AccuracyPct: accuracyPct, Fn: fn}
	r.order = append(r.order, m)
	r.byID[id] = m
	return nil
}

// Seal запрещает дальнейшую регистрацию
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// GetModel ищет модель по точному имени
func (r *Registry) GetModel(name string) (*Model, error) {
	r.mu.RLock()
	m, ok := r.byID[model.ModelID(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, &model.UnknownModelError{Model: name}
	}
	return m, nil
}

// ListModels возвращает модели в порядке регистрации
func (r *Registry) ListModels() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Model(nil), r.order...)
}
