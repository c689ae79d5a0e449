package core

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"intel_service/internal/domain/model"
)

// PredictionService - API чтения поверх каталога и реестра моделей.
// Все результаты кэшируются до явного сброса
type PredictionService struct {
	catalog  *Catalog
	registry *Registry
	cache    *Cache
	obs      Observer

	mu       sync.RWMutex
	selected model.ModelID
}

func NewPredictionService(catalog *Catalog, registry *Registry, obs Observer) *PredictionService {
	if obs == nil {
		obs = NopObserver{}
	}
	s := &PredictionService{
		catalog:  catalog,
		registry: registry,
		cache:    NewCache(obs),
		obs:      obs,
	}
	if models := registry.ListModels(); len(models) > 0 {
		s.selected = models[0].ID
	}
	return s
}

func (s *PredictionService) Catalog() *Catalog   { return s.catalog }
func (s *PredictionService) Registry() *Registry { return s.registry }

// Predict возвращает прогноз для города, часа и модели. Повторные вызовы
// возвращают тот же указатель без пересчёта модели
func (s *PredictionService) Predict(city string, hour int, modelName string) (*model.Prediction, error) {
	return cached(s.cache, OpPredict, []any{city, hour, modelName}, func() (*model.Prediction, error) {
		return s.compute(city, hour, modelName)
	})
}

func (s *PredictionService) compute(city string, hour int, modelName string) (*model.Prediction, error) {
	base, err := s.catalog.BaseRate(city)
	if err != nil {
		return nil, err
	}
	factor, err := s.catalog.HourFactor(city, hour)
	if err != nil {
		return nil, err
	}
	m, err := s.registry.GetModel(modelName)
	if err != nil {
		return nil, err
	}

	rate := m.Fn(base, factor)
	s.obs.ModelEvaluated(m.ID)
	if rate < 0 || math.IsNaN(rate) {
		rate = 0
	}
	level, err := Classify(rate)
	if err != nil {
		return nil, fmt.Errorf("classify %s/%d/%s: %w", city, hour, m.ID, err)
	}

	return &model.Prediction{
		City:          city,
		Hour:          hour,
		Model:         m.ID,
		PredictedRate: rate,
		Confidence:    m.AccuracyPct,
		RiskLevel:     level,
		HourFactor:    factor,
	}, nil
}

// CompareModels считает прогноз всеми моделями в порядке регистрации
func (s *PredictionService) CompareModels(city string, hour int) ([]*model.Prediction, error) {
	models := s.registry.ListModels()
	out := make([]*model.Prediction, 0, len(models))
	for _, m := range models {
		p, err := s.Predict(city, hour, string(m.ID))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// BatchPredict считает города x часы (города снаружи) выбранной моделью
func (s *PredictionService) BatchPredict(cities []string, hours []int) ([]*model.Prediction, error) {
	selected := string(s.SelectedModel())
	out, err := cached(s.cache, OpBatchPredict, []any{selected, cities, hours}, func() ([]*model.Prediction, error) {
		res := make([]*model.Prediction, 0, len(cities)*len(hours))
		for _, city := range cities {
			for _, hour := range hours {
				p, err := s.Predict(city, hour, selected)
				if err != nil {
					return nil, err
				}
				res = append(res, p)
			}
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]*model.Prediction(nil), out...), nil
}

// CityRankings ранжирует все города на заданный час, самые опасные первыми.
// При равенстве сортировка по названию
func (s *PredictionService) CityRankings(hour int, modelName string) ([]*model.Prediction, error) {
	out, err := cached(s.cache, OpCityRankings, []any{hour, modelName}, func() ([]*model.Prediction, error) {
		cities := s.catalog.Cities()
		res := make([]*model.Prediction, 0, len(cities))
		for _, city := range cities {
			p, err := s.Predict(city, hour, modelName)
			if err != nil {
				return nil, err
			}
			res = append(res, p)
		}
		sort.SliceStable(res, func(i, j int) bool {
			if res[i].PredictedRate != res[j].PredictedRate {
				return res[i].PredictedRate > res[j].PredictedRate
			}
			return res[i].City < res[j].City
		})
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]*model.Prediction(nil), out...), nil
}

// HourlyPatterns возвращает 24 прогноза, индекс i соответствует часу i
func (s *PredictionService) HourlyPatterns(city string, modelName string) ([]*model.Prediction, error) {
	out, err := cached(s.cache, OpHourlyPatterns, []any{city, modelName}, func() ([]*model.Prediction, error) {
		res := make([]*model.Prediction, 24)
		for hour := range res {
			p, err := s.Predict(city, hour, modelName)
			if err != nil {
				return nil, err
			}
			res[hour] = p
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]*model.Prediction(nil), out...), nil
}

// SelectModel переключает модель для BatchPredict и сбрасывает
// пакетные записи, посчитанные предыдущей
func (s *PredictionService) SelectModel(name string) error {
	m, err := s.registry.GetModel(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	changed := s.selected != m.ID
	s.selected = m.ID
	s.mu.Unlock()
	if changed {
		s.cache.DeleteOperation(OpBatchPredict)
	}
	return nil
}

func (s *PredictionService) SelectedModel() model.ModelID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

func (s *PredictionService) ClearCache() {
	s.cache.Clear()
}

// ClearCacheEntry удаляет один результат, ключ строится как в операции,
// например ClearCacheEntry("predict", "Delhi", 3, "gradientBoosting")
func (s *PredictionService) ClearCacheEntry(operation string, params ...any) bool {
	return s.cache.Delete(operation, params...)
}

func (s *PredictionService) CacheSize() int {
	return s.cache.Len()
}
