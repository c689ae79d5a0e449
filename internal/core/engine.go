package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"intel_service/internal/domain/model"
)

// DepotLocator выбирает стартовые позиции экипажей города
type DepotLocator interface {
	Depots(ctx context.Context, city model.City, n int) ([]model.Coordinates, error)
}

// RingDepots расставляет экипажи по кругу вокруг центра города
type RingDepots struct {
	RadiusKm float64
}

func (r RingDepots) Depots(_ context.Context, city model.City, n int) ([]model.Coordinates, error) {
	return ringPositions(city.Anchor, n, r.RadiusKm), nil
}

type EngineConfig struct {
	Sim               SimConfig
	UnitsPerCity      int
	UnitSpeed         float64 // км за симулированную секунду
	AlertScanInterval float64 // симулированных секунд между сканированиями; 0 отключает

	Clock    Clock
	Observer Observer
	Logger   *slog.Logger
	Depots   DepotLocator
}

// Engine - явно созданный экземпляр ядра прогнозов и диспетчеризации.
// Все изменения идут через его мьютекс, поэтому тик атомарен
// относительно остальных операций
type Engine struct {
	cfg    EngineConfig
	log    *slog.Logger
	obs    Observer
	clock  Clock
	depots DepotLocator

	predictions *PredictionService
	alerts      *AlertQueue

	mu        sync.Mutex
	sim       *Simulator
	sinceScan float64
	scanned   bool
	carry     []model.ResolvedAlert // закрыты вне тика, попадут в следующий
	closed    bool
}

func NewEngine(catalog *Catalog, registry *Registry, cfg EngineConfig) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Depots == nil {
		cfg.Depots = RingDepots{RadiusKm: 2}
	}
	alerts := NewAlertQueue(cfg.Clock, cfg.Observer)
	return &Engine{
		cfg:         cfg,
		log:         cfg.Logger,
		obs:         cfg.Observer,
		clock:       cfg.Clock,
		depots:      cfg.Depots,
		predictions: NewPredictionService(catalog, registry, cfg.Observer),
		alerts:      alerts,
		sim:         NewSimulator(cfg.Sim, alerts, cfg.Logger),
	}
}

func (e *Engine) Predictions() *PredictionService { return e.predictions }
func (e *Engine) Alerts() *AlertQueue             { return e.alerts }

func (e *Engine) Predict(city string, hour int, modelName string) (*model.Prediction, error) {
	return e.predictions.Predict(city, hour, modelName)
}

func (e *Engine) CompareModels(city string, hour int) ([]*model.Prediction, error) {
	return e.predictions.CompareModels(city, hour)
}

func (e *Engine) BatchPredict(cities []string, hours []int) ([]*model.Prediction, error) {
	return e.predictions.BatchPredict(cities, hours)
}

func (e *Engine) CityRankings(hour int, modelName string) ([]*model.Prediction, error) {
	return e.predictions.CityRankings(hour, modelName)
}

func (e *Engine) HourlyPatterns(city string, modelName string) ([]*model.Prediction, error) {
	return e.predictions.HourlyPatterns(city, modelName)
}

func (e *Engine) ClearCache() { e.predictions.ClearCache() }

func (e *Engine) ClearCacheEntry(operation string, params ...any) bool {
	return e.predictions.ClearCacheEntry(operation, params...)
}

func (e *Engine) RaiseAlert(src model.AlertSource) *model.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alerts.RaiseAlert(src)
}

func (e *Engine) ListPending() []model.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alerts.ListPending()
}

func (e *Engine) ListActive() []model.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alerts.ListActive()
}

func (e *Engine) MarkDispatched(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alerts.MarkDispatched(id)
}

// ResolveAlert закрывает тревогу извне симуляции, например оператором.
// Экипаж с этой тревогой вернётся в Idle на следующем тике
func (e *Engine) ResolveAlert(id string) (model.ResolvedAlert, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.alerts.Resolve(id, "", model.ResolvedArrived)
	if ok {
		e.carry = append(e.carry, r)
	}
	return r, ok
}

// SelectCity завершает текущую сессию и начинает новую для city.
// Поиск баз выполняется до захвата блокировки
func (e *Engine) SelectCity(ctx context.Context, name string) error {
	catalog := e.predictions.Catalog()
	city, err := catalog.City(name)
	if err != nil {
		return err
	}
	hotspots, err := catalog.Hotspots(name)
	if err != nil {
		return err
	}
	depots, err := e.depots.Depots(ctx, city, e.cfg.UnitsPerCity)
	if err != nil {
		e.log.Warn("depot lookup failed, using city anchor", "city", name, "err", err)
		depots = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("select city %s: engine closed", name)
	}
	closed, err := e.sim.Load(city, hotspots, UnitSpec{
		Count:  e.cfg.UnitsPerCity,
		Speed:  e.cfg.UnitSpeed,
		Depots: depots,
	})
	if err != nil {
		return fmt.Errorf("load city %s: %w", name, err)
	}
	e.carry = append(e.carry, closed...)
	e.sinceScan = 0
	e.scanned = false
	return nil
}

// ActiveCity возвращает город текущей сессии
func (e *Engine) ActiveCity() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.City()
}

// GetUnits возвращает экипажи города. У известного города без сессии их нет
func (e *Engine) GetUnits(city string) ([]model.PatrolUnit, error) {
	if _, err := e.predictions.Catalog().City(city); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if active, ok := e.sim.City(); !ok || active != city {
		return []model.PatrolUnit{}, nil
	}
	return e.sim.Units(), nil
}

// Tick продвигает сессию на dt симулированных секунд
func (e *Engine) Tick(dt float64) (model.TickSnapshot, error) {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return model.TickSnapshot{}, fmt.Errorf("tick: engine closed")
	}
	if _, ok := e.sim.City(); !ok {
		return model.TickSnapshot{}, model.ErrNoActiveCity
	}

	e.sinceScan += dt
	if e.cfg.AlertScanInterval > 0 && (!e.scanned || e.sinceScan >= e.cfg.AlertScanInterval) {
		e.scanLocked()
		e.sinceScan = 0
		e.scanned = true
	}

	snap, err := e.sim.Tick(dt)
	if err != nil {
		return model.TickSnapshot{}, err
	}
	snap.At = e.clock.Now()
	if len(e.carry) > 0 {
		snap.Resolved = append(e.carry, snap.Resolved...)
		e.carry = nil
	}
	e.obs.TickCompleted(time.Since(start), snap.Units, e.sim.Coverage())
	return snap, nil
}

// ScanAlerts поднимает тревоги активного города на текущий час:
// одну по прогнозу выбранной модели и по одной на горячую точку.
// Возвращает число источников с активной тревогой
func (e *Engine) ScanAlerts() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.sim.City(); !ok {
		return 0, model.ErrNoActiveCity
	}
	return e.scanLocked(), nil
}

func (e *Engine) scanLocked() int {
	city, _ := e.sim.City()
	hour := e.clock.Now().Hour()
	raised := 0

	p, err := e.predictions.Predict(city, hour, string(e.predictions.SelectedModel()))
	if err != nil {
		e.log.Error("alert scan prediction failed", "city", city, "hour", hour, "err", err)
	} else if a := e.alerts.RaiseAlert(p); a != nil {
		raised++
	}

	hotspots, err := e.predictions.Catalog().Hotspots(city)
	if err != nil {
		e.log.Error("alert scan hotspots failed", "city", city, "err", err)
		return raised
	}
	for _, hs := range hotspots {
		if a := e.alerts.RaiseAlert(hs); a != nil {
			raised++
		}
	}
	return raised
}

// Close завершает сессию и запрещает дальнейшие тики. Идемпотентен
func (e *Engine) Close() []model.ResolvedAlert {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	closed := append(e.carry, e.sim.Close()...)
	e.carry = nil
	return closed
}
