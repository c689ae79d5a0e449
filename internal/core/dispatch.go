package core

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"intel_service/internal/domain/model"
)

// SimConfig содержит параметры движения симулятора
type SimConfig struct {
	ArrivalThresholdKm float64        // ближе этого расстояния экипаж считается прибывшим
	TargetTimeout      float64        // сколько симулированных секунд можно держать цель; 0 отключает
	Preempt            bool           // снимать патрули с горячих точек, если свободных экипажей нет
	Metric             DistanceMetric // nil - Haversine
}

func (c SimConfig) withDefaults() SimConfig {
	if c.Metric == nil {
		c.Metric = Haversine{}
	}
	if c.ArrivalThresholdKm <= 0 {
		c.ArrivalThresholdKm = 0.1
	}
	return c
}

type unitState struct {
	unit   model.PatrolUnit
	target model.Coordinates
}

// Simulator владеет экипажами одной сессии города. Не потокобезопасен,
// доступ сериализует Engine
type Simulator struct {
	cfg    SimConfig
	alerts *AlertQueue
	log    *slog.Logger

	active   bool
	city     model.City
	units    []*unitState
	hotspots []model.Hotspot
	simTime  float64
	seq      uint64
}

func NewSimulator(cfg SimConfig, alerts *AlertQueue, log *slog.Logger) *Simulator {
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{cfg: cfg.withDefaults(), alerts: alerts, log: log}
}

// UnitSpec описывает экипажи, создаваемые для сессии
type UnitSpec struct {
	Count  int
	Speed  float64 // км за симулированную секунду
	Depots []model.Coordinates
}

// Load завершает текущую сессию, закрывая тревоги её города, и начинает
// новую для city. Число экипажей не меняется до следующего Load или Close
func (s *Simulator) Load(city model.City, hotspots []model.Hotspot, spec UnitSpec) ([]model.ResolvedAlert, error) {
	if spec.Count < 0 {
		return nil, fmt.Errorf("unit count must be non-negative, got %d", spec.Count)
	}
	if spec.Count > 0 && !(spec.Speed > 0) {
		return nil, fmt.Errorf("unit speed must be positive, got %v", spec.Speed)
	}
	closed := s.Close()

	depots := spec.Depots
	if len(depots) == 0 {
		depots = []model.Coordinates{city.Anchor}
	}
	prefix := unitPrefix(city.Name)
	units := make([]*unitState, spec.Count)
	for i := range units {
		home := depots[i%len(depots)]
		units[i] = &unitState{unit: model.PatrolUnit{
			ID:       fmt.Sprintf("%s-%02d", prefix, i+1),
			City:     city.Name,
			Position: home,
			Home:     home,
			Status:   model.UnitIdle,
			Speed:    spec.Speed,
		}}
	}

	sortUnits(units)

	s.active = true
	s.city = city
	s.units = units
	s.hotspots = append([]model.Hotspot(nil), hotspots...)
	s.simTime = 0
	s.seq = 0
	s.log.Info("city session loaded", "city", city.Name, "units", len(units), "hotspots", len(hotspots))
	return closed, nil
}

// Close завершает сессию. Без активной сессии ничего не делает
func (s *Simulator) Close() []model.ResolvedAlert {
	if !s.active {
		return nil
	}
	closed := s.alerts.Reset(s.city.Name)
	s.log.Info("city session closed", "city", s.city.Name, "closed_alerts", len(closed))
	s.active = false
	s.units = nil
	s.hotspots = nil
	s.city = model.City{}
	return closed
}

func unitPrefix(city string) string {
	p := strings.ToUpper(strings.ReplaceAll(city, " ", ""))
	if len(p) > 3 {
		p = p[:3]
	}
	return p
}

func (s *Simulator) City() (string, bool) {
	return s.city.Name, s.active
}

// Units возвращает копии экипажей сессии, упорядоченные по id
func (s *Simulator) Units() []model.PatrolUnit {
	out := make([]model.PatrolUnit, len(s.units))
	for i, us := range s.units {
		out[i] = us.unit
	}
	return out
}

// Tick продвигает сессию на dt симулированных секунд: назначает тревоги,
// затем горячие точки, затем двигает все занятые экипажи
func (s *Simulator) Tick(dt float64) (model.TickSnapshot, error) {
	if !s.active {
		return model.TickSnapshot{}, model.ErrNoActiveCity
	}
	if dt < 0 || math.IsNaN(dt) {
		return model.TickSnapshot{}, fmt.Errorf("tick delta must be non-negative, got %v", dt)
	}
	s.seq++
	s.simTime += dt

	s.assignAlerts()
	s.assignHotspots()
	resolved := s.advance(dt)

	return model.TickSnapshot{
		Seq:      s.seq,
		City:     s.city.Name,
		SimTime:  s.simTime,
		Units:    s.Units(),
		Pending:  s.alerts.PendingFor(s.city.Name),
		Resolved: resolved,
	}, nil
}

func (s *Simulator) alertPosition(a model.Alert) model.Coordinates {
	if a.Position != nil {
		return *a.Position
	}
	return s.city.Anchor
}

// nearest выбирает ближайший подходящий экипаж. При равенстве побеждает
// меньший id, то есть порядок в срезе
func (s *Simulator) nearest(to model.Coordinates, ok func(*unitState) bool) *unitState {
	var best *unitState
	bestDist := math.Inf(1)
	for _, us := range s.units {
		if !ok(us) {
			continue
		}
		if d := s.cfg.Metric.Distance(us.unit.Position, to); d < bestDist {
			best, bestDist = us, d
		}
	}
	return best
}

func isIdle(us *unitState) bool { return us.unit.Status == model.UnitIdle }

func isPatrolling(us *unitState) bool {
	return us.unit.Status == model.UnitEnRoute && us.unit.TargetHotspotID != ""
}

// assignAlerts назначает экипажи на тревоги города без исполнителя по приоритету.
// Тревога, назначенная извне симуляции, не имеет исполнителя и
// обрабатывается как ожидающая
func (s *Simulator) assignAlerts() {
	held := make(map[string]bool, len(s.units))
	for _, us := range s.units {
		if us.unit.TargetAlertID != "" {
			held[us.unit.TargetAlertID] = true
		}
	}
	for _, a := range s.alerts.ActiveFor(s.city.Name) {
		if held[a.ID] {
			continue
		}
		pos := s.alertPosition(a)
		us := s.nearest(pos, isIdle)
		if us == nil && s.cfg.Preempt {
			us = s.nearest(pos, isPatrolling)
		}
		if us == nil {
			// свободных экипажей нет: остальные ждут следующего тика
			return
		}
		if a.Dispatched {
			s.log.Info("unit adopted dispatched alert", "unit", us.unit.ID, "alert", a.ID)
		} else if !s.alerts.MarkDispatched(a.ID) {
			continue
		}
		if us.unit.TargetHotspotID != "" {
			s.log.Info("patrol diverted to alert", "unit", us.unit.ID, "hotspot", us.unit.TargetHotspotID, "alert", a.ID)
		}
		us.unit.Status = model.UnitResponding
		us.unit.TargetAlertID = a.ID
		us.unit.TargetHotspotID = ""
		us.unit.AssignedAt = s.simTime
		us.target = pos
		s.log.Debug("unit responding", "unit", us.unit.ID, "alert", a.ID, "level", a.Level.String())
	}
}

func (s *Simulator) assignHotspots() {
	if len(s.hotspots) == 0 {
		return
	}
	taken := make(map[string]bool, len(s.units))
	for _, us := range s.units {
		if us.unit.TargetHotspotID != "" {
			taken[us.unit.TargetHotspotID] = true
		}
	}
	for _, us := range s.units {
		if !isIdle(us) {
			continue
		}
		hs, ok := s.nearestHotspot(us, taken)
		if !ok {
			return
		}
		taken[hs.ID] = true
		us.unit.Status = model.UnitEnRoute
		us.unit.TargetHotspotID = hs.ID
		us.unit.AssignedAt = s.simTime
		us.target = hs.Position
	}
}

// nearestHotspot пропускает только что покинутую точку, если есть другие свободные
func (s *Simulator) nearestHotspot(us *unitState, taken map[string]bool) (model.Hotspot, bool) {
	var best, fallback *model.Hotspot
	bestDist := math.Inf(1)
	for i := range s.hotspots {
		hs := &s.hotspots[i]
		if taken[hs.ID] {
			continue
		}
		if hs.ID == us.unit.LastHotspotID {
			fallback = hs
			continue
		}
		if d := s.cfg.Metric.Distance(us.unit.Position, hs.Position); d < bestDist {
			best, bestDist = hs, d
		}
	}
	if best == nil {
		best = fallback
	}
	if best == nil {
		return model.Hotspot{}, false
	}
	return *best, true
}

func (s *Simulator) advance(dt float64) []model.ResolvedAlert {
	var resolved []model.ResolvedAlert
	for _, us := range s.units {
		u := &us.unit
		if !u.HasTarget() {
			continue
		}
		if u.TargetAlertID != "" {
			if _, ok := s.alerts.Get(u.TargetAlertID); !ok {
				// закрыта в другом месте
				s.release(us)
				continue
			}
		}
		if s.cfg.TargetTimeout > 0 && s.simTime-u.AssignedAt >= s.cfg.TargetTimeout {
			s.log.Warn("unit target timed out", "unit", u.ID, "alert", u.TargetAlertID, "hotspot", u.TargetHotspotID)
			if r, ok := s.finish(us, model.ResolvedTimeout); ok {
				resolved = append(resolved, r)
			}
			continue
		}

		remaining := s.cfg.Metric.Distance(u.Position, us.target)
		step := u.Speed * dt
		if remaining-step < s.cfg.ArrivalThresholdKm {
			u.Position = us.target
			if r, ok := s.finish(us, model.ResolvedArrived); ok {
				resolved = append(resolved, r)
			}
			continue
		}
		u.Position = interpolate(u.Position, us.target, remaining, step)
	}
	return resolved
}

// finish снимает цель экипажа, тревога закрывается с причиной reason
func (s *Simulator) finish(us *unitState, reason model.ResolutionReason) (model.ResolvedAlert, bool) {
	alertID := us.unit.TargetAlertID
	if us.unit.TargetHotspotID != "" {
		us.unit.LastHotspotID = us.unit.TargetHotspotID
	}
	s.release(us)
	if alertID == "" {
		return model.ResolvedAlert{}, false
	}
	r, ok := s.alerts.Resolve(alertID, us.unit.ID, reason)
	if ok {
		s.log.Info("alert resolved", "alert", alertID, "unit", us.unit.ID, "reason", string(reason))
	}
	return r, ok
}

func (s *Simulator) release(us *unitState) {
	us.unit.Status = model.UnitIdle
	us.unit.TargetAlertID = ""
	us.unit.TargetHotspotID = ""
	us.unit.AssignedAt = 0
}

// Coverage - среднее расстояние от горячих точек до ближайшего экипажа
func (s *Simulator) Coverage() float64 {
	points := make([]model.Coordinates, len(s.hotspots))
	for i, hs := range s.hotspots {
		points[i] = hs.Position
	}
	refs := make([]model.Coordinates, len(s.units))
	for i, us := range s.units {
		refs[i] = us.unit.Position
	}
	return meanNearestDistance(s.cfg.Metric, points, refs)
}

// sortUnits держит порядок среза равным порядку id, на это опирается nearest
func sortUnits(units []*unitState) {
	sort.Slice(units, func(i, j int) bool { return units[i].unit.ID < units[j].unit.ID })
}
