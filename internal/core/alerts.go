package core

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"intel_service/internal/domain/model"
)

type queuedAlert struct {
	alert model.Alert
	seq   uint64
}

// AlertQueue хранит активные тревоги. Тревога ожидает назначения до
// MarkDispatched и остаётся активной до Resolve
type AlertQueue struct {
	mu     sync.Mutex
	clock  Clock
	obs    Observer
	newID  func() string
	seq    uint64
	active map[string]*queuedAlert
	byZone map[string]string // type|city|zone -> id тревоги
}

func NewAlertQueue(clock Clock, obs Observer) *AlertQueue {
	if clock == nil {
		clock = SystemClock{}
	}
	if obs == nil {
		obs = NopObserver{}
	}
	return &AlertQueue{
		clock:  clock,
		obs:    obs,
		newID:  uuid.NewString,
		active: make(map[string]*queuedAlert),
		byZone: make(map[string]string),
	}
}

func zoneKey(sig model.AlertSignal) string {
	return string(sig.Type) + "|" + sig.City + "|" + sig.Zone
}

// RaiseAlert создаёт тревогу для источника уровня HIGH или CRITICAL и возвращает
// её копию. Для более низких уровней возвращает nil. Если у зоны источника уже
// есть активная тревога, возвращается она, а не дубликат
func (q *AlertQueue) RaiseAlert(src model.AlertSource) *model.Alert {
	if src == nil {
		return nil
	}
	sig := src.AlertSignal()
	if !sig.Level.Alertable() {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	key := zoneKey(sig)
	if id, ok := q.byZone[key]; ok {
		if qa, ok := q.active[id]; ok {
			a := qa.alert
			return &a
		}
	}

	q.seq++
	qa := &queuedAlert{
		seq: q.seq,
		alert: model.Alert{
			ID:         q.newID(),
			Type:       sig.Type,
			Zone:       sig.Zone,
			City:       sig.City,
			Level:      sig.Level,
			Confidence: sig.Confidence,
			RiskScore:  sig.RiskScore,
			Position:   sig.Position,
			CreatedAt:  q.clock.Now(),
		},
	}
	q.active[qa.alert.ID] = qa
	q.byZone[key] = qa.alert.ID
	q.obs.AlertRaised(sig.Level)
	a := qa.alert
	return &a
}

// ListPending возвращает неназначенные тревоги в порядке приоритета:
// CRITICAL раньше HIGH, затем более старые
func (q *AlertQueue) ListPending() []model.Alert {
	return q.list(func(a *model.Alert) bool { return !a.Dispatched })
}

// PendingFor - ListPending для одного города
func (q *AlertQueue) PendingFor(city string) []model.Alert {
	return q.list(func(a *model.Alert) bool { return !a.Dispatched && a.City == city })
}

// ActiveFor - ListActive для одного города
func (q *AlertQueue) ActiveFor(city string) []model.Alert {
	return q.list(func(a *model.Alert) bool { return a.City == city })
}

// ListActive возвращает ожидающие и назначенные тревоги в порядке приоритета
func (q *AlertQueue) ListActive() []model.Alert {
	return q.list(func(*model.Alert) bool { return true })
}

func (q *AlertQueue) list(keep func(*model.Alert) bool) []model.Alert {
	q.mu.Lock()
	items := make([]*queuedAlert, 0, len(q.active))
	for _, qa := range q.active {
		if keep(&qa.alert) {
			items = append(items, qa)
		}
	}
	q.mu.Unlock()

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.alert.Level != b.alert.Level {
			return a.alert.Level > b.alert.Level
		}
		if !a.alert.CreatedAt.Equal(b.alert.CreatedAt) {
			return a.alert.CreatedAt.Before(b.alert.CreatedAt)
		}
		return a.seq < b.seq
	})
	out := make([]model.Alert, len(items))
	for i, qa := range items {
		out[i] = qa.alert
	}
	return out
}

func (q *AlertQueue) Get(id string) (model.Alert, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	qa, ok := q.active[id]
	if !ok {
		return model.Alert{}, false
	}
	return qa.alert, true
}

// MarkDispatched помечает ожидающую тревогу как назначенную. Для неизвестной
// или уже назначенной тревоги ничего не меняет и возвращает false
func (q *AlertQueue) MarkDispatched(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	qa, ok := q.active[id]
	if !ok || qa.alert.Dispatched {
		return false
	}
	now := q.clock.Now()
	qa.alert.Dispatched = true
	qa.alert.DispatchedAt = &now
	q.obs.AlertDispatched(qa.alert.Level)
	return true
}

// Resolve убирает тревогу из активных
func (q *AlertQueue) Resolve(id, unitID string, reason model.ResolutionReason) (model.ResolvedAlert, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	qa, ok := q.active[id]
	if !ok {
		return model.ResolvedAlert{}, false
	}
	return q.removeLocked(qa, unitID, reason, q.clock.Now()), true
}

func (q *AlertQueue) removeLocked(qa *queuedAlert, unitID string, reason model.ResolutionReason, at time.Time) model.ResolvedAlert {
	delete(q.active, qa.alert.ID)
	key := zoneKey(model.AlertSignal{Type: qa.alert.Type, City: qa.alert.City, Zone: qa.alert.Zone})
	if q.byZone[key] == qa.alert.ID {
		delete(q.byZone, key)
	}
	q.obs.AlertResolved(reason)
	return model.ResolvedAlert{Alert: qa.alert, UnitID: unitID, Reason: reason, ResolvedAt: at}
}

// Reset закрывает все активные тревоги города в порядке приоритета.
// Тревоги других городов остаются в очереди
func (q *AlertQueue) Reset(city string) []model.ResolvedAlert {
	active := q.ActiveFor(city)
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.clock.Now()
	out := make([]model.ResolvedAlert, 0, len(active))
	for _, a := range active {
		if qa, ok := q.active[a.ID]; ok {
			out = append(out, q.removeLocked(qa, "", model.ResolvedSessionClosed, now))
		}
	}
	return out
}

func (q *AlertQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.active)
}
