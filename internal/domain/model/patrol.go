package model

import "time"

type UnitStatus string

const (
	UnitIdle       UnitStatus = "Idle"
	UnitEnRoute    UnitStatus = "EnRoute"
	UnitResponding UnitStatus = "Responding"
)

// PatrolUnit принадлежит симулятору. Наружу отдаются копии.
// Задано не больше одного из TargetAlertID и TargetHotspotID
type PatrolUnit struct {
	ID              string      `json:"id"`
	City            string      `json:"city"`
	Position        Coordinates `json:"position"`
	Home            Coordinates `json:"home"`
	Status          UnitStatus  `json:"status"`
	TargetAlertID   string      `json:"target_alert_id,omitempty"`
	TargetHotspotID string      `json:"target_hotspot_id,omitempty"`
	Speed           float64     `json:"speed_kmps"`
	AssignedAt      float64     `json:"assigned_at,omitempty"` // симулированные секунды
	LastHotspotID   string      `json:"-"`
}

// HasTarget сообщает, назначен ли экипаж на тревогу или горячую точку
func (u PatrolUnit) HasTarget() bool {
	return u.TargetAlertID != "" || u.TargetHotspotID != ""
}

// TickSnapshot - состояние сессии после тика для потребителей
type TickSnapshot struct {
	Seq      uint64          `json:"seq"`
	City     string          `json:"city"`
	SimTime  float64         `json:"sim_time"`
	At       time.Time       `json:"at"`
	Units    []PatrolUnit    `json:"units"`
	Pending  []Alert         `json:"pending"`
	Resolved []ResolvedAlert `json:"resolved,omitempty"`
}
