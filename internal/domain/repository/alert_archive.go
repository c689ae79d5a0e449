package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"intel_service/internal/domain/model"
	"time"

	"github.com/jmoiron/sqlx"
)

// ResolvedAlertRecorder сохраняет закрытые тревоги одного тика
type ResolvedAlertRecorder interface {
	SaveResolved(ctx context.Context, seq uint64, resolved []model.ResolvedAlert) error
}

// AlertArchiveSink передаёт закрытые тревоги каждого тика в рекордер
type AlertArchiveSink struct {
	recorder ResolvedAlertRecorder
}

func NewAlertArchiveSink(recorder ResolvedAlertRecorder) *AlertArchiveSink {
	return &AlertArchiveSink{recorder: recorder}
}

// HandleTick пропускает тики без закрытых тревог
func (s *AlertArchiveSink) HandleTick(ctx context.Context, snap model.TickSnapshot) error {
	if len(snap.Resolved) == 0 {
		return nil
	}
	return s.recorder.SaveResolved(ctx, snap.Seq, snap.Resolved)
}

// PostgresAlertArchive хранит все закрытые тревоги в таблице resolved_alerts
type PostgresAlertArchive struct {
	db *sqlx.DB
}

var _ ResolvedAlertRecorder = (*PostgresAlertArchive)(nil)

func NewPostgresAlertArchive(db *sqlx.DB) *PostgresAlertArchive {
	return &PostgresAlertArchive{db: db}
}

type archiveRow struct {
	AlertID    string         `db:"alert_id"`
	TickSeq    int64          `db:"tick_seq"`
	AlertType  string         `db:"alert_type"`
	Zone       string         `db:"zone"`
	City       string         `db:"city"`
	Level      string         `db:"level"`
	Confidence float64        `db:"confidence"`
	RiskScore  float64        `db:"risk_score"`
	Position   sql.NullString `db:"position"`
	UnitID     string         `db:"unit_id"`
	Reason     string         `db:"reason"`
	CreatedAt  time.Time      `db:"created_at"`
	ResolvedAt time.Time      `db:"resolved_at"`
}

func (a *PostgresAlertArchive) SaveResolved(ctx context.Context, seq uint64, resolved []model.ResolvedAlert) error {
	rows, err := toArchiveRows(seq, resolved)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO resolved_alerts (
			alert_id, tick_seq, alert_type, zone, city, level,
			confidence, risk_score, position, unit_id, reason,
			created_at, resolved_at
		) VALUES (
			:alert_id, :tick_seq, :alert_type, :zone, :city, :level,
			:confidence, :risk_score, :position, :unit_id, :reason,
			:created_at, :resolved_at
		)
		ON CONFLICT (alert_id) DO NOTHING`

	if _, err := a.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to archive %d resolved alerts: %w", len(rows), err)
	}
	return nil
}

func toArchiveRows(seq uint64, resolved []model.ResolvedAlert) ([]archiveRow, error) {
	rows := make([]archiveRow, 0, len(resolved))
	for _, r := range resolved {
		// Позиция хранится как JSONB, у прогнозных тревог её нет: пишем NULL
		var position sql.NullString
		if r.Position != nil {
			b, err := json.Marshal(r.Position)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal position of %s: %w", r.ID, err)
			}
			position = sql.NullString{String: string(b), Valid: true}
		}
		rows = append(rows, archiveRow{
			AlertID:    r.ID,
			TickSeq:    int64(seq),
			AlertType:  string(r.Type),
			Zone:       r.Zone,
			City:       r.City,
			Level:      r.Level.String(),
			Confidence: r.Confidence,
			RiskScore:  r.RiskScore,
			Position:   position,
			UnitID:     r.UnitID,
			Reason:     string(r.Reason),
			CreatedAt:  r.CreatedAt,
			ResolvedAt: r.ResolvedAt,
		})
	}
	return rows, nil
}
