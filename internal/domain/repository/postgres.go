package repository

import (
	"context"
	"fmt"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"intel_service/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS cities (
	name       TEXT PRIMARY KEY,
	base_rate  DOUBLE PRECISION NOT NULL CHECK (base_rate > 0),
	anchor_lat DOUBLE PRECISION NOT NULL,
	anchor_lng DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS city_hour_factors (
	city   TEXT NOT NULL REFERENCES cities(name),
	hour   SMALLINT NOT NULL CHECK (hour BETWEEN 0 AND 23),
	factor DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (city, hour)
);
CREATE TABLE IF NOT EXISTS hotspots (
	id      TEXT PRIMARY KEY,
	city    TEXT NOT NULL REFERENCES cities(name),
	name    TEXT NOT NULL,
	lat     DOUBLE PRECISION NOT NULL,
	lng     DOUBLE PRECISION NOT NULL,
	density DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS resolved_alerts (
	alert_id    UUID PRIMARY KEY,
	tick_seq    BIGINT NOT NULL,
	alert_type  TEXT NOT NULL,
	zone        TEXT NOT NULL,
	city        TEXT NOT NULL,
	level       TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	risk_score  DOUBLE PRECISION NOT NULL,
	position    JSONB,
	unit_id     TEXT,
	reason      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	resolved_at TIMESTAMPTZ NOT NULL
);`

// PostgresRepository отдаёт каталог городов из PostgreSQL
type PostgresRepository struct {
	DB *sqlx.DB
}

func NewPostgresRepository(ctx context.Context, connStr string) (*PostgresRepository, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresRepository{DB: db}, nil
}

// EnsureSchema создаёт таблицы каталога и архива, если их нет
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.DB.Close()
}

type cityRow struct {
	Name      string  `db:"name"`
	BaseRate  float64 `db:"base_rate"`
	AnchorLat float64 `db:"anchor_lat"`
	AnchorLng float64 `db:"anchor_lng"`
}

type hourFactorRow struct {
	City   string  `db:"city"`
	Hour   int     `db:"hour"`
	Factor float64 `db:"factor"`
}

type hotspotRow struct {
	ID      string  `db:"id"`
	City    string  `db:"city"`
	Name    string  `db:"name"`
	Lat     float64 `db:"lat"`
	Lng     float64 `db:"lng"`
	Density float64 `db:"density"`
}

// LoadCities реализует core.CitySource
func (r *PostgresRepository) LoadCities(ctx context.Context) ([]model.CityRecord, error) {
	var cities []cityRow
	if err := r.DB.SelectContext(ctx, &cities,
		`SELECT name, base_rate, anchor_lat, anchor_lng FROM cities ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}

	var factors []hourFactorRow
	if err := r.DB.SelectContext(ctx, &factors,
		`SELECT city, hour, factor FROM city_hour_factors ORDER BY city, hour`); err != nil {
		return nil, fmt.Errorf("failed to query hour factors: %w", err)
	}

	var hotspots []hotspotRow
	if err := r.DB.SelectContext(ctx, &hotspots,
		`SELECT id, city, name, lat, lng, density FROM hotspots ORDER BY city, id`); err != nil {
		return nil, fmt.Errorf("failed to query hotspots: %w", err)
	}

	return assembleCities(cities, factors, hotspots)
}

// assembleCities собирает три таблицы. Город без множителей получает
// общую таблицу, неполный набор из 24 часов - ошибка
func assembleCities(cities []cityRow, factors []hourFactorRow, hotspots []hotspotRow) ([]model.CityRecord, error) {
	records := make([]model.CityRecord, len(cities))
	index := make(map[string]int, len(cities))
	for i, c := range cities {
		records[i] = model.CityRecord{
			Name:     c.Name,
			BaseRate: c.BaseRate,
			Anchor:   model.Coordinates{Lat: c.AnchorLat, Lng: c.AnchorLng},
		}
		index[c.Name] = i
	}

	seen := make(map[string]int, len(cities))
	for _, f := range factors {
		i, ok := index[f.City]
		if !ok {
			return nil, fmt.Errorf("hour factor for unknown city %q", f.City)
		}
		if f.Hour < 0 || f.Hour > 23 {
			return nil, fmt.Errorf("city %q: hour %d out of range", f.City, f.Hour)
		}
		if records[i].HourFactors == nil {
			records[i].HourFactors = &model.HourFactors{}
		}
		records[i].HourFactors[f.Hour] = f.Factor
		seen[f.City]++
	}
	for city, n := range seen {
		if n != 24 {
			return nil, fmt.Errorf("city %q: expected 24 hour factors, got %d", city, n)
		}
	}

	for _, h := range hotspots {
		i, ok := index[h.City]
		if !ok {
			return nil, fmt.Errorf("hotspot %q for unknown city %q", h.ID, h.City)
		}
		records[i].Hotspots = append(records[i].Hotspots, model.Hotspot{
			ID:       h.ID,
			City:     h.City,
			Name:     h.Name,
			Position: model.Coordinates{Lat: h.Lat, Lng: h.Lng},
			Density:  h.Density,
		})
	}
	return records, nil
}
