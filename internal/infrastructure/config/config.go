package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Catalog data sources.
const (
	SourceStatic   = "static"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

type Config struct {
	ListenAddr string
	LogPath    string
	LogLevel   string

	DataSource  string
	CatalogURL  string
	PostgresURL string

	OverpassURL     string
	OverpassTimeout time.Duration
	DepotRadiusKm   float64

	KafkaBrokers string
	KafkaTopic   string

	DefaultCity  string
	DefaultModel string

	TickPeriod         time.Duration
	UnitsPerCity       int
	UnitSpeedKmps      float64
	ArrivalThresholdKm float64
	TargetTimeout      time.Duration
	AlertScanInterval  time.Duration
	PreemptPatrols     bool
}

// LoadDotEnv preloads variables from path. A missing file is not an error;
// variables already set in the environment win.
func LoadDotEnv(path string, log *slog.Logger) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		log.Warn(".env file not loaded, using process environment", "path", path, "err", err)
	}
}

// Load reads the configuration from the environment.
func Load(log *slog.Logger) (Config, error) {
	cfg := Config{
		ListenAddr: gets("LISTEN_ADDR", ":8080"),
		LogPath:    gets("LOG_PATH", "intel_service.log"),
		LogLevel:   gets("LOG_LEVEL", "info"),

		DataSource:  strings.ToLower(gets("DATA_SOURCE", SourceStatic)),
		CatalogURL:  gets("CATALOG_URL", ""),
		PostgresURL: gets("POSTGRES_URL", ""),

		OverpassURL:     gets("OVERPASS_URL", ""),
		OverpassTimeout: getd("OVERPASS_TIMEOUT", 10*time.Second, log),
		DepotRadiusKm:   getf("DEPOT_RADIUS_KM", 2, log),

		KafkaBrokers: gets("KAFKA_BROKERS", ""),
		KafkaTopic:   gets("KAFKA_TOPIC", "patrol.ticks"),

		DefaultCity:  gets("DEFAULT_CITY", "Delhi"),
		DefaultModel: gets("DEFAULT_MODEL", "gradientBoosting"),

		TickPeriod:         getd("TICK_PERIOD", 3*time.Second, log),
		UnitsPerCity:       geti("UNITS_PER_CITY", 6, log),
		UnitSpeedKmps:      getf("UNIT_SPEED_KMPS", 0.0125, log),
		ArrivalThresholdKm: getf("ARRIVAL_THRESHOLD_KM", 0.1, log),
		TargetTimeout:      getd("TARGET_TIMEOUT", 10*time.Minute, log),
		AlertScanInterval:  getd("ALERT_SCAN_INTERVAL", time.Minute, log),
		PreemptPatrols:     getb("PREEMPT_PATROLS", true, log),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error
	switch c.DataSource {
	case SourceStatic:
	case SourceHTTP:
		if c.CatalogURL == "" {
			errs = append(errs, errors.New("DATA_SOURCE=http requires CATALOG_URL"))
		}
	case SourcePostgres:
		if c.PostgresURL == "" {
			errs = append(errs, errors.New("DATA_SOURCE=postgres requires POSTGRES_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATA_SOURCE %q", c.DataSource))
	}
	if c.TickPeriod <= 0 {
		errs = append(errs, fmt.Errorf("TICK_PERIOD must be positive, got %s", c.TickPeriod))
	}
	if c.UnitsPerCity < 0 {
		errs = append(errs, fmt.Errorf("UNITS_PER_CITY must be non-negative, got %d", c.UnitsPerCity))
	}
	if c.UnitsPerCity > 0 && c.UnitSpeedKmps <= 0 {
		errs = append(errs, fmt.Errorf("UNIT_SPEED_KMPS must be positive, got %v", c.UnitSpeedKmps))
	}
	return errors.Join(errs...)
}

func gets(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getf(key string, def float64, log *slog.Logger) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
		log.Warn("invalid float in environment, using default", "key", key, "val", v, "default", def)
	}
	return def
}

func geti(key string, def int, log *slog.Logger) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		log.Warn("invalid int in environment, using default", "key", key, "val", v, "default", def)
	}
	return def
}

func getd(key string, def time.Duration, log *slog.Logger) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
		log.Warn("invalid duration in environment, using default", "key", key, "val", v, "default", def)
	}
	return def
}

func getb(key string, def bool, log *slog.Logger) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
		log.Warn("invalid bool in environment, using default", "key", key, "val", v, "default", def)
	}
	return def
}
