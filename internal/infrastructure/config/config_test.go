package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(quiet)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, SourceStatic, cfg.DataSource)
	assert.Equal(t, "Delhi", cfg.DefaultCity)
	assert.Equal(t, 3*time.Second, cfg.TickPeriod)
	assert.Equal(t, 6, cfg.UnitsPerCity)
	assert.Equal(t, 0.0125, cfg.UnitSpeedKmps)
	assert.Equal(t, 10*time.Minute, cfg.TargetTimeout)
	assert.True(t, cfg.PreemptPatrols)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATA_SOURCE", "Postgres")
	t.Setenv("POSTGRES_URL", "postgres://intel@db/intel?sslmode=disable")
	t.Setenv("TICK_PERIOD", "500ms")
	t.Setenv("UNITS_PER_CITY", "4")
	t.Setenv("PREEMPT_PATROLS", "false")
	t.Setenv("UNIT_SPEED_KMPS", "fast")

	cfg, err := Load(quiet)
	require.NoError(t, err)
	assert.Equal(t, SourcePostgres, cfg.DataSource)
	assert.Equal(t, 500*time.Millisecond, cfg.TickPeriod)
	assert.Equal(t, 4, cfg.UnitsPerCity)
	assert.False(t, cfg.PreemptPatrols)
	assert.Equal(t, 0.0125, cfg.UnitSpeedKmps)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown source", map[string]string{"DATA_SOURCE": "csv"}},
		{"http without url", map[string]string{"DATA_SOURCE": "http"}},
		{"postgres without url", map[string]string{"DATA_SOURCE": "postgres"}},
		{"zero period", map[string]string{"TICK_PERIOD": "0s"}},
		{"negative units", map[string]string{"UNITS_PER_CITY": "-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(quiet)
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DEFAULT_CITY=Pune\nKAFKA_TOPIC=ticks.test\n"), 0o600))
	t.Setenv("KAFKA_TOPIC", "from-env")
	// register cleanup so the value loaded from the file does not leak
	t.Setenv("DEFAULT_CITY", "")
	require.NoError(t, os.Unsetenv("DEFAULT_CITY"))

	LoadDotEnv(path, quiet)
	cfg, err := Load(quiet)
	require.NoError(t, err)
	assert.Equal(t, "Pune", cfg.DefaultCity)
	assert.Equal(t, "from-env", cfg.KafkaTopic)

	LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"), quiet)
}
