package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults tests that Load fills in defaults when nothing is set.
//
// WHY: The forecast defaults (365 day horizon, 10 points, top 5) define the
// analysis behaviour; a silent change here changes every result.
func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no stray .env

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "localhost:5001", cfg.Server.Addr)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, 365, cfg.Forecast.HorizonDays)
	assert.Equal(t, 10, cfg.Forecast.MinDataPoints)
	assert.Equal(t, 5, cfg.Forecast.LeaderboardSize)
	assert.InDelta(t, 0.8, cfg.Forecast.IntervalWidth, 1e-9)
	assert.Equal(t, 1, cfg.Forecast.Workers)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "@every 5m", cfg.Session.SweepSchedule)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost"}, cfg.CORS.AllowedOrigins)
}

// TestLoad_EnvOverrides tests the flat environment variable names.
//
// WHY: Deployments configure the service with SERVER_PORT/DB_PATH style
// variables; the nested keys must keep resolving from them.
func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("FORECAST_WORKERS", "4")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, 4, cfg.Forecast.Workers)
	assert.Equal(t, 15*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "salescast.yaml")
	content := "forecast:\n  leaderboard_size: 3\n  horizon_days: 90\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Forecast.LeaderboardSize)
	assert.Equal(t, 90, cfg.Forecast.HorizonDays)
	assert.Equal(t, 10, cfg.Forecast.MinDataPoints)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("rejects out of range interval width", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("FORECAST_INTERVAL_WIDTH", "1.5")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects missing config file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("CONFIG_FILE", "/does/not/exist.yaml")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, DefaultHorizonDays, cfg.Forecast.HorizonDays)
	assert.Equal(t, DefaultLeaderboardSize, cfg.Forecast.LeaderboardSize)
}
