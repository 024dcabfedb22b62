package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/logging"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      logging.Config `mapstructure:"log"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Session  SessionConfig  `mapstructure:"session"`
	Upload   UploadConfig   `mapstructure:"upload"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required"`
	Host string `mapstructure:"host"`
	Addr string `mapstructure:"-"` // Combined host:port for convenience
}

// DatabaseConfig holds the session staging database configuration.
// The default in-memory path keeps staged data for the lifetime of the process only.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ForecastConfig controls the per-product forecaster and the portfolio leaderboard.
type ForecastConfig struct {
	HorizonDays     int     `mapstructure:"horizon_days" validate:"gt=0"`
	MinDataPoints   int     `mapstructure:"min_data_points" validate:"gte=2"`
	LeaderboardSize int     `mapstructure:"leaderboard_size" validate:"gt=0"`
	IntervalWidth   float64 `mapstructure:"interval_width" validate:"gt=0,lt=1"`
	Workers         int     `mapstructure:"workers" validate:"gte=1"`
}

// SessionConfig controls idle session eviction.
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl" validate:"gt=0"`
	SweepSchedule string        `mapstructure:"sweep_schedule" validate:"required"`
}

// UploadConfig limits raw sales uploads.
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes" validate:"gt=0"`
}

// Default values. The forecast values match the reference analysis:
// one year horizon, ten daily points minimum, top five leaderboard.
const (
	DefaultHorizonDays     = 365
	DefaultMinDataPoints   = 10
	DefaultLeaderboardSize = 5
	DefaultIntervalWidth   = 0.8
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5001")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("db.path", ":memory:")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("forecast.horizon_days", DefaultHorizonDays)
	v.SetDefault("forecast.min_data_points", DefaultMinDataPoints)
	v.SetDefault("forecast.leaderboard_size", DefaultLeaderboardSize)
	v.SetDefault("forecast.interval_width", DefaultIntervalWidth)
	v.SetDefault("forecast.workers", 1)
	v.SetDefault("session.ttl", "1h")
	v.SetDefault("session.sweep_schedule", "@every 5m")
	v.SetDefault("upload.max_bytes", 32<<20)
}

// newViper maps nested keys onto flat environment names, so "server.port"
// resolves from SERVER_PORT and "db.path" from DB_PATH.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

// Load reads configuration from environment variables, a .env file, and an
// optional YAML file named by CONFIG_FILE. Environment variables win over the file.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	v := newViper()
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	return unmarshal(v)
}

// Defaults returns the configuration with every default applied and no
// environment lookups. Used by the CLI and by tests.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		// Defaults are static; failing here is a programming error.
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Combine host and port
	cfg.Server.Addr = fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
