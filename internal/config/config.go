package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// EnvPrefix is prepended to every environment variable, e.g. RATE_SERVICE_DB_CONN
const EnvPrefix = "RATE_SERVICE"

// Config holds application configuration
type Config struct {
	ListenAddr      string
	DBConn          string
	LogLevel        string
	Storage         string
	ShutdownTimeout time.Duration
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("db_conn", "host=localhost port=5432 user=test password=test dbname=rates sslmode=disable")
	v.SetDefault("log_level", "info")
	v.SetDefault("storage", StoragePostgres)
	v.SetDefault("shutdown_timeout", 10*time.Second)
}

// New returns a viper instance with defaults and environment lookup configured
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load builds a Config from v and validates it
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ListenAddr:      v.GetString("listen"),
		DBConn:          v.GetString("db_conn"),
		LogLevel:        v.GetString("log_level"),
		Storage:         strings.ToLower(v.GetString("storage")),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
	}

	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DBConn == "" {
			return nil, fmt.Errorf("DB_CONN is required for %s storage", StoragePostgres)
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("unknown storage %q, want %s or %s", cfg.Storage, StoragePostgres, StorageMemory)
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, fmt.Errorf("shutdown timeout must be positive, got %s", cfg.ShutdownTimeout)
	}

	return cfg, nil
}
