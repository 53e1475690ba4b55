package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Logging   LoggingConfig   `toml:"logging"`
	Game      GameConfig      `toml:"game"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

type ServerConfig struct {
	HTTPAddr string `toml:"http_addr"`
	WSAddr   string `toml:"ws_addr"`
	// WSPath is where the gateway is mounted on WSAddr.
	WSPath          string        `toml:"ws_path"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	AllowedOrigins  []string      `toml:"allowed_origins"` // empty allows any origin
}

type DatabaseConfig struct {
	Backend         string        `toml:"backend"` // "memory", "sqlite" or "postgres"
	DSN             string        `toml:"dsn"`
	SQLitePath      string        `toml:"sqlite_path"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
	AutoMigrate     bool          `toml:"auto_migrate"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type GameConfig struct {
	MapSize          int           `toml:"map_size"`
	PacifismCooldown time.Duration `toml:"pacifism_cooldown"`
	LootFraction     float64       `toml:"loot_fraction"`
	MaxAttempts      int           `toml:"max_attempts"` // optimistic commit retries per request
}

type RateLimitConfig struct {
	MessagesPerSecond float64 `toml:"messages_per_second"`
	Burst             int     `toml:"burst"`
}

// Load reads path over the defaults. An empty path yields the defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown database.backend %q", c.Database.Backend)
	}
	if c.Game.MapSize <= 0 {
		return fmt.Errorf("game.map_size must be positive, got %d", c.Game.MapSize)
	}
	if c.Game.LootFraction <= 0 || c.Game.LootFraction > 1 {
		return fmt.Errorf("game.loot_fraction must be in (0, 1], got %v", c.Game.LootFraction)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("CIVICO_DB_DSN")); v != "" {
		cfg.Database.DSN = v
		cfg.Database.Backend = BackendPostgres
	}
	if v := strings.TrimSpace(os.Getenv("CIVICO_HTTP_ADDR")); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("CIVICO_WS_ADDR")); v != "" {
		cfg.Server.WSAddr = v
	}
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        ":8080",
			WSAddr:          ":8081",
			WSPath:          "/ws",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Backend:         BackendSQLite,
			SQLitePath:      "civico.db",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			AutoMigrate:     true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Game: GameConfig{
			MapSize:          100,
			PacifismCooldown: 24 * time.Hour,
			LootFraction:     0.5,
			MaxAttempts:      3,
		},
		RateLimit: RateLimitConfig{
			MessagesPerSecond: 10,
			Burst:             20,
		},
	}
}
