package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// DefaultPath is used when WORLDKEEPER_CONFIG is not set.
const DefaultPath = "config/worldkeeper.toml"

type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Logging   LoggingConfig   `toml:"logging"`
	Database  DatabaseConfig  `toml:"database"`
	Scripting ScriptingConfig `toml:"scripting"`
}

type StorageConfig struct {
	SaveDir       string `toml:"save_dir" env:"WORLDKEEPER_SAVE_DIR"`
	BackupDir     string `toml:"backup_dir" env:"WORLDKEEPER_BACKUP_DIR"`
	BackupLimit   int    `toml:"backup_limit" env:"WORLDKEEPER_BACKUP_LIMIT"` // backups kept after each save
	AutosaveTicks int    `toml:"autosave_ticks"`                              // 0 = off
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"WORLDKEEPER_LOG_LEVEL"`
	Format string `toml:"format" env:"WORLDKEEPER_LOG_FORMAT"` // "json" or "console"
}

// DatabaseConfig points at the optional save-history database.
// An empty DSN disables it.
type DatabaseConfig struct {
	DSN             string        `toml:"dsn" env:"WORLDKEEPER_DATABASE_DSN"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type ScriptingConfig struct {
	SeedScript string `toml:"seed_script" env:"WORLDKEEPER_SEED_SCRIPT"`
}

// Load reads the TOML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the config file location, honouring WORLDKEEPER_CONFIG.
func Path() string {
	if p := os.Getenv("WORLDKEEPER_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

func (c *Config) Validate() error {
	if c.Storage.SaveDir == "" {
		return errors.New("storage.save_dir is empty")
	}
	if c.Storage.BackupDir == "" {
		return errors.New("storage.backup_dir is empty")
	}
	if c.Storage.BackupLimit < 1 {
		return fmt.Errorf("storage.backup_limit must be at least 1, got %d", c.Storage.BackupLimit)
	}
	if c.Storage.AutosaveTicks < 0 {
		return fmt.Errorf("storage.autosave_ticks must not be negative, got %d", c.Storage.AutosaveTicks)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q: want json or console", c.Logging.Format)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			SaveDir:     "saves",
			BackupDir:   "backups/saves",
			BackupLimit: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Scripting: ScriptingConfig{
			SeedScript: "scripts/seed.lua",
		},
	}
}
