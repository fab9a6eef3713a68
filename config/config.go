// Package config loads service settings from the environment with
// go-envconfig.
package config

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata" // containers often ship without zoneinfo

	"github.com/sethvargo/go-envconfig"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	// Timezone is the organization's local zone; dates and times of day
	// are recorded in it.
	Timezone string `env:"TIMEZONE, default=UTC"`

	// PolicyFile optionally overrides caps and categories (YAML or JSON).
	PolicyFile string `env:"POLICY_FILE"`

	Store  StoreConfig
	Sheets SheetsConfig
	Cache  CacheConfig
}

type StoreConfig struct {
	Backend        string        `env:"STORE_BACKEND,   default=sqlite"`
	SQLitePath     string        `env:"SQLITE_PATH,     default=./data/timesheet.db"`
	BusyTimeout    time.Duration `env:"SQLITE_BUSY_TIMEOUT, default=5s"`
	TimesheetRange string        `env:"TIMESHEET_RANGE, default=Sheet1!A:H"`
	WorkersRange   string        `env:"WORKERS_RANGE,   default=Sheet1!A:B"`
}

type SheetsConfig struct {
	CredentialsFile  string        `env:"SHEETS_CREDENTIALS_FILE"`
	TimesheetSheetID string        `env:"TIMESHEET_SHEET_ID"`
	WorkersSheetID   string        `env:"WORKERS_SHEET_ID"`
	Timeout          time.Duration `env:"SHEETS_TIMEOUT, default=15s"`
}

type CacheConfig struct {
	Backend   string        `env:"CACHE_BACKEND, default=memory"`
	TTL       time.Duration `env:"CACHE_TTL,     default=5s"`
	RedisAddr string        `env:"REDIS_ADDR,    default=localhost:6379"`
	RedisDB   int           `env:"REDIS_DB,      default=0"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations the tags cannot express.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Store.Backend {
	case BackendMemory, BackendSQLite:
	case BackendSheets:
		if c.Sheets.CredentialsFile == "" {
			return fmt.Errorf("config: SHEETS_CREDENTIALS_FILE is required for the sheets backend")
		}
		if c.Sheets.TimesheetSheetID == "" || c.Sheets.WorkersSheetID == "" {
			return fmt.Errorf("config: TIMESHEET_SHEET_ID and WORKERS_SHEET_ID are required for the sheets backend")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("config: unknown CACHE_BACKEND %q", c.Cache.Backend)
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: TIMEZONE: %w", err)
	}
	return loc, nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string { return ":" + c.Port }
