package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/warp/timesheet-engine/api"
	"github.com/warp/timesheet-engine/config"
	"github.com/warp/timesheet-engine/factory"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/generic/store"
	"github.com/warp/timesheet-engine/store/cache"
	"github.com/warp/timesheet-engine/store/sheets"
	"github.com/warp/timesheet-engine/store/sqlite"
	"github.com/warp/timesheet-engine/timesheet"
)

// App is the wired engine shared by every command.
type App struct {
	Config    *config.Config
	Log       zerolog.Logger
	Clock     generic.Clock
	Ledger    *timesheet.Ledger
	Directory *timesheet.RowDirectory
	Checks    map[string]api.HealthCheck

	closers []func() error
}

// NewApp builds the store stack, policy and ledger described by cfg.
// A nil clock reads the system time in the configured timezone.
func NewApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, clock generic.Clock) (*App, error) {
	app := &App{
		Config: cfg,
		Log:    log,
		Clock:  clock,
		Checks: make(map[string]api.HealthCheck),
	}

	if app.Clock == nil {
		loc, err := cfg.Location()
		if err != nil {
			return nil, err
		}
		app.Clock = generic.SystemClock{Location: loc}
	}

	rows, err := app.openStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	if rows, err = app.wrapCache(ctx, rows); err != nil {
		app.Close()
		return nil, err
	}

	policy := timesheet.DefaultPolicy()
	if cfg.PolicyFile != "" {
		if policy, err = factory.NewPolicyFactory().LoadFile(cfg.PolicyFile); err != nil {
			app.Close()
			return nil, err
		}
		log.Info().Str("file", cfg.PolicyFile).Msg("loaded program policy")
	}

	datasets := timesheet.DefaultDatasets()
	datasets.TimesheetRange = cfg.Store.TimesheetRange
	datasets.WorkersRange = cfg.Store.WorkersRange

	app.Directory = timesheet.NewRowDirectory(rows, datasets.Workers, datasets.WorkersRange)
	app.Ledger = timesheet.NewLedger(rows,
		timesheet.WithPolicy(policy),
		timesheet.WithDatasets(datasets),
		timesheet.WithDirectory(app.Directory),
		timesheet.WithLogger(log.With().Str("component", "ledger").Logger()),
	)
	app.Checks["store"] = func(ctx context.Context) error {
		_, err := rows.ReadRows(ctx, datasets.Workers, datasets.WorkersRange)
		return err
	}
	return app, nil
}

// Close releases stores and connections in reverse order of opening.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func (a *App) openStore(ctx context.Context) (generic.RowStore, error) {
	cfg := a.Config
	switch cfg.Store.Backend {
	case config.BackendMemory:
		a.Log.Warn().Msg("using the in-memory store, nothing is persisted")
		return store.NewMemory(), nil

	case config.BackendSheets:
		st, err := sheets.New(ctx, sheets.Config{
			CredentialsFile: cfg.Sheets.CredentialsFile,
			Spreadsheets: map[string]string{
				"timesheet": cfg.Sheets.TimesheetSheetID,
				"workers":   cfg.Sheets.WorkersSheetID,
			},
			Timeout: cfg.Sheets.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sheets store: %w", err)
		}
		a.Log.Info().Msg("using the Google Sheets store")
		return st, nil

	default:
		path := cfg.Store.SQLitePath
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		st, err := sqlite.New(path, sqlite.WithBusyTimeout(cfg.Store.BusyTimeout))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.closers = append(a.closers, st.Close)
		a.Log.Info().Str("path", path).Msg("using the sqlite store")
		return st, nil
	}
}

func (a *App) wrapCache(ctx context.Context, inner generic.RowStore) (generic.RowStore, error) {
	cfg := a.Config.Cache
	log := a.Log.With().Str("component", "cache").Logger()

	switch cfg.Backend {
	case config.CacheNone:
		return inner, nil

	case config.CacheRedis:
		r, err := cache.ConnectRedis(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, r.Close)
		a.Checks["redis"] = r.Ping
		return cache.New(inner, r, cfg.TTL, log), nil

	default:
		return cache.New(inner, cache.NewMemory(), cfg.TTL, log), nil
	}
}
