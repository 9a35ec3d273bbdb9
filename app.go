package objstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Controllers groups the controllers an App exposes to hooks.
type Controllers struct {
	Database DatabaseController
}

// App wires configuration, storage and the hook engine together. Hooks reach it
// through RequestContext.App.
type App struct {
	Config      *Config
	Controllers Controllers
	Hooks       *Engine
	Store       *Controller // Same value as Controllers.Database, with the CRUD entry points

	db *sql.DB
}

// New builds an App over an open database. The hook registry is validated here,
// so a malformed descriptor fails at startup with a *ConfigurationError.
//
// opts apply to both the query session and the hook engine, after the options
// derived from cfg.
func New(cfg Config, db *sql.DB, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dialect, err := DialectByName(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	registry, err := NewRegistry(cfg.HookDescriptors())
	if err != nil {
		return nil, err
	}

	sessionOpts := append(thresholdOption(cfg.Logging.SlowQueryThreshold), WithVerboseLogging(cfg.Logging.QueryLogging))
	engineOpts := append(thresholdOption(cfg.Hooks.SlowHookThreshold), WithVerboseLogging(cfg.Hooks.LogChains))
	sessionOpts = append(sessionOpts, opts...)
	engineOpts = append(engineOpts, opts...)

	store := NewController(NewSession(db, dialect, sessionOpts...), cfg.Database.Table)
	return &App{
		Config:      &cfg,
		Controllers: Controllers{Database: store},
		Hooks:       NewEngine(registry, engineOpts...),
		Store:       store,
		db:          db,
	}, nil
}

// thresholdOption keeps the default threshold when d is unset.
func thresholdOption(d time.Duration) []Option {
	if d <= 0 {
		return nil
	}
	return []Option{WithSlowThreshold(d)}
}

// Open opens the configured database, builds the App and migrates the document table.
// The driver must be registered by the caller (for example with a blank import).
func Open(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("objstore: open database: %w", err)
	}
	if cfg.Database.Driver == "sqlite3" {
		// SQLite allows one writer; a single connection also keeps :memory: databases shared.
		db.SetMaxOpenConns(1)
	}

	app, err := New(cfg, db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := app.Store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

// Close closes the underlying database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// NewContext returns a request context bound to the App.
func (a *App) NewContext(isRoot bool) *RequestContext {
	return &RequestContext{IsRoot: isRoot, App: a}
}
