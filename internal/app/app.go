// Package app wires the OLAP service from configuration: catalog, record
// database, store and HTTP handler.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"duck-olap/internal/api"
	"duck-olap/internal/config"
	"duck-olap/internal/db"
	"duck-olap/internal/declarative"
	"duck-olap/internal/middleware"
	"duck-olap/internal/service/olap"
	"duck-olap/internal/store"
)

// Deps holds the external dependencies that main() must provide.
// The app package does not open the record database itself so callers
// control its lifetime.
type Deps struct {
	Cfg    *config.Config
	DB     *db.Handle
	Logger *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Registry *olap.Registry
	Store    *store.SQLStore
	Service  *olap.Service
	Handler  *api.Handler

	cfg    *config.Config
	logger *slog.Logger
}

// New loads the catalog, optionally seeds the sample dataset and wires the
// store, service and HTTP handler.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("record database handle is required")
	}

	dialect, err := store.ParseDialect(deps.DB.Driver)
	if err != nil {
		return nil, err
	}

	// === Sample data ===
	if cfg.SeedSample {
		if err := Seed(ctx, deps.DB, logger); err != nil {
			return nil, err
		}
	}

	// === Catalog ===
	registry, err := declarative.LoadRegistry(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", "path", cfg.CatalogPath, "subjects", registry.Subjects())

	// === Store + service ===
	st := store.New(deps.DB.Read, dialect, logger.With("component", "store"))
	svc := olap.NewService(registry, st, logger.With("component", "olap"))
	svc.SetRawSQL(cfg.AllowRawSQL)
	if cfg.AllowRawSQL {
		logger.Warn("raw SQL fragments are accepted in requests")
	}

	return &App{
		Registry: registry,
		Store:    st,
		Service:  svc,
		Handler:  api.NewHandler(svc, logger.With("component", "api"), cfg.QueryTimeout),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Router builds the HTTP router. ctx bounds background middleware work.
func (a *App) Router(ctx context.Context) http.Handler {
	return api.NewRouter(ctx, a.Handler, api.RouterConfig{
		Logger:             a.logger,
		CORSAllowedOrigins: a.cfg.CORSAllowedOrigins,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: a.cfg.RateLimitRPS,
			Burst:             a.cfg.RateLimitBurst,
		},
	})
}
