package desktop

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sukesh_education/internal/config"
	"sukesh_education/internal/db"
	"sukesh_education/internal/handler"
	"sukesh_education/internal/observability"
	"sukesh_education/internal/user"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

// App is the migrated local database plus the server the window points at.
type App struct {
	Server *Server
	db     *sqlx.DB
}

// NewApp prepares a single-user install: SQLite, SQL sessions, inline mail,
// and the demo account.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.DB.Driver == "sqlite3" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	database, err := db.Connect(&cfg.DB)
	if err != nil {
		return nil, err
	}

	app, err := newApp(ctx, database, cfg)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, database *sqlx.DB, cfg *config.Config) (*App, error) {
	if err := db.Migrate(ctx, database); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	if _, err := user.SeedTestUser(ctx, handler.NewUserService(database, nil, nil, cfg, metrics)); err != nil {
		return nil, fmt.Errorf("seed test user: %w", err)
	}

	router, err := handler.SetupHandler(database, nil, nil, cfg, metrics, reg)
	if err != nil {
		return nil, err
	}

	srv, err := NewServer(router)
	if err != nil {
		return nil, err
	}
	return &App{Server: srv, db: database}, nil
}

// Close stops the server and releases the database.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Server.Shutdown(ctx), a.db.Close())
}
