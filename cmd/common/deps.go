// Package common wires the shared dependencies used by every subcommand.
package common

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/graphweave/internal/config"
	"github.com/jonesrussell/graphweave/internal/database"
	"github.com/jonesrussell/graphweave/internal/logger"
	"github.com/jonesrussell/graphweave/internal/metrics"
)

// Deps holds the dependencies every subcommand starts from: validated
// configuration, a logger, a database handle, and the entry store
// repositories.
type Deps struct {
	Config  *config.Config
	Logger  logger.Interface
	DB      *sqlx.DB
	Entries *database.EntryRepository
	Links   *database.LinkRepository
	Metrics *metrics.Metrics
}

// BuildDeps loads configuration, connects to Postgres, and ensures the
// schema exists. Callers must Close the returned deps.
func BuildDeps(ctx context.Context) (*Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &Deps{
		Config:  cfg,
		Logger:  log,
		DB:      db,
		Entries: database.NewEntryRepository(db),
		Links:   database.NewLinkRepository(db),
		Metrics: metrics.New(),
	}, nil
}

// Close releases the database handle.
func (d *Deps) Close() {
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Error("failed to close database", "error", err.Error())
		}
	}
}
