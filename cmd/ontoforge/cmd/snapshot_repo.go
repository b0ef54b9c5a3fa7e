package cmd

import (
	"context"
	"fmt"

	"github.com/dbsmedya/ontoforge/internal/config"
	"github.com/dbsmedya/ontoforge/internal/database"
	"github.com/dbsmedya/ontoforge/internal/exporter"
	"github.com/dbsmedya/ontoforge/internal/logger"
	"github.com/dbsmedya/ontoforge/internal/schema"
	"github.com/dbsmedya/ontoforge/internal/snapshot"
)

// newDatabaseManager creates the snapshot database manager; tests replace it.
var newDatabaseManager = database.NewManager

// openSnapshots connects to the snapshot database and makes sure the table exists.
// The returned function closes the connection.
func openSnapshots(ctx context.Context, cfg *config.Config, log *logger.Logger) (*snapshot.Repository, func(), error) {
	if !cfg.Snapshot.Enabled {
		return nil, nil, fmt.Errorf("snapshots are disabled (set snapshot.enabled in %s)", GetConfigFile())
	}

	mgr := newDatabaseManager(&cfg.Database, log)
	if err := mgr.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to snapshot database: %w", err)
	}
	closeFn := func() {
		if err := mgr.Close(); err != nil {
			log.Warnw("failed to close snapshot database", "error", err)
		}
	}

	repo, err := snapshot.NewRepository(mgr.DB, cfg.Snapshot.Table, cfg.Snapshot.LockTimeoutSeconds, log)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if err := repo.EnsureTable(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return repo, closeFn, nil
}

// saveSnapshot stores store as the next snapshot of the configured ontology.
func saveSnapshot(ctx context.Context, cfg *config.Config, log *logger.Logger, store *schema.Store) (*snapshot.Snapshot, bool, error) {
	repo, closeFn, err := openSnapshots(ctx, cfg, log)
	if err != nil {
		return nil, false, err
	}
	defer closeFn()

	doc := exporter.BuildDocument(store, exporter.Options{Mode: cfg.Discovery.Mode})
	return repo.Save(ctx, cfg.Snapshot.Ontology, doc)
}

// latestSnapshot loads the newest snapshot of the configured ontology.
func latestSnapshot(ctx context.Context, cfg *config.Config, log *logger.Logger) (*snapshot.Snapshot, error) {
	repo, closeFn, err := openSnapshots(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	return repo.Latest(ctx, cfg.Snapshot.Ontology)
}
