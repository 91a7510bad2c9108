package cmd

import (
	"context"
	"fmt"

	"absbot/config"
	"absbot/database"
	"absbot/registry"
	"absbot/repository"

	log "github.com/sirupsen/logrus"
)

// openRegistry opens the configured store and brings its schema up to date.
// The returned func releases the store.
func openRegistry(ctx context.Context, cfg *config.Config) (registry.Registry, func(), error) {
	switch cfg.StorageDriver {
	case database.DriverMemory:
		log.Warn("Using in-memory storage; bindings are lost on restart")
		return registry.NewMemory(), func() {}, nil

	case database.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.DBPath, cfg.CallTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := database.RunSQLiteMigrations(cfg.DBPath); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run sqlite migrations: %w", err)
		}
		log.WithField("path", cfg.DBPath).Info("SQLite storage ready")
		return repository.NewSQLiteNotifyChannelRepository(db), func() { db.Close() }, nil

	case database.DriverPostgres:
		url := cfg.GetDatabaseURL()
		if err := database.RunMigrationsWithURL(url); err != nil {
			return nil, nil, fmt.Errorf("failed to run postgres migrations: %w", err)
		}
		db, err := database.NewConnection(ctx, url, database.WithConnectTimeout(cfg.CallTimeout), database.WithMaxConns(8))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("Postgres storage ready")
		return repository.NewNotifyChannelRepository(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
