package server

import (
	"context"
	"log/slog"

	"fee-management-system/app/config"
	"fee-management-system/app/database"
	"fee-management-system/app/services"
)

// OpenStore returns the configured store, migrated and ready, with its
// closer.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (services.Store, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		return database.NewMemoryStore(), func() {}, nil
	}

	db, err := config.InitDB(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := database.RunMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, nil, err
	}
	return database.NewStore(db), func() { db.Close() }, nil
}
