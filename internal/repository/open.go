package repository

import (
	"context"
	"fmt"

	"bizledger/internal/config"
	"bizledger/internal/db"

	"go.uber.org/zap"
)

// Open connects the backend named by cfg.StoreDriver and brings its schema
// up to date before returning it.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
		return NewPostgres(pool), nil
	case config.DriverMongo:
		client, err := db.NewMongoClient(ctx, cfg.MongoURI, logger)
		if err != nil {
			return nil, err
		}
		repo := NewMongo(client, cfg.MongoDatabase)
		if err := db.EnsureMongoIndexes(ctx, repo.db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info("mongo indexes ready", zap.String("database", cfg.MongoDatabase))
		return repo, nil
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
