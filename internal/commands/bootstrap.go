package commands

import (
	"context"
	"log/slog"

	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	"github.com/SscSPs/cashdesk/internal/platform/config"
	"github.com/SscSPs/cashdesk/internal/repositories/cache"
	"github.com/SscSPs/cashdesk/internal/repositories/database/pgsql"
	"github.com/SscSPs/cashdesk/internal/repositories/memory"
	"github.com/SscSPs/cashdesk/pkg/database"
	"github.com/redis/go-redis/v9"
)

// infrastructure holds the storage wiring for one process and how to tear it down.
type infrastructure struct {
	repos   portsrepo.RepositoryProvider
	redis   *redis.Client
	closers []func()
}

func (i *infrastructure) Close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
}

// buildInfrastructure connects the configured storage driver and idempotency store.
func buildInfrastructure(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{}

	var idempotency portsrepo.IdempotencyStore
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		infra.redis = client
		infra.closers = append(infra.closers, func() { _ = client.Close() })
		idempotency = cache.NewRedisIdempotencyStore(client)
		logger.Info("Using redis for idempotency keys and rate limits")
	} else {
		store := cache.NewInMemoryIdempotencyStore(0)
		infra.closers = append(infra.closers, func() { _ = store.Close() })
		idempotency = store
	}

	switch cfg.StorageDriver {
	case config.StorageMemory:
		infra.repos = memory.NewRepositoryProvider(memory.NewStore(), idempotency)
		logger.Warn("Using in-memory storage; data is lost on restart")
	default:
		if cfg.RunMigrations {
			if err := database.RunMigrations(logger, cfg.DatabaseURL, cfg.MigrationsPath, database.MigrateUp); err != nil {
				infra.Close()
				return nil, err
			}
		}
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.closers = append(infra.closers, func() { database.ClosePgxPool(dbPool) })
		infra.repos = pgsql.NewRepositoryProvider(dbPool, idempotency)
	}
	return infra, nil
}
