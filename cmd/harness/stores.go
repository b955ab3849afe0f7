package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gourl/asyncharness/internal/cache"
	"github.com/gourl/asyncharness/internal/config"
	"github.com/gourl/asyncharness/internal/database"
	"github.com/gourl/asyncharness/internal/snapshot"
	"github.com/gourl/asyncharness/pkg/logger"
)

// snapshotFile is the document the file backend keeps under the snapshot dir.
const snapshotFile = "suite.snap.json"

// openStore builds the configured snapshot backend along with a func that
// releases its connections.
func openStore(ctx context.Context, c *config.Config, log *logger.Logger) (snapshot.Store, func(), error) {
	noop := func() {}

	switch c.Snapshot.Backend {
	case config.BackendMemory:
		return snapshot.NewMemoryStore(), noop, nil

	case config.BackendFile:
		store, err := snapshot.NewFileStore(filepath.Join(c.Snapshot.Dir, snapshotFile))
		if err != nil {
			return nil, nil, err
		}
		log.Debug("using file snapshots", "path", store.Path())
		return store, noop, nil

	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, &c.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Debug("using redis snapshots", "host", c.Redis.Host, "prefix", c.Redis.KeyPrefix)
		closeFn := func() {
			if err := rc.Close(); err != nil {
				log.Warn("failed to close redis", "error", err)
			}
		}
		return snapshot.NewRedisStore(rc, c.Redis.KeyPrefix), closeFn, nil

	case config.BackendPostgres:
		pool, err := openPool(ctx, c, log)
		if err != nil {
			return nil, nil, err
		}
		return snapshot.NewPostgresStore(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, c.Snapshot.Backend)
	}
}

// openPool connects to Postgres and brings the schema up to date.
func openPool(ctx context.Context, c *config.Config, log *logger.Logger) (*database.Pool, error) {
	pool, err := database.NewPool(ctx, &c.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	migrator, err := database.NewMigrator(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	applied, err := migrator.Up(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if applied > 0 {
		log.Info("applied migrations", "count", applied)
	}
	return pool, nil
}
