package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/graphcrm/graphcrm/internal/cache"
	"github.com/graphcrm/graphcrm/internal/config"
	"github.com/graphcrm/graphcrm/internal/repository"
	"github.com/graphcrm/graphcrm/internal/repository/gormrepo"
	"github.com/graphcrm/graphcrm/internal/service"
)

// Store is a service store that owns a connection.
type Store interface {
	service.Store
	Close()
}

var (
	_ Store = (*repository.Repository)(nil)
	_ Store = (*gormrepo.Repository)(nil)
)

// OpenStore opens the store selected by DATABASE_URL: pgx for postgres://
// and GORM for sqlite://. The SQLite store migrates itself; PostgreSQL
// expects the SQL files under migrations/ to be applied.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	driver, dsn, err := cfg.Database()
	if err != nil {
		return nil, err
	}

	var store Store
	switch driver {
	case config.DriverPostgres:
		store, err = repository.New(ctx, dsn, repository.PoolOptions{
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
	case config.DriverSQLite:
		store, err = gormrepo.Open(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnsupportedDatabase, driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %s", driver, SanitizeError(err, cfg.DatabaseURL))
	}

	logger.Info("connected to database",
		slog.String("driver", driver),
		slog.String("database_url", RedactURL(cfg.DatabaseURL)),
	)
	return store, nil
}

// OpenCache connects to REDIS_URL. It returns (nil, nil) when Redis is not
// configured.
func OpenCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*cache.Cache, error) {
	if cfg.RedisURL == "" {
		logger.Info("redis not configured; rate limiting and job locks disabled")
		return nil, nil
	}

	c, err := cache.New(ctx, cfg.RedisURL, cache.Options{
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %s", SanitizeError(err, cfg.RedisURL))
	}

	logger.Info("connected to Redis", slog.String("redis_url", RedactURL(cfg.RedisURL)))
	return c, nil
}
