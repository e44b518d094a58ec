// Package app builds the process-wide dependencies shared by the commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/billing-service/internal/billing"
	"github.com/noah-isme/billing-service/internal/config"
	"github.com/noah-isme/billing-service/internal/health"
	"github.com/noah-isme/billing-service/internal/obs"
	"github.com/noah-isme/billing-service/internal/store/memory"
	mongostore "github.com/noah-isme/billing-service/internal/store/mongo"
	"github.com/noah-isme/billing-service/internal/store/postgres"
)

// Backend is an opened store together with its probe and cleanup.
type Backend struct {
	Store  billing.Store
	Pinger health.Pinger
	Close  func()
}

// Dependencies enumerates core services shared across modules.
type Dependencies struct {
	Backend    Backend
	Redis      *redis.Client
	TaskClient *asynq.Client
}

// Close releases every opened resource.
func (d *Dependencies) Close(logger zerolog.Logger) {
	if d.TaskClient != nil {
		if err := d.TaskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.Backend.Close != nil {
		d.Backend.Close()
	}
}

// Open wires the store selected by STORE_DRIVER and, when REDIS_URL is set,
// the Redis client and the asynq task client.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	backend, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps := &Dependencies{Backend: backend}
	if !cfg.RedisEnabled() {
		logger.Warn().Msg("REDIS_URL not set: cache, locks, idempotency and tasks disabled")
		return deps, nil
	}
	deps.Redis, err = OpenRedis(ctx, cfg.RedisURL, logger)
	if err != nil {
		deps.Close(logger)
		return nil, err
	}
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		deps.Close(logger)
		return nil, fmt.Errorf("parse redis uri for tasks: %w", err)
	}
	deps.TaskClient = asynq.NewClient(opt)
	return deps, nil
}

// OpenStore connects the configured persistence backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if cfg.MigrateOnStart {
			if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
				return Backend{}, fmt.Errorf("migrate: %w", err)
			}
			logger.Info().Msg("migrations applied")
		}
		pool, err := OpenPool(ctx, cfg)
		if err != nil {
			return Backend{}, err
		}
		store := postgres.New(pool)
		return Backend{Store: store, Pinger: store, Close: pool.Close}, nil
	case config.DriverMongo:
		store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return Backend{}, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure mongo indexes")
		}
		return Backend{Store: store, Pinger: store, Close: func() {
			if err := store.Close(context.Background()); err != nil {
				logger.Error().Err(err).Msg("disconnect mongo")
			}
		}}, nil
	case config.DriverMemory:
		store := memory.New()
		return Backend{Store: store, Pinger: store, Close: func() {}}, nil
	default:
		return Backend{}, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// OpenPool builds a traced pgx pool.
func OpenPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if cfg.DBMaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.DBMaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenRedis builds a traced Redis client and checks connectivity.
func OpenRedis(ctx context.Context, url string, logger zerolog.Logger) (*redis.Client, error) {
	if url == "" {
		return nil, errors.New("redis url is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
