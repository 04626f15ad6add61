package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hiretop/matching-service/internal/config"
	"hiretop/matching-service/internal/db"
	"hiretop/matching-service/internal/logger"
)

// runtime holds the connections shared by every command.
type runtime struct {
	cfg  *config.Config
	log  *zap.Logger
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// bootstrap loads config and opens PostgreSQL and, when withRedis is set,
// Redis. Call close when done.
func bootstrap(ctx context.Context, withRedis bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	lg, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	rt := &runtime{cfg: cfg, log: lg.Named(app)}

	rt.log.Info("connecting to PostgreSQL")
	rt.pool, err = db.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	rt.log.Info("PostgreSQL connected")

	if withRedis {
		rt.log.Info("connecting to Redis")
		rt.rdb, err = db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			rt.pool.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		rt.log.Info("Redis connected")
	}
	return rt, nil
}

func (rt *runtime) close() {
	if rt.rdb != nil {
		if err := rt.rdb.Close(); err != nil {
			rt.log.Warn("closing redis", zap.Error(err))
		}
	}
	rt.pool.Close()
	_ = rt.log.Sync()
}
