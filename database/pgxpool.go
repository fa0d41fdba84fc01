package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/twingatebot/config"
	"go.uber.org/zap"
)

const connectTimeout = 7 * time.Second

// GetPool opens and pings the journal database.
func GetPool(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*pgxpool.Pool, error) {
	logger = logger.Named("database")
	if cfg.ConnString == "" {
		return nil, errors.New("database: CONNECTION_STRING is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	poolCfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("database: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	logger.Infof("db pool established, max conns %d", poolCfg.MaxConns)
	return pool, nil
}

// PoolConfig parses the DSN and applies the pool limits that are set.
func PoolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("database: parse config: %w", err)
	}
	if cfg.MaxPgxConn > 0 {
		poolCfg.MaxConns = cfg.MaxPgxConn
	}
	if cfg.MaxPgxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxPgxConnIdleTime
	}
	if cfg.MaxPgxConnLifeTime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxPgxConnLifeTime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	return poolCfg, nil
}
