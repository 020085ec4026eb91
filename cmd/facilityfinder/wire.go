package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facilityfinder/internal/config"
	"github.com/kailas-cloud/facilityfinder/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/facilityfinder/internal/db/redis"
	"github.com/kailas-cloud/facilityfinder/internal/metrics"
	facilityrepo "github.com/kailas-cloud/facilityfinder/internal/repository/facility"
	"github.com/kailas-cloud/facilityfinder/internal/repository/searchcache"
	chiTransport "github.com/kailas-cloud/facilityfinder/internal/transport/chi"
	healthuc "github.com/kailas-cloud/facilityfinder/internal/usecase/health"
	searchuc "github.com/kailas-cloud/facilityfinder/internal/usecase/search"
)

type services struct {
	search chiTransport.Searcher
	health chiTransport.HealthChecker
}

// closers runs registered cleanups in reverse order.
type closers []func()

func (c *closers) add(f func()) { *c = append(*c, f) }

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// wire connects to Postgres and, when enabled, Redis, then builds the use cases.
// The returned cleanup closes whatever was opened.
func wire(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ services, cleanup func(), err error) {
	var cl closers
	defer func() {
		if err != nil {
			cl.run()
		}
	}()
	ready := time.Duration(cfg.Database.ReadinessTimeoutSec) * time.Second

	metrics.Register()

	pool, err := postgres.New(ctx, poolConfig(cfg), logger)
	if err != nil {
		return services{}, nil, fmt.Errorf("create pool: %w", err)
	}
	cl.add(pool.Close)
	pool.WithAcquireCounter(metrics.PoolAcquireTotal)
	metrics.RegisterPool(pool.Stats)
	if err := pool.WaitForReady(ctx, ready); err != nil {
		return services{}, nil, err
	}
	logger.Info("database ready")

	repo, err := facilityrepo.New(cfg.Database.Table, metrics.QueryDuration)
	if err != nil {
		return services{}, nil, fmt.Errorf("facility table: %w", err)
	}

	opts := []searchuc.Option{
		searchuc.WithQueryTimeout(cfg.Database.QueryTimeout()),
		searchuc.WithMaxResultsLimit(cfg.Search.MaxResultsLimit),
	}

	// Must stay a nil interface, not a typed nil, when the cache is off.
	var cachePinger healthuc.Pinger
	if cfg.Cache.Enabled {
		store, err := dbRedis.NewStore(cacheConfig(cfg))
		if err != nil {
			return services{}, nil, fmt.Errorf("create cache: %w", err)
		}
		cl.add(store.Close)
		if err := store.WaitForReady(ctx, ready); err != nil {
			return services{}, nil, err
		}
		ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
		opts = append(opts, searchuc.WithCache(
			searchcache.New(store, cfg.Cache.KeyPrefix, ttl, metrics.CacheTotal, logger)))
		cachePinger = store
		logger.Info("result cache ready", zap.Strings("addrs", cfg.Cache.Addrs), zap.Duration("ttl", ttl))
	}

	return services{
		search: searchuc.New(pool, repo, opts...),
		health: healthuc.New(pool, cachePinger),
	}, cl.run, nil
}

func poolConfig(cfg *config.Config) postgres.Config {
	d := cfg.Database
	pc := postgres.Config{
		DSN:             d.DSN(),
		MinConns:        int32(d.MinConns), //nolint:gosec // bounded by Validate
		MaxConns:        int32(d.MaxConns), //nolint:gosec // bounded by Validate
		AcquirePolicy:   postgres.Policy(d.AcquirePolicy),
		AcquireTimeout:  d.AcquireTimeout(),
		MaxConnLifetime: time.Duration(d.MaxConnLifetimeSec) * time.Second,
		ApplicationName: "facilityfinder",
	}
	if b := cfg.Breaker; b.Enabled {
		pc.Breaker = &postgres.BreakerConfig{
			MaxRequests: b.MaxRequests,
			Interval:    time.Duration(b.IntervalSec) * time.Second,
			Timeout:     time.Duration(b.TimeoutSec) * time.Second,
			TripRatio:   b.TripRatio,
		}
	}
	return pc
}

func cacheConfig(cfg *config.Config) dbRedis.Config {
	c := cfg.Cache
	return dbRedis.Config{
		Addrs:       c.Addrs,
		Username:    c.Username,
		Password:    c.Password,
		DB:          c.DB,
		DialTimeout: time.Duration(c.DialTimeoutSec) * time.Second,
	}
}
