package finder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facilityfinder/internal/db/postgres"
	"github.com/kailas-cloud/facilityfinder/internal/domain/facility"
	"github.com/kailas-cloud/facilityfinder/internal/domain/search/request"
	"github.com/kailas-cloud/facilityfinder/internal/metrics"
	facilityrepo "github.com/kailas-cloud/facilityfinder/internal/repository/facility"
	healthuc "github.com/kailas-cloud/facilityfinder/internal/usecase/health"
	searchuc "github.com/kailas-cloud/facilityfinder/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped out in tests.
type searchUseCase interface {
	SearchNearby(ctx context.Context, req request.Nearby) ([]facility.Record, error)
	SearchGlobalByKeyword(ctx context.Context, req request.Keyword) ([]facility.Record, error)
}

type closer interface {
	Close()
}

// Client is the facility search SDK entry point. It is safe for concurrent use.
type Client struct {
	pool      closer
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer

	defaultResults int
}

// New creates a Client, opens the connection pool and waits until the database answers.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.dsn == "" {
		return nil, errors.New("finder: connection string required (use WithPostgres)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	pool, err := postgres.New(ctx, poolConfig(cfg), zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("finder: create pool: %w", err)
	}

	if err := pool.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		pool.Close()
		return nil, fmt.Errorf("finder: database not ready: %w", err)
	}

	if cfg.metricsReg != nil {
		for _, c := range metrics.PoolCollectors(pool.Stats) {
			if err := cfg.metricsReg.Register(c); err != nil {
				pool.Close()
				return nil, fmt.Errorf("finder: register pool metrics: %w", err)
			}
		}
	}

	c, err := wireClient(pool, cfg, obs)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		table:            facilityrepo.DefaultTable,
		minConns:         1,
		maxConns:         10,
		acquirePolicy:    PolicyBlock,
		acquireTimeout:   5 * time.Second,
		queryTimeout:     10 * time.Second,
		maxResults:       request.MaxResultsLimit,
		defaultResults:   request.DefaultMaxResults,
		readinessTimeout: defaultReadinessTimeout,
	}
}

func poolConfig(cfg *clientConfig) postgres.Config {
	return postgres.Config{
		DSN:             cfg.dsn,
		MinConns:        cfg.minConns,
		MaxConns:        cfg.maxConns,
		AcquirePolicy:   postgres.Policy(cfg.acquirePolicy),
		AcquireTimeout:  cfg.acquireTimeout,
		ApplicationName: "facilityfinder-sdk",
	}
}

// connPool is what wireClient needs from the connection pool.
type connPool interface {
	searchuc.Pool
	healthuc.Pinger
	closer
}

func wireClient(p connPool, cfg *clientConfig, obs *observer) (*Client, error) {
	repo, err := facilityrepo.New(cfg.table, obs.queryDuration())
	if err != nil {
		return nil, fmt.Errorf("finder: %w", err)
	}

	searchSvc := searchuc.New(p, repo,
		searchuc.WithQueryTimeout(cfg.queryTimeout),
		searchuc.WithMaxResultsLimit(cfg.maxResults),
	)

	return &Client{
		pool:      p,
		searchSvc: searchSvc,
		healthSvc: healthuc.New(p, nil),
		obs:       obs,

		defaultResults: cfg.defaultResults,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

// SearchNearby returns facilities within q.RadiusMeters of the point.
// With a keyword, hits are ordered by descending similarity.
func (c *Client) SearchNearby(ctx context.Context, q NearbyQuery) (_ []Facility, err error) {
	start := time.Now()
	var recs []facility.Record
	defer func() { c.obs.observe(ctx, "search_nearby", start, len(recs), err) }()

	req, err := request.NewNearby(q.Latitude, q.Longitude, q.RadiusMeters, c.limit(q.MaxResults), q.Keyword)
	if err != nil {
		return nil, err
	}
	recs, err = c.searchSvc.SearchNearby(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search nearby: %w", err)
	}
	return facilitiesFromRecords(recs), nil
}

// SearchByKeyword returns facilities ranked by similarity to q.Keyword.
// A blank keyword fails with ErrMissingParameter.
func (c *Client) SearchByKeyword(ctx context.Context, q KeywordQuery) (_ []Facility, err error) {
	start := time.Now()
	var recs []facility.Record
	defer func() { c.obs.observe(ctx, "search_by_keyword", start, len(recs), err) }()

	req, err := request.NewKeyword(q.Keyword, c.limit(q.MaxResults))
	if err != nil {
		return nil, err
	}
	recs, err = c.searchSvc.SearchGlobalByKeyword(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search by keyword: %w", err)
	}
	return facilitiesFromRecords(recs), nil
}

func (c *Client) limit(n *int) int {
	if n == nil {
		return c.defaultResults
	}
	return *n
}
