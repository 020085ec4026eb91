package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/facilityfinder/internal/db"
)

// Compile-time check: Pool implements db.Pool.
var _ db.Pool = (*Pool)(nil)

// Policy decides what Acquire does when every connection is checked out.
type Policy string

// Acquire policies.
const (
	// PolicyBlock waits up to the acquire timeout for a connection to be returned.
	PolicyBlock Policy = "block"
	// PolicyFailFast returns ErrPoolExhausted immediately.
	PolicyFailFast Policy = "fail_fast"
)

// IsValid checks if the policy is one of the supported values.
func (p Policy) IsValid() bool { return p == PolicyBlock || p == PolicyFailFast }

// BreakerConfig configures the circuit breaker guarding new checkouts.
type BreakerConfig struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	TripRatio   float64
}

// Config holds pool sizing and policy.
type Config struct {
	DSN             string
	MinConns        int32
	MaxConns        int32
	AcquirePolicy   Policy
	AcquireTimeout  time.Duration
	MaxConnLifetime time.Duration
	ApplicationName string
	// Breaker is nil when the circuit breaker is disabled.
	Breaker *BreakerConfig
}

// Pool is a bounded connection pool. At most MaxConns connections are checked out
// at any time; physical connections are opened lazily up to the same ceiling and
// MinConns are kept warm by pgxpool.
type Pool struct {
	backend        backend
	sem            *semaphore.Weighted
	maxConns       int
	inUse          atomic.Int64
	policy         Policy
	acquireTimeout time.Duration
	breaker        *gobreaker.CircuitBreaker
	acquireTotal   *prometheus.CounterVec
	logger         *zap.Logger
	closed         atomic.Bool
}

// New creates a pool backed by pgxpool. No connection is required to exist yet;
// reachability is checked by WaitForReady or on first Acquire.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Pool, error) {
	if cfg.MaxConns <= 0 {
		return nil, fmt.Errorf("max conns must be positive, got %d", cfg.MaxConns)
	}
	if cfg.MinConns < 0 || cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("min conns must be between 0 and %d, got %d", cfg.MaxConns, cfg.MinConns)
	}

	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pcfg.MinConns = cfg.MinConns
	pcfg.MaxConns = cfg.MaxConns
	if cfg.MaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.ApplicationName != "" {
		pcfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	return newPool(&pgxBackend{pool: pool}, cfg, logger), nil
}

func newPool(b backend, cfg Config, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := cfg.AcquirePolicy
	if policy == "" {
		policy = PolicyBlock
	}

	p := &Pool{
		backend:        b,
		sem:            semaphore.NewWeighted(int64(cfg.MaxConns)),
		maxConns:       int(cfg.MaxConns),
		policy:         policy,
		acquireTimeout: cfg.AcquireTimeout,
		logger:         logger,
	}
	if cfg.Breaker != nil {
		p.breaker = newBreaker(*cfg.Breaker, logger)
	}
	return p
}

// WithAcquireCounter records acquire outcomes ("ok", "exhausted", "unavailable")
// on a counter vec with a single "result" label.
func (p *Pool) WithAcquireCounter(c *prometheus.CounterVec) *Pool {
	p.acquireTotal = c
	return p
}

// Acquire checks out a connection according to the pool policy.
// Errors wrap db.ErrPoolExhausted, db.ErrUnavailable or db.ErrClosed.
func (p *Pool) Acquire(ctx context.Context) (db.Conn, error) {
	if p.closed.Load() {
		return nil, &db.Error{Op: db.OpAcquire, Err: db.ErrClosed}
	}

	wait := ctx
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	if err := p.reserve(wait); err != nil {
		// The caller gave up: not an exhaustion signal.
		if cerr := ctx.Err(); cerr != nil {
			p.count("canceled")
			return nil, &db.Error{Op: db.OpAcquire, Err: cerr}
		}
		p.count("exhausted")
		return nil, &db.Error{Op: db.OpAcquire, Err: err}
	}
	ctx = wait

	l, err := p.open(ctx)
	if err != nil {
		p.sem.Release(1)
		p.count("unavailable")
		return nil, &db.Error{Op: db.OpAcquire, Err: fmt.Errorf("%w: %w", db.ErrUnavailable, err)}
	}

	p.inUse.Add(1)
	p.count("ok")
	return &Conn{lease: l}, nil
}

// Release returns a healthy connection to the pool. A connection that turned out
// to be broken is discarded instead. Returning a connection twice is a no-op.
func (p *Pool) Release(c db.Conn) { p.checkin(c, false) }

// Discard closes the physical connection; pgxpool opens a replacement lazily.
func (p *Pool) Discard(c db.Conn) { p.checkin(c, true) }

func (p *Pool) checkin(c db.Conn, discard bool) {
	pc, ok := c.(*Conn)
	if !ok || pc == nil {
		return
	}
	if !pc.returned.CompareAndSwap(false, true) {
		return
	}
	if discard || pc.Broken() {
		pc.lease.destroy()
	} else {
		pc.lease.release()
	}
	p.inUse.Add(-1)
	p.sem.Release(1)
}

// Stats returns a snapshot of pool occupancy.
func (p *Pool) Stats() db.PoolStats {
	total, idle := p.backend.stat()
	return db.PoolStats{
		MaxConns:   p.maxConns,
		InUse:      int(p.inUse.Load()),
		TotalConns: total,
		IdleConns:  idle,
	}
}

// Ping checks connectivity. A saturated pool is serving queries and counts as reachable.
func (p *Pool) Ping(ctx context.Context) error {
	if p.closed.Load() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	if !p.sem.TryAcquire(1) {
		return nil
	}
	defer p.sem.Release(1)

	if err := p.backend.ping(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// WaitForReady blocks until Ping succeeds, backing off between attempts, or timeout expires.
func (p *Pool) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitReady(ctx, timeout, "database", p)
}

// Close shuts down every physical connection. Further Acquire calls fail with db.ErrClosed.
func (p *Pool) Close() {
	if p.closed.CompareAndSwap(false, true) {
		p.backend.close()
	}
}

func (p *Pool) reserve(ctx context.Context) error {
	if p.policy == PolicyFailFast {
		if !p.sem.TryAcquire(1) {
			return db.ErrPoolExhausted
		}
		return nil
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %w", db.ErrPoolExhausted, err)
	}
	return nil
}

func (p *Pool) open(ctx context.Context) (lease, error) {
	if p.breaker == nil {
		return p.backend.acquire(ctx)
	}
	v, err := p.breaker.Execute(func() (interface{}, error) {
		return p.backend.acquire(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(lease), nil
}

func (p *Pool) count(result string) {
	if p.acquireTotal != nil {
		p.acquireTotal.WithLabelValues(result).Inc()
	}
}

func newBreaker(cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	ratio := cfg.TripRatio
	if ratio <= 0 {
		ratio = 0.6
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "postgres",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= ratio
		},
		// A caller giving up is not a database failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}
