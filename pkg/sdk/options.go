package finder

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Acquire policies accepted by WithAcquirePolicy.
const (
	PolicyBlock    = "block"
	PolicyFailFast = "fail_fast"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dsn   string
	table string

	minConns       int32
	maxConns       int32
	acquirePolicy  string
	acquireTimeout time.Duration
	queryTimeout   time.Duration
	maxResults     int
	defaultResults int

	readinessTimeout time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithPostgres sets the PostgreSQL connection string (URL or key=value form).
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dsn = dsn
	})
}

// WithTable sets the facility table, optionally schema-qualified.
// Default: medical_institutions.
func WithTable(table string) Option {
	return optionFunc(func(c *clientConfig) {
		c.table = table
	})
}

// WithPoolSize sets the number of connections kept open and the checkout ceiling.
// Defaults: 1 and 10.
func WithPoolSize(minConns, maxConns int32) Option {
	return optionFunc(func(c *clientConfig) {
		c.minConns = minConns
		c.maxConns = maxConns
	})
}

// WithAcquirePolicy selects what happens when all connections are checked out:
// PolicyBlock waits up to timeout, PolicyFailFast fails immediately.
func WithAcquirePolicy(policy string, timeout time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.acquirePolicy = policy
		c.acquireTimeout = timeout
	})
}

// WithQueryTimeout bounds each search query.
func WithQueryTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryTimeout = d
	})
}

// WithMaxResultsLimit caps MaxResults on every query. Default: 500.
func WithMaxResultsLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxResults = n
	})
}

// WithDefaultMaxResults sets the cap used when a query leaves MaxResults nil.
// Default: 30.
func WithDefaultMaxResults(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultResults = n
	})
}

// WithReadinessTimeout bounds the connectivity check in New. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts, durations and pool gauges)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
