package db

import (
	"context"
	"time"
)

// Row is one materialized result row keyed by column name. NULL columns map to nil.
type Row = map[string]any

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Querier runs a read-only statement with positional parameters and returns the
// fully materialized result set.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) ([]Row, error)
}

// Conn is a connection checked out of a Pool. It must be handed back exactly once,
// via Release when healthy or Discard when broken.
type Conn interface {
	Querier
	// Broken reports whether the physical connection is no longer usable.
	Broken() bool
}

// Pool lends connections to requests.
type Pool interface {
	Pinger
	Acquire(ctx context.Context) (Conn, error)
	Release(c Conn)
	Discard(c Conn)
	Stats() PoolStats
}

// PoolStats is a snapshot of pool occupancy.
type PoolStats struct {
	// MaxConns is the ceiling on simultaneously checked-out connections.
	MaxConns int
	// InUse is the number of connections currently checked out.
	InUse int
	// TotalConns is the number of open physical connections.
	TotalConns int
	// IdleConns is the number of open physical connections not checked out.
	IdleConns int
}

// Available returns how many more connections can be checked out right now.
func (s PoolStats) Available() int { return s.MaxConns - s.InUse }

// KVStore provides simple key-value operations for caches.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
