package postgres

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kailas-cloud/facilityfinder/internal/db"
)

// Compile-time check: Conn implements db.Conn.
var _ db.Conn = (*Conn)(nil)

// Conn is a checked-out connection. It must be handed back to the pool
// with Release or Discard exactly once; further calls are ignored.
type Conn struct {
	lease    lease
	broken   atomic.Bool
	returned atomic.Bool
}

// Query runs sql with args bound as parameters and materializes every row.
// If the physical connection died during the call the error wraps db.ErrConnBroken.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) ([]db.Row, error) {
	if c.returned.Load() {
		return nil, &db.Error{Op: db.OpQuery, Err: db.ErrClosed}
	}

	rows, err := c.lease.query(ctx, sql, args...)
	if err != nil {
		if c.lease.closed() {
			c.broken.Store(true)
			return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("%w: %w", db.ErrConnBroken, err)}
		}
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return rows, nil
}

// Broken reports whether the physical connection can no longer be reused.
func (c *Conn) Broken() bool {
	return c.broken.Load() || c.lease.closed()
}
