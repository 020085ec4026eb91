package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/facilityfinder/internal/db"
)

const destroyTimeout = 5 * time.Second

// backend owns the physical connections.
type backend interface {
	acquire(ctx context.Context) (lease, error)
	ping(ctx context.Context) error
	stat() (total, idle int)
	close()
}

// lease is one physical connection borrowed from the backend.
type lease interface {
	query(ctx context.Context, sql string, args ...any) ([]db.Row, error)
	closed() bool
	release()
	destroy()
}

type pgxBackend struct {
	pool *pgxpool.Pool
}

func (b *pgxBackend) acquire(ctx context.Context) (lease, error) {
	c, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxLease{conn: c}, nil
}

func (b *pgxBackend) ping(ctx context.Context) error { return b.pool.Ping(ctx) }

func (b *pgxBackend) stat() (total, idle int) {
	s := b.pool.Stat()
	return int(s.TotalConns()), int(s.IdleConns())
}

func (b *pgxBackend) close() { b.pool.Close() }

type pgxLease struct {
	conn *pgxpool.Conn
}

func (l *pgxLease) query(ctx context.Context, sql string, args ...any) ([]db.Row, error) {
	rows, err := l.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToMap)
}

func (l *pgxLease) closed() bool { return l.conn.Conn().IsClosed() }

func (l *pgxLease) release() { l.conn.Release() }

// destroy takes the connection out of pgxpool and closes it.
func (l *pgxLease) destroy() {
	c := l.conn.Hijack()
	ctx, cancel := context.WithTimeout(context.Background(), destroyTimeout)
	defer cancel()
	_ = c.Close(ctx)
}
