package postgres

import (
	"context"
	"sync"

	"github.com/kailas-cloud/facilityfinder/internal/db"
)

// fakeBackend counts physical connections and tracks the checkout high-water mark.
type fakeBackend struct {
	mu        sync.Mutex
	out       int
	peak      int
	idle      int
	opened    int
	destroyed int
	acquires  int
	closedAll bool

	acquireErr error
	pingErr    error
	queryFn    func(ctx context.Context, sql string, args ...any) ([]db.Row, error)
}

func (b *fakeBackend) acquire(_ context.Context) (lease, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acquires++
	if b.acquireErr != nil {
		return nil, b.acquireErr
	}
	if b.idle > 0 {
		b.idle--
	} else {
		b.opened++
	}
	b.out++
	if b.out > b.peak {
		b.peak = b.out
	}
	return &fakeLease{b: b}, nil
}

func (b *fakeBackend) ping(_ context.Context) error { return b.pingErr }

func (b *fakeBackend) stat() (total, idle int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out + b.idle, b.idle
}

func (b *fakeBackend) close() {
	b.mu.Lock()
	b.closedAll = true
	b.mu.Unlock()
}

func (b *fakeBackend) snapshot() (out, peak, opened, destroyed, acquires int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out, b.peak, b.opened, b.destroyed, b.acquires
}

type fakeLease struct {
	b    *fakeBackend
	dead bool
}

func (l *fakeLease) query(ctx context.Context, sql string, args ...any) ([]db.Row, error) {
	if l.b.queryFn == nil {
		return nil, nil
	}
	return l.b.queryFn(ctx, sql, args...)
}

func (l *fakeLease) closed() bool { return l.dead }

func (l *fakeLease) release() {
	l.b.mu.Lock()
	l.b.out--
	l.b.idle++
	l.b.mu.Unlock()
}

func (l *fakeLease) destroy() {
	l.b.mu.Lock()
	l.b.out--
	l.b.destroyed++
	l.b.mu.Unlock()
}
