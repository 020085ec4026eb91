package finder

import (
	"context"

	"github.com/kailas-cloud/facilityfinder/internal/db"
	"github.com/kailas-cloud/facilityfinder/internal/domain/facility"
	"github.com/kailas-cloud/facilityfinder/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/facilityfinder/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	nearbyFn  func(ctx context.Context, req request.Nearby) ([]facility.Record, error)
	keywordFn func(ctx context.Context, req request.Keyword) ([]facility.Record, error)
}

func (m *mockSearchUC) SearchNearby(ctx context.Context, req request.Nearby) ([]facility.Record, error) {
	return m.nearbyFn(ctx, req)
}

func (m *mockSearchUC) SearchGlobalByKeyword(ctx context.Context, req request.Keyword) ([]facility.Record, error) {
	return m.keywordFn(ctx, req)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- connPool mock ---

type mockPool struct {
	pingErr  error
	closed   int
	acquires int
}

func (m *mockPool) Acquire(context.Context) (db.Conn, error) {
	m.acquires++
	return nil, db.ErrUnavailable
}

func (m *mockPool) Release(db.Conn) {}

func (m *mockPool) Discard(db.Conn) {}

func (m *mockPool) Ping(context.Context) error { return m.pingErr }

func (m *mockPool) Close() { m.closed++ }

func strPtr(s string) *string { return &s }
