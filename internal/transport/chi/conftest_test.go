package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facilityfinder/internal/domain/facility"
	"github.com/kailas-cloud/facilityfinder/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/facilityfinder/internal/usecase/health"
)

type mockSearcher struct {
	nearbyFn  func(ctx context.Context, req request.Nearby) ([]facility.Record, error)
	keywordFn func(ctx context.Context, req request.Keyword) ([]facility.Record, error)

	nearbyCalls  []request.Nearby
	keywordCalls []request.Keyword
}

func (m *mockSearcher) SearchNearby(ctx context.Context, req request.Nearby) ([]facility.Record, error) {
	m.nearbyCalls = append(m.nearbyCalls, req)
	if m.nearbyFn != nil {
		return m.nearbyFn(ctx, req)
	}
	return []facility.Record{}, nil
}

func (m *mockSearcher) SearchGlobalByKeyword(ctx context.Context, req request.Keyword) ([]facility.Record, error) {
	m.keywordCalls = append(m.keywordCalls, req)
	if m.keywordFn != nil {
		return m.keywordFn(ctx, req)
	}
	return []facility.Record{}, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestRouter(t *testing.T, search Searcher, health HealthChecker) http.Handler {
	t.Helper()
	if health == nil {
		health = &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}}
	}
	r := chi.NewRouter()
	NewServer(search, health, 30, zap.NewNop()).Routes(r)
	return r
}

func doGet(h http.Handler, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", target, http.NoBody))
	return rr
}

func strPtr(s string) *string { return &s }
