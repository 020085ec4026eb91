package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/facilityfinder/internal/domain"
	"github.com/kailas-cloud/facilityfinder/internal/domain/facility"
	"github.com/kailas-cloud/facilityfinder/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/facilityfinder/internal/logger"
	healthuc "github.com/kailas-cloud/facilityfinder/internal/usecase/health"
)

func decodeError(t *testing.T, body string) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode error response: %v (body %s)", err, body)
	}
	if resp.Status != StatusError {
		t.Errorf("status = %q, want %q", resp.Status, StatusError)
	}
	return resp
}

func TestSearchHospitals_Success(t *testing.T) {
	search := &mockSearcher{
		nearbyFn: func(_ context.Context, _ request.Nearby) ([]facility.Record, error) {
			return []facility.Record{{
				Name:     strPtr("Seoul Dental Clinic"),
				Location: `{"type":"Point","coordinates":[127.001,37.501]}`,
			}}, nil
		},
	}
	h := newTestRouter(t, search, nil)

	rr := doGet(h, "/search_hospitals?latitude=37.5&longitude=127.0&radius=1000&max_results=5&keyword=%20dental%20")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp struct {
		Status string           `json:"status"`
		Data   []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != StatusSuccess {
		t.Errorf("status = %q", resp.Status)
	}
	if len(resp.Data) != 1 || resp.Data[0]["name"] != "Seoul Dental Clinic" {
		t.Errorf("data = %+v", resp.Data)
	}
	if _, ok := resp.Data[0]["address"]; ok {
		t.Error("null address must be omitted")
	}

	if len(search.nearbyCalls) != 1 {
		t.Fatalf("SearchNearby calls = %d", len(search.nearbyCalls))
	}
	got := search.nearbyCalls[0]
	if got.Latitude() != 37.5 || got.Longitude() != 127.0 || got.Radius() != 1000 {
		t.Errorf("point/radius = %f,%f,%f", got.Latitude(), got.Longitude(), got.Radius())
	}
	if got.MaxResults() != 5 || got.Keyword() != "dental" {
		t.Errorf("max=%d keyword=%q", got.MaxResults(), got.Keyword())
	}
}

func TestSearchHospitals_Defaults(t *testing.T) {
	search := &mockSearcher{}
	h := newTestRouter(t, search, nil)

	rr := doGet(h, "/search_hospitals?latitude=37.5&longitude=127.0&radius=1000&keyword=%20%20")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"data":[]`) {
		t.Errorf("empty result must serialize as []: %s", rr.Body.String())
	}
	got := search.nearbyCalls[0]
	if got.MaxResults() != 30 {
		t.Errorf("default max_results = %d, want 30", got.MaxResults())
	}
	if got.HasKeyword() {
		t.Error("whitespace keyword must count as absent")
	}
}

func TestSearchHospitals_NilResultIsEmptyArray(t *testing.T) {
	search := &mockSearcher{
		nearbyFn: func(context.Context, request.Nearby) ([]facility.Record, error) { return nil, nil },
	}
	h := newTestRouter(t, search, nil)

	rr := doGet(h, "/search_hospitals?latitude=0&longitude=0&radius=1")
	if !strings.Contains(rr.Body.String(), `"data":[]`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestSearchHospitals_InvalidParameters(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		message string
	}{
		{"missing latitude", "longitude=127&radius=10", "latitude is required"},
		{"missing longitude", "latitude=37&radius=10", "longitude is required"},
		{"missing radius", "latitude=37&longitude=127", "radius is required"},
		{"non-numeric latitude", "latitude=abc&longitude=127&radius=10", "latitude must be a number"},
		{"empty radius", "latitude=37&longitude=127&radius=", "radius must be a number"},
		{"latitude out of range", "latitude=91&longitude=127&radius=10", "latitude must be between -90 and 90"},
		{"longitude out of range", "latitude=37&longitude=181&radius=10", "longitude must be between -180 and 180"},
		{"zero radius", "latitude=37&longitude=127&radius=0", "radius must be a positive number of meters"},
		{"bad max_results", "latitude=37&longitude=127&radius=10&max_results=ten", "max_results must be an integer"},
		{"negative max_results", "latitude=37&longitude=127&radius=10&max_results=-1", "max_results must not be negative"},
		{"keyword too long", "latitude=37&longitude=127&radius=10&keyword=" + strings.Repeat("a", 257),
			"keyword too long (max 256 characters)"},
		{"invalid utf-8 keyword", "latitude=37&longitude=127&radius=10&keyword=%FF", "keyword must be valid UTF-8 text"},
		{"NUL in keyword", "latitude=37&longitude=127&radius=10&keyword=den%00tal", "keyword must be valid UTF-8 text"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			search := &mockSearcher{}
			h := newTestRouter(t, search, nil)

			rr := doGet(h, "/search_hospitals?"+tc.query)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("got %d, want 400 (body %s)", rr.Code, rr.Body.String())
			}
			if resp := decodeError(t, rr.Body.String()); resp.Message != tc.message {
				t.Errorf("message = %q, want %q", resp.Message, tc.message)
			}
			if len(search.nearbyCalls) != 0 {
				t.Error("search must not run on invalid input")
			}
		})
	}
}

func TestSearchByKeyword_Success(t *testing.T) {
	search := &mockSearcher{}
	h := newTestRouter(t, search, nil)

	rr := doGet(h, "/search_by_keyword?keyword=dental&max_results=5")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	if len(search.keywordCalls) != 1 {
		t.Fatalf("calls = %d", len(search.keywordCalls))
	}
	got := search.keywordCalls[0]
	if got.Keyword() != "dental" || got.MaxResults() != 5 {
		t.Errorf("keyword=%q max=%d", got.Keyword(), got.MaxResults())
	}
}

func TestSearchByKeyword_MissingKeyword(t *testing.T) {
	for _, query := range []string{"", "?max_results=5", "?keyword=", "?keyword=%20%20%20"} {
		t.Run(query, func(t *testing.T) {
			search := &mockSearcher{}
			h := newTestRouter(t, search, nil)

			rr := doGet(h, "/search_by_keyword"+query)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("got %d, want 400", rr.Code)
			}
			if resp := decodeError(t, rr.Body.String()); resp.Message != "Keyword parameter is required" {
				t.Errorf("message = %q", resp.Message)
			}
			if len(search.keywordCalls) != 0 {
				t.Error("search must not run without keyword")
			}
		})
	}
}

func TestSearchByKeyword_RepeatedKeyword(t *testing.T) {
	search := &mockSearcher{}
	h := newTestRouter(t, search, nil)

	for _, target := range []string{
		"/search_by_keyword?keyword=dental&keyword=clinic",
		"/search_hospitals?latitude=37&longitude=127&radius=10&keyword=dental&keyword=clinic",
	} {
		rr := doGet(h, target)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d, want 400", target, rr.Code)
		}
		if resp := decodeError(t, rr.Body.String()); resp.Message != "keyword must be a single string" {
			t.Errorf("%s: message = %q", target, resp.Message)
		}
	}
	if len(search.keywordCalls)+len(search.nearbyCalls) != 0 {
		t.Error("search must not run on a repeated keyword")
	}
}

func TestSearch_DomainErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"pool exhausted", fmt.Errorf("%w: %w", domain.ErrPoolExhausted, errors.New("semaphore")),
			http.StatusServiceUnavailable, "connection pool exhausted"},
		{"connection", fmt.Errorf("%w: dial tcp 10.0.0.5:5432: refused", domain.ErrConnection),
			http.StatusServiceUnavailable, "database unavailable"},
		{"query", fmt.Errorf("%w: ERROR: relation \"medical_institutions\" does not exist", domain.ErrQuery),
			http.StatusInternalServerError, "query failed"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			search := &mockSearcher{
				nearbyFn: func(context.Context, request.Nearby) ([]facility.Record, error) { return nil, tc.err },
				keywordFn: func(context.Context, request.Keyword) ([]facility.Record, error) {
					return nil, tc.err
				},
			}
			h := newTestRouter(t, search, nil)

			for _, target := range []string{
				"/search_hospitals?latitude=37.5&longitude=127&radius=100",
				"/search_by_keyword?keyword=dental",
			} {
				rr := doGet(h, target)
				if rr.Code != tc.code {
					t.Errorf("%s: got %d, want %d", target, rr.Code, tc.code)
				}
				resp := decodeError(t, rr.Body.String())
				if resp.Message != tc.message {
					t.Errorf("%s: message = %q, want %q", target, resp.Message, tc.message)
				}
			}
		})
	}
}

func TestSafeDomainMessage_NoLeak(t *testing.T) {
	err := fmt.Errorf("%w: password authentication failed for user \"app\"", domain.ErrConnection)
	if got := safeDomainMessage(err); got != "database unavailable" {
		t.Errorf("safeDomainMessage = %q", got)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		report healthuc.Report
		code   int
	}{
		{"healthy", healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}, http.StatusOK},
		{"cache down", healthuc.Report{
			Status: healthuc.Degraded,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "cache": healthuc.CheckError},
		}, http.StatusOK},
		{"database down", healthuc.Report{
			Status: healthuc.Unhealthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError},
		}, http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestRouter(t, &mockSearcher{}, &mockHealth{report: tc.report})

			rr := doGet(h, "/health")
			if rr.Code != tc.code {
				t.Fatalf("got %d, want %d", rr.Code, tc.code)
			}
			var resp HealthResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != string(tc.report.Status) {
				t.Errorf("status = %q", resp.Status)
			}
			if resp.Checks["database"] != string(tc.report.Checks["database"]) {
				t.Errorf("checks = %+v", resp.Checks)
			}
			if resp.Version == "" {
				t.Error("version must be set")
			}
		})
	}
}

func TestRoutes_NotFoundAndMethod(t *testing.T) {
	h := newTestRouter(t, &mockSearcher{}, nil)

	rr := doGet(h, "/nope")
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown path: got %d", rr.Code)
	}
	decodeError(t, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/search_hospitals", http.NoBody))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: got %d", rr.Code)
	}
}

func TestSearch_ErrorLoggedWithRequestLogger(t *testing.T) {
	search := &mockSearcher{
		keywordFn: func(context.Context, request.Keyword) ([]facility.Record, error) {
			return nil, fmt.Errorf("%w: timeout", domain.ErrConnection)
		},
	}
	h := newTestRouter(t, search, nil)

	core, logs := observer.New(zapcore.DebugLevel)
	req := httptest.NewRequest("GET", "/search_by_keyword?keyword=dental", http.NoBody)
	req = req.WithContext(logpkg.Into(req.Context(), zap.New(core).With(zap.String("request_id", "req-42"))))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
	entries := logs.FilterMessage("search failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if entries[0].ContextMap()["request_id"] != "req-42" {
		t.Errorf("fields = %v", entries[0].ContextMap())
	}
}
