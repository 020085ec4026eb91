package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facilityfinder/internal/domain"
	"github.com/kailas-cloud/facilityfinder/internal/domain/facility"
	"github.com/kailas-cloud/facilityfinder/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/facilityfinder/internal/logger"
	healthuc "github.com/kailas-cloud/facilityfinder/internal/usecase/health"
	"github.com/kailas-cloud/facilityfinder/internal/version"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Searcher runs facility searches.
type Searcher interface {
	SearchNearby(ctx context.Context, req request.Nearby) ([]facility.Record, error)
	SearchGlobalByKeyword(ctx context.Context, req request.Keyword) ([]facility.Record, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// SuccessResponse is the envelope of a successful search. Data is never null.
type SuccessResponse struct {
	Status string            `json:"status"`
	Data   []facility.Record `json:"data"`
}

// ErrorResponse is the envelope of a failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the facility search API.
type Server struct {
	search            Searcher
	health            HealthChecker
	logger            *zap.Logger
	defaultMaxResults int
	errorHandlers     []errorHandler
}

// NewServer creates an HTTP API server. defaultMaxResults applies when max_results is omitted.
func NewServer(search Searcher, health HealthChecker, defaultMaxResults int, logger *zap.Logger) *Server {
	if defaultMaxResults <= 0 {
		defaultMaxResults = request.DefaultMaxResults
	}
	s := &Server{
		search:            search,
		health:            health,
		logger:            logger,
		defaultMaxResults: defaultMaxResults,
	}
	s.errorHandlers = []errorHandler{
		parameterErrorHandler,
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests),
		sentinelHandler(domain.ErrPoolExhausted, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrConnection, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrQuery, http.StatusInternalServerError),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/search_hospitals", s.SearchHospitals)
	r.Get("/search_by_keyword", s.SearchByKeyword)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// SearchHospitals handles GET /search_hospitals.
func (s *Server) SearchHospitals(w http.ResponseWriter, r *http.Request) {
	params, err := bindNearbyParams(r.URL.Query(), s.defaultMaxResults)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	req, err := request.NewNearby(params.Latitude, params.Longitude, params.Radius, params.MaxResults, params.Keyword)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	recs, err := s.search.SearchNearby(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeSuccess(w, recs)
}

// SearchByKeyword handles GET /search_by_keyword.
func (s *Server) SearchByKeyword(w http.ResponseWriter, r *http.Request) {
	params, err := bindKeywordParams(r.URL.Query(), s.defaultMaxResults)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	req, err := request.NewKeyword(params.Keyword, params.MaxResults)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	recs, err := s.search.SearchGlobalByKeyword(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeSuccess(w, recs)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, recs []facility.Record) {
	if recs == nil {
		recs = []facility.Record{}
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Status: StatusSuccess, Data: recs})
}

// WriteError writes the {"status":"error","message":...} envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Status: StatusError, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	var pe *domain.ParameterError
	if errors.As(err, &pe) {
		return pe.Message
	}
	sentinels := []error{
		domain.ErrRateLimited,
		domain.ErrPoolExhausted,
		domain.ErrConnection,
		domain.ErrQuery,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		WriteError(w, status, msg)
		return true
	}
}

// parameterErrorHandler answers validation failures with their client message.
func parameterErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInvalidParameter) && !errors.Is(err, domain.ErrMissingParameter) {
		return false
	}
	WriteError(w, http.StatusBadRequest, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.From(r.Context(), s.logger)
	msg := safeDomainMessage(err)
	for i, h := range s.errorHandlers {
		if h(w, err, msg) {
			if i == 0 {
				log.Debug("rejected request", zap.Error(err))
			} else {
				log.Warn("search failed", zap.Error(err))
			}
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	WriteError(w, http.StatusInternalServerError, "internal error")
}
