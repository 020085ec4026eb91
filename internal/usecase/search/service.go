package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/facilityfinder/internal/db"
	"github.com/kailas-cloud/facilityfinder/internal/domain"
	"github.com/kailas-cloud/facilityfinder/internal/domain/facility"
	"github.com/kailas-cloud/facilityfinder/internal/domain/search/request"
	"github.com/kailas-cloud/facilityfinder/internal/domain/search/template"
)

// Service runs facility searches: it picks the template, borrows a connection,
// executes, and always hands the connection back.
type Service struct {
	pool            Pool
	repo            Repository
	cache           Cache
	queryTimeout    time.Duration
	maxResultsLimit int
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the result cache. A hit never borrows a connection.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithQueryTimeout bounds each query. Zero means no bound beyond the caller's context.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) { s.queryTimeout = d }
}

// WithMaxResultsLimit caps max_results; larger requests are clamped.
func WithMaxResultsLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxResultsLimit = n
		}
	}
}

// New creates a search service.
func New(pool Pool, repo Repository, opts ...Option) *Service {
	s := &Service{
		pool:            pool,
		repo:            repo,
		maxResultsLimit: request.MaxResultsLimit,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SearchNearby finds facilities within the request radius, ranked by keyword
// similarity when a keyword is present.
func (s *Service) SearchNearby(ctx context.Context, req request.Nearby) ([]facility.Record, error) {
	t := template.ForNearby(req.HasKeyword())
	p := template.Params{
		Latitude:   req.Latitude(),
		Longitude:  req.Longitude(),
		Radius:     req.Radius(),
		Keyword:    req.Keyword(),
		MaxResults: s.clamp(req.MaxResults()),
	}
	return s.run(ctx, t, p)
}

// SearchGlobalByKeyword ranks every facility by keyword similarity.
func (s *Service) SearchGlobalByKeyword(ctx context.Context, req request.Keyword) ([]facility.Record, error) {
	p := template.Params{
		Keyword:    req.Keyword(),
		MaxResults: s.clamp(req.MaxResults()),
	}
	return s.run(ctx, template.GlobalKeyword, p)
}

func (s *Service) clamp(n int) int {
	if n > s.maxResultsLimit {
		return s.maxResultsLimit
	}
	return n
}

func (s *Service) run(ctx context.Context, t template.Template, p template.Params) ([]facility.Record, error) {
	if p.MaxResults == 0 {
		return []facility.Record{}, nil
	}

	if s.cache != nil {
		if recs, ok := s.cache.Get(ctx, t, p); ok {
			return recs, nil
		}
	}

	recs, err := s.execute(ctx, t, p)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Put(ctx, t, p, recs)
	}
	return recs, nil
}

// execute owns the connection lifecycle. The connection is released on success
// and on ordinary query errors, and discarded when it broke or the repository panicked.
func (s *Service) execute(ctx context.Context, t template.Template, p template.Params) (recs []facility.Record, err error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, classify(err)
	}

	discard := false
	defer func() {
		if r := recover(); r != nil {
			s.pool.Discard(conn)
			panic(r)
		}
		if discard || conn.Broken() {
			s.pool.Discard(conn)
			return
		}
		s.pool.Release(conn)
	}()

	qctx := ctx
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	recs, err = s.repo.Search(qctx, conn, t, p)
	if err != nil {
		discard = errors.Is(err, db.ErrConnBroken)
		return nil, classify(err)
	}
	return recs, nil
}

// classify maps storage failures onto the domain error taxonomy.
// Cancellation of the caller's context is returned as is.
func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, db.ErrPoolExhausted):
		return fmt.Errorf("%w: %w", domain.ErrPoolExhausted, err)
	case errors.Is(err, db.ErrUnavailable), errors.Is(err, db.ErrClosed):
		return fmt.Errorf("%w: %w", domain.ErrConnection, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrQuery, err)
	}
}
