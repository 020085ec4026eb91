package search

import (
	"context"

	"github.com/kailas-cloud/facilityfinder/internal/db"
	"github.com/kailas-cloud/facilityfinder/internal/domain/facility"
	"github.com/kailas-cloud/facilityfinder/internal/domain/search/template"
)

// Repository executes a search template on a checked-out connection.
type Repository interface {
	Search(ctx context.Context, q db.Querier, t template.Template, p template.Params) ([]facility.Record, error)
}

// Pool lends connections for the duration of one search.
type Pool interface {
	Acquire(ctx context.Context) (db.Conn, error)
	Release(c db.Conn)
	Discard(c db.Conn)
}

// Cache stores sanitized result sets keyed by template and parameters.
type Cache interface {
	Get(ctx context.Context, t template.Template, p template.Params) ([]facility.Record, bool)
	Put(ctx context.Context, t template.Template, p template.Params, recs []facility.Record)
}
