package facility

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/facilityfinder/internal/db"
	"github.com/kailas-cloud/facilityfinder/internal/domain/facility"
	"github.com/kailas-cloud/facilityfinder/internal/domain/search/template"
)

// Repo executes search templates against a facility table.
type Repo struct {
	statements    map[template.Template]string
	queryDuration *prometheus.HistogramVec
}

// New creates a facility repository for table (optionally schema-qualified).
// queryDuration may be nil; when set it must have "template" and "status" labels.
func New(table string, queryDuration *prometheus.HistogramVec) (*Repo, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	return &Repo{
		statements:    buildStatements(quoted),
		queryDuration: queryDuration,
	}, nil
}

// Search runs template t with params on q and returns sanitized records in database order.
func (r *Repo) Search(
	ctx context.Context, q db.Querier, t template.Template, p template.Params,
) ([]facility.Record, error) {
	sql, ok := r.statements[t]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", t)
	}
	args, err := bindArgs(t, p)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := q.Query(ctx, sql, args...)
	r.observe(t, start, err)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", t, err)
	}

	records, err := facility.SanitizeAll(rows)
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: fmt.Errorf("search %s: %w", t, err)}
	}
	return records, nil
}

// Statement returns the SQL text of template t.
func (r *Repo) Statement(t template.Template) string {
	return r.statements[t]
}

func (r *Repo) observe(t template.Template, start time.Time, err error) {
	if r.queryDuration == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.queryDuration.WithLabelValues(string(t), status).Observe(time.Since(start).Seconds())
}
