package facility

import (
	"context"

	"github.com/kailas-cloud/facilityfinder/internal/db"
)

// mockQuerier implements db.Querier for tests.
type mockQuerier struct {
	queryFn func(ctx context.Context, sql string, args ...any) ([]db.Row, error)

	lastSQL  string
	lastArgs []any
}

func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) ([]db.Row, error) {
	m.lastSQL = sql
	m.lastArgs = args
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}
	return []db.Row{}, nil
}

func row(name string, score any) db.Row {
	r := db.Row{
		"name":               name,
		"address":            nil,
		"zipcode":            "100-0001",
		"last_modified_date": "2024-01-31",
		"updated_date":       nil,
		"department_content": "dentistry",
		"location":           `{"type":"Point","coordinates":[139.76,35.68]}`,
	}
	if score != nil {
		r["similarity_score"] = score
	}
	return r
}
