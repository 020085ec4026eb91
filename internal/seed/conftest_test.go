package seed

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
)

type execCall struct {
	query string
	args  []any
}

type mockExecer struct {
	mu     sync.Mutex
	calls  []execCall
	execFn func(query string, args []any) error
}

func (m *mockExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, execCall{query: query, args: args})
	m.mu.Unlock()
	if m.execFn != nil {
		if err := m.execFn(query, args); err != nil {
			return nil, err
		}
	}
	return driver.RowsAffected(len(args) / insertColumns), nil
}

func facilities(n int) []Facility {
	out := make([]Facility, n)
	for i := range out {
		out[i] = Facility{
			Name:      "Clinic",
			Latitude:  35.68,
			Longitude: 139.76,
		}
	}
	return out
}
