package seed

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Defaults for Loader.
const (
	DefaultBatchSize   = 500
	DefaultConcurrency = 4
)

const insertColumns = 8

// execer is satisfied by *sqlx.DB and *sqlx.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Loader writes facilities into the search table.
type Loader struct {
	db          execer
	table       string
	batchSize   int
	concurrency int
	logger      *zap.Logger
}

// NewLoader creates a Loader for table.
func NewLoader(db execer, table string, logger *zap.Logger) (*Loader, error) {
	quoted, _, err := qualifiedTable(table)
	if err != nil {
		return nil, err
	}
	return &Loader{
		db:          db,
		table:       quoted,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
		logger:      logger,
	}, nil
}

// WithBatchSize sets the number of rows per INSERT statement.
func (l *Loader) WithBatchSize(n int) *Loader {
	if n > 0 {
		l.batchSize = n
	}
	return l
}

// WithConcurrency sets how many batches are inserted in parallel.
func (l *Loader) WithConcurrency(n int) *Loader {
	if n > 0 {
		l.concurrency = n
	}
	return l
}

// ApplySchema runs SchemaStatements in order.
func ApplySchema(ctx context.Context, db execer, table string) error {
	stmts, err := SchemaStatements(table)
	if err != nil {
		return err
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Import inserts facilities in batches and returns the number of rows written.
// The first failing batch cancels the rest; rows from batches that already
// committed stay in the table.
func (l *Loader) Import(ctx context.Context, facilities []Facility) (int64, error) {
	var written atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for start := 0; start < len(facilities); start += l.batchSize {
		end := min(start+l.batchSize, len(facilities))
		batch := facilities[start:end]
		g.Go(func() error {
			query, args := l.insertStatement(batch)
			res, err := l.db.ExecContext(gctx, query, args...)
			if err != nil {
				return fmt.Errorf("insert rows %d-%d: %w", start, end-1, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				n = int64(len(batch))
			}
			written.Add(n)
			l.logger.Debug("batch inserted", zap.Int("from", start), zap.Int("rows", len(batch)))
			return nil
		})
	}

	err := g.Wait()
	return written.Load(), err
}

// insertStatement builds one multi-row INSERT with bound values.
func (l *Loader) insertStatement(batch []Facility) (string, []any) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (name, address, zipcode, department_content, "+
		"last_modified_date, updated_date, geom) VALUES ", l.table)

	args := make([]any, 0, len(batch)*insertColumns)
	for i, f := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?::date, ?::date, ST_SetSRID(ST_MakePoint(?, ?), 4326))")
		args = append(args,
			nullable(f.Name),
			nullable(f.Address),
			nullable(f.Zipcode),
			nullable(f.DepartmentContent),
			nullable(f.LastModifiedDate),
			nullable(f.UpdatedDate),
			f.Longitude,
			f.Latitude,
		)
	}
	return sqlx.Rebind(sqlx.DOLLAR, sb.String()), args
}
