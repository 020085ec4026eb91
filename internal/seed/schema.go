package seed

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// searchableText must match the expression the search queries pass to similarity().
const searchableText = `COALESCE(name, '') || ' ' || COALESCE(address, '') || ' ' || COALESCE(department_content, '')`

// qualifiedTable quotes "table" or "schema.table" and returns the bare table name for index naming.
func qualifiedTable(table string) (quoted, base string, err error) {
	parts := strings.Split(table, ".")
	if table == "" || len(parts) > 2 {
		return "", "", fmt.Errorf("table name %q: expected [schema.]table", table)
	}
	quotedParts := make([]string, len(parts))
	for i, p := range parts {
		if p == "" {
			return "", "", fmt.Errorf("table name %q: empty identifier", table)
		}
		quotedParts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(quotedParts, "."), parts[len(parts)-1], nil
}

// SchemaStatements returns the DDL that prepares a database for facility search.
// Every statement is idempotent.
func SchemaStatements(table string) ([]string, error) {
	t, base, err := qualifiedTable(table)
	if err != nil {
		return nil, err
	}
	return []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	name TEXT,
	address TEXT,
	zipcode TEXT,
	department_content TEXT,
	last_modified_date DATE,
	updated_date DATE,
	geom geometry(Point, 4326) NOT NULL
)`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIST ((geom::geography))`,
			pq.QuoteIdentifier(base+"_geog_idx"), t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIN ((%s) gin_trgm_ops)`,
			pq.QuoteIdentifier(base+"_text_trgm_idx"), t, searchableText),
	}, nil
}
