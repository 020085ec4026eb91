package facility

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kailas-cloud/facilityfinder/internal/domain/search/template"
)

// DefaultTable is the facility table used when none is configured.
const DefaultTable = "medical_institutions"

const projection = `address, zipcode, name,
	TO_CHAR(last_modified_date, 'YYYY-MM-DD') AS last_modified_date,
	TO_CHAR(updated_date, 'YYYY-MM-DD') AS updated_date,
	department_content,
	ST_AsGeoJSON(geom) AS location`

// similarity over the concatenated searchable text; NULL parts become empty strings.
const similarityTmpl = `similarity(COALESCE(name, '') || ' ' || COALESCE(address, '') || ' ' || COALESCE(department_content, ''), %s) AS similarity_score`

const withinTmpl = `ST_DWithin(geom::geography, ST_SetSRID(ST_MakePoint(%s, %s), 4326)::geography, %s)`

// quoteTable turns "table" or "schema.table" into a quoted identifier.
func quoteTable(table string) (string, error) {
	if table == "" {
		return "", fmt.Errorf("table name is required")
	}
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("table name %q: expected [schema.]table", table)
	}
	for _, p := range parts {
		if p == "" {
			return "", fmt.Errorf("table name %q: empty identifier", table)
		}
	}
	return pgx.Identifier(parts).Sanitize(), nil
}

// buildStatements renders the SQL text of every template for one table.
// User values never appear in the text; they are bound as $n parameters.
func buildStatements(table string) map[template.Template]string {
	return map[template.Template]string{
		template.RadiusOnly: fmt.Sprintf(
			"SELECT %s\nFROM %s\nWHERE %s\nLIMIT $4",
			projection, table, fmt.Sprintf(withinTmpl, "$1", "$2", "$3"),
		),
		template.RadiusWithKeyword: fmt.Sprintf(
			"SELECT %s,\n\t%s\nFROM %s\nWHERE %s\nORDER BY similarity_score DESC\nLIMIT $5",
			projection, fmt.Sprintf(similarityTmpl, "$1"), table, fmt.Sprintf(withinTmpl, "$2", "$3", "$4"),
		),
		template.GlobalKeyword: fmt.Sprintf(
			"SELECT %s,\n\t%s\nFROM %s\nORDER BY similarity_score DESC\nLIMIT $2",
			projection, fmt.Sprintf(similarityTmpl, "$1"), table,
		),
	}
}

// bindArgs returns the positional arguments of a template in placeholder order.
func bindArgs(t template.Template, p template.Params) ([]any, error) {
	switch t {
	case template.RadiusOnly:
		return []any{p.Longitude, p.Latitude, p.Radius, p.MaxResults}, nil
	case template.RadiusWithKeyword:
		return []any{p.Keyword, p.Longitude, p.Latitude, p.Radius, p.MaxResults}, nil
	case template.GlobalKeyword:
		return []any{p.Keyword, p.MaxResults}, nil
	default:
		return nil, fmt.Errorf("unknown template %q", t)
	}
}
