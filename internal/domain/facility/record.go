package facility

import (
	"fmt"
	"strconv"
	"time"
)

// Column names projected by every search query.
const (
	ColAddress           = "address"
	ColZipcode           = "zipcode"
	ColName              = "name"
	ColLastModifiedDate  = "last_modified_date"
	ColUpdatedDate       = "updated_date"
	ColDepartmentContent = "department_content"
	ColLocation          = "location"
	ColSimilarityScore   = "similarity_score"
)

// DateLayout is the ISO-8601 calendar date format used for every date field.
const DateLayout = "2006-01-02"

// Record is a sanitized search hit. Nil members were NULL in storage and are
// omitted on serialization; Location is always set.
type Record struct {
	Address           *string  `json:"address,omitempty"`
	Zipcode           *string  `json:"zipcode,omitempty"`
	Name              *string  `json:"name,omitempty"`
	LastModifiedDate  *string  `json:"last_modified_date,omitempty"`
	UpdatedDate       *string  `json:"updated_date,omitempty"`
	DepartmentContent *string  `json:"department_content,omitempty"`
	Location          string   `json:"location"`
	SimilarityScore   *float64 `json:"similarity_score,omitempty"`
}

// Keys returns the names of the populated fields in projection order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, 8)
	add := func(name string, set bool) {
		if set {
			keys = append(keys, name)
		}
	}
	add(ColAddress, r.Address != nil)
	add(ColZipcode, r.Zipcode != nil)
	add(ColName, r.Name != nil)
	add(ColLastModifiedDate, r.LastModifiedDate != nil)
	add(ColUpdatedDate, r.UpdatedDate != nil)
	add(ColDepartmentContent, r.DepartmentContent != nil)
	add(ColLocation, true)
	add(ColSimilarityScore, r.SimilarityScore != nil)
	return keys
}

// Sanitize converts a raw result row into a Record, dropping NULL columns.
// Columns outside the projection are ignored.
func Sanitize(row map[string]any) (Record, error) {
	var rec Record

	textFields := []struct {
		col string
		dst **string
	}{
		{ColAddress, &rec.Address},
		{ColZipcode, &rec.Zipcode},
		{ColName, &rec.Name},
		{ColDepartmentContent, &rec.DepartmentContent},
	}
	for _, f := range textFields {
		s, err := textValue(row, f.col)
		if err != nil {
			return Record{}, err
		}
		*f.dst = s
	}

	for _, f := range []struct {
		col string
		dst **string
	}{
		{ColLastModifiedDate, &rec.LastModifiedDate},
		{ColUpdatedDate, &rec.UpdatedDate},
	} {
		s, err := dateValue(row, f.col)
		if err != nil {
			return Record{}, err
		}
		*f.dst = s
	}

	loc, err := textValue(row, ColLocation)
	if err != nil {
		return Record{}, err
	}
	if loc == nil {
		return Record{}, fmt.Errorf("column %q is missing", ColLocation)
	}
	rec.Location = *loc

	score, err := floatValue(row, ColSimilarityScore)
	if err != nil {
		return Record{}, err
	}
	rec.SimilarityScore = score

	return rec, nil
}

// SanitizeAll converts every row, failing on the first malformed one.
func SanitizeAll(rows []map[string]any) ([]Record, error) {
	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec, err := Sanitize(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func textValue(row map[string]any, col string) (*string, error) {
	v, ok := row[col]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case string:
		return &t, nil
	case []byte:
		s := string(t)
		return &s, nil
	default:
		return nil, fmt.Errorf("column %q: unexpected type %T", col, v)
	}
}

// dateValue accepts pre-formatted strings and native temporal values alike.
func dateValue(row map[string]any, col string) (*string, error) {
	v, ok := row[col]
	if !ok || v == nil {
		return nil, nil
	}
	if t, ok := v.(time.Time); ok {
		s := t.Format(DateLayout)
		return &s, nil
	}
	return textValue(row, col)
}

func floatValue(row map[string]any, col string) (*float64, error) {
	v, ok := row[col]
	if !ok || v == nil {
		return nil, nil
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		// real columns: keep the shortest decimal that round-trips at 32 bits.
		f, _ = strconv.ParseFloat(strconv.FormatFloat(float64(t), 'g', -1, 32), 64)
	default:
		return nil, fmt.Errorf("column %q: unexpected type %T", col, v)
	}
	return &f, nil
}
