package chi

import (
	"net/url"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/facilityfinder/internal/domain"
	"github.com/kailas-cloud/facilityfinder/internal/domain/search/request"
)

// NearbyParams are the query parameters of GET /search_hospitals.
type NearbyParams struct {
	Latitude   float64
	Longitude  float64
	Radius     float64
	MaxResults int
	Keyword    string
}

// KeywordParams are the query parameters of GET /search_by_keyword.
type KeywordParams struct {
	Keyword    string
	MaxResults int
}

func bindNearbyParams(q url.Values, defaultMaxResults int) (NearbyParams, error) {
	var p NearbyParams
	for _, f := range []struct {
		name string
		dest *float64
	}{
		{"latitude", &p.Latitude},
		{"longitude", &p.Longitude},
		{"radius", &p.Radius},
	} {
		if err := bindNumber(q, f.name, f.dest); err != nil {
			return NearbyParams{}, err
		}
	}

	maxResults, err := bindMaxResults(q, defaultMaxResults)
	if err != nil {
		return NearbyParams{}, err
	}
	p.MaxResults = maxResults

	keyword, err := bindKeyword(q)
	if err != nil {
		return NearbyParams{}, err
	}
	if keyword != nil {
		p.Keyword = *keyword
	}
	return p, nil
}

func bindKeywordParams(q url.Values, defaultMaxResults int) (KeywordParams, error) {
	var p KeywordParams

	keyword, err := bindKeyword(q)
	if err != nil {
		return KeywordParams{}, err
	}
	if keyword == nil {
		return KeywordParams{}, domain.NewMissingParameter("keyword", request.KeywordRequiredMessage)
	}
	p.Keyword = *keyword

	maxResults, err := bindMaxResults(q, defaultMaxResults)
	if err != nil {
		return KeywordParams{}, err
	}
	p.MaxResults = maxResults
	return p, nil
}

// bindKeyword binds the optional keyword. Repeating it is an error;
// a single blank value counts as absent.
func bindKeyword(q url.Values) (*string, error) {
	if vals := q["keyword"]; len(vals) == 1 && strings.TrimSpace(vals[0]) == "" {
		return nil, nil
	}
	var keyword *string
	if err := runtime.BindQueryParameter("form", true, false, "keyword", q, &keyword); err != nil {
		return nil, domain.NewInvalidParameter("keyword", "keyword must be a single string")
	}
	return keyword, nil
}

// bindNumber binds a required float query parameter.
func bindNumber(q url.Values, name string, dest *float64) error {
	if !q.Has(name) {
		return domain.NewInvalidParameter(name, name+" is required")
	}
	if err := runtime.BindQueryParameter("form", true, true, name, q, dest); err != nil {
		return domain.NewInvalidParameter(name, name+" must be a number")
	}
	return nil
}

func bindMaxResults(q url.Values, def int) (int, error) {
	var n *int
	if err := runtime.BindQueryParameter("form", true, false, "max_results", q, &n); err != nil {
		return 0, domain.NewInvalidParameter("max_results", "max_results must be an integer")
	}
	if n == nil {
		return def, nil
	}
	return *n, nil
}
