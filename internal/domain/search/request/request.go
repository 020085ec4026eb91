package request

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/facilityfinder/internal/domain"
	"github.com/kailas-cloud/facilityfinder/internal/domain/geo"
)

// Search parameter limits.
const (
	// DefaultMaxResults is used when the caller omits max_results.
	DefaultMaxResults = 30
	// MaxResultsLimit is the default ceiling applied to max_results.
	MaxResultsLimit = 500
	// MaxKeywordLength is the maximum keyword length in runes.
	MaxKeywordLength = 256
)

// KeywordRequiredMessage is returned when a keyword-only search has no keyword.
const KeywordRequiredMessage = "Keyword parameter is required"

// Nearby is a validated radius search.
type Nearby struct {
	point      geo.Point
	radius     float64
	maxResults int
	keyword    string
}

// NewNearby validates and normalizes radius search parameters.
// The keyword is trimmed; an empty result means no keyword.
func NewNearby(lat, lon, radius float64, maxResults int, keyword string) (Nearby, error) {
	if !geo.ValidateCoordinates(lat, lon) {
		if math.IsNaN(lat) || lat < -90 || lat > 90 {
			return Nearby{}, domain.NewInvalidParameter("latitude", "latitude must be between -90 and 90")
		}
		return Nearby{}, domain.NewInvalidParameter("longitude", "longitude must be between -180 and 180")
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return Nearby{}, domain.NewInvalidParameter("radius", "radius must be a positive number of meters")
	}
	if err := validateMaxResults(maxResults); err != nil {
		return Nearby{}, err
	}
	kw, err := normalizeKeyword(keyword)
	if err != nil {
		return Nearby{}, err
	}

	return Nearby{
		point:      geo.Point{Latitude: lat, Longitude: lon},
		radius:     radius,
		maxResults: maxResults,
		keyword:    kw,
	}, nil
}

// Point returns the search center.
func (n *Nearby) Point() geo.Point { return n.point }

// Latitude returns the search center latitude.
func (n *Nearby) Latitude() float64 { return n.point.Latitude }

// Longitude returns the search center longitude.
func (n *Nearby) Longitude() float64 { return n.point.Longitude }

// Radius returns the search radius in meters.
func (n *Nearby) Radius() float64 { return n.radius }

// MaxResults returns the requested result cap.
func (n *Nearby) MaxResults() int { return n.maxResults }

// Keyword returns the trimmed keyword ("" when absent).
func (n *Nearby) Keyword() string { return n.keyword }

// HasKeyword reports whether a non-empty keyword was supplied.
func (n *Nearby) HasKeyword() bool { return n.keyword != "" }

// Keyword is a validated keyword-only search.
type Keyword struct {
	keyword    string
	maxResults int
}

// NewKeyword validates keyword-only search parameters.
// A blank keyword is a missing parameter.
func NewKeyword(keyword string, maxResults int) (Keyword, error) {
	kw, err := normalizeKeyword(keyword)
	if err != nil {
		return Keyword{}, err
	}
	if kw == "" {
		return Keyword{}, domain.NewMissingParameter("keyword", KeywordRequiredMessage)
	}
	if err := validateMaxResults(maxResults); err != nil {
		return Keyword{}, err
	}
	return Keyword{keyword: kw, maxResults: maxResults}, nil
}

// Keyword returns the trimmed keyword.
func (k *Keyword) Keyword() string { return k.keyword }

// MaxResults returns the requested result cap.
func (k *Keyword) MaxResults() int { return k.maxResults }

func validateMaxResults(n int) error {
	if n < 0 {
		return domain.NewInvalidParameter("max_results", "max_results must not be negative")
	}
	return nil
}

func normalizeKeyword(s string) (string, error) {
	kw := strings.TrimSpace(s)
	if !utf8.ValidString(kw) || strings.ContainsRune(kw, 0) {
		return "", domain.NewInvalidParameter("keyword", "keyword must be valid UTF-8 text")
	}
	if utf8.RuneCountInString(kw) > MaxKeywordLength {
		return "", domain.NewInvalidParameter("keyword",
			fmt.Sprintf("keyword too long (max %d characters)", MaxKeywordLength))
	}
	return kw, nil
}
