package finder

import "github.com/kailas-cloud/facilityfinder/internal/domain/facility"

// Facility is one search hit. Nil fields were NULL in the database.
type Facility struct {
	Name              *string
	Address           *string
	Zipcode           *string
	DepartmentContent *string
	LastModifiedDate  *string // YYYY-MM-DD
	UpdatedDate       *string // YYYY-MM-DD
	// Location is the facility point as a GeoJSON string.
	Location string
	// SimilarityScore is set for keyword searches only.
	SimilarityScore *float64
}

// NearbyQuery describes a radius search. An empty Keyword disables ranking.
type NearbyQuery struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Keyword      string
	// MaxResults caps the hits. Nil uses the client default (30 unless
	// WithDefaultMaxResults says otherwise); Limit(0) returns no rows.
	MaxResults *int
}

// KeywordQuery describes a table-wide keyword search.
type KeywordQuery struct {
	Keyword string
	// MaxResults follows the same rules as NearbyQuery.MaxResults.
	MaxResults *int
}

// Limit returns a pointer to n for the MaxResults fields.
func Limit(n int) *int { return &n }

func facilitiesFromRecords(recs []facility.Record) []Facility {
	out := make([]Facility, len(recs))
	for i := range recs {
		r := &recs[i]
		out[i] = Facility{
			Name:              r.Name,
			Address:           r.Address,
			Zipcode:           r.Zipcode,
			DepartmentContent: r.DepartmentContent,
			LastModifiedDate:  r.LastModifiedDate,
			UpdatedDate:       r.UpdatedDate,
			Location:          r.Location,
			SimilarityScore:   r.SimilarityScore,
		}
	}
	return out
}
