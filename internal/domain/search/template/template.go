package template

// Template identifies one of the fixed search query shapes.
type Template string

// Query templates.
const (
	// RadiusOnly filters by geographic distance; result order is unspecified.
	RadiusOnly Template = "radius_only"
	// RadiusWithKeyword filters by distance and ranks by text similarity.
	RadiusWithKeyword Template = "radius_with_keyword"
	// GlobalKeyword ranks every record by text similarity, with no spatial filter.
	GlobalKeyword Template = "global_keyword"
)

// ForNearby picks the template for a radius search.
func ForNearby(hasKeyword bool) Template {
	if hasKeyword {
		return RadiusWithKeyword
	}
	return RadiusOnly
}

// IsValid checks if the template is one of the supported values.
func (t Template) IsValid() bool {
	return t == RadiusOnly || t == RadiusWithKeyword || t == GlobalKeyword
}

// Ranked reports whether rows carry a similarity score and are ordered by it.
func (t Template) Ranked() bool {
	return t == RadiusWithKeyword || t == GlobalKeyword
}

// Spatial reports whether the template applies the radius predicate.
func (t Template) Spatial() bool {
	return t == RadiusOnly || t == RadiusWithKeyword
}

// Params are the values bound into a template. Fields a template does not use are ignored.
type Params struct {
	Latitude   float64
	Longitude  float64
	Radius     float64
	Keyword    string
	MaxResults int
}
