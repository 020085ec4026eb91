package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/facilityfinder/internal/domain/facility"
	"github.com/kailas-cloud/facilityfinder/internal/domain/geo"
)

// ErrInvalidFacility signals a dataset entry that cannot be imported.
var ErrInvalidFacility = errors.New("invalid facility")

// Facility is one dataset entry. Empty strings are stored as NULL.
type Facility struct {
	Name              string  `json:"name" yaml:"name"`
	Address           string  `json:"address" yaml:"address"`
	Zipcode           string  `json:"zipcode" yaml:"zipcode"`
	DepartmentContent string  `json:"department_content" yaml:"department_content"`
	LastModifiedDate  string  `json:"last_modified_date" yaml:"last_modified_date"`
	UpdatedDate       string  `json:"updated_date" yaml:"updated_date"`
	Latitude          float64 `json:"latitude" yaml:"latitude"`
	Longitude         float64 `json:"longitude" yaml:"longitude"`
}

// Validate checks coordinates and date formats.
func (f *Facility) Validate() error {
	if !geo.ValidateCoordinates(f.Latitude, f.Longitude) {
		return fmt.Errorf("%w: coordinates (%v, %v) out of range", ErrInvalidFacility, f.Latitude, f.Longitude)
	}
	for _, d := range []struct{ name, value string }{
		{facility.ColLastModifiedDate, f.LastModifiedDate},
		{facility.ColUpdatedDate, f.UpdatedDate},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse(facility.DateLayout, d.value); err != nil {
			return fmt.Errorf("%w: %s %q is not YYYY-MM-DD", ErrInvalidFacility, d.name, d.value)
		}
	}
	return nil
}

// Parse decodes a YAML or JSON list of facilities, choosing the format by file extension,
// and validates every entry.
func Parse(filename string, data []byte) ([]Facility, error) {
	var out []Facility
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
	default:
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}

	for i := range out {
		if err := out[i].Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return out, nil
}

// nullable maps "" to nil so that empty fields are stored as NULL.
func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
