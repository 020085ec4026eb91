package template

import "testing"

func TestForNearby(t *testing.T) {
	if got := ForNearby(false); got != RadiusOnly {
		t.Errorf("ForNearby(false) = %q, want %q", got, RadiusOnly)
	}
	if got := ForNearby(true); got != RadiusWithKeyword {
		t.Errorf("ForNearby(true) = %q, want %q", got, RadiusWithKeyword)
	}
}

func TestIsValid(t *testing.T) {
	valid := []Template{RadiusOnly, RadiusWithKeyword, GlobalKeyword}
	for _, tmpl := range valid {
		if !tmpl.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", tmpl)
		}
	}

	invalid := []Template{"", "radius", "RADIUS_ONLY", "keyword"}
	for _, tmpl := range invalid {
		if tmpl.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", tmpl)
		}
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		tmpl    Template
		ranked  bool
		spatial bool
	}{
		{RadiusOnly, false, true},
		{RadiusWithKeyword, true, true},
		{GlobalKeyword, true, false},
	}
	for _, tc := range tests {
		if tc.tmpl.Ranked() != tc.ranked {
			t.Errorf("%q.Ranked() = %v", tc.tmpl, tc.tmpl.Ranked())
		}
		if tc.tmpl.Spatial() != tc.spatial {
			t.Errorf("%q.Spatial() = %v", tc.tmpl, tc.tmpl.Spatial())
		}
	}
}
