package projection

import (
	"math"
	"testing"
)

func TestProjectMagnitudeEqualsRadius(t *testing.T) {
	radii := []float64{1, 2.15, 6371}
	for _, r := range radii {
		for lat := -90.0; lat <= 90; lat += 15 {
			for lon := -180.0; lon <= 180; lon += 30 {
				v := Project(lat, lon, r)
				if rel := math.Abs(v.Length()-r) / r; rel > 1e-9 {
					t.Fatalf("Project(%v, %v, %v) length %v, want %v", lat, lon, r, v.Length(), r)
				}
			}
		}
	}
}

func TestProjectOriginIntersection(t *testing.T) {
	// (0°, 0°) lands on the +X axis: theta = 180° makes cos(theta) = -1,
	// which the leading negation flips back to +radius.
	v := Project(0, 0, 5)
	if math.Abs(v.X-5) > 1e-9 || math.Abs(v.Y) > 1e-9 || math.Abs(v.Z) > 1e-9 {
		t.Errorf("Project(0, 0, 5) = %+v, want (5, 0, 0)", v)
	}
}

func TestProjectPolesIgnoreLongitude(t *testing.T) {
	for _, lat := range []float64{90, -90} {
		ref := Project(lat, 0, 2.15)
		for lon := -180.0; lon <= 180; lon += 45 {
			v := Project(lat, lon, 2.15)
			if math.Abs(v.X-ref.X) > 1e-9 || math.Abs(v.Y-ref.Y) > 1e-9 || math.Abs(v.Z-ref.Z) > 1e-9 {
				t.Errorf("pole lat=%v lon=%v: got %+v, want %+v", lat, lon, v, ref)
			}
		}
		wantY := 2.15
		if lat < 0 {
			wantY = -2.15
		}
		if math.Abs(ref.Y-wantY) > 1e-9 {
			t.Errorf("pole lat=%v: Y = %v, want %v", lat, ref.Y, wantY)
		}
	}
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		latStr, lonStr string
		wantOK         bool
	}{
		{"12.5", "-45.25", true},
		{"-90", "180", true},
		{"", "10", false},
		{"abc", "10", false},
		{"10", "xyz", false},
		{"NaN", "10", false},
		{"10", "+Inf", false},
	}
	for _, tt := range tests {
		_, _, ok := ParseCoordinate(tt.latStr, tt.lonStr)
		if ok != tt.wantOK {
			t.Errorf("ParseCoordinate(%q, %q) ok = %v, want %v", tt.latStr, tt.lonStr, ok, tt.wantOK)
		}
	}

	lat, lon, ok := ParseCoordinate("12.5", "-45.25")
	if !ok || lat != 12.5 || lon != -45.25 {
		t.Errorf("ParseCoordinate(12.5, -45.25) = %v, %v, %v", lat, lon, ok)
	}
}
