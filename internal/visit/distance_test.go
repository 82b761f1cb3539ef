package visit

import (
	"math"
	"testing"
)

func TestDistance_Symmetric(t *testing.T) {
	points := [][2]float64{
		{51.5007, -0.1246},
		{51.6, 0.0},
		{-33.8568, 151.2153},
		{0, 0},
		{89.9, 179.9},
		{-45.0, -120.5},
	}

	for _, a := range points {
		for _, b := range points {
			ab := Distance(a[0], a[1], b[0], b[1])
			ba := Distance(b[0], b[1], a[0], a[1])
			if diff := math.Abs(ab - ba); diff > 1e-6*math.Max(ab, 1) {
				t.Errorf("Distance(%v, %v) = %v, reverse = %v", a, b, ab, ba)
			}
		}
	}
}

func TestDistance_SamePoint(t *testing.T) {
	if d := Distance(51.5007, -0.1246, 51.5007, -0.1246); d != 0 {
		t.Errorf("Distance(A, A) = %v, want 0", d)
	}
}

func TestDistance_Antipodal(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
	}{
		{"equator", 0, 0, 0, 180},
		{"poles", 90, 0, -90, 0},
		{"london", 51.5007, -0.1246, -51.5007, 179.8754},
	}

	want := math.Pi * EarthRadius
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.IsNaN(d) {
				t.Fatal("Distance() = NaN")
			}
			if math.Abs(d-want) > 1 {
				t.Errorf("Distance() = %v, want ~%v", d, want)
			}
		})
	}
}

func TestDistance_KnownValue(t *testing.T) {
	// One degree of latitude along a meridian.
	d := Distance(0, 0, 1, 0)
	want := EarthRadius * math.Pi / 180
	if math.Abs(d-want) > 0.001 {
		t.Errorf("Distance() = %v, want %v", d, want)
	}
}
