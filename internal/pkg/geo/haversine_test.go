package geo_test

import (
	"math"
	"testing"

	"github.com/jiljuapp/jilju/internal/pkg/geo"
)

func TestHaversine_Symmetry(t *testing.T) {
	pairs := [][4]float64{
		{33.4996, 126.5312, 33.2541, 126.5601}, // Jeju City ↔ Seogwipo
		{33.4636, 126.5579, 33.3890, 126.2370},
		{-45.0, 170.0, 60.0, -120.0},
	}

	for _, p := range pairs {
		ab := geo.Haversine(p[0], p[1], p[2], p[3])
		ba := geo.Haversine(p[2], p[3], p[0], p[1])
		if math.Abs(ab-ba) > 1e-6 {
			t.Errorf("asymmetric distance: %v vs %v", ab, ba)
		}
	}
}

func TestHaversine_Zero(t *testing.T) {
	if d := geo.Haversine(33.4996, 126.5312, 33.4996, 126.5312); d != 0 {
		t.Errorf("expected 0 for identical points, got %v", d)
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Jeju City Hall to Seogwipo is roughly 27-28 km.
	d := geo.HaversineKm(33.4996, 126.5312, 33.2541, 126.5601)
	if d < 25 || d > 30 {
		t.Errorf("Jeju-Seogwipo distance out of expected range: %v km", d)
	}

	// Meter and kilometer variants must agree.
	m := geo.Haversine(33.4996, 126.5312, 33.2541, 126.5601)
	if math.Abs(m-d*1000) > 1e-6 {
		t.Errorf("meter/km variants disagree: %v vs %v", m, d*1000)
	}
}

func TestFormatDistance(t *testing.T) {
	cases := []struct {
		meters float64
		want   string
	}{
		{0, "0m"},
		{450, "450m"},
		{999, "999m"},
		{1000, "1.0km"},
		{2300, "2.3km"},
		{15500, "15.5km"},
	}

	for _, c := range cases {
		if got := geo.FormatDistance(c.meters); got != c.want {
			t.Errorf("FormatDistance(%v) = %q, want %q", c.meters, got, c.want)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := geo.Validate(33.4996, 126.5312); err != nil {
		t.Errorf("unexpected error for valid coordinate: %v", err)
	}

	bad := [][2]float64{
		{math.NaN(), 126.5},
		{33.5, math.Inf(1)},
		{91, 0},
		{-91, 0},
		{0, 181},
		{0, -181},
	}
	for _, b := range bad {
		if err := geo.Validate(b[0], b[1]); err == nil {
			t.Errorf("expected error for (%v, %v)", b[0], b[1])
		}
	}
}

func TestBoundingBox_ContainsCenter(t *testing.T) {
	minLat, minLon, maxLat, maxLon := geo.BoundingBox(33.4996, 126.5312, 1000)
	if minLat >= 33.4996 || maxLat <= 33.4996 || minLon >= 126.5312 || maxLon <= 126.5312 {
		t.Errorf("bounding box does not contain center: %v %v %v %v", minLat, minLon, maxLat, maxLon)
	}
}
