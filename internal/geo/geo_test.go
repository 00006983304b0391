package geo

import (
	"errors"
	"math"
	"testing"
)

func TestParseLonLat_Valid(t *testing.T) {
	lon, lat, err := ParseLonLat("10.5, -20.25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lon != 10.5 {
		t.Errorf("expected lon=10.5, got %f", lon)
	}
	if lat != -20.25 {
		t.Errorf("expected lat=-20.25, got %f", lat)
	}
}

func TestParseLonLat_IgnoresElevation(t *testing.T) {
	lon, lat, err := ParseLonLat("1,2,300")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lon != 1 || lat != 2 {
		t.Errorf("expected (1,2), got (%f,%f)", lon, lat)
	}
}

func TestParseLonLat_Invalid(t *testing.T) {
	inputs := []string{"", "1", "abc,2", "1,abc", "181,0", "0,89", "NaN,0"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, _, err := ParseLonLat(in)
			if !errors.Is(err, ErrInvalidCoordinates) {
				t.Errorf("expected ErrInvalidCoordinates, got %v", err)
			}
		})
	}
}

func TestMercator_Origin(t *testing.T) {
	p := Mercator(0, 0)
	if math.Abs(p.X) > 1e-6 || math.Abs(p.Y) > 1e-6 {
		t.Errorf("expected origin, got %v", p)
	}
}

func TestMercator_Quadrants(t *testing.T) {
	ne := Mercator(10, 10)
	if ne.X <= 0 || ne.Y <= 0 {
		t.Errorf("expected positive X and Y, got %v", ne)
	}
	sw := Mercator(-45, -30)
	if sw.X >= 0 || sw.Y >= 0 {
		t.Errorf("expected negative X and Y, got %v", sw)
	}
}

func TestNewExtent_Invalid(t *testing.T) {
	tests := []struct {
		name                   string
		lon1, lat1, lon2, lat2 float64
	}{
		{"zero width", 5, 0, 5, 10},
		{"zero height", 0, 5, 10, 5},
		{"out of bounds", 0, 0, 200, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtent(tt.lon1, tt.lat1, tt.lon2, tt.lat2)
			if !errors.Is(err, ErrInvalidExtent) {
				t.Errorf("expected ErrInvalidExtent, got %v", err)
			}
		})
	}
}

func TestExtent_Normalize(t *testing.T) {
	// corners given in reverse order on purpose
	e, err := NewExtent(10, 10, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	x, y, ok := e.Normalize(0, 10)
	if !ok || math.Abs(x) > 1e-9 || math.Abs(y) > 1e-9 {
		t.Errorf("north west corner should be (0,0), got (%f,%f,%v)", x, y, ok)
	}

	x, y, ok = e.Normalize(10, 0)
	if !ok || math.Abs(x-1) > 1e-9 || math.Abs(y-1) > 1e-9 {
		t.Errorf("south east corner should be (1,1), got (%f,%f,%v)", x, y, ok)
	}

	x, _, ok = e.Normalize(5, 5)
	if !ok || math.Abs(x-0.5) > 1e-9 {
		t.Errorf("longitude is linear in mercator, expected x=0.5, got %f", x)
	}

	if _, _, ok = e.Normalize(20, 5); ok {
		t.Error("point east of the extent should not be ok")
	}
}
