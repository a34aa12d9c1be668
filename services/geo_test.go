package services

import (
	"errors"
	"math"
	"testing"
)

func TestHaversineMeters(t *testing.T) {
	tests := []struct {
		name string
		a, b Coordinates
		want float64
		tol  float64
	}{
		{"same point", Coordinates{13.7563, 100.5018}, Coordinates{13.7563, 100.5018}, 0, 0.001},
		{"one degree of latitude", Coordinates{0, 0}, Coordinates{1, 0}, 111195, 10},
		{"one degree of longitude at equator", Coordinates{0, 0}, Coordinates{0, 1}, 111195, 10},
		{"antipodes", Coordinates{0, 0}, Coordinates{0, 180}, math.Pi * earthRadiusMeters, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineMeters(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("HaversineMeters() = %.2f, want %.2f ± %.2f", got, tt.want, tt.tol)
			}
		})
	}
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		raw     string
		want    Coordinates
		wantErr bool
	}{
		{raw: "13.7563,100.5018", want: Coordinates{13.7563, 100.5018}},
		{raw: " -33.86 , 151.21 ", want: Coordinates{-33.86, 151.21}},
		{raw: "13.7563", wantErr: true},
		{raw: "abc,def", wantErr: true},
		{raw: "91,0", wantErr: true},
		{raw: "0,181", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCoordinates(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCoordinates) {
					t.Errorf("ParseCoordinates(%q) error = %v, want ErrInvalidCoordinates", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCoordinates(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseCoordinates(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseLocationConstraint(t *testing.T) {
	lc, err := ParseLocationConstraint("13.7563,100.5018,150")
	if err != nil {
		t.Fatalf("ParseLocationConstraint() error = %v", err)
	}
	if lc.RadiusMeters != 150 || lc.Center.Lat != 13.7563 {
		t.Errorf("ParseLocationConstraint() = %+v", lc)
	}
	if lc.String() != "13.7563,100.5018,150" {
		t.Errorf("String() = %q", lc.String())
	}

	for _, raw := range []string{"13.7,100.5", "13.7,100.5,0", "13.7,100.5,-5", "x,y,z"} {
		if _, err := ParseLocationConstraint(raw); !errors.Is(err, ErrInvalidLocationConstraint) {
			t.Errorf("ParseLocationConstraint(%q) error = %v, want ErrInvalidLocationConstraint", raw, err)
		}
	}
}

func TestLocationConstraintContains(t *testing.T) {
	lc := LocationConstraint{Center: Coordinates{13.7563, 100.5018}, RadiusMeters: 100}

	// ~0.0005 deg latitude is about 55 m
	if !lc.Contains(Coordinates{13.7568, 100.5018}) {
		t.Error("point ~55 m away should be inside a 100 m fence")
	}
	// ~0.002 deg latitude is about 222 m
	if lc.Contains(Coordinates{13.7583, 100.5018}) {
		t.Error("point ~222 m away should be outside a 100 m fence")
	}
}
