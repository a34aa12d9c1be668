package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadiusMeters = 6371000.0

type Coordinates struct {
	Lat float64
	Lng float64
}

func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// LocationConstraint is the geofence a QR token may carry.
type LocationConstraint struct {
	Center       Coordinates
	RadiusMeters float64
}

func (lc LocationConstraint) String() string {
	return lc.Center.String() + "," + strconv.FormatFloat(lc.RadiusMeters, 'f', -1, 64)
}

// Contains reports whether p lies within the radius (inclusive).
func (lc LocationConstraint) Contains(p Coordinates) bool {
	return HaversineMeters(lc.Center, p) <= lc.RadiusMeters
}

func parseFloats(raw string, n int) ([]float64, error) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated values, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("value %q is not a number", strings.TrimSpace(p))
		}
		out[i] = f
	}
	return out, nil
}

func validLatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ParseCoordinates parses "lat,lng".
func ParseCoordinates(raw string) (Coordinates, error) {
	v, err := parseFloats(raw, 2)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	if !validLatLng(v[0], v[1]) {
		return Coordinates{}, fmt.Errorf("%w: out of range", ErrInvalidCoordinates)
	}
	return Coordinates{Lat: v[0], Lng: v[1]}, nil
}

// ParseLocationConstraint parses "lat,lng,radius_meters".
func ParseLocationConstraint(raw string) (LocationConstraint, error) {
	v, err := parseFloats(raw, 3)
	if err != nil {
		return LocationConstraint{}, fmt.Errorf("%w: %v", ErrInvalidLocationConstraint, err)
	}
	if !validLatLng(v[0], v[1]) {
		return LocationConstraint{}, fmt.Errorf("%w: coordinates out of range", ErrInvalidLocationConstraint)
	}
	if v[2] <= 0 {
		return LocationConstraint{}, fmt.Errorf("%w: radius must be positive", ErrInvalidLocationConstraint)
	}
	return LocationConstraint{Center: Coordinates{Lat: v[0], Lng: v[1]}, RadiusMeters: v[2]}, nil
}

// HaversineMeters is the great-circle distance between a and b.
func HaversineMeters(a, b Coordinates) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
