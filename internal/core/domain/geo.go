package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SRID of every stored point (WGS 84).
const SRID = 4326

// GeoPoint represents a geographic coordinate (WGS 84), in degrees.
type GeoPoint struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// NewGeoPoint validates lat/lng and returns the point.
func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	p := GeoPoint{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// Validate reports ErrInvalidCoordinate for non-finite or out-of-range values.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidCoordinate, p.Lat)
	}
	if math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidCoordinate, p.Lng)
	}
	return nil
}

// String returns the WKT form, POINT(lng lat).
func (p GeoPoint) String() string {
	return "POINT(" + formatDegrees(p.Lng) + " " + formatDegrees(p.Lat) + ")"
}

// ParseGeoPoint parses WKT or EWKT ("SRID=4326;POINT(lng lat)") into a validated point.
func ParseGeoPoint(s string) (GeoPoint, error) {
	raw := strings.TrimSpace(s)
	if i := strings.IndexByte(raw, ';'); i >= 0 && strings.HasPrefix(strings.ToUpper(raw), "SRID=") {
		raw = strings.TrimSpace(raw[i+1:])
	}

	upper := strings.ToUpper(raw)
	if !strings.HasPrefix(upper, "POINT") {
		return GeoPoint{}, fmt.Errorf("%w: not a point: %q", ErrInvalidCoordinate, s)
	}
	body := strings.TrimSpace(raw[len("POINT"):])
	if !strings.HasPrefix(body, "(") || !strings.HasSuffix(body, ")") {
		return GeoPoint{}, fmt.Errorf("%w: malformed point: %q", ErrInvalidCoordinate, s)
	}

	fields := strings.Fields(body[1 : len(body)-1])
	if len(fields) != 2 {
		return GeoPoint{}, fmt.Errorf("%w: expected 2 ordinates in %q", ErrInvalidCoordinate, s)
	}
	lng, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinate, fields[0])
	}
	lat, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinate, fields[1])
	}
	return NewGeoPoint(lat, lng)
}

// ParseCoordinatePair turns raw lat/lng strings into a point.
// Both empty yields (nil, nil); one without the other is invalid.
func ParseCoordinatePair(latRaw, lngRaw string) (*GeoPoint, error) {
	latRaw, lngRaw = strings.TrimSpace(latRaw), strings.TrimSpace(lngRaw)
	if latRaw == "" && lngRaw == "" {
		return nil, nil
	}
	if latRaw == "" || lngRaw == "" {
		return nil, fmt.Errorf("%w: latitude and longitude must be provided together", ErrInvalidCoordinate)
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: latitude %q is not a number", ErrInvalidCoordinate, latRaw)
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: longitude %q is not a number", ErrInvalidCoordinate, lngRaw)
	}

	p, err := NewGeoPoint(lat, lng)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// OptionalGeoPoint validates a pair of optional ordinates, as they arrive in JSON bodies.
func OptionalGeoPoint(lat, lng *float64) (*GeoPoint, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, fmt.Errorf("%w: latitude and longitude must be provided together", ErrInvalidCoordinate)
	}
	p, err := NewGeoPoint(*lat, *lng)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
