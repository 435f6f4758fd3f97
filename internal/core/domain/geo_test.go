package domain_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/samirrijal/placemap/internal/core/domain"
)

func TestNewGeoPoint_Valid(t *testing.T) {
	p, err := domain.NewGeoPoint(30.033333, 31.233334)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lat != 30.033333 || p.Lng != 31.233334 {
		t.Errorf("unexpected point %+v", p)
	}
}

func TestNewGeoPoint_Invalid(t *testing.T) {
	cases := []struct {
		name     string
		lat, lng float64
	}{
		{"lat above range", 91, 0},
		{"lat below range", -90.0001, 0},
		{"lng above range", 0, 180.5},
		{"lng below range", 0, -181},
		{"lat NaN", math.NaN(), 0},
		{"lng infinite", 0, math.Inf(1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.NewGeoPoint(tc.lat, tc.lng)
			if !errors.Is(err, domain.ErrInvalidCoordinate) {
				t.Errorf("expected ErrInvalidCoordinate, got %v", err)
			}
		})
	}
}

func TestNewGeoPoint_Boundaries(t *testing.T) {
	for _, p := range [][2]float64{{90, 180}, {-90, -180}, {0, 0}} {
		if _, err := domain.NewGeoPoint(p[0], p[1]); err != nil {
			t.Errorf("boundary %v rejected: %v", p, err)
		}
	}
}

func TestGeoPoint_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		want, _ := domain.NewGeoPoint(r.Float64()*180-90, r.Float64()*360-180)
		got, err := domain.ParseGeoPoint(want.String())
		if err != nil {
			t.Fatalf("parse %q: %v", want.String(), err)
		}
		if math.Abs(got.Lat-want.Lat) > 1e-9 || math.Abs(got.Lng-want.Lng) > 1e-9 {
			t.Fatalf("round trip mismatch: %+v -> %q -> %+v", want, want.String(), got)
		}
	}
}

func TestGeoPoint_String(t *testing.T) {
	p := domain.GeoPoint{Lat: 30.05, Lng: 31.245}
	if got := p.String(); got != "POINT(31.245 30.05)" {
		t.Errorf("unexpected WKT %q", got)
	}
}

func TestParseGeoPoint_EWKT(t *testing.T) {
	p, err := domain.ParseGeoPoint("SRID=4326;POINT(-2.935 43.263)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lat != 43.263 || p.Lng != -2.935 {
		t.Errorf("unexpected point %+v", p)
	}
}

func TestParseGeoPoint_Malformed(t *testing.T) {
	for _, s := range []string{"", "LINESTRING(0 0, 1 1)", "POINT(1)", "POINT(a b)", "POINT 1 2", "POINT(0 91)"} {
		if _, err := domain.ParseGeoPoint(s); !errors.Is(err, domain.ErrInvalidCoordinate) {
			t.Errorf("%q: expected ErrInvalidCoordinate, got %v", s, err)
		}
	}
}

func TestParseCoordinatePair(t *testing.T) {
	p, err := domain.ParseCoordinatePair("", "")
	if err != nil || p != nil {
		t.Errorf("both empty: expected nil, nil; got %v, %v", p, err)
	}

	if _, err := domain.ParseCoordinatePair("30.0", ""); !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("partial pair: expected ErrInvalidCoordinate, got %v", err)
	}
	if _, err := domain.ParseCoordinatePair("abc", "31"); !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("non-numeric: expected ErrInvalidCoordinate, got %v", err)
	}
	if _, err := domain.ParseCoordinatePair("91", "31"); !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("out of range: expected ErrInvalidCoordinate, got %v", err)
	}

	p, err = domain.ParseCoordinatePair(" 30.04 ", "31.23")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lat != 30.04 || p.Lng != 31.23 {
		t.Errorf("unexpected point %+v", p)
	}
}

func TestOptionalGeoPoint(t *testing.T) {
	lat := 30.0
	if _, err := domain.OptionalGeoPoint(&lat, nil); !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
	p, err := domain.OptionalGeoPoint(nil, nil)
	if p != nil || err != nil {
		t.Errorf("expected nil, nil; got %v, %v", p, err)
	}
}

func TestParseStatCounter(t *testing.T) {
	if c, err := domain.ParseStatCounter("likes"); err != nil || c != domain.StatLikes {
		t.Errorf("unexpected %v, %v", c, err)
	}
	if _, err := domain.ParseStatCounter("likes; DROP TABLE users"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestApplyStatDelta(t *testing.T) {
	tests := []struct {
		cur, delta, want int64
		wantErr          bool
	}{
		{cur: 3, delta: 2, want: 5},
		{cur: 3, delta: -10, want: 0},
		{cur: 0, delta: math.MinInt64, want: 0},
		{cur: math.MaxInt64 - 1, delta: 1, want: math.MaxInt64},
		{cur: math.MaxInt64, delta: 1, wantErr: true},
		{cur: 1, delta: math.MaxInt64, wantErr: true},
	}
	for _, tt := range tests {
		got, err := domain.ApplyStatDelta(tt.cur, tt.delta)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("ApplyStatDelta(%d, %d): expected ErrInvalidInput, got %v", tt.cur, tt.delta, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ApplyStatDelta(%d, %d) = %d, %v; want %d", tt.cur, tt.delta, got, err, tt.want)
		}
	}
}
