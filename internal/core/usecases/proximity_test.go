package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/placemap/internal/core/domain"
	"github.com/samirrijal/placemap/internal/core/usecases"
)

var (
	tahrir  = domain.GeoPoint{Lat: 30.033333, Lng: 31.233334}
	zamalek = domain.GeoPoint{Lat: 30.040000, Lng: 31.220000}
	garden  = domain.GeoPoint{Lat: 30.050000, Lng: 31.245000}
)

func placeAt(id int64, distance float64) domain.Place {
	return domain.Place{ID: id, Name: "p", Distance: ptr(distance)}
}

func TestProximityEngine_NearbyPlaces_OrdersAndFilters(t *testing.T) {
	repo := &mockPlaceRepo{
		queryWithinFn: func(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.Place, error) {
			// Unordered, with a tie and an out-of-radius straggler.
			return []domain.Place{
				placeAt(4, 900),
				placeAt(3, 120),
				placeAt(9, 5001),
				placeAt(2, 120),
				placeAt(7, 0),
			}, nil
		},
	}

	engine := usecases.NewProximityEngine(nil, nil)
	got, err := engine.NearbyPlaces(context.Background(), repo, zamalek, 5000, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int64{7, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %d places, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected id %d, got %d", i, id, got[i].ID)
		}
	}
}

func TestProximityEngine_NearbyPlaces_Limit(t *testing.T) {
	repo := &mockPlaceRepo{
		queryWithinFn: func(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.Place, error) {
			return []domain.Place{placeAt(1, 30), placeAt(2, 10), placeAt(3, 20)}, nil
		},
	}

	engine := usecases.NewProximityEngine(nil, nil)
	got, err := engine.NearbyPlaces(context.Background(), repo, zamalek, 100, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Errorf("expected [2 3], got %+v", got)
	}
}

func TestProximityEngine_NonPositiveRadius_SkipsStore(t *testing.T) {
	called := false
	repo := &mockPlaceRepo{
		queryWithinFn: func(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.Place, error) {
			called = true
			return nil, nil
		},
	}

	engine := usecases.NewProximityEngine(nil, nil)
	for _, r := range []float64{0, -1} {
		got, err := engine.NearbyPlaces(context.Background(), repo, zamalek, r, 10)
		if err != nil {
			t.Fatalf("radius %v: unexpected error: %v", r, err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("radius %v: expected empty non-nil slice, got %v", r, got)
		}
	}
	if called {
		t.Error("store must not be queried for a non-positive radius")
	}
}

func TestProximityEngine_InvalidCenter(t *testing.T) {
	engine := usecases.NewProximityEngine(nil, nil)
	_, err := engine.NearbyUsers(context.Background(), &mockUserRepo{}, domain.GeoPoint{Lat: 95}, 100, 10)
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestProximityEngine_StoreFailureSurfacesUnchanged(t *testing.T) {
	storeErr := domain.Infrastructure("postgres.UserRepo.QueryWithin", errors.New("connection refused"))
	repo := &mockUserRepo{
		queryWithinFn: func(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.User, error) {
			return nil, storeErr
		},
	}

	engine := usecases.NewProximityEngine(nil, nil)
	_, err := engine.NearbyUsers(context.Background(), repo, zamalek, 100, 10)
	if err != storeErr {
		t.Errorf("expected the store error unchanged, got %v", err)
	}
	if !domain.IsInfrastructure(err) {
		t.Error("expected an infrastructure error")
	}
}

func TestProximityEngine_DistanceBetween(t *testing.T) {
	engine := usecases.NewProximityEngine(nil, nil)
	ctx := context.Background()

	d, err := engine.DistanceBetween(ctx, tahrir, garden)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d < 1000 || d > 5000 {
		t.Errorf("expected a few kilometers, got %.1f m", d)
	}

	back, _ := engine.DistanceBetween(ctx, garden, tahrir)
	if math.Abs(d-back) > 1e-6 {
		t.Errorf("distance not symmetric: %v vs %v", d, back)
	}

	zero, _ := engine.DistanceBetween(ctx, tahrir, tahrir)
	if zero != 0 {
		t.Errorf("expected 0 for identical points, got %v", zero)
	}

	ab, _ := engine.DistanceBetween(ctx, tahrir, zamalek)
	bc, _ := engine.DistanceBetween(ctx, zamalek, garden)
	if d > ab+bc+1e-6 {
		t.Errorf("triangle inequality violated: %v > %v + %v", d, ab, bc)
	}
}

func TestProximityEngine_DistanceBetween_InvalidPoint(t *testing.T) {
	engine := usecases.NewProximityEngine(nil, nil)
	_, err := engine.DistanceBetween(context.Background(), tahrir, domain.GeoPoint{Lat: 0, Lng: 181})
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestProximityEngine_DistanceBetween_Cached(t *testing.T) {
	calc := &mockDistance{fn: func(a, b domain.GeoPoint) (float64, error) { return 2213.5, nil }}
	engine := usecases.NewProximityEngine(calc, newMockCache())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := engine.DistanceBetween(ctx, tahrir, garden)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d != 2213.5 {
			t.Errorf("expected 2213.5, got %v", d)
		}
	}
	// Reverse direction shares the entry.
	if _, err := engine.DistanceBetween(ctx, garden, tahrir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calc.calls != 1 {
		t.Errorf("expected 1 calculator call, got %d", calc.calls)
	}
}

func TestProximityEngine_DistanceBetween_CalculatorError(t *testing.T) {
	calc := &mockDistance{fn: func(a, b domain.GeoPoint) (float64, error) {
		return 0, domain.Infrastructure("postgres.Distance", errors.New("timeout"))
	}}
	engine := usecases.NewProximityEngine(calc, newMockCache())

	_, err := engine.DistanceBetween(context.Background(), tahrir, garden)
	if !domain.IsInfrastructure(err) {
		t.Errorf("expected infrastructure error, got %v", err)
	}
}
