package usecases

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/placemap/internal/core/domain"
	"github.com/samirrijal/placemap/internal/core/ports"
	"github.com/samirrijal/placemap/internal/pkg/geospatial"
	"github.com/samirrijal/placemap/internal/pkg/metrics"
)

// distanceCacheTTL is long: a distance is a pure function of its endpoints.
const distanceCacheTTL = 24 * 60 * 60

// GeodesicDistance computes distances in-process on the WGS 84 ellipsoid.
type GeodesicDistance struct{}

// Distance implements ports.DistanceCalculator.
func (GeodesicDistance) Distance(_ context.Context, a, b domain.GeoPoint) (float64, error) {
	return geospatial.Distance(a.Lat, a.Lng, b.Lat, b.Lng), nil
}

// ProximityEngine ranks radius-search results and computes point-to-point distances.
// It holds no state of its own; entities live in the repositories passed to each call.
type ProximityEngine struct {
	distance ports.DistanceCalculator
	cache    ports.CacheService
	tracer   trace.Tracer
}

// NewProximityEngine creates a ProximityEngine. A nil calculator falls back to GeodesicDistance;
// cache may be nil.
func NewProximityEngine(distance ports.DistanceCalculator, cache ports.CacheService) *ProximityEngine {
	if distance == nil {
		distance = GeodesicDistance{}
	}
	return &ProximityEngine{
		distance: distance,
		cache:    cache,
		tracer:   otel.Tracer("github.com/samirrijal/placemap/usecases"),
	}
}

// NearbyPlaces returns places within radiusMeters of center, nearest first.
// limit <= 0 returns every match.
func (e *ProximityEngine) NearbyPlaces(ctx context.Context, places ports.PlaceRepository, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Place, error) {
	return findNearby(ctx, e.tracer, "place", center, radiusMeters, limit,
		places.QueryWithin,
		func(p domain.Place) (int64, *float64) { return p.ID, p.Distance },
	)
}

// NearbyUsers returns located users within radiusMeters of center, nearest first.
func (e *ProximityEngine) NearbyUsers(ctx context.Context, users ports.UserRepository, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.User, error) {
	return findNearby(ctx, e.tracer, "user", center, radiusMeters, limit,
		users.QueryWithin,
		func(u domain.User) (int64, *float64) { return u.ID, u.Distance },
	)
}

type queryWithin[T any] func(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]T, error)

func findNearby[T any](
	ctx context.Context,
	tracer trace.Tracer,
	entity string,
	center domain.GeoPoint,
	radiusMeters float64,
	limit int,
	query queryWithin[T],
	key func(T) (int64, *float64),
) ([]T, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		metrics.ProximityQueries.WithLabelValues(entity, "empty").Inc()
		return []T{}, nil
	}

	ctx, span := tracer.Start(ctx, "proximity.find_nearby", trace.WithAttributes(
		attribute.String("entity", entity),
		attribute.Float64("center.lat", center.Lat),
		attribute.Float64("center.lng", center.Lng),
		attribute.Float64("radius_m", radiusMeters),
		attribute.Int("limit", limit),
	))
	defer span.End()

	start := time.Now()
	items, err := query(ctx, center, radiusMeters, limit)
	metrics.ProximityQueryDuration.WithLabelValues(entity).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "spatial store query failed")
		metrics.ProximityQueries.WithLabelValues(entity, "error").Inc()
		return nil, err
	}

	ranked := rank(items, radiusMeters, limit, key)
	span.SetAttributes(attribute.Int("results", len(ranked)))
	metrics.ProximityQueries.WithLabelValues(entity, "ok").Inc()
	metrics.ProximityResults.WithLabelValues(entity).Observe(float64(len(ranked)))
	return ranked, nil
}

// rank drops items without a distance or beyond radiusMeters, orders the rest by
// distance then id, and truncates to limit when limit > 0.
func rank[T any](items []T, radiusMeters float64, limit int, key func(T) (int64, *float64)) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if _, d := key(it); d != nil && *d <= radiusMeters {
			out = append(out, it)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		idI, dI := key(out[i])
		idJ, dJ := key(out[j])
		if *dI != *dJ {
			return *dI < *dJ
		}
		return idI < idJ
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DistanceBetween returns the geodesic distance between a and b in meters.
func (e *ProximityEngine) DistanceBetween(ctx context.Context, a, b domain.GeoPoint) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	if a == b {
		return 0, nil
	}

	cacheKey := distanceCacheKey(a, b)
	if e.cache != nil {
		if data, err := e.cache.Get(ctx, cacheKey); err == nil {
			if d, err := strconv.ParseFloat(string(data), 64); err == nil {
				metrics.DistanceComputations.WithLabelValues("cache").Inc()
				return d, nil
			}
		}
	}

	ctx, span := e.tracer.Start(ctx, "proximity.distance_between")
	defer span.End()

	d, err := e.distance.Distance(ctx, a, b)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "distance calculation failed")
		return 0, err
	}
	metrics.DistanceComputations.WithLabelValues("calculator").Inc()

	if e.cache != nil {
		_ = e.cache.Set(ctx, cacheKey, []byte(strconv.FormatFloat(d, 'g', -1, 64)), distanceCacheTTL)
	}
	return d, nil
}

// distanceCacheKey is order-independent so a->b and b->a share an entry.
func distanceCacheKey(a, b domain.GeoPoint) string {
	x, y := a.String(), b.String()
	if y < x {
		x, y = y, x
	}
	return fmt.Sprintf("distance:%s:%s", x, y)
}
