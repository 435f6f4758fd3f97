package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samirrijal/placemap/internal/core/domain"
	"github.com/samirrijal/placemap/internal/core/ports"
)

// CreatePlaceInput is the payload for PlaceService.Create.
type CreatePlaceInput struct {
	Name        string
	Description string
	Location    *domain.GeoPoint
}

// PlaceService handles place-related business logic.
type PlaceService struct {
	places ports.PlaceRepository
	engine *ProximityEngine
	cache  ports.CacheService
	events ports.EventPublisher
}

// NewPlaceService creates a new PlaceService. cache and events may be nil.
func NewPlaceService(places ports.PlaceRepository, engine *ProximityEngine, cache ports.CacheService, events ports.EventPublisher) *PlaceService {
	return &PlaceService{places: places, engine: engine, cache: cache, events: events}
}

// Create stores a new place. The coordinate is mandatory.
func (s *PlaceService) Create(ctx context.Context, in CreatePlaceInput) (*domain.Place, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if in.Location == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", domain.ErrMissingCoordinate)
	}
	if err := in.Location.Validate(); err != nil {
		return nil, err
	}

	place := &domain.Place{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Location:    *in.Location,
	}
	if _, err := s.places.Insert(ctx, place); err != nil {
		return nil, err
	}

	loc := place.Location
	publish(ctx, s.events, domain.DomainEvent{Type: domain.EventPlaceCreated, EntityID: place.ID, Location: &loc})
	return place, nil
}

// Get returns a single place or ErrNotFound.
func (s *PlaceService) Get(ctx context.Context, id int64) (*domain.Place, error) {
	cacheKey := placeCacheKey(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var place domain.Place
			if err := json.Unmarshal(data, &place); err == nil {
				return &place, nil
			}
		}
	}

	place, err := s.places.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, fmt.Errorf("place %d: %w", id, domain.ErrNotFound)
	}

	if s.cache != nil {
		if data, err := json.Marshal(place); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600) // places are immutable once created
		}
	}
	return place, nil
}

// Delete removes a place. Unknown ids yield ErrNotFound.
func (s *PlaceService) Delete(ctx context.Context, id int64) error {
	place, err := s.places.Get(ctx, id)
	if err != nil {
		return err
	}
	if place == nil {
		return fmt.Errorf("place %d: %w", id, domain.ErrNotFound)
	}

	if err := s.places.Remove(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, placeCacheKey(id))
	}

	loc := place.Location
	publish(ctx, s.events, domain.DomainEvent{Type: domain.EventPlaceDeleted, EntityID: id, Location: &loc})
	return nil
}

// FindNearby returns places within radiusMeters of center, nearest first.
// Results are not cached so that deletions are visible immediately.
func (s *PlaceService) FindNearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Place, error) {
	return s.engine.NearbyPlaces(ctx, s.places, center, radiusMeters, limit)
}

// Distance returns the geodesic distance between two points in meters.
func (s *PlaceService) Distance(ctx context.Context, from, to domain.GeoPoint) (float64, error) {
	return s.engine.DistanceBetween(ctx, from, to)
}

func placeCacheKey(id int64) string {
	return fmt.Sprintf("places:id:%d", id)
}

// publish sends a domain event; failures are logged and never fail the request.
func publish(ctx context.Context, events ports.EventPublisher, ev domain.DomainEvent) {
	if events == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := events.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "publish event", "type", ev.Type, "entity_id", ev.EntityID, "error", err)
	}
}
