package ports

import (
	"context"

	"github.com/samirrijal/placemap/internal/core/domain"
)

// PlaceRepository persists places in a spatially indexed store.
type PlaceRepository interface {
	// Insert stores a place and returns its new id.
	Insert(ctx context.Context, place *domain.Place) (int64, error)
	// Get returns nil, nil when the id does not exist.
	Get(ctx context.Context, id int64) (*domain.Place, error)
	// Remove is idempotent.
	Remove(ctx context.Context, id int64) error
	// QueryWithin returns places within radiusMeters of center with Distance set.
	// limit <= 0 means no cap.
	QueryWithin(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Place, error)
}

// UserRepository persists user accounts; a user's location is optional.
type UserRepository interface {
	Insert(ctx context.Context, user *domain.User) (int64, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	Remove(ctx context.Context, id int64) error
	UpdateCoordinate(ctx context.Context, id int64, point domain.GeoPoint) error
	UpdateProfile(ctx context.Context, id int64, upd domain.ProfileUpdate) (*domain.User, error)
	SetAvatar(ctx context.Context, id int64, asset domain.Asset) error
	IncrementStat(ctx context.Context, id int64, counter domain.StatCounter, delta int64) (*domain.UserStats, error)
	Search(ctx context.Context, query string, offset, limit int) ([]domain.User, int, error)
	QueryWithin(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.User, error)
}

// DistanceCalculator computes ellipsoidal geodesic distances in meters.
type DistanceCalculator interface {
	Distance(ctx context.Context, a, b domain.GeoPoint) (float64, error)
}
