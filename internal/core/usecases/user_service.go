package usecases

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/samirrijal/placemap/internal/core/domain"
	"github.com/samirrijal/placemap/internal/core/ports"
)

const (
	DefaultNearbyUserLimit = 50
	MaxNearbyUserLimit     = 100

	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// UserService handles profile, location and engagement logic for accounts.
type UserService struct {
	users   ports.UserRepository
	engine  *ProximityEngine
	images  ports.ImageHost
	janitor ports.AssetJanitor
	events  ports.EventPublisher
}

// NewUserService creates a new UserService. images, janitor and events may be nil;
// avatar uploads then fail with ErrUnavailable.
func NewUserService(users ports.UserRepository, engine *ProximityEngine, images ports.ImageHost, janitor ports.AssetJanitor, events ports.EventPublisher) *UserService {
	return &UserService{users: users, engine: engine, images: images, janitor: janitor, events: events}
}

// Get returns a user or ErrNotFound.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

// FindNearby returns located users around center. limit defaults to 50 and is capped at 100.
func (s *UserService) FindNearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) (*domain.NearbyUsers, error) {
	if limit <= 0 {
		limit = DefaultNearbyUserLimit
	}
	if limit > MaxNearbyUserLimit {
		limit = MaxNearbyUserLimit
	}

	users, err := s.engine.NearbyUsers(ctx, s.users, center, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = users[i].Public()
	}
	return &domain.NearbyUsers{
		Center: center,
		Radius: radiusMeters,
		Count:  len(users),
		Users:  users,
	}, nil
}

// UpdateLocation sets or replaces the user's coordinate.
func (s *UserService) UpdateLocation(ctx context.Context, id int64, p domain.GeoPoint) (*domain.User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.UpdateCoordinate(ctx, id, p); err != nil {
		return nil, err
	}
	publish(ctx, s.events, domain.DomainEvent{Type: domain.EventUserLocationUpdated, EntityID: id, Location: &p})
	return s.Get(ctx, id)
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, upd domain.ProfileUpdate) (*domain.User, error) {
	if upd.Empty() {
		return s.Get(ctx, id)
	}
	if upd.Website != nil {
		w := strings.TrimSpace(*upd.Website)
		if w != "" && !strings.HasPrefix(w, "http://") && !strings.HasPrefix(w, "https://") {
			return nil, fmt.Errorf("%w: website must be an http(s) URL", domain.ErrInvalidInput)
		}
		upd.Website = &w
	}
	if upd.Location != nil {
		if err := upd.Location.Validate(); err != nil {
			return nil, err
		}
	}

	u, err := s.users.UpdateProfile(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if upd.Location != nil {
		loc := *upd.Location
		publish(ctx, s.events, domain.DomainEvent{Type: domain.EventUserLocationUpdated, EntityID: id, Location: &loc})
	}
	return u, nil
}

// UpdateAvatar uploads a new avatar and schedules removal of the previous one.
func (s *UserService) UpdateAvatar(ctx context.Context, id int64, filename string, content io.Reader) (*domain.User, error) {
	if s.images == nil {
		return nil, fmt.Errorf("%w: image host not configured", domain.ErrUnavailable)
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := u.AvatarAssetID

	asset, err := s.images.Upload(ctx, filename, content)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetAvatar(ctx, id, asset); err != nil {
		s.cleanupAsset(ctx, id, asset.ID)
		return nil, err
	}
	if previous != "" {
		s.cleanupAsset(ctx, id, previous)
	}

	u.AvatarURL = asset.URL
	u.AvatarAssetID = asset.ID
	return u, nil
}

// Delete removes the account and schedules cleanup of its avatar.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Remove(ctx, id); err != nil {
		return err
	}
	if u.AvatarAssetID != "" {
		s.cleanupAsset(ctx, id, u.AvatarAssetID)
	}
	publish(ctx, s.events, domain.DomainEvent{Type: domain.EventUserDeleted, EntityID: id})
	return nil
}

// Search finds users by username or display name. It returns the page and the total match count.
func (s *UserService) Search(ctx context.Context, query string, offset, limit int) ([]domain.User, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, fmt.Errorf("%w: search query must not be empty", domain.ErrInvalidInput)
	}
	offset, limit = SearchPage(offset, limit)

	users, total, err := s.users.Search(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	for i := range users {
		users[i] = users[i].Public()
	}
	return users, total, nil
}

// SearchPage normalizes a search window: offset >= 0, limit in [1, MaxSearchLimit].
func SearchPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return offset, min(limit, MaxSearchLimit)
}

// IncrementStat atomically adjusts an engagement counter; counters never go below zero.
func (s *UserService) IncrementStat(ctx context.Context, id int64, counter string, delta int64) (*domain.UserStats, error) {
	c, err := domain.ParseStatCounter(counter)
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		u, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return &u.Stats, nil
	}
	return s.users.IncrementStat(ctx, id, c, delta)
}

func (s *UserService) cleanupAsset(ctx context.Context, userID int64, assetID string) {
	if s.janitor == nil {
		return
	}
	if err := s.janitor.ScheduleAssetCleanup(ctx, userID, assetID); err != nil {
		slog.WarnContext(ctx, "schedule asset cleanup", "user_id", userID, "asset_id", assetID, "error", err)
	}
}
