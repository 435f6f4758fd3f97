// Package memory is an in-process spatial store backed by an R-tree.
// It serves local development (storage.driver=memory) and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samirrijal/placemap/internal/core/domain"
)

// Store holds places and users. All methods are safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	nextPlaceID int64
	places      map[int64]domain.Place
	placeIdx    *index

	nextUserID int64
	users      map[int64]domain.User
	userIdx    *index
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		places:   make(map[int64]domain.Place),
		placeIdx: newIndex(),
		users:    make(map[int64]domain.User),
		userIdx:  newIndex(),
	}
}

// Places returns the place repository view of the store.
func (s *Store) Places() *PlaceRepo { return &PlaceRepo{s: s} }

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// PlaceRepo implements ports.PlaceRepository in memory.
type PlaceRepo struct {
	s *Store
}

// Insert stores a place and assigns its id.
func (r *PlaceRepo) Insert(ctx context.Context, p *domain.Place) (int64, error) {
	if err := p.Location.Validate(); err != nil {
		return 0, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextPlaceID++
	p.ID = r.s.nextPlaceID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	stored := *p
	stored.Distance = nil
	r.s.places[p.ID] = stored
	r.s.placeIdx.put(p.ID, p.Location)
	return p.ID, nil
}

// Get returns nil, nil for an unknown id.
func (r *PlaceRepo) Get(ctx context.Context, id int64) (*domain.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.places[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Remove deletes a place; unknown ids are ignored.
func (r *PlaceRepo) Remove(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.places, id)
	r.s.placeIdx.remove(id)
	return nil
}

// QueryWithin returns places within radiusMeters of center, nearest first.
func (r *PlaceRepo) QueryWithin(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	hits, err := r.s.placeIdx.within(center, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("memory.PlaceRepo.QueryWithin: %w", err)
	}
	hits = orderHits(hits, limit)

	out := make([]domain.Place, 0, len(hits))
	for _, h := range hits {
		p := r.s.places[h.id]
		d := h.distance
		p.Distance = &d
		out = append(out, p)
	}
	return out, nil
}

// UserRepo implements ports.UserRepository in memory.
type UserRepo struct {
	s *Store
}

// Insert stores a user; username and email are unique, case-insensitively.
func (r *UserRepo) Insert(ctx context.Context, u *domain.User) (int64, error) {
	if u.Location != nil {
		if err := u.Location.Validate(); err != nil {
			return 0, err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return 0, fmt.Errorf("%w: username already taken", domain.ErrConflict)
		}
		if u.Email != "" && strings.EqualFold(existing.Email, u.Email) {
			return 0, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
	}

	r.s.nextUserID++
	now := time.Now().UTC()
	u.ID = r.s.nextUserID
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = cloneUser(*u)
	if u.Location != nil {
		r.s.userIdx.put(u.ID, *u.Location)
	}
	return u.ID, nil
}

// Get returns nil, nil for an unknown id.
func (r *UserRepo) Get(ctx context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	c := cloneUser(u)
	return &c, nil
}

// GetByLogin looks a user up by username or email; nil, nil when absent.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, login) || (u.Email != "" && strings.EqualFold(u.Email, login)) {
			c := cloneUser(u)
			return &c, nil
		}
	}
	return nil, nil
}

// Remove deletes a user; unknown ids are ignored.
func (r *UserRepo) Remove(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.users, id)
	r.s.userIdx.remove(id)
	return nil
}

// UpdateCoordinate replaces a user's location.
func (r *UserRepo) UpdateCoordinate(ctx context.Context, id int64, p domain.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	u.Location = &p
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	r.s.userIdx.put(id, p)
	return nil
}

// UpdateProfile applies the non-nil fields of upd.
func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, upd domain.ProfileUpdate) (*domain.User, error) {
	if upd.Location != nil {
		if err := upd.Location.Validate(); err != nil {
			return nil, err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.Website != nil {
		u.Website = *upd.Website
	}
	if upd.Location != nil {
		loc := *upd.Location
		u.Location = &loc
		r.s.userIdx.put(id, loc)
	}
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u

	c := cloneUser(u)
	return &c, nil
}

// SetAvatar records the uploaded avatar.
func (r *UserRepo) SetAvatar(ctx context.Context, id int64, asset domain.Asset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	u.AvatarURL = asset.URL
	u.AvatarAssetID = asset.ID
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return nil
}

// IncrementStat adds delta to a counter, clamping at zero.
func (r *UserRepo) IncrementStat(ctx context.Context, id int64, counter domain.StatCounter, delta int64) (*domain.UserStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}

	var field *int64
	switch counter {
	case domain.StatFollowers:
		field = &u.Stats.Followers
	case domain.StatFollowing:
		field = &u.Stats.Following
	case domain.StatLikes:
		field = &u.Stats.Likes
	case domain.StatVisits:
		field = &u.Stats.Visits
	default:
		return nil, fmt.Errorf("%w: unknown counter %q", domain.ErrInvalidInput, counter)
	}
	next, err := domain.ApplyStatDelta(*field, delta)
	if err != nil {
		return nil, err
	}
	*field = next

	r.s.users[id] = u
	stats := u.Stats
	return &stats, nil
}

// Search matches username or display name case-insensitively, ordered by id.
func (r *UserRepo) Search(ctx context.Context, query string, offset, limit int) ([]domain.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	q := strings.ToLower(query)
	var matches []domain.User
	for _, u := range r.s.users {
		if strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.DisplayName), q) {
			matches = append(matches, cloneUser(u))
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	total := len(matches)
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return matches[offset:end], total, nil
}

// QueryWithin returns located users within radiusMeters of center, nearest first.
func (r *UserRepo) QueryWithin(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	hits, err := r.s.userIdx.within(center, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("memory.UserRepo.QueryWithin: %w", err)
	}
	hits = orderHits(hits, limit)

	out := make([]domain.User, 0, len(hits))
	for _, h := range hits {
		u := cloneUser(r.s.users[h.id])
		d := h.distance
		u.Distance = &d
		out = append(out, u)
	}
	return out, nil
}

func orderHits(hits []hit, limit int) []hit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].id < hits[j].id
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// cloneUser copies the location so callers cannot mutate stored state.
func cloneUser(u domain.User) domain.User {
	if u.Location != nil {
		loc := *u.Location
		u.Location = &loc
	}
	u.Distance = nil
	return u
}
