package usecases_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/samirrijal/placemap/internal/core/domain"
)

// --- Mock PlaceRepository ---

type mockPlaceRepo struct {
	insertFn      func(ctx context.Context, p *domain.Place) (int64, error)
	getFn         func(ctx context.Context, id int64) (*domain.Place, error)
	removeFn      func(ctx context.Context, id int64) error
	queryWithinFn func(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.Place, error)
}

func (m *mockPlaceRepo) Insert(ctx context.Context, p *domain.Place) (int64, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, p)
	}
	p.ID = 1
	return 1, nil
}

func (m *mockPlaceRepo) Get(ctx context.Context, id int64) (*domain.Place, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockPlaceRepo) Remove(ctx context.Context, id int64) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, id)
	}
	return nil
}

func (m *mockPlaceRepo) QueryWithin(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.Place, error) {
	if m.queryWithinFn != nil {
		return m.queryWithinFn(ctx, center, radius, limit)
	}
	return nil, nil
}

// --- Mock UserRepository ---

type mockUserRepo struct {
	insertFn           func(ctx context.Context, u *domain.User) (int64, error)
	getFn              func(ctx context.Context, id int64) (*domain.User, error)
	getByLoginFn       func(ctx context.Context, login string) (*domain.User, error)
	removeFn           func(ctx context.Context, id int64) error
	updateCoordinateFn func(ctx context.Context, id int64, p domain.GeoPoint) error
	updateProfileFn    func(ctx context.Context, id int64, upd domain.ProfileUpdate) (*domain.User, error)
	setAvatarFn        func(ctx context.Context, id int64, asset domain.Asset) error
	incrementStatFn    func(ctx context.Context, id int64, c domain.StatCounter, delta int64) (*domain.UserStats, error)
	searchFn           func(ctx context.Context, q string, offset, limit int) ([]domain.User, int, error)
	queryWithinFn      func(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.User, error)
}

func (m *mockUserRepo) Insert(ctx context.Context, u *domain.User) (int64, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, u)
	}
	u.ID = 1
	return 1, nil
}

func (m *mockUserRepo) Get(ctx context.Context, id int64) (*domain.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	if m.getByLoginFn != nil {
		return m.getByLoginFn(ctx, login)
	}
	return nil, nil
}

func (m *mockUserRepo) Remove(ctx context.Context, id int64) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) UpdateCoordinate(ctx context.Context, id int64, p domain.GeoPoint) error {
	if m.updateCoordinateFn != nil {
		return m.updateCoordinateFn(ctx, id, p)
	}
	return nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id int64, upd domain.ProfileUpdate) (*domain.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, upd)
	}
	return &domain.User{ID: id}, nil
}

func (m *mockUserRepo) SetAvatar(ctx context.Context, id int64, asset domain.Asset) error {
	if m.setAvatarFn != nil {
		return m.setAvatarFn(ctx, id, asset)
	}
	return nil
}

func (m *mockUserRepo) IncrementStat(ctx context.Context, id int64, c domain.StatCounter, delta int64) (*domain.UserStats, error) {
	if m.incrementStatFn != nil {
		return m.incrementStatFn(ctx, id, c, delta)
	}
	return &domain.UserStats{}, nil
}

func (m *mockUserRepo) Search(ctx context.Context, q string, offset, limit int) ([]domain.User, int, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockUserRepo) QueryWithin(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.User, error) {
	if m.queryWithinFn != nil {
		return m.queryWithinFn(ctx, center, radius, limit)
	}
	return nil, nil
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []domain.DomainEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, ev domain.DomainEvent) error {
	m.events = append(m.events, ev)
	return m.err
}

// --- Mock DistanceCalculator ---

type mockDistance struct {
	calls int
	fn    func(a, b domain.GeoPoint) (float64, error)
}

func (m *mockDistance) Distance(ctx context.Context, a, b domain.GeoPoint) (float64, error) {
	m.calls++
	return m.fn(a, b)
}

// --- Mock ImageHost / AssetJanitor ---

type mockImageHost struct {
	uploadFn func(ctx context.Context, name string, content io.Reader) (domain.Asset, error)
}

func (m *mockImageHost) Upload(ctx context.Context, name string, content io.Reader) (domain.Asset, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, name, content)
	}
	return domain.Asset{ID: "asset-new", URL: "https://img.example.com/asset-new.png"}, nil
}

func (m *mockImageHost) Delete(ctx context.Context, assetID string) error { return nil }

type mockJanitor struct {
	scheduled []string
}

func (m *mockJanitor) ScheduleAssetCleanup(ctx context.Context, userID int64, assetID string) error {
	m.scheduled = append(m.scheduled, assetID)
	return nil
}

// --- Mock PasswordHasher / TokenIssuer ---

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (plainHasher) Compare(hash, password string) bool  { return hash == "hashed:"+password }

type mockTokens struct {
	verifyFn func(token string) (int64, error)
}

func (m *mockTokens) Issue(userID int64, username string) (string, time.Time, error) {
	return "token-" + username, time.Now().Add(time.Hour), nil
}

func (m *mockTokens) Verify(token string) (int64, error) {
	if m.verifyFn != nil {
		return m.verifyFn(token)
	}
	return 0, errors.New("invalid token")
}

func ptr[T any](v T) *T { return &v }
