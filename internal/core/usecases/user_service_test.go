package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samirrijal/placemap/internal/core/domain"
	"github.com/samirrijal/placemap/internal/core/usecases"
)

func TestUserService_FindNearby_DefaultAndMaxLimit(t *testing.T) {
	var gotLimit int
	repo := &mockUserRepo{
		queryWithinFn: func(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.User, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	svc := usecases.NewUserService(repo, usecases.NewProximityEngine(nil, nil), nil, nil, nil)

	cases := []struct {
		limit int
		want  int
	}{
		{0, 50},
		{-3, 50},
		{10, 10},
		{100, 100},
		{500, 100},
	}
	for _, tc := range cases {
		if _, err := svc.FindNearby(context.Background(), zamalek, 10000, tc.limit); err != nil {
			t.Fatalf("limit %d: unexpected error: %v", tc.limit, err)
		}
		if gotLimit != tc.want {
			t.Errorf("limit %d: expected store limit %d, got %d", tc.limit, tc.want, gotLimit)
		}
	}
}

func TestUserService_FindNearby_Envelope(t *testing.T) {
	repo := &mockUserRepo{
		queryWithinFn: func(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.User, error) {
			return []domain.User{
				{ID: 2, Username: "far", Email: "far@example.com", Distance: ptr(800.0)},
				{ID: 1, Username: "near", Email: "near@example.com", Distance: ptr(15.0)},
			}, nil
		},
	}
	svc := usecases.NewUserService(repo, usecases.NewProximityEngine(nil, nil), nil, nil, nil)

	res, err := svc.FindNearby(context.Background(), zamalek, 10000, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 2 || res.Radius != 10000 || res.Center != zamalek {
		t.Errorf("unexpected envelope: %+v", res)
	}
	if res.Users[0].Username != "near" {
		t.Errorf("expected nearest user first, got %s", res.Users[0].Username)
	}
	for _, u := range res.Users {
		if u.Email != "" {
			t.Errorf("email of %s leaked in nearby results", u.Username)
		}
	}
}

func TestUserService_UpdateLocation(t *testing.T) {
	events := &mockPublisher{}
	var moved domain.GeoPoint
	repo := &mockUserRepo{
		updateCoordinateFn: func(ctx context.Context, id int64, p domain.GeoPoint) error {
			moved = p
			return nil
		},
		getFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, Location: &moved}, nil
		},
	}
	svc := usecases.NewUserService(repo, usecases.NewProximityEngine(nil, nil), nil, nil, events)

	u, err := svc.UpdateLocation(context.Background(), 1, garden)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *u.Location != garden {
		t.Errorf("expected location %v, got %v", garden, *u.Location)
	}
	if len(events.events) != 1 || events.events[0].Type != domain.EventUserLocationUpdated {
		t.Errorf("expected one user.location_updated event, got %+v", events.events)
	}
}

func TestUserService_UpdateLocation_UnknownUser(t *testing.T) {
	repo := &mockUserRepo{
		updateCoordinateFn: func(ctx context.Context, id int64, p domain.GeoPoint) error {
			return domain.ErrNotFound
		},
	}
	svc := usecases.NewUserService(repo, usecases.NewProximityEngine(nil, nil), nil, nil, nil)

	_, err := svc.UpdateLocation(context.Background(), 99, garden)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUserService_UpdateProfile_RejectsBadWebsite(t *testing.T) {
	svc := usecases.NewUserService(&mockUserRepo{}, usecases.NewProximityEngine(nil, nil), nil, nil, nil)
	_, err := svc.UpdateProfile(context.Background(), 1, domain.ProfileUpdate{Website: ptr("javascript:alert(1)")})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUserService_UpdateAvatar(t *testing.T) {
	janitor := &mockJanitor{}
	var saved domain.Asset
	repo := &mockUserRepo{
		getFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, AvatarAssetID: "asset-old", AvatarURL: "https://img.example.com/old.png"}, nil
		},
		setAvatarFn: func(ctx context.Context, id int64, asset domain.Asset) error {
			saved = asset
			return nil
		},
	}
	svc := usecases.NewUserService(repo, usecases.NewProximityEngine(nil, nil), &mockImageHost{}, janitor, nil)

	u, err := svc.UpdateAvatar(context.Background(), 1, "me.png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.ID != "asset-new" || u.AvatarURL != saved.URL {
		t.Errorf("expected new asset stored, got %+v / %s", saved, u.AvatarURL)
	}
	if len(janitor.scheduled) != 1 || janitor.scheduled[0] != "asset-old" {
		t.Errorf("expected old asset scheduled for cleanup, got %v", janitor.scheduled)
	}
}

func TestUserService_UpdateAvatar_StoreFailureCleansUpUpload(t *testing.T) {
	janitor := &mockJanitor{}
	repo := &mockUserRepo{
		getFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id}, nil
		},
		setAvatarFn: func(ctx context.Context, id int64, asset domain.Asset) error {
			return domain.Infrastructure("SetAvatar", errors.New("db gone"))
		},
	}
	svc := usecases.NewUserService(repo, usecases.NewProximityEngine(nil, nil), &mockImageHost{}, janitor, nil)

	if _, err := svc.UpdateAvatar(context.Background(), 1, "me.png", strings.NewReader("png")); err == nil {
		t.Fatal("expected error")
	}
	if len(janitor.scheduled) != 1 || janitor.scheduled[0] != "asset-new" {
		t.Errorf("expected orphaned upload scheduled for cleanup, got %v", janitor.scheduled)
	}
}

func TestUserService_UpdateAvatar_NoImageHost(t *testing.T) {
	svc := usecases.NewUserService(&mockUserRepo{}, usecases.NewProximityEngine(nil, nil), nil, nil, nil)
	_, err := svc.UpdateAvatar(context.Background(), 1, "me.png", strings.NewReader("png"))
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	janitor := &mockJanitor{}
	events := &mockPublisher{}
	removed := int64(0)
	repo := &mockUserRepo{
		getFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, AvatarAssetID: "asset-7"}, nil
		},
		removeFn: func(ctx context.Context, id int64) error {
			removed = id
			return nil
		},
	}
	svc := usecases.NewUserService(repo, usecases.NewProximityEngine(nil, nil), nil, janitor, events)

	if err := svc.Delete(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 7 {
		t.Errorf("expected user 7 removed, got %d", removed)
	}
	if len(janitor.scheduled) != 1 {
		t.Errorf("expected avatar cleanup scheduled, got %v", janitor.scheduled)
	}
	if len(events.events) != 1 || events.events[0].Type != domain.EventUserDeleted {
		t.Errorf("expected one user.deleted event, got %+v", events.events)
	}
}

func TestUserService_Search(t *testing.T) {
	repo := &mockUserRepo{
		searchFn: func(ctx context.Context, q string, offset, limit int) ([]domain.User, int, error) {
			if q != "nour" || offset != 0 || limit != 20 {
				t.Errorf("unexpected args q=%q offset=%d limit=%d", q, offset, limit)
			}
			return []domain.User{{ID: 1, Username: "nour", Email: "n@example.com"}}, 1, nil
		},
	}
	svc := usecases.NewUserService(repo, usecases.NewProximityEngine(nil, nil), nil, nil, nil)

	users, total, err := svc.Search(context.Background(), " nour ", -5, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].Email != "" {
		t.Errorf("unexpected result: %+v total=%d", users, total)
	}

	if _, _, err := svc.Search(context.Background(), "", 0, 10); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty query, got %v", err)
	}
}

func TestUserService_IncrementStat(t *testing.T) {
	repo := &mockUserRepo{
		incrementStatFn: func(ctx context.Context, id int64, c domain.StatCounter, delta int64) (*domain.UserStats, error) {
			if c != domain.StatVisits || delta != 2 {
				t.Errorf("unexpected counter %s delta %d", c, delta)
			}
			return &domain.UserStats{Visits: 2}, nil
		},
	}
	svc := usecases.NewUserService(repo, usecases.NewProximityEngine(nil, nil), nil, nil, nil)

	stats, err := svc.IncrementStat(context.Background(), 1, "visits", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Visits != 2 {
		t.Errorf("expected 2 visits, got %d", stats.Visits)
	}

	if _, err := svc.IncrementStat(context.Background(), 1, "karma", 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown counter, got %v", err)
	}
}
