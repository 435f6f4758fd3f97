package ports

import (
	"context"
	"io"
	"time"

	"github.com/samirrijal/placemap/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DomainEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// ImageHost stores uploaded images and hands back a stable URL.
type ImageHost interface {
	Upload(ctx context.Context, name string, content io.Reader) (domain.Asset, error)
	Delete(ctx context.Context, assetID string) error
}

// AssetJanitor removes image assets that are no longer referenced.
type AssetJanitor interface {
	ScheduleAssetCleanup(ctx context.Context, userID int64, assetID string) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// TokenIssuer issues and verifies bearer tokens.
type TokenIssuer interface {
	Issue(userID int64, username string) (string, time.Time, error)
	Verify(token string) (int64, error)
}
