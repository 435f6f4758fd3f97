package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/placemap/internal/core/ports"
)

// AssetActivities holds the activity implementations for the asset cleanup workflow.
type AssetActivities struct {
	Images ports.ImageHost
	Users  ports.UserRepository
}

// AssetStillReferenced reports whether the user's current avatar is assetID.
// A deleted user references nothing.
func (a *AssetActivities) AssetStillReferenced(ctx context.Context, userID int64, assetID string) (bool, error) {
	u, err := a.Users.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get user %d: %w", userID, err)
	}
	return u != nil && u.AvatarAssetID == assetID, nil
}

// DeleteAsset removes the asset from the image host.
func (a *AssetActivities) DeleteAsset(ctx context.Context, assetID string) error {
	if err := a.Images.Delete(ctx, assetID); err != nil {
		return fmt.Errorf("delete asset %s: %w", assetID, err)
	}
	slog.InfoContext(ctx, "asset deleted", "asset_id", assetID)
	return nil
}
