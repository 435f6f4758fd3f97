package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// TaskQueue is the default queue the worker polls for cleanup workflows.
const TaskQueue = "placemap-assets"

// cleanupGracePeriod gives clients still rendering the old avatar URL time to finish.
const cleanupGracePeriod = 10 * time.Minute

// AssetCleanupInput is the input for the asset cleanup workflow.
type AssetCleanupInput struct {
	UserID  int64
	AssetID string
}

// AssetCleanupWorkflow deletes an avatar that is no longer referenced by its owner.
// If the owner points at the asset again by the time the grace period ends, nothing is deleted.
func AssetCleanupWorkflow(ctx workflow.Context, input AssetCleanupInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting asset cleanup workflow", "userID", input.UserID, "assetID", input.AssetID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	if err := workflow.Sleep(ctx, cleanupGracePeriod); err != nil {
		return err
	}

	// Step 1: make sure the asset is still orphaned
	var referenced bool
	err := workflow.ExecuteActivity(ctx, "AssetStillReferenced", input.UserID, input.AssetID).Get(ctx, &referenced)
	if err != nil {
		return err
	}
	if referenced {
		logger.Info("Asset back in use, skipping delete", "assetID", input.AssetID)
		return nil
	}

	// Step 2: delete from the image host
	if err := workflow.ExecuteActivity(ctx, "DeleteAsset", input.AssetID).Get(ctx, nil); err != nil {
		logger.Error("asset delete failed", "assetID", input.AssetID, "error", err)
		return err
	}

	logger.Info("Asset deleted", "assetID", input.AssetID)
	return nil
}
