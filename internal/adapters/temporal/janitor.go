// Package temporaladapter starts asset cleanup workflows on a Temporal cluster.
package temporaladapter

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/placemap/internal/workflows"
)

// Janitor implements ports.AssetJanitor by starting AssetCleanupWorkflow.
type Janitor struct {
	client    client.Client
	taskQueue string
}

// NewJanitor creates a Janitor that schedules work on taskQueue.
func NewJanitor(c client.Client, taskQueue string) *Janitor {
	if taskQueue == "" {
		taskQueue = workflows.TaskQueue
	}
	return &Janitor{client: c, taskQueue: taskQueue}
}

// ScheduleAssetCleanup starts one workflow per asset, keyed by the asset id.
func (j *Janitor) ScheduleAssetCleanup(ctx context.Context, userID int64, assetID string) error {
	opts := client.StartWorkflowOptions{
		ID:        "asset-cleanup-" + assetID,
		TaskQueue: j.taskQueue,
	}
	_, err := j.client.ExecuteWorkflow(ctx, opts, workflows.AssetCleanupWorkflow, workflows.AssetCleanupInput{
		UserID:  userID,
		AssetID: assetID,
	})
	if err != nil {
		return fmt.Errorf("start asset cleanup workflow: %w", err)
	}
	return nil
}
