package temporaladapter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	temporaladapter "github.com/samirrijal/placemap/internal/adapters/temporal"
	"github.com/samirrijal/placemap/internal/workflows"
)

func TestJanitor_ScheduleAssetCleanup(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow",
		mock.Anything,
		mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
			return o.ID == "asset-cleanup-f_1" && o.TaskQueue == "avatars"
		}),
		mock.Anything,
		workflows.AssetCleanupInput{UserID: 7, AssetID: "f_1"},
	).Return(&mocks.WorkflowRun{}, nil).Once()

	j := temporaladapter.NewJanitor(c, "avatars")
	require.NoError(t, j.ScheduleAssetCleanup(context.Background(), 7, "f_1"))
	c.AssertExpectations(t)
}

func TestJanitor_ScheduleAssetCleanup_Error(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("frontend unavailable"))

	j := temporaladapter.NewJanitor(c, "")
	err := j.ScheduleAssetCleanup(context.Background(), 7, "f_1")
	assert.ErrorContains(t, err, "frontend unavailable")
}
