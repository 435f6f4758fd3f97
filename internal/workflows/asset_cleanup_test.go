package workflows_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/placemap/internal/adapters/memory"
	"github.com/samirrijal/placemap/internal/core/domain"
	"github.com/samirrijal/placemap/internal/workflows"
)

type fakeImages struct {
	deleted []string
	failN   int
}

func (f *fakeImages) Upload(ctx context.Context, name string, content io.Reader) (domain.Asset, error) {
	return domain.Asset{}, errors.New("not used")
}

func (f *fakeImages) Delete(ctx context.Context, assetID string) error {
	if f.failN > 0 {
		f.failN--
		return errors.New("image host 502")
	}
	f.deleted = append(f.deleted, assetID)
	return nil
}

func newEnv(t *testing.T, images *fakeImages, users *memory.UserRepo) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.AssetCleanupWorkflow)
	env.RegisterActivity(&workflows.AssetActivities{Images: images, Users: users})
	return env
}

func TestAssetCleanupWorkflow_DeletesOrphan(t *testing.T) {
	users := memory.New().Users()
	id, err := users.Insert(context.Background(), &domain.User{Username: "amira"})
	require.NoError(t, err)
	require.NoError(t, users.SetAvatar(context.Background(), id, domain.Asset{ID: "new", URL: "https://img/new.png"}))

	images := &fakeImages{}
	env := newEnv(t, images, users)
	env.ExecuteWorkflow(workflows.AssetCleanupWorkflow, workflows.AssetCleanupInput{UserID: id, AssetID: "old"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Equal(t, []string{"old"}, images.deleted)
}

func TestAssetCleanupWorkflow_SkipsReferencedAsset(t *testing.T) {
	users := memory.New().Users()
	id, err := users.Insert(context.Background(), &domain.User{Username: "amira"})
	require.NoError(t, err)
	require.NoError(t, users.SetAvatar(context.Background(), id, domain.Asset{ID: "current", URL: "https://img/current.png"}))

	images := &fakeImages{}
	env := newEnv(t, images, users)
	env.ExecuteWorkflow(workflows.AssetCleanupWorkflow, workflows.AssetCleanupInput{UserID: id, AssetID: "current"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Empty(t, images.deleted)
}

func TestAssetCleanupWorkflow_DeletedUser(t *testing.T) {
	images := &fakeImages{}
	env := newEnv(t, images, memory.New().Users())
	env.ExecuteWorkflow(workflows.AssetCleanupWorkflow, workflows.AssetCleanupInput{UserID: 404, AssetID: "orphan"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Equal(t, []string{"orphan"}, images.deleted)
}

func TestAssetCleanupWorkflow_RetriesDelete(t *testing.T) {
	images := &fakeImages{failN: 2}
	env := newEnv(t, images, memory.New().Users())
	env.ExecuteWorkflow(workflows.AssetCleanupWorkflow, workflows.AssetCleanupInput{UserID: 1, AssetID: "flaky"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Equal(t, []string{"flaky"}, images.deleted)
}
