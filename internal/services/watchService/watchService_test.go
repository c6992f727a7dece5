package watchservice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/RobsonDevCode/deepguard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClient struct {
	requests []models.WatchRequest
	result   models.WatchResult
	err      error
}

func (f *fakeClient) Test(_ context.Context, _ models.DependencyTree) (models.TestResult, error) {
	return models.TestResult{}, nil
}

func (f *fakeClient) TestPackage(_ context.Context, _ string) (models.TestResult, error) {
	return models.TestResult{}, nil
}

func (f *fakeClient) Monitor(_ context.Context, _ models.SnapshotRequest) (models.SnapshotResult, error) {
	return models.SnapshotResult{}, nil
}

func (f *fakeClient) Watch(_ context.Context, request models.WatchRequest) (models.WatchResult, error) {
	f.requests = append(f.requests, request)
	return f.result, f.err
}

func (f *fakeClient) DownloadPatch(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}

func TestWatch_LocalProjectSendsManifest(t *testing.T) {
	root := t.TempDir()
	manifest := `{"name":"app","version":"1.0.0","dependencies":{"qs":"^6.0.0"}}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(manifest), 0644))

	client := &fakeClient{result: models.WatchResult{Ok: true}}
	result, err := NewWatcher(client, zap.NewNop()).Watch(context.Background(), root)

	require.NoError(t, err)
	require.Len(t, client.requests, 1)
	assert.Empty(t, client.requests[0].Package)
	assert.JSONEq(t, manifest, string(client.requests[0].Manifest))
	assert.Equal(t, models.WatchedPackage{Name: "app", Version: "1.0.0"}, result.Watch)
}

func TestWatch_ApiNameWins(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"name":"app","version":"1.0.0"}`), 0644))

	client := &fakeClient{result: models.WatchResult{Ok: true, Watch: models.WatchedPackage{Name: "app", Version: "1.0.1"}}}
	result, err := NewWatcher(client, zap.NewNop()).Watch(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, "1.0.1", result.Watch.Version)
}

func TestWatch_UnknownPathIsAPackageName(t *testing.T) {
	client := &fakeClient{result: models.WatchResult{Ok: true, Watch: models.WatchedPackage{Name: "lodash", Version: "4.17.21"}}}

	result, err := NewWatcher(client, zap.NewNop()).Watch(context.Background(), "lodash")

	require.NoError(t, err)
	require.Len(t, client.requests, 1)
	assert.Equal(t, "lodash", client.requests[0].Package)
	assert.Nil(t, client.requests[0].Manifest)
	assert.Equal(t, "lodash", result.Watch.Name)
}

func TestWatch_InvalidManifest(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"name":`), 0644))
	client := &fakeClient{}

	_, err := NewWatcher(client, zap.NewNop()).Watch(context.Background(), root)

	assert.Error(t, err)
	assert.Empty(t, client.requests)
}

func TestWatch_ApiErrorIsReturned(t *testing.T) {
	client := &fakeClient{err: errors.New("api responded 500")}

	_, err := NewWatcher(client, zap.NewNop()).Watch(context.Background(), "lodash")

	assert.EqualError(t, err, "api responded 500")
}
