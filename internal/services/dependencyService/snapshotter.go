package dependencyservice

import (
	"context"
	"os"

	"github.com/RobsonDevCode/deepguard/internal/clients"
	"github.com/RobsonDevCode/deepguard/internal/models"
	"go.uber.org/zap"
)

const snapshotMethod = "protect interactive"

type SnapshotService interface {
	Snapshot(ctx context.Context, root string) (models.SnapshotResult, error)
}

type Snapshotter struct {
	dependencies DependencyService
	client       clients.APIClientService
	clientID     string
	method       string
	hostname     func() (string, error)
	logger       *zap.Logger
}

func NewSnapshotter(dependencies DependencyService, client clients.APIClientService, clientID string, logger *zap.Logger) *Snapshotter {
	return &Snapshotter{
		dependencies: dependencies,
		client:       client,
		clientID:     clientID,
		method:       snapshotMethod,
		hostname:     os.Hostname,
		logger:       logger,
	}
}

// SetMethod records which command took the snapshot.
func (s *Snapshotter) SetMethod(method string) {
	s.method = method
}

// Snapshot sends the current dependency tree of root to the monitor endpoint.
// The tree is always re-read since an install may just have changed it.
func (s *Snapshotter) Snapshot(ctx context.Context, root string) (models.SnapshotResult, error) {
	s.dependencies.Invalidate(root)

	tree, err := s.dependencies.Tree(ctx, root)
	if err != nil {
		return models.SnapshotResult{}, err
	}

	hostname, err := s.hostname()
	if err != nil {
		s.logger.Debug("hostname unavailable", zap.Error(err))
	}

	request := models.SnapshotRequest{
		Meta: models.SnapshotMeta{
			Method:   s.method,
			Hostname: hostname,
			ID:       s.clientID,
			PID:      os.Getpid(),
			Name:     tree.Name,
			Version:  tree.Version,
		},
		Package: tree,
	}

	result, err := s.client.Monitor(ctx, request)
	if err != nil {
		return models.SnapshotResult{}, err
	}

	s.logger.Debug("snapshot taken",
		zap.String("id", result.ID),
		zap.String("uri", result.URI))

	return result, nil
}
