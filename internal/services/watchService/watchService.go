package watchservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RobsonDevCode/deepguard/internal/clients"
	"github.com/RobsonDevCode/deepguard/internal/constants"
	"github.com/RobsonDevCode/deepguard/internal/models"
	"go.uber.org/zap"
)

type WatchService interface {
	Watch(ctx context.Context, target string) (models.WatchResult, error)
}

type Watcher struct {
	client clients.APIClientService
	logger *zap.Logger
}

func NewWatcher(client clients.APIClientService, logger *zap.Logger) *Watcher {
	return &Watcher{client: client, logger: logger}
}

// Watch registers target for notifications about newly disclosed
// vulnerabilities. A directory holding a package.json is sent as its
// manifest, anything else is taken to be the name of a published package.
func (w *Watcher) Watch(ctx context.Context, target string) (models.WatchResult, error) {
	path := filepath.Join(target, constants.ManifestName)

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return models.WatchResult{}, fmt.Errorf("error reading %s: %w", path, err)
		}

		w.logger.Debug("watching published package", zap.String("package", target))
		return w.client.Watch(ctx, models.WatchRequest{Package: target})
	}

	manifest, err := models.NewManifest(path, raw)
	if err != nil {
		return models.WatchResult{}, err
	}

	w.logger.Debug("watching local project",
		zap.String("name", manifest.Name()),
		zap.String("version", manifest.Version()))

	result, err := w.client.Watch(ctx, models.WatchRequest{Manifest: manifest.Bytes()})
	if err != nil {
		return models.WatchResult{}, err
	}

	if result.Watch.Name == "" {
		result.Watch = models.WatchedPackage{Name: manifest.Name(), Version: manifest.Version()}
	}

	return result, nil
}
