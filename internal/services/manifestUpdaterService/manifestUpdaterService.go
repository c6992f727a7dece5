package manifestupdaterservice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/RobsonDevCode/deepguard/internal/constants"
	"github.com/RobsonDevCode/deepguard/internal/models"
	dependencyservice "github.com/RobsonDevCode/deepguard/internal/services/dependencyService"
	"go.uber.org/zap"
)

type ManifestUpdaterService interface {
	Read(root string) (*models.Manifest, error)
	Apply(ctx context.Context, root string, hooks models.HookRequests) (bool, error)
}

// SnapshotSubscriber is told about every snapshot attempt, failed or not.
type SnapshotSubscriber interface {
	SnapshotTaken(event models.SnapshotEvent)
}

// VersionFunc reports the version of the running tool.
type VersionFunc func() string

type ManifestUpdater struct {
	snapshotter dependencyservice.SnapshotService
	version     VersionFunc
	subscribers []SnapshotSubscriber
	logger      *zap.Logger
}

func NewManifestUpdater(snapshotter dependencyservice.SnapshotService, version VersionFunc, logger *zap.Logger) *ManifestUpdater {
	return &ManifestUpdater{
		snapshotter: snapshotter,
		version:     version,
		logger:      logger,
	}
}

func (u *ManifestUpdater) Subscribe(subscriber SnapshotSubscriber) {
	u.subscribers = append(u.subscribers, subscriber)
}

func (u *ManifestUpdater) Read(root string) (*models.Manifest, error) {
	path := filepath.Join(root, constants.ManifestName)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}

	return models.NewManifest(path, raw)
}

// Apply carries out the requested process hooks and reports whether
// package.json was written.
func (u *ManifestUpdater) Apply(ctx context.Context, root string, hooks models.HookRequests) (bool, error) {
	if hooks.Monitor {
		u.snapshot(ctx, root)
	}

	if !hooks.AnyHook() {
		return false, nil
	}

	// read again, an npm install during synthesis may have rewritten it
	manifest, err := u.Read(root)
	if err != nil {
		return false, err
	}

	changed := false

	if hooks.AddTest {
		current := manifest.Script("test")
		if script := TestScript(current); script != current {
			if err := manifest.SetScript("test", script); err != nil {
				return false, err
			}
			changed = true
		}
	}

	if hooks.AddProtect {
		current := manifest.Script("postinstall")
		if script := PostInstallScript(current); script != current {
			if err := manifest.SetScript("postinstall", script); err != nil {
				return false, err
			}
			changed = true
		}
	}

	if _, ok := manifest.Dependency(constants.ToolName); !ok {
		if err := manifest.SetDependency(constants.ToolName, Pin(u.version())); err != nil {
			return false, err
		}
		changed = true
	}

	if !changed {
		u.logger.Debug("manifest unchanged", zap.String("path", manifest.Path))
		return false, nil
	}

	if err := os.WriteFile(manifest.Path, manifest.Formatted(), 0644); err != nil {
		return false, fmt.Errorf("error writing file at %s, %w", manifest.Path, err)
	}

	u.logger.Debug("manifest updated", zap.String("path", manifest.Path))
	return true, nil
}

func (u *ManifestUpdater) snapshot(ctx context.Context, root string) {
	result, err := u.snapshotter.Snapshot(ctx, root)
	if err != nil {
		u.logger.Warn("snapshot failed", zap.String("root", root), zap.Error(err))
	}

	event := models.SnapshotEvent{Root: root, Result: result, Err: err}
	for _, subscriber := range u.subscribers {
		subscriber.SnapshotTaken(event)
	}
}

// TestScript puts the test command in front of an existing test script.
func TestScript(current string) string {
	if strings.Contains(current, constants.TestCommand) {
		return current
	}
	if strings.TrimSpace(current) == "" {
		return constants.TestCommand
	}

	return constants.TestCommand + " && " + current
}

// PostInstallScript runs protect before anything else on install.
func PostInstallScript(current string) string {
	if strings.Contains(current, constants.ProtectMarker) {
		return current
	}
	if strings.TrimSpace(current) == "" {
		return constants.ProtectCommand
	}

	return constants.ProtectCommand + "; " + current
}

// Pin returns the exact version for released builds and a wildcard for
// anything that is not strict semver, like development builds. A leading v
// from a git tag is dropped.
func Pin(version string) string {
	version = strings.TrimPrefix(version, "v")
	if _, err := semver.StrictNewVersion(version); err != nil {
		return constants.UnpinnedVersion
	}

	return version
}
