package dependencyservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cache "github.com/RobsonDevCode/deepguard/internal/caching"
	"github.com/RobsonDevCode/deepguard/internal/constants"
	"github.com/RobsonDevCode/deepguard/internal/models"
	npmcommands "github.com/RobsonDevCode/deepguard/internal/thirdPartyCommands/npmCommands"
	"go.uber.org/zap"
)

const treeTTL = 5 * time.Minute

type DependencyService interface {
	Tree(ctx context.Context, root string) (models.DependencyTree, error)
	Invalidate(root string)
}

type DependencyReader struct {
	npm    npmcommands.NpmCommandService
	cache  *cache.Cache
	logger *zap.Logger
}

func NewDependencyReader(npm npmcommands.NpmCommandService, logger *zap.Logger) *DependencyReader {
	return &DependencyReader{
		npm:    npm,
		cache:  cache.New(treeTTL),
		logger: logger,
	}
}

// Tree returns the installed dependency tree of the project at root. Results
// are cached per directory until Invalidate is called or they expire.
func (r *DependencyReader) Tree(ctx context.Context, root string) (models.DependencyTree, error) {
	if err := IsNpmProject(root); err != nil {
		return models.DependencyTree{}, err
	}

	key := cacheKey(root)
	value, err := r.cache.GetOrCreate(key, func() (interface{}, error) {
		r.logger.Debug("reading dependency tree", zap.String("root", root))
		return r.npm.ListDependencies(ctx, root)
	})
	if err != nil {
		return models.DependencyTree{}, err
	}

	tree, ok := value.(models.DependencyTree)
	if !ok {
		return models.DependencyTree{}, fmt.Errorf("unexpected type cached for %s", root)
	}

	r.logger.Debug("dependency tree read",
		zap.String("root", root),
		zap.Int("packages", tree.Count()))

	return tree, nil
}

// Invalidate drops the cached tree, for example after npm install rewrote
// node_modules.
func (r *DependencyReader) Invalidate(root string) {
	r.cache.Invalidate(cacheKey(root))
}

// IsNpmProject checks that root holds a package.json.
func IsNpmProject(root string) error {
	info, err := os.Stat(filepath.Join(root, constants.ManifestName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no %s found in %s, only npm projects are supported", constants.ManifestName, root)
		}
		return fmt.Errorf("error reading %s: %w", root, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s in %s is a directory", constants.ManifestName, root)
	}

	return nil
}

func cacheKey(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}

	return root
}
