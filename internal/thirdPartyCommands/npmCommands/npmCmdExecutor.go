package npmcommands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/RobsonDevCode/deepguard/internal/clierrors"
	"github.com/RobsonDevCode/deepguard/internal/constants"
	"github.com/RobsonDevCode/deepguard/internal/models"
	npmmodels "github.com/RobsonDevCode/deepguard/internal/thirdPartyCommands/models/npm"
	"github.com/tidwall/gjson"
)

type NpmCommandService interface {
	ListDependencies(ctx context.Context, root string) (models.DependencyTree, error)
	Install(ctx context.Context, root string, packages ...string) error
}

// NpmCommandExecutor lists production dependencies only unless includeDev is
// set.
type NpmCommandExecutor struct {
	includeDev bool
}

func NewNpmCommandExecutor(includeDev bool) *NpmCommandExecutor {
	return &NpmCommandExecutor{includeDev: includeDev}
}

func (n *NpmCommandExecutor) SetIncludeDev(includeDev bool) {
	n.includeDev = includeDev
}

func (n *NpmCommandExecutor) listArgs() []string {
	args := []string{"ls", "--all", "--json"}
	if !n.includeDev {
		args = append(args, "--omit=dev")
	}

	return args
}

func (n *NpmCommandExecutor) ListDependencies(ctx context.Context, root string) (models.DependencyTree, error) {
	cmd := exec.CommandContext(ctx, "npm", n.listArgs()...)
	cmd.Dir = root
	cmd.Env = os.Environ()

	output, err := cmd.Output()
	if err != nil {
		// npm ls exits non zero on peer or extraneous problems but still prints the tree
		if exitError, ok := err.(*exec.ExitError); ok {
			if len(output) == 0 {
				return models.DependencyTree{}, fmt.Errorf("npm list failed in %s: %v", root, exitError)
			}
		} else {
			return models.DependencyTree{}, fmt.Errorf("failed to run npm list in %s: %v", root, err)
		}
	}

	tree, err := ParseDependencies(output)
	if err != nil {
		return models.DependencyTree{}, err
	}

	if !n.includeDev {
		tree.HasDevDependencies = HasDevDependencies(root)
	}

	return tree, nil
}

// HasDevDependencies reports whether the package.json in root declares any
// devDependencies.
func HasDevDependencies(root string) bool {
	raw, err := os.ReadFile(filepath.Join(root, constants.ManifestName))
	if err != nil {
		return false
	}

	devDependencies := gjson.GetBytes(raw, "devDependencies")
	return devDependencies.IsObject() && len(devDependencies.Map()) > 0
}

func (n *NpmCommandExecutor) Install(ctx context.Context, root string, packages ...string) error {
	args := append([]string{"install", "--save"}, packages...)
	cmd := exec.CommandContext(ctx, "npm", args...)
	cmd.Dir = root
	cmd.Env = os.Environ()

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("timeout installing %s", strings.Join(packages, " "))
		}

		return fmt.Errorf("npm install %s failed: %w: %s", strings.Join(packages, " "), err, strings.TrimSpace(string(output)))
	}

	return nil
}

// ParseDependencies maps `npm ls --json` output onto a dependency tree.
func ParseDependencies(output []byte) (models.DependencyTree, error) {
	var response npmmodels.NpmPackageResponse
	if err := json.Unmarshal(output, &response); err != nil {
		return models.DependencyTree{}, fmt.Errorf("failed to parse data from npm list output: %w", err)
	}

	if len(response.NpmPackage) > 0 && allMissing(response.NpmPackage) {
		return models.DependencyTree{}, clierrors.ErrMissingModules
	}

	return models.DependencyTree{
		Name:         response.Name,
		Version:      response.Version,
		Dependencies: mapDependencies(response.NpmPackage),
	}, nil
}

func mapDependencies(packages map[string]npmmodels.NpmPackage) map[string]models.DependencyTree {
	if len(packages) == 0 {
		return nil
	}

	result := make(map[string]models.DependencyTree, len(packages))
	for name, pkg := range packages {
		if pkg.Missing {
			continue
		}

		//Recursive call on dependency tree as packages can have multiple nodes of dependencies
		result[name] = models.DependencyTree{
			Name:         name,
			Version:      pkg.Version,
			Dependencies: mapDependencies(pkg.Dependencies),
		}
	}

	return result
}

func allMissing(packages map[string]npmmodels.NpmPackage) bool {
	for _, pkg := range packages {
		if !pkg.Missing {
			return false
		}
	}

	return true
}
