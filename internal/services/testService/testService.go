package testservice

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/RobsonDevCode/deepguard/internal/clients"
	"github.com/RobsonDevCode/deepguard/internal/clierrors"
	"github.com/RobsonDevCode/deepguard/internal/models"
	dependencyservice "github.com/RobsonDevCode/deepguard/internal/services/dependencyService"
	policystoreservice "github.com/RobsonDevCode/deepguard/internal/services/policyStoreService"
	"go.uber.org/zap"
)

type TestService interface {
	Test(ctx context.Context, root string) (models.TestResult, error)
	Report(ctx context.Context, root string) (models.TestResult, error)
}

type Tester struct {
	dependencies dependencyservice.DependencyService
	client       clients.APIClientService
	store        policystoreservice.PolicyStoreService
	now          func() time.Time
	logger       *zap.Logger
}

func NewTester(dependencies dependencyservice.DependencyService,
	client clients.APIClientService,
	store policystoreservice.PolicyStoreService,
	logger *zap.Logger) *Tester {
	return &Tester{
		dependencies: dependencies,
		client:       client,
		store:        store,
		now:          time.Now,
		logger:       logger,
	}
}

// Test asks the api about the installed tree and drops what the project
// policy already ignores or patches. A root that is not on disk is taken to
// be a published package, like lodash@4.17.4, and has no policy.
func (t *Tester) Test(ctx context.Context, root string) (models.TestResult, error) {
	if isPublishedPackage(root) {
		return t.Report(ctx, root)
	}

	policy, err := t.store.Load(root)
	if err != nil {
		if !errors.Is(err, clierrors.ErrMissingPolicy) {
			return models.TestResult{}, err
		}
		policy = models.NewPolicy()
	}

	result, err := t.Report(ctx, root)
	if err != nil {
		return models.TestResult{}, err
	}

	filtered := Filter(result.Vulnerabilities, policy, t.now())
	t.logger.Debug("test filtered by policy",
		zap.Int("reported", len(result.Vulnerabilities)),
		zap.Int("remaining", len(filtered)))

	return models.TestResult{Ok: len(filtered) == 0, Vulnerabilities: filtered}, nil
}

// Report is the api's answer for the installed tree, policy not applied.
func (t *Tester) Report(ctx context.Context, root string) (models.TestResult, error) {
	if isPublishedPackage(root) {
		t.logger.Debug("path not found, testing as a published package", zap.String("package", root))
		return t.client.TestPackage(ctx, root)
	}

	tree, err := t.dependencies.Tree(ctx, root)
	if err != nil {
		return models.TestResult{}, err
	}

	result, err := t.client.Test(ctx, tree)
	if err != nil {
		// a project with only devDependencies sends an empty tree
		var apiErr *clierrors.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound && tree.HasDevDependencies {
			return models.TestResult{}, clierrors.ErrNotFoundHasDevDeps
		}
		return models.TestResult{}, err
	}

	return result, nil
}

func isPublishedPackage(root string) bool {
	_, err := os.Stat(root)
	return errors.Is(err, os.ErrNotExist)
}

// Filter keeps the vulnerabilities without an unexpired ignore or a patch in
// the policy.
func Filter(vulns []models.Vulnerability, policy *models.Policy, now time.Time) []models.Vulnerability {
	var remaining []models.Vulnerability
	for _, vuln := range vulns {
		id := vuln.DisplayID()
		if policy.IsIgnored(id, now) || policy.IsPatched(id) {
			continue
		}
		remaining = append(remaining, vuln)
	}

	return remaining
}
