package policygeneratorservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RobsonDevCode/deepguard/internal/clients"
	"github.com/RobsonDevCode/deepguard/internal/clierrors"
	"github.com/RobsonDevCode/deepguard/internal/models"
	dependencyservice "github.com/RobsonDevCode/deepguard/internal/services/dependencyService"
	patchmatcherservice "github.com/RobsonDevCode/deepguard/internal/services/patchMatcherService"
	npmcommands "github.com/RobsonDevCode/deepguard/internal/thirdPartyCommands/npmCommands"
	patchcommands "github.com/RobsonDevCode/deepguard/internal/thirdPartyCommands/patchCommands"
	"go.uber.org/zap"
)

var errNoPatch = errors.New("no patch available for the installed version")

type PolicyGeneratorService interface {
	Generate(ctx context.Context, root string, existing *models.Policy, buckets models.TaskBuckets, live bool) (*models.Policy, error)
	ApplyPatches(ctx context.Context, root string, vulns []models.Vulnerability, live bool) error
}

type PolicyGenerator struct {
	client       clients.APIClientService
	npm          npmcommands.NpmCommandService
	patcher      patchcommands.PatchCommandService
	matcher      patchmatcherservice.PatchMatcherService
	dependencies dependencyservice.DependencyService
	now          func() time.Time
	logger       *zap.Logger
}

func NewPolicyGenerator(client clients.APIClientService,
	npm npmcommands.NpmCommandService,
	patcher patchcommands.PatchCommandService,
	matcher patchmatcherservice.PatchMatcherService,
	dependencies dependencyservice.DependencyService,
	logger *zap.Logger) *PolicyGenerator {
	return &PolicyGenerator{
		client:       client,
		npm:          npm,
		patcher:      patcher,
		matcher:      matcher,
		dependencies: dependencies,
		now:          time.Now,
		logger:       logger,
	}
}

// Generate merges the decisions into a copy of existing. Remediations only
// touch the project when live is set; the returned policy is the same either
// way.
func (g *PolicyGenerator) Generate(ctx context.Context, root string, existing *models.Policy, buckets models.TaskBuckets, live bool) (*models.Policy, error) {
	policy := existing.Clone()
	now := g.now().UTC().Truncate(time.Second)

	for _, task := range buckets.Ignore {
		id := task.Vuln.DisplayID()
		policy.Ignore[id] = append(policy.Ignore[id], models.IgnoreRule{
			Reason:           task.Reason,
			CreatedAt:        now,
			ExpiresAfterDays: task.Days,
			Path:             task.Vuln.Path(),
		})
	}

	if live {
		if err := g.update(ctx, root, buckets.Update); err != nil {
			return nil, err
		}
	}

	for _, vuln := range buckets.Patch {
		patch, err := g.patch(ctx, root, vuln, live)
		if err != nil {
			return nil, err
		}

		id := vuln.DisplayID()
		policy.Patch[id] = append(policy.Patch[id], models.PatchRule{
			PatchedAt: now,
			Path:      vuln.Path(),
			PatchID:   patch.ID,
		})
	}

	g.logger.Debug("policy generated",
		zap.Bool("live", live),
		zap.Int("ignored", len(buckets.Ignore)),
		zap.Int("updated", len(buckets.Update)),
		zap.Int("patched", len(buckets.Patch)))

	return policy, nil
}

// ApplyPatches re-applies the patches of vulns, as done after every install.
func (g *PolicyGenerator) ApplyPatches(ctx context.Context, root string, vulns []models.Vulnerability, live bool) error {
	for _, vuln := range vulns {
		if _, err := g.patch(ctx, root, vuln, live); err != nil {
			return err
		}
	}

	return nil
}

func (g *PolicyGenerator) update(ctx context.Context, root string, vulns []models.Vulnerability) error {
	targets := UpgradeTargets(vulns)
	if len(targets) == 0 {
		return nil
	}

	for _, target := range targets {
		g.logger.Debug("installing upgrade", zap.String("package", target))

		if err := g.npm.Install(ctx, root, target); err != nil {
			return &clierrors.RemediationError{Op: clierrors.OpInstall, Package: target, Err: err}
		}
	}

	g.dependencies.Invalidate(root)
	return nil
}

// UpgradeTargets lists each direct dependency to install once, in the order
// first seen. A vulnerability without a direct upgrade reinstalls the direct
// dependency it came in through.
func UpgradeTargets(vulns []models.Vulnerability) []string {
	seen := make(map[string]bool)
	var targets []string

	for _, vuln := range vulns {
		target := ""
		if len(vuln.UpgradePath) > 1 && vuln.UpgradePath[1] != "" {
			target = vuln.UpgradePath[1]
		} else if len(vuln.From) > 1 {
			target = vuln.From[1]
		}

		if target == "" || seen[target] {
			continue
		}

		seen[target] = true
		targets = append(targets, target)
	}

	return targets
}

func (g *PolicyGenerator) patch(ctx context.Context, root string, vuln models.Vulnerability, live bool) (models.Patch, error) {
	pkg := vuln.Name + "@" + vuln.Version

	patches := g.matcher.Match(models.InstalledPackage{Name: vuln.Name, Version: vuln.Version}, vuln)
	if patches == nil {
		if !live {
			return models.Patch{}, nil
		}
		return models.Patch{}, &clierrors.RemediationError{Op: clierrors.OpPatch, Package: pkg, Err: errNoPatch}
	}

	patch := patches[0]
	if !live {
		return patch, nil
	}

	dir, err := PackageDir(root, vuln)
	if err != nil {
		return models.Patch{}, &clierrors.RemediationError{Op: clierrors.OpPatch, Package: pkg, Err: err}
	}

	if applied(dir, patch) {
		g.logger.Debug("patch already applied", zap.String("patch", patch.ID), zap.String("dir", dir))
		return patch, nil
	}

	for _, patchUrl := range patch.URLs {
		diff, err := g.client.DownloadPatch(ctx, patchUrl)
		if err != nil {
			return models.Patch{}, &clierrors.RemediationError{Op: clierrors.OpPatch, Package: pkg, Err: err}
		}

		if err := g.patcher.Apply(ctx, dir, diff); err != nil {
			return models.Patch{}, &clierrors.RemediationError{Op: clierrors.OpPatch, Package: pkg, Err: err}
		}
	}

	if err := markApplied(dir, patch, g.now()); err != nil {
		return models.Patch{}, &clierrors.RemediationError{Op: clierrors.OpPatch, Package: pkg, Err: fmt.Errorf("error recording patch: %w", err)}
	}

	g.logger.Debug("patch applied", zap.String("patch", patch.ID), zap.String("dir", dir))
	return patch, nil
}
