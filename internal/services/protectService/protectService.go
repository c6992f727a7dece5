package protectservice

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/RobsonDevCode/deepguard/internal/clierrors"
	tablewriterservice "github.com/RobsonDevCode/deepguard/internal/cmdLineWriters/tablewriter"
	"github.com/RobsonDevCode/deepguard/internal/constants"
	"github.com/RobsonDevCode/deepguard/internal/models"
	decisionresolverservice "github.com/RobsonDevCode/deepguard/internal/services/decisionResolverService"
	decisionsurfaceservice "github.com/RobsonDevCode/deepguard/internal/services/decisionSurfaceService"
	manifestupdaterservice "github.com/RobsonDevCode/deepguard/internal/services/manifestUpdaterService"
	policygeneratorservice "github.com/RobsonDevCode/deepguard/internal/services/policyGeneratorService"
	policystoreservice "github.com/RobsonDevCode/deepguard/internal/services/policyStoreService"
	policysynthesizerservice "github.com/RobsonDevCode/deepguard/internal/services/policySynthesizerService"
	promptservice "github.com/RobsonDevCode/deepguard/internal/services/promptService"
	testservice "github.com/RobsonDevCode/deepguard/internal/services/testService"
	"go.uber.org/zap"
)

const (
	NothingToDoMessage    = "nothing to do"
	NoVulnerabilities     = "Nothing to be done. Well done, you."
	PatchesAppliedMessage = "Successfully applied " + constants.ToolName + " patches"
	CreatedMessage        = "A " + constants.PolicyFileName + " file has been created with the actions you've selected, " +
		"add it to your source control (`git add " + constants.PolicyFileName + "`)."
	UpdatedMessage = "Your " + constants.PolicyFileName + " file has been successfully updated."
)

type Options struct {
	Root        string
	DryRun      bool
	Interactive bool
}

type ProtectService interface {
	Run(ctx context.Context, options Options) (string, error)
}

type Protect struct {
	store       policystoreservice.PolicyStoreService
	tester      testservice.TestService
	surface     decisionsurfaceservice.DecisionSurfaceService
	prompter    promptservice.PromptService
	resolver    decisionresolverservice.DecisionResolverService
	synthesizer policysynthesizerservice.PolicySynthesizerService
	generator   policygeneratorservice.PolicyGeneratorService
	manifest    manifestupdaterservice.ManifestUpdaterService
	out         io.Writer
	logger      *zap.Logger
}

func NewProtect(store policystoreservice.PolicyStoreService,
	tester testservice.TestService,
	surface decisionsurfaceservice.DecisionSurfaceService,
	prompter promptservice.PromptService,
	resolver decisionresolverservice.DecisionResolverService,
	synthesizer policysynthesizerservice.PolicySynthesizerService,
	generator policygeneratorservice.PolicyGeneratorService,
	manifest manifestupdaterservice.ManifestUpdaterService,
	out io.Writer,
	logger *zap.Logger) *Protect {
	return &Protect{
		store:       store,
		tester:      tester,
		surface:     surface,
		prompter:    prompter,
		resolver:    resolver,
		synthesizer: synthesizer,
		generator:   generator,
		manifest:    manifest,
		out:         out,
		logger:      logger,
	}
}

// Run returns the status line to show the user. A dry run is a success.
func (p *Protect) Run(ctx context.Context, options Options) (string, error) {
	policy, err := p.store.Load(options.Root)
	newPolicy := false
	if err != nil {
		if !options.Interactive || !errors.Is(err, clierrors.ErrMissingPolicy) {
			return "", err
		}

		p.logger.Debug("no policy yet, starting from an empty one")
		policy = models.NewPolicy()
		newPolicy = true
	}

	if !options.Interactive {
		return p.applyPolicy(ctx, options, policy)
	}

	return p.interactive(ctx, options, policy, newPolicy)
}

// applyPolicy re-applies the patches the policy records, as run from the
// postinstall hook.
func (p *Protect) applyPolicy(ctx context.Context, options Options, policy *models.Policy) (string, error) {
	if len(policy.Patch) == 0 {
		return NothingToDoMessage, nil
	}

	result, err := p.tester.Report(ctx, options.Root)
	if err != nil {
		return "", err
	}

	var patched []models.Vulnerability
	for _, vuln := range result.Vulnerabilities {
		if _, ok := policy.Patch[vuln.DisplayID()]; ok {
			patched = append(patched, vuln)
		}
	}

	p.logger.Debug("re-applying patches", zap.Int("count", len(patched)))

	if err := p.generator.ApplyPatches(ctx, options.Root, patched, !options.DryRun); err != nil {
		return "", err
	}

	if options.DryRun {
		return clierrors.ErrDryRun.Error(), nil
	}

	return PatchesAppliedMessage, nil
}

func (p *Protect) interactive(ctx context.Context, options Options, policy *models.Policy, newPolicy bool) (string, error) {
	result, err := p.tester.Test(ctx, options.Root)
	if err != nil {
		return "", err
	}

	if len(result.Vulnerabilities) == 0 {
		return NoVulnerabilities, nil
	}

	tablewriterservice.DisplayVulnerabilityTable(p.out, result.Vulnerabilities)

	manifest, err := p.manifest.Read(options.Root)
	if err != nil {
		return "", err
	}

	surface := p.surface.Build(result.Vulnerabilities, policy, manifest)

	answers, err := p.prompter.Ask(ctx, surface)
	if err != nil {
		return "", err
	}

	buckets := p.resolver.Resolve(answers)
	hooks := p.resolver.HookRequests(answers)
	if buckets.Empty() {
		p.logger.Debug("every vulnerability skipped, policy keeps its existing rules")
	}

	synthesized, err := p.synthesizer.Synthesize(ctx, options.Root, policy, buckets, !options.DryRun)
	if err != nil {
		if errors.Is(err, clierrors.ErrDryRun) {
			fmt.Fprint(p.out, "\n Policy that would have been written: \n")
			tablewriterservice.DisplayPolicyTable(p.out, synthesized)
			return err.Error(), nil
		}
		return "", err
	}

	written, err := p.manifest.Apply(ctx, options.Root, hooks)
	if err != nil {
		return "", err
	}
	p.logger.Debug("protect finished", zap.Bool("manifestWritten", written))

	if newPolicy {
		return CreatedMessage, nil
	}

	return UpdatedMessage, nil
}
