package policysynthesizerservice

import (
	"context"

	"github.com/RobsonDevCode/deepguard/internal/clierrors"
	"github.com/RobsonDevCode/deepguard/internal/models"
	policygeneratorservice "github.com/RobsonDevCode/deepguard/internal/services/policyGeneratorService"
	policystoreservice "github.com/RobsonDevCode/deepguard/internal/services/policyStoreService"
	"go.uber.org/zap"
)

type PolicySynthesizerService interface {
	Synthesize(ctx context.Context, root string, existing *models.Policy, buckets models.TaskBuckets, live bool) (*models.Policy, error)
}

type PolicySynthesizer struct {
	generator policygeneratorservice.PolicyGeneratorService
	store     policystoreservice.PolicyStoreService
	logger    *zap.Logger
}

func NewPolicySynthesizer(generator policygeneratorservice.PolicyGeneratorService,
	store policystoreservice.PolicyStoreService,
	logger *zap.Logger) *PolicySynthesizer {
	return &PolicySynthesizer{
		generator: generator,
		store:     store,
		logger:    logger,
	}
}

// Synthesize produces the next policy and persists it. A dry run returns the
// policy it would have written together with a *clierrors.DryRunError and
// leaves the policy file alone.
func (s *PolicySynthesizer) Synthesize(ctx context.Context, root string, existing *models.Policy, buckets models.TaskBuckets, live bool) (*models.Policy, error) {
	policy, err := s.generator.Generate(ctx, root, existing, buckets, live)
	if err != nil {
		return nil, err
	}

	if !live {
		s.logger.Debug("dry run, policy not saved", zap.String("root", root))
		return policy, &clierrors.DryRunError{Policy: policy}
	}

	if err := s.store.Save(root, policy); err != nil {
		return nil, err
	}

	s.logger.Debug("policy saved", zap.String("path", policystoreservice.FilePath(root)))
	return policy, nil
}
