package decisionresolverservice

import (
	"sort"
	"strings"

	"github.com/RobsonDevCode/deepguard/internal/constants"
	"github.com/RobsonDevCode/deepguard/internal/models"
	"go.uber.org/zap"
)

type DecisionResolverService interface {
	Resolve(answers models.Answers) models.TaskBuckets
	HookRequests(answers models.Answers) models.HookRequests
}

type DecisionResolver struct {
	logger *zap.Logger
}

func NewDecisionResolver(logger *zap.Logger) *DecisionResolver {
	return &DecisionResolver{logger: logger}
}

// Resolve groups the vulnerability answers by action. Reason and process
// answers are not vulnerability decisions and are only read as side inputs.
func (r *DecisionResolver) Resolve(answers models.Answers) models.TaskBuckets {
	var buckets models.TaskBuckets

	for _, key := range sortedKeys(answers) {
		if strings.HasSuffix(key, constants.ReasonSuffix) || strings.HasPrefix(key, constants.MiscPrefix) {
			continue
		}

		choice := answers[key].Choice
		if choice == nil {
			continue
		}

		switch choice.Action {
		case models.ActionIgnore:
			buckets.Ignore = append(buckets.Ignore, models.IgnoreTask{
				Vuln:   choice.Vuln,
				Reason: reason(answers, key, choice),
				Days:   days(choice),
			})
		case models.ActionUpdate:
			buckets.Update = append(buckets.Update, choice.Vuln)
		case models.ActionPatch:
			buckets.Patch = append(buckets.Patch, choice.Vuln)
		case models.ActionSkip:
			buckets.Skip = append(buckets.Skip, choice.Vuln)
		default:
			r.logger.Warn("unknown action in answer",
				zap.String("prompt", key),
				zap.String("action", string(choice.Action)))
		}
	}

	r.logger.Debug("answers resolved",
		zap.Int("ignore", len(buckets.Ignore)),
		zap.Int("update", len(buckets.Update)),
		zap.Int("patch", len(buckets.Patch)),
		zap.Int("skip", len(buckets.Skip)))

	return buckets
}

func (r *DecisionResolver) HookRequests(answers models.Answers) models.HookRequests {
	return models.HookRequests{
		Monitor:    answers[constants.MiscRunMonitor].Confirm,
		AddTest:    answers[constants.MiscAddTest].Confirm,
		AddProtect: answers[constants.MiscAddProtect].Confirm,
	}
}

func reason(answers models.Answers, key string, choice *models.Choice) string {
	if answer, ok := answers[key+constants.ReasonSuffix]; ok && strings.TrimSpace(answer.Text) != "" {
		return answer.Text
	}

	if choice.Meta.Reason != "" {
		return choice.Meta.Reason
	}

	return constants.DefaultIgnoreReason
}

func days(choice *models.Choice) int {
	if choice.Meta.Days > 0 {
		return choice.Meta.Days
	}

	return constants.DefaultIgnoreDays
}

func sortedKeys(answers models.Answers) []string {
	keys := make([]string, 0, len(answers))
	for key := range answers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}
