package decisionsurfaceservice

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/RobsonDevCode/deepguard/internal/constants"
	"github.com/RobsonDevCode/deepguard/internal/models"
	patchmatcherservice "github.com/RobsonDevCode/deepguard/internal/services/patchMatcherService"
	"go.uber.org/zap"
)

type DecisionSurfaceService interface {
	Build(vulns []models.Vulnerability, policy *models.Policy, manifest *models.Manifest) models.Surface
}

type DecisionSurface struct {
	matcher       patchmatcherservice.PatchMatcherService
	filterDecided bool
	now           func() time.Time
	logger        *zap.Logger
}

// NewDecisionSurface builds questions for every vulnerability. With
// filterDecided set, vulnerabilities the policy already ignores or patches are
// not asked about again.
func NewDecisionSurface(matcher patchmatcherservice.PatchMatcherService, filterDecided bool, logger *zap.Logger) *DecisionSurface {
	return &DecisionSurface{
		matcher:       matcher,
		filterDecided: filterDecided,
		now:           time.Now,
		logger:        logger,
	}
}

func (s *DecisionSurface) Build(vulns []models.Vulnerability, policy *models.Policy, manifest *models.Manifest) models.Surface {
	var questions []models.Question

	for i, vuln := range vulns {
		if s.filterDecided && s.decided(policy, vuln) {
			s.logger.Debug("already decided, not asking", zap.String("id", vuln.DisplayID()))
			continue
		}

		question := s.vulnerabilityQuestion(i, vuln)
		questions = append(questions, question, reasonQuestion(question.Name))
	}

	questions = append(questions, processQuestions(manifest)...)

	return models.Surface{Questions: questions}
}

func (s *DecisionSurface) decided(policy *models.Policy, vuln models.Vulnerability) bool {
	id := vuln.DisplayID()
	return policy.IsIgnored(id, s.now()) || policy.IsPatched(id)
}

// vulnerabilityQuestion orders the options as update, patch, skip, ignore.
// Missing remediations are replaced by a skip that explains why, which keeps
// their position and stays selectable.
func (s *DecisionSurface) vulnerabilityQuestion(index int, vuln models.Vulnerability) models.Question {
	pkg := vuln.Name + "@" + vuln.Version

	options := NewOptionList(
		option("Do nothing", models.ActionSkip, vuln, models.ChoiceMeta{}),
		option(fmt.Sprintf("Ignore it for %d days", constants.DefaultIgnoreDays), models.ActionIgnore, vuln,
			models.ChoiceMeta{Days: constants.DefaultIgnoreDays}),
	)

	patches := s.matcher.Match(models.InstalledPackage{Name: vuln.Name, Version: vuln.Version}, vuln)
	if patches != nil {
		options.Prefer(option("Patch", models.ActionPatch, vuln, models.ChoiceMeta{}))
	} else {
		options.Prefer(option("Patch (no patch available for this vulnerability on "+pkg+")",
			models.ActionSkip, vuln, models.ChoiceMeta{}))
	}

	if UpgradeAvailable(vuln) {
		options.Prefer(option("Upgrade to "+firstNonEmpty(vuln.UpgradePath), models.ActionUpdate, vuln, models.ChoiceMeta{}))
	} else {
		options.Prefer(option("Upgrade (no direct upgrade available to sufficiently upgrade "+pkg+")",
			models.ActionSkip, vuln, models.ChoiceMeta{}))
	}

	return models.Question{
		Name:    PromptName(index, vuln),
		Kind:    models.QuestionSelect,
		Message: message(vuln),
		Options: options.Options(),
	}
}

// UpgradeAvailable is true when the upgrade path reinstalls a package at the
// same range the chain already asks for, or when the project's direct
// dependency (the first two levels of the path) can be bumped.
func UpgradeAvailable(vuln models.Vulnerability) bool {
	if len(vuln.UpgradePath) == 0 {
		return false
	}

	for i, pkg := range vuln.UpgradePath {
		if pkg != "" && i < len(vuln.From) && pkg == vuln.From[i] {
			return true
		}
	}

	head := vuln.UpgradePath
	if len(head) > 2 {
		head = head[:2]
	}

	return firstNonEmpty(head) != ""
}

// PromptName keys a vulnerability question. The index keeps two paths to the
// same advisory apart.
func PromptName(index int, vuln models.Vulnerability) string {
	return vuln.DisplayID() + "-" + strconv.Itoa(index)
}

func reasonQuestion(name string) models.Question {
	return models.Question{
		Name:    name + constants.ReasonSuffix,
		Kind:    models.QuestionInput,
		Message: "[audit] Reason for ignoring vulnerability?",
		Default: constants.DefaultIgnoreReason,
		When: func(answers models.Answers) bool {
			return answers.ActionFor(name) == models.ActionIgnore
		},
	}
}

func processQuestions(manifest *models.Manifest) []models.Question {
	questions := []models.Question{{
		Name:           constants.MiscRunMonitor,
		Kind:           models.QuestionConfirm,
		Message:        "Capture a snapshot of your dependencies to be notified about new related vulnerabilities?",
		DefaultConfirm: true,
	}}

	var testScript, postInstall string
	if manifest != nil {
		testScript = manifest.Script("test")
		postInstall = manifest.Script("postinstall")
	}

	if !strings.Contains(testScript, constants.TestCommand) {
		questions = append(questions, models.Question{
			Name:           constants.MiscAddTest,
			Kind:           models.QuestionConfirm,
			Message:        "Add `" + constants.TestCommand + "` to package.json file to fail test on newly disclosed vulnerabilities?",
			DefaultConfirm: true,
		})
	}

	if !strings.Contains(postInstall, constants.ProtectMarker) {
		questions = append(questions, models.Question{
			Name:           constants.MiscAddProtect,
			Kind:           models.QuestionConfirm,
			Message:        "Add `" + constants.ToolName + " protect` as package.json post-install step to apply chosen patches on install?",
			DefaultConfirm: true,
			When:           anyPatch,
		})
	}

	return questions
}

func anyPatch(answers models.Answers) bool {
	for _, answer := range answers {
		if answer.Choice != nil && answer.Choice.Action == models.ActionPatch {
			return true
		}
	}

	return false
}

func option(label string, action models.Action, vuln models.Vulnerability, meta models.ChoiceMeta) models.Option {
	return models.Option{
		Label: label,
		Choice: models.Choice{
			Action: action,
			Vuln:   vuln,
			Meta:   meta,
		},
	}
}

func message(vuln models.Vulnerability) string {
	from := ""
	if len(vuln.From) > 1 {
		from = firstNonEmpty(vuln.From[1:])
	}
	if from == "" {
		from = vuln.Name + "@" + vuln.Version
	}

	return "Fix vulnerability in " + from + "\n  - from: " + vuln.Path()
}

func firstNonEmpty(values []string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
