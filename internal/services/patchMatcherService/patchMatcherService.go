package patchmatcherservice

import (
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/RobsonDevCode/deepguard/internal/models"
	"go.uber.org/zap"
)

type PatchMatcherService interface {
	Match(pkg models.InstalledPackage, vuln models.Vulnerability) []models.Patch
}

type PatchMatcher struct {
	logger *zap.Logger
}

func NewPatchMatcher(logger *zap.Logger) *PatchMatcher {
	return &PatchMatcher{logger: logger}
}

// Match returns the patches of vuln whose version range covers the installed
// package, newest first. nil means no patch applies to this exact version.
func (m *PatchMatcher) Match(pkg models.InstalledPackage, vuln models.Vulnerability) []models.Patch {
	if len(vuln.Patches) == 0 {
		return nil
	}

	version, err := semver.NewVersion(pkg.Version)
	if err != nil {
		m.logger.Debug("installed version is not semver",
			zap.String("package", pkg.Name),
			zap.String("version", pkg.Version))
		return nil
	}

	var matched []models.Patch
	for _, patch := range vuln.Patches {
		constraint, err := semver.NewConstraint(patch.Version)
		if err != nil {
			m.logger.Debug("skipping patch with unreadable range",
				zap.String("patch", patch.ID),
				zap.String("range", patch.Version))
			continue
		}

		if constraint.Check(version) {
			matched = append(matched, patch)
		}
	}

	if len(matched) == 0 {
		return nil
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ModificationTime.After(matched[j].ModificationTime)
	})

	m.logger.Debug("patches matched",
		zap.String("package", pkg.Name+"@"+pkg.Version),
		zap.Int("count", len(matched)))

	return matched
}
