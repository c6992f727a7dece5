package tablewriterservice

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"

	"github.com/RobsonDevCode/deepguard/internal/constants"
	"github.com/RobsonDevCode/deepguard/internal/extensions"
	"github.com/RobsonDevCode/deepguard/internal/models"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap:  tw.WrapNormal,
					MergeMode: tw.MergeHierarchical}, //wrap long content like titles and paths
				Alignment:    tw.CellAlignment{Global: tw.AlignCenter},
				ColMaxWidths: tw.CellWidth{Global: 20},
			},
		}),
	)
}

func DisplayVulnerabilityTable(w io.Writer, vulns []models.Vulnerability) {
	if len(vulns) == 0 {
		fmt.Fprint(w, color.GreenString("\n No Package Vulnerabilities!\n"))
		return
	}

	sorted := slices.Clone(vulns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return extensions.SeverityRank(sorted[i].Severity) < extensions.SeverityRank(sorted[j].Severity)
	})

	table := newTable(w)
	table.Header(constants.VulnerabilityTableHeaders)

	for _, vuln := range sorted {
		table.Append([]string{
			vuln.DisplayID(),
			extensions.TruncateString(vuln.Title, 50),
			vuln.Severity,
			vuln.Name + "@" + vuln.Version,
			extensions.TruncateString(vuln.Path(), 80),
			Remediation(vuln),
		})
	}

	fmt.Fprintf(w, "\n Found %d Package Vulnerabilities: \n", len(sorted))

	table.Render()
}

// DisplayPolicyTable lists the rules of a policy, ignores first.
func DisplayPolicyTable(w io.Writer, policy *models.Policy) {
	if policy == nil || (len(policy.Ignore) == 0 && len(policy.Patch) == 0) {
		fmt.Fprint(w, "\n Policy is empty\n")
		return
	}

	table := newTable(w)
	table.Header(constants.PolicyTableHeaders)

	for _, id := range sortedKeys(policy.Ignore) {
		for _, rule := range policy.Ignore[id] {
			detail := rule.Reason
			if rule.ExpiresAfterDays > 0 {
				detail += " (until " + rule.CreatedAt.AddDate(0, 0, rule.ExpiresAfterDays).Format("2006-01-02") + ")"
			}
			table.Append([]string{id, "ignore", extensions.TruncateString(detail, 80), rule.Path})
		}
	}

	for _, id := range sortedKeys(policy.Patch) {
		for _, rule := range policy.Patch[id] {
			table.Append([]string{id, "patch", rule.PatchID, rule.Path})
		}
	}

	table.Render()
}

// Remediation summarises the best fix the api reported for vuln.
func Remediation(vuln models.Vulnerability) string {
	for _, pkg := range vuln.UpgradePath {
		if pkg != "" {
			return "Upgrade to " + pkg
		}
	}

	if len(vuln.Patches) > 0 {
		return "Patch (" + strconv.Itoa(len(vuln.Patches)) + " available)"
	}

	return "None"
}

func sortedKeys[T any](rules map[string][]T) []string {
	keys := make([]string, 0, len(rules))
	for key := range rules {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}
