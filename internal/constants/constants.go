package constants

const (
	ToolName       = "deepguard"
	PolicyFileName = ".deepguard"
	ManifestName   = "package.json"
	NodeModules    = "node_modules"

	// TestCommand is wired into scripts.test so newly disclosed vulnerabilities
	// fail the project's test run.
	TestCommand = ToolName + " test"
	// ProtectCommand is wired into scripts.postinstall through the local tool
	// runner so patches are re-applied after every install.
	ProtectCommand = "npx " + ToolName + " protect"
	// ProtectMarker is what an existing postinstall is checked for.
	ProtectMarker = ToolName + " pro"

	DefaultIgnoreDays = 30
	UnpinnedVersion   = "*"
)

// prompt names
const (
	ReasonSuffix        = "-reason"
	MiscPrefix          = "misc-"
	MiscRunMonitor      = MiscPrefix + "run-monitor"
	MiscAddTest         = MiscPrefix + "add-test"
	MiscAddProtect      = MiscPrefix + "add-protect"
	DefaultIgnoreReason = "None given"
)

var VulnerabilityTableHeaders = []string{"ID", "Title", "Severity", "Package", "Introduced Through", "Remediation"}
var PolicyTableHeaders = []string{"ID", "Decision", "Detail", "Path"}
