package cmd

import (
	"fmt"
	"os"

	"github.com/RobsonDevCode/deepguard/internal/clierrors"
	"github.com/RobsonDevCode/deepguard/internal/constants"
	dependencyservice "github.com/RobsonDevCode/deepguard/internal/services/dependencyService"
	excelexportservice "github.com/RobsonDevCode/deepguard/internal/services/excelExportService"
	protectservice "github.com/RobsonDevCode/deepguard/internal/services/protectService"
	testservice "github.com/RobsonDevCode/deepguard/internal/services/testService"
	watchservice "github.com/RobsonDevCode/deepguard/internal/services/watchService"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	protectService     protectservice.ProtectService
	testService        testservice.TestService
	snapshotService    dependencyservice.SnapshotService
	watchService       watchservice.WatchService
	excelExportService excelexportservice.ExcelExportService
	logLevel           zap.AtomicLevel
	includeDev         func(bool)
)

var (
	debugFlag bool
	devFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   constants.ToolName,
	Short: "find and fix known vulnerabilities in npm dependencies",
	Long: `deepguard tests the dependencies of an npm project for known vulnerabilities
and helps remediate them by upgrading, patching or ignoring them.

Decisions are kept in a .deepguard policy file next to package.json.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugFlag {
			logLevel.SetLevel(zapcore.DebugLevel)
		}
		if devFlag && includeDev != nil {
			includeDev(true)
		}
	},
}

func SetProtectService(service protectservice.ProtectService) {
	protectService = service
}

func SetTestService(service testservice.TestService) {
	testService = service
}

func SetSnapshotService(service dependencyservice.SnapshotService) {
	snapshotService = service
}

func SetWatchService(service watchservice.WatchService) {
	watchService = service
}

// SetIncludeDev receives the switch that makes dependency reads include
// devDependencies. The --dev flag turns it on.
func SetIncludeDev(setter func(bool)) {
	includeDev = setter
}

func SetExcelExportService(service excelexportservice.ExcelExportService) {
	excelExportService = service
}

func SetLogLevel(level zap.AtomicLevel) {
	logLevel = level
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, clierrors.Message(err))
		os.Exit(1)
	}
}

func projectRoot(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return "."
	}

	return args[0]
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Print debug logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&devFlag, "dev", false, "Include devDependencies, only production dependencies are read by default")
}
