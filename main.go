package main

import (
	"fmt"
	"os"

	"github.com/RobsonDevCode/deepguard/cmd"
	client "github.com/RobsonDevCode/deepguard/internal/clients"
	"github.com/RobsonDevCode/deepguard/internal/configuration"
	"github.com/RobsonDevCode/deepguard/internal/logging"
	decisionresolverservice "github.com/RobsonDevCode/deepguard/internal/services/decisionResolverService"
	decisionsurfaceservice "github.com/RobsonDevCode/deepguard/internal/services/decisionSurfaceService"
	dependencyservice "github.com/RobsonDevCode/deepguard/internal/services/dependencyService"
	excelexportservice "github.com/RobsonDevCode/deepguard/internal/services/excelExportService"
	manifestupdaterservice "github.com/RobsonDevCode/deepguard/internal/services/manifestUpdaterService"
	patchmatcherservice "github.com/RobsonDevCode/deepguard/internal/services/patchMatcherService"
	policygeneratorservice "github.com/RobsonDevCode/deepguard/internal/services/policyGeneratorService"
	policystoreservice "github.com/RobsonDevCode/deepguard/internal/services/policyStoreService"
	policysynthesizerservice "github.com/RobsonDevCode/deepguard/internal/services/policySynthesizerService"
	promptservice "github.com/RobsonDevCode/deepguard/internal/services/promptService"
	protectservice "github.com/RobsonDevCode/deepguard/internal/services/protectService"
	testservice "github.com/RobsonDevCode/deepguard/internal/services/testService"
	watchservice "github.com/RobsonDevCode/deepguard/internal/services/watchService"
	npmcommands "github.com/RobsonDevCode/deepguard/internal/thirdPartyCommands/npmCommands"
	patchcommands "github.com/RobsonDevCode/deepguard/internal/thirdPartyCommands/patchCommands"
	"go.uber.org/zap"
)

func main() {
	config, err := configuration.Load(os.Getenv(configuration.EnvPrefix + "CONFIG"))
	if err != nil {
		fmt.Printf("error staring command line: %s\n", err.Error())
		os.Exit(1)
	}

	level := logging.Level(config.Debug)
	logger, err := logging.New(level)
	if err != nil {
		fmt.Printf("error staring command line: %s\n", err.Error())
		os.Exit(1)
	}
	defer logger.Sync()

	if err := configuration.PersistID(config); err != nil {
		logger.Warn("client id not saved, snapshots from this run use a one-off id",
			zap.String("path", config.Path),
			zap.Error(err))
	}

	apiClient, err := client.NewAPIClient(config, logger.Named("api"))
	if err != nil {
		fmt.Printf("error staring command line: %s\n", err.Error())
		os.Exit(1)
	}

	npmExecutor := npmcommands.NewNpmCommandExecutor(config.Dev)
	dependencyReader := dependencyservice.NewDependencyReader(npmExecutor, logger)
	protectSnapshotter := dependencyservice.NewSnapshotter(dependencyReader, apiClient, config.ID, logger)
	monitorSnapshotter := dependencyservice.NewSnapshotter(dependencyReader, apiClient, config.ID, logger)
	monitorSnapshotter.SetMethod("cli")

	store := policystoreservice.NewPolicyStore()
	matcher := patchmatcherservice.NewPatchMatcher(logger)
	tester := testservice.NewTester(dependencyReader, apiClient, store, logger)
	generator := policygeneratorservice.NewPolicyGenerator(apiClient, npmExecutor,
		patchcommands.NewPatchCommandExecutor(), matcher, dependencyReader, logger)
	manifestUpdater := manifestupdaterservice.NewManifestUpdater(protectSnapshotter,
		func() string { return cmd.Version }, logger)
	manifestUpdater.Subscribe(manifestupdaterservice.NewSnapshotPrinter(os.Stdout))

	protect := protectservice.NewProtect(
		store,
		tester,
		decisionsurfaceservice.NewDecisionSurface(matcher, true, logger),
		promptservice.NewPrompter(logger),
		decisionresolverservice.NewDecisionResolver(logger),
		policysynthesizerservice.NewPolicySynthesizer(generator, store, logger),
		generator,
		manifestUpdater,
		os.Stdout,
		logger.With(zap.String("command", "protect")),
	)

	// cant DI directly into the command so we use a setter
	cmd.SetLogLevel(level)
	cmd.SetProtectService(protect)
	cmd.SetTestService(tester)
	cmd.SetSnapshotService(monitorSnapshotter)
	cmd.SetWatchService(watchservice.NewWatcher(apiClient, logger))
	cmd.SetIncludeDev(npmExecutor.SetIncludeDev)
	cmd.SetExcelExportService(excelexportservice.NewExcelExporter())
	cmd.Execute()
}
