package cmd

import (
	"fmt"
	"path/filepath"

	tablewriterservice "github.com/RobsonDevCode/deepguard/internal/cmdLineWriters/tablewriter"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "test a project for known vulnerabilities",
	Long: `test reports the known vulnerabilities of the installed dependencies, leaving
out the ones the .deepguard policy ignores or patches.

Exits with status 1 while vulnerabilities remain, so it can guard a test script.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTest,
}

const ExportFlag = "export"

func runTest(cmd *cobra.Command, args []string) error {
	root := projectRoot(args)
	exportDir, _ := cmd.Flags().GetString(ExportFlag)
	out := cmd.OutOrStdout()

	result, err := testService.Test(cmd.Context(), root)
	if err != nil {
		return err
	}

	tablewriterservice.DisplayVulnerabilityTable(out, result.Vulnerabilities)

	if exportDir != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("error resolving %s, %w", root, err)
		}

		path, err := excelExportService.ExportVulnerabilities(exportDir, filepath.Base(abs), result.Vulnerabilities)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Your file has been saved to: %s\n", path)
	}

	if len(result.Vulnerabilities) > 0 {
		return fmt.Errorf("%d vulnerable dependency paths found, run `deepguard protect -i` to address them", len(result.Vulnerabilities))
	}

	fmt.Fprintln(out, color.GreenString("✓ Tested %s for known vulnerabilities, no vulnerable paths found.", root))
	return nil
}

func init() {
	testCmd.Flags().StringP(ExportFlag, "e", "", "Also save the report as an xlsx file in this directory")

	rootCmd.AddCommand(testCmd)
}
