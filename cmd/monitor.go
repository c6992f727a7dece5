package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor [path]",
	Short: "record a snapshot of the dependencies to be alerted about new vulnerabilities",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	root := projectRoot(args)

	fmt.Fprintf(cmd.OutOrStdout(), "Capturing a snapshot of %s...\n", root)

	result, err := snapshotService.Snapshot(cmd.Context(), root)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", color.GreenString("Monitoring %s (%s)", root, result.ID))
	if result.URI != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Explore this snapshot at %s\n", result.URI)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
