package cmd

import (
	"fmt"

	protectservice "github.com/RobsonDevCode/deepguard/internal/services/protectService"
	"github.com/spf13/cobra"
)

var protectCmd = &cobra.Command{
	Use:   "protect",
	Short: "apply the patches recorded in the .deepguard policy",
	Long: `protect applies the patches recorded in the .deepguard policy file.

With --interactive it tests the project and walks through every vulnerability,
recording whether to upgrade, patch or ignore it, and can add deepguard to the
project's test and postinstall scripts.`,
	Args: cobra.NoArgs,
	RunE: runProtect,
}

const (
	DryRunFlag      = "dry-run"
	InteractiveFlag = "interactive"
)

func runProtect(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool(DryRunFlag)
	interactive, _ := cmd.Flags().GetBool(InteractiveFlag)

	message, err := protectService.Run(cmd.Context(), protectservice.Options{
		Root:        ".",
		DryRun:      dryRun,
		Interactive: interactive,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), message)
	return nil
}

func init() {
	protectCmd.Flags().Bool(DryRunFlag, false, "Show what would change without touching the project")
	protectCmd.Flags().BoolP(InteractiveFlag, "i", false, "Choose how to remediate each vulnerability")

	rootCmd.AddCommand(protectCmd)
}
