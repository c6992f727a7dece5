package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/RobsonDevCode/deepguard/cmd.Version=1.2.3".
// A git tag such as v1.2.3 works too.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the deepguard version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
