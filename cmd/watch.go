package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path|package]",
	Short: "be notified when new vulnerabilities affect a project or package",
	Long: `watch registers the project at path, or a package published on npm, to be
notified about newly disclosed vulnerabilities.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	target := projectRoot(args)

	result, err := watchService.Watch(cmd.Context(), target)
	if err != nil {
		return err
	}

	if !result.Ok {
		return fmt.Errorf("the api did not confirm the watch on %s", target)
	}

	fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Watching \"%s@%s\"", result.Watch.Name, result.Watch.Version))
	return nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
