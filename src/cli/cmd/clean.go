package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/workman/src/workspace"
)

var cDryRun bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove build artifacts from all subdirectories",
	Long: `Remove dist, build, __pycache__ and *.egg-info directories anywhere
under the workspace root.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cDryRun, "dry-run", false, "list the directories without removing them")

	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}

	removed, err := workspace.Clean(root, cDryRun)
	for _, rel := range removed {
		fmt.Fprintf(os.Stdout, "  removing %s\n", rel)
	}
	if err != nil {
		return err
	}

	if len(removed) == 0 {
		fmt.Fprintln(os.Stdout, "Nothing to clean.")
	} else {
		fmt.Fprintf(os.Stdout, "Removed %d directories.\n", len(removed))
	}
	return nil
}
