package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/workman/src/output"
	"github.com/sofmeright/workman/src/report"
	"github.com/sofmeright/workman/src/workspace"
)

var statusCmd = &cobra.Command{
	Use:   "status [project ...]",
	Short: "Show git status for all repositories in the workspace",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}

	repos, err := workspace.Status(root, args)
	if err != nil {
		return err
	}

	w := os.Stdout
	color := output.UseColor()
	if len(repos) == 0 {
		fmt.Fprintln(w, "No git repositories found in workspace.")
		return nil
	}

	sec := output.NewSection(w, "Status", 0, color)
	for _, r := range repos {
		if r.Clean() {
			output.RowStatus(sec, output.Bold(r.Name, color), "clean", report.Success, color)
			continue
		}
		output.RowStatus(sec, output.Bold(r.Name, color), fmt.Sprintf("%d changed", len(r.Lines)), report.Warning, color)
		for _, line := range r.Lines {
			sec.Row("    %s", line)
		}
	}
	sec.Close()
	return nil
}
