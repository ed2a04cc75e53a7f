package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sofmeright/workman/src/config"
	"github.com/sofmeright/workman/src/output"
	"github.com/sofmeright/workman/src/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scan the workspace and generate " + config.DefaultFile,
	Long: `Scan the immediate subdirectories of the workspace. A directory with a
Dockerfile, or whose name matches a local image repository, becomes a
project. Writes ` + config.DefaultFile + ` (an existing file is never overwritten)
and lists the project directories in a managed .gitignore block.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	// Without an engine only Dockerfiles are detected.
	var images workspace.ImageRepositories
	if eng, err := newEngine(ctx); err != nil {
		logger.Warn("local images not scanned", "err", err)
	} else {
		defer eng.Close()
		images = eng
	}

	result, err := workspace.Init(ctx, root, images)
	if result == nil {
		return err
	}

	w := os.Stdout
	color := output.UseColor()
	for _, d := range result.Discoveries {
		name := output.Bold(d.Dir, color)
		if !d.Project() {
			fmt.Fprintf(w, "  %s: %s\n", name, output.Dimmed("skipped (no Dockerfile or matching image)", color))
			continue
		}
		var found []string
		if d.Dockerfile {
			found = append(found, "Dockerfile")
		}
		if d.Image != "" {
			found = append(found, "image: "+d.Image)
		}
		fmt.Fprintf(w, "  %s: %s\n", name, strings.Join(found, ", "))
	}

	fmt.Fprintf(w, "\nWrote %s with %d project(s).\n", config.DefaultFile, len(result.Projects))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Updated .gitignore with %d project(s).\n", len(result.Projects))
	return nil
}
