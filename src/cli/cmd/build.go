package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/workman/src/allocate"
	"github.com/sofmeright/workman/src/build"
	"github.com/sofmeright/workman/src/registry"
)

var (
	bDryRun bool
	bPush   bool
)

var buildCmd = &cobra.Command{
	Use:   "build [project|@group ...]",
	Short: "Build images with a new dated tag",
	Long: `Build the images of the selected projects.

Each image gets the next free YYYYMMDD-N tag for today, considering both
the local image index and the remote registry, and the project's alias
(default "latest") is moved to the new build.

Without arguments the default group is built, or every project when no
default group is configured.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&bDryRun, "dry-run", false, "show the tags that would be allocated without building")
	buildCmd.Flags().BoolVar(&bPush, "push", false, "push each image right after a successful build")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	targets, err := ws.Targets(args)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	eng, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	start := time.Now()
	b := &build.Builder{
		Engine:    eng,
		Allocator: allocate.New(registry.NewLocal(eng), remoteLister()),
		Push:      bPush,
		DryRun:    bDryRun,
		Log:       logger,
	}
	rep, err := b.Run(ctx, targets)
	return finish(rep, start, err)
}
