package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/workman/src/push"
	"github.com/sofmeright/workman/src/registry"
)

var (
	pRecent bool
	pJobs   int
)

var pushCmd = &cobra.Command{
	Use:   "push [project|@group ...]",
	Short: "Push local image tags to their registries",
	Long: `Push the local tags of the selected images.

Only images whose name carries a registry host are pushed; others are
skipped with a notice. A failed push affects only its own image.

Use --recent to push just the newest dated tag and the alias.`,
	RunE: runPush,
}

func init() {
	pushCmd.Flags().BoolVar(&pRecent, "recent", false, "push only the newest dated tag and the alias")
	pushCmd.Flags().IntVarP(&pJobs, "jobs", "j", 0, "images pushed concurrently (default: push.jobs from the workspace file)")

	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
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

	jobs := ws.Push.Jobs
	if cmd.Flags().Changed("jobs") {
		jobs = pJobs
	}

	start := time.Now()
	p := &push.Pusher{
		Engine: eng,
		Local:  registry.NewLocal(eng),
		Jobs:   jobs,
		Recent: pRecent,
		Log:    logger,
	}
	rep, err := p.Run(ctx, targets)
	return finish(rep, start, err)
}
