package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/workman/src/registry"
	"github.com/sofmeright/workman/src/retention"
)

var prDryRun bool

var pruneCmd = &cobra.Command{
	Use:   "prune [project|@group ...]",
	Short: "Remove superseded dated tags from the local image index",
	Long: `Keep only the newest dated tag of each selected image.

Tags that are not dated (the alias, "stable", ...) are never removed.
A tag that cannot be removed is reported and the others are still removed.

Use --dry-run to preview what would be removed without removing.`,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().BoolVar(&prDryRun, "dry-run", false, "show what would be removed without removing")

	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
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
	p := &retention.Pruner{
		Engine: eng,
		Local:  registry.NewLocal(eng),
		DryRun: prDryRun,
		Log:    logger,
	}
	rep, err := p.Run(ctx, targets)
	if prDryRun {
		rep.Command = "prune (dry run)"
	}
	return finish(rep, start, err)
}
