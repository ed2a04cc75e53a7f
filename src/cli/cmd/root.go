package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sofmeright/workman/src/config"
	"github.com/sofmeright/workman/src/engine"
	"github.com/sofmeright/workman/src/output"
	"github.com/sofmeright/workman/src/registry"
	"github.com/sofmeright/workman/src/report"
)

var (
	workDir string
	cfgFile string
	verbose bool

	ws     *config.Workspace
	logger = log.Default()
)

// noConfig lists the commands that run without a workspace file.
var noConfig = map[string]bool{
	"version": true,
	"init":    true,
	"clean":   true,
	"status":  true,
	"help":    true,
}

var rootCmd = &cobra.Command{
	Use:   "workman",
	Short: "Workspace manager for multi-project container builds",
	Long: `workman builds, pushes and prunes the container images of every
project in a workspace. Builds get dated tags (YYYYMMDD-N) allocated from
the local image index and the remote registry, plus a movable alias.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(verbose)

		if noConfig[cmd.Name()] {
			return nil
		}
		var err error
		ws, err = config.Load(workDir, cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger.Debug("workspace loaded", "file", ws.File, "projects", len(ws.Projects))
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workDir, "directory", "C", "", "workspace root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "workspace file (default: .workman.yaml in the workspace root)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func newLogger(verbose bool) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "workman",
		ReportTimestamp: verbose,
		TimeFormat:      time.TimeOnly,
	})
	if verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// signalContext is cancelled on interrupt so the current image operation
// aborts and the remaining images are skipped.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func workspaceRoot() (string, error) {
	root := workDir
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving workspace root: %w", err)
	}
	return abs, nil
}

func newEngine(ctx context.Context) (*engine.Docker, error) {
	var host string
	if ws != nil {
		host = ws.DockerHost
	}
	return engine.New(ctx, engine.Options{
		Host:    host,
		Verbose: verbose,
		Logger:  logger,
	})
}

// remoteLister returns the remote tag source configured for the workspace.
func remoteLister() registry.Lister {
	if ws.Remote.Disabled {
		return registry.Disabled{}
	}
	return registry.NewRemote(ws.Remote.Tool, ws.Remote.CommandTimeout, logger)
}

// finish renders the report and folds a fatal error and the per-image
// failures into the command's exit error.
func finish(rep *report.Report, start time.Time, fatal error) error {
	if rep != nil {
		output.Report(os.Stdout, rep, time.Since(start), output.UseColor())
	}
	if fatal != nil {
		return fatal
	}
	if rep == nil {
		return nil
	}
	if err := rep.Err(); err != nil {
		return fmt.Errorf("%s: %d failed: %w", rep.Command, rep.Failed(), err)
	}
	return nil
}
