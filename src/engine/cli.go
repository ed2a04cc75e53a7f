package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
)

// runFunc executes an external command. Stubbed in tests.
type runFunc func(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error

func execRun(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Build runs `docker build` for a single image.
func (d *Docker) Build(ctx context.Context, req BuildRequest) error {
	return d.exec(ctx, buildArgs(req))
}

// Push runs `docker push` for a single reference. Credentials come from the
// CLI's own configuration; a missing login surfaces as a push error.
func (d *Docker) Push(ctx context.Context, ref string) error {
	return d.exec(ctx, []string{"push", ref})
}

// buildArgs constructs the docker build argument list.
func buildArgs(req BuildRequest) []string {
	args := []string{"build"}

	// Dockerfile paths are relative to the build context.
	if req.Dockerfile != "" {
		df := req.Dockerfile
		if !filepath.IsAbs(df) {
			df = filepath.Join(req.Context, df)
		}
		args = append(args, "--file", df)
	}

	args = append(args, "--tag", req.Ref)

	dir := req.Context
	if dir == "" {
		dir = "."
	}
	return append(args, dir)
}

// exec runs the engine CLI. Output is captured so the failure can carry the
// tool's own error text; in verbose mode it is streamed as well.
func (d *Docker) exec(ctx context.Context, args []string) error {
	d.log.Debug("exec", "cmd", d.binary+" "+strings.Join(args, " "))

	var stderr bytes.Buffer
	stdout := io.Discard
	errw := io.Writer(&stderr)
	if d.verbose {
		stdout = d.stdout
		errw = io.MultiWriter(d.stderr, &stderr)
	}

	if err := d.run(ctx, d.binary, args, stdout, errw); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s %s: %w: %s", d.binary, args[0], err, lastLines(stderr.String(), 5))
	}
	return nil
}

// lastLines returns the final n non-empty lines of s, joined by "; ".
func lastLines(s string, n int) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}
