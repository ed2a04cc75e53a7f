package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sofmeright/workman/src/tag"
)

// DefaultTool is the remote tag listing tool looked up on PATH.
const DefaultTool = "skopeo"

// Remote lists tags from the remote registry through an external listing
// tool (skopeo). It only speaks for registry-hosted names, and it never
// fails a command: a missing tool, a rejected login, a network error or a
// repository that has not been pushed yet all come back Unavailable.
// Context cancellation is the one error it returns.
type Remote struct {
	Tool    string        // tool name or path; default DefaultTool
	Timeout time.Duration // forwarded as --command-timeout; zero leaves it to the tool
	Logger  *log.Logger

	lookPath func(string) (string, error)
	output   func(ctx context.Context, path string, args ...string) ([]byte, error)
}

// NewRemote returns a Remote lister for the given tool.
func NewRemote(tool string, timeout time.Duration, logger *log.Logger) *Remote {
	if tool == "" {
		tool = DefaultTool
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Remote{
		Tool:     tool,
		Timeout:  timeout,
		Logger:   logger,
		lookPath: exec.LookPath,
		output:   execOutput,
	}
}

func (r *Remote) Source() string { return "remote" }

func (r *Remote) ListTags(ctx context.Context, name string) (Listing, error) {
	if !IsHosted(name) {
		return Unavailable(), nil
	}

	path, err := r.lookPath(r.Tool)
	if err != nil {
		r.Logger.Debug("remote tag listing unavailable", "image", name, "reason", "tool not found", "tool", r.Tool)
		return Unavailable(), nil
	}

	var args []string
	if r.Timeout > 0 {
		args = append(args, "--command-timeout", r.Timeout.String())
	}
	args = append(args, "list-tags", "docker://"+name)

	out, err := r.output(ctx, path, args...)
	if err != nil {
		if ctx.Err() != nil {
			return Listing{}, ctx.Err()
		}
		r.Logger.Debug("remote tag listing unavailable", "image", name, "reason", err)
		return Unavailable(), nil
	}

	// skopeo list-tags prints {"Repository": "...", "Tags": [...]}.
	var resp struct {
		Repository string   `json:"Repository"`
		Tags       []string `json:"Tags"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		r.Logger.Debug("remote tag listing unavailable", "image", name, "reason", "decoding output: "+err.Error())
		return Unavailable(), nil
	}

	r.Logger.Debug("remote tags", "image", name, "count", len(resp.Tags))
	return Found(tag.ParseAll(resp.Tags)), nil
}

func execOutput(ctx context.Context, path string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &toolError{err: err, stderr: bytes.TrimSpace(stderr.Bytes())}
	}
	return stdout.Bytes(), nil
}

type toolError struct {
	err    error
	stderr []byte
}

func (e *toolError) Error() string {
	if len(e.stderr) == 0 {
		return e.err.Error()
	}
	return e.err.Error() + ": " + string(e.stderr)
}

func (e *toolError) Unwrap() error { return e.err }
