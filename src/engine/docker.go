package engine

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// imageAPI is the slice of the Docker Engine SDK the engine depends on.
type imageAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ImageTag(ctx context.Context, source, target string) error
	ImageRemove(ctx context.Context, imageID string, options image.RemoveOptions) ([]image.DeleteResponse, error)
	Close() error
}

// Options configures a Docker engine.
type Options struct {
	Host    string // engine endpoint; empty uses DOCKER_HOST / the default socket
	Binary  string // CLI used for build and push; default "docker"
	Verbose bool   // stream build/push output and echo commands
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *log.Logger
}

// Docker implements Engine against a Docker-compatible daemon. The image
// index (list, tag, remove) goes through the Engine API; build and push go
// through the CLI so BuildKit, .dockerignore and credential helpers behave
// exactly as they do for `docker build` / `docker push`.
type Docker struct {
	api     imageAPI
	binary  string
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	log     *log.Logger
	run     runFunc
}

// New connects to the engine and verifies it answers. Failure to reach the
// daemon is reported as ErrUnreachable.
func New(ctx context.Context, opts Options) (*Docker, error) {
	clientOpts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if opts.Host != "" {
		clientOpts = append(clientOpts, client.WithHost(opts.Host))
	}

	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	d := newDocker(cli, opts)
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	d.log.Debug("engine connected", "host", cli.DaemonHost())
	return d, nil
}

func newDocker(api imageAPI, opts Options) *Docker {
	d := &Docker{
		api:     api,
		binary:  opts.Binary,
		verbose: opts.Verbose,
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
		log:     opts.Logger,
		run:     execRun,
	}
	if d.binary == "" {
		d.binary = "docker"
	}
	if d.stdout == nil {
		d.stdout = os.Stdout
	}
	if d.stderr == nil {
		d.stderr = os.Stderr
	}
	if d.log == nil {
		d.log = log.Default()
	}
	return d
}

// Close releases the API connection.
func (d *Docker) Close() error {
	return d.api.Close()
}

func (d *Docker) ListTags(ctx context.Context, name string) ([]string, error) {
	summaries, err := d.api.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", name)),
	})
	if err != nil {
		return nil, fmt.Errorf("docker: listing images for %s: %w", name, err)
	}

	seen := make(map[string]bool)
	var tags []string
	for _, s := range summaries {
		for _, rt := range s.RepoTags {
			repo, tag, ok := SplitRef(rt)
			if !ok || tag == "<none>" {
				continue
			}
			if !SameRepository(repo, name) || seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	d.log.Debug("local tags", "image", name, "count", len(tags))
	return tags, nil
}

func (d *Docker) Tag(ctx context.Context, source, target string) error {
	if err := d.api.ImageTag(ctx, source, target); err != nil {
		return fmt.Errorf("docker: tag %s %s: %w", source, target, err)
	}
	return nil
}

func (d *Docker) RemoveTag(ctx context.Context, ref string) error {
	// Match `docker rmi`: untag, and drop untagged parents once unreferenced.
	if _, err := d.api.ImageRemove(ctx, ref, image.RemoveOptions{PruneChildren: true}); err != nil {
		return fmt.Errorf("docker: rmi %s: %w", ref, err)
	}
	return nil
}

// Repositories returns the repository names in the local image index in
// their familiar form ("myorg/app", not "docker.io/myorg/app"), in index
// order without duplicates.
func (d *Docker) Repositories(ctx context.Context) ([]string, error) {
	summaries, err := d.api.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("docker: listing images: %w", err)
	}

	seen := make(map[string]bool)
	var repos []string
	for _, s := range summaries {
		for _, rt := range s.RepoTags {
			repo, _, ok := SplitRef(rt)
			if !ok || repo == "<none>" {
				continue
			}
			repo = FamiliarName(repo)
			if seen[repo] {
				continue
			}
			seen[repo] = true
			repos = append(repos, repo)
		}
	}
	return repos, nil
}
