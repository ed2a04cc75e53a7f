// Package push uploads locally built image tags to their registries.
package push

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/sofmeright/workman/src/config"
	"github.com/sofmeright/workman/src/engine"
	"github.com/sofmeright/workman/src/registry"
	"github.com/sofmeright/workman/src/report"
	"github.com/sofmeright/workman/src/tag"
)

// NotHosted is the detail recorded for images whose name carries no
// registry host.
const NotHosted = "not registry-hosted, nothing to push"

// Pusher pushes the local tags of every targeted image.
type Pusher struct {
	Engine engine.Engine
	Local  registry.Lister

	// Jobs bounds how many images are pushed at once. Values below 1 push
	// sequentially.
	Jobs int

	// Recent limits each image to its newest dated tag plus the alias.
	// Otherwise every local tag is pushed.
	Recent bool

	Log *log.Logger
}

// Run pushes each target. Push failures are isolated per image and
// recorded in the report. A local listing failure or cancellation aborts
// the remaining images and is returned. Outcomes are always in target
// order regardless of which image finished first.
func (p *Pusher) Run(ctx context.Context, targets []config.Target) (*report.Report, error) {
	rep := report.New("push")
	slots := make([][]report.Outcome, len(targets))

	jobs := p.Jobs
	if jobs < 1 {
		jobs = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, t := range targets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcomes, err := p.target(gctx, t)
			slots[i] = outcomes
			return err
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	for _, outcomes := range slots {
		for _, o := range outcomes {
			rep.Add(o)
		}
	}
	return rep, err
}

func (p *Pusher) target(ctx context.Context, t config.Target) ([]report.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img := t.Image
	if !registry.IsHosted(img.Name) {
		return Image(ctx, p.Engine, img, nil, p.logger())
	}

	listing, err := p.Local.ListTags(ctx, img.Name)
	if err != nil {
		return nil, fmt.Errorf("%s (%s): %w", img.Project, img.Name, err)
	}

	selected := Select(listing.Tags, t.LatestTag, p.Recent)
	if len(selected) == 0 {
		return []report.Outcome{{
			Project: img.Project,
			Image:   img.Name,
			Op:      "push",
			Status:  report.Skipped,
			Detail:  "no local tags",
		}}, nil
	}
	return Image(ctx, p.Engine, img, selected, p.logger())
}

func (p *Pusher) logger() *log.Logger {
	if p.Log == nil {
		return log.Default()
	}
	return p.Log
}

// Select picks the tags of one image to push. With recent set that is the
// newest dated tag followed by the alias when it exists locally; otherwise
// every tag in discovery order.
func Select(tags []tag.Tag, alias string, recent bool) []string {
	if !recent {
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			out = append(out, t.String())
		}
		return out
	}

	var out []string
	if ranked := tag.SortDatedDesc(tags); len(ranked) > 0 {
		out = append(out, ranked[0].String())
	}
	for _, t := range tags {
		if alias != "" && !t.IsDated() && t.String() == alias {
			out = append(out, alias)
			break
		}
	}
	return out
}

// Image pushes the given tags of img in order and returns one outcome per
// attempted reference. Non-hosted images yield a single skipped outcome.
// The first failed push ends the image; the remaining tags are not tried.
// Only cancellation is returned as an error.
func Image(ctx context.Context, eng engine.Engine, img config.ImageRef, tags []string, logger *log.Logger) ([]report.Outcome, error) {
	base := report.Outcome{Project: img.Project, Image: img.Name, Op: "push"}

	if !registry.IsHosted(img.Name) {
		logger.Info("skipping push", "image", img.Name, "reason", "no registry host in name")
		o := base
		o.Status = report.Skipped
		o.Detail = NotHosted
		return []report.Outcome{o}, nil
	}

	var outcomes []report.Outcome
	for _, t := range tags {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		ref := engine.Ref(img.Name, t)
		logger.Debug("pushing", "ref", ref)

		o := base
		o.Ref = ref
		if err := eng.Push(ctx, ref); err != nil {
			if ctx.Err() != nil {
				return outcomes, ctx.Err()
			}
			logger.Warn("push failed", "ref", ref, "err", err)
			o.Status = report.Failed
			o.Err = err
			outcomes = append(outcomes, o)
			return outcomes, nil
		}
		o.Status = report.Success
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}
