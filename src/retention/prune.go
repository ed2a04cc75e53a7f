package retention

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/sofmeright/workman/src/config"
	"github.com/sofmeright/workman/src/engine"
	"github.com/sofmeright/workman/src/registry"
	"github.com/sofmeright/workman/src/report"
	"github.com/sofmeright/workman/src/tag"
)

// Pruner applies retention to every targeted image against the local engine.
type Pruner struct {
	Engine engine.Engine
	Local  registry.Lister
	DryRun bool
	Log    *log.Logger
}

// Run prunes each target in order. Removal failures are per image and
// recorded in the report; a local listing failure or cancellation aborts
// the run and is returned alongside the outcomes recorded so far.
func (p *Pruner) Run(ctx context.Context, targets []config.Target) (*report.Report, error) {
	rep := report.New("prune")

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		img := t.Image
		store := &engineStore{engine: p.Engine, local: p.Local, name: img.Name}
		result, err := Apply(ctx, store, p.DryRun)
		if err != nil {
			return rep, fmt.Errorf("%s (%s): %w", img.Project, img.Name, err)
		}
		p.record(rep, img, result)
	}
	return rep, nil
}

func (p *Pruner) record(rep *report.Report, img config.ImageRef, result *Result) {
	base := report.Outcome{Project: img.Project, Image: img.Name}

	if len(result.Plan.Remove) == 0 {
		o := base
		o.Op = "prune"
		o.Status = report.Skipped
		o.Detail = "nothing to prune"
		rep.Add(o)
		return
	}

	for _, t := range result.Plan.Keep {
		o := base
		o.Op = "keep"
		o.Ref = engine.Ref(img.Name, t.String())
		o.Status = report.Success
		rep.Add(o)
	}

	if p.DryRun {
		for _, t := range result.Plan.Remove {
			o := base
			o.Op = "remove"
			o.Ref = engine.Ref(img.Name, t.String())
			o.Status = report.Skipped
			o.Detail = "dry run"
			rep.Add(o)
		}
		return
	}

	for _, t := range result.Removed {
		o := base
		o.Op = "remove"
		o.Ref = engine.Ref(img.Name, t.String())
		o.Status = report.Success
		rep.Add(o)
	}
	for _, f := range result.Failed {
		o := base
		o.Op = "remove"
		o.Ref = engine.Ref(img.Name, f.Tag.String())
		o.Status = report.Failed
		o.Err = f.Err
		rep.Add(o)
		p.logger().Warn("remove failed", "ref", o.Ref, "err", f.Err)
	}
}

// engineStore adapts the local engine to the Store interface for one image.
type engineStore struct {
	engine engine.Engine
	local  registry.Lister
	name   string
}

func (s *engineStore) List(ctx context.Context) ([]tag.Tag, error) {
	listing, err := s.local.ListTags(ctx, s.name)
	if err != nil {
		return nil, err
	}
	return listing.Tags, nil
}

func (s *engineStore) Remove(ctx context.Context, t tag.Tag) error {
	return s.engine.RemoveTag(ctx, engine.Ref(s.name, t.String()))
}

func (p *Pruner) logger() *log.Logger {
	if p.Log == nil {
		return log.Default()
	}
	return p.Log
}
