// Package build runs the build orchestration: allocate a dated tag, build
// the image under it, then point the project's alias at the same build.
package build

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sofmeright/workman/src/allocate"
	"github.com/sofmeright/workman/src/config"
	"github.com/sofmeright/workman/src/engine"
	"github.com/sofmeright/workman/src/push"
	"github.com/sofmeright/workman/src/registry"
	"github.com/sofmeright/workman/src/report"
	"github.com/sofmeright/workman/src/tag"
)

// Builder builds every targeted image in order.
type Builder struct {
	Engine    engine.Engine
	Allocator *allocate.Allocator

	// Push uploads the dated tag, and the alias when it was applied, right
	// after each successful build.
	Push bool

	// DryRun allocates and reports tags without building anything. Targets
	// sharing an image name get consecutive tags, as a real run would give
	// them.
	DryRun bool

	Log *log.Logger

	// Now returns the current time; nil uses time.Now. The day is read once
	// per Run so every image of one invocation shares it.
	Now func() time.Time
}

// Run builds each target. A failed build is recorded and the next target
// still runs. A failed alias is recorded as a warning and leaves the dated
// tag in place. A local listing failure or cancellation aborts the
// remaining targets and is returned.
func (b *Builder) Run(ctx context.Context, targets []config.Target) (*report.Report, error) {
	rep := report.New("build")
	if b.DryRun {
		rep.Command = "build (dry run)"
	}

	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	today := now()

	// planned is the highest sequence a dry run has reported per image name.
	var planned map[string]int
	if b.DryRun {
		planned = map[string]int{}
	}

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := b.target(ctx, rep, t, today, planned); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

func (b *Builder) target(ctx context.Context, rep *report.Report, t config.Target, today time.Time, planned map[string]int) error {
	img := t.Image
	logger := b.logger().With("image", img.Name)

	alloc, err := b.Allocator.Allocate(ctx, img.Name, today)
	if err != nil {
		return fmt.Errorf("%s (%s): %w", img.Project, img.Name, err)
	}
	if planned != nil {
		if last, ok := planned[img.Name]; ok && last >= alloc.Tag.Sequence() {
			alloc.Tag = tag.New(today, last+1)
		}
		planned[img.Name] = alloc.Tag.Sequence()
	}
	dated := alloc.Tag.String()
	ref := engine.Ref(img.Name, dated)

	base := report.Outcome{Project: img.Project, Image: img.Name}
	if registry.IsHosted(img.Name) && !alloc.RemoteAvailable {
		logger.Debug("remote tags unavailable, allocated from local tags only", "tag", dated)
		base.Detail = "local tags only"
	}

	if b.DryRun {
		o := base
		o.Op = "build"
		o.Ref = ref
		o.Status = report.Skipped
		o.Detail = "dry run"
		rep.Add(o)
		return nil
	}

	logger.Info("building", "tag", dated)
	err = b.Engine.Build(ctx, engine.BuildRequest{
		Dockerfile: img.Dockerfile,
		Context:    img.Context,
		Ref:        ref,
	})
	o := base
	o.Op = "build"
	o.Ref = ref
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Error("build failed", "tag", dated, "err", err)
		o.Status = report.Failed
		o.Err = err
		rep.Add(o)
		return nil
	}
	o.Status = report.Success
	rep.Add(o)

	pushTags := []string{dated}
	if alias := t.LatestTag; alias != "" {
		if b.alias(ctx, rep, img, ref, alias) {
			pushTags = append(pushTags, alias)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if !b.Push {
		return nil
	}
	outcomes, err := push.Image(ctx, b.Engine, img, pushTags, b.logger())
	for _, o := range outcomes {
		rep.Add(o)
	}
	return err
}

// alias tags the fresh build with alias and reports whether it succeeded.
func (b *Builder) alias(ctx context.Context, rep *report.Report, img config.ImageRef, source, alias string) bool {
	o := report.Outcome{
		Project: img.Project,
		Image:   img.Name,
		Op:      "tag",
		Ref:     engine.Ref(img.Name, alias),
	}
	if err := b.Engine.Tag(ctx, source, o.Ref); err != nil {
		b.logger().Warn("alias not applied", "ref", o.Ref, "err", err)
		o.Status = report.Warning
		o.Err = err
		rep.Add(o)
		return false
	}
	o.Status = report.Success
	rep.Add(o)
	return true
}

func (b *Builder) logger() *log.Logger {
	if b.Log == nil {
		return log.Default()
	}
	return b.Log
}
