// Package retention decides which locally built images survive a prune and
// removes the rest. The policy is fixed: per image, the single most recent
// dated tag is kept, and every opaque tag ("latest", "stable", ...) is left
// alone. Only superseded dated builds are ever removed.
package retention

import (
	"context"
	"fmt"

	"github.com/sofmeright/workman/src/tag"
)

// Store abstracts listing and removing the tags of one image so the planner
// runs the same against the engine or an in-memory fake.
type Store interface {
	List(ctx context.Context) ([]tag.Tag, error)
	Remove(ctx context.Context, t tag.Tag) error
}

// Plan is the keep/remove decision for one image.
type Plan struct {
	Keep   []tag.Tag // newest dated tag first (if any), then opaque tags in discovery order
	Remove []tag.Tag // superseded dated tags, newest first
}

// Failure is a tag whose removal failed.
type Failure struct {
	Tag tag.Tag
	Err error
}

// Result captures what Apply did.
type Result struct {
	Plan    Plan
	Removed []tag.Tag // tags successfully removed
	Failed  []Failure // removals that failed; the others still ran
}

// PlanFor ranks tags and designates every dated tag except the most recent
// (by date, then sequence) for removal. Opaque tags are always kept.
func PlanFor(tags []tag.Tag) Plan {
	var plan Plan

	ranked := tag.SortDatedDesc(tags)
	if len(ranked) > 0 {
		plan.Keep = append(plan.Keep, ranked[0])
		plan.Remove = append(plan.Remove, ranked[1:]...)
	}
	for _, t := range tags {
		if !t.IsDated() {
			plan.Keep = append(plan.Keep, t)
		}
	}
	return plan
}

// Apply lists the store, plans, and removes the designated tags one at a
// time. A failed removal is recorded and the remaining removals continue;
// already-removed tags are never restored. With dryRun set nothing is
// removed. Listing failures and cancellation are returned as errors.
func Apply(ctx context.Context, store Store, dryRun bool) (*Result, error) {
	result := &Result{}

	tags, err := store.List(ctx)
	if err != nil {
		return result, fmt.Errorf("retention: listing tags: %w", err)
	}

	result.Plan = PlanFor(tags)
	if dryRun {
		return result, nil
	}

	for _, t := range result.Plan.Remove {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := store.Remove(ctx, t); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed = append(result.Failed, Failure{Tag: t, Err: err})
			continue
		}
		result.Removed = append(result.Removed, t)
	}
	return result, nil
}
