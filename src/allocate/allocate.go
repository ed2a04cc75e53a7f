// Package allocate computes the next dated tag for an image.
package allocate

import (
	"context"
	"fmt"
	"time"

	"github.com/sofmeright/workman/src/registry"
	"github.com/sofmeright/workman/src/tag"
)

// Allocator merges the local (mandatory) and remote (best-effort) tag
// listings of an image to pick the next free sequence number for a day.
//
// Allocation is a single read-then-compute per call. Nothing is cached: two
// calls for the same image see whatever the engine holds at that moment,
// including tags created by the previous call. Concurrent invocations
// against the same image are not coordinated.
type Allocator struct {
	Local  registry.Lister
	Remote registry.Lister
}

// Allocation is the outcome of one Allocate call.
type Allocation struct {
	Tag tag.Tag

	// RemoteAvailable is false when the remote listing could not be
	// consulted and the sequence was derived from local tags alone. In that
	// case a sequence already pushed and later removed locally can be
	// handed out again.
	RemoteAvailable bool
}

// New returns an Allocator over the two sources. remote may be nil for
// local-only allocation.
func New(local, remote registry.Lister) *Allocator {
	if remote == nil {
		remote = registry.Disabled{}
	}
	return &Allocator{Local: local, Remote: remote}
}

// Allocate returns today's next tag for the image name: one past the highest
// sequence for today found in either source, or sequence 1. Existing gaps
// are never filled. A local listing failure is returned as an error; remote
// unavailability is not.
func (a *Allocator) Allocate(ctx context.Context, name string, today time.Time) (Allocation, error) {
	local, err := a.Local.ListTags(ctx, name)
	if err != nil {
		return Allocation{}, fmt.Errorf("allocating tag for %s: %w", name, err)
	}

	remote, err := a.Remote.ListTags(ctx, name)
	if err != nil {
		return Allocation{}, fmt.Errorf("allocating tag for %s: %w", name, err)
	}

	max := tag.MaxSequence(local.Tags, today)
	if remote.Available {
		if n := tag.MaxSequence(remote.Tags, today); n > max {
			max = n
		}
	}

	return Allocation{
		Tag:             tag.New(today, max+1),
		RemoteAvailable: remote.Available,
	}, nil
}
