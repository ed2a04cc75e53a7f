package registry

import (
	"context"
	"fmt"

	"github.com/sofmeright/workman/src/tag"
)

// TagIndex is the part of the local engine a Local lister reads.
type TagIndex interface {
	ListTags(ctx context.Context, name string) ([]string, error)
}

// Local lists tags from the local container engine's image index. It is
// always available while the engine is reachable; any failure is returned
// as an error because allocation and retention cannot run without it.
type Local struct {
	index TagIndex
}

// NewLocal returns a Local lister over the engine index.
func NewLocal(index TagIndex) *Local {
	return &Local{index: index}
}

func (l *Local) Source() string { return "local" }

func (l *Local) ListTags(ctx context.Context, name string) (Listing, error) {
	raw, err := l.index.ListTags(ctx, name)
	if err != nil {
		return Listing{}, fmt.Errorf("local: %w", err)
	}
	return Found(tag.ParseAll(raw)), nil
}
