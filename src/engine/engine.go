// Package engine is the boundary to the local container engine. The core
// only decides which tag strings to create and remove; every byte of image
// data moves through the engine.
package engine

import (
	"context"
	"errors"
)

// ErrUnreachable is returned (wrapped) when the local engine cannot be
// reached at all. It is fatal for every command: the local engine is the one
// mandatory source of tag state.
var ErrUnreachable = errors.New("container engine unreachable")

// Engine is the set of operations consumed from the local container engine.
// References passed to Tag, RemoveTag and Push are full "name:tag" strings.
type Engine interface {
	// ListTags returns the tags present in the local image index for the
	// repository name, in discovery order. Untagged ("<none>") entries are
	// never returned.
	ListTags(ctx context.Context, name string) ([]string, error)

	// Build builds req.Context with req.Dockerfile and tags the result req.Ref.
	Build(ctx context.Context, req BuildRequest) error

	// Tag adds target as an additional reference to the image at source.
	Tag(ctx context.Context, source, target string) error

	// RemoveTag untags ref from the local index.
	RemoveTag(ctx context.Context, ref string) error

	// Push uploads ref to the registry encoded in its name.
	Push(ctx context.Context, ref string) error
}

// BuildRequest describes a single image build.
type BuildRequest struct {
	Dockerfile string // path to the Dockerfile; empty uses the engine default
	Context    string // build context directory
	Ref        string // name:tag to apply to the result
}
