// Package registry provides the sources of existing tag state for an image.
// Every source is reached through the Lister interface so the allocator
// never branches on where tags came from: the local engine index is
// mandatory, the remote registry is consulted on a best-effort basis.
package registry

import (
	"context"
	"strings"

	"github.com/sofmeright/workman/src/tag"
)

// Lister is the capability every tag source implements.
type Lister interface {
	// Source names the tag source for logs ("local", "remote").
	Source() string

	// ListTags returns the tags known for the image name. A source that
	// cannot answer but whose silence is acceptable returns Unavailable()
	// and a nil error; a returned error means the whole command cannot
	// proceed.
	ListTags(ctx context.Context, name string) (Listing, error)
}

// Listing is the answer of a Lister. Available distinguishes "the source
// answered with zero tags" from "the source had nothing to say".
type Listing struct {
	Tags      []tag.Tag
	Available bool
}

// Found wraps an answered listing.
func Found(tags []tag.Tag) Listing {
	return Listing{Tags: tags, Available: true}
}

// Unavailable is the listing of a source that could not be consulted.
func Unavailable() Listing {
	return Listing{}
}

// IsHosted reports whether an image name addresses a remote registry: the
// path segment before the first "/" contains a "." or a ":". Names without a
// "/" are never registry-hosted.
//
//	myapp                        → false
//	myorg/myapp                  → false
//	registry.example.com/myapp   → true
//	localhost:5000/myapp         → true
func IsHosted(name string) bool {
	host, _, found := strings.Cut(name, "/")
	if !found {
		return false
	}
	return strings.ContainsAny(host, ".:")
}
