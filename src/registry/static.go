package registry

import "context"

// Disabled is a Lister that never has anything to say. It stands in for the
// remote source when remote lookups are switched off in configuration.
type Disabled struct{}

func (Disabled) Source() string { return "disabled" }

func (Disabled) ListTags(context.Context, string) (Listing, error) {
	return Unavailable(), nil
}
