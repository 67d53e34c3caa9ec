// Package lineage tracks in which release an event first appeared.
package lineage

import (
	"context"
	"fmt"

	"github.com/forgeevents/eventcatalog/internal/catalog"
)

// Lookup finds a record in the staging set of a release. A nil record with
// a nil error means the name is not cataloged there.
type Lookup interface {
	LookupByName(ctx context.Context, release, name string) (*catalog.EventRecord, error)
}

// Resolver computes the "since" release of records.
type Resolver struct {
	lookup Lookup
}

// NewResolver creates a resolver reading previous releases through lookup.
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// ResolveSince returns the release an event first appeared in. An event
// already cataloged in the previous release inherits its since value;
// anything else is new in current.
func (r *Resolver) ResolveSince(ctx context.Context, rec catalog.EventRecord, current, previous string) (string, error) {
	if previous == "" {
		return current, nil
	}

	prior, err := r.lookup.LookupByName(ctx, previous, rec.Name)
	if err != nil {
		return "", fmt.Errorf("failed to look up %s in %s: %w", rec.Name, previous, err)
	}
	if prior == nil || prior.Since == "" {
		return current, nil
	}
	return prior.Since, nil
}
