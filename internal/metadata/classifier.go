// Package metadata decides which declarations are events and turns them
// into catalog records.
package metadata

import "github.com/forgeevents/eventcatalog/internal/ast"

// MaxAncestryDepth bounds the supertype walk. Chains longer than this are
// treated as malformed (usually a cycle) and classified as non-events.
const MaxAncestryDepth = 1024

// DefaultMarkers are the simple names of the event base types.
var DefaultMarkers = []string{"Event", "FMLEvent"}

// Classifier decides whether a declaration is an event type.
type Classifier struct {
	markers map[string]struct{}
	lookup  ast.Lookup
}

// NewClassifier creates a classifier over lookup. An empty marker list
// selects DefaultMarkers.
func NewClassifier(lookup ast.Lookup, markers ...string) *Classifier {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	set := make(map[string]struct{}, len(markers))
	for _, m := range markers {
		set[m] = struct{}{}
	}
	return &Classifier{markers: set, lookup: lookup}
}

// IsEvent reports whether decl or any of its supertypes has a marker simple
// name. The declaration itself counts, so the base types are events too.
func (c *Classifier) IsEvent(decl *ast.ClassNode) bool {
	if decl == nil {
		return false
	}
	if c.isMarker(decl.SimpleName()) {
		return true
	}

	current := decl.Superclass
	for depth := 0; current != "" && current != ast.RootType; depth++ {
		if depth >= MaxAncestryDepth {
			return false
		}
		if c.isMarker(c.lookup.SimpleName(current)) {
			return true
		}
		parent, ok := c.lookup.Parent(current)
		if !ok {
			return false
		}
		current = parent
	}
	return false
}

func (c *Classifier) isMarker(name string) bool {
	_, ok := c.markers[name]
	return ok
}
