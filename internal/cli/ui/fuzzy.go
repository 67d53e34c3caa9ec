package ui

import (
	"sort"
	"strings"

	"github.com/forgeevents/eventcatalog/internal/ast"
)

const (
	// DefaultMaxDistance is the default maximum edit distance to consider for fuzzy matching
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions is the default maximum number of suggestions to return
	DefaultMaxSuggestions = 3
)

// FuzzyMatchOptions configures fuzzy matching behavior
type FuzzyMatchOptions struct {
	MaxDistance    int // default: 3
	MaxSuggestions int // default: 3
	CaseSensitive  bool
}

type suggestion struct {
	value    string
	distance int
}

// SuggestEventNames returns the event names closest to target. Nested
// names are also compared by their innermost segment, so "BreakEvent"
// suggests "BlockEvent.BreakEvent".
func SuggestEventNames(target string, names []string, opts *FuzzyMatchOptions) []string {
	if opts == nil {
		opts = &FuzzyMatchOptions{}
	}
	maxDistance := opts.MaxDistance
	if maxDistance == 0 {
		maxDistance = DefaultMaxDistance
	}
	maxSuggestions := opts.MaxSuggestions
	if maxSuggestions == 0 {
		maxSuggestions = DefaultMaxSuggestions
	}

	normalize := func(s string) string {
		if opts.CaseSensitive {
			return s
		}
		return strings.ToLower(s)
	}
	want := normalize(target)

	var suggestions []suggestion
	for _, name := range names {
		dist := min(
			LevenshteinDistance(want, normalize(name)),
			LevenshteinDistance(want, normalize(ast.SimpleName(name))),
		)
		if dist <= maxDistance {
			suggestions = append(suggestions, suggestion{value: name, distance: dist})
		}
	}

	// Closest first; ties keep catalog order
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].distance < suggestions[j].distance
	})

	result := make([]string, 0, maxSuggestions)
	for i := 0; i < len(suggestions) && i < maxSuggestions; i++ {
		result = append(result, suggestions[i].value)
	}
	return result
}

// LevenshteinDistance returns the minimum number of single-character edits
// needed to turn s1 into s2.
func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
