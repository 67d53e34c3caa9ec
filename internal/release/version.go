// Package release orders release identifiers made of dotted numeric segments
// ("1.7.10", "1.12.2") and derives the table-safe form of an identifier.
package release

import (
	"sort"
	"strconv"
	"strings"
)

// Parse splits a release identifier into its numeric segments.
func Parse(id string) ([]int, error) {
	if id == "" {
		return nil, &MalformedVersionError{Release: id}
	}

	parts := strings.Split(id, ".")
	segments := make([]int, len(parts))
	for i, part := range parts {
		// Atoi accepts a leading sign, which is not a valid segment
		if part == "" || part[0] == '+' || part[0] == '-' {
			return nil, &MalformedVersionError{Release: id, Segment: part}
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, &MalformedVersionError{Release: id, Segment: part, Err: err}
		}
		segments[i] = n
	}
	return segments, nil
}

// Validate reports whether id is a well-formed release identifier.
func Validate(id string) error {
	_, err := Parse(id)
	return err
}

// Compare orders two release identifiers segment by segment. Missing
// trailing segments compare as zero, so "1.12" and "1.12.0" are equal.
func Compare(a, b string) (int, error) {
	sa, err := Parse(a)
	if err != nil {
		return 0, err
	}
	sb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return compareSegments(sa, sb), nil
}

func compareSegments(a, b []int) int {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		var da, db int
		if i < len(a) {
			da = a[i]
		}
		if i < len(b) {
			db = b[i]
		}
		if da > db {
			return 1
		}
		if da < db {
			return -1
		}
	}
	return 0
}

// SortAscending returns a sorted copy of ids. Equal identifiers keep their
// input order.
func SortAscending(ids []string) ([]string, error) {
	type entry struct {
		id       string
		segments []int
	}

	entries := make([]entry, 0, len(ids))
	for _, id := range ids {
		segments, err := Parse(id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{id: id, segments: segments})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return compareSegments(entries[i].segments, entries[j].segments) < 0
	})

	sorted := make([]string, len(entries))
	for i, e := range entries {
		sorted[i] = e.id
	}
	return sorted, nil
}

// PredecessorOf returns the release immediately before current once current
// is merged into known and the set is sorted. The boolean is false when
// current sorts first.
func PredecessorOf(current string, known []string) (string, bool, error) {
	if err := Validate(current); err != nil {
		return "", false, err
	}

	all := make([]string, 0, len(known)+1)
	seen := map[string]bool{current: true}
	all = append(all, current)
	for _, id := range known {
		if seen[id] {
			continue
		}
		seen[id] = true
		all = append(all, id)
	}

	sorted, err := SortAscending(all)
	if err != nil {
		return "", false, err
	}

	for i, id := range sorted {
		if id != current {
			continue
		}
		if i == 0 {
			return "", false, nil
		}
		return sorted[i-1], true, nil
	}
	return "", false, nil
}

// Escape converts a release identifier into the form used for table names.
func Escape(id string) string {
	return strings.ReplaceAll(id, ".", "_")
}
