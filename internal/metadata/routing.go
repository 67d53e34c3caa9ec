package metadata

import "strings"

// BusRoute assigns the events of a package prefix to a bus.
type BusRoute struct {
	Prefix string `json:"prefix"`
	Bus    string `json:"bus"`
}

// BusRouting is an ordered list of routes. The first matching prefix wins,
// so more specific prefixes must come first.
type BusRouting []BusRoute

// Match returns the bus for a qualified name, or "" when no route matches.
func (r BusRouting) Match(qualifiedName string) string {
	for _, route := range r {
		if strings.HasPrefix(qualifiedName, route.Prefix) {
			return route.Bus
		}
	}
	return ""
}
