package config

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/forgeevents/eventcatalog/internal/metadata"
	"github.com/forgeevents/eventcatalog/internal/release"
)

// Descriptor identifies the release being published:
//
//	{"mcversion":"1.12.2","forgeversion":"14.23.5.2768",
//	 "eventbus":[{"net.minecraftforge.fml":"FML"},{"net.minecraftforge":"FORGE"}]}
//
// The eventbus list is ordered; the first matching package prefix wins.
type Descriptor struct {
	Release      string
	ForgeVersion string
	Routing      metadata.BusRouting
	// RawEventBus is the eventbus list exactly as given ("" when absent).
	RawEventBus string
}

// LoadDescriptor reads a descriptor file.
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Key: "descriptor", Err: err}
	}
	return ParseDescriptor(data)
}

// ParseDescriptor parses a descriptor document.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	if !gjson.ValidBytes(data) {
		return nil, configErr("descriptor", "invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, configErr("descriptor", "expected a JSON object")
	}

	mcversion := doc.Get("mcversion")
	if mcversion.Type != gjson.String || mcversion.Str == "" {
		return nil, configErr("descriptor.mcversion", "required string")
	}
	if err := release.Validate(mcversion.Str); err != nil {
		return nil, &ConfigurationError{Key: "descriptor.mcversion", Err: err}
	}

	forgeversion := doc.Get("forgeversion")
	if !forgeversion.Exists() || forgeversion.String() == "" {
		return nil, configErr("descriptor.forgeversion", "required")
	}

	desc := &Descriptor{
		Release:      mcversion.Str,
		ForgeVersion: forgeversion.String(),
	}

	eventbus := doc.Get("eventbus")
	if !eventbus.Exists() {
		return desc, nil
	}
	if !eventbus.IsArray() {
		return nil, configErr("descriptor.eventbus", "expected an array")
	}
	desc.RawEventBus = eventbus.Raw

	var parseErr error
	eventbus.ForEach(func(_, entry gjson.Result) bool {
		if !entry.IsObject() {
			parseErr = configErr("descriptor.eventbus", "expected {\"package\":\"BUS\"} entries, got %s", entry.Raw)
			return false
		}
		entry.ForEach(func(prefix, bus gjson.Result) bool {
			if prefix.Str == "" || bus.Type != gjson.String {
				parseErr = configErr("descriptor.eventbus", "invalid route %s", entry.Raw)
				return false
			}
			desc.Routing = append(desc.Routing, metadata.BusRoute{Prefix: prefix.Str, Bus: bus.Str})
			return true
		})
		return parseErr == nil
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return desc, nil
}

// String returns a one-line description for logs and prompts.
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s (forge %s)", d.Release, d.ForgeVersion)
}
