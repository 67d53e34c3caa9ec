package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format identifies the encoding of a declaration dump.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the dump format from a file extension. Anything
// that is not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads a declaration dump from disk.
func LoadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read declarations %s: %w", path, err)
	}

	prog, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to decode declarations %s: %w", path, err)
	}
	return prog, nil
}

// Decode parses a declaration dump. Class order is preserved.
func Decode(data []byte, format Format) (*Program, error) {
	var prog Program

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &prog); err != nil {
			return nil, err
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&prog); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported declaration format %q", format)
	}

	return &prog, nil
}
