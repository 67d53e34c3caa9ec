// Package catalog persists event metadata per release. Every release owns a
// staging table that is rebuilt on each run and a production table that is
// only ever replaced wholesale by promotion.
package catalog

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Side tells whether an event only fires on the client or on both sides.
type Side uint8

const (
	SideClient Side = 1
	SideCommon Side = 2
)

// String returns the name of the side
func (s Side) String() string {
	switch s {
	case SideClient:
		return "CLIENT"
	case SideCommon:
		return "COMMON"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

// MarshalJSON encodes the side by name
func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either the name or the stored integer
func (s *Side) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParseSide(name)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}

	var n uint8
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid side %s", data)
	}
	*s = Side(n)
	return nil
}

// ParseSide parses "CLIENT"/"COMMON" as well as "1"/"2".
func ParseSide(s string) (Side, error) {
	switch s {
	case "CLIENT", "client", "1":
		return SideClient, nil
	case "COMMON", "common", "2":
		return SideCommon, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

// ResultFlags is the bitset of event capabilities.
type ResultFlags uint8

const (
	FlagHasResult  ResultFlags = 1 << 0
	FlagCancelable ResultFlags = 1 << 1
)

// HasResult reports whether the event carries a result
func (f ResultFlags) HasResult() bool { return f&FlagHasResult != 0 }

// Cancelable reports whether the event can be cancelled
func (f ResultFlags) Cancelable() bool { return f&FlagCancelable != 0 }

// FieldPair is one public constant field of an event.
type FieldPair struct {
	Name string
	Type string
}

// FieldList is the ordered payload description of an event. It is stored
// as a JSON array of single-key objects: [{"pos":"BlockPos"},...].
type FieldList []FieldPair

// MarshalJSON writes the single-key object form, keeping order.
func (l FieldList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, f := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		entry, err := json.Marshal(map[string]string{f.Name: f.Type})
		if err != nil {
			return nil, err
		}
		buf.Write(entry)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the single-key object form.
func (l *FieldList) UnmarshalJSON(data []byte) error {
	var raw []map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid field list: %w", err)
	}

	list := make(FieldList, 0, len(raw))
	for _, entry := range raw {
		if len(entry) != 1 {
			return fmt.Errorf("invalid field list: expected one field per entry, got %d", len(entry))
		}
		for name, typ := range entry {
			list = append(list, FieldPair{Name: name, Type: typ})
		}
	}
	*l = list
	return nil
}

// Value implements driver.Valuer
func (l FieldList) Value() (driver.Value, error) {
	data, err := l.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner. NULL and empty columns scan as an empty list.
func (l *FieldList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = FieldList{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into FieldList", src)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		*l = FieldList{}
		return nil
	}
	return l.UnmarshalJSON(data)
}

// EventRecord is the cataloged metadata of one event class.
type EventRecord struct {
	Name           string      `json:"name"`
	QualifiedName  string      `json:"qualifiedName"`
	SuperclassName string      `json:"superclass"`
	Fields         FieldList   `json:"fields"`
	Description    string      `json:"description"`
	EventBus       string      `json:"eventbus"`
	Since          string      `json:"since"`
	ResultFlags    ResultFlags `json:"result"`
	Side           Side        `json:"side"`
	Deprecated     bool        `json:"deprecated"`
}

// ReleaseInfo is one row of the versions table.
type ReleaseInfo struct {
	Release      string
	ForgeVersion string
	// EventBusList is the serialized bus routing list of the release
	// descriptor, stored verbatim.
	EventBusList string
}

// View selects which table of a release to read.
type View int

const (
	Staging View = iota
	Production
)

// String returns the name of the view
func (v View) String() string {
	if v == Production {
		return "production"
	}
	return "staging"
}
