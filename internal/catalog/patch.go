package catalog

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/forgeevents/eventcatalog/internal/release"
)

// Patch overrides columns of the records whose name matches a LIKE pattern.
// Curators use patches to fix descriptions, bus or side assignments that
// the extractor cannot infer.
type Patch struct {
	Name   string
	Values map[string]string
}

// patchColumns maps patchable columns to a converter for their value.
var patchColumns = map[string]func(string) (interface{}, error){
	"description": func(v string) (interface{}, error) { return v, nil },
	"eventbus":    func(v string) (interface{}, error) { return v, nil },
	"since": func(v string) (interface{}, error) {
		if err := release.Validate(v); err != nil {
			return nil, err
		}
		return v, nil
	},
	"side": func(v string) (interface{}, error) {
		side, err := ParseSide(v)
		if err != nil {
			return nil, err
		}
		return int(side), nil
	},
	"deprecated": func(v string) (interface{}, error) {
		return strconv.ParseBool(v)
	},
}

// ParsePatches reads a CSV patch file. The header names the columns; the
// first column holds the name pattern. Empty cells leave the column alone.
func ParsePatches(r io.Reader) ([]Patch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read patch header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("patch header needs a name column and at least one value column, got %v", header)
	}
	for _, column := range header[1:] {
		if _, ok := patchColumns[strings.ToLower(column)]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
		}
	}

	var patches []Patch
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read patch row: %w", err)
		}
		if len(row) == 0 || row[0] == "" {
			continue
		}

		patch := Patch{Name: row[0], Values: make(map[string]string)}
		for i := 1; i < len(row) && i < len(header); i++ {
			if row[i] != "" {
				patch.Values[strings.ToLower(header[i])] = row[i]
			}
		}
		if len(patch.Values) > 0 {
			patches = append(patches, patch)
		}
	}
	return patches, nil
}

// ApplyPatch applies one patch to a release view and returns the number of
// records changed.
func (s *Store) ApplyPatch(ctx context.Context, rel string, view View, patch Patch) (int64, error) {
	table := StagingTable(rel)
	if view == Production {
		table = ProductionTable(rel)
	}

	exists, err := s.tableExists(ctx, table)
	if err != nil {
		return 0, storageErr("patch", rel, nil, err)
	}
	if !exists {
		if view == Production {
			return 0, storageErr("patch", rel, nil, ErrNoProduction)
		}
		return 0, storageErr("patch", rel, nil, fmt.Errorf("no staging table %s", table))
	}

	columns := make([]string, 0, len(patch.Values))
	for column := range patch.Values {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	assignments := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns)+1)
	for _, column := range columns {
		convert, ok := patchColumns[column]
		if !ok {
			return 0, storageErr("patch", rel, nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column))
		}
		value, err := convert(patch.Values[column])
		if err != nil {
			return 0, storageErr("patch", rel, nil, fmt.Errorf("invalid %s for %s: %w", column, patch.Name, err))
		}
		assignments = append(assignments, column+" = ?")
		args = append(args, value)
	}
	if len(assignments) == 0 {
		return 0, nil
	}
	args = append(args, patch.Name)

	query := s.dialect.Rebind("UPDATE " + s.dialect.Quote(table) + " SET " + strings.Join(assignments, ", ") + " WHERE name LIKE ?")

	var affected int64
	err = s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, storageErr("patch", rel, nil, err)
	}
	return affected, nil
}
