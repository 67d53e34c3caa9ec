package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgeevents/eventcatalog/internal/catalog"
	"github.com/forgeevents/eventcatalog/internal/cli/ui"
	"github.com/forgeevents/eventcatalog/internal/release"
)

// NewPatchCommand creates the patch command
func NewPatchCommand(g *globalOptions) *cobra.Command {
	var staging bool

	cmd := &cobra.Command{
		Use:   "patch RELEASE FILE...",
		Short: "Apply curated CSV overrides to a release",
		Long: `Patch applies CSV files of manual overrides to the records of a release.

The first column of each file is a name pattern (SQL LIKE syntax); the
remaining header names choose the columns to override: description,
eventbus, since, side or deprecated. Empty cells are left alone.`,
		Example: `  # Fix descriptions in the production view of 1.12.2
  eventcatalog patch 1.12.2 descriptions.csv

  # Patch the staging set before promotion
  eventcatalog patch 1.12.2 sides.csv --staging`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel := args[0]
			if err := release.Validate(rel); err != nil {
				return err
			}

			// Parse every file before touching the store
			var patches []catalog.Patch
			for _, path := range args[1:] {
				parsed, err := readPatchFile(path)
				if err != nil {
					return err
				}
				patches = append(patches, parsed...)
			}

			view := catalog.Production
			if staging {
				view = catalog.Staging
			}

			return g.withStore(cmd.Context(), func(e *env) error {
				var total int64
				for _, patch := range patches {
					n, err := e.store.ApplyPatch(cmd.Context(), rel, view, patch)
					if err != nil {
						return err
					}
					if n == 0 {
						e.logger.Sugar().Warnf("patch %s matched no records in %s", patch.Name, rel)
					}
					total += n
				}
				ui.WriteSuccess(cmd.OutOrStdout(),
					fmt.Sprintf("Applied %d patches to %s (%d records changed)", len(patches), rel, total), g.noColor)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&staging, "staging", false, "patch the staging set instead of the production view")

	return cmd
}

func readPatchFile(path string) ([]catalog.Patch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open patch file: %w", err)
	}
	defer f.Close()

	patches, err := catalog.ParsePatches(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return patches, nil
}
