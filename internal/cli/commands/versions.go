package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeevents/eventcatalog/internal/catalog"
	"github.com/forgeevents/eventcatalog/internal/cli/ui"
	"github.com/forgeevents/eventcatalog/internal/release"
)

// NewVersionsCommand creates the versions command
func NewVersionsCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List published releases",
		Long: `List every release registered in the catalog, oldest first, with the
release it inherits "since" values from and whether its production view
exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withStore(cmd.Context(), func(e *env) error {
				rows, err := releaseRows(cmd, e.store)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No releases published yet")
					return nil
				}
				ui.RenderReleases(cmd.OutOrStdout(), rows, g.noColor)
				return nil
			})
		},
	}
}

func releaseRows(cmd *cobra.Command, store *catalog.Store) ([]ui.ReleaseRow, error) {
	ctx := cmd.Context()

	infos, err := store.Releases(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]catalog.ReleaseInfo, len(infos))
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		byID[info.Release] = info
		ids = append(ids, info.Release)
	}
	sorted, err := release.SortAscending(ids)
	if err != nil {
		return nil, err
	}

	rows := make([]ui.ReleaseRow, 0, len(sorted))
	for i, id := range sorted {
		hasProduction, err := store.HasProduction(ctx, id)
		if err != nil {
			return nil, err
		}
		row := ui.ReleaseRow{Info: byID[id], HasProduction: hasProduction}
		if i > 0 {
			row.Previous = sorted[i-1]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
