package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/forgeevents/eventcatalog/internal/catalog"
	"github.com/forgeevents/eventcatalog/internal/cli/ui"
	"github.com/forgeevents/eventcatalog/internal/release"
)

type showOptions struct {
	staging bool
	json    bool
}

// NewShowCommand creates the show command
func NewShowCommand(g *globalOptions) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show RELEASE [EVENT]",
		Short: "Show the events of a release",
		Long: `Show lists the event records of a release, or every attribute of one event
when its name is given. The production view is read unless --staging is set.`,
		Example: `  # All events of 1.12.2
  eventcatalog show 1.12.2

  # One event from the staging set, as JSON
  eventcatalog show 1.12.2 BlockEvent.BreakEvent --staging --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withStore(cmd.Context(), func(e *env) error {
				return runShow(cmd, e, g, opts, args)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.staging, "staging", false, "read the staging set instead of the production view")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON")

	return cmd
}

func runShow(cmd *cobra.Command, e *env, g *globalOptions, opts *showOptions, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	rel := args[0]

	if err := release.Validate(rel); err != nil {
		return err
	}

	known, err := e.store.KnownReleases(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(known, rel) {
		sorted, err := release.SortAscending(known)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.ErrOrStderr(), ui.ReleaseNotFoundError(rel, latest(sorted, 3), g.noColor))
		return reported("release %s not found", rel)
	}

	view := catalog.Production
	if opts.staging {
		view = catalog.Staging
	}

	records, err := e.store.Records(ctx, rel, view)
	if errors.Is(err, catalog.ErrNoProduction) {
		fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(
			fmt.Sprintf("Release %s has no production view yet; use --staging to read the staged records", rel), g.noColor))
		return reported("release %s has no production view", rel)
	}
	if err != nil {
		return err
	}

	if len(args) == 1 {
		if opts.json {
			if records == nil {
				records = []catalog.EventRecord{}
			}
			return writeJSON(cmd, records)
		}
		if len(records) == 0 {
			fmt.Fprintf(out, "No events in %s\n", rel)
			return nil
		}
		ui.RenderRecords(out, records, g.noColor)
		return nil
	}

	name := args[1]
	names := make([]string, 0, len(records))
	for i := range records {
		if records[i].Name == name {
			if opts.json {
				return writeJSON(cmd, &records[i])
			}
			ui.RenderRecord(out, &records[i], g.noColor)
			return nil
		}
		names = append(names, records[i].Name)
	}

	suggestions := ui.SuggestEventNames(name, names, nil)
	fmt.Fprint(cmd.ErrOrStderr(), ui.EventNotFoundError(name, rel, suggestions, g.noColor))
	return reported("event %s not found in %s", name, rel)
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// latest returns the last n entries of an ascending list, newest first.
func latest(sorted []string, n int) []string {
	var out []string
	for i := len(sorted) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, sorted[i])
	}
	return out
}
