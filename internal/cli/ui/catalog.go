package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/forgeevents/eventcatalog/internal/catalog"
	"github.com/forgeevents/eventcatalog/internal/pipeline"
)

// ReleaseRow is one line of the releases listing.
type ReleaseRow struct {
	Info          catalog.ReleaseInfo
	Previous      string
	HasProduction bool
}

// RenderReleases prints known releases, oldest first.
func RenderReleases(w io.Writer, rows []ReleaseRow, noColor bool) {
	table := NewTable(w, []string{"Release", "Forge", "Previous", "Production"}, &TableOptions{NoColor: noColor})
	for _, row := range rows {
		previous := row.Previous
		if previous == "" {
			previous = "-"
		}
		production := "no"
		if row.HasProduction {
			production = "yes"
		}
		table.AddRow(row.Info.Release, row.Info.ForgeVersion, previous, production)
	}
	table.Render()
}

// RenderRecords prints a one-line summary per event.
func RenderRecords(w io.Writer, records []catalog.EventRecord, noColor bool) {
	table := NewTable(w, []string{"Event", "Bus", "Side", "Since", "Flags"}, &TableOptions{NoColor: noColor})
	for _, rec := range records {
		table.AddRow(rec.Name, orDash(rec.EventBus), rec.Side.String(), rec.Since, flags(rec))
	}
	table.Render()
}

// RenderRecord prints every attribute of one event.
func RenderRecord(w io.Writer, rec *catalog.EventRecord, noColor bool) {
	Header(w, rec.Name, noColor)

	kv := NewKeyValueTable(w, noColor)
	kv.AddRow("Class", rec.QualifiedName)
	kv.AddRow("Superclass", rec.SuperclassName)
	kv.AddRow("Bus", orDash(rec.EventBus))
	kv.AddRow("Side", rec.Side.String())
	kv.AddRow("Since", rec.Since)
	kv.AddRow("Flags", flags(*rec))
	kv.Render()

	if len(rec.Fields) > 0 {
		fmt.Fprintln(w)
		fields := NewTable(w, []string{"Field", "Type"}, &TableOptions{NoColor: noColor})
		for _, f := range rec.Fields {
			fields.AddRow(f.Name, f.Type)
		}
		fields.Render()
	}

	if rec.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.TrimSpace(rec.Description))
	}
}

// RenderReport prints the summary of a publish run.
func RenderReport(w io.Writer, report *pipeline.Report, noColor bool) {
	kv := NewKeyValueTable(w, noColor)
	kv.AddRow("Release", report.Release)
	kv.AddRow("Previous", orDash(report.Previous))
	kv.AddRow("Run", report.RunID)
	kv.AddRow("Declarations", fmt.Sprintf("%d", report.Inspected))
	kv.AddRow("Events", fmt.Sprintf("%d", report.Events))
	kv.AddRow("Staged", fmt.Sprintf("%d", report.Staged))
	if report.Skipped > 0 {
		kv.AddRow("Skipped", fmt.Sprintf("%d", report.Skipped))
	}
	if report.Failed > 0 {
		kv.AddRow("Failed", fmt.Sprintf("%d", report.Failed))
	}
	kv.AddRow("Duration", report.Duration.Round(time.Millisecond).String())
	kv.Render()
	fmt.Fprintln(w)

	switch {
	case report.PromotionErr != nil:
		fmt.Fprint(w, PromotionWarning(report.Release, report.PromotionErr, noColor))
	case report.Promoted:
		WriteSuccess(w, fmt.Sprintf("Promoted %s to production", report.Release), noColor)
	default:
		fmt.Fprint(w, Warning(fmt.Sprintf("Production view of %s already exists; use --force to republish", report.Release), noColor))
	}
}

func flags(rec catalog.EventRecord) string {
	var parts []string
	if rec.ResultFlags.HasResult() {
		parts = append(parts, "result")
	}
	if rec.ResultFlags.Cancelable() {
		parts = append(parts, "cancelable")
	}
	if rec.Deprecated {
		parts = append(parts, "deprecated")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
