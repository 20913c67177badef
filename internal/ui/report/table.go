package report

import (
	"sort"

	"ratchet/internal/engine/ratchet"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderResultsTable lays out the raw aggregated counts of a pass, one row per
// file and rule. It returns an empty string when nothing was observed.
func RenderResultsTable(latest ratchet.Snapshot) string {
	if len(latest) == 0 {
		return ""
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"File", "Rule", "Warnings", "Errors"})
	for _, file := range latest.Files() {
		rules := latest[file]
		names := make([]string, 0, len(rules))
		for rule := range rules {
			names = append(names, rule)
		}
		sort.Strings(names)
		for _, rule := range names {
			leaf := rules[rule]
			tbl.AppendRow(table.Row{file, rule, leaf[ratchet.Warning], leaf[ratchet.Error]})
		}
	}

	totals := latest.Totals()
	tbl.AppendFooter(table.Row{
		"Total",
		humanize.Comma(int64(len(latest))) + " " + plural(len(latest), "file", "files"),
		humanize.Comma(int64(totals[ratchet.Warning])),
		humanize.Comma(int64(totals[ratchet.Error])),
	})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	return tbl.Render()
}
