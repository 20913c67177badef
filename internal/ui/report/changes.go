package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"ratchet/internal/core/ports"
	"ratchet/internal/engine/ratchet"

	"github.com/dustin/go-humanize"
)

const ChangeLogHeader = "ratchet: changes to analyzer results detected"

type ruleGroup struct {
	rule    string
	entries []ratchet.LogEntry
}

type fileGroup struct {
	file  string
	rules []*ruleGroup
}

// groupLog keeps the engine's walk order while nesting entries by file then rule.
func groupLog(log []ratchet.LogEntry) []*fileGroup {
	var files []*fileGroup
	byFile := make(map[string]*fileGroup)
	byRule := make(map[string]*ruleGroup)

	for _, entry := range log {
		fg, ok := byFile[entry.File]
		if !ok {
			fg = &fileGroup{file: entry.File}
			byFile[entry.File] = fg
			files = append(files, fg)
		}
		key := entry.File + "\x00" + entry.Rule
		rg, ok := byRule[key]
		if !ok {
			rg = &ruleGroup{rule: entry.Rule}
			byRule[key] = rg
			fg.rules = append(fg.rules, rg)
		}
		rg.entries = append(rg.entries, entry)
	}
	return files
}

// WriteChangeLog prints the grouped change log and the closing verdict message.
// Nothing is printed for a no-op pass.
func WriteChangeLog(w io.Writer, theme Theme, outcome ports.CheckOutcome) error {
	if outcome.Status == ports.StatusNoOp {
		return nil
	}

	var b strings.Builder
	b.WriteString(theme.paint(theme.header, ChangeLogHeader))
	b.WriteString("\n")
	for _, fg := range groupLog(outcome.Evaluation.Log) {
		fmt.Fprintf(&b, "  %s\n", theme.paint(theme.file, fg.file))
		for _, rg := range fg.rules {
			fmt.Fprintf(&b, "    %s\n", rg.rule)
			for _, entry := range rg.entries {
				fmt.Fprintf(&b, "      --> %s\n", theme.entry(entry))
			}
		}
	}

	switch outcome.Status {
	case ports.StatusFail:
		fmt.Fprintf(&b, "%s\n", theme.paint(theme.regressed, fmt.Sprintf("%s new ratchet %s detected", humanize.Comma(int64(outcome.Evaluation.Regressions)), plural(outcome.Evaluation.Regressions, "issue", "issues"))))
		fmt.Fprintf(&b, "These latest results have been saved to %s.\n", theme.paint(theme.path, outcome.ScratchPath))
		fmt.Fprintf(&b, "If these results were expected, use them to replace the content of %s and check it in (or run `ratchet promote`).\n", theme.paint(theme.file, outcome.BaselinePath))
	case ports.StatusPass:
		fmt.Fprintf(&b, "%s\n", theme.paint(theme.improved, fmt.Sprintf("Changes found are all improvements! These new results have been saved to %s", outcome.BaselinePath)))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (t Theme) entry(e ratchet.LogEntry) string {
	if e.Verdict == ratchet.Resolved {
		return t.paint(t.improved, "all issues resolved")
	}
	style := t.improved
	if e.Verdict.IsRegression() {
		style = t.regressed
	}
	return fmt.Sprintf("%s: %s (previously: %s)",
		e.Category,
		t.paint(style, fmt.Sprintf("%d", e.Current)),
		t.paint(t.previous, fmt.Sprintf("%d", e.Previous)),
	)
}

// Summary is a one-line description of a pass suitable for logs and the footer of
// the human-readable output.
func Summary(outcome ports.CheckOutcome) string {
	totals := outcome.Latest.Totals()
	parts := []string{
		fmt.Sprintf("%s: %s %s analyzed", outcome.Status, humanize.Comma(int64(outcome.FilesAnalyzed)), plural(outcome.FilesAnalyzed, "file", "files")),
		fmt.Sprintf("%s %s, %s %s observed",
			humanize.Comma(int64(totals[ratchet.Error])), plural(totals[ratchet.Error], "error", "errors"),
			humanize.Comma(int64(totals[ratchet.Warning])), plural(totals[ratchet.Warning], "warning", "warnings")),
	}
	if outcome.Excluded > 0 {
		parts = append(parts, fmt.Sprintf("%s excluded", humanize.Comma(int64(outcome.Excluded))))
	}
	if outcome.Status != ports.StatusNoOp {
		parts = append(parts, fmt.Sprintf("%d regressions, %d improvements", outcome.Evaluation.Regressions, outcome.Evaluation.Improvements))
	}
	if n := len(outcome.Evaluation.Skipped); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unanalyzed %s left untouched", n, plural(n, "file", "files")))
	}
	parts = append(parts, fmt.Sprintf("took %s", outcome.Duration.Round(time.Millisecond)))
	return strings.Join(parts, "; ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func WriteSummary(w io.Writer, theme Theme, outcome ports.CheckOutcome) error {
	_, err := fmt.Fprintf(w, "%s\n", theme.paint(theme.muted, "ratchet "+Summary(outcome)))
	return err
}
