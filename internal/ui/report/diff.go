package report

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// RenderSnapshotDiff renders a line diff between two encoded snapshots. It returns
// an empty string when both documents are identical.
func RenderSnapshotDiff(theme Theme, fromLabel string, from []byte, toLabel string, to []byte) string {
	if string(from) == string(to) {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(from), string(to))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	fmt.Fprintf(&out, "%s\n", theme.paint(theme.regressed, "--- "+fromLabel))
	fmt.Fprintf(&out, "%s\n", theme.paint(theme.improved, "+++ "+toLabel))
	for _, d := range diffs {
		prefix, style := " ", theme.muted
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix, style = "-", theme.regressed
		case diffmatchpatch.DiffInsert:
			prefix, style = "+", theme.improved
		}
		for _, line := range splitDiffLines(d.Text) {
			if d.Type == diffmatchpatch.DiffEqual {
				fmt.Fprintf(&out, "%s%s\n", prefix, line)
				continue
			}
			fmt.Fprintf(&out, "%s\n", theme.paint(style, prefix+line))
		}
	}
	return out.String()
}

func splitDiffLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
