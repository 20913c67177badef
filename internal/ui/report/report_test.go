package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"ratchet/internal/core/ports"
	"ratchet/internal/engine/ratchet"
)

func failedOutcome() ports.CheckOutcome {
	return ports.CheckOutcome{
		RunID:         "run-1",
		Status:        ports.StatusFail,
		FilesAnalyzed: 1234,
		Excluded:      2,
		Duration:      1500 * time.Millisecond,
		BaselinePath:  "eslint-ratchet.json",
		ScratchPath:   "eslint-ratchet-temp.json",
		Latest: ratchet.Snapshot{
			"src/a.js": {"semi": {ratchet.Warning: 3}},
			"src/b.js": {"no-console": {ratchet.Error: 1}},
		},
		Evaluation: ratchet.Evaluation{
			Reconciliation: ratchet.Reconciliation{
				Verdict:     ratchet.Fail,
				Regressions: 2,
				Log: []ratchet.LogEntry{
					{Classification: ratchet.Updated, File: "src/a.js", Rule: "semi", Category: ratchet.Warning, Verdict: ratchet.Regressed, Previous: 2, Current: 3},
					{Classification: ratchet.Updated, File: "src/a.js", Rule: "eqeqeq", Verdict: ratchet.Resolved},
					{Classification: ratchet.Added, File: "src/b.js", Rule: "no-console", Category: ratchet.Error, Verdict: ratchet.Introduced, Previous: 0, Current: 1},
				},
			},
		},
	}
}

func TestWriteChangeLog_Failure(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteChangeLog(&buf, NewTheme(&buf, ColorNever), failedOutcome()); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"ratchet: changes to analyzer results detected",
		"  src/a.js",
		"    semi",
		"      --> warning: 3 (previously: 2)",
		"    eqeqeq",
		"      --> all issues resolved",
		"  src/b.js",
		"    no-console",
		"      --> error: 1 (previously: 0)",
		"2 new ratchet issues detected",
		"These latest results have been saved to eslint-ratchet-temp.json.",
	}, "\n")
	if !strings.HasPrefix(buf.String(), want) {
		t.Fatalf("unexpected change log:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "replace the content of eslint-ratchet.json") {
		t.Fatalf("missing promotion hint:\n%s", buf.String())
	}
}

func TestWriteChangeLog_PassAndNoOp(t *testing.T) {
	outcome := ports.CheckOutcome{
		Status:       ports.StatusPass,
		BaselinePath: "eslint-ratchet.json",
		Evaluation: ratchet.Evaluation{Reconciliation: ratchet.Reconciliation{
			Improvements: 1,
			Log: []ratchet.LogEntry{
				{File: "a.js", Rule: "semi", Category: ratchet.Warning, Verdict: ratchet.Improved, Previous: 4, Current: 1},
			},
		}},
	}
	var buf bytes.Buffer
	if err := WriteChangeLog(&buf, NewTheme(&buf, ColorNever), outcome); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Changes found are all improvements! These new results have been saved to eslint-ratchet.json") {
		t.Fatalf("missing success message:\n%s", buf.String())
	}

	buf.Reset()
	if err := WriteChangeLog(&buf, NewTheme(&buf, ColorNever), ports.CheckOutcome{Status: ports.StatusNoOp}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for no-op pass, got %q", buf.String())
	}
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	if ColorEnabled(&buf, ColorAuto) {
		t.Fatal("auto must disable color for non-terminal writers")
	}
	if !ColorEnabled(&buf, ColorAlways) {
		t.Fatal("always must force color")
	}
	if ColorEnabled(&buf, ColorNever) {
		t.Fatal("never must disable color")
	}
	if NewTheme(&buf, ColorNever).paint(NewTheme(&buf, ColorNever).regressed, "x") != "x" {
		t.Fatal("plain theme must not decorate text")
	}
}

func TestSummary(t *testing.T) {
	got := Summary(failedOutcome())
	for _, want := range []string{"fail: 1,234 files analyzed", "1 error, 3 warnings observed", "2 excluded", "2 regressions, 0 improvements", "took 1.5s"} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary %q missing %q", got, want)
		}
	}
}

func TestRenderResultsTable(t *testing.T) {
	if RenderResultsTable(nil) != "" {
		t.Fatal("expected empty table for no results")
	}
	out := RenderResultsTable(failedOutcome().Latest)
	aIdx := strings.Index(out, "src/a.js")
	bIdx := strings.Index(out, "src/b.js")
	if aIdx < 0 || bIdx < 0 || aIdx > bIdx {
		t.Fatalf("expected sorted file rows:\n%s", out)
	}
	if !strings.Contains(out, "no-console") || !strings.Contains(out, "semi") {
		t.Fatalf("missing rule rows:\n%s", out)
	}
}

func TestRunReportJSON(t *testing.T) {
	data, err := Encode(NewRunReport(failedOutcome()), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, data)
	}
	if decoded["status"] != "fail" || decoded["regressions"].(float64) != 2 {
		t.Fatalf("unexpected report: %s", data)
	}
	if _, ok := decoded["baseline_totals"]; ok {
		t.Fatalf("failed pass must not report a baseline: %s", data)
	}
	changes := decoded["changes"].([]any)
	if len(changes) != 3 || changes[0].(map[string]any)["verdict"] != "regressed" {
		t.Fatalf("unexpected changes: %v", changes)
	}

	if _, err := Encode(NewRunReport(failedOutcome()), "xml"); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestRunReportYAML(t *testing.T) {
	data, err := Encode(NewRunReport(failedOutcome()), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "status: fail") || !strings.Contains(string(data), "verdict: introduced") {
		t.Fatalf("unexpected yaml:\n%s", data)
	}
}

func TestWriteStatus(t *testing.T) {
	status := ports.StatusReport{
		BaselinePath:     "eslint-ratchet.json",
		ScratchPath:      "eslint-ratchet-temp.json",
		BaselineFiles:    2,
		BaselineTotals:   ratchet.CountLeaf{ratchet.Warning: 5, ratchet.Error: 1},
		ScratchFiles:     1,
		ScratchTotals:    ratchet.CountLeaf{ratchet.Warning: 6},
		PromotionPending: true,
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, NewTheme(&buf, ColorNever), status, FormatText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "2 files, 1 error, 5 warnings") || !strings.Contains(buf.String(), "promotion pending") {
		t.Fatalf("unexpected status:\n%s", buf.String())
	}

	buf.Reset()
	if err := WriteStatus(&buf, NewTheme(&buf, ColorNever), status, FormatJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\"promotion_pending\": true") {
		t.Fatalf("unexpected json status:\n%s", buf.String())
	}
}

func TestRenderSnapshotDiff(t *testing.T) {
	theme := NewTheme(&bytes.Buffer{}, ColorNever)
	from := []byte("{\n    \"a.js\": 1,\n    \"b.js\": 2\n}\n")
	to := []byte("{\n    \"a.js\": 1,\n    \"b.js\": 3\n}\n")

	if got := RenderSnapshotDiff(theme, "baseline", from, "scratch", from); got != "" {
		t.Fatalf("expected empty diff, got %q", got)
	}

	out := RenderSnapshotDiff(theme, "baseline", from, "scratch", to)
	for _, want := range []string{"--- baseline\n+++ scratch\n", " {\n", "-    \"b.js\": 2\n", "+    \"b.js\": 3\n", " }\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("diff missing %q:\n%s", want, out)
		}
	}
}
