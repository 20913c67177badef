package report

import (
	"encoding/json"
	"fmt"
	"io"

	"ratchet/internal/core/ports"
	"ratchet/internal/engine/ratchet"

	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// RunReport is the machine-readable form of a pass.
type RunReport struct {
	RunID          string             `json:"run_id" yaml:"run_id"`
	Status         ports.CheckStatus  `json:"status" yaml:"status"`
	FilesAnalyzed  int                `json:"files_analyzed" yaml:"files_analyzed"`
	FilesExcluded  int                `json:"files_excluded" yaml:"files_excluded"`
	Regressions    int                `json:"regressions" yaml:"regressions"`
	Improvements   int                `json:"improvements" yaml:"improvements"`
	LatestTotals   ratchet.CountLeaf  `json:"latest_totals" yaml:"latest_totals"`
	BaselineTotals ratchet.CountLeaf  `json:"baseline_totals,omitempty" yaml:"baseline_totals,omitempty"`
	Changes        []ratchet.LogEntry `json:"changes" yaml:"changes"`
	Skipped        []string           `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	BaselinePath   string             `json:"baseline_path" yaml:"baseline_path"`
	ScratchPath    string             `json:"scratch_path" yaml:"scratch_path"`
	DurationMillis int64              `json:"duration_ms" yaml:"duration_ms"`
}

func NewRunReport(outcome ports.CheckOutcome) RunReport {
	eval := outcome.Evaluation
	changes := eval.Log
	if changes == nil {
		changes = []ratchet.LogEntry{}
	}
	baseline := eval.Baseline
	if outcome.Status == ports.StatusFail {
		// Nothing was written; the proposed baseline is not reported.
		baseline = nil
	}
	report := RunReport{
		RunID:          outcome.RunID,
		Status:         outcome.Status,
		FilesAnalyzed:  outcome.FilesAnalyzed,
		FilesExcluded:  outcome.Excluded,
		Regressions:    eval.Regressions,
		Improvements:   eval.Improvements,
		LatestTotals:   outcome.Latest.Totals(),
		Changes:        changes,
		Skipped:        eval.Skipped,
		BaselinePath:   outcome.BaselinePath,
		ScratchPath:    outcome.ScratchPath,
		DurationMillis: outcome.Duration.Milliseconds(),
	}
	if baseline != nil {
		report.BaselineTotals = baseline.Totals()
	}
	return report
}

// Encode marshals v as indented JSON or YAML.
func Encode(v any, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		return yaml.Marshal(v)
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteStatus prints a status report as text, JSON or YAML.
func WriteStatus(w io.Writer, theme Theme, status ports.StatusReport, format string) error {
	if format != FormatText {
		data, err := Encode(status, format)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	fmt.Fprintf(w, "baseline  %s\n", theme.paint(theme.file, status.BaselinePath))
	fmt.Fprintf(w, "          %s\n", describeTotals(status.BaselineFiles, status.BaselineTotals))
	fmt.Fprintf(w, "scratch   %s\n", theme.paint(theme.path, status.ScratchPath))
	fmt.Fprintf(w, "          %s\n", describeTotals(status.ScratchFiles, status.ScratchTotals))
	if status.PromotionPending {
		_, err := fmt.Fprintf(w, "%s\n", theme.paint(theme.regressed, "promotion pending: run `ratchet promote` to accept the scratch snapshot"))
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n", theme.paint(theme.muted, "no promotion pending"))
	return err
}

func describeTotals(files int, totals ratchet.CountLeaf) string {
	return fmt.Sprintf("%d %s, %d %s, %d %s",
		files, plural(files, "file", "files"),
		totals[ratchet.Error], plural(totals[ratchet.Error], "error", "errors"),
		totals[ratchet.Warning], plural(totals[ratchet.Warning], "warning", "warnings"),
	)
}
