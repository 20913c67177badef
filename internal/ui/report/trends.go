package report

import (
	"fmt"
	"strings"

	"ratchet/internal/data/history"
)

func RenderTrendTSV(report history.TrendReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRunID\tCommit\tVerdict\tWarnings\tErrors\tTotal\tRegressions\tImprovements\tDeltaWarnings\tDeltaErrors\tDeltaTotal\tReductionPct\tAvgRegressions\tPassRate\tWindowHours\n")
	for _, point := range report.Points {
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
			point.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			point.RunID,
			point.CommitHash,
			point.Verdict,
			point.BaselineWarnings,
			point.BaselineErrors,
			point.BaselineTotal,
			point.Regressions,
			point.Improvements,
			point.DeltaWarnings,
			point.DeltaErrors,
			point.DeltaTotal,
			point.ReductionPct,
			point.AvgRegressions,
			point.PassRate,
			point.WindowHours,
		))
	}

	return []byte(buf.String()), nil
}

func RenderTrendJSON(report history.TrendReport) ([]byte, error) {
	return Encode(report, FormatJSON)
}

func RenderTrendYAML(report history.TrendReport) ([]byte, error) {
	return Encode(report, FormatYAML)
}
