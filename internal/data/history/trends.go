package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport turns an ordered run list into per-run baseline deltas plus moving
// averages over window.
func BuildTrendReport(projectKey string, runs []Run, window time.Duration) (TrendReport, error) {
	if len(runs) == 0 {
		return TrendReport{}, fmt.Errorf("no runs available")
	}

	points := make([]TrendPoint, 0, len(runs))
	for i, current := range runs {
		point := TrendPoint{
			Timestamp:        current.Timestamp,
			RunID:            current.RunID,
			CommitHash:       current.CommitHash,
			Verdict:          current.Verdict,
			BaselineWarnings: current.BaselineWarnings,
			BaselineErrors:   current.BaselineErrors,
			BaselineTotal:    current.BaselineWarnings + current.BaselineErrors,
			Regressions:      current.Regressions,
			Improvements:     current.Improvements,
		}

		if i > 0 {
			prev := runs[i-1]
			prevTotal := prev.BaselineWarnings + prev.BaselineErrors
			point.DeltaWarnings = current.BaselineWarnings - prev.BaselineWarnings
			point.DeltaErrors = current.BaselineErrors - prev.BaselineErrors
			point.DeltaTotal = point.BaselineTotal - prevTotal
			if prevTotal > 0 {
				point.ReductionPct = round2((float64(-point.DeltaTotal) / float64(prevTotal)) * 100)
			}
		}

		avgRegressions, passRate := movingAverages(runs, i, window)
		point.AvgRegressions = round2(avgRegressions)
		point.PassRate = round2(passRate)
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		ProjectKey:    normalizeProjectKey(projectKey),
		Since:         runs[0].Timestamp,
		Until:         runs[len(runs)-1].Timestamp,
		Window:        window.String(),
		RunCount:      len(points),
		Points:        points,
	}, nil
}

func movingAverages(runs []Run, index int, window time.Duration) (float64, float64) {
	if window <= 0 {
		return float64(runs[index].Regressions), passValue(runs[index])
	}

	cutoff := runs[index].Timestamp.Add(-window)
	var regressions int
	var passes float64
	count := 0
	for i := index; i >= 0; i-- {
		if runs[i].Timestamp.Before(cutoff) {
			break
		}
		regressions += runs[i].Regressions
		passes += passValue(runs[i])
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(regressions) / float64(count), passes / float64(count)
}

func passValue(run Run) float64 {
	if run.Verdict == "fail" {
		return 0
	}
	return 1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
