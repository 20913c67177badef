package history

import "time"

const SchemaVersion = 1

// Run is one recorded ratchet pass.
type Run struct {
	SchemaVersion    int       `json:"schema_version" yaml:"schema_version"`
	RunID            string    `json:"run_id" yaml:"run_id"`
	ProjectKey       string    `json:"project_key" yaml:"project_key"`
	Timestamp        time.Time `json:"timestamp" yaml:"timestamp"`
	CommitHash       string    `json:"commit_hash,omitempty" yaml:"commit_hash,omitempty"`
	CommitTimestamp  time.Time `json:"commit_timestamp,omitempty" yaml:"commit_timestamp,omitempty"`
	Verdict          string    `json:"verdict" yaml:"verdict"`
	FilesAnalyzed    int       `json:"files_analyzed" yaml:"files_analyzed"`
	LatestWarnings   int       `json:"latest_warnings" yaml:"latest_warnings"`
	LatestErrors     int       `json:"latest_errors" yaml:"latest_errors"`
	Regressions      int       `json:"regressions" yaml:"regressions"`
	Improvements     int       `json:"improvements" yaml:"improvements"`
	BaselineWarnings int       `json:"baseline_warnings" yaml:"baseline_warnings"`
	BaselineErrors   int       `json:"baseline_errors" yaml:"baseline_errors"`
	DurationMillis   int64     `json:"duration_ms" yaml:"duration_ms"`
}

type TrendPoint struct {
	Timestamp        time.Time `json:"timestamp" yaml:"timestamp"`
	RunID            string    `json:"run_id" yaml:"run_id"`
	CommitHash       string    `json:"commit_hash,omitempty" yaml:"commit_hash,omitempty"`
	Verdict          string    `json:"verdict" yaml:"verdict"`
	BaselineWarnings int       `json:"baseline_warnings" yaml:"baseline_warnings"`
	BaselineErrors   int       `json:"baseline_errors" yaml:"baseline_errors"`
	BaselineTotal    int       `json:"baseline_total" yaml:"baseline_total"`
	Regressions      int       `json:"regressions" yaml:"regressions"`
	Improvements     int       `json:"improvements" yaml:"improvements"`
	DeltaWarnings    int       `json:"delta_warnings" yaml:"delta_warnings"`
	DeltaErrors      int       `json:"delta_errors" yaml:"delta_errors"`
	DeltaTotal       int       `json:"delta_total" yaml:"delta_total"`
	ReductionPct     float64   `json:"reduction_pct" yaml:"reduction_pct"`
	AvgRegressions   float64   `json:"avg_regressions" yaml:"avg_regressions"`
	PassRate         float64   `json:"pass_rate" yaml:"pass_rate"`
	WindowHours      float64   `json:"window_hours" yaml:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version" yaml:"schema_version"`
	ProjectKey    string       `json:"project_key" yaml:"project_key"`
	Since         time.Time    `json:"since" yaml:"since"`
	Until         time.Time    `json:"until" yaml:"until"`
	Window        string       `json:"window" yaml:"window"`
	RunCount      int          `json:"run_count" yaml:"run_count"`
	Points        []TrendPoint `json:"points" yaml:"points"`
}
