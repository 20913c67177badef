package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// LegacyExitZeroEnv is honoured for compatibility with the eslint formatter setup.
const LegacyExitZeroEnv = "RATCHET_DEFAULT_EXIT_ZERO"

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: RATCHET_[SECTION]_[KEY] (e.g., RATCHET_OUTPUT_EXIT_ZERO).
func ApplyEnvOverrides(cfg *Config) {
	// Paths
	setEnvString(&cfg.Paths.ProjectRoot, "RATCHET_PATHS_PROJECT_ROOT")

	// Baseline
	setEnvString(&cfg.Baseline.Path, "RATCHET_BASELINE_PATH")
	setEnvString(&cfg.Baseline.ScratchPath, "RATCHET_BASELINE_SCRATCH_PATH")
	setEnvInt(&cfg.Baseline.Indent, "RATCHET_BASELINE_INDENT")

	// Input
	setEnvString(&cfg.Input.Format, "RATCHET_INPUT_FORMAT")
	setEnvString(&cfg.Input.Path, "RATCHET_INPUT_PATH")

	// Output
	setEnvBool(&cfg.Output.ExitZero, LegacyExitZeroEnv)
	setEnvBool(&cfg.Output.ExitZero, "RATCHET_OUTPUT_EXIT_ZERO")
	setEnvBoolPtr(&cfg.Output.ResultsTable, "RATCHET_OUTPUT_RESULTS_TABLE")
	setEnvString(&cfg.Output.Color, "RATCHET_OUTPUT_COLOR")
	setEnvString(&cfg.Output.Format, "RATCHET_OUTPUT_FORMAT")

	// History
	setEnvBool(&cfg.History.Enabled, "RATCHET_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "RATCHET_HISTORY_PATH")
	setEnvString(&cfg.History.ProjectKey, "RATCHET_HISTORY_PROJECT_KEY")
	setEnvDuration(&cfg.History.BusyTimeout, "RATCHET_HISTORY_BUSY_TIMEOUT")

	// Observability
	setEnvString(&cfg.Observability.MetricsTextfile, "RATCHET_OBSERVABILITY_METRICS_TEXTFILE")
	setEnvString(&cfg.Observability.MetricsAddr, "RATCHET_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "RATCHET_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvString(&cfg.Observability.ServiceName, "RATCHET_OBSERVABILITY_SERVICE_NAME")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "RATCHET_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRunsPerSecond, "RATCHET_WATCH_MAX_RUNS_PER_SECOND")

	normalize(cfg)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
