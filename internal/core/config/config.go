package config

import "time"

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Baseline      Baseline      `toml:"baseline"`
	Input         Input         `toml:"input"`
	Exclude       Exclude       `toml:"exclude"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
	Watch         Watch         `toml:"watch"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
}

// Baseline names the authoritative snapshot and its scratch slot, relative to the project root.
type Baseline struct {
	Path        string `toml:"path"`
	ScratchPath string `toml:"scratch_path"`
	Indent      int    `toml:"indent"`
}

type Input struct {
	Format string `toml:"format"` // auto, eslint, sarif
	Path   string `toml:"path"`   // "-" or empty reads stdin
}

type Exclude struct {
	Files []string `toml:"files"`
}

type Output struct {
	ExitZero     bool   `toml:"exit_zero"`
	ResultsTable *bool  `toml:"results_table"`
	Color        string `toml:"color"`  // auto, always, never
	Format       string `toml:"format"` // text, json, yaml
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	ProjectKey  string        `toml:"project_key"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Observability struct {
	MetricsTextfile string `toml:"metrics_textfile"`
	MetricsAddr     string `toml:"metrics_addr"`
	OTLPEndpoint    string `toml:"otlp_endpoint"`
	ServiceName     string `toml:"service_name"`
}

type Watch struct {
	Debounce         time.Duration `toml:"debounce"`
	MaxRunsPerSecond float64       `toml:"max_runs_per_second"`
}

func (o Output) ShowResultsTable() bool {
	if o.ResultsTable == nil {
		return true
	}
	return *o.ResultsTable
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	normalize(cfg)
	return cfg
}
