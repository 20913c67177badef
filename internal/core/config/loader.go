package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultBaselinePath = "eslint-ratchet.json"
	DefaultScratchPath  = "eslint-ratchet-temp.json"
	DefaultHistoryPath  = "data/database/ratchet-history.db"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Baseline.Path) == "" {
		cfg.Baseline.Path = DefaultBaselinePath
	}
	if strings.TrimSpace(cfg.Baseline.ScratchPath) == "" {
		cfg.Baseline.ScratchPath = DefaultScratchPath
	}
	if cfg.Baseline.Indent == 0 {
		cfg.Baseline.Indent = 4
	}

	if strings.TrimSpace(cfg.Input.Format) == "" {
		cfg.Input.Format = "auto"
	}

	if strings.TrimSpace(cfg.Output.Color) == "" {
		cfg.Output.Color = "auto"
	}
	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "text"
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if strings.TrimSpace(cfg.History.ProjectKey) == "" {
		cfg.History.ProjectKey = "default"
	}
	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "ratchet"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRunsPerSecond == 0 {
		cfg.Watch.MaxRunsPerSecond = 2
	}
}

func normalize(cfg *Config) {
	cfg.Paths.ProjectRoot = strings.TrimSpace(cfg.Paths.ProjectRoot)
	cfg.Baseline.Path = strings.TrimSpace(cfg.Baseline.Path)
	cfg.Baseline.ScratchPath = strings.TrimSpace(cfg.Baseline.ScratchPath)
	cfg.Input.Format = strings.ToLower(strings.TrimSpace(cfg.Input.Format))
	cfg.Input.Path = strings.TrimSpace(cfg.Input.Path)
	cfg.Output.Color = strings.ToLower(strings.TrimSpace(cfg.Output.Color))
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.History.Path = strings.TrimSpace(cfg.History.Path)
	cfg.History.ProjectKey = strings.TrimSpace(cfg.History.ProjectKey)
	cfg.Observability.MetricsTextfile = strings.TrimSpace(cfg.Observability.MetricsTextfile)
	cfg.Observability.MetricsAddr = strings.TrimSpace(cfg.Observability.MetricsAddr)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)

	if len(cfg.Exclude.Files) == 0 {
		return
	}
	patterns := make([]string, 0, len(cfg.Exclude.Files))
	for _, p := range cfg.Exclude.Files {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		patterns = append(patterns, p)
	}
	cfg.Exclude.Files = patterns
}
