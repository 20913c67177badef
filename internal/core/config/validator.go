package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

// Validate reports every problem found in cfg, joined into one error.
func Validate(cfg *Config) error {
	var errs []error
	for _, check := range []func(*Config) error{
		validateVersion,
		validateBaseline,
		validateInput,
		validateExclude,
		validateOutput,
		validateHistory,
		validateWatch,
	} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateBaseline(cfg *Config) error {
	if cfg.Baseline.Path == "" {
		return fmt.Errorf("baseline.path must not be empty")
	}
	if cfg.Baseline.ScratchPath == "" {
		return fmt.Errorf("baseline.scratch_path must not be empty")
	}
	if filepath.Clean(cfg.Baseline.Path) == filepath.Clean(cfg.Baseline.ScratchPath) {
		return fmt.Errorf("baseline.path and baseline.scratch_path share the same path %q", cfg.Baseline.Path)
	}
	if cfg.Baseline.Indent < 0 || cfg.Baseline.Indent > 8 {
		return fmt.Errorf("baseline.indent must be between 0 and 8, got %d", cfg.Baseline.Indent)
	}
	return nil
}

func validateInput(cfg *Config) error {
	switch cfg.Input.Format {
	case "auto", "eslint", "sarif":
		return nil
	default:
		return fmt.Errorf("input.format must be one of: auto, eslint, sarif")
	}
}

func validateExclude(cfg *Config) error {
	for i, p := range cfg.Exclude.Files {
		if _, err := glob.Compile(p, '/'); err != nil {
			return fmt.Errorf("exclude.files[%d] %q is not a valid glob: %w", i, p, err)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch cfg.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color must be one of: auto, always, never")
	}
	switch cfg.Output.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("output.format must be one of: text, json, yaml")
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if !cfg.History.Enabled {
		return nil
	}
	if cfg.History.Path == "" {
		return fmt.Errorf("history.path must not be empty when history.enabled=true")
	}
	if cfg.History.ProjectKey == "" {
		return fmt.Errorf("history.project_key must not be empty when history.enabled=true")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0, got %s", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxRunsPerSecond < 0 {
		return fmt.Errorf("watch.max_runs_per_second must be >= 0, got %g", cfg.Watch.MaxRunsPerSecond)
	}
	return nil
}
