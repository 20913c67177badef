package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domainerrors "ratchet/internal/core/errors"
	"ratchet/internal/engine/ratchet"
)

func TestParseSince(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantZero  bool
		wantError bool
	}{
		{name: "empty", input: "", wantZero: true},
		{name: "date", input: "2026-02-13"},
		{name: "rfc3339", input: "2026-02-13T15:00:00Z"},
		{name: "invalid", input: "13/02/2026", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSince(tt.input)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.IsZero() != tt.wantZero {
				t.Fatalf("zero=%v, want %v", got.IsZero(), tt.wantZero)
			}
		})
	}
}

func TestParseHistoryWindow(t *testing.T) {
	tests := []struct {
		input     string
		want      time.Duration
		wantError bool
	}{
		{input: "", want: 24 * time.Hour},
		{input: "2h", want: 2 * time.Hour},
		{input: "0s", wantError: true},
		{input: "-1h", wantError: true},
		{input: "soon", wantError: true},
	}
	for _, tt := range tests {
		got, err := parseHistoryWindow(tt.input)
		if tt.wantError {
			if err == nil {
				t.Fatalf("%q: expected error", tt.input)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%q: got %v, %v; want %v", tt.input, got, err, tt.want)
		}
	}
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	cwd := t.TempDir()
	cfg, path, err := loadConfig("", cwd)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if path != "" {
		t.Fatalf("expected no config path, got %q", path)
	}
	if cfg.Baseline.Path != "eslint-ratchet.json" || cfg.Baseline.ScratchPath != "eslint-ratchet-temp.json" {
		t.Fatalf("unexpected defaults: %+v", cfg.Baseline)
	}
}

func TestLoadConfig_DiscoveryOrder(t *testing.T) {
	cwd := t.TempDir()
	if err := os.WriteFile(filepath.Join(cwd, "ratchet.toml"), []byte("[baseline]\npath = \"root.json\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, path, err := loadConfig("", cwd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Baseline.Path != "root.json" || path != filepath.Join(cwd, "ratchet.toml") {
		t.Fatalf("expected ./ratchet.toml, got %q from %q", cfg.Baseline.Path, path)
	}

	nested := filepath.Join(cwd, "data", "config")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "ratchet.toml"), []byte("[baseline]\npath = \"nested.json\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, err = loadConfig("", cwd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Baseline.Path != "nested.json" {
		t.Fatalf("expected data/config/ratchet.toml to win, got %q", cfg.Baseline.Path)
	}
}

func TestLoadConfig_ExplicitPathMustExist(t *testing.T) {
	_, _, err := loadConfig("missing.toml", t.TempDir())
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadConfig_InvalidDiscoveredFile(t *testing.T) {
	cwd := t.TempDir()
	if err := os.WriteFile(filepath.Join(cwd, "ratchet.toml"), []byte("[output]\ncolor = \"purple\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := loadConfig("", cwd); err == nil || !strings.Contains(err.Error(), "ratchet.toml") {
		t.Fatalf("expected validation error naming the file, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	regression := domainerrors.Wrap(&ratchet.RegressionError{Regressions: 1}, domainerrors.CodeRegressionDetected, "regressed")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "usage", err: usageError{err: errors.New("bad flag")}, want: 2},
		{name: "validation", err: domainerrors.New(domainerrors.CodeValidationError, "bad"), want: 2},
		{name: "regression", err: regression, want: 1},
		{name: "malformed", err: domainerrors.New(domainerrors.CodeMalformedState, "bad json"), want: 1},
		{name: "plain", err: errors.New("boom"), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode=%d, want %d", got, tt.want)
			}
		})
	}
}
