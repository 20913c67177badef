package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	coreapp "ratchet/internal/core/app"
	"ratchet/internal/core/config"
	domainerrors "ratchet/internal/core/errors"
	"ratchet/internal/core/ports"
	"ratchet/internal/data/baseline"
	"ratchet/internal/data/history"
	"ratchet/internal/shared/observability"
	"ratchet/internal/shared/util"
	"ratchet/internal/ui/report"

	"github.com/spf13/cobra"
)

// runtime is everything a command needs after configuration has been resolved.
type runtime struct {
	cfg     *config.Config
	cfgPath string
	paths   config.ResolvedPaths
	cwd     string

	store   *baseline.Store
	history *history.Store
	service *coreapp.Service
	theme   report.Theme

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	shutdownTracing observability.ShutdownFunc
}

func newRuntime(ctx context.Context, cmd *cobra.Command, opts *cliOptions, cwd string, s streams) (*runtime, error) {
	configureLogging(s.err, opts.verbose)

	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		return nil, usageError{err: fmt.Errorf("load config: %w", err)}
	}
	config.ApplyEnvOverrides(cfg)
	applyFlagOverrides(cmd, opts, cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, usageError{err: fmt.Errorf("invalid config: %w", err)}
	}

	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, fmt.Errorf("resolve runtime paths: %w", err)
	}
	slog.Debug("configuration resolved",
		"config", cfgPath,
		"project_root", paths.ProjectRoot,
		"baseline", paths.BaselinePath,
		"scratch", paths.ScratchPath,
	)

	store, err := baseline.Open(baseline.Options{
		BaselinePath: paths.BaselinePath,
		ScratchPath:  paths.ScratchPath,
		Indent:       cfg.Baseline.Indent,
	})
	if err != nil {
		return nil, err
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		OTLPEndpoint: cfg.Observability.OTLPEndpoint,
		ServiceName:  cfg.Observability.ServiceName,
		Version:      versionString,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	rt := &runtime{
		cfg:             cfg,
		cfgPath:         cfgPath,
		paths:           paths,
		cwd:             cwd,
		store:           store,
		theme:           report.NewTheme(s.out, cfg.Output.Color),
		in:              s.in,
		out:             s.out,
		errOut:          s.err,
		shutdownTracing: shutdown,
	}

	var historyStore ports.HistoryStore
	if cfg.History.Enabled {
		hs, err := history.Open(paths.HistoryPath, cfg.History.BusyTimeout)
		if err != nil {
			_ = shutdown(ctx)
			if history.IsCorruptError(err) {
				return nil, domainerrors.AddContext(
					domainerrors.Wrap(err, domainerrors.CodeMalformedState, "history database is damaged"),
					domainerrors.CtxPath, paths.HistoryPath,
				)
			}
			return nil, fmt.Errorf("history setup failed: %w", err)
		}
		slog.Debug("history store opened", "path", hs.Path(), "project_key", cfg.History.ProjectKey)
		rt.history = hs
		historyStore = history.NewAdapter(hs)
	}

	svc, err := coreapp.NewService(coreapp.Dependencies{
		ProjectRoot: paths.ProjectRoot,
		WorkDir:     cwd,
		ProjectKey:  cfg.History.ProjectKey,
		Exclude:     cfg.Exclude.Files,
		Baseline:    store,
		History:     historyStore,
	})
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	rt.service = svc
	return rt, nil
}

// Close flushes spans, closes the history database and refreshes the metrics textfile.
func (rt *runtime) Close(ctx context.Context) {
	rt.writeMetrics()
	if rt.history != nil {
		if err := rt.history.Close(); err != nil {
			slog.Warn("failed to close history store", "error", err)
		}
	}
	if rt.shutdownTracing != nil {
		if err := rt.shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}
}

func (rt *runtime) writeMetrics() {
	if rt.paths.MetricsTextfile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(rt.paths.MetricsTextfile), 0o755); err != nil {
		slog.Warn("failed to create metrics directory", "path", rt.paths.MetricsTextfile, "error", err)
		return
	}
	if err := observability.WriteToTextfile(rt.paths.MetricsTextfile); err != nil {
		slog.Warn("failed to write metrics textfile", "path", rt.paths.MetricsTextfile, "error", err)
	}
}

// reportPath picks the analyzer report: positional argument, then input.path, then stdin.
// An empty result means stdin.
func (rt *runtime) reportPath(args []string) string {
	if len(args) > 0 {
		if util.IsStdin(args[0]) {
			return ""
		}
		return config.ResolveRelative(rt.cwd, args[0])
	}
	return rt.paths.InputPath
}

func (rt *runtime) openReport(path string) (io.ReadCloser, error) {
	if util.IsStdin(path) {
		return io.NopCloser(rt.in), nil
	}
	rc, err := util.OpenInput(path)
	if err != nil {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeIO, "open analyzer report"),
			domainerrors.CtxPath, path,
		)
	}
	return rc, nil
}

func applyFlagOverrides(cmd *cobra.Command, opts *cliOptions, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("color") {
		cfg.Output.Color = strings.ToLower(strings.TrimSpace(opts.color))
	}
	if flags.Changed("format") {
		cfg.Output.Format = strings.ToLower(strings.TrimSpace(opts.format))
	}
	if flags.Changed("exit-zero") {
		cfg.Output.ExitZero = opts.exitZero
	}
	if flags.Changed("table") {
		table := opts.table
		cfg.Output.ResultsTable = &table
	}
}

func loadConfig(path, cwd string) (*config.Config, string, error) {
	if strings.TrimSpace(path) != "" {
		resolved := config.ResolveRelative(cwd, path)
		cfg, err := config.Load(resolved)
		if err != nil {
			return nil, "", err
		}
		return cfg, resolved, nil
	}

	candidates, err := discoverDefaultConfig(cwd)
	if err != nil {
		return nil, "", err
	}
	for _, candidate := range candidates {
		cfg, loadErr := config.Load(candidate)
		if loadErr == nil {
			return cfg, candidate, nil
		}
		if os.IsNotExist(loadErr) {
			continue
		}
		return nil, "", fmt.Errorf("%s: %w", candidate, loadErr)
	}

	// No config file is fine; the defaults describe the conventional layout.
	return config.Default(), "", nil
}

func discoverDefaultConfig(cwd string) ([]string, error) {
	if strings.TrimSpace(cwd) == "" {
		return nil, fmt.Errorf("cwd must not be empty")
	}
	return []string{
		filepath.Clean(filepath.Join(cwd, defaultConfigPath)),
		filepath.Clean(filepath.Join(cwd, "ratchet.toml")),
	}, nil
}

func parseSince(value string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, nil
	}

	rfc3339, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return rfc3339.UTC(), nil
	}

	dateOnly, err := time.Parse("2006-01-02", raw)
	if err == nil {
		return dateOnly.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("--since must be RFC3339 or YYYY-MM-DD, got %q", value)
}

func parseHistoryWindow(value string) (time.Duration, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("--window must be a Go duration (example: 24h), got %q", value)
	}
	if d <= 0 {
		return 0, fmt.Errorf("--window must be > 0, got %q", value)
	}
	return d, nil
}

// configureLogging sends logs to stderr so stdout carries only reports.
func configureLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
