package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	coreapp "ratchet/internal/core/app"
	"ratchet/internal/core/config"
	domainerrors "ratchet/internal/core/errors"
	"ratchet/internal/core/ports"
	"ratchet/internal/core/watcher"
	"ratchet/internal/engine/ratchet"
	"ratchet/internal/shared/util"
	"ratchet/internal/ui/report"

	"github.com/spf13/cobra"
)

func withRuntime(cmd *cobra.Command, opts *cliOptions, cwd string, s streams, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx, cmd, opts, cwd, s)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)
	return fn(ctx, rt)
}

func newCheckCommand(opts *cliOptions, cwd string, s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "check [report]",
		Short: "Run one ratchet pass over an analyzer report (file, input.path or stdin)",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckCommand(cmd, opts, cwd, s, args)
		},
	}
}

func runCheckCommand(cmd *cobra.Command, opts *cliOptions, cwd string, s streams, args []string) error {
	return withRuntime(cmd, opts, cwd, s, func(ctx context.Context, rt *runtime) error {
		return runCheck(ctx, rt, rt.reportPath(args))
	})
}

func runCheck(ctx context.Context, rt *runtime, path string) error {
	rc, err := rt.openReport(path)
	if err != nil {
		return err
	}
	outcome, err := rt.service.Check(ctx, ports.CheckRequest{Report: rc, Format: rt.cfg.Input.Format})
	_ = rc.Close()
	if outcome.Status == "" {
		return err
	}

	if renderErr := renderOutcome(rt, outcome); renderErr != nil {
		return renderErr
	}
	if err != nil && domainerrors.IsCode(err, domainerrors.CodeRegressionDetected) && rt.cfg.Output.ExitZero {
		fmt.Fprintln(rt.errOut, "ratchet: exit_zero is set, causing process to exit 0")
		return nil
	}
	return err
}

func renderOutcome(rt *runtime, outcome ports.CheckOutcome) error {
	switch rt.cfg.Output.Format {
	case report.FormatJSON, report.FormatYAML:
		data, err := report.Encode(report.NewRunReport(outcome), rt.cfg.Output.Format)
		if err != nil {
			return err
		}
		_, err = rt.out.Write(data)
		return err
	}

	if rt.cfg.Output.ShowResultsTable() && outcome.IssuesObserved() {
		fmt.Fprintln(rt.out, report.RenderResultsTable(outcome.Latest))
	}
	if err := report.WriteChangeLog(rt.out, rt.theme, outcome); err != nil {
		return err
	}
	return report.WriteSummary(rt.out, rt.theme, outcome)
}

func newPromoteCommand(opts *cliOptions, cwd string, s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "promote",
		Short: "Accept the scratch snapshot left by a failed pass as the new baseline",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, cwd, s, func(ctx context.Context, rt *runtime) error {
				res, err := rt.service.Promote(ctx)
				if err != nil {
					return err
				}
				prev, next := res.Previous.Totals(), res.Promoted.Totals()
				_, err = fmt.Fprintf(rt.out,
					"promoted %s to %s: %d files, %d errors, %d warnings (previously %d files, %d errors, %d warnings)\n",
					rt.store.ScratchPath(), rt.store.BaselinePath(),
					len(res.Promoted), next[ratchet.Error], next[ratchet.Warning],
					len(res.Previous), prev[ratchet.Error], prev[ratchet.Warning],
				)
				return err
			})
		},
	}
}

func newStatusCommand(opts *cliOptions, cwd string, s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show baseline and scratch totals and whether a promotion is pending",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, cwd, s, func(ctx context.Context, rt *runtime) error {
				status, err := rt.service.Status(ctx)
				if err != nil {
					return err
				}
				return report.WriteStatus(rt.out, rt.theme, status, rt.cfg.Output.Format)
			})
		},
	}
}

func newDiffCommand(opts *cliOptions, cwd string, s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show the pending scratch snapshot as a diff against the baseline",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, cwd, s, func(ctx context.Context, rt *runtime) error {
				scratch, err := rt.store.LoadScratch(ctx)
				if err != nil {
					return err
				}
				if len(scratch.Clone().Prune()) == 0 {
					_, err := fmt.Fprintln(rt.out, "no scratch snapshot pending")
					return err
				}
				current, err := rt.store.Load(ctx)
				if err != nil {
					return err
				}
				from, err := rt.store.Encode(current)
				if err != nil {
					return err
				}
				to, err := rt.store.Encode(scratch)
				if err != nil {
					return err
				}
				out := report.RenderSnapshotDiff(rt.theme, rt.store.BaselinePath(), from, rt.store.ScratchPath(), to)
				if out == "" {
					out = "baseline and scratch snapshot are identical\n"
				}
				_, err = fmt.Fprint(rt.out, out)
				return err
			})
		},
	}
}

type historyOptions struct {
	since  string
	window string
	tsv    string
	json   string
	yaml   string
}

func newHistoryCommand(opts *cliOptions, cwd string, s streams) *cobra.Command {
	var h historyOptions
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Summarize recorded runs as a trend report (requires history.enabled)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			since, err := parseSince(h.since)
			if err != nil {
				return usageError{err: err}
			}
			window, err := parseHistoryWindow(h.window)
			if err != nil {
				return usageError{err: err}
			}
			return withRuntime(cmd, opts, cwd, s, func(ctx context.Context, rt *runtime) error {
				return runHistory(ctx, rt, h, since, window)
			})
		},
	}
	cmd.Flags().StringVar(&h.since, "since", "", "Include runs at/after this timestamp (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&h.window, "window", "24h", "Moving-window duration for trend averages")
	cmd.Flags().StringVar(&h.tsv, "tsv", "", "Write trend report TSV to this path")
	cmd.Flags().StringVar(&h.json, "json", "", "Write trend report JSON to this path")
	cmd.Flags().StringVar(&h.yaml, "yaml", "", "Write trend report YAML to this path")
	return cmd
}

func runHistory(ctx context.Context, rt *runtime, h historyOptions, since time.Time, window time.Duration) error {
	trend, err := rt.service.History(ctx, ports.HistoryRequest{Since: since, Window: window})
	if err != nil {
		return err
	}
	if trend == nil {
		_, err := fmt.Fprintln(rt.out, "History: no runs matched the requested time window.")
		return err
	}

	fmt.Fprintf(rt.out,
		"History: %d runs from %s to %s\n",
		trend.RunCount,
		trend.Since.Format("2006-01-02 15:04:05"),
		trend.Until.Format("2006-01-02 15:04:05"),
	)
	if len(trend.Points) > 0 {
		latest := trend.Points[len(trend.Points)-1]
		fmt.Fprintf(rt.out,
			"Trend latest: warnings=%d (%+d), errors=%d (%+d), reduction=%.2f%%, pass rate=%.0f%%\n",
			latest.BaselineWarnings,
			latest.DeltaWarnings,
			latest.BaselineErrors,
			latest.DeltaErrors,
			latest.ReductionPct,
			latest.PassRate*100,
		)
	}

	outputs := []struct {
		path   string
		label  string
		render func() ([]byte, error)
	}{
		{h.tsv, "TSV", func() ([]byte, error) { return report.RenderTrendTSV(*trend) }},
		{h.json, "JSON", func() ([]byte, error) { return report.RenderTrendJSON(*trend) }},
		{h.yaml, "YAML", func() ([]byte, error) { return report.RenderTrendYAML(*trend) }},
	}
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		data, err := o.render()
		if err != nil {
			return fmt.Errorf("render trend %s: %w", o.label, err)
		}
		path := config.ResolveRelative(rt.cwd, o.path)
		if err := util.WriteFileWithDirs(path, data, 0o644); err != nil {
			return fmt.Errorf("write trend %s %q: %w", o.label, path, err)
		}
	}
	return nil
}

func newWatchCommand(opts *cliOptions, cwd string, s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [report]",
		Short: "Re-run the ratchet whenever the analyzer report file changes",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, cwd, s, func(ctx context.Context, rt *runtime) error {
				return runWatch(ctx, rt, rt.reportPath(args))
			})
		},
	}
}

func runWatch(ctx context.Context, rt *runtime, path string) error {
	if util.IsStdin(path) {
		return usageError{err: errors.New("watch requires a report file (argument or input.path)")}
	}

	if addr := rt.cfg.Observability.MetricsAddr; addr != "" {
		srv := NewObservabilityServer(addr, coreapp.NewHealthService(rt.service), rt.service)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("start observability server: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Stop(stopCtx)
		}()
	}

	pass := func() {
		err := runCheck(ctx, rt, path)
		switch {
		case err == nil, domainerrors.IsCode(err, domainerrors.CodeRegressionDetected):
		default:
			slog.Error("ratchet pass failed", "report", path, "error", err)
		}
		rt.writeMetrics()
	}

	if _, err := os.Stat(path); err == nil {
		pass()
	}

	w, err := watcher.NewWatcher(rt.cfg.Watch.Debounce, rt.cfg.Watch.MaxRunsPerSecond, func([]string) { pass() })
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Watch([]string{path}); err != nil {
		return fmt.Errorf("watch %q: %w", path, err)
	}

	slog.Info("watching analyzer report", "path", path, "debounce", rt.cfg.Watch.Debounce)
	<-ctx.Done()
	return nil
}

func newVersionCommand(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(s.out, "ratchet v%s\n", versionString)
			return err
		},
	}
}
