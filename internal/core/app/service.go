package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	domainerrors "ratchet/internal/core/errors"
	"ratchet/internal/core/ports"
	"ratchet/internal/data/baseline"
	"ratchet/internal/data/history"
	"ratchet/internal/engine/findings"
	"ratchet/internal/engine/ratchet"
	"ratchet/internal/shared/observability"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Dependencies wires a Service. Baseline is required; everything else has a default.
type Dependencies struct {
	ProjectRoot string
	// WorkDir is where the analyzer ran; relative report paths resolve against it.
	// Defaults to ProjectRoot.
	WorkDir     string
	ProjectKey  string
	Exclude     []string
	Baseline    ports.BaselineStore
	History     ports.HistoryStore
	Exists      ratchet.Existence
	Commit      func(ctx context.Context, root string) history.CommitInfo
	Tracer      trace.Tracer
	Now         func() time.Time
}

// Service runs ratchet passes against one baseline. Passes are serialized: the
// baseline read-diff-reconcile-write sequence never interleaves with another pass.
type Service struct {
	root       string
	workDir    string
	projectKey string
	filter     *findings.Filter
	baseline   ports.BaselineStore
	history    ports.HistoryStore
	exists     ratchet.Existence
	commit     func(ctx context.Context, root string) history.CommitInfo
	tracer     trace.Tracer
	now        func() time.Time

	mu sync.Mutex

	lastMu  sync.RWMutex
	last    ports.CheckOutcome
	lastAt  time.Time
	hasLast bool
}

var _ ports.RatchetService = (*Service)(nil)

func NewService(deps Dependencies) (*Service, error) {
	if deps.Baseline == nil {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "baseline store is required")
	}
	root := strings.TrimSpace(deps.ProjectRoot)
	if root == "" {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "project root is required")
	}
	filter, err := findings.NewFilter(root, deps.Exclude)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "compile exclude patterns")
	}

	s := &Service{
		root:       root,
		workDir:    strings.TrimSpace(deps.WorkDir),
		projectKey: strings.TrimSpace(deps.ProjectKey),
		filter:     filter,
		baseline:   deps.Baseline,
		history:    deps.History,
		exists:     deps.Exists,
		commit:     deps.Commit,
		tracer:     deps.Tracer,
		now:        deps.Now,
	}
	if s.projectKey == "" {
		s.projectKey = "default"
	}
	if s.workDir == "" {
		s.workDir = root
	}
	if s.exists == nil {
		s.exists = baseline.DiskExistence{Root: root}
	}
	if s.commit == nil {
		s.commit = history.ResolveCommit
	}
	if s.tracer == nil {
		s.tracer = observability.Tracer()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Check runs one ratchet pass over the analyzer report in req.
func (s *Service) Check(ctx context.Context, req ports.CheckRequest) (ports.CheckOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := s.now()
	runID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "ratchetService.Check", trace.WithAttributes(
		attribute.String("ratchet.run_id", runID),
		attribute.String("ratchet.format", req.Format),
	))
	defer span.End()

	outcome := ports.CheckOutcome{
		RunID:        runID,
		BaselinePath: s.baseline.BaselinePath(),
		ScratchPath:  s.baseline.ScratchPath(),
	}
	if err := ctx.Err(); err != nil {
		return outcome, err
	}
	if req.Report == nil {
		return outcome, domainerrors.New(domainerrors.CodeValidationError, "analyzer report is required")
	}

	var results []ratchet.FileResult
	err := s.stage(ctx, "parse", func(context.Context) error {
		parsed, err := findings.Parse(req.Format, req.Report)
		if err != nil {
			return err
		}
		workDir := s.workDir
		if dir := strings.TrimSpace(req.WorkDir); dir != "" {
			workDir = dir
		}
		results, outcome.Excluded = s.filter.Apply(ratchet.AnchorPaths(workDir, parsed))
		return nil
	})
	if err != nil {
		return outcome, s.abort(span, err, "parse", runID)
	}
	outcome.Results = results

	var previous ratchet.Snapshot
	err = s.stage(ctx, "load_baseline", func(ctx context.Context) error {
		var loadErr error
		previous, loadErr = s.baseline.Load(ctx)
		return loadErr
	})
	if err != nil {
		return outcome, s.abort(span, err, "load_baseline", runID)
	}

	var (
		latest   ratchet.Snapshot
		analyzed ratchet.FileSet
		eval     ratchet.Evaluation
	)
	err = s.stage(ctx, "reconcile", func(context.Context) error {
		latest, analyzed = ratchet.Aggregate(s.root, results)
		eval = ratchet.Evaluate(previous, latest, analyzed, s.exists)
		return nil
	})
	if err != nil {
		return outcome, s.abort(span, err, "reconcile", runID)
	}
	outcome.Latest = latest
	outcome.FilesAnalyzed = len(analyzed)
	outcome.Evaluation = eval

	err = s.stage(ctx, "save_scratch", func(ctx context.Context) error {
		return s.baseline.SaveScratch(ctx, eval.Scratch)
	})
	if err != nil {
		return outcome, s.abort(span, err, "save_scratch", runID)
	}

	effective := previous
	switch {
	case eval.NoOp():
		outcome.Status = ports.StatusNoOp
		if err := s.baseline.ClearScratch(ctx); err != nil {
			return outcome, s.abort(span, err, "clear_scratch", runID)
		}
	case eval.Verdict == ratchet.Fail:
		outcome.Status = ports.StatusFail
	default:
		outcome.Status = ports.StatusPass
		err = s.stage(ctx, "save_baseline", func(ctx context.Context) error {
			if err := s.baseline.Save(ctx, eval.Baseline); err != nil {
				return err
			}
			return s.baseline.ClearScratch(ctx)
		})
		if err != nil {
			return outcome, s.abort(span, err, "save_baseline", runID)
		}
		effective = eval.Baseline
	}

	outcome.Duration = s.now().Sub(started)
	span.SetAttributes(
		attribute.String("ratchet.status", string(outcome.Status)),
		attribute.Int("ratchet.regressions", eval.Regressions),
		attribute.Int("ratchet.improvements", eval.Improvements),
		attribute.Int("ratchet.files_analyzed", outcome.FilesAnalyzed),
	)
	s.record(ctx, outcome, effective, started)

	slog.Debug("ratchet pass finished",
		"run_id", runID,
		"status", outcome.Status,
		"regressions", eval.Regressions,
		"improvements", eval.Improvements,
		"skipped", len(eval.Skipped),
		"duration", outcome.Duration,
	)

	if outcome.Status == ports.StatusFail {
		regressionErr := &ratchet.RegressionError{Regressions: eval.Regressions, Log: eval.Log}
		span.SetStatus(codes.Error, "regressions detected")
		return outcome, domainerrors.AddContext(
			domainerrors.Wrap(regressionErr, domainerrors.CodeRegressionDetected, "analyzer results regressed against the baseline"),
			domainerrors.CtxRunID, runID,
		)
	}
	return outcome, nil
}

// Promote replaces the baseline with the scratch snapshot left behind by a failed pass.
func (s *Service) Promote(ctx context.Context) (ports.PromoteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "ratchetService.Promote")
	defer span.End()

	scratch, err := s.baseline.LoadScratch(ctx)
	if err != nil {
		return ports.PromoteResult{}, s.fail(span, err)
	}
	scratch = scratch.Clone().Prune()
	if len(scratch) == 0 {
		return ports.PromoteResult{}, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeNotFound, "scratch snapshot is empty; nothing to promote"),
			domainerrors.CtxPath, s.baseline.ScratchPath(),
		)
	}
	previous, err := s.baseline.Load(ctx)
	if err != nil {
		return ports.PromoteResult{}, s.fail(span, err)
	}
	if err := s.baseline.Save(ctx, scratch); err != nil {
		return ports.PromoteResult{}, s.fail(span, err)
	}
	if err := s.baseline.ClearScratch(ctx); err != nil {
		return ports.PromoteResult{}, s.fail(span, err)
	}
	setBaselineGauges(scratch)

	slog.Info("scratch snapshot promoted", "baseline", s.baseline.BaselinePath(), "files", len(scratch))
	return ports.PromoteResult{Previous: previous, Promoted: scratch}, nil
}

// Status reads both slots without running a pass.
func (s *Service) Status(ctx context.Context) (ports.StatusReport, error) {
	ctx, span := s.tracer.Start(ctx, "ratchetService.Status")
	defer span.End()

	current, err := s.baseline.Load(ctx)
	if err != nil {
		return ports.StatusReport{}, s.fail(span, err)
	}
	scratch, err := s.baseline.LoadScratch(ctx)
	if err != nil {
		return ports.StatusReport{}, s.fail(span, err)
	}
	scratch = scratch.Clone().Prune()
	return ports.StatusReport{
		BaselinePath:     s.baseline.BaselinePath(),
		ScratchPath:      s.baseline.ScratchPath(),
		BaselineFiles:    len(current),
		BaselineTotals:   current.Totals(),
		ScratchFiles:     len(scratch),
		ScratchTotals:    scratch.Totals(),
		PromotionPending: len(scratch) > 0,
	}, nil
}

// History builds a trend report from recorded runs. It returns nil when no run matched.
func (s *Service) History(ctx context.Context, req ports.HistoryRequest) (*history.TrendReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "run history is disabled (history.enabled=false)")
	}
	_, span := s.tracer.Start(ctx, "ratchetService.History")
	defer span.End()

	window := req.Window
	if window <= 0 {
		window = 24 * time.Hour
	}
	runs, err := s.history.LoadRuns(s.projectKey, req.Since)
	if err != nil {
		return nil, s.fail(span, domainerrors.Wrap(err, domainerrors.CodeIO, "load run history"))
	}
	if len(runs) == 0 {
		return nil, nil
	}
	report, err := history.BuildTrendReport(s.projectKey, runs, window)
	if err != nil {
		return nil, s.fail(span, domainerrors.Wrap(err, domainerrors.CodeInternal, "build trend report"))
	}
	return &report, nil
}

// LastOutcome returns the most recent completed pass, if any.
func (s *Service) LastOutcome() (ports.CheckOutcome, time.Time, bool) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.last, s.lastAt, s.hasLast
}

func (s *Service) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "ratchet."+name)
	defer span.End()
	timer := prometheus.NewTimer(observability.StageDuration.WithLabelValues(name))
	defer timer.ObserveDuration()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s *Service) abort(span trace.Span, err error, stage, runID string) error {
	observability.RunsTotal.WithLabelValues("error").Inc()
	err = domainerrors.AddContext(err, domainerrors.CtxOperation, stage)
	err = domainerrors.AddContext(err, domainerrors.CtxRunID, runID)
	return s.fail(span, err)
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (s *Service) record(ctx context.Context, outcome ports.CheckOutcome, effective ratchet.Snapshot, started time.Time) {
	eval := outcome.Evaluation
	observability.RunsTotal.WithLabelValues(string(outcome.Status)).Inc()
	observability.RegressionsTotal.Add(float64(eval.Regressions))
	observability.ImprovementsTotal.Add(float64(eval.Improvements))
	observability.FilesAnalyzed.Set(float64(outcome.FilesAnalyzed))
	observability.ExcludedFilesTotal.Add(float64(outcome.Excluded))
	setBaselineGauges(effective)

	s.lastMu.Lock()
	s.last, s.lastAt, s.hasLast = outcome, s.now(), true
	s.lastMu.Unlock()

	if s.history == nil {
		return
	}
	commit := s.commit(ctx, s.root)
	latestTotals := outcome.Latest.Totals()
	baselineTotals := effective.Totals()
	_, err := s.history.SaveRun(s.projectKey, history.Run{
		RunID:            outcome.RunID,
		Timestamp:        started.UTC(),
		CommitHash:       commit.Hash,
		CommitTimestamp:  commit.Timestamp,
		Verdict:          string(outcome.Status),
		FilesAnalyzed:    outcome.FilesAnalyzed,
		LatestWarnings:   latestTotals[ratchet.Warning],
		LatestErrors:     latestTotals[ratchet.Error],
		Regressions:      eval.Regressions,
		Improvements:     eval.Improvements,
		BaselineWarnings: baselineTotals[ratchet.Warning],
		BaselineErrors:   baselineTotals[ratchet.Error],
		DurationMillis:   outcome.Duration.Milliseconds(),
	})
	if err != nil {
		slog.Warn("failed to record run history", "run_id", outcome.RunID, "error", err)
	}
}

func setBaselineGauges(snap ratchet.Snapshot) {
	totals := snap.Totals()
	for _, c := range ratchet.Categories {
		observability.BaselineIssues.WithLabelValues(string(c)).Set(float64(totals[c]))
	}
	observability.BaselineFiles.Set(float64(len(snap)))
}
