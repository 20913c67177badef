package ports

import (
	"context"
	"io"
	"time"

	"ratchet/internal/data/history"
	"ratchet/internal/engine/ratchet"
)

// BaselineStore abstracts persistence of the authoritative baseline and its scratch slot.
type BaselineStore interface {
	Load(ctx context.Context) (ratchet.Snapshot, error)
	Save(ctx context.Context, snap ratchet.Snapshot) error
	LoadScratch(ctx context.Context) (ratchet.Snapshot, error)
	SaveScratch(ctx context.Context, snap ratchet.Snapshot) error
	ClearScratch(ctx context.Context) error
	BaselinePath() string
	ScratchPath() string
}

// HistoryStore abstracts run persistence for trend/report workflows.
type HistoryStore interface {
	SaveRun(projectKey string, run history.Run) (history.Run, error)
	LoadRuns(projectKey string, since time.Time) ([]history.Run, error)
}

// CheckRequest carries one analyzer report into a ratchet pass.
type CheckRequest struct {
	Report  io.Reader
	Format  string // auto, eslint, sarif
	// WorkDir anchors relative report paths. Empty uses the service default.
	WorkDir string
}

// CheckStatus is the terminal state of a pass.
type CheckStatus string

const (
	StatusNoOp CheckStatus = "noop"
	StatusPass CheckStatus = "pass"
	StatusFail CheckStatus = "fail"
)

// CheckOutcome summarizes a completed pass for driving adapters.
type CheckOutcome struct {
	RunID         string
	Status        CheckStatus
	Evaluation    ratchet.Evaluation
	Results       []ratchet.FileResult
	Latest        ratchet.Snapshot
	FilesAnalyzed int
	Excluded      int
	Duration      time.Duration
	BaselinePath  string
	ScratchPath   string
}

// IssuesObserved reports whether the analyzer found anything at all in this pass.
func (o CheckOutcome) IssuesObserved() bool {
	return len(o.Latest) > 0
}

// StatusReport describes the persisted state without running a pass.
type StatusReport struct {
	BaselinePath     string            `json:"baseline_path" yaml:"baseline_path"`
	ScratchPath      string            `json:"scratch_path" yaml:"scratch_path"`
	BaselineFiles    int               `json:"baseline_files" yaml:"baseline_files"`
	BaselineTotals   ratchet.CountLeaf `json:"baseline_totals" yaml:"baseline_totals"`
	ScratchFiles     int               `json:"scratch_files" yaml:"scratch_files"`
	ScratchTotals    ratchet.CountLeaf `json:"scratch_totals" yaml:"scratch_totals"`
	PromotionPending bool              `json:"promotion_pending" yaml:"promotion_pending"`
}

// PromoteResult reports what a manual promotion replaced.
type PromoteResult struct {
	Previous ratchet.Snapshot
	Promoted ratchet.Snapshot
}

// HistoryRequest selects recorded runs for a trend report.
type HistoryRequest struct {
	Since  time.Time
	Window time.Duration
}

// RatchetService is the driving port used by the CLI and the watcher.
type RatchetService interface {
	Check(ctx context.Context, req CheckRequest) (CheckOutcome, error)
	Promote(ctx context.Context) (PromoteResult, error)
	Status(ctx context.Context) (StatusReport, error)
	History(ctx context.Context, req HistoryRequest) (*history.TrendReport, error)
}
