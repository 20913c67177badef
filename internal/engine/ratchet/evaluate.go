package ratchet

import (
	"fmt"
	"strings"
)

// Evaluation is the in-memory outcome of one ratchet pass, before anything is persisted.
type Evaluation struct {
	// Scratch is previous overlaid with latest, pruned. It is written before the verdict is known.
	Scratch Snapshot
	Diff    ClassifiedDiff
	Reconciliation
}

// NoOp reports whether nothing relevant changed and no state needs to be written.
func (e Evaluation) NoOp() bool {
	return !e.Changed
}

// Evaluate runs diff and reconciliation of latest against previous.
func Evaluate(previous, latest Snapshot, analyzed FileSet, exists Existence) Evaluation {
	if previous == nil {
		previous = Snapshot{}
	}
	if latest == nil {
		latest = Snapshot{}
	}
	if analyzed == nil {
		analyzed = FileSet{}
	}

	diff := Diff(previous, latest)
	eval := Evaluation{
		Scratch: Union(previous, latest).Prune(),
		Diff:    diff,
	}
	if diff.Empty() {
		eval.Reconciliation = Reconciliation{Verdict: Pass, Baseline: previous.Clone()}
		return eval
	}

	eval.Reconciliation = Reconcile(ReconcileInput{
		Previous: previous,
		Analyzed: analyzed,
		Diff:     diff,
		Exists:   exists,
	})
	return eval
}

// RegressionError is returned when a pass counted at least one regression. It carries
// the complete change log of the pass.
type RegressionError struct {
	Regressions int
	Log         []LogEntry
}

func (e *RegressionError) Error() string {
	lines := make([]string, 0, len(e.Log))
	for _, entry := range e.Log {
		if entry.Verdict.IsRegression() {
			lines = append(lines, entry.String())
		}
	}
	return fmt.Sprintf("%d regression(s) detected: %s", e.Regressions, strings.Join(lines, "; "))
}
