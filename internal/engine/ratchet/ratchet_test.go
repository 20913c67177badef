package ratchet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func existsOnly(paths ...string) Existence {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return ExistenceFunc(func(path string) bool { return set[path] })
}

func analyzedSet(paths ...string) FileSet {
	fs := make(FileSet, len(paths))
	for _, p := range paths {
		fs.Add(p)
	}
	return fs
}

func entriesFor(log []LogEntry, file string) []LogEntry {
	out := make([]LogEntry, 0)
	for _, e := range log {
		if e.File == file {
			out = append(out, e)
		}
	}
	return out
}

func TestEvaluate_FirstRunFailsAgainstZeroBaseline(t *testing.T) {
	latest := Snapshot{"a.js": {"rule": {Warning: 0, Error: 2}}}

	eval := Evaluate(nil, latest, analyzedSet("a.js"), existsOnly("a.js"))

	assert.Equal(t, Fail, eval.Verdict)
	assert.Equal(t, 1, eval.Regressions)
	require.Len(t, eval.Log, 1)
	entry := eval.Log[0]
	assert.Equal(t, Introduced, entry.Verdict)
	assert.Equal(t, Error, entry.Category)
	assert.Equal(t, 2, entry.Current)
	assert.Equal(t, 0, entry.Previous)
	assert.Equal(t, Snapshot{"a.js": {"rule": {Error: 2}}}, eval.Scratch)
}

func TestEvaluate_AnalyzedCleanFileImproves(t *testing.T) {
	previous := Snapshot{"a.js": {"R": {Error: 2}}}

	eval := Evaluate(previous, Snapshot{}, analyzedSet("a.js"), existsOnly("a.js"))

	assert.Equal(t, Pass, eval.Verdict)
	assert.Empty(t, eval.Baseline)
	require.Len(t, eval.Log, 1)
	assert.Equal(t, Improved, eval.Log[0].Verdict)
	assert.Equal(t, "a.js R: error: 0 (previously: 2)", eval.Log[0].String())
	assert.Equal(t, 1, eval.Improvements)
}

func TestEvaluate_PartialRunLeavesUnanalyzedFilesAlone(t *testing.T) {
	previous := Snapshot{
		"a.js": {"R": {Error: 2}},
		"b.js": {"R": {Warning: 1}},
	}
	latest := Snapshot{"b.js": {"R": {Warning: 1, Error: 0}}}

	eval := Evaluate(previous, latest, analyzedSet("b.js"), existsOnly("a.js", "b.js"))

	assert.Equal(t, Pass, eval.Verdict)
	assert.True(t, eval.NoOp())
	assert.Equal(t, previous, eval.Baseline)
	assert.Empty(t, entriesFor(eval.Log, "a.js"))
	assert.Equal(t, []string{"a.js"}, eval.Skipped)
}

func TestEvaluate_MissingFileIsZeroed(t *testing.T) {
	previous := Snapshot{
		"a.js": {"R": {Error: 2}},
		"b.js": {"R": {Warning: 1}},
	}
	latest := Snapshot{"b.js": {"R": {Warning: 1, Error: 0}}}

	eval := Evaluate(previous, latest, analyzedSet("b.js"), existsOnly("b.js"))

	assert.Equal(t, Pass, eval.Verdict)
	assert.False(t, eval.NoOp())
	assert.Equal(t, Snapshot{"b.js": {"R": {Warning: 1}}}, eval.Baseline)
	entries := entriesFor(eval.Log, "a.js")
	require.Len(t, entries, 1)
	assert.Equal(t, Improved, entries[0].Verdict)
	assert.Equal(t, Error, entries[0].Category)
	assert.Equal(t, 0, entries[0].Current)
	assert.Equal(t, 2, entries[0].Previous)
}

func TestEvaluate_MissingFileLogsEveryTrackedCategory(t *testing.T) {
	previous := Snapshot{"gone.js": {
		"R1": {Error: 2, Warning: 3},
		"R2": {Warning: 1},
	}}

	eval := Evaluate(previous, Snapshot{}, FileSet{}, existsOnly())

	assert.Equal(t, Pass, eval.Verdict)
	assert.Empty(t, eval.Baseline)
	assert.Len(t, eval.Log, 3)
	assert.Equal(t, 3, eval.Improvements)
}

func TestEvaluate_IncreaseFailsAndKeepsScratch(t *testing.T) {
	previous := Snapshot{"a.js": {"R": {Error: 2}}}
	latest := Snapshot{"a.js": {"R": {Warning: 0, Error: 3}}}

	eval := Evaluate(previous, latest, analyzedSet("a.js"), existsOnly("a.js"))

	assert.Equal(t, Fail, eval.Verdict)
	assert.Equal(t, 1, eval.Regressions)
	assert.Equal(t, Snapshot{"a.js": {"R": {Error: 3}}}, eval.Scratch)
	assert.Equal(t, Snapshot{"a.js": {"R": {Error: 2}}}, previous, "previous must not be mutated")
	require.Len(t, eval.Log, 1)
	assert.Equal(t, Regressed, eval.Log[0].Verdict)
}

func TestEvaluate_RegressionWinsOverSimultaneousImprovements(t *testing.T) {
	previous := Snapshot{
		"a.js": {"R": {Error: 5}},
		"b.js": {"R": {Warning: 1}},
	}
	latest := Snapshot{
		"a.js": {"R": {Error: 1}},
		"b.js": {"R": {Warning: 2}},
	}

	eval := Evaluate(previous, latest, analyzedSet("a.js", "b.js"), existsOnly("a.js", "b.js"))

	assert.Equal(t, Fail, eval.Verdict)
	assert.Equal(t, 1, eval.Regressions)
	assert.Equal(t, 1, eval.Improvements)
}

func TestEvaluate_IdempotentAfterPass(t *testing.T) {
	previous := Snapshot{
		"a.js": {"R": {Error: 4, Warning: 2}},
		"b.js": {"S": {Warning: 1}},
	}
	latest := Snapshot{
		"a.js": {"R": {Error: 1, Warning: 2}},
	}
	analyzed := analyzedSet("a.js", "b.js")
	exists := existsOnly("a.js", "b.js")

	first := Evaluate(previous, latest, analyzed, exists)
	require.Equal(t, Pass, first.Verdict)

	second := Evaluate(first.Baseline, latest, analyzed, exists)
	assert.True(t, second.Diff.Empty())
	assert.True(t, second.NoOp())
	assert.Equal(t, first.Baseline, second.Baseline)
}

func TestEvaluate_BaselineIsAlwaysPruned(t *testing.T) {
	previous := Snapshot{
		"a.js": {"R": {Error: 1, Warning: 1}, "S": {Warning: 3}},
		"b.js": {"R": {Error: 1}},
	}
	latest := Snapshot{
		"a.js": {"R": {Error: 0, Warning: 1}, "S": {Warning: 0, Error: 0}},
		"b.js": {"R": {Error: 0, Warning: 0}},
	}

	eval := Evaluate(previous, latest, analyzedSet("a.js", "b.js"), existsOnly("a.js", "b.js"))

	require.Equal(t, Pass, eval.Verdict)
	assert.Equal(t, Snapshot{"a.js": {"R": {Warning: 1}}}, eval.Baseline)
	for file, rules := range eval.Baseline {
		require.NotEmpty(t, rules, file)
		for rule, leaf := range rules {
			require.NotEmpty(t, leaf, rule)
			for c, v := range leaf {
				assert.NotZero(t, v, "%s %s %s", file, rule, c)
			}
		}
	}
}

func TestEvaluate_RuleNoLongerFiring(t *testing.T) {
	previous := Snapshot{"a.js": {"old": {Error: 1}, "kept": {Warning: 1}}}
	latest := Snapshot{"a.js": {"kept": {Warning: 1, Error: 0}}}

	eval := Evaluate(previous, latest, analyzedSet("a.js"), existsOnly("a.js"))

	assert.Equal(t, Pass, eval.Verdict)
	assert.Equal(t, Snapshot{"a.js": {"kept": {Warning: 1}}}, eval.Baseline)
	require.Len(t, eval.Log, 1)
	assert.Equal(t, Resolved, eval.Log[0].Verdict)
	assert.Equal(t, "a.js old: all issues resolved", eval.Log[0].String())
}

func TestEvaluate_NewRuleOnExistingFileIsJudgedAgainstZero(t *testing.T) {
	previous := Snapshot{"a.js": {"R": {Error: 1}}}
	latest := Snapshot{"a.js": {"R": {Error: 1, Warning: 0}, "new-rule": {Warning: 1, Error: 0}}}

	eval := Evaluate(previous, latest, analyzedSet("a.js"), existsOnly("a.js"))

	assert.Equal(t, Fail, eval.Verdict)
	require.Len(t, eval.Log, 1)
	assert.Equal(t, "new-rule", eval.Log[0].Rule)
	assert.Equal(t, Introduced, eval.Log[0].Verdict)
}

func TestEvaluate_UntrackedCategoryOnUpdatedLeafIsNotCompared(t *testing.T) {
	previous := Snapshot{"a.js": {"R": {Error: 2}}}
	latest := Snapshot{"a.js": {"R": {Error: 2, Warning: 1}}}

	eval := Evaluate(previous, latest, analyzedSet("a.js"), existsOnly("a.js"))

	assert.Equal(t, Pass, eval.Verdict)
	assert.Empty(t, eval.Log)
	assert.True(t, eval.Changed)
	assert.Equal(t, Snapshot{"a.js": {"R": {Error: 2, Warning: 1}}}, eval.Baseline)
}

func TestEvaluate_UnanalyzedNewFileIsIgnoredWhileItExists(t *testing.T) {
	latest := Snapshot{"c.js": {"R": {Error: 1}}}

	eval := Evaluate(Snapshot{}, latest, FileSet{}, existsOnly("c.js"))

	assert.Equal(t, Pass, eval.Verdict)
	assert.True(t, eval.NoOp())
	assert.Empty(t, eval.Baseline)
}

func TestRegressionError_ListsOnlyRegressions(t *testing.T) {
	err := &RegressionError{
		Regressions: 1,
		Log: []LogEntry{
			{File: "a.js", Rule: "R", Category: Error, Verdict: Regressed, Previous: 2, Current: 3},
			{File: "b.js", Rule: "S", Category: Warning, Verdict: Improved, Previous: 2, Current: 1},
		},
	}
	assert.Equal(t, "1 regression(s) detected: a.js R: error: 3 (previously: 2)", err.Error())
}
