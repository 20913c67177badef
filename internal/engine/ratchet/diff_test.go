package ratchet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff_ClassifiesFilesAndRules(t *testing.T) {
	previous := Snapshot{
		"same.js":    {"R": {Error: 1}},
		"changed.js": {"R": {Error: 1}, "gone": {Warning: 2}, "stable": {Warning: 1}},
		"removed.js": {"R": {Warning: 1}},
	}
	latest := Snapshot{
		"same.js":    {"R": {Error: 1, Warning: 0}},
		"changed.js": {"R": {Error: 2, Warning: 0}, "stable": {Warning: 1, Error: 0}, "fresh": {Warning: 1, Error: 0}},
		"new.js":     {"R": {Error: 1, Warning: 0}},
	}

	d := Diff(previous, latest)

	assert.Equal(t, Bucket{
		"changed.js": {Rules: map[string]RuleChange{"fresh": {Leaf: CountLeaf{Warning: 1, Error: 0}}}},
		"new.js":     {Rules: map[string]RuleChange{"R": {Leaf: CountLeaf{Error: 1, Warning: 0}}}},
	}, d.Added)
	assert.Equal(t, Bucket{
		"changed.js": {Rules: map[string]RuleChange{"R": {Leaf: CountLeaf{Error: 2, Warning: 0}}}},
	}, d.Updated)
	assert.Equal(t, Bucket{
		"changed.js": {Rules: map[string]RuleChange{"gone": {Removed: true}}},
		"removed.js": {Removed: true},
	}, d.Deleted)
	assert.Equal(t, []string{"changed.js", "new.js", "removed.js"}, d.Files())
}

func TestDiff_IdenticalSnapshotsAreEmpty(t *testing.T) {
	s := Snapshot{"a.js": {"R": {Error: 1}}}
	assert.True(t, Diff(s, s.Clone()).Empty())
	assert.True(t, Diff(nil, nil).Empty())
}

func TestDiff_HoldsLatestLeafNotDelta(t *testing.T) {
	d := Diff(Snapshot{"a.js": {"R": {Error: 5}}}, Snapshot{"a.js": {"R": {Error: 7}}})
	assert.Equal(t, 7, d.Updated["a.js"].Rules["R"].Leaf[Error])
}

func TestUnion_LatestReplacesWholeFile(t *testing.T) {
	previous := Snapshot{"a.js": {"R": {Error: 1}, "S": {Warning: 1}}, "b.js": {"R": {Error: 1}}}
	latest := Snapshot{"a.js": {"R": {Error: 3}}}

	got := Union(previous, latest)

	assert.Equal(t, Snapshot{"a.js": {"R": {Error: 3}}, "b.js": {"R": {Error: 1}}}, got)
	assert.Len(t, previous["a.js"], 2)
}

func TestSnapshot_TotalsAndPrune(t *testing.T) {
	s := Snapshot{
		"a.js": {"R": {Error: 2, Warning: 0}, "S": {Warning: 0}},
		"b.js": {"R": {Warning: 3}},
	}
	assert.Equal(t, CountLeaf{Error: 2, Warning: 3}, s.Totals())

	s.Prune()
	assert.Equal(t, Snapshot{"a.js": {"R": {Error: 2}}, "b.js": {"R": {Warning: 3}}}, s)
}
