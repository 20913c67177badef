package ratchet

// Classification names the diff bucket an entry came from.
type Classification string

const (
	Added   Classification = "added"
	Updated Classification = "updated"
	Deleted Classification = "deleted"
)

// RuleChange is one rule-level diff cell. Removed marks a rule that no longer fires;
// otherwise Leaf holds the latest counts.
type RuleChange struct {
	Removed bool
	Leaf    CountLeaf
}

// FileChange is one file-level diff entry. Removed marks a file absent from the latest
// snapshot; Rules is empty in that case.
type FileChange struct {
	Removed bool
	Rules   map[string]RuleChange
}

// Bucket maps file paths to their changes within a single classification.
type Bucket map[string]FileChange

// ClassifiedDiff is the two-level structural diff between two snapshots.
type ClassifiedDiff struct {
	Added   Bucket
	Updated Bucket
	Deleted Bucket
}

// Empty reports whether the snapshots were identical.
func (d ClassifiedDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Deleted) == 0
}

// Files returns every file mentioned by any bucket, sorted.
func (d ClassifiedDiff) Files() []string {
	seen := make(map[string]struct{})
	for _, b := range []Bucket{d.Added, d.Updated, d.Deleted} {
		for file := range b {
			seen[file] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

type bucketRef struct {
	class  Classification
	bucket Bucket
}

func (d ClassifiedDiff) ordered() []bucketRef {
	return []bucketRef{
		{class: Added, bucket: d.Added},
		{class: Updated, bucket: d.Updated},
		{class: Deleted, bucket: d.Deleted},
	}
}

func (b Bucket) rule(file, rule string, change RuleChange) {
	entry, ok := b[file]
	if !ok {
		entry = FileChange{Rules: make(map[string]RuleChange)}
	}
	entry.Rules[rule] = change
	b[file] = entry
}

// Diff classifies every file and rule that differs between previous and latest.
// Unchanged entries are omitted.
func Diff(previous, latest Snapshot) ClassifiedDiff {
	d := ClassifiedDiff{
		Added:   make(Bucket),
		Updated: make(Bucket),
		Deleted: make(Bucket),
	}

	for file, latestRules := range latest {
		prevRules, ok := previous[file]
		if !ok {
			for rule, leaf := range latestRules {
				d.Added.rule(file, rule, RuleChange{Leaf: leaf.Clone()})
			}
			continue
		}
		for rule, leaf := range latestRules {
			prevLeaf, ok := prevRules[rule]
			switch {
			case !ok:
				d.Added.rule(file, rule, RuleChange{Leaf: leaf.Clone()})
			case !prevLeaf.Equal(leaf):
				d.Updated.rule(file, rule, RuleChange{Leaf: leaf.Clone()})
			}
		}
		for rule := range prevRules {
			if _, ok := latestRules[rule]; !ok {
				d.Deleted.rule(file, rule, RuleChange{Removed: true})
			}
		}
	}

	for file := range previous {
		if _, ok := latest[file]; !ok {
			d.Deleted[file] = FileChange{Removed: true}
		}
	}

	return d
}
