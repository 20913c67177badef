package ratchet

import "sort"

// Category is a severity bucket tracked per rule.
type Category string

const (
	Warning Category = "warning"
	Error   Category = "error"
)

// Categories lists the tracked categories in reporting order.
var Categories = []Category{Warning, Error}

// Valid reports whether c is one of the tracked categories.
func (c Category) Valid() bool {
	return c == Warning || c == Error
}

// CountLeaf holds the per-category issue counts of a single rule in a single file.
type CountLeaf map[Category]int

// RuleMap maps a rule identifier to its counts.
type RuleMap map[string]CountLeaf

// Snapshot maps a root-relative file path to its rule counts. Clean files are absent.
type Snapshot map[string]RuleMap

// FileSet is the set of files that took part in a run, clean or not.
type FileSet map[string]struct{}

func zeroLeaf() CountLeaf {
	return CountLeaf{Warning: 0, Error: 0}
}

// Clone returns a deep copy of the leaf.
func (l CountLeaf) Clone() CountLeaf {
	out := make(CountLeaf, len(l))
	for c, v := range l {
		out[c] = v
	}
	return out
}

// Equal compares two leaves treating an absent category as zero.
func (l CountLeaf) Equal(other CountLeaf) bool {
	for _, c := range Categories {
		if l[c] != other[c] {
			return false
		}
	}
	return true
}

// Total sums every category of the leaf.
func (l CountLeaf) Total() int {
	total := 0
	for _, v := range l {
		total += v
	}
	return total
}

// Clone returns a deep copy of the rule map.
func (m RuleMap) Clone() RuleMap {
	out := make(RuleMap, len(m))
	for rule, leaf := range m {
		out[rule] = leaf.Clone()
	}
	return out
}

// Clone returns a deep copy of the snapshot. A nil snapshot clones to an empty one.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for file, rules := range s {
		out[file] = rules.Clone()
	}
	return out
}

// Files returns the snapshot's file keys in sorted order.
func (s Snapshot) Files() []string {
	return sortedKeys(s)
}

// Totals sums counts per category across the whole snapshot.
func (s Snapshot) Totals() CountLeaf {
	totals := zeroLeaf()
	for _, rules := range s {
		for _, leaf := range rules {
			for c, v := range leaf {
				totals[c] += v
			}
		}
	}
	return totals
}

// Prune removes zero counts, then empty leaves, then empty files, in place.
func (s Snapshot) Prune() Snapshot {
	for file := range s {
		pruneFile(s, file)
	}
	return s
}

func pruneFile(s Snapshot, file string) {
	rules, ok := s[file]
	if !ok {
		return
	}
	for rule, leaf := range rules {
		for c, v := range leaf {
			if v == 0 {
				delete(leaf, c)
			}
		}
		if len(leaf) == 0 {
			delete(rules, rule)
		}
	}
	if len(rules) == 0 {
		delete(s, file)
	}
}

// Union overlays latest onto previous at file granularity: a file present in latest
// replaces the previous entry wholesale. Neither input is modified.
func Union(previous, latest Snapshot) Snapshot {
	out := previous.Clone()
	for file, rules := range latest {
		out[file] = rules.Clone()
	}
	return out
}

// Add records path as analyzed.
func (fs FileSet) Add(path string) {
	fs[path] = struct{}{}
}

// Contains reports whether path was analyzed.
func (fs FileSet) Contains(path string) bool {
	_, ok := fs[path]
	return ok
}

// Sorted returns the analyzed paths in sorted order.
func (fs FileSet) Sorted() []string {
	return sortedKeys(fs)
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
