package ratchet

import "fmt"

// ChangeVerdict is the outcome of comparing one category of one cell.
type ChangeVerdict string

const (
	Regressed  ChangeVerdict = "regressed"
	Improved   ChangeVerdict = "improved"
	Unchanged  ChangeVerdict = "unchanged"
	Introduced ChangeVerdict = "introduced"
	Resolved   ChangeVerdict = "resolved"
)

// IsRegression reports whether the verdict blocks the ratchet.
func (v ChangeVerdict) IsRegression() bool {
	return v == Regressed || v == Introduced
}

// Verdict is the pass/fail result of a reconciliation pass.
type Verdict string

const (
	Pass Verdict = "pass"
	Fail Verdict = "fail"
)

// LogEntry is one line of the change log. Category is empty for Resolved entries.
type LogEntry struct {
	Classification Classification `json:"classification" yaml:"classification"`
	File           string         `json:"file" yaml:"file"`
	Rule           string         `json:"rule" yaml:"rule"`
	Category       Category       `json:"category,omitempty" yaml:"category,omitempty"`
	Verdict        ChangeVerdict  `json:"verdict" yaml:"verdict"`
	Previous       int            `json:"previous" yaml:"previous"`
	Current        int            `json:"current" yaml:"current"`
}

func (e LogEntry) String() string {
	if e.Verdict == Resolved {
		return fmt.Sprintf("%s %s: all issues resolved", e.File, e.Rule)
	}
	return fmt.Sprintf("%s %s: %s: %d (previously: %d)", e.File, e.Rule, e.Category, e.Current, e.Previous)
}

// Existence answers whether a root-relative path is still present on disk.
type Existence interface {
	Exists(path string) bool
}

// ExistenceFunc adapts a function to Existence.
type ExistenceFunc func(path string) bool

func (f ExistenceFunc) Exists(path string) bool { return f(path) }

// ReconcileInput carries everything a reconciliation pass reads.
type ReconcileInput struct {
	Previous Snapshot
	Analyzed FileSet
	Diff     ClassifiedDiff
	Exists   Existence
}

// Reconciliation is the result of a pass. Baseline is already pruned.
type Reconciliation struct {
	Verdict      Verdict
	Baseline     Snapshot
	Log          []LogEntry
	Regressions  int
	Improvements int
	// Changed is true when at least one diff entry passed the relevance gate.
	Changed bool
	// Skipped lists files present in the diff that were neither analyzed nor missing.
	Skipped []string
}

// Reconcile walks the classified diff and builds the next baseline. The previous
// snapshot is never modified.
func Reconcile(in ReconcileInput) Reconciliation {
	p := pass{
		previous: in.Previous,
		analyzed: in.Analyzed,
		exists:   in.Exists,
		next:     in.Previous.Clone(),
		gate:     make(map[string]bool),
	}
	if p.exists == nil {
		p.exists = ExistenceFunc(func(string) bool { return true })
	}

	for _, ref := range in.Diff.ordered() {
		for _, file := range sortedKeys(ref.bucket) {
			p.file(ref.class, file, ref.bucket[file])
		}
	}

	out := Reconciliation{
		Verdict:      Pass,
		Baseline:     p.next,
		Log:          p.log,
		Regressions:  p.regressions,
		Improvements: p.improvements,
		Changed:      p.changed,
		Skipped:      p.skipped,
	}
	if out.Regressions > 0 {
		out.Verdict = Fail
	}
	return out
}

type pass struct {
	previous Snapshot
	analyzed FileSet
	exists   Existence
	next     Snapshot
	gate     map[string]bool

	log          []LogEntry
	regressions  int
	improvements int
	changed      bool
	skipped      []string
}

// relevant decides once per file whether this run may touch its baseline entry.
func (p *pass) relevant(file string) bool {
	if ok, seen := p.gate[file]; seen {
		return ok
	}
	ok := p.analyzed.Contains(file) || !p.exists.Exists(file)
	p.gate[file] = ok
	if !ok {
		p.skipped = append(p.skipped, file)
	}
	return ok
}

func (p *pass) file(class Classification, file string, change FileChange) {
	if !p.relevant(file) {
		return
	}
	p.changed = true

	rules := change.Rules
	if change.Removed && class == Deleted {
		rules = make(map[string]RuleChange, len(p.previous[file]))
		for rule := range p.previous[file] {
			rules[rule] = RuleChange{Leaf: zeroLeaf()}
		}
	}

	for _, rule := range sortedKeys(rules) {
		p.rule(class, file, rule, rules[rule])
	}
	pruneFile(p.next, file)
}

func (p *pass) rule(class Classification, file, rule string, change RuleChange) {
	if change.Removed {
		p.log = append(p.log, LogEntry{
			Classification: class,
			File:           file,
			Rule:           rule,
			Verdict:        Resolved,
		})
		if rules, ok := p.next[file]; ok {
			delete(rules, rule)
		}
		return
	}

	prevLeaf, hasPrev := p.previous[file][rule]
	defaulted := false
	if !hasPrev && class == Added {
		prevLeaf = zeroLeaf()
		defaulted = true
	}

	for _, category := range Categories {
		value, ok := change.Leaf[category]
		if !ok {
			continue
		}
		if prevValue, tracked := prevLeaf[category]; tracked {
			p.compare(class, file, rule, category, prevValue, value, defaulted)
		}
		p.set(file, rule, category, value)
	}
}

func (p *pass) compare(class Classification, file, rule string, category Category, prev, value int, defaulted bool) {
	var verdict ChangeVerdict
	switch {
	case value > prev && defaulted:
		verdict = Introduced
	case value > prev:
		verdict = Regressed
	case value < prev:
		verdict = Improved
	default:
		return
	}

	if verdict.IsRegression() {
		p.regressions++
	} else {
		p.improvements++
	}
	p.log = append(p.log, LogEntry{
		Classification: class,
		File:           file,
		Rule:           rule,
		Category:       category,
		Verdict:        verdict,
		Previous:       prev,
		Current:        value,
	})
}

func (p *pass) set(file, rule string, category Category, value int) {
	rules, ok := p.next[file]
	if !ok {
		rules = make(RuleMap)
		p.next[file] = rules
	}
	leaf, ok := rules[rule]
	if !ok {
		leaf = make(CountLeaf)
		rules[rule] = leaf
	}
	leaf[category] = value
}
