package ratchet

import (
	"path/filepath"
	"strings"
)

// Severity values as emitted by the analyzer.
const (
	SeverityWarning = 1
	SeverityError   = 2
)

// NoRuleKey is the rule key used for findings without a rule id, such as parse failures.
const NoRuleKey = "(no-rule)"

// Finding is a single analyzer message.
type Finding struct {
	RuleID   string
	Severity int
}

// FileResult is the analyzer's output for one file.
type FileResult struct {
	Path         string
	Findings     []Finding
	ErrorCount   int
	WarningCount int
}

// Aggregate folds per-file results into a count snapshot and the set of analyzed files.
// Counts come only from the findings; ErrorCount and WarningCount only decide whether a
// file is clean.
func Aggregate(root string, results []FileResult) (Snapshot, FileSet) {
	latest := make(Snapshot)
	analyzed := make(FileSet, len(results))

	for _, result := range results {
		file := RelativePath(root, result.Path)
		analyzed.Add(file)
		if result.ErrorCount+result.WarningCount == 0 {
			continue
		}

		rules, ok := latest[file]
		if !ok {
			rules = make(RuleMap)
			latest[file] = rules
		}
		for _, finding := range result.Findings {
			category, ok := severityCategory(finding.Severity)
			if !ok {
				continue
			}
			rule := finding.RuleID
			if strings.TrimSpace(rule) == "" {
				rule = NoRuleKey
			}
			leaf, ok := rules[rule]
			if !ok {
				leaf = zeroLeaf()
				rules[rule] = leaf
			}
			leaf[category]++
		}
		if len(rules) == 0 {
			delete(latest, file)
		}
	}

	return latest, analyzed
}

func severityCategory(severity int) (Category, bool) {
	switch severity {
	case SeverityWarning:
		return Warning, true
	case SeverityError:
		return Error, true
	default:
		return "", false
	}
}

// AnchorPaths returns results with relative paths joined onto dir, the directory the
// analyzer reported them from. Absolute paths and an empty dir leave results as is.
func AnchorPaths(dir string, results []FileResult) []FileResult {
	if dir == "" {
		return results
	}
	out := make([]FileResult, len(results))
	for i, res := range results {
		if !filepath.IsAbs(res.Path) {
			res.Path = filepath.Join(dir, filepath.FromSlash(res.Path))
		}
		out[i] = res
	}
	return out
}

// RelativePath normalizes path to a slash-separated path relative to root.
// Relative inputs are taken as already root-relative; see AnchorPaths.
func RelativePath(root, path string) string {
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) && root != "" {
		if rel, err := filepath.Rel(root, clean); err == nil {
			clean = rel
		}
	}
	return strings.TrimPrefix(filepath.ToSlash(clean), "./")
}
