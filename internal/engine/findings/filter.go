package findings

import (
	"fmt"

	"ratchet/internal/engine/ratchet"

	"github.com/gobwas/glob"
)

// Filter drops results for files matching any exclude pattern. Patterns are matched
// against the root-relative, slash separated path.
type Filter struct {
	root     string
	excludes []glob.Glob
}

func NewFilter(root string, patterns []string) (*Filter, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		compiled = append(compiled, g)
	}
	return &Filter{root: root, excludes: compiled}, nil
}

// Excluded reports whether the root-relative path matches an exclude pattern.
func (f *Filter) Excluded(rel string) bool {
	if f == nil {
		return false
	}
	for _, g := range f.excludes {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Apply returns the results whose files are not excluded, plus the number dropped.
func (f *Filter) Apply(results []ratchet.FileResult) ([]ratchet.FileResult, int) {
	if f == nil || len(f.excludes) == 0 {
		return results, 0
	}
	kept := make([]ratchet.FileResult, 0, len(results))
	dropped := 0
	for _, res := range results {
		if f.Excluded(ratchet.RelativePath(f.root, res.Path)) {
			dropped++
			continue
		}
		kept = append(kept, res)
	}
	return kept, dropped
}
