package findings

import (
	"encoding/json"
	"fmt"
	"io"

	"ratchet/internal/engine/ratchet"
)

// eslintResult mirrors one element of `eslint --format json` output. Only the
// fields the ratchet needs are decoded.
type eslintResult struct {
	FilePath     string          `json:"filePath"`
	Messages     []eslintMessage `json:"messages"`
	ErrorCount   int             `json:"errorCount"`
	WarningCount int             `json:"warningCount"`
}

type eslintMessage struct {
	RuleID   *string `json:"ruleId"`
	Severity int     `json:"severity"`
	Message  string  `json:"message"`
}

// ParseESLint decodes an ESLint JSON report.
func ParseESLint(r io.Reader) ([]ratchet.FileResult, error) {
	var raw []eslintResult
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode eslint report: %w", err)
	}

	results := make([]ratchet.FileResult, 0, len(raw))
	for i, res := range raw {
		if res.FilePath == "" {
			return nil, fmt.Errorf("eslint result %d has no filePath", i)
		}
		out := ratchet.FileResult{
			Path:         res.FilePath,
			ErrorCount:   res.ErrorCount,
			WarningCount: res.WarningCount,
			Findings:     make([]ratchet.Finding, 0, len(res.Messages)),
		}
		for _, msg := range res.Messages {
			rule := ""
			if msg.RuleID != nil {
				rule = *msg.RuleID
			}
			out.Findings = append(out.Findings, ratchet.Finding{RuleID: rule, Severity: msg.Severity})
		}
		results = append(results, out)
	}
	return results, nil
}
