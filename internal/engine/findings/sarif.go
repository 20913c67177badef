package findings

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"ratchet/internal/engine/ratchet"
)

// SARIF v2.1.0, reduced to what is needed to count results per file and rule.

type sarifReport struct {
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool      sarifTool       `json:"tool"`
	Artifacts []sarifArtifact `json:"artifacts"`
	Results   []sarifResult   `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name  string      `json:"name"`
	Rules []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID            string                 `json:"id"`
	DefaultConfig sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifArtifact struct {
	Location sarifArtifactLocation `json:"location"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Rule      *sarifRuleRef   `json:"rule"`
	Level     string          `json:"level"`
	Locations []sarifLocation `json:"locations"`
}

type sarifRuleRef struct {
	ID string `json:"id"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

// defaultSARIFLevel is the level SARIF assigns to results that specify none.
const defaultSARIFLevel = "warning"

// ParseSARIF decodes a SARIF 2.1.0 log. Results at level "error" count as errors and
// "warning" as warnings; "note" and "none" are ignored. Files listed under
// run.artifacts count as analyzed even without results.
func ParseSARIF(r io.Reader) ([]ratchet.FileResult, error) {
	var report sarifReport
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode sarif report: %w", err)
	}
	if report.Version != "" && !strings.HasPrefix(report.Version, "2.") {
		return nil, fmt.Errorf("unsupported sarif version %q", report.Version)
	}

	byPath := make(map[string]*ratchet.FileResult)
	touch := func(path string) *ratchet.FileResult {
		res, ok := byPath[path]
		if !ok {
			res = &ratchet.FileResult{Path: path}
			byPath[path] = res
		}
		return res
	}

	for _, run := range report.Runs {
		ruleLevels := make(map[string]string, len(run.Tool.Driver.Rules))
		for _, rule := range run.Tool.Driver.Rules {
			if rule.DefaultConfig.Level != "" {
				ruleLevels[rule.ID] = rule.DefaultConfig.Level
			}
		}

		for _, artifact := range run.Artifacts {
			if path := decodeURI(artifact.Location.URI); path != "" {
				touch(path)
			}
		}

		for _, result := range run.Results {
			ruleID := result.RuleID
			if ruleID == "" && result.Rule != nil {
				ruleID = result.Rule.ID
			}
			level := result.Level
			if level == "" {
				level = ruleLevels[ruleID]
			}
			if level == "" {
				level = defaultSARIFLevel
			}

			severity := 0
			switch level {
			case "error":
				severity = ratchet.SeverityError
			case "warning":
				severity = ratchet.SeverityWarning
			}

			for _, loc := range result.Locations {
				path := decodeURI(loc.PhysicalLocation.ArtifactLocation.URI)
				if path == "" {
					continue
				}
				res := touch(path)
				if severity == 0 {
					continue
				}
				res.Findings = append(res.Findings, ratchet.Finding{RuleID: ruleID, Severity: severity})
				if severity == ratchet.SeverityError {
					res.ErrorCount++
				} else {
					res.WarningCount++
				}
			}
		}
	}

	paths := make([]string, 0, len(byPath))
	for path := range byPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	results := make([]ratchet.FileResult, 0, len(paths))
	for _, path := range paths {
		results = append(results, *byPath[path])
	}
	return results, nil
}

func decodeURI(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "file:") {
		u, err := url.Parse(raw)
		if err == nil && u.Path != "" {
			return u.Path
		}
	}
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}
