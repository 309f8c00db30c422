// Package diff compares two scan reports so CI can gate on regressions
// instead of absolute counts.
package diff

import (
	"sort"
	"strings"

	"skillscan/internal/model"
)

// Summary holds aggregate counts for a baseline comparison.
type Summary struct {
	NewCount       int `json:"new_count"`
	FixedCount     int `json:"fixed_count"`
	UnchangedCount int `json:"unchanged_count"`
}

// Report is the result of comparing a current scan against a baseline.
type Report struct {
	New       []model.Finding `json:"new"`
	Fixed     []model.Finding `json:"fixed"`
	Unchanged []model.Finding `json:"unchanged"`
	Summary   Summary         `json:"summary"`
}

// Compare identifies new, fixed, and unchanged findings relative to a
// baseline report. Identity is (rule, file, matched text): line numbers
// are deliberately excluded so an unrelated edit above a finding does
// not report it as both fixed and new.
func Compare(baseline, current model.ScanReport) Report {
	baseKeys := make(map[string]model.Finding)
	for _, f := range allFindings(baseline) {
		baseKeys[findingKey(f)] = f
	}

	currKeys := make(map[string]model.Finding)
	for _, f := range allFindings(current) {
		currKeys[findingKey(f)] = f
	}

	var newFindings, fixed, unchanged []model.Finding

	for key, f := range currKeys {
		if _, inBase := baseKeys[key]; inBase {
			unchanged = append(unchanged, f)
		} else {
			newFindings = append(newFindings, f)
		}
	}
	for key, f := range baseKeys {
		if _, inCurr := currKeys[key]; !inCurr {
			fixed = append(fixed, f)
		}
	}

	sortFindings(newFindings)
	sortFindings(fixed)
	sortFindings(unchanged)

	return Report{
		New:       newFindings,
		Fixed:     fixed,
		Unchanged: unchanged,
		Summary: Summary{
			NewCount:       len(newFindings),
			FixedCount:     len(fixed),
			UnchangedCount: len(unchanged),
		},
	}
}

func allFindings(r model.ScanReport) []model.Finding {
	out := make([]model.Finding, 0, r.TotalFindings())
	out = append(out, r.Findings...)
	for _, cf := range r.CorrelationFindings {
		out = append(out, cf.Finding)
	}
	return out
}

func findingKey(f model.Finding) string {
	match := strings.ToLower(strings.TrimSpace(f.Match))
	if len(match) > 200 {
		match = match[:200]
	}
	sub := ""
	if f.Correlation != nil {
		sub = f.Correlation.SubRuleID
	}
	return f.RuleID + "|" + sub + "|" + strings.ToLower(f.RelPath) + "|" + match
}

func sortFindings(findings []model.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Severity.Rank() != findings[j].Severity.Rank() {
			return findings[i].Severity.Rank() > findings[j].Severity.Rank()
		}
		if findings[i].RelPath != findings[j].RelPath {
			return findings[i].RelPath < findings[j].RelPath
		}
		return findings[i].RuleID < findings[j].RuleID
	})
}
