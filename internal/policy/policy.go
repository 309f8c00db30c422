// Package policy maps a scan report onto a CI pass/fail decision.
package policy

import (
	"fmt"
	"strings"

	"skillscan/internal/model"
)

// Gate is the effective CI gate. Zero values disable the corresponding
// check.
type Gate struct {
	FailOnSeverity string `yaml:"fail_on_severity,omitempty" json:"fail_on_severity,omitempty"`
	MaxFindings    int    `yaml:"max_findings,omitempty" json:"max_findings,omitempty"`
	MinRiskScore   int    `yaml:"min_risk_score,omitempty" json:"min_risk_score,omitempty"`
}

// Violation is one reason a gate failed.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Decision is the gate outcome attached to the report consumers.
type Decision struct {
	Passed     bool        `json:"passed"`
	Effective  Gate        `json:"effective"`
	Violations []Violation `json:"violations,omitempty"`
}

// Evaluate applies the gate to active (non-suppressed) findings.
func Evaluate(report model.ScanReport, gate Gate) Decision {
	decision := Decision{Passed: true, Effective: gate}

	threshold := model.NormalizeSeverity(gate.FailOnSeverity)
	if strings.TrimSpace(gate.FailOnSeverity) != "" {
		count := 0
		for _, f := range report.Findings {
			if f.Severity.Rank() >= threshold.Rank() {
				count++
			}
		}
		for _, f := range report.CorrelationFindings {
			if f.Severity.Rank() >= threshold.Rank() {
				count++
			}
		}
		if count > 0 {
			decision.Passed = false
			decision.Violations = append(decision.Violations, Violation{
				Code:    "severity_threshold",
				Message: fmt.Sprintf("%d finding(s) at or above %s", count, threshold),
			})
		}
	}

	if gate.MaxFindings > 0 && report.TotalFindings() > gate.MaxFindings {
		decision.Passed = false
		decision.Violations = append(decision.Violations, Violation{
			Code:    "max_findings",
			Message: fmt.Sprintf("%d finding(s) exceed limit %d", report.TotalFindings(), gate.MaxFindings),
		})
	}

	if gate.MinRiskScore > 0 {
		for _, f := range report.Findings {
			if f.RiskScore >= gate.MinRiskScore {
				decision.Passed = false
				decision.Violations = append(decision.Violations, Violation{
					Code:    "risk_score",
					Message: fmt.Sprintf("finding %s scores %d (limit %d)", f.RuleID, f.RiskScore, gate.MinRiskScore),
				})
				break
			}
		}
	}

	return decision
}
