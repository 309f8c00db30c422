package policy

import (
	"testing"

	"skillscan/internal/model"
)

func reportWith(severities ...model.Severity) model.ScanReport {
	var r model.ScanReport
	for _, s := range severities {
		r.Findings = append(r.Findings, model.Finding{
			RuleID:   "R-1",
			Severity: s,
		})
	}
	return r
}

func TestEvaluate_EmptyGatePasses(t *testing.T) {
	d := Evaluate(reportWith(model.SeverityCritical), Gate{})
	if !d.Passed {
		t.Fatalf("empty gate must pass, got violations %v", d.Violations)
	}
}

func TestEvaluate_SeverityThreshold(t *testing.T) {
	tests := []struct {
		name     string
		failOn   string
		report   model.ScanReport
		wantPass bool
	}{
		{"below threshold", "critical", reportWith(model.SeverityHigh, model.SeverityMedium), true},
		{"at threshold", "high", reportWith(model.SeverityHigh), false},
		{"above threshold", "medium", reportWith(model.SeverityCritical), false},
		{"case insensitive", "HIGH", reportWith(model.SeverityHigh), false},
		{"clean report", "info", model.ScanReport{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Evaluate(tc.report, Gate{FailOnSeverity: tc.failOn})
			if d.Passed != tc.wantPass {
				t.Errorf("Passed = %v, want %v (violations %v)", d.Passed, tc.wantPass, d.Violations)
			}
		})
	}
}

func TestEvaluate_SeverityThresholdCountsCorrelations(t *testing.T) {
	r := model.ScanReport{
		CorrelationFindings: []model.CorrelationFinding{{
			Finding: model.Finding{RuleID: "EXF-CORR", Severity: model.SeverityCritical},
		}},
	}
	d := Evaluate(r, Gate{FailOnSeverity: "high"})
	if d.Passed {
		t.Fatal("correlation findings must count toward the severity gate")
	}
	if len(d.Violations) != 1 || d.Violations[0].Code != "severity_threshold" {
		t.Fatalf("unexpected violations: %v", d.Violations)
	}
}

func TestEvaluate_MaxFindings(t *testing.T) {
	r := reportWith(model.SeverityLow, model.SeverityLow, model.SeverityLow)

	if d := Evaluate(r, Gate{MaxFindings: 3}); !d.Passed {
		t.Error("at-limit report should pass")
	}
	d := Evaluate(r, Gate{MaxFindings: 2})
	if d.Passed {
		t.Fatal("over-limit report should fail")
	}
	if d.Violations[0].Code != "max_findings" {
		t.Errorf("unexpected violation code %q", d.Violations[0].Code)
	}
}

func TestEvaluate_MinRiskScore(t *testing.T) {
	r := model.ScanReport{Findings: []model.Finding{
		{RuleID: "R-1", Severity: model.SeverityMedium, RiskScore: 60},
		{RuleID: "R-2", Severity: model.SeverityHigh, RiskScore: 80},
	}}

	if d := Evaluate(r, Gate{MinRiskScore: 85}); !d.Passed {
		t.Error("scores below threshold should pass")
	}
	d := Evaluate(r, Gate{MinRiskScore: 80})
	if d.Passed {
		t.Fatal("score at threshold should fail")
	}
	if d.Violations[0].Code != "risk_score" {
		t.Errorf("unexpected violation code %q", d.Violations[0].Code)
	}
}

func TestEvaluate_MultipleViolations(t *testing.T) {
	r := model.ScanReport{Findings: []model.Finding{
		{RuleID: "R-1", Severity: model.SeverityCritical, RiskScore: 95},
		{RuleID: "R-2", Severity: model.SeverityCritical, RiskScore: 97},
	}}
	d := Evaluate(r, Gate{FailOnSeverity: "high", MaxFindings: 1, MinRiskScore: 90})
	if d.Passed {
		t.Fatal("expected failure")
	}
	if len(d.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(d.Violations), d.Violations)
	}
}
