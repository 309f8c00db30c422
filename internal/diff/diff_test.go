package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillscan/internal/model"
)

func mkFinding(ruleID, relPath, match string, line int, sev model.Severity) model.Finding {
	return model.Finding{
		RuleID:   ruleID,
		RelPath:  relPath,
		Match:    match,
		Line:     line,
		Severity: sev,
	}
}

func mkReport(findings ...model.Finding) model.ScanReport {
	return model.ScanReport{Findings: findings}
}

func TestCompare_Partition(t *testing.T) {
	shared := mkFinding("CRED-001", "hooks/a.sh", `token = "x"`, 4, model.SeverityHigh)
	fixedOnly := mkFinding("INJ-001", "skills/b.md", "ignore previous", 9, model.SeverityMedium)
	newOnly := mkFinding("EXF-002", "hooks/c.sh", "curl -d @.env", 2, model.SeverityCritical)

	out := Compare(mkReport(shared, fixedOnly), mkReport(shared, newOnly))

	require.Len(t, out.New, 1)
	require.Len(t, out.Fixed, 1)
	require.Len(t, out.Unchanged, 1)
	assert.Equal(t, "EXF-002", out.New[0].RuleID)
	assert.Equal(t, "INJ-001", out.Fixed[0].RuleID)
	assert.Equal(t, "CRED-001", out.Unchanged[0].RuleID)
	assert.Equal(t, Summary{NewCount: 1, FixedCount: 1, UnchangedCount: 1}, out.Summary)
}

func TestCompare_LineNumberShiftIsUnchanged(t *testing.T) {
	base := mkFinding("CRED-001", "hooks/a.sh", `token = "x"`, 4, model.SeverityHigh)
	moved := base
	moved.Line = 17

	out := Compare(mkReport(base), mkReport(moved))

	assert.Empty(t, out.New, "a pure line shift must not look new")
	assert.Empty(t, out.Fixed, "a pure line shift must not look fixed")
	require.Len(t, out.Unchanged, 1)
}

func TestCompare_MatchTextDistinguishes(t *testing.T) {
	a := mkFinding("CRED-001", "hooks/a.sh", `token = "one"`, 4, model.SeverityHigh)
	b := mkFinding("CRED-001", "hooks/a.sh", `token = "two"`, 4, model.SeverityHigh)

	out := Compare(mkReport(a), mkReport(b))

	assert.Equal(t, 1, out.Summary.NewCount)
	assert.Equal(t, 1, out.Summary.FixedCount)
	assert.Equal(t, 0, out.Summary.UnchangedCount)
}

func TestCompare_CorrelationSubRuleInKey(t *testing.T) {
	corr := func(sub string) model.ScanReport {
		return model.ScanReport{CorrelationFindings: []model.CorrelationFinding{{
			Finding: model.Finding{
				RuleID:      "EXF-CORR",
				RelPath:     "hooks/a.sh",
				Match:       "cross-file chain",
				Severity:    model.SeverityCritical,
				Correlation: &model.CorrelationMetadata{SubRuleID: sub},
			},
		}}}
	}

	out := Compare(corr("env-read-then-post"), corr("install-then-exec"))

	assert.Equal(t, 1, out.Summary.NewCount, "different sub-rules are different findings")
	assert.Equal(t, 1, out.Summary.FixedCount)
}

func TestCompare_EmptyReports(t *testing.T) {
	out := Compare(model.ScanReport{}, model.ScanReport{})
	assert.Equal(t, Summary{}, out.Summary)
}

func TestCompare_OutputSorted(t *testing.T) {
	low := mkFinding("AAA-1", "z.md", "m1", 1, model.SeverityLow)
	crit := mkFinding("BBB-2", "a.md", "m2", 1, model.SeverityCritical)

	out := Compare(model.ScanReport{}, mkReport(low, crit))

	require.Len(t, out.New, 2)
	assert.Equal(t, "BBB-2", out.New[0].RuleID, "critical sorts first")
}
