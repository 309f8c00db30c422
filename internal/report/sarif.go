package report

import (
	"bytes"
	"fmt"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"skillscan/internal/model"
	"skillscan/internal/redact"
	"skillscan/internal/safefile"
	"skillscan/internal/version"
)

const informationURI = "https://github.com/skillscan/skillscan"

// WriteSARIF emits the report as SARIF 2.1.0 for code-scanning upload.
// Correlation findings are emitted as results on their anchor file with
// relatedLocations covering the rest of the chain.
func WriteSARIF(path string, report model.ScanReport) error {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("create sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("skillscan", informationURI)
	run.Tool.Driver.WithVersion(version.Version)

	seen := make(map[string]bool)
	addRule := func(f model.Finding) {
		if seen[f.RuleID] {
			return
		}
		seen[f.RuleID] = true
		run.AddRule(f.RuleID).
			WithName(f.RuleName).
			WithDescription(f.RuleName).
			WithHelp(sarif.NewMultiformatMessageString(f.Remediation)).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{
				Level: toSarifLevel(f.Severity),
			})
	}

	for _, f := range report.Findings {
		addRule(f)
		run.AddResult(directResult(f))
	}
	for _, cf := range report.CorrelationFindings {
		addRule(cf.Finding)
		run.AddResult(correlationResult(cf))
	}
	doc.AddRun(run)

	var buf bytes.Buffer
	if err := doc.PrettyWrite(&buf); err != nil {
		return fmt.Errorf("encode sarif report: %w", err)
	}
	if err := safefile.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write sarif report: %w", err)
	}
	return nil
}

func directResult(f model.Finding) *sarif.Result {
	return sarif.NewRuleResult(f.RuleID).
		WithLevel(toSarifLevel(f.Severity)).
		WithMessage(sarif.NewTextMessage(resultMessage(f))).
		WithLocations([]*sarif.Location{locationFor(f.RelPath, f.Line, f.Column)})
}

func correlationResult(cf model.CorrelationFinding) *sarif.Result {
	result := sarif.NewRuleResult(cf.RuleID).
		WithLevel(toSarifLevel(cf.Severity)).
		WithMessage(sarif.NewTextMessage(fmt.Sprintf("%s (cross-file chain, strength %.2f)",
			resultMessage(cf.Finding), cf.Strength))).
		WithLocations([]*sarif.Location{locationFor(cf.RelPath, cf.Line, cf.Column)})

	var related []*sarif.Location
	for _, rel := range cf.RelatedFiles {
		if rel == cf.RelPath {
			continue
		}
		related = append(related, locationFor(rel, 1, 1))
	}
	if len(related) > 0 {
		result.WithRelatedLocations(related)
	}
	return result
}

func locationFor(relPath string, line, column int) *sarif.Location {
	if line < 1 {
		line = 1
	}
	if column < 1 {
		column = 1
	}
	return sarif.NewLocation().WithPhysicalLocation(
		sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().WithUri(relPath)).
			WithRegion(sarif.NewRegion().WithStartLine(line).WithStartColumn(column)),
	)
}

func resultMessage(f model.Finding) string {
	return fmt.Sprintf("%s: %s (risk score %d)", f.RuleName, redact.Text(truncate(f.Match, 100)), f.RiskScore)
}

func toSarifLevel(sev model.Severity) string {
	switch sev {
	case model.SeverityCritical, model.SeverityHigh:
		return "error"
	case model.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
