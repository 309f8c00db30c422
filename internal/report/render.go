package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"skillscan/internal/model"
	"skillscan/internal/redact"
	"skillscan/internal/sanitize"
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true)
	styleCritical = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleHigh     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleMedium   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleLow      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	styleInfo     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	styleDim      = lipgloss.NewStyle().Faint(true)
	styleOK       = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

func severityStyle(s model.Severity) lipgloss.Style {
	switch s {
	case model.SeverityCritical:
		return styleCritical
	case model.SeverityHigh:
		return styleHigh
	case model.SeverityMedium:
		return styleMedium
	case model.SeverityLow:
		return styleLow
	default:
		return styleInfo
	}
}

// RenderConsole formats a report for terminal output. Styling degrades to
// plain text automatically when stdout is not a TTY (lipgloss detects the
// color profile); callers can also force plain output.
func RenderConsole(report model.ScanReport, plain bool) string {
	var b strings.Builder

	style := func(s lipgloss.Style, text string) string {
		if plain {
			return text
		}
		return s.Render(text)
	}

	b.WriteString(style(styleTitle, fmt.Sprintf("skillscan: %s", report.Root)))
	b.WriteString("\n")
	b.WriteString(style(styleDim, fmt.Sprintf("scanned %d files with %d rules in %dms",
		report.FilesScanned, report.RulesEvaluated, report.DurationMS)))
	b.WriteString("\n\n")

	if report.TotalFindings() == 0 {
		b.WriteString(style(styleOK, "No findings."))
		b.WriteString("\n")
		return b.String()
	}

	for _, f := range report.Findings {
		writeFinding(&b, f, style)
	}
	for _, cf := range report.CorrelationFindings {
		writeFinding(&b, cf.Finding, style)
		b.WriteString(style(styleDim, fmt.Sprintf("  chain: %s (strength %.2f)\n",
			strings.Join(cf.RelatedFiles, " ↔ "), cf.Strength)))
		b.WriteString(style(styleDim, fmt.Sprintf("  vectors: %s\n", strings.Join(cf.RiskVectors, ", "))))
	}

	b.WriteString("\n")
	b.WriteString(renderSummary(report, style))
	return b.String()
}

func writeFinding(b *strings.Builder, f model.Finding, style func(lipgloss.Style, string) string) {
	sev := strings.ToUpper(string(f.Severity))
	b.WriteString(fmt.Sprintf("%s %s %s\n",
		style(severityStyle(f.Severity), fmt.Sprintf("[%-8s]", sev)),
		style(styleTitle, f.RuleName),
		style(styleDim, fmt.Sprintf("(%s, score %d)", f.RuleID, f.RiskScore))))
	b.WriteString(fmt.Sprintf("  %s:%d  %s\n",
		sanitize.Inline(f.RelPath), f.Line, redact.Text(sanitize.Inline(truncate(f.Match, 100)))))
	if f.Remediation != "" {
		b.WriteString(style(styleDim, "  fix: "+truncate(f.Remediation, 160)+"\n"))
	}
}

func renderSummary(report model.ScanReport, style func(lipgloss.Style, string) string) string {
	var parts []string
	order := []model.Severity{
		model.SeverityCritical, model.SeverityHigh, model.SeverityMedium,
		model.SeverityLow, model.SeverityInfo,
	}
	for _, sev := range order {
		if n := report.CountsBySeverity[string(sev)]; n > 0 {
			parts = append(parts, style(severityStyle(sev), fmt.Sprintf("%d %s", n, sev)))
		}
	}
	line := fmt.Sprintf("%d finding(s): %s", report.TotalFindings(), strings.Join(parts, ", "))
	if len(report.SuppressedFindings) > 0 {
		line += style(styleDim, fmt.Sprintf(" (+%d suppressed)", len(report.SuppressedFindings)))
	}
	if len(report.Errors) > 0 {
		line += style(styleDim, fmt.Sprintf(" (%d file error(s))", len(report.Errors)))
	}
	return line + "\n"
}

// RenderMarkdown produces the markdown report body.
func RenderMarkdown(report model.ScanReport) string {
	var b strings.Builder

	b.WriteString("# skillscan report\n\n")
	b.WriteString(fmt.Sprintf("- Root: `%s`\n", report.Root))
	b.WriteString(fmt.Sprintf("- Run: %s\n", report.RunID))
	b.WriteString(fmt.Sprintf("- Files scanned: %d\n", report.FilesScanned))
	b.WriteString(fmt.Sprintf("- Rules evaluated: %d\n", report.RulesEvaluated))
	b.WriteString(fmt.Sprintf("- Findings: %d\n\n", report.TotalFindings()))

	if report.TotalFindings() == 0 {
		b.WriteString("No findings.\n")
		return b.String()
	}

	b.WriteString("## Findings\n\n")
	b.WriteString("| Severity | Rule | File | Line | Score |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, f := range report.Findings {
		b.WriteString(fmt.Sprintf("| %s | %s | `%s` | %d | %d |\n",
			f.Severity, f.RuleID, f.RelPath, f.Line, f.RiskScore))
	}
	for _, cf := range report.CorrelationFindings {
		b.WriteString(fmt.Sprintf("| %s | %s (correlated) | `%s` | %d | %d |\n",
			cf.Severity, cf.RuleID, cf.RelPath, cf.Line, cf.RiskScore))
	}

	if len(report.CorrelationFindings) > 0 {
		b.WriteString("\n## Cross-file chains\n\n")
		for _, cf := range report.CorrelationFindings {
			b.WriteString(fmt.Sprintf("- **%s** (strength %.2f): %s. Files: %s; vectors: %s\n",
				cf.RuleID, cf.Strength, cf.AttackPattern,
				strings.Join(cf.RelatedFiles, ", "), strings.Join(cf.RiskVectors, ", ")))
		}
	}

	if len(report.Errors) > 0 {
		b.WriteString("\n## File errors\n\n")
		for _, e := range report.Errors {
			b.WriteString(fmt.Sprintf("- `%s`: %s\n", e.Path, e.Err))
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// SortFindings orders findings for display: severity descending, then
// path, then line. The engine's own output order is preserved elsewhere;
// this is a presentation concern only.
func SortFindings(findings []model.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Severity.Rank() != findings[j].Severity.Rank() {
			return findings[i].Severity.Rank() > findings[j].Severity.Rank()
		}
		if findings[i].RelPath != findings[j].RelPath {
			return findings[i].RelPath < findings[j].RelPath
		}
		return findings[i].Line < findings[j].Line
	})
}
