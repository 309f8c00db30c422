package engine

import (
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"skillscan/internal/model"
	"skillscan/internal/rules"
)

// DefaultContextLines is the context-window size used when the caller does
// not configure one.
const DefaultContextLines = 3

// MatchOptions tunes a single matching invocation. Now is injectable so
// repeated scans of unchanged input produce identical findings.
type MatchOptions struct {
	ContextLines int
	Now          time.Time
}

func (o MatchOptions) contextLines() int {
	if o.ContextLines <= 0 {
		return DefaultContextLines
	}
	return o.ContextLines
}

func (o MatchOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now().UTC()
	}
	return o.Now
}

// MatchRule scans one file's content with one rule and returns every match
// that survives suppression. Findings come back in pattern-declaration
// order, then line order, then column order.
func MatchRule(rule rules.Rule, file model.DiscoveredFile, opts MatchOptions, log hclog.Logger) []model.Finding {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if !rule.AppliesTo(file.Type, file.Component) {
		return nil
	}
	return matchCompiled(compileRule(rule, log), file, opts)
}

func matchCompiled(cr compiledRule, file model.DiscoveredFile, opts MatchOptions) []model.Finding {
	if !cr.rule.AppliesTo(file.Type, file.Component) {
		return nil
	}

	lines := strings.Split(file.Content, "\n")
	ctxLines := opts.contextLines()
	now := opts.now()

	var findings []model.Finding
	for _, pat := range cr.patterns {
		for li, line := range lines {
			// FindAllStringIndex walks the whole line with no retained
			// cursor state, so re-running on the same content is idempotent.
			for _, loc := range pat.re.FindAllStringIndex(line, -1) {
				if suppressed(cr, lines, li, ctxLines, file.Content) {
					continue
				}
				matched := line[loc[0]:loc[1]]
				f := model.Finding{
					RuleID:      cr.rule.ID,
					RuleName:    cr.rule.Name,
					Severity:    cr.rule.Severity,
					Category:    cr.rule.Category,
					Path:        file.Path,
					RelPath:     file.RelPath,
					Line:        li + 1,
					Column:      loc[0] + 1,
					Match:       matched,
					Context:     contextWindow(lines, li, ctxLines),
					Remediation: cr.rule.Remediation,
					RiskScore:   RiskScore(cr.rule.Severity, cr.rule.Confidence),
					CreatedAt:   now,
					Direct: &model.DirectMetadata{
						PatternIndex: pat.index,
						Pattern:      pat.source,
					},
				}
				findings = append(findings, f)
			}
		}
	}
	return findings
}

// suppressed decides whether a raw match on lines[matchIdx] is a false
// positive. Line-scoped and window-scoped suppression are independent;
// either firing drops the match.
func suppressed(cr compiledRule, lines []string, matchIdx int, window int, content string) bool {
	for _, re := range cr.excludeLine {
		if re.MatchString(lines[matchIdx]) {
			return true
		}
	}
	if len(cr.excludeContext) == 0 {
		return false
	}

	scope := content
	if !cr.rule.ExcludeContextWholeFile {
		from, to := windowBounds(len(lines), matchIdx, window)
		scope = strings.Join(lines[from:to], "\n")
	}
	for _, re := range cr.excludeContext {
		if re.MatchString(scope) {
			return true
		}
	}
	return false
}

// contextWindow extracts up to window lines before and after the match
// line, clipped at file boundaries and never padded.
func contextWindow(lines []string, matchIdx int, window int) []model.ContextLine {
	from, to := windowBounds(len(lines), matchIdx, window)
	out := make([]model.ContextLine, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, model.ContextLine{
			Number:  i + 1,
			Text:    lines[i],
			IsMatch: i == matchIdx,
		})
	}
	return out
}

func windowBounds(total, matchIdx, window int) (from, to int) {
	from = matchIdx - window
	if from < 0 {
		from = 0
	}
	to = matchIdx + window + 1
	if to > total {
		to = total
	}
	return from, to
}
