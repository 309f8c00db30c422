// Package redact masks secret material in report evidence. Findings often
// quote the exact line that tripped a credential rule, so everything that
// leaves the engine for a log, terminal, or artifact passes through here.
package redact

import (
	"regexp"

	"skillscan/internal/model"
)

var (
	privateKeyPattern = regexp.MustCompile(`-----BEGIN [A-Z0-9 ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z0-9 ]*PRIVATE KEY-----`)
	bearerPattern     = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._~+/=-]{8,}`)
	tokenAssign       = regexp.MustCompile(`(?i)\b(api[_-]?key|secret|token|password|passwd|pwd)\b(\s*[:=]\s*)(["']?)([A-Za-z0-9._~+/=-]{8,})(["']?)`)
	awsAccessKey      = regexp.MustCompile(`\b(A3T|AKIA|ASIA|AGPA|AIDA|ANPA|ANVA|AROA|AIPA)[0-9A-Z]{16}\b`)
	githubToken       = regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{20,}\b`)
	slackToken        = regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`)
	openaiKey         = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{20,}\b`)
	anthropicKey      = regexp.MustCompile(`\bsk-ant-[A-Za-z0-9_-]{20,}\b`)
)

// Text masks common secret/token patterns in a string. The surrounding
// text is preserved so the finding stays actionable.
func Text(in string) string {
	out := in
	out = privateKeyPattern.ReplaceAllString(out, "[REDACTED PRIVATE KEY]")
	out = anthropicKey.ReplaceAllString(out, "[REDACTED_ANTHROPIC_KEY]")
	out = openaiKey.ReplaceAllString(out, "[REDACTED_OPENAI_KEY]")
	out = bearerPattern.ReplaceAllString(out, "Bearer [REDACTED]")
	out = tokenAssign.ReplaceAllString(out, `${1}${2}${3}[REDACTED]${5}`)
	out = awsAccessKey.ReplaceAllString(out, "[REDACTED_AWS_ACCESS_KEY]")
	out = githubToken.ReplaceAllString(out, "[REDACTED_GITHUB_TOKEN]")
	out = slackToken.ReplaceAllString(out, "[REDACTED_SLACK_TOKEN]")
	return out
}

func Strings(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, 0, len(in))
	for _, item := range in {
		out = append(out, Text(item))
	}
	return out
}

// Finding returns a copy of the finding with evidence fields masked. Line
// numbers, rule identity, and scores are untouched.
func Finding(f model.Finding) model.Finding {
	f.Match = Text(f.Match)
	if len(f.Context) > 0 {
		ctx := make([]model.ContextLine, len(f.Context))
		copy(ctx, f.Context)
		for i := range ctx {
			ctx[i].Text = Text(ctx[i].Text)
		}
		f.Context = ctx
	}
	return f
}

// Report masks evidence across an entire report in place-safe copies.
func Report(r model.ScanReport) model.ScanReport {
	for i := range r.Findings {
		r.Findings[i] = Finding(r.Findings[i])
	}
	for i := range r.CorrelationFindings {
		r.CorrelationFindings[i].Finding = Finding(r.CorrelationFindings[i].Finding)
	}
	for i := range r.SuppressedFindings {
		r.SuppressedFindings[i] = Finding(r.SuppressedFindings[i])
	}
	return r
}
