package engine

import (
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"

	"skillscan/internal/rules"
)

// compiledPattern keeps the declaration index of a detection pattern so
// finding order can follow pattern-declaration order even when earlier
// patterns failed to compile.
type compiledPattern struct {
	index  int
	source string
	re     *regexp.Regexp
}

// compiledRule is a rule with all of its regex sources compiled once per
// scan. Compilation failures drop the individual pattern, never the rule
// or the scan.
type compiledRule struct {
	rule           rules.Rule
	patterns       []compiledPattern
	excludeLine    []*regexp.Regexp
	excludeContext []*regexp.Regexp
}

// compileRule compiles every pattern of a rule. regexp.Regexp matching is
// stateless per call, which keeps repeated scans of the same content
// bit-for-bit identical.
func compileRule(rule rules.Rule, log hclog.Logger) compiledRule {
	out := compiledRule{rule: rule}

	for i, src := range rule.Patterns {
		re, err := compileInsensitive(src)
		if err != nil {
			log.Warn("skipping uncompilable detection pattern",
				"rule", rule.ID, "pattern_index", i, "error", err)
			continue
		}
		out.patterns = append(out.patterns, compiledPattern{index: i, source: src, re: re})
	}
	for i, src := range rule.ExcludePatterns {
		re, err := compileInsensitive(src)
		if err != nil {
			log.Warn("skipping uncompilable exclude pattern",
				"rule", rule.ID, "pattern_index", i, "error", err)
			continue
		}
		out.excludeLine = append(out.excludeLine, re)
	}
	for i, src := range rule.ExcludeContext {
		re, err := compileInsensitive(src)
		if err != nil {
			log.Warn("skipping uncompilable exclude-context pattern",
				"rule", rule.ID, "pattern_index", i, "error", err)
			continue
		}
		out.excludeContext = append(out.excludeContext, re)
	}
	return out
}

// compileInsensitive compiles a pattern source case-insensitively. Sources
// that open with their own flag group (as opposed to a non-capturing
// group) are left untouched so a rule can opt into case sensitivity.
func compileInsensitive(src string) (*regexp.Regexp, error) {
	if !hasFlagGroupPrefix(src) {
		src = "(?i)" + src
	}
	return regexp.Compile(src)
}

// hasFlagGroupPrefix reports whether src starts with a flag group such as
// (?i) or (?s:...). A non-capturing group (?:...) carries no flags and
// must still get the insensitive prefix.
func hasFlagGroupPrefix(src string) bool {
	if !strings.HasPrefix(src, "(?") {
		return false
	}
	rest := src[2:]
	if rest == "" || rest[0] == ':' {
		return false
	}
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case 'i', 'm', 's', 'U', '-':
		case ':', ')':
			return i > 0
		default:
			return false
		}
	}
	return false
}
