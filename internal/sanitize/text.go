// Package sanitize neutralizes hostile text before it reaches a terminal
// or report. Scanned artifacts are untrusted by definition; a match line
// may carry ANSI escapes or control characters crafted to corrupt the
// very output that reports it.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxInlineLen = 240

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]|\x1b\][^\x07\x1b]*(\x07|\x1b\\)?`)

// Inline flattens untrusted text to a single safe line: ANSI sequences
// removed, control characters dropped, newlines collapsed to spaces, and
// length capped.
func Inline(s string) string {
	s = ansiEscape.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\n', '\r', '\t':
			b.WriteRune(' ')
		default:
			if r < 0x20 || r == 0x7f {
				continue
			}
			if !utf8.ValidRune(r) {
				continue
			}
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	if len(out) > maxInlineLen {
		out = out[:maxInlineLen] + "..."
	}
	return out
}
