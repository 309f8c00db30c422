package suppress

import (
	"strings"
	"time"
)

// Rule is one operator-authored suppression. All non-empty fields must
// match a finding for the rule to apply; Reason is mandatory so every
// suppression is auditable.
type Rule struct {
	ID       string `yaml:"id,omitempty"`
	RuleID   string `yaml:"rule_id,omitempty"`
	Category string `yaml:"category,omitempty"`
	Severity string `yaml:"severity,omitempty"`
	Files    string `yaml:"files,omitempty"`
	Reason   string `yaml:"reason"`
	Author   string `yaml:"author,omitempty"`
	Expires  string `yaml:"expires,omitempty"`
}

// IsExpired reports whether the rule carries an expiry date in the past.
// Unparseable expiry values are treated as expired so a typo cannot
// silently suppress forever.
func (r Rule) IsExpired(now time.Time) bool {
	raw := strings.TrimSpace(r.Expires)
	if raw == "" {
		return false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return true
		}
	}
	return now.After(t)
}

type suppressionsFile struct {
	Suppressions []Rule `yaml:"suppressions"`
}
