package suppress

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"skillscan/internal/model"
)

// DefaultPath returns the conventional path for the suppressions file.
func DefaultPath(root string) string {
	return filepath.Join(root, ".skillscan", "suppressions.yaml")
}

// Load reads suppression rules from a YAML file. A missing file yields
// nil rules and nil error.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var sf suppressionsFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	for i, rule := range sf.Suppressions {
		if strings.TrimSpace(rule.Reason) == "" {
			return nil, fmt.Errorf("suppression rule %d: reason is required", i+1)
		}
	}
	return EnsureRuleIDs(sf.Suppressions), nil
}

// Save writes suppression rules to disk in the canonical YAML structure.
func Save(path string, rules []Rule) error {
	rules = EnsureRuleIDs(rules)
	data, err := yaml.Marshal(suppressionsFile{Suppressions: rules})
	if err != nil {
		return fmt.Errorf("marshal suppressions: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create suppressions dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write suppressions: %w", err)
	}
	return nil
}

// EnsureRuleIDs fills missing rule IDs and guarantees uniqueness.
func EnsureRuleIDs(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)

	used := make(map[string]struct{}, len(out))
	for i := range out {
		out[i].ID = strings.ToLower(strings.TrimSpace(out[i].ID))
		if out[i].ID == "" {
			out[i].ID = generateRuleID(out[i])
		}
		base := out[i].ID
		for n := 2; ; n++ {
			if _, exists := used[out[i].ID]; !exists {
				used[out[i].ID] = struct{}{}
				break
			}
			out[i].ID = fmt.Sprintf("%s-%d", base, n)
		}
	}
	return out
}

// Apply partitions findings into active and suppressed. Expired rules are
// ignored; the finding stays active. Engine output is not modified beyond
// the suppression annotation.
func Apply(findings []model.Finding, rules []Rule) (active, suppressed []model.Finding) {
	now := time.Now().UTC()
	active = make([]model.Finding, 0, len(findings))
	suppressed = make([]model.Finding, 0)

	for _, f := range findings {
		if reason := matchRules(f, rules, now); reason != "" {
			f.Suppressed = true
			f.SuppressionReason = reason
			suppressed = append(suppressed, f)
			continue
		}
		active = append(active, f)
	}
	return
}

func matchRules(f model.Finding, rules []Rule, now time.Time) string {
	for _, r := range rules {
		if r.IsExpired(now) {
			continue
		}
		if ruleMatches(f, r) {
			return r.Reason
		}
	}
	return ""
}

// ruleMatches requires every non-empty field of the rule to match. A rule
// with only a standalone wildcard, or with no matching fields at all, is
// rejected as too broad.
func ruleMatches(f model.Finding, r Rule) bool {
	if r.RuleID == "*" {
		return false
	}
	if r.RuleID != "" && !matchGlob(r.RuleID, f.RuleID) {
		return false
	}
	if r.Category != "" && !strings.EqualFold(r.Category, string(f.Category)) {
		return false
	}
	if r.Severity != "" && !strings.EqualFold(r.Severity, string(f.Severity)) {
		return false
	}
	if r.Files != "" && !matchGlob(r.Files, f.RelPath) {
		return false
	}
	if r.RuleID == "" && r.Category == "" && r.Severity == "" && r.Files == "" {
		return false
	}
	return true
}

// matchGlob performs case-insensitive glob matching with filepath.Match
// semantics, extended so ** matches across path segments.
func matchGlob(pattern, value string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	value = strings.ToLower(strings.TrimSpace(value))

	if strings.Contains(pattern, "**") {
		return matchDoublestar(pattern, value)
	}
	matched, _ := filepath.Match(pattern, value)
	return matched
}

func matchDoublestar(pattern, value string) bool {
	parts := strings.SplitN(pattern, "**", 2)
	if len(parts) != 2 {
		matched, _ := filepath.Match(pattern, value)
		return matched
	}
	prefix := parts[0]
	suffix := strings.TrimPrefix(parts[1], "/")

	if prefix != "" {
		if !strings.HasPrefix(value, prefix) {
			return false
		}
		value = value[len(prefix):]
	}
	if suffix == "" {
		return true
	}
	for i := 0; i <= len(value); i++ {
		if matched, _ := filepath.Match(suffix, value[i:]); matched {
			return true
		}
		if i < len(value) && value[i] == '/' {
			if matched, _ := filepath.Match(suffix, value[i+1:]); matched {
				return true
			}
		}
	}
	return false
}

func generateRuleID(rule Rule) string {
	parts := []string{
		strings.TrimSpace(rule.RuleID),
		strings.TrimSpace(rule.Category),
		strings.TrimSpace(rule.Severity),
		strings.TrimSpace(rule.Files),
		strings.TrimSpace(rule.Reason),
		strings.TrimSpace(rule.Author),
		strings.TrimSpace(rule.Expires),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "sup-" + hex.EncodeToString(sum[:6])
}
