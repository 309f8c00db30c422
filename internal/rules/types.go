package rules

import (
	"strings"

	"skillscan/internal/model"
)

const APIVersion = "skillscan/v1"

type Source string

const (
	SourceBuiltin Source = "builtin"
	SourceCustom  Source = "custom"
)

// CorrelationSubRule declares one multi-file pattern a rule can correlate
// on. FilePatterns are relative-path substrings used to select candidate
// files; Patterns are regex sources compiled independently of the parent
// rule's detection patterns. MaxDistance is an advisory grouping hint and
// is not enforced during relationship construction.
type CorrelationSubRule struct {
	ID           string   `yaml:"id" json:"id"`
	Description  string   `yaml:"description" json:"description"`
	FilePatterns []string `yaml:"file_patterns" json:"file_patterns"`
	Patterns     []string `yaml:"patterns" json:"patterns"`
	MaxDistance  int      `yaml:"max_distance,omitempty" json:"max_distance,omitempty"`
}

// Rule is one immutable detection rule. Patterns are regex sources matched
// case-insensitively line by line. ExcludePatterns suppress a raw match
// when they fire on the match line; ExcludeContext patterns suppress when
// they fire anywhere in the surrounding context window, or anywhere in the
// file when ExcludeContextWholeFile is set (document-level markers such as
// a scanner self-reference).
type Rule struct {
	APIVersion  string         `yaml:"api_version,omitempty" json:"api_version,omitempty"`
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Category    model.Category `yaml:"category" json:"category"`
	Severity    model.Severity `yaml:"severity" json:"severity"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`

	Patterns   []string `yaml:"patterns" json:"patterns"`
	FileTypes  []string `yaml:"file_types,omitempty" json:"file_types,omitempty"`
	Components []string `yaml:"components,omitempty" json:"components,omitempty"`

	ExcludePatterns         []string `yaml:"exclude_patterns,omitempty" json:"exclude_patterns,omitempty"`
	ExcludeContext          []string `yaml:"exclude_context,omitempty" json:"exclude_context,omitempty"`
	ExcludeContextWholeFile bool     `yaml:"exclude_context_whole_file,omitempty" json:"exclude_context_whole_file,omitempty"`

	Remediation string  `yaml:"remediation,omitempty" json:"remediation,omitempty"`
	Confidence  float64 `yaml:"confidence,omitempty" json:"confidence,omitempty"`

	Correlation []CorrelationSubRule `yaml:"correlation,omitempty" json:"correlation,omitempty"`

	Source  Source `yaml:"source,omitempty" json:"source,omitempty"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// AppliesTo reports whether the rule is in scope for a file's type and
// component tags. Empty filter sets match everything.
func (r Rule) AppliesTo(fileType string, component model.Component) bool {
	if !r.Enabled {
		return false
	}
	if len(r.FileTypes) > 0 && !containsFold(r.FileTypes, fileType) {
		return false
	}
	if len(r.Components) > 0 && !containsFold(r.Components, string(component)) {
		return false
	}
	return true
}

// Correlatable reports whether the rule declares any correlation sub-rules.
func (r Rule) Correlatable() bool {
	return r.Enabled && len(r.Correlation) > 0
}

func containsFold(set []string, value string) bool {
	for _, item := range set {
		if strings.EqualFold(strings.TrimSpace(item), value) {
			return true
		}
	}
	return false
}
