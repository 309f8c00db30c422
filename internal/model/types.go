package model

import "time"

// Severity orders finding impact from informational to critical.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

var severityRank = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
	SeverityInfo:     0,
}

// Rank returns the ordinal position of a severity. Unknown severities rank
// below info so malformed input never outranks a real level.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// NormalizeSeverity maps free-form severity strings onto the enum,
// defaulting to info.
func NormalizeSeverity(raw string) Severity {
	switch Severity(normalizeToken(raw)) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityHigh:
		return SeverityHigh
	case SeverityMedium:
		return SeverityMedium
	case SeverityLow:
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// Category classifies what kind of risk a rule detects.
type Category string

const (
	CategoryCredentials    Category = "credentials"
	CategoryInjection      Category = "injection"
	CategoryExfiltration   Category = "exfiltration"
	CategorySupplyChain    Category = "supply-chain"
	CategoryPermissions    Category = "permissions"
	CategoryPersistence    Category = "persistence"
	CategoryObfuscation    Category = "obfuscation"
	CategoryAISpecific     Category = "ai-specific"
	CategoryBackdoors      Category = "backdoors"
	CategoryBehavioral     Category = "behavioral"
	CategoryAdvancedHiding Category = "advanced-hiding"
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{
		CategoryCredentials,
		CategoryInjection,
		CategoryExfiltration,
		CategorySupplyChain,
		CategoryPermissions,
		CategoryPersistence,
		CategoryObfuscation,
		CategoryAISpecific,
		CategoryBackdoors,
		CategoryBehavioral,
		CategoryAdvancedHiding,
	}
}

// Component tags a file's inferred role within an agent workspace.
type Component string

const (
	ComponentHook      Component = "hook"
	ComponentSkill     Component = "skill"
	ComponentAgent     Component = "agent"
	ComponentSettings  Component = "settings"
	ComponentMCPConfig Component = "mcp-server-config"
	ComponentPlugin    Component = "plugin"
	ComponentMarkdown  Component = "markdown"
	ComponentGeneric   Component = "generic"
)

// DiscoveredFile describes one file handed to the engine. Content is
// materialized by intake; the engine never touches the filesystem.
type DiscoveredFile struct {
	Path      string    `json:"path"`
	RelPath   string    `json:"rel_path"`
	Type      string    `json:"type"`
	Component Component `json:"component"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
	Content   string    `json:"-"`
}

// ContextLine is one line of the window surrounding a match.
type ContextLine struct {
	Number  int    `json:"number"`
	Text    string `json:"text"`
	IsMatch bool   `json:"is_match"`
}

// DirectMetadata is attached to findings produced by per-file matching.
type DirectMetadata struct {
	PatternIndex int    `json:"pattern_index"`
	Pattern      string `json:"pattern"`
}

// CorrelationMetadata is attached to findings synthesized by the
// correlation engine.
type CorrelationMetadata struct {
	SubRuleID     string `json:"sub_rule_id"`
	FilesInvolved int    `json:"files_involved"`
	PatternHits   int    `json:"pattern_hits"`
}

// Finding is one reported occurrence of a rule's pattern in one file.
// Match always holds the literal matched substring, never the whole line.
type Finding struct {
	RuleID      string        `json:"rule_id"`
	RuleName    string        `json:"rule_name"`
	Severity    Severity      `json:"severity"`
	Category    Category      `json:"category"`
	Path        string        `json:"path"`
	RelPath     string        `json:"rel_path"`
	Line        int           `json:"line"`
	Column      int           `json:"column,omitempty"`
	Match       string        `json:"match"`
	Context     []ContextLine `json:"context,omitempty"`
	Remediation string        `json:"remediation,omitempty"`
	RiskScore   int           `json:"risk_score"`
	CreatedAt   time.Time     `json:"created_at"`

	Direct      *DirectMetadata      `json:"direct,omitempty"`
	Correlation *CorrelationMetadata `json:"correlation,omitempty"`

	Suppressed        bool   `json:"suppressed,omitempty"`
	SuppressionReason string `json:"suppression_reason,omitempty"`
}

// CorrelationFinding links weak per-file signals across two or more
// related files into one higher-confidence finding.
type CorrelationFinding struct {
	Finding

	RelatedFiles  []string `json:"related_files"`
	AttackPattern string   `json:"attack_pattern"`
	RiskVectors   []string `json:"risk_vectors"`
	Strength      float64  `json:"strength"`
}

// FileError records a per-file failure that did not abort the scan.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// ScanReport is the merged output of a full scan.
type ScanReport struct {
	RunID               string               `json:"run_id"`
	Root                string               `json:"root"`
	StartedAt           time.Time            `json:"started_at"`
	CompletedAt         time.Time            `json:"completed_at"`
	DurationMS          int64                `json:"duration_ms"`
	FilesScanned        int                  `json:"files_scanned"`
	RulesEvaluated      int                  `json:"rules_evaluated"`
	Findings            []Finding            `json:"findings"`
	CorrelationFindings []CorrelationFinding `json:"correlation_findings"`
	SuppressedFindings  []Finding            `json:"suppressed_findings,omitempty"`
	CountsBySeverity    map[string]int       `json:"counts_by_severity"`
	CountsByCategory    map[string]int       `json:"counts_by_category"`
	Errors              []FileError          `json:"errors,omitempty"`
}

// TotalFindings counts direct plus correlation findings.
func (r ScanReport) TotalFindings() int {
	return len(r.Findings) + len(r.CorrelationFindings)
}

func normalizeToken(raw string) string {
	out := make([]rune, 0, len(raw))
	for _, ch := range raw {
		switch {
		case ch >= 'A' && ch <= 'Z':
			out = append(out, ch+('a'-'A'))
		case ch == ' ' || ch == '\t':
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
