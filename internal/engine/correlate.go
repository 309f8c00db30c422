package engine

import (
	"path"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"skillscan/internal/model"
	"skillscan/internal/rules"
)

// maxRelatedDistance is the directory distance at or under which two files
// are considered related regardless of naming.
const maxRelatedDistance = 2

const proximityBonus = 0.1

// fileRelationship is the per-anchor view of the relationship graph. It is
// ephemeral scan state; distances are kept so callers of the graph can
// reason about proximity instead of recomputing it.
type fileRelationship struct {
	anchor   model.DiscoveredFile
	related  []model.DiscoveredFile
	distance map[string]int
}

// patternHit is one (file, pattern, line, text) tuple that contributed to
// a cross-file match. Only the first occurrence of a pattern in a file is
// recorded.
type patternHit struct {
	file         model.DiscoveredFile
	patternIndex int
	pattern      string
	line         int
	text         string
}

// crossFileMatch is a fired correlation sub-rule before emission.
type crossFileMatch struct {
	sub      rules.CorrelationSubRule
	files    []model.DiscoveredFile
	hits     []patternHit
	strength float64
}

// affinityPairs lists path-naming combinations that relate two files even
// when they sit further than maxRelatedDistance apart. Matching is by
// case-insensitive substring on the relative path.
var affinityPairs = [][2][]string{
	{{"hook"}, {"skill", "agent"}},
	{{"settings"}, {"config"}},
	{{"claude.md", "agents.md", "agent"}, {"mcp", "settings"}},
}

// AnalyzeCorrelations evaluates every correlation-capable rule in the
// catalog against the full file set and returns the correlation findings.
// The relationship graph is built once and reused across all sub-rules.
func AnalyzeCorrelations(files []model.DiscoveredFile, catalog []rules.Rule, opts MatchOptions, log hclog.Logger) []model.CorrelationFinding {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if len(files) < 2 {
		return nil
	}

	relationships := buildRelationships(files)

	var out []model.CorrelationFinding
	seen := map[string]struct{}{}

	for _, rule := range catalog {
		if !rule.Correlatable() {
			continue
		}
		for _, sub := range rule.Correlation {
			patterns := compileSubRule(rule.ID, sub, log)
			if len(patterns) == 0 {
				continue
			}
			for _, rel := range relationships {
				candidates := selectCandidates(rel, sub)
				// Correlation needs coordination across at least two
				// distinct files.
				if len(candidates) < 2 {
					continue
				}
				match, ok := coverSubRule(sub, patterns, candidates)
				if !ok {
					continue
				}
				key := matchKey(rule.ID, sub.ID, match.files)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, emitCorrelation(rule, match, opts))
			}
		}
	}
	return out
}

// buildRelationships computes the per-anchor relationship sets. A file is
// related to its anchor when their directory distance is at most
// maxRelatedDistance or a naming-affinity pair matches.
func buildRelationships(files []model.DiscoveredFile) []fileRelationship {
	out := make([]fileRelationship, 0, len(files))
	for _, anchor := range files {
		rel := fileRelationship{anchor: anchor, distance: map[string]int{}}
		for _, other := range files {
			if other.RelPath == anchor.RelPath {
				continue
			}
			if _, dup := rel.distance[other.RelPath]; dup {
				continue
			}
			dist := dirDistance(anchor.RelPath, other.RelPath)
			if dist <= maxRelatedDistance || namingAffinity(anchor.RelPath, other.RelPath) {
				rel.related = append(rel.related, other)
				rel.distance[other.RelPath] = dist
			}
		}
		out = append(out, rel)
	}
	return out
}

// dirDistance is the number of directory steps between the containing
// directories of two relative paths.
func dirDistance(a, b string) int {
	da := splitDir(a)
	db := splitDir(b)

	common := 0
	for common < len(da) && common < len(db) && da[common] == db[common] {
		common++
	}
	return (len(da) - common) + (len(db) - common)
}

func splitDir(rel string) []string {
	dir := path.Dir(strings.ReplaceAll(rel, "\\", "/"))
	if dir == "." || dir == "/" {
		return nil
	}
	return strings.Split(dir, "/")
}

func namingAffinity(a, b string) bool {
	la := strings.ToLower(a)
	lb := strings.ToLower(b)
	for _, pair := range affinityPairs {
		if containsAny(la, pair[0]) && containsAny(lb, pair[1]) {
			return true
		}
		if containsAny(lb, pair[0]) && containsAny(la, pair[1]) {
			return true
		}
	}
	return false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// selectCandidates filters the anchor and its related files down to those
// whose relative path contains any of the sub-rule's file patterns.
func selectCandidates(rel fileRelationship, sub rules.CorrelationSubRule) []model.DiscoveredFile {
	group := append([]model.DiscoveredFile{rel.anchor}, rel.related...)
	var out []model.DiscoveredFile
	for _, f := range group {
		lower := strings.ToLower(f.RelPath)
		if containsAny(lower, lowered(sub.FilePatterns)) {
			out = append(out, f)
		}
	}
	return out
}

func lowered(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func compileSubRule(ruleID string, sub rules.CorrelationSubRule, log hclog.Logger) []compiledPattern {
	var out []compiledPattern
	for i, src := range sub.Patterns {
		re, err := compileInsensitive(src)
		if err != nil {
			log.Warn("skipping uncompilable correlation pattern",
				"rule", ruleID, "sub_rule", sub.ID, "pattern_index", i, "error", err)
			continue
		}
		out = append(out, compiledPattern{index: i, source: src, re: re})
	}
	return out
}

// coverSubRule records the first match of each pattern in each candidate
// file and fires only when every pattern is satisfied by some file.
func coverSubRule(sub rules.CorrelationSubRule, patterns []compiledPattern, candidates []model.DiscoveredFile) (crossFileMatch, bool) {
	var hits []patternHit
	satisfied := make([]bool, len(patterns))
	involved := map[string]model.DiscoveredFile{}

	for pi, pat := range patterns {
		for _, f := range candidates {
			if hit, ok := firstMatch(pat, f); ok {
				hits = append(hits, hit)
				satisfied[pi] = true
				involved[f.RelPath] = f
			}
		}
	}

	for _, ok := range satisfied {
		if !ok {
			return crossFileMatch{}, false
		}
	}
	if len(hits) < len(patterns) {
		return crossFileMatch{}, false
	}

	files := make([]model.DiscoveredFile, 0, len(involved))
	for _, f := range candidates {
		if _, ok := involved[f.RelPath]; ok {
			files = append(files, f)
			delete(involved, f.RelPath)
		}
	}
	// All patterns landing in one file is not coordination.
	if len(files) < 2 {
		return crossFileMatch{}, false
	}

	match := crossFileMatch{sub: sub, files: files, hits: hits}
	match.strength = correlationStrength(len(hits), len(patterns), len(files), len(sub.FilePatterns))
	return match, true
}

func firstMatch(pat compiledPattern, f model.DiscoveredFile) (patternHit, bool) {
	for li, line := range strings.Split(f.Content, "\n") {
		if loc := pat.re.FindStringIndex(line); loc != nil {
			return patternHit{
				file:         f,
				patternIndex: pat.index,
				pattern:      pat.source,
				line:         li + 1,
				text:         line[loc[0]:loc[1]],
			}, true
		}
	}
	return patternHit{}, false
}

// correlationStrength combines pattern coverage, a distinct-file bonus,
// and a fixed proximity bonus, clamped into [0,1]. Heuristic, not a
// probability.
func correlationStrength(hits, declaredPatterns, distinctFiles, declaredFilePatterns int) float64 {
	if declaredPatterns == 0 {
		return 0
	}
	coverage := float64(hits) / float64(declaredPatterns)

	fileRatio := 1.0
	if declaredFilePatterns > 0 {
		fileRatio = float64(distinctFiles) / float64(declaredFilePatterns)
		if fileRatio > 1 {
			fileRatio = 1
		}
	}

	strength := coverage + fileRatio*0.2 + proximityBonus
	if strength > 1 {
		strength = 1
	}
	if strength < 0 {
		strength = 0
	}
	return strength
}

func emitCorrelation(rule rules.Rule, match crossFileMatch, opts MatchOptions) model.CorrelationFinding {
	anchor := match.hits[0]
	lines := strings.Split(anchor.file.Content, "\n")

	related := make([]string, 0, len(match.files))
	for _, f := range match.files {
		related = append(related, f.RelPath)
	}

	return model.CorrelationFinding{
		Finding: model.Finding{
			RuleID:      rule.ID,
			RuleName:    rule.Name,
			Severity:    rule.Severity,
			Category:    rule.Category,
			Path:        anchor.file.Path,
			RelPath:     anchor.file.RelPath,
			Line:        anchor.line,
			Match:       anchor.text,
			Context:     contextWindow(lines, anchor.line-1, opts.contextLines()),
			Remediation: rule.Remediation,
			RiskScore:   CorrelationScore(match.strength),
			CreatedAt:   opts.now(),
			Correlation: &model.CorrelationMetadata{
				SubRuleID:     match.sub.ID,
				FilesInvolved: len(match.files),
				PatternHits:   len(match.hits),
			},
		},
		RelatedFiles:  related,
		AttackPattern: match.sub.Description,
		RiskVectors:   inferRiskVectors(rule, match.files),
		Strength:      match.strength,
	}
}

// inferRiskVectors derives human-readable labels from the parent rule's
// description and the component tags of the involved files. At least one
// label is always returned.
func inferRiskVectors(rule rules.Rule, files []model.DiscoveredFile) []string {
	desc := strings.ToLower(rule.Description + " " + rule.Name)
	var out []string

	add := func(label string) {
		for _, existing := range out {
			if existing == label {
				return
			}
		}
		out = append(out, label)
	}

	if strings.Contains(desc, "credential") || strings.Contains(desc, "secret") || strings.Contains(desc, "token") {
		add("Credential Exposure")
	}
	if strings.Contains(desc, "exfiltrat") || strings.Contains(desc, "outbound") {
		add("Data Exfiltration")
	}
	if strings.Contains(desc, "privilege") || strings.Contains(desc, "permission") {
		add("Privilege Escalation")
	}
	if strings.Contains(desc, "persist") || strings.Contains(desc, "startup") {
		add("Persistence Mechanism")
	}

	hasHook := false
	hasSkill := false
	for _, f := range files {
		switch f.Component {
		case model.ComponentHook:
			hasHook = true
		case model.ComponentSkill, model.ComponentAgent:
			hasSkill = true
		}
	}
	if hasHook && hasSkill {
		add("Hook-Skill Chain")
	}

	if len(out) == 0 {
		add("Cross-File Coordination")
	}
	return out
}

func matchKey(ruleID, subID string, files []model.DiscoveredFile) string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.RelPath)
	}
	sort.Strings(paths)
	return ruleID + "|" + subID + "|" + strings.Join(paths, ",")
}
