package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"skillscan/internal/model"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{1,63}$`)

// Validate checks structural requirements that must hold before a rule
// enters the catalog. Malformed rules fail fast here; individual pattern
// compile errors discovered later during matching are skipped, not fatal.
func Validate(rule Rule) error {
	var errs []string

	if v := strings.TrimSpace(rule.APIVersion); v != "" && v != APIVersion {
		errs = append(errs, fmt.Sprintf("api_version must be %q", APIVersion))
	}

	id := strings.TrimSpace(rule.ID)
	if id == "" {
		errs = append(errs, "id is required")
	} else if !idPattern.MatchString(id) {
		errs = append(errs, "id must match ^[A-Za-z0-9][A-Za-z0-9_-]{1,63}$")
	}
	if strings.TrimSpace(rule.Name) == "" {
		errs = append(errs, "name is required")
	}

	if !knownCategory(rule.Category) {
		errs = append(errs, fmt.Sprintf("category %q is not recognized", rule.Category))
	}
	switch rule.Severity {
	case model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow, model.SeverityInfo:
	default:
		errs = append(errs, "severity must be critical|high|medium|low|info")
	}

	if len(rule.Patterns) == 0 {
		errs = append(errs, "patterns must contain at least one pattern")
	}
	for i, p := range rule.Patterns {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Sprintf("patterns[%d] is empty", i))
		}
	}

	if rule.Confidence < 0 || rule.Confidence > 1 {
		errs = append(errs, "confidence must be between 0 and 1")
	}

	for i, sub := range rule.Correlation {
		prefix := fmt.Sprintf("correlation[%d]", i)
		if strings.TrimSpace(sub.ID) == "" {
			errs = append(errs, prefix+".id is required")
		}
		if len(sub.FilePatterns) == 0 {
			errs = append(errs, prefix+".file_patterns must contain at least one entry")
		}
		if len(sub.Patterns) == 0 {
			errs = append(errs, prefix+".patterns must contain at least one pattern")
		}
		if sub.MaxDistance < 0 {
			errs = append(errs, prefix+".max_distance must be >= 0")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Normalize trims identifier fields and fills defaults so the rest of the
// engine can rely on canonical values.
func Normalize(rule Rule) Rule {
	rule.ID = strings.TrimSpace(rule.ID)
	rule.Name = strings.TrimSpace(rule.Name)
	rule.Severity = model.NormalizeSeverity(string(rule.Severity))
	if rule.APIVersion == "" {
		rule.APIVersion = APIVersion
	}
	if rule.Source == "" {
		rule.Source = SourceCustom
	}
	for i := range rule.FileTypes {
		rule.FileTypes[i] = strings.ToLower(strings.TrimSpace(rule.FileTypes[i]))
	}
	for i := range rule.Components {
		rule.Components[i] = strings.ToLower(strings.TrimSpace(rule.Components[i]))
	}
	for i := range rule.Correlation {
		rule.Correlation[i].ID = strings.TrimSpace(rule.Correlation[i].ID)
	}
	return rule
}

func knownCategory(c model.Category) bool {
	for _, known := range model.Categories() {
		if c == known {
			return true
		}
	}
	return false
}
