// Package doctor runs preflight checks over the scanner's own
// environment: config layers, the rule catalog, the suppressions file,
// and workspace permissions.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"skillscan/internal/config"
	"skillscan/internal/rules"
	"skillscan/internal/suppress"
)

type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warning"
	StatusFail Status = "fail"
)

type CheckResult struct {
	ID       string            `json:"id"`
	Status   Status            `json:"status"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type Summary struct {
	Pass    int `json:"pass"`
	Warning int `json:"warning"`
	Fail    int `json:"fail"`
}

type Report struct {
	Checks  []CheckResult `json:"checks"`
	Summary Summary       `json:"summary"`
}

func (r Report) Failed(strict bool) bool {
	if r.Summary.Fail > 0 {
		return true
	}
	return strict && r.Summary.Warning > 0
}

type Options struct {
	Root     string
	RulesDir string
}

// BuildReport runs every check. Checks never abort each other; a broken
// config still lets the rule catalog check run.
func BuildReport(opts Options) Report {
	report := Report{Checks: make([]CheckResult, 0, 4)}
	add := func(res CheckResult) {
		report.Checks = append(report.Checks, res)
		switch res.Status {
		case StatusFail:
			report.Summary.Fail++
		case StatusWarn:
			report.Summary.Warning++
		default:
			report.Summary.Pass++
		}
	}

	add(configCheck(opts.Root))
	add(catalogCheck(opts.RulesDir))
	add(suppressionsCheck(opts.Root))
	add(workspaceCheck(opts.Root))

	return report
}

func configCheck(root string) CheckResult {
	if _, err := config.Load(); err != nil {
		return CheckResult{ID: "config.load", Status: StatusFail,
			Message: fmt.Sprintf("failed to load config: %v", err)}
	}
	meta := map[string]string{}
	if home, err := os.UserHomeDir(); err == nil {
		meta["global_config"] = fileState(filepath.Join(home, ".skillscan", "config.yaml"))
	}
	meta["local_config"] = fileState(filepath.Join(root, ".skillscan", "config.yaml"))
	return CheckResult{ID: "config.load", Status: StatusPass, Message: "configuration loaded", Metadata: meta}
}

func catalogCheck(rulesDir string) CheckResult {
	catalog, err := rules.Catalog(rulesDir, true)
	if err != nil {
		return CheckResult{ID: "rules.catalog", Status: StatusFail,
			Message: fmt.Sprintf("rule catalog failed to load: %v", err)}
	}
	enabled := 0
	correlated := 0
	for _, r := range catalog {
		if r.Enabled {
			enabled++
		}
		if r.Correlatable() {
			correlated++
		}
	}
	if enabled == 0 {
		return CheckResult{ID: "rules.catalog", Status: StatusWarn, Message: "no enabled rules"}
	}
	return CheckResult{
		ID:      "rules.catalog",
		Status:  StatusPass,
		Message: fmt.Sprintf("%d rule(s) loaded", len(catalog)),
		Metadata: map[string]string{
			"enabled":    fmt.Sprintf("%d", enabled),
			"correlated": fmt.Sprintf("%d", correlated),
		},
	}
}

func suppressionsCheck(root string) CheckResult {
	path := suppress.DefaultPath(root)
	supRules, err := suppress.Load(path)
	if err != nil {
		return CheckResult{ID: "suppressions.load", Status: StatusFail,
			Message: fmt.Sprintf("suppressions file is invalid: %v", err),
			Metadata: map[string]string{"path": path}}
	}
	if len(supRules) == 0 {
		return CheckResult{ID: "suppressions.load", Status: StatusPass, Message: "no suppressions configured"}
	}
	expired := 0
	now := time.Now().UTC()
	for _, r := range supRules {
		if r.IsExpired(now) {
			expired++
		}
	}
	if expired > 0 {
		return CheckResult{
			ID:      "suppressions.load",
			Status:  StatusWarn,
			Message: fmt.Sprintf("%d of %d suppression(s) expired", expired, len(supRules)),
			Metadata: map[string]string{"path": path},
		}
	}
	return CheckResult{
		ID:      "suppressions.load",
		Status:  StatusPass,
		Message: fmt.Sprintf("%d suppression(s) active", len(supRules)),
		Metadata: map[string]string{"path": path},
	}
}

func workspaceCheck(root string) CheckResult {
	dir := filepath.Join(root, ".skillscan")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return CheckResult{ID: "workspace.permissions", Status: StatusFail,
			Message: fmt.Sprintf("create .skillscan dir: %v", err)}
	}
	f, err := os.CreateTemp(dir, ".doctor-write-*")
	if err != nil {
		return CheckResult{ID: "workspace.permissions", Status: StatusFail,
			Message: fmt.Sprintf("write test in .skillscan failed: %v", err)}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return CheckResult{ID: "workspace.permissions", Status: StatusPass,
		Message: ".skillscan directory is writable", Metadata: map[string]string{"path": dir}}
}

func fileState(path string) string {
	if _, err := os.Stat(path); err == nil {
		return "present"
	}
	return "missing"
}

// Render formats the report for the terminal.
func Render(r Report) string {
	var b strings.Builder
	for _, c := range r.Checks {
		mark := "ok"
		switch c.Status {
		case StatusWarn:
			mark = "warn"
		case StatusFail:
			mark = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%-4s] %-24s %s\n", mark, c.ID, c.Message))
		for k, v := range c.Metadata {
			b.WriteString(fmt.Sprintf("       %s=%s\n", k, v))
		}
	}
	b.WriteString(fmt.Sprintf("\n%d passed, %d warning(s), %d failure(s)\n",
		r.Summary.Pass, r.Summary.Warning, r.Summary.Fail))
	return b.String()
}
