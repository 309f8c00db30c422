package doctor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func checkByID(t *testing.T, r Report, id string) CheckResult {
	t.Helper()
	for _, c := range r.Checks {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("check %s missing from report", id)
	return CheckResult{}
}

func TestBuildReport_CleanWorkspace(t *testing.T) {
	root := t.TempDir()

	r := BuildReport(Options{Root: root})
	if len(r.Checks) != 4 {
		t.Fatalf("expected 4 checks, got %d", len(r.Checks))
	}
	if r.Summary.Fail != 0 {
		t.Fatalf("clean workspace should not fail: %+v", r.Checks)
	}

	catalog := checkByID(t, r, "rules.catalog")
	if catalog.Status != StatusPass {
		t.Errorf("builtin catalog should pass: %+v", catalog)
	}
	if catalog.Metadata["enabled"] == "0" {
		t.Error("builtin catalog reports zero enabled rules")
	}

	sup := checkByID(t, r, "suppressions.load")
	if sup.Status != StatusPass || sup.Message != "no suppressions configured" {
		t.Errorf("unexpected suppressions check: %+v", sup)
	}

	ws := checkByID(t, r, "workspace.permissions")
	if ws.Status != StatusPass {
		t.Errorf("workspace check should pass: %+v", ws)
	}
}

func TestBuildReport_ExpiredSuppressionWarns(t *testing.T) {
	root := t.TempDir()
	supDir := filepath.Join(root, ".skillscan")
	if err := os.MkdirAll(supDir, 0o700); err != nil {
		t.Fatal(err)
	}
	content := `suppressions:
  - rule_id: CRED-001
    reason: "old exception"
    expires: "2020-01-01"
`
	if err := os.WriteFile(filepath.Join(supDir, "suppressions.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	r := BuildReport(Options{Root: root})
	sup := checkByID(t, r, "suppressions.load")
	if sup.Status != StatusWarn {
		t.Fatalf("expired suppression should warn: %+v", sup)
	}
	if !strings.Contains(sup.Message, "expired") {
		t.Errorf("message should mention expiry: %q", sup.Message)
	}
}

func TestBuildReport_InvalidSuppressionsFails(t *testing.T) {
	root := t.TempDir()
	supDir := filepath.Join(root, ".skillscan")
	if err := os.MkdirAll(supDir, 0o700); err != nil {
		t.Fatal(err)
	}
	content := `suppressions:
  - rule_id: CRED-001
`
	if err := os.WriteFile(filepath.Join(supDir, "suppressions.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	r := BuildReport(Options{Root: root})
	sup := checkByID(t, r, "suppressions.load")
	if sup.Status != StatusFail {
		t.Fatalf("invalid suppressions should fail: %+v", sup)
	}
	if !r.Failed(false) {
		t.Error("report with a failing check must report Failed")
	}
}

func TestReport_FailedStrict(t *testing.T) {
	r := Report{Summary: Summary{Pass: 3, Warning: 1}}
	if r.Failed(false) {
		t.Error("warnings alone should pass in non-strict mode")
	}
	if !r.Failed(true) {
		t.Error("warnings should fail in strict mode")
	}
}

func TestRender(t *testing.T) {
	r := Report{
		Checks: []CheckResult{
			{ID: "config.load", Status: StatusPass, Message: "configuration loaded"},
			{ID: "rules.catalog", Status: StatusWarn, Message: "no enabled rules"},
			{ID: "workspace.permissions", Status: StatusFail, Message: "read-only workspace"},
		},
		Summary: Summary{Pass: 1, Warning: 1, Fail: 1},
	}
	out := Render(r)
	for _, want := range []string{
		"[ok  ] config.load",
		"[warn] rules.catalog",
		"[FAIL] workspace.permissions",
		"1 passed, 1 warning(s), 1 failure(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q:\n%s", want, out)
		}
	}
}
