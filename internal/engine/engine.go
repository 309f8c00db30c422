package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"skillscan/internal/model"
	"skillscan/internal/progress"
	"skillscan/internal/rules"
)

// Options configures a full scan.
type Options struct {
	ContextLines int
	Workers      int
	Logger       hclog.Logger
	Sink         progress.Sink
	Now          time.Time
}

// Scan runs every enabled rule against every discovered file, then a
// single correlation pass, and merges the results into one report.
// Matching one rule against one file is a pure function of (rule, file
// content), so the cross product is fanned out across workers with no
// shared mutable state; deterministic output order is re-imposed by task
// index (rule-major, file-minor).
func Scan(ctx context.Context, root string, files []model.DiscoveredFile, catalog []rules.Rule, opts Options) model.ScanReport {
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	sink := opts.Sink
	if sink == nil {
		sink = progress.NoopSink{}
	}
	if opts.Workers < 1 {
		opts.Workers = 4
	}

	matchOpts := MatchOptions{ContextLines: opts.ContextLines, Now: opts.Now}
	started := matchOpts.now()
	runID := uuid.NewString()

	sink.Emit(progress.Event{
		Type:         progress.EventScanStarted,
		At:           started,
		RunID:        runID,
		FilesScanned: len(files),
	})

	// Rules are compiled once and shared read-only across all tasks.
	compiled := make([]compiledRule, 0, len(catalog))
	for _, rule := range catalog {
		if !rule.Enabled {
			continue
		}
		compiled = append(compiled, compileRule(rule, log))
	}

	findings := runMatchTasks(ctx, compiled, files, matchOpts, opts.Workers, sink)

	correlations := AnalyzeCorrelations(files, catalog, matchOpts, log)
	sink.Emit(progress.Event{
		Type:         progress.EventCorrelation,
		RunID:        runID,
		FindingCount: len(correlations),
	})

	completed := time.Now().UTC()
	if !opts.Now.IsZero() {
		completed = opts.Now
	}

	report := model.ScanReport{
		RunID:               runID,
		Root:                root,
		StartedAt:           started,
		CompletedAt:         completed,
		DurationMS:          completed.Sub(started).Milliseconds(),
		FilesScanned:        len(files),
		RulesEvaluated:      len(compiled),
		Findings:            findings,
		CorrelationFindings: correlations,
		CountsBySeverity:    map[string]int{},
		CountsByCategory:    map[string]int{},
	}
	tally(&report)

	sink.Emit(progress.Event{
		Type:         progress.EventScanFinished,
		At:           completed,
		RunID:        runID,
		Status:       "success",
		FindingCount: report.TotalFindings(),
		FilesScanned: len(files),
		DurationMS:   report.DurationMS,
	})
	return report
}

type indexedFindings struct {
	idx      int
	findings []model.Finding
}

func runMatchTasks(ctx context.Context, compiled []compiledRule, files []model.DiscoveredFile, opts MatchOptions, workers int, sink progress.Sink) []model.Finding {
	total := len(compiled) * len(files)
	if total == 0 {
		return nil
	}
	if workers > total {
		workers = total
	}

	sem := make(chan struct{}, workers)
	resCh := make(chan indexedFindings, total)
	var wg sync.WaitGroup

	for ri, cr := range compiled {
		sink.Emit(progress.Event{Type: progress.EventRuleStarted, RuleID: cr.rule.ID})
		for fi, file := range files {
			idx := ri*len(files) + fi
			wg.Add(1)
			go func(idx int, cr compiledRule, file model.DiscoveredFile) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				select {
				case <-ctx.Done():
					resCh <- indexedFindings{idx: idx}
					return
				default:
				}
				resCh <- indexedFindings{idx: idx, findings: matchCompiled(cr, file, opts)}
			}(idx, cr, file)
		}
	}

	wg.Wait()
	close(resCh)

	ordered := make([][]model.Finding, total)
	for item := range resCh {
		if item.idx < 0 || item.idx >= total {
			continue
		}
		ordered[item.idx] = item.findings
	}

	var out []model.Finding
	for ri, cr := range compiled {
		count := 0
		for fi := range files {
			task := ordered[ri*len(files)+fi]
			count += len(task)
			out = append(out, task...)
		}
		sink.Emit(progress.Event{Type: progress.EventRuleFinished, RuleID: cr.rule.ID, FindingCount: count})
	}
	return out
}

func tally(report *model.ScanReport) {
	for _, f := range report.Findings {
		report.CountsBySeverity[string(f.Severity)]++
		report.CountsByCategory[string(f.Category)]++
	}
	for _, f := range report.CorrelationFindings {
		report.CountsBySeverity[string(f.Severity)]++
		report.CountsByCategory[string(f.Category)]++
	}
}
