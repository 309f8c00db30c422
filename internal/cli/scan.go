package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"skillscan/internal/badge"
	"skillscan/internal/engine"
	"skillscan/internal/intake"
	"skillscan/internal/model"
	"skillscan/internal/policy"
	"skillscan/internal/progress"
	"skillscan/internal/redact"
	"skillscan/internal/report"
	"skillscan/internal/rules"
	"skillscan/internal/safefile"
	"skillscan/internal/suppress"
	"skillscan/internal/tui"
)

var (
	scanWorkers      int
	scanContextLines int
	scanMaxFiles     int
	scanMaxBytes     int64
	scanRulesDir     string
	scanNoBuiltin    bool
	scanFailOn       string
	scanMaxFindings  int
	scanMinRiskScore int
	scanFormat       string
	scanOutput       string
	scanSarif        string
	scanMarkdown     string
	scanSuppressions string
	scanNoSuppress   bool
	scanTUI          bool
	scanVerbose      bool
	scanBadge        string
	scanShields      string
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a directory of agent artifacts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("resolve scan root: %w", err)
		}

		applyScanConfig(cmd)

		catalog, err := rules.Catalog(scanRulesDir, !scanNoBuiltin)
		if err != nil {
			return err
		}
		if len(catalog) == 0 {
			return fmt.Errorf("no rules to evaluate")
		}

		discovered, err := intake.Discover(intake.Options{
			Root:     absRoot,
			MaxFiles: scanMaxFiles,
			MaxBytes: scanMaxBytes,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		logger.Debug("discovery complete",
			"files", len(discovered.Files),
			"skipped", discovered.SkippedFiles,
			"bytes", discovered.IncludedBytes)

		scanReport := runScan(cmd, absRoot, discovered, catalog)
		scanReport.Errors = discovered.Errors

		if !scanNoSuppress {
			path := scanSuppressions
			if path == "" {
				path = suppress.DefaultPath(absRoot)
			}
			supRules, err := suppress.Load(path)
			if err != nil {
				return fmt.Errorf("load suppressions: %w", err)
			}
			if len(supRules) > 0 {
				active, suppressed := suppress.Apply(scanReport.Findings, supRules)
				scanReport.Findings = active
				scanReport.SuppressedFindings = suppressed
				retally(&scanReport)
			}
		}

		scanReport = redact.Report(scanReport)

		if err := writeArtifacts(scanReport); err != nil {
			return err
		}
		if err := printReport(scanReport); err != nil {
			return err
		}

		gate := policy.Gate{
			FailOnSeverity: scanFailOn,
			MaxFindings:    scanMaxFindings,
			MinRiskScore:   scanMinRiskScore,
		}
		decision := policy.Evaluate(scanReport, gate)
		if !decision.Passed {
			for _, v := range decision.Violations {
				logger.Error("gate violation", "code", v.Code, "detail", v.Message)
			}
			return ErrGateFailed
		}
		return nil
	},
}

// runScan executes the engine with the selected progress surface: the
// bubbletea TUI on an interactive terminal, a plain line sink when
// verbose, or silence.
func runScan(cmd *cobra.Command, root string, discovered intake.Result, catalog []rules.Rule) model.ScanReport {
	opts := engine.Options{
		ContextLines: scanContextLines,
		Workers:      scanWorkers,
		Logger:       logger,
	}

	interactive := isatty.IsTerminal(os.Stdout.Fd())
	if scanTUI && interactive {
		events := make(chan progress.Event, 256)
		opts.Sink = progress.NewChannelSink(events)

		var scanReport model.ScanReport
		done := make(chan struct{})
		go func() {
			defer close(done)
			defer close(events)
			scanReport = engine.Scan(cmd.Context(), root, discovered.Files, catalog, opts)
		}()
		if err := tui.Run(tui.Options{Events: events}); err != nil {
			logger.Warn("tui exited", "error", err)
		}
		<-done
		return scanReport
	}

	if scanVerbose {
		opts.Sink = progress.NewPlainSink(os.Stderr)
	}
	return engine.Scan(cmd.Context(), root, discovered.Files, catalog, opts)
}

func writeArtifacts(r model.ScanReport) error {
	if scanOutput != "" {
		if err := report.WriteJSON(scanOutput, r); err != nil {
			return err
		}
		logger.Info("wrote report", "path", scanOutput)
	}
	if scanSarif != "" {
		if err := report.WriteSARIF(scanSarif, r); err != nil {
			return err
		}
		logger.Info("wrote sarif report", "path", scanSarif)
	}
	if scanMarkdown != "" {
		if err := report.WriteMarkdown(scanMarkdown, r); err != nil {
			return err
		}
		logger.Info("wrote markdown report", "path", scanMarkdown)
	}
	if scanBadge != "" || scanShields != "" {
		grade, color := badge.Grade(r)
		if scanBadge != "" {
			if err := safefile.WriteFileAtomic(scanBadge, badge.RenderSVG("skillscan", grade, color), 0o644); err != nil {
				return err
			}
			logger.Info("wrote badge", "path", scanBadge, "grade", grade)
		}
		if scanShields != "" {
			if err := safefile.WriteFileAtomic(scanShields, badge.ShieldsJSON("skillscan", grade, color), 0o644); err != nil {
				return err
			}
			logger.Info("wrote shields endpoint", "path", scanShields, "grade", grade)
		}
	}
	return nil
}

func printReport(r model.ScanReport) error {
	switch scanFormat {
	case "console", "":
		report.SortFindings(r.Findings)
		plain := flagNoColor || !isatty.IsTerminal(os.Stdout.Fd())
		fmt.Print(report.RenderConsole(r, plain))
	case "json":
		return report.WriteJSONTo(os.Stdout, r)
	case "markdown":
		fmt.Print(report.RenderMarkdown(r))
	default:
		return fmt.Errorf("unknown format %q (want console, json, or markdown)", scanFormat)
	}
	return nil
}

// applyScanConfig overlays config-file values beneath explicit flags.
func applyScanConfig(cmd *cobra.Command) {
	flags := cmd.Flags()
	if !flags.Changed("workers") && cfg.Workers != nil {
		scanWorkers = *cfg.Workers
	}
	if !flags.Changed("context-lines") && cfg.ContextLines != nil {
		scanContextLines = *cfg.ContextLines
	}
	if !flags.Changed("max-files") && cfg.MaxFiles != nil {
		scanMaxFiles = *cfg.MaxFiles
	}
	if !flags.Changed("max-bytes") && cfg.MaxBytes != nil {
		scanMaxBytes = *cfg.MaxBytes
	}
	if !flags.Changed("rules-dir") && cfg.RulesDir != "" {
		scanRulesDir = cfg.RulesDir
	}
	if !flags.Changed("no-builtin") && cfg.NoBuiltin != nil {
		scanNoBuiltin = *cfg.NoBuiltin
	}
	if !flags.Changed("fail-on") && cfg.FailOn != "" {
		scanFailOn = cfg.FailOn
	}
	if !flags.Changed("format") && cfg.Format != "" {
		scanFormat = cfg.Format
	}
	if !flags.Changed("tui") && cfg.TUI != nil {
		scanTUI = *cfg.TUI
	}
}

func retally(r *model.ScanReport) {
	r.CountsBySeverity = map[string]int{}
	r.CountsByCategory = map[string]int{}
	for _, f := range r.Findings {
		r.CountsBySeverity[string(f.Severity)]++
		r.CountsByCategory[string(f.Category)]++
	}
	for _, f := range r.CorrelationFindings {
		r.CountsBySeverity[string(f.Severity)]++
		r.CountsByCategory[string(f.Category)]++
	}
}

func init() {
	f := scanCmd.Flags()
	f.IntVar(&scanWorkers, "workers", 4, "Concurrent match workers")
	f.IntVar(&scanContextLines, "context-lines", engine.DefaultContextLines, "Context lines around each match")
	f.IntVar(&scanMaxFiles, "max-files", intake.DefaultMaxFiles, "Maximum files to scan")
	f.Int64Var(&scanMaxBytes, "max-bytes", intake.DefaultMaxBytes, "Maximum total bytes to scan")
	f.StringVar(&scanRulesDir, "rules-dir", "", "Directory of custom rule YAML files")
	f.BoolVar(&scanNoBuiltin, "no-builtin", false, "Disable the builtin rule catalog")
	f.StringVar(&scanFailOn, "fail-on", "", "Fail when findings at or above this severity exist")
	f.IntVar(&scanMaxFindings, "max-findings", 0, "Fail when total findings exceed this count")
	f.IntVar(&scanMinRiskScore, "min-risk-score", 0, "Fail when any finding scores at or above this")
	f.StringVar(&scanFormat, "format", "console", "Stdout format: console, json, markdown")
	f.StringVar(&scanOutput, "output", "", "Write full JSON report to this path")
	f.StringVar(&scanSarif, "sarif", "", "Write SARIF 2.1.0 report to this path")
	f.StringVar(&scanMarkdown, "markdown", "", "Write markdown report to this path")
	f.StringVar(&scanSuppressions, "suppressions", "", "Suppressions file (default .skillscan/suppressions.yaml under the root)")
	f.BoolVar(&scanNoSuppress, "no-suppress", false, "Ignore the suppressions file")
	f.BoolVar(&scanTUI, "tui", false, "Interactive progress UI")
	f.BoolVar(&scanVerbose, "verbose", false, "Stream progress events to stderr")
	f.StringVar(&scanBadge, "badge", "", "Write risk grade badge SVG to this path")
	f.StringVar(&scanShields, "shields", "", "Write shields.io endpoint JSON to this path")
}
