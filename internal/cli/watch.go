package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"skillscan/internal/engine"
	"skillscan/internal/intake"
	"skillscan/internal/redact"
	"skillscan/internal/report"
	"skillscan/internal/rules"
	"skillscan/internal/suppress"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-scan automatically when files change",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("resolve watch root: %w", err)
		}

		catalog, err := rules.Catalog(scanRulesDir, !scanNoBuiltin)
		if err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("watch init: %w", err)
		}
		defer watcher.Close()

		if err := addWatchRecursive(watcher, absRoot); err != nil {
			return fmt.Errorf("watch %s: %w", absRoot, err)
		}

		rescan := func() {
			discovered, err := intake.Discover(intake.Options{
				Root:     absRoot,
				MaxFiles: scanMaxFiles,
				MaxBytes: scanMaxBytes,
				Logger:   logger,
			})
			if err != nil {
				logger.Error("discovery failed", "error", err)
				return
			}
			r := engine.Scan(cmd.Context(), absRoot, discovered.Files, catalog, engine.Options{
				ContextLines: scanContextLines,
				Workers:      scanWorkers,
				Logger:       logger,
			})
			r.Errors = discovered.Errors
			if supRules, err := suppress.Load(suppress.DefaultPath(absRoot)); err == nil && len(supRules) > 0 {
				r.Findings, r.SuppressedFindings = suppress.Apply(r.Findings, supRules)
				retally(&r)
			}
			r = redact.Report(r)
			report.SortFindings(r.Findings)
			fmt.Print("\033[H\033[2J")
			fmt.Print(report.RenderConsole(r, flagNoColor))
		}

		rescan()
		logger.Info("watching for changes", "root", absRoot)

		var timer *time.Timer
		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if isIgnoredPath(ev.Name) {
					continue
				}
				if ev.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						_ = addWatchRecursive(watcher, ev.Name)
					}
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, rescan)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watch error", "error", err)
			}
		}
	},
}

func addWatchRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if isIgnoredPath(path) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func isIgnoredPath(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		switch part {
		case ".git", ".skillscan", "node_modules", "vendor":
			return true
		}
	}
	return false
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before re-scanning")
}
