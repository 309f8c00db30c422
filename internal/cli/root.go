// Package cli wires the skillscan commands together.
package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"skillscan/internal/config"
)

// ErrGateFailed signals that the scan completed but the CI gate rejected
// the result. Callers map it to a distinct exit code; it carries no
// message because the report was already printed.
var ErrGateFailed = errors.New("policy gate failed")

var (
	flagLogLevel string
	flagNoColor  bool

	cfg    config.Config
	logger hclog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "skillscan",
	Short: "Security scanner for AI agent artifacts",
	Long: `skillscan audits agent definitions, skills, hooks, and settings for
prompt injection, credential leaks, exfiltration chains, and other risky
patterns. It runs fully offline and is designed for CI gates.

Examples:
  # Scan the current repository
  skillscan scan .

  # Fail CI on HIGH or above, emit SARIF for code scanning
  skillscan scan . --fail-on high --sarif results.sarif

  # Re-scan automatically while editing agent files
  skillscan watch .`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		level := flagLogLevel
		if level == "" {
			level = os.Getenv("SKILLSCAN_LOG_LEVEL")
		}
		if level == "" {
			level = cfg.LogLevel
		}
		if level == "" {
			level = "warn"
		}
		logger = hclog.New(&hclog.LoggerOptions{
			Name:   "skillscan",
			Level:  hclog.LevelFromString(strings.ToLower(level)),
			Output: os.Stderr,
			Color:  colorOption(),
		})
		return nil
	},
}

func colorOption() hclog.ColorOption {
	if flagNoColor {
		return hclog.ColorOff
	}
	return hclog.AutoColor
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}
