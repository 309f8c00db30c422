package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"skillscan/internal/diff"
	"skillscan/internal/model"
	"skillscan/internal/sanitize"
)

var (
	diffFailOnNew bool
	diffJSON      bool
)

var diffCmd = &cobra.Command{
	Use:   "diff <baseline.json> <current.json>",
	Short: "Compare two scan reports",
	Long: `Compare a current scan report against a baseline, both produced by
"skillscan scan --output". CI can gate on new findings only, so an
existing backlog does not block unrelated changes.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseline, err := readReport(args[0])
		if err != nil {
			return err
		}
		current, err := readReport(args[1])
		if err != nil {
			return err
		}

		result := diff.Compare(baseline, current)

		if diffJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		} else {
			printDiff(result)
		}

		if diffFailOnNew && result.Summary.NewCount > 0 {
			return ErrGateFailed
		}
		return nil
	},
}

func readReport(path string) (model.ScanReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ScanReport{}, fmt.Errorf("read report %s: %w", path, err)
	}
	var r model.ScanReport
	if err := json.Unmarshal(data, &r); err != nil {
		return model.ScanReport{}, fmt.Errorf("parse report %s: %w", path, err)
	}
	return r, nil
}

func printDiff(result diff.Report) {
	fmt.Printf("new: %d  fixed: %d  unchanged: %d\n\n",
		result.Summary.NewCount, result.Summary.FixedCount, result.Summary.UnchangedCount)

	section := func(title string, findings []model.Finding) {
		if len(findings) == 0 {
			return
		}
		fmt.Println(title)
		for _, f := range findings {
			fmt.Printf("  [%s] %s %s:%d\n", f.Severity, f.RuleID, sanitize.Inline(f.RelPath), f.Line)
		}
		fmt.Println()
	}
	section("New findings:", result.New)
	section("Fixed findings:", result.Fixed)
}

func init() {
	diffCmd.Flags().BoolVar(&diffFailOnNew, "fail-on-new", false, "Exit non-zero when new findings exist")
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Emit the diff as JSON")
	rootCmd.AddCommand(diffCmd)
}
