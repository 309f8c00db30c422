package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"skillscan/internal/doctor"
)

var doctorStrict bool

var doctorCmd = &cobra.Command{
	Use:   "doctor [path]",
	Short: "Check the scanner environment",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return err
		}

		report := doctor.BuildReport(doctor.Options{
			Root:     absRoot,
			RulesDir: scanRulesDir,
		})
		fmt.Print(doctor.Render(report))

		if report.Failed(doctorStrict) {
			return ErrGateFailed
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "Treat warnings as failures")
	rootCmd.AddCommand(doctorCmd)
}
