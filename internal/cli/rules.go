package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"skillscan/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the rule catalog",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List builtin and custom rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := rules.Catalog(scanRulesDir, !scanNoBuiltin)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSEVERITY\tCATEGORY\tSOURCE\tCORRELATED\tNAME")
		for _, r := range catalog {
			correlated := "-"
			if r.Correlatable() {
				correlated = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Severity, r.Category, r.Source, correlated, r.Name)
		}
		return w.Flush()
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Validate a directory of custom rule files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := rules.LoadDir(args[0])
		if err != nil {
			return err
		}
		if len(loaded) == 0 {
			return fmt.Errorf("no rules found in %s", args[0])
		}
		fmt.Printf("%d rule(s) valid\n", len(loaded))
		return nil
	},
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&scanRulesDir, "rules-dir", "", "Directory of custom rule YAML files")
	rulesCmd.PersistentFlags().BoolVar(&scanNoBuiltin, "no-builtin", false, "Disable the builtin rule catalog")
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
}
