package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"skillscan/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("skillscan %s (%s/%s)\n", version.Version, runtime.GOOS, runtime.GOARCH)
	},
}
