package commands

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/autoback/cmd"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version, commit, and build date of autoback.`,
	Args:  cobra.NoArgs,
	Run: func(c *cobra.Command, _ []string) {
		printVersion(c.OutOrStdout())
	},
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "autoback version %s\n", cmd.Version)
	fmt.Fprintf(w, "  commit: %s\n", cmd.Commit)
	fmt.Fprintf(w, "  built:  %s\n", cmd.Date)
	fmt.Fprintf(w, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
