package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/autoback/internal/backup"
	"github.com/thoreinstein/autoback/internal/config"
	"github.com/thoreinstein/autoback/internal/errors"
)

var listJSON bool

func init() {
	addSessionFlags(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups of a session",
	Long: `List the session's backups, newest first.

The newest backup is marked with *; the next backup check compares the
session file against it.`,
	Example: `  autoback list --base ~/Music/Song --session Song
  autoback list --json

  See Also:
    autoback restore - Restore a backup
    autoback next    - Show what the next check would do`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSessionConfig()
	if err != nil {
		return err
	}
	return runListWithWriter(cfg, listJSON, cmd.OutOrStdout())
}

func runListWithWriter(cfg *config.Config, asJSON bool, w io.Writer) error {
	mgr, err := newManager(cfg)
	if err != nil {
		return err
	}

	backups, err := mgr.List()
	if err != nil && !errors.Is(err, backup.ErrNoBackupsFound) {
		return errors.NewSystemError(err, "Check that the backup directory is readable")
	}

	if asJSON {
		if backups == nil {
			backups = []backup.Backup{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(backups)
	}

	if len(backups) == 0 {
		fmt.Fprintf(w, "No backups in %s\n", mgr.BackupDir())
		return nil
	}

	bold := color.New(color.Bold)
	fmt.Fprintf(w, "%s %s\n", bold.Sprint("Backups:"), color.CyanString(mgr.BackupDir()))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  \tSEQ\tNAME\tMODIFIED\tSIZE")
	for _, b := range backups {
		marker := " "
		if b.Latest {
			marker = "*"
		}
		fmt.Fprintf(tw, "  %s\t%03d\t%s\t%s\t%s\n",
			marker,
			b.Sequence,
			b.Name,
			b.ModTime.Local().Format("2006-01-02 15:04:05"),
			formatSize(b.Size))
	}
	return tw.Flush()
}

// formatSize renders a byte count with a binary unit.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
