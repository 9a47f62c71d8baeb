package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/autoback/internal/config"
	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/logging"
	"github.com/thoreinstein/autoback/internal/sequence"
)

func init() {
	addSessionFlags(snapshotCmd)
	rootCmd.AddCommand(snapshotCmd)
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Take one backup now if the session changed",
	Long: `Run a single backup check immediately.

If the session file is newer than the newest file in the backup directory,
it is copied to the next numbered backup. Otherwise nothing is written.
Fails while another autoback holds the same backup directory.`,
	Example: `  autoback snapshot --base ~/Music/Song --session Song

  See Also: autoback next, autoback run`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSessionConfig()
	if err != nil {
		return err
	}
	return runSnapshotWithWriter(cmd.Context(), cfg, cmd.OutOrStdout())
}

func runSnapshotWithWriter(ctx context.Context, cfg *config.Config, w io.Writer) error {
	mgr, err := prepareManager(cfg)
	if err != nil {
		return err
	}

	unlock, err := lockSession(logging.FromContext(ctx), mgr)
	if err != nil {
		return err
	}
	defer unlock()

	res, err := mgr.Snapshot(ctx)
	if err != nil {
		return errors.NewSystemError(err, "Check that the backup directory is readable and writable")
	}

	switch {
	case res.Decision.Backup:
		fmt.Fprintf(w, "%s Created %s (%d bytes) at %s\n",
			color.GreenString("✓"), filepath.Base(res.Path), res.Bytes, res.At.Local().Format(time.TimeOnly))
	case res.Decision.Reason == sequence.ReasonUnparseable:
		fmt.Fprintf(w, "%s Newest file %q in %s is not a backup; nothing written\n",
			color.YellowString("!"), res.Decision.Latest.Name, mgr.BackupDir())
	default:
		fmt.Fprintf(w, "No changes since %s\n", res.Decision.Latest.Name)
	}
	return nil
}
