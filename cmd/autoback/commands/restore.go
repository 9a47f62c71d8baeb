package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/autoback/internal/backup"
	"github.com/thoreinstein/autoback/internal/cli/prompt"
	"github.com/thoreinstein/autoback/internal/config"
	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/logging"
	"github.com/thoreinstein/autoback/internal/sequence"
)

// errRestoreCanceled is returned by a picker when the user aborts.
var errRestoreCanceled = errors.New("restore canceled")

// pickFunc chooses one of backups and returns its index.
type pickFunc func(backups []backup.Backup) (int, error)

var restorePlain bool

func init() {
	addSessionFlags(restoreCmd)
	restoreCmd.Flags().BoolVar(&restorePlain, "plain", false, "pick from a numbered list instead of the fuzzy finder")
	rootCmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore [sequence]",
	Short: "Restore the session file from a backup",
	Long: `Replace the session file with one of its backups.

The sequence can be a number (3 or 003) or a backup file name. Without an
argument, an interactive picker is shown on a terminal; otherwise the newest
backup is restored. --plain replaces the full-screen picker with a numbered
list.

If the session file changed since the newest backup, it is backed up first,
so restoring never loses work. Fails while another autoback holds the same
backup directory.`,
	Example: `  # Pick a backup interactively
  autoback restore --base ~/Music/Song --session Song

  # Restore a specific backup
  autoback restore 7

  See Also:
    autoback list - List available backups`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := loadSessionConfig()
	if err != nil {
		return err
	}

	seq := 0
	if len(args) == 1 {
		seq, err = parseSequenceArg(args[0], cfg.Policy())
		if err != nil {
			return err
		}
	}

	var pick pickFunc
	if seq == 0 && logging.Interactive(os.Stdin, os.Stdout) {
		pick = pickBackup
		if restorePlain {
			pick = plainPicker(prompt.NewSelector())
		}
	}

	return runRestoreWithWriter(cmd.Context(), cfg, seq, pick, cmd.OutOrStdout())
}

// parseSequenceArg accepts "7", "007" or "Song.bak.007.ptx".
func parseSequenceArg(arg string, policy sequence.Policy) (int, error) {
	seq, err := strconv.Atoi(arg)
	if err != nil {
		var ok bool
		if seq, ok = sequence.ParseSequence(arg, policy); !ok {
			return 0, errors.NewUserError(
				errors.Wrapf(errors.ErrInvalidArgument, "%q is not a backup sequence", arg),
				"Run: autoback list",
			)
		}
	}
	if seq < 1 {
		return 0, errors.NewUserError(
			errors.Wrapf(errors.ErrInvalidArgument, "sequence must be positive (got %d)", seq),
			"Run: autoback list",
		)
	}
	return seq, nil
}

// runRestoreWithWriter restores backup seq. When seq is 0, pick chooses the
// backup, or the newest backup is used if pick is nil.
func runRestoreWithWriter(ctx context.Context, cfg *config.Config, seq int, pick pickFunc, w io.Writer) error {
	mgr, err := newManager(cfg)
	if err != nil {
		return err
	}

	if seq == 0 {
		backups, err := mgr.List()
		if err != nil {
			if errors.Is(err, backup.ErrNoBackupsFound) {
				return errors.NewUserError(err, "Run: autoback snapshot")
			}
			return errors.NewSystemError(err, "Check that the backup directory is readable")
		}

		idx := 0
		if pick != nil {
			idx, err = pick(backups)
			if errors.Is(err, errRestoreCanceled) {
				fmt.Fprintln(w, "Restore canceled")
				return nil
			}
			if err != nil {
				return err
			}
		} else {
			fmt.Fprintf(w, "Using most recent backup: %s\n", backups[idx].Name)
		}
		seq = backups[idx].Sequence
	}

	unlock, err := lockSession(logging.FromContext(ctx), mgr)
	if err != nil {
		return err
	}
	defer unlock()

	restored, err := mgr.Restore(ctx, seq)
	if err != nil {
		switch {
		case errors.Is(err, backup.ErrBackupNotFound):
			return errors.NewUserError(err, "Run: autoback list")
		case errors.Is(err, errors.ErrInvalidArgument):
			return errors.NewUserError(err, "Restore a different backup, or copy it out of the backup directory by hand")
		}
		return errors.NewSystemError(err, "The session file was not modified")
	}

	fmt.Fprintf(w, "%s Restored %s from %s\n",
		color.GreenString("✓"), mgr.SourcePath(), restored.Name)
	return nil
}

// pickBackup shows a fuzzy finder over backups.
func pickBackup(backups []backup.Backup) (int, error) {
	idx, err := fuzzyfinder.Find(
		backups,
		func(i int) string {
			b := backups[i]
			return fmt.Sprintf("%03d  %s  %s", b.Sequence, b.ModTime.Local().Format("2006-01-02 15:04:05"), b.Name)
		},
		fuzzyfinder.WithPromptString("restore> "),
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			b := backups[i]
			latest := ""
			if b.Latest {
				latest = " (newest)"
			}
			return fmt.Sprintf("Name: %s%s\nSequence: %03d\nModified: %s\nSize: %s",
				b.Name, latest, b.Sequence,
				b.ModTime.Local().Format("Mon 2006-01-02 15:04:05"),
				formatSize(b.Size))
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return 0, errRestoreCanceled
		}
		return 0, errors.Wrap(err, "interactive selection failed")
	}
	return idx, nil
}

// plainPicker returns a picker that asks for a number on the selector.
func plainPicker(s *prompt.Selector) pickFunc {
	return func(backups []backup.Backup) (int, error) {
		choices := make([]string, len(backups))
		for i, b := range backups {
			choices[i] = fmt.Sprintf("%03d  %s  %s  %s", b.Sequence,
				b.ModTime.Local().Format("2006-01-02 15:04:05"), b.Name, formatSize(b.Size))
		}
		idx, err := s.Select("Backups, newest first:", choices)
		if errors.Is(err, prompt.ErrSelectionCancelled) {
			return 0, errRestoreCanceled
		}
		if errors.Is(err, prompt.ErrInvalidSelection) {
			return 0, errors.NewUserError(err, "Enter one of the listed numbers")
		}
		return idx, err
	}
}
