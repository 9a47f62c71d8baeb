package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/autoback/internal/backup"
	"github.com/thoreinstein/autoback/internal/config"
	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/sequence"
)

var nextJSON bool

func init() {
	addSessionFlags(nextCmd)
	nextCmd.Flags().BoolVar(&nextJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(nextCmd)
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show what the next backup check would do",
	Long: `Evaluate the session without writing anything and report whether a
backup is due and which file it would be written to.`,
	Example: `  autoback next --base ~/Music/Song --session Song
  autoback next --json

  See Also: autoback snapshot, autoback list`,
	Args: cobra.NoArgs,
	RunE: runNext,
}

// nextOutput represents the JSON output for next.
type nextOutput struct {
	Backup      bool   `json:"backup"`
	Sequence    int    `json:"sequence,omitempty"`
	Reason      string `json:"reason"`
	Destination string `json:"destination,omitempty"`
	Latest      string `json:"latest,omitempty"`
}

func runNext(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSessionConfig()
	if err != nil {
		return err
	}
	return runNextWithWriter(cmd.Context(), cfg, nextJSON, cmd.OutOrStdout())
}

func runNextWithWriter(ctx context.Context, cfg *config.Config, asJSON bool, w io.Writer) error {
	mgr, err := newManager(cfg)
	if err != nil {
		return err
	}

	decision, err := decide(ctx, mgr)
	if err != nil {
		if errors.Is(err, backup.ErrSourceMissing) {
			return errors.NewUserError(err, "Check --base, --session and --ext")
		}
		return errors.NewSystemError(err, "Check that the backup directory is readable")
	}

	out := nextOutput{
		Backup: decision.Backup,
		Reason: string(decision.Reason),
	}
	if decision.Backup {
		out.Sequence = decision.Sequence
		out.Destination = filepath.Join(mgr.BackupDir(),
			sequence.DestinationName(cfg.Session, decision.Sequence, mgr.Policy()))
	}
	if decision.Latest != nil {
		out.Latest = decision.Latest.Name
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if out.Backup {
		fmt.Fprintf(w, "Next backup: %s (%s)\n", filepath.Base(out.Destination), out.Reason)
	} else {
		fmt.Fprintf(w, "No backup due (%s)\n", out.Reason)
	}
	if out.Latest != "" {
		fmt.Fprintf(w, "Newest file: %s\n", out.Latest)
	}
	return nil
}

// decide evaluates the session without writing. A backup directory that does
// not exist yet is treated as empty.
func decide(ctx context.Context, mgr *backup.Manager) (sequence.Decision, error) {
	if _, err := os.Stat(mgr.BackupDir()); os.IsNotExist(err) {
		info, err := os.Stat(mgr.SourcePath())
		if err != nil {
			if os.IsNotExist(err) {
				return sequence.Decision{}, errors.Wrapf(backup.ErrSourceMissing, "%s", mgr.SourcePath())
			}
			return sequence.Decision{}, errors.Wrapf(err, "stat %s", mgr.SourcePath())
		}
		return sequence.Next(info.ModTime(), nil, mgr.Policy()), nil
	}
	return mgr.Decide(ctx)
}
