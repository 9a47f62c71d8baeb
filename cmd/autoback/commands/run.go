package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thoreinstein/autoback/internal/config"
	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/logging"
	"github.com/thoreinstein/autoback/internal/scheduler"
)

// runNow holds the value of the --now flag.
var runNow bool

func init() {
	addSessionFlags(runCmd)
	runCmd.Flags().BoolVar(&runNow, "now", false, "check for changes immediately instead of after one period")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [base session backups period [directory [ext]]]",
	Short: "Back up a session file periodically",
	Long: `Watch a session file and back it up every period while it keeps changing.

Every period autoback compares the session file with the newest file in the
backup directory. If the session file is newer, it is copied to the next
numbered backup. After the configured number of backups, numbering wraps to
001 and the oldest backups are overwritten.

The session can be given as positional arguments or with flags, the config
file or AUTOBACK_* environment variables. Positional arguments win.

Runs until interrupted. Only one autoback may back up a given backup
directory at a time.`,
	Example: `  # ~/Music/Song/Song.ptx, 10 backups, every 5 minutes
  autoback run ~/Music/Song Song 10 5

  # Custom backup directory and extension
  autoback run ~/Music/Song Song 20 2.5 Backups ptf

  # Use the config file and check right away
  autoback run --now

  See Also: autoback snapshot, autoback list`,
	Args: runArgs,
	RunE: runRun,
}

// runArgs accepts either no positional arguments or the full positional form.
func runArgs(_ *cobra.Command, args []string) error {
	if n := len(args); n != 0 && (n < 4 || n > 6) {
		return errors.NewUserError(
			errors.Wrapf(errors.ErrInvalidArgument, "expected 4 to 6 arguments, got %d", n),
			"Usage: autoback run base session backups period [directory [ext]]",
		)
	}
	return nil
}

// applyRunArgs copies positional arguments into the configuration. They take
// precedence over flags, the config file and the environment.
func applyRunArgs(args []string) error {
	if len(args) == 0 {
		return nil
	}

	backups, err := strconv.Atoi(args[2])
	if err != nil {
		return errors.NewUserError(
			errors.Wrapf(errors.ErrInvalidArgument, "backups must be a whole number (got %q)", args[2]),
			"Example: autoback run ~/Music/Song Song 10 5",
		)
	}
	period, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return errors.NewUserError(
			errors.Wrapf(errors.ErrInvalidArgument, "period must be a number of minutes (got %q)", args[3]),
			"Example: autoback run ~/Music/Song Song 10 5",
		)
	}

	viper.Set(config.KeyBaseDir, args[0])
	viper.Set(config.KeySession, args[1])
	viper.Set(config.KeyRollover, backups)
	viper.Set(config.KeyPeriodMinutes, period)
	if len(args) >= 5 {
		viper.Set(config.KeyBackupDir, args[4])
	}
	if len(args) >= 6 {
		viper.Set(config.KeyExtension, args[5])
	}
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := applyRunArgs(args); err != nil {
		return err
	}

	cfg, err := loadSessionConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runWithWriter(ctx, cfg, runNow, cmd.OutOrStdout())
}

// runWithWriter backs up the configured session until ctx is done.
func runWithWriter(ctx context.Context, cfg *config.Config, immediate bool, w io.Writer) error {
	logger := logging.FromContext(ctx)

	if err := validateSession(cfg); err != nil {
		return err
	}

	mgr, err := prepareManager(cfg)
	if err != nil {
		return err
	}

	unlock, err := lockSession(logger, mgr)
	if err != nil {
		return err
	}
	defer unlock()

	if !quiet {
		fmt.Fprintf(w, "Backing up %s every %s into %s (%d backups)\n",
			mgr.SourcePath(), cfg.Interval(), mgr.BackupDir(), cfg.Rollover)
	}

	r := &scheduler.Runner{
		Tick: func(ctx context.Context) error {
			_, err := mgr.Snapshot(ctx)
			return err
		},
		Interval:             cfg.Interval(),
		Immediate:            immediate,
		MaxConsecutiveErrors: cfg.MaxErrors,
		Logger:               logger,
	}

	err = r.Run(ctx)
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		if !quiet {
			fmt.Fprintln(w, "Stopped.")
		}
		return nil
	}
	if err != nil {
		return errors.NewSystemError(err, "Fix the error above and start autoback again")
	}
	return nil
}
