package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/thoreinstein/autoback/internal/backup"
	"github.com/thoreinstein/autoback/internal/config"
	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/paths"
	"github.com/thoreinstein/autoback/internal/scheduler"
)

// sessionFlags is shared by every command that works on a session. The flags
// are bound to their config keys, so each can also come from the config file
// or an AUTOBACK_* environment variable.
var sessionFlags = newSessionFlags()

// sessionFlagKeys maps flag names to config keys.
var sessionFlagKeys = map[string]string{
	"base":       config.KeyBaseDir,
	"session":    config.KeySession,
	"ext":        config.KeyExtension,
	"dir":        config.KeyBackupDir,
	"backups":    config.KeyRollover,
	"period":     config.KeyPeriodMinutes,
	"max-errors": config.KeyMaxErrors,
}

func newSessionFlags() *pflag.FlagSet {
	d := config.Default()
	fs := pflag.NewFlagSet("session", pflag.ContinueOnError)
	fs.String("base", "", "directory containing the session file")
	fs.String("session", "", "session name (file name without extension)")
	fs.String("ext", d.Extension, "session file extension")
	fs.String("dir", d.BackupDir, "backup directory, relative to --base unless absolute")
	fs.Int("backups", d.Rollover, "number of backups to keep before numbering wraps to 001")
	fs.Float64("period", d.PeriodMinutes, "minutes between backup checks (fractions allowed)")
	fs.Int("max-errors", d.MaxErrors, "stop after the same error repeats this many times in a row (0: never)")
	return fs
}

// addSessionFlags adds the shared session flags to cmd.
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().AddFlagSet(sessionFlags)
}

// bindSessionFlags binds the session flags to Viper. It must run after
// config.Init, which resets Viper.
func bindSessionFlags() {
	for name, key := range sessionFlagKeys {
		if err := viper.BindPFlag(key, sessionFlags.Lookup(name)); err != nil {
			slog.Debug("binding flag", "flag", name, "error", err)
		}
	}
}

// loadSessionConfig returns the validated effective configuration.
func loadSessionConfig() (*config.Config, error) {
	if configLoadErr != nil {
		return nil, errors.NewConfigError(configLoadErr)
	}

	cfg, err := config.Current()
	if err != nil {
		return nil, errors.NewConfigError(err)
	}
	if err := validateSession(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateSession reports an invalid configuration as a user error.
func validateSession(cfg *config.Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return errors.NewUserError(
			errors.Wrap(errors.Join(errs...), "invalid configuration"),
			"Set --base and --session, or run: autoback config init",
		)
	}
	return nil
}

// newManager creates a backup manager for the configured session.
func newManager(cfg *config.Config) (*backup.Manager, error) {
	mgr, err := backup.NewManager(backup.Session{
		BaseDir:       cfg.BaseDir,
		Name:          cfg.Session,
		Extension:     cfg.Extension,
		BackupDirName: cfg.BackupDir,
		Rollover:      cfg.Rollover,
	})
	if err != nil {
		return nil, errors.NewConfigError(err)
	}
	return mgr, nil
}

// prepareManager creates a manager and checks that the session file exists.
func prepareManager(cfg *config.Config) (*backup.Manager, error) {
	mgr, err := newManager(cfg)
	if err != nil {
		return nil, err
	}
	if err := mgr.Prepare(); err != nil {
		if errors.Is(err, backup.ErrSourceMissing) {
			return nil, errors.NewUserError(err, "Check --base, --session and --ext")
		}
		return nil, errors.NewSystemError(err, "Check that the backup directory is writable")
	}
	return mgr, nil
}

// lockSession takes the single-instance lock for mgr's backup directory.
// Every command that writes to the backup directory or the session file
// holds it. The returned func releases the lock.
func lockSession(logger *slog.Logger, mgr *backup.Manager) (func(), error) {
	lock, err := scheduler.Lock(paths.LockPath(mgr.BackupDir()))
	if err != nil {
		if errors.Is(err, errors.ErrAlreadyRunning) {
			return nil, errors.NewUserError(err, "Another autoback is already using "+mgr.BackupDir())
		}
		return nil, errors.NewSystemError(err, "Check that the state directory is writable")
	}
	logger.Debug("lock acquired", "path", lock.Path())

	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("releasing lock", "error", err)
		}
	}, nil
}
