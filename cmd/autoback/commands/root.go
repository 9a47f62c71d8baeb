// Package commands implements the CLI commands for autoback.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/autoback/cmd"
	"github.com/thoreinstein/autoback/internal/config"
	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/logging"
)

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// configFile holds the value of the --config flag.
var configFile string

// configLoadErr holds any error that occurred during config loading.
var configLoadErr error

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./config.yaml, then $XDG_CONFIG_HOME/autoback/config.yaml)")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("autoback version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	bindSessionFlags()
	// Capture load errors for later reporting
	configLoadErr = config.ReadFile(configFile)
}

var rootCmd = &cobra.Command{
	Use:   "autoback",
	Short: "Rotating backups for long-running session files",
	Long: `autoback periodically copies a session file into a backup directory as
numbered backups (Song.bak.001.ptx, Song.bak.002.ptx, ...). A backup is only
taken when the session file changed since the newest backup, and numbering
wraps back to 001 after the configured number of backups, so the oldest
backup is overwritten first.

The backup directory is the only state: autoback can be stopped and started
at any time and continues from the newest backup it finds.`,
	Example: `  # Back up ~/Music/Song/Song.ptx every 5 minutes, keeping 10 backups
  autoback run ~/Music/Song Song 10 5

  # Same, using flags
  autoback run --base ~/Music/Song --session Song --backups 10 --period 5

  # Take one backup now
  autoback snapshot --base ~/Music/Song --session Song

  See Also: autoback list, autoback restore, autoback config`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setupLogging(cmd)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(nil, "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv("AUTOBACK_DEBUG"); ok {
				switch val {
				case "1", "true":
					v = 2 // Debug
				case "2":
					v = 3 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := logging.NewFormatHandler(cmd.ErrOrStderr(), logging.Format(logFormat), opts)

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.NewUserError(err, "failed to open log file")
		}
		// File output uses JSON format
		handler = logging.Tee{handler, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level: logging.FileLevel(level),
		})}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
