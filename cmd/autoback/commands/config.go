package commands

import (
	"encoding/json"
	"fmt"
	"context"
	"io"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/autoback/internal/config"
	"github.com/thoreinstein/autoback/internal/editor"
	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/paths"
	"github.com/thoreinstein/autoback/pkg/fileutil"
)

var (
	configShowFormat string
	configInitForce  bool
)

func init() {
	addSessionFlags(configShowCmd)
	configShowCmd.Flags().StringVar(&configShowFormat, "format", "yaml", "output format: yaml, toml, json")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage autoback configuration",
	Long: `Manage autoback configuration.

Settings are read from config.yaml in the current directory or in
$XDG_CONFIG_HOME/autoback, then from AUTOBACK_* environment variables
(e.g. AUTOBACK_SESSION), then from flags.

Without a subcommand, shows the effective configuration.`,
	Example: `  # Show effective configuration
  autoback config

  # Write a starter config file
  autoback config init

See Also: autoback run`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Show the configuration after merging defaults, config file, environment and flags.`,
	Example: `  autoback config show
  autoback config show --format toml

See Also: autoback config init`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file",
	Long: `Write a config file with default values. The file is written to
$XDG_CONFIG_HOME/autoback/config.yaml unless a path is given.

Fill in base_dir and session, then run autoback run without arguments.`,
	Example: `  autoback config init
  autoback config init ./config.yaml

See Also: autoback config show`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in an editor",
	Long: `Open the config file in $AUTOBACK_EDITOR, $EDITOR or $VISUAL, falling
back to nano or vi. The file is the one given with --config, else the one
that was loaded, else $XDG_CONFIG_HOME/autoback/config.yaml, which is
created with default values if it does not exist.

The file is checked for YAML errors when the editor exits.`,
	Example: `  autoback config edit
  EDITOR="code --wait" autoback config edit

See Also: autoback config show`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configLoadErr != nil {
		return errors.NewConfigError(configLoadErr)
	}
	cfg, err := config.Current()
	if err != nil {
		return errors.NewConfigError(err)
	}
	return runConfigShowWithWriter(cfg, configShowFormat, config.FileUsed(), cmd.OutOrStdout())
}

func runConfigShowWithWriter(cfg *config.Config, format, fileUsed string, w io.Writer) error {
	var data []byte
	var err error

	switch format {
	case "yaml", "":
		data, err = yaml.Marshal(cfg)
	case "toml":
		data, err = toml.Marshal(cfg)
	case "json":
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	default:
		return errors.NewUserError(
			errors.Wrapf(errors.ErrInvalidArgument, "unknown format %q", format),
			"Use --format yaml, toml or json",
		)
	}
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	if fileUsed != "" && format != "json" {
		fmt.Fprintf(w, "# %s\n", fileUsed)
	}
	_, err = w.Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(paths.ConfigDir(), "config.yaml")
	if len(args) == 1 {
		path = paths.ExpandHome(args[0])
	}
	return runConfigInitWithWriter(path, configInitForce, cmd.OutOrStdout())
}

func runConfigInitWithWriter(path string, force bool, w io.Writer) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.NewUserError(
			errors.Newf("config file %s already exists", path),
			"Use --force to overwrite it",
		)
	}

	if err := paths.EnsureDir(filepath.Dir(path), paths.DefaultDirPerm); err != nil {
		return errors.NewSystemError(errors.Wrap(err, "creating config directory"), "")
	}
	if err := fileutil.AtomicWriteYAML(path, config.Default()); err != nil {
		return errors.NewSystemError(errors.Wrapf(err, "writing %s", path), "")
	}

	fmt.Fprintf(w, "Wrote %s\n", path)
	return nil
}

// maxConfigSize bounds the config file read back after editing.
const maxConfigSize = 64 << 10

// fileOpener opens a file for interactive editing.
type fileOpener interface {
	Open(ctx context.Context, path string) error
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	path := configFile
	if path == "" {
		path = config.FileUsed()
	}
	if path == "" {
		path = filepath.Join(paths.ConfigDir(), "config.yaml")
	}

	ed := editor.New()
	ed.Stdout = cmd.OutOrStdout()
	ed.Stderr = cmd.ErrOrStderr()
	return runConfigEditWithWriter(cmd.Context(), paths.ExpandHome(path), ed, cmd.OutOrStdout())
}

func runConfigEditWithWriter(ctx context.Context, path string, ed fileOpener, w io.Writer) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := runConfigInitWithWriter(path, false, w); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "Location: %s\n", path)
	if err := ed.Open(ctx, path); err != nil {
		if errors.Is(err, editor.ErrNoEditor) {
			return errors.NewUserError(err, "Set $EDITOR to your preferred editor")
		}
		return errors.NewSystemError(err, "")
	}

	data, err := fileutil.ReadFileLimit(path, maxConfigSize)
	if err != nil {
		if errors.Is(err, fileutil.ErrFileTooLarge) {
			return errors.NewUserError(err, "A config file only holds a few settings; check that the right file was edited")
		}
		return errors.NewSystemError(errors.Wrapf(err, "reading %s", path), "")
	}
	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return errors.NewUserError(
			errors.Wrapf(err, "parsing %s", path),
			"Run autoback config edit again to fix the file",
		)
	}
	return nil
}
