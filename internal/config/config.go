package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/paths"
	"github.com/thoreinstein/autoback/internal/sequence"
)

// Config keys.
const (
	KeyBaseDir       = "base_dir"
	KeySession       = "session"
	KeyExtension     = "extension"
	KeyBackupDir     = "backup_dir"
	KeyRollover      = "rollover"
	KeyPeriodMinutes = "period_minutes"
	KeyMaxErrors     = "max_errors"
)

// Default values.
const (
	DefaultExtension     = "ptx"
	DefaultBackupDir     = "Session File Backups"
	DefaultRollover      = 10
	DefaultPeriodMinutes = 5.0
)

// Config represents the effective autoback configuration.
type Config struct {
	BaseDir       string  `mapstructure:"base_dir" yaml:"base_dir" toml:"base_dir" json:"base_dir"`
	Session       string  `mapstructure:"session" yaml:"session" toml:"session" json:"session"`
	Extension     string  `mapstructure:"extension" yaml:"extension" toml:"extension" json:"extension"`
	BackupDir     string  `mapstructure:"backup_dir" yaml:"backup_dir" toml:"backup_dir" json:"backup_dir"`
	Rollover      int     `mapstructure:"rollover" yaml:"rollover" toml:"rollover" json:"rollover"`
	PeriodMinutes float64 `mapstructure:"period_minutes" yaml:"period_minutes" toml:"period_minutes" json:"period_minutes"`
	MaxErrors     int     `mapstructure:"max_errors" yaml:"max_errors" toml:"max_errors" json:"max_errors"`
}

// Default returns a configuration holding only default values.
func Default() *Config {
	return &Config{
		Extension:     DefaultExtension,
		BackupDir:     DefaultBackupDir,
		Rollover:      DefaultRollover,
		PeriodMinutes: DefaultPeriodMinutes,
	}
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	viper.Reset()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.ConfigDir())

	viper.SetEnvPrefix("AUTOBACK")
	viper.AutomaticEnv()

	d := Default()
	viper.SetDefault(KeyBaseDir, d.BaseDir)
	viper.SetDefault(KeySession, d.Session)
	viper.SetDefault(KeyExtension, d.Extension)
	viper.SetDefault(KeyBackupDir, d.BackupDir)
	viper.SetDefault(KeyRollover, d.Rollover)
	viper.SetDefault(KeyPeriodMinutes, d.PeriodMinutes)
	viper.SetDefault(KeyMaxErrors, d.MaxErrors)
}

// ReadFile reads the configuration file into Viper.
// If path is provided, it reads from that specific file and a missing file is
// an error. If path is empty, the default locations are searched and a
// missing file is not an error.
func ReadFile(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && path == "" {
			return nil
		}
		if path != "" {
			return errors.Wrapf(err, "reading config file %s", path)
		}
		return errors.Wrap(err, "reading config file")
	}
	return nil
}

// Current unmarshals the merged Viper state (defaults, file, env, bound flags).
func Current() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	return &cfg, nil
}

// Load reads the configuration file and returns the merged configuration.
// It does not validate; call Validate once flags have been applied.
func Load(path string) (*Config, error) {
	if err := ReadFile(path); err != nil {
		return nil, err
	}
	return Current()
}

// FileUsed returns the config file Viper loaded, or "" if none.
func FileUsed() string {
	return viper.ConfigFileUsed()
}

// Policy returns the sequencing policy described by the configuration.
func (c *Config) Policy() sequence.Policy {
	return sequence.Policy{
		Rollover:  c.Rollover,
		Extension: c.Extension,
	}
}

// Interval returns the tick period. Fractional minutes are honored.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.PeriodMinutes * float64(time.Minute))
}

// SourcePath returns the session's working file.
func (c *Config) SourcePath() string {
	return paths.SourcePath(c.BaseDir, c.Session, c.Extension)
}

// BackupPath returns the session's backup directory.
func (c *Config) BackupPath() string {
	return paths.BackupDir(c.BaseDir, c.BackupDir)
}
