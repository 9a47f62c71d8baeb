// Package config provides configuration management for autoback.
//
// Settings come from, in increasing order of precedence: built-in defaults,
// a config.yaml file, AUTOBACK_* environment variables, and command-line
// flags bound by the CLI. Viper merges the sources; this package only defines
// the keys, their defaults, and validation.
//
// # Configuration File
//
// config.yaml is searched in the current directory and in
// $XDG_CONFIG_HOME/autoback. Every key is optional:
//
//	base_dir: ~/Music/Sessions/Song
//	session: Song
//	extension: ptx
//	backup_dir: Session File Backups
//	rollover: 10
//	period_minutes: 5
//	max_errors: 0
//
// # Validation
//
// [Config.Validate] returns one error per invalid field. Each wraps
// errors.ErrInvalidConfig so callers can classify them:
//
//	if errs := cfg.Validate(); len(errs) > 0 {
//	    return errors.NewConfigError(errors.Join(errs...))
//	}
package config
