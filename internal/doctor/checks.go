package doctor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/thoreinstein/autoback/internal/config"
	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/paths"
	"github.com/thoreinstein/autoback/internal/scheduler"
	"github.com/thoreinstein/autoback/internal/sequence"
	"github.com/thoreinstein/autoback/pkg/fileutil"
)

// Target is the session under diagnosis.
type Target struct {
	// Config is the effective configuration.
	Config *config.Config

	// ConfigFile is the config file that was read, if any.
	ConfigFile string

	// ConfigErr is the error from reading the config file, if any.
	ConfigErr error
}

// valid reports whether the target's configuration can be used by the
// file system checks.
func (t *Target) valid() bool {
	return t.ConfigErr == nil && t.Config != nil && len(t.Config.Validate()) == 0
}

// SessionChecks returns the standard checks for a session in the order they
// should run.
func SessionChecks(t *Target) []Check {
	return []Check{
		&ConfigCheck{target: t},
		&SessionFileCheck{target: t},
		&BackupDirCheck{target: t},
		&LatestBackupCheck{target: t},
		&LockCheck{target: t},
	}
}

func skipped(name, category string) *CheckResult {
	return &CheckResult{
		Name:     name,
		Category: category,
		Status:   SeverityInfo,
		Message:  "skipped: configuration is invalid",
	}
}

// ConfigCheck validates the configuration file and effective settings.
type ConfigCheck struct {
	target *Target
}

var _ Check = (*ConfigCheck)(nil)

func (c *ConfigCheck) Name() string     { return "config" }
func (c *ConfigCheck) Category() string { return "config" }

func (c *ConfigCheck) Run(_ context.Context) *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	if c.target.ConfigErr != nil {
		result.Status = SeverityError
		result.Message = "config file could not be read: " + c.target.ConfigErr.Error()
		result.FixHint = "Fix the YAML syntax, or write a fresh file with: autoback config init --force"
		return result
	}
	if c.target.Config == nil {
		result.Status = SeverityError
		result.Message = "no configuration"
		return result
	}

	if errs := c.target.Config.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		result.Status = SeverityError
		result.Message = strings.Join(msgs, "; ")
		result.FixHint = "Set the values with flags, AUTOBACK_* variables or the config file"
		return result
	}

	result.Status = SeverityPass
	if c.target.ConfigFile != "" {
		result.Message = "loaded " + c.target.ConfigFile
	} else {
		result.Message = "no config file; using defaults, environment and flags"
	}
	result.Details = map[string]any{
		"rollover":       c.target.Config.Rollover,
		"period_minutes": c.target.Config.PeriodMinutes,
	}
	return result
}

// SessionFileCheck verifies the session file exists.
type SessionFileCheck struct {
	target *Target
}

var _ Check = (*SessionFileCheck)(nil)

func (c *SessionFileCheck) Name() string     { return "session-file" }
func (c *SessionFileCheck) Category() string { return "session" }

func (c *SessionFileCheck) Run(_ context.Context) *CheckResult {
	if !c.target.valid() {
		return skipped(c.Name(), c.Category())
	}

	path := c.target.Config.SourcePath()
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Details:  map[string]any{"path": path},
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		result.Status = SeverityError
		result.Message = "session file not found: " + path
		result.FixHint = "Check base_dir, session and extension"
	case err != nil:
		result.Status = SeverityError
		result.Message = err.Error()
	case !info.Mode().IsRegular():
		result.Status = SeverityError
		result.Message = path + " is not a regular file"
	default:
		result.Status = SeverityPass
		result.Message = fmt.Sprintf("%s (%d bytes, modified %s)",
			path, info.Size(), info.ModTime().Local().Format("2006-01-02 15:04:05"))
		result.Details["size"] = info.Size()
		result.Details["mod_time"] = info.ModTime()
	}
	return result
}

// BackupDirCheck verifies the backup directory exists and is writable. A
// missing directory can be fixed by creating it.
type BackupDirCheck struct {
	target  *Target
	missing bool
}

var (
	_ Check = (*BackupDirCheck)(nil)
	_ Fixer = (*BackupDirCheck)(nil)
)

func (c *BackupDirCheck) Name() string     { return "backup-dir" }
func (c *BackupDirCheck) Category() string { return "session" }

func (c *BackupDirCheck) Run(_ context.Context) *CheckResult {
	c.missing = false
	if !c.target.valid() {
		return skipped(c.Name(), c.Category())
	}

	dir := c.target.Config.BackupPath()
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Details:  map[string]any{"path": dir},
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		c.missing = true
		result.Status = SeverityWarning
		result.Message = "backup directory does not exist yet: " + dir
		result.Fixable = true
		result.FixHint = "It is created on the first run, or now with: autoback doctor --fix"
		return result
	case err != nil:
		result.Status = SeverityError
		result.Message = err.Error()
		return result
	case !info.IsDir():
		result.Status = SeverityError
		result.Message = dir + " exists but is not a directory"
		result.FixHint = "Move the file away or choose another backup_dir"
		return result
	}

	if err := checkWritable(dir); err != nil {
		result.Status = SeverityError
		result.Message = "backup directory is not writable: " + err.Error()
		result.FixHint = "Check the directory's owner and permissions"
		return result
	}

	result.Status = SeverityPass
	result.Message = dir
	return result
}

// CanFix reports whether the directory was missing on the last Run.
func (c *BackupDirCheck) CanFix() bool {
	return c.missing
}

// Fix creates the backup directory.
func (c *BackupDirCheck) Fix() FixResult {
	dir := c.target.Config.BackupPath()
	if err := paths.EnsureDir(dir, paths.DefaultDirPerm); err != nil {
		return FixResult{
			Path:        dir,
			Description: "could not create backup directory",
			Error:       errors.Wrapf(err, "creating %s", dir),
		}
	}
	return FixResult{Path: dir, Fixed: true, Description: "created backup directory"}
}

// checkWritable creates and removes a temp file in dir. The name uses the
// copier's temp pattern so that a concurrent tick ignores it.
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, fileutil.TempPrefix+"doctor-*.tmp")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// LatestBackupCheck reports what the next tick will do. Its main purpose is
// catching a newest file that does not parse as a backup, which pauses
// backups until it is removed.
type LatestBackupCheck struct {
	target *Target
}

var _ Check = (*LatestBackupCheck)(nil)

func (c *LatestBackupCheck) Name() string     { return "latest-backup" }
func (c *LatestBackupCheck) Category() string { return "backups" }

func (c *LatestBackupCheck) Run(_ context.Context) *CheckResult {
	if !c.target.valid() {
		return skipped(c.Name(), c.Category())
	}

	cfg := c.target.Config
	policy := cfg.Policy()
	dir := cfg.BackupPath()
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		result.Status = SeverityInfo
		result.Message = "no backups yet; the first will be " + sequence.DestinationName(cfg.Session, 1, policy)
		return result
	}

	entries, err := sequence.ReadEntries(dir)
	if err != nil {
		result.Status = SeverityError
		result.Message = err.Error()
		return result
	}

	latest, ok := sequence.Latest(entries)
	if !ok {
		result.Status = SeverityInfo
		result.Message = "no backups yet; the first will be " + sequence.DestinationName(cfg.Session, 1, policy)
		return result
	}
	result.Details = map[string]any{"latest": latest.Name, "entries": len(entries)}

	seq, ok := sequence.ParseSequence(latest.Name, policy)
	if !ok {
		result.Status = SeverityWarning
		result.Message = fmt.Sprintf("newest file %q is not a numbered backup; no backups will be taken while it is the newest file", latest.Name)
		result.FixHint = "Move " + latest.Name + " out of " + dir
		return result
	}

	var over []string
	for _, e := range entries {
		if n, ok := sequence.ParseSequence(e.Name, policy); ok && n > policy.Rollover {
			over = append(over, e.Name)
		}
	}

	next := seq + 1
	if seq >= policy.Rollover {
		next = 1
	}
	result.Details["next"] = sequence.DestinationName(cfg.Session, next, policy)

	if len(over) > 0 {
		result.Status = SeverityInfo
		result.Message = fmt.Sprintf("%d backups are numbered above rollover %d and will not be reused: %s",
			len(over), policy.Rollover, strings.Join(over, ", "))
		return result
	}

	result.Status = SeverityPass
	result.Message = fmt.Sprintf("newest backup %s; next change goes to %s",
		latest.Name, sequence.DestinationName(cfg.Session, next, policy))
	return result
}

// LockCheck reports whether an autoback instance is running for the backup
// directory.
type LockCheck struct {
	target *Target
}

var _ Check = (*LockCheck)(nil)

func (c *LockCheck) Name() string     { return "instance" }
func (c *LockCheck) Category() string { return "runtime" }

func (c *LockCheck) Run(_ context.Context) *CheckResult {
	if !c.target.valid() {
		return skipped(c.Name(), c.Category())
	}

	path := paths.LockPath(c.target.Config.BackupPath())
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityInfo,
		Details:  map[string]any{"lock": path},
	}

	lock, err := scheduler.Lock(path)
	switch {
	case errors.Is(err, errors.ErrAlreadyRunning):
		result.Message = "an autoback instance is running for this backup directory"
	case err != nil:
		result.Status = SeverityWarning
		result.Message = "could not check lock: " + err.Error()
	default:
		_ = lock.Unlock()
		result.Message = "no autoback instance is running for this backup directory"
	}
	return result
}
