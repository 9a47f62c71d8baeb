package config

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/sequence"
)

// Validation errors for configuration fields.
var (
	// ErrRequired indicates a required field is empty.
	ErrRequired = errors.Mark(errors.New("value is required"), errors.ErrInvalidConfig)

	// ErrOutOfRange indicates a numeric field is outside its allowed range.
	ErrOutOfRange = errors.Mark(errors.New("value out of range"), errors.ErrInvalidConfig)

	// ErrInvalidName indicates a name contains characters that cannot appear in a file name.
	ErrInvalidName = errors.Mark(errors.New("invalid name"), errors.ErrInvalidConfig)
)

// Bounds on the tick period.
const (
	MinPeriodSeconds = 1
	MaxPeriodMinutes = 7 * 24 * 60
)

// FieldError describes an invalid configuration field.
type FieldError struct {
	Field  string
	Detail string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Detail == "" {
		return e.Field + ": " + e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error() + ": " + e.Detail
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func (c *Config) Validate() []error {
	if c == nil {
		return []error{errors.Wrap(errors.ErrInvalidConfig, "config is nil")}
	}

	var errs []error
	add := func(field string, err error, detail string) {
		errs = append(errs, &FieldError{Field: field, Err: err, Detail: detail})
	}

	if c.BaseDir == "" {
		add(KeyBaseDir, ErrRequired, "")
	} else if strings.ContainsRune(c.BaseDir, '\x00') {
		add(KeyBaseDir, ErrInvalidName, c.BaseDir)
	}

	switch {
	case c.Session == "":
		add(KeySession, ErrRequired, "")
	case !validFileName(c.Session):
		add(KeySession, ErrInvalidName, c.Session)
	}

	switch ext := strings.TrimPrefix(c.Extension, "."); {
	case ext == "":
		add(KeyExtension, ErrRequired, "")
	case !validFileName(ext):
		add(KeyExtension, ErrInvalidName, c.Extension)
	}

	if c.BackupDir == "" {
		add(KeyBackupDir, ErrRequired, "")
	} else if strings.ContainsRune(c.BackupDir, '\x00') || filepath.Clean(c.BackupDir) == "." {
		add(KeyBackupDir, ErrInvalidName, c.BackupDir)
	}

	if c.Rollover < 1 || c.Rollover > sequence.MaxRollover {
		add(KeyRollover, ErrOutOfRange, "must be between 1 and 999")
	}

	switch p := c.PeriodMinutes; {
	case math.IsNaN(p) || math.IsInf(p, 0):
		add(KeyPeriodMinutes, ErrOutOfRange, "must be a finite number")
	case p*60 < MinPeriodSeconds || p > MaxPeriodMinutes:
		add(KeyPeriodMinutes, ErrOutOfRange, "must be between 1 second and 1 week (0.0167 to 10080 minutes)")
	}

	if c.MaxErrors < 0 {
		add(KeyMaxErrors, ErrOutOfRange, "must not be negative")
	}

	return errs
}

func validFileName(name string) bool {
	return !strings.ContainsAny(name, "/\\\x00") && name != "." && name != ".."
}
