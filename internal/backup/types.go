package backup

import (
	"time"

	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/sequence"
)

// Sentinel errors for backup operations.
var (
	// ErrSourceMissing indicates the session file does not exist or is not a
	// regular file. It is a configuration error.
	ErrSourceMissing = errors.Mark(errors.New("session file not found"), errors.ErrInvalidConfig)

	// ErrCopy indicates a backup could not be written. No file carrying a
	// backup name is left behind.
	ErrCopy = errors.New("backup copy failed")

	// ErrNoBackupsFound indicates the backup directory holds no backups.
	ErrNoBackupsFound = errors.New("no backups found")

	// ErrBackupNotFound indicates the requested sequence has no backup file.
	ErrBackupNotFound = errors.New("backup not found")
)

// Session identifies one session file and where its backups live.
type Session struct {
	// BaseDir is the directory containing the session file.
	BaseDir string

	// Name is the session file name without its extension.
	Name string

	// Extension is the session file extension without the leading dot.
	Extension string

	// BackupDirName is the backup directory, relative to BaseDir unless absolute.
	BackupDirName string

	// Rollover is the highest sequence number before wrapping to 1.
	Rollover int
}

// Policy returns the sequence policy for the session.
func (s Session) Policy() sequence.Policy {
	return sequence.Policy{Rollover: s.Rollover, Extension: s.Extension}
}

// Backup describes one backup file of the session.
type Backup struct {
	// Name is the file name, e.g. "Song.bak.003.ptx".
	Name string `json:"name"`

	// Path is the absolute or base-relative path to the file.
	Path string `json:"path"`

	// Sequence is the parsed sequence number.
	Sequence int `json:"sequence"`

	// ModTime is the file's modification time.
	ModTime time.Time `json:"mod_time"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// Latest marks the backup the next decision is based on.
	Latest bool `json:"latest"`
}

// Result is the outcome of one Snapshot.
type Result struct {
	// Decision is the sequencing decision for this tick.
	Decision sequence.Decision

	// Path is the written backup file. Empty when no backup was taken.
	Path string

	// Bytes is the number of bytes copied.
	Bytes int64

	// At is when the tick was evaluated.
	At time.Time
}
