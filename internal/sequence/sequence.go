package sequence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/thoreinstein/autoback/internal/errors"
)

// MaxRollover is the largest rollover limit a Policy accepts. Sequence
// numbers are zero-padded to three digits in backup names.
const MaxRollover = 999

// BackupTag separates the session name from the sequence number in backup names.
const BackupTag = "bak"

// Policy controls sequence numbering. It is fixed for the lifetime of a process.
type Policy struct {
	// Rollover is the highest sequence number; the sequence after it is 1.
	Rollover int

	// Extension identifies backup files, without the leading dot (e.g. "ptx").
	Extension string
}

// Validate checks that the policy can produce well-formed backup names.
func (p Policy) Validate() error {
	if p.Rollover < 1 || p.Rollover > MaxRollover {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"rollover must be between 1 and %d (got %d)", MaxRollover, p.Rollover)
	}
	ext := p.ext()
	if ext == "" {
		return errors.Wrap(errors.ErrInvalidConfig, "extension must not be empty")
	}
	if strings.ContainsAny(ext, `/\`) {
		return errors.Wrapf(errors.ErrInvalidConfig, "extension %q must not contain a path separator", ext)
	}
	return nil
}

// suffix returns the extension with its leading separator.
func (p Policy) suffix() string {
	return "." + p.ext()
}

func (p Policy) ext() string {
	return strings.TrimPrefix(p.Extension, ".")
}

// Entry is one file in the backup directory.
type Entry struct {
	Name    string
	ModTime time.Time
}

// Reason explains a Decision.
type Reason string

const (
	// ReasonBootstrap means the backup directory is empty.
	ReasonBootstrap Reason = "bootstrap"
	// ReasonAdvanced means the source changed and the sequence moved forward.
	ReasonAdvanced Reason = "advanced"
	// ReasonRolledOver means the source changed and the sequence wrapped to 1.
	ReasonRolledOver Reason = "rolled-over"
	// ReasonUnchanged means the source is not newer than the latest backup.
	ReasonUnchanged Reason = "unchanged"
	// ReasonUnparseable means the latest backup's name has no usable sequence.
	ReasonUnparseable Reason = "unparseable"
)

// Decision is the result of one evaluation.
type Decision struct {
	// Backup reports whether a new backup should be written.
	Backup bool
	// Sequence is the slot to write. It is only meaningful when Backup is true,
	// in which case 1 <= Sequence <= Policy.Rollover.
	Sequence int
	// Reason explains the decision.
	Reason Reason
	// Latest is the newest entry the decision was based on, if any.
	Latest *Entry
}

func (d Decision) String() string {
	if d.Backup {
		return fmt.Sprintf("backup %03d (%s)", d.Sequence, d.Reason)
	}
	return fmt.Sprintf("no backup (%s)", d.Reason)
}

// Next decides whether a source last modified at sourceModTime needs a new
// backup given the current backup directory entries.
func Next(sourceModTime time.Time, entries []Entry, policy Policy) Decision {
	latest, ok := Latest(entries)
	if !ok {
		return Decision{Backup: true, Sequence: 1, Reason: ReasonBootstrap}
	}

	if !sourceModTime.After(latest.ModTime) {
		return Decision{Reason: ReasonUnchanged, Latest: &latest}
	}

	seq, ok := ParseSequence(latest.Name, policy)
	if !ok {
		return Decision{Reason: ReasonUnparseable, Latest: &latest}
	}

	// A sequence above the limit is left over from a larger rollover setting.
	if seq >= policy.Rollover {
		return Decision{Backup: true, Sequence: 1, Reason: ReasonRolledOver, Latest: &latest}
	}
	return Decision{Backup: true, Sequence: seq + 1, Reason: ReasonAdvanced, Latest: &latest}
}

// Latest returns the entry with the greatest modification time. When several
// entries share that time, the first one in entries wins.
func Latest(entries []Entry) (Entry, bool) {
	if len(entries) == 0 {
		return Entry{}, false
	}
	latest := entries[0]
	for _, e := range entries[1:] {
		if e.ModTime.After(latest.ModTime) {
			latest = e
		}
	}
	return latest, true
}

// ParseSequence extracts the sequence number from a backup file name such as
// "Song.bak.007.ptx". The name must end with the policy's extension, and the
// component after the last "." of the remainder must be all digits.
func ParseSequence(name string, policy Policy) (int, bool) {
	stem, ok := strings.CutSuffix(name, policy.suffix())
	if !ok {
		return 0, false
	}

	idx := strings.LastIndexByte(stem, '.')
	if idx < 0 {
		return 0, false
	}

	digits := stem[idx+1:]
	if digits == "" {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		// overflow
		return 0, false
	}
	return n, true
}

// DestinationName builds the backup file name for a session and sequence,
// e.g. "Song.bak.001.ptx".
func DestinationName(session string, seq int, policy Policy) string {
	return fmt.Sprintf("%s.%s.%03d.%s", session, BackupTag, seq, policy.ext())
}
