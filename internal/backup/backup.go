package backup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/logging"
	"github.com/thoreinstein/autoback/internal/paths"
	"github.com/thoreinstein/autoback/internal/sequence"
	"github.com/thoreinstein/autoback/pkg/fileutil"
)

// Manager takes and restores numbered backups of a single session file.
type Manager struct {
	session   Session
	policy    sequence.Policy
	source    string
	backupDir string
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. By default the logger is taken from the
// context passed to each operation.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock sets the function used to timestamp results.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a Manager for the session. It validates the sequence
// policy but does not touch the file system; call Prepare for that.
func NewManager(session Session, opts ...Option) (*Manager, error) {
	if session.BaseDir == "" {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "base directory is required")
	}
	if session.Name == "" {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "session name is required")
	}
	if session.BackupDirName == "" {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "backup directory is required")
	}

	policy := session.Policy()
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		session:   session,
		policy:    policy,
		source:    paths.SourcePath(session.BaseDir, session.Name, session.Extension),
		backupDir: paths.BackupDir(session.BaseDir, session.BackupDirName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SourcePath returns the path of the session file.
func (m *Manager) SourcePath() string {
	return m.source
}

// BackupDir returns the directory backups are written to.
func (m *Manager) BackupDir() string {
	return m.backupDir
}

// Policy returns the sequence policy in effect.
func (m *Manager) Policy() sequence.Policy {
	return m.policy
}

// Prepare checks that the session file exists and creates the backup
// directory if needed.
func (m *Manager) Prepare() error {
	info, err := os.Stat(m.source)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrSourceMissing, "%s", m.source)
		}
		return errors.Wrapf(err, "stat %s", m.source)
	}
	if !info.Mode().IsRegular() {
		return errors.Wrapf(ErrSourceMissing, "%s is not a regular file", m.source)
	}

	if err := paths.EnsureDir(m.backupDir, paths.DefaultDirPerm); err != nil {
		return errors.Wrap(err, "creating backup directory")
	}
	return nil
}

// Decide evaluates whether a backup is due without writing anything.
func (m *Manager) Decide(ctx context.Context) (sequence.Decision, error) {
	if err := ctx.Err(); err != nil {
		return sequence.Decision{}, err
	}

	info, err := os.Stat(m.source)
	if err != nil {
		if os.IsNotExist(err) {
			return sequence.Decision{}, errors.Wrapf(ErrSourceMissing, "%s", m.source)
		}
		return sequence.Decision{}, errors.Wrapf(err, "stat %s", m.source)
	}

	entries, err := sequence.ReadEntries(m.backupDir)
	if err != nil {
		return sequence.Decision{}, err
	}

	decision := sequence.Next(info.ModTime(), entries, m.policy)
	m.log(ctx).Log(ctx, logging.LevelTrace, "evaluated backup directory",
		"entries", len(entries),
		"source_mtime", info.ModTime(),
		"decision", decision.String(),
	)
	return decision, nil
}

// Snapshot runs one tick: it decides whether a backup is due and, if so,
// copies the session file to the next sequence slot. An existing file in that
// slot is replaced atomically.
func (m *Manager) Snapshot(ctx context.Context) (*Result, error) {
	logger := m.log(ctx)

	decision, err := m.Decide(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Decision: decision, At: m.now()}
	if !decision.Backup {
		if decision.Reason == sequence.ReasonUnparseable {
			logger.Warn("latest file in backup directory has no sequence number, skipping",
				"file", decision.Latest.Name,
				"dir", m.backupDir,
			)
		} else {
			logger.Debug("session unchanged, no backup needed", "source", m.source)
		}
		return result, nil
	}

	dst := filepath.Join(m.backupDir, sequence.DestinationName(m.session.Name, decision.Sequence, m.policy))
	n, err := fileutil.AtomicCopyFile(m.source, dst, fileutil.WithModTime())
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "backing up to %s", dst), ErrCopy)
	}

	result.Path = dst
	result.Bytes = n
	logger.Info("backup created",
		"file", filepath.Base(dst),
		"sequence", decision.Sequence,
		"reason", string(decision.Reason),
		"bytes", n,
	)
	return result, nil
}

// List returns the session's backups, newest first. The newest file in the
// backup directory is marked Latest when it is one of them. Files that do not
// parse as backups of this session are omitted.
func (m *Manager) List() ([]Backup, error) {
	if _, err := os.Stat(m.backupDir); os.IsNotExist(err) {
		return nil, ErrNoBackupsFound
	}

	entries, err := sequence.ReadEntries(m.backupDir)
	if err != nil {
		return nil, err
	}

	latest, _ := sequence.Latest(entries)

	backups := make([]Backup, 0, len(entries))
	for _, e := range entries {
		seq, ok := m.parse(e.Name)
		if !ok {
			continue
		}
		path := filepath.Join(m.backupDir, e.Name)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "stat %s", e.Name)
		}
		backups = append(backups, Backup{
			Name:     e.Name,
			Path:     path,
			Sequence: seq,
			ModTime:  e.ModTime,
			Size:     info.Size(),
			Latest:   e.Name == latest.Name,
		})
	}

	if len(backups) == 0 {
		return nil, ErrNoBackupsFound
	}

	// Ties keep name order, matching sequence.Latest.
	slices.SortStableFunc(backups, func(a, b Backup) int {
		return b.ModTime.Compare(a.ModTime)
	})
	return backups, nil
}

// Get returns the backup with the given sequence number.
func (m *Manager) Get(seq int) (*Backup, error) {
	backups, err := m.List()
	if err != nil {
		if errors.Is(err, ErrNoBackupsFound) {
			return nil, errors.Wrapf(ErrBackupNotFound, "sequence %03d", seq)
		}
		return nil, err
	}
	for i := range backups {
		if backups[i].Sequence == seq {
			return &backups[i], nil
		}
	}
	return nil, errors.Wrapf(ErrBackupNotFound, "sequence %03d", seq)
}

// Restore replaces the session file with the backup numbered seq. The current
// session file is snapshotted first so that unsaved work is never lost; that
// snapshot is skipped when the file is unchanged since the last backup, and
// Restore refuses when the snapshot would land on the slot being restored.
//
// The restored file gets a fresh modification time, so the next tick backs
// it up as a new sequence.
func (m *Manager) Restore(ctx context.Context, seq int) (*Backup, error) {
	target, err := m.Get(seq)
	if err != nil {
		return nil, err
	}

	decision, err := m.Decide(ctx)
	switch {
	case errors.Is(err, ErrSourceMissing):
		// nothing to preserve
	case err != nil:
		return nil, err
	case decision.Backup && decision.Sequence == seq:
		return nil, errors.Wrapf(errors.ErrInvalidArgument,
			"backup %03d is the next slot and would be overwritten by the pre-restore backup", seq)
	case decision.Backup:
		if _, err := m.Snapshot(ctx); err != nil {
			return nil, errors.Wrap(err, "backing up session before restore")
		}
	}

	if _, err := fileutil.AtomicCopyFile(target.Path, m.source); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "restoring %s", target.Name), ErrCopy)
	}

	m.log(ctx).Info("session restored", "from", target.Name, "to", m.source)
	return target, nil
}

func (m *Manager) parse(name string) (int, bool) {
	if !strings.HasPrefix(name, m.session.Name+"."+sequence.BackupTag+".") {
		return 0, false
	}
	return sequence.ParseSequence(name, m.policy)
}

func (m *Manager) log(ctx context.Context) *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return logging.FromContext(ctx)
}
