package scheduler

import (
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/paths"
)

// FileLock is an exclusive lock held for the life of a process.
type FileLock struct {
	path string
	lock *flock.Flock
}

// Lock acquires an exclusive lock on path without blocking, creating the
// parent directory if needed. It returns errors.ErrAlreadyRunning when
// another process holds the lock.
func Lock(path string) (*FileLock, error) {
	if err := paths.EnsureDir(filepath.Dir(path), paths.DefaultDirPerm); err != nil {
		return nil, errors.Wrap(err, "creating lock directory")
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "acquiring lock %s", path)
	}
	if !ok {
		return nil, errors.Wrapf(errors.ErrAlreadyRunning, "lock %s is held by another process", path)
	}
	return &FileLock{path: path, lock: fl}, nil
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Unlock releases the lock. The lock file itself is left in place.
func (l *FileLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		return errors.Wrapf(err, "releasing lock %s", l.path)
	}
	return nil
}
