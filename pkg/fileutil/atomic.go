// Package fileutil provides file system utilities built on a temp file +
// rename pattern, so that readers never observe a partially written file.
package fileutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/autoback/internal/errors"
)

// TempPrefix is the name prefix of in-flight temp files created by this package.
const TempPrefix = ".autoback-"

const tempPattern = TempPrefix + "*.tmp"

// IsTempFile reports whether name looks like an in-flight temp file
// created by AtomicWriteFile or AtomicCopyFile.
func IsTempFile(name string) bool {
	return strings.HasPrefix(name, TempPrefix) && strings.HasSuffix(name, ".tmp")
}

// AtomicWriteFile writes data to a file atomically using a temp file + rename pattern.
// This ensures interrupted writes leave the original file intact.
//
// The caller is responsible for ensuring the parent directory exists.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), tempPattern)
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()
	defer removeIfExists(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return errors.Wrap(err, "setting file permissions")
	}

	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "renaming temp file")
	}
	return nil
}

// CopyOption configures AtomicCopyFile. The copy always takes the source's
// permission bits.
type CopyOption func(*copyOptions)

type copyOptions struct {
	keepModTime bool
}

// WithModTime stamps the copy with the modification time the source had when
// it was opened, like cp -p. A source rewritten during the copy therefore
// still compares as newer than its copy.
//
// If the destination file system stores coarser timestamps than the source's
// and the stored time comes out earlier than requested, the copy keeps the
// copy time instead. Otherwise the source would compare as newer forever.
func WithModTime() CopyOption {
	return func(o *copyOptions) {
		o.keepModTime = true
	}
}

// AtomicCopyFile copies src to dst atomically and returns the number of
// bytes copied. The data is streamed into a temp file next to dst, checked
// against the size src had when it was opened, synced, and only then renamed
// over dst. On any failure dst is left untouched and the temp file is removed.
//
// The caller is responsible for ensuring the parent directory of dst exists.
func AtomicCopyFile(src, dst string, opts ...CopyOption) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, errors.Wrap(err, "opening source file")
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, errors.Wrap(err, "stat source file")
	}

	var o copyOptions
	for _, opt := range opts {
		opt(&o)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), tempPattern)
	if err != nil {
		return 0, errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()
	defer removeIfExists(tmpName)

	written, err := io.Copy(tmp, in)
	if err != nil {
		tmp.Close()
		return 0, errors.Wrap(err, "copying file")
	}
	if written != info.Size() {
		tmp.Close()
		return 0, errors.Newf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, errors.Wrap(err, "syncing temp file")
	}

	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return 0, errors.Wrap(err, "setting file permissions")
	}

	if err := tmp.Close(); err != nil {
		return 0, errors.Wrap(err, "closing temp file")
	}

	if o.keepModTime {
		if err := stampModTime(tmpName, info.ModTime()); err != nil {
			return 0, errors.Wrap(err, "setting modification time")
		}
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return 0, errors.Wrap(err, "renaming temp file")
	}
	return written, nil
}

// chtimes is os.Chtimes, replaced in tests to emulate coarse timestamps.
var chtimes = os.Chtimes

// stampModTime sets the modification time of path to mtime, falling back to
// the current time when the file system rounds mtime down.
func stampModTime(path string, mtime time.Time) error {
	if err := chtimes(path, mtime, mtime); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.ModTime().Before(mtime) {
		return nil
	}
	now := time.Now()
	return chtimes(path, now, now)
}

// AtomicWriteYAML writes v as YAML to path atomically with 0644 permissions.
// Appends a trailing newline for POSIX compliance.
//
// The caller is responsible for ensuring the parent directory exists.
func AtomicWriteYAML(path string, v any) (err error) {
	// yaml.Marshal panics on unmarshalable types; recover and return error
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("marshaling YAML: %v", r)
		}
	}()

	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshaling YAML")
	}

	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	return AtomicWriteFile(path, data, 0o644)
}

// removeIfExists removes a leftover temp file after a failed write.
func removeIfExists(name string) {
	if _, err := os.Stat(name); err == nil {
		os.Remove(name)
	}
}
