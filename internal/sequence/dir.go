package sequence

import (
	"os"

	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/pkg/fileutil"
)

// ErrDirectoryAccess indicates the backup directory could not be listed.
var ErrDirectoryAccess = errors.New("backup directory not accessible")

// ReadEntries lists the regular files in dir in name order.
// Subdirectories and in-flight temp files from the copier are skipped.
func ReadEntries(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "reading %s", dir), ErrDirectoryAccess)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() || fileutil.IsTempFile(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			if os.IsNotExist(err) {
				// removed between ReadDir and Info
				continue
			}
			return nil, errors.Mark(errors.Wrapf(err, "stat %s", de.Name()), ErrDirectoryAccess)
		}
		entries = append(entries, Entry{Name: de.Name(), ModTime: info.ModTime()})
	}
	return entries, nil
}
