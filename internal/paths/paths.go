package paths

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/thoreinstein/autoback/internal/errors"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "autoback"

// ErrHomeDirNotFound indicates the user's home directory could not be determined.
var ErrHomeDirNotFound = errors.New("home directory not found")

// DefaultDirPerm is the default permission for newly created directories.
const DefaultDirPerm = 0o755

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ExpandHome expands a leading ~ to the user's home directory.
// Paths without a leading ~ are returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := ResolveHome()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
func ConfigHome() string {
	return xdg.ConfigHome
}

// StateHome returns the XDG state home directory.
// On Linux: ~/.local/state
// On macOS: ~/Library/Application Support
func StateHome() string {
	return xdg.StateHome
}

// ConfigDir returns the directory searched for config.yaml.
func ConfigDir() string {
	return filepath.Join(ConfigHome(), AppName)
}

// LockDir returns the directory holding per-session lock files.
func LockDir() string {
	return filepath.Join(StateHome(), AppName, "locks")
}

// SourcePath returns the path of the session's working file.
func SourcePath(base, session, ext string) string {
	return filepath.Join(ExpandHome(base), session+"."+strings.TrimPrefix(ext, "."))
}

// BackupDir returns the path of the session's backup directory.
func BackupDir(base, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(ExpandHome(base), dir)
}

// LockPath returns the lock file guarding backupDir. The name is derived from
// the absolute backup directory so that two sessions sharing a directory
// share a lock.
func LockPath(backupDir string) string {
	abs, err := filepath.Abs(backupDir)
	if err != nil {
		abs = backupDir
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(LockDir(), hex.EncodeToString(sum[:8])+".lock")
}
