// Package paths resolves the file system locations autoback works with.
//
// Session paths are derived from the configured base directory:
//
//	<base>/<session>.<ext>       the working file being protected
//	<base>/<backup dir>/         the rotating backup set
//
// Tool-owned state follows the XDG Base Directory Specification through
// github.com/adrg/xdg:
//
//	paths.ConfigDir() // ~/.config/autoback
//	paths.LockDir()   // ~/.local/state/autoback/locks
//
// Lock files never live inside the backup directory, because every file in
// that directory takes part in change detection.
package paths
