// Package backup takes, lists and restores numbered backups of a session file.
//
// A Manager is bound to one session: the working file
// <base>/<session>.<ext> and its backup directory, usually
// <base>/Session File Backups. Each call to Snapshot is one tick of the
// backup schedule. It reads the backup directory, asks package sequence
// whether the session changed since the newest backup, and if so copies the
// session file to <session>.bak.<NNN>.<ext>:
//
//	mgr, err := backup.NewManager(backup.Session{
//		BaseDir:       "/music/Song",
//		Name:          "Song",
//		Extension:     "ptx",
//		BackupDirName: "Session File Backups",
//		Rollover:      10,
//	})
//	if err != nil {
//		return err
//	}
//	if err := mgr.Prepare(); err != nil {
//		return err
//	}
//	res, err := mgr.Snapshot(ctx)
//
// Copies go through a temp file and a rename, so a failed or interrupted copy
// never leaves a file carrying a backup name. Backups are stamped with the
// session file's modification time as it was when the copy started.
//
// The backup directory is the only state. Nothing is cached between calls,
// so files added, removed or touched by hand are picked up on the next tick.
package backup
