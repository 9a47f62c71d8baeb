// Package sequence decides when a session file needs a new backup and which
// numbered slot the backup goes into.
//
// Backups of a session named "Song" with extension "ptx" are named
//
//	Song.bak.001.ptx
//	Song.bak.002.ptx
//	...
//
// Every decision is derived from the current directory listing; nothing is
// cached between calls, so files deleted or added by hand are picked up on the
// next decision.
//
// # Deciding
//
// [Next] compares the source modification time with the newest entry in the
// backup directory. If the source is strictly newer, the newest entry's name is
// parsed and the following sequence number is returned, wrapping to 1 once the
// policy's rollover limit is reached:
//
//	policy := sequence.Policy{Rollover: 3, Extension: "ptx"}
//	entries, err := sequence.ReadEntries(dir)
//	if err != nil {
//	    return err
//	}
//	d := sequence.Next(info.ModTime(), entries, policy)
//	if d.Backup {
//	    name := sequence.DestinationName("Song", d.Sequence, policy)
//	}
//
// A newest entry whose name cannot be parsed never yields a guess: the
// decision is "no backup" with [ReasonUnparseable].
package sequence
