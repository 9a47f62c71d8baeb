// Package scheduler runs a periodic tick and guards it against concurrent
// instances.
//
// Runner executes ticks inline on a single goroutine, so a tick never
// overlaps the previous one. A tick that outlasts the interval makes the
// ticker drop the missed ticks instead of queueing them. Tick errors are
// logged and the loop keeps going; only the same error repeating more than
// MaxConsecutiveErrors times in a row stops it.
//
// Lock takes an exclusive, non-blocking file lock so that two processes
// never tick against the same backup directory.
package scheduler
