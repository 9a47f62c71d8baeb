// Package doctor runs diagnostic checks against an autoback session.
//
// Each Check inspects one concern (configuration, the session file, the
// backup directory, the newest backup, the instance lock) and reports a
// CheckResult with a Severity. Runner executes checks in order and
// aggregates a Report. Checks that implement Fixer can repair what they
// found, e.g. create a missing backup directory.
package doctor
