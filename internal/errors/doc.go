// Package errors provides error handling conventions for the autoback CLI.
//
// It re-exports the wrapping helpers from github.com/cockroachdb/errors so
// that the rest of the module imports a single errors package, defines
// sentinel errors shared across packages, and provides an [ExitError] type
// that carries a process exit code and an optional suggestion.
//
// # Sentinel Errors
//
// Sentinel errors allow callers to check for specific error conditions
// using [Is]:
//
//	if errors.Is(err, errors.ErrInvalidConfig) {
//	    // handle configuration problem
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (bad arguments, missing source file)
//   - ExitSystem (2): System-related error (I/O, permissions)
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional
// suggestion. The root command unwraps it to decide how the process exits:
//
//	err := errors.NewUserError(errors.ErrInvalidConfig, "Run: autoback config show")
//	var exitErr *errors.ExitError
//	if errors.As(err, &exitErr) {
//	    os.Exit(exitErr.Code)
//	}
package errors
