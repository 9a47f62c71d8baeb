// Package logging provides structured logging for autoback using slog.
//
// Text output goes through [Handler], a compact TTY-aware handler that
// colorizes levels when the writer is a terminal. JSON output uses the
// standard library handler. [Tee] fans records out to several handlers,
// which the CLI uses to mirror logs into a --log-file at [FileLevel].
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//		Level:  slog.LevelInfo,
//		Format: logging.FormatText,
//		Output: os.Stderr,
//	})
//	logger.Info("backup created", "sequence", 3)
//
// The CLI stores the configured logger on the command context; packages that
// only receive a context retrieve it with [FromContext].
//
// # Testing
//
// For tests, use [ForTest] to capture log output via the testing framework:
//
//	func TestSomething(t *testing.T) {
//		logger := logging.ForTest(t)
//	}
package logging
