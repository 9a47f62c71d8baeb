package logging

import (
	"context"
	"errors"
	"log/slog"
)

// Tee is a handler that sends each record to every member enabled for its
// level. The CLI tees the terminal handler with a --log-file handler.
type Tee []slog.Handler

var _ slog.Handler = Tee(nil)

// Enabled reports whether any member accepts level.
func (t Tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes a clone of r to each enabled member. Member errors are
// joined, and a failing log file does not silence the terminal.
func (t Tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (t Tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t Tee) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t Tee) each(fn func(slog.Handler) slog.Handler) Tee {
	out := make(Tee, len(t))
	for i, h := range t {
		out[i] = fn(h)
	}
	return out
}

// FileLevel is the level for a log file next to a terminal at level. A log
// file always records created backups, which are logged at Info, even when
// the terminal only shows warnings.
func FileLevel(level slog.Level) slog.Level {
	return min(level, slog.LevelInfo)
}
