package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/logging"
)

// ErrTooManyErrors is returned by Run when the same tick error repeats more
// than MaxConsecutiveErrors times.
var ErrTooManyErrors = errors.New("too many consecutive tick errors")

// TickFunc performs one unit of periodic work.
type TickFunc func(ctx context.Context) error

// Runner calls Tick once per Interval until its context is canceled.
type Runner struct {
	// Tick is the work to run. Required.
	Tick TickFunc

	// Interval is the time between ticks. Required.
	Interval time.Duration

	// Immediate runs the first tick as soon as Run starts instead of after
	// one Interval.
	Immediate bool

	// MaxConsecutiveErrors stops the loop once the same error has occurred
	// more than this many times in a row. Zero means never stop.
	MaxConsecutiveErrors int

	// Logger receives tick failures. Defaults to the context logger.
	Logger *slog.Logger
}

// errorState tracks repeats of the most recent tick error.
type errorState struct {
	consecutive int
	lastMsg     string
}

// Run blocks, ticking until ctx is canceled or too many consecutive errors
// occur. A tick in progress is never interrupted by Run itself; ctx is passed
// to the tick and cancellation takes effect once it returns.
func (r *Runner) Run(ctx context.Context) error {
	if r.Tick == nil {
		return errors.Wrap(errors.ErrInvalidArgument, "tick function is required")
	}
	if r.Interval <= 0 {
		return errors.Wrapf(errors.ErrInvalidArgument, "interval must be positive (got %s)", r.Interval)
	}

	logger := r.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	var state errorState

	if r.Immediate {
		if err := r.tryTick(ctx, logger, &state); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("scheduler stopping", "reason", context.Cause(ctx))
			return ctx.Err()

		case <-ticker.C:
			if err := r.tryTick(ctx, logger, &state); err != nil {
				return err
			}
		}
	}
}

// tryTick runs one tick and returns a non-nil error only when the loop must
// stop.
func (r *Runner) tryTick(ctx context.Context, logger *slog.Logger, state *errorState) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	err := r.Tick(ctx)
	if err == nil {
		state.consecutive = 0
		state.lastMsg = ""
		return nil
	}

	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return ctx.Err()
	}

	msg := err.Error()
	if msg == state.lastMsg {
		state.consecutive++
	} else {
		state.consecutive = 1
		state.lastMsg = msg
	}

	logger.Error("tick failed, will retry next period",
		"error", err,
		"consecutive", state.consecutive,
		"retry_in", r.Interval,
	)

	// MaxConsecutiveErrors = 1 still allows one retry.
	if r.MaxConsecutiveErrors > 0 && state.consecutive > r.MaxConsecutiveErrors {
		return errors.Mark(
			errors.Wrapf(err, "same error %d times in a row", state.consecutive),
			ErrTooManyErrors,
		)
	}
	return nil
}
