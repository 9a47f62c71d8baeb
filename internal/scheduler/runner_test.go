package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/logging"
)

type mockTicker struct {
	mock.Mock
}

func (m *mockTicker) Tick(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func testContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return logging.NewContext(ctx, logging.ForTest(t)), cancel
}

func TestRun_Validation(t *testing.T) {
	tests := []struct {
		name   string
		runner Runner
	}{
		{"missing tick", Runner{Interval: time.Second}},
		{"zero interval", Runner{Tick: func(context.Context) error { return nil }}},
		{"negative interval", Runner{Tick: func(context.Context) error { return nil }, Interval: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.runner.Run(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
		})
	}
}

func TestRun_TicksUntilCanceled(t *testing.T) {
	ctx, cancel := testContext(t)

	var calls atomic.Int32
	r := &Runner{
		Interval: time.Millisecond,
		Tick: func(context.Context) error {
			if calls.Add(1) == 3 {
				cancel()
			}
			return nil
		},
	}

	err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRun_FirstTickWaitsOneInterval(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	mt := &mockTicker{}
	r := &Runner{Tick: mt.Tick, Interval: time.Hour, Logger: logging.NewDiscard()}

	err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	mt.AssertNotCalled(t, "Tick", mock.Anything)
}

func TestRun_Immediate(t *testing.T) {
	ctx, cancel := testContext(t)

	mt := &mockTicker{}
	mt.On("Tick", mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(nil).Once()

	r := &Runner{Tick: mt.Tick, Interval: time.Hour, Immediate: true}

	err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	mt.AssertExpectations(t)
}

func TestRun_TicksNeverOverlap(t *testing.T) {
	ctx, cancel := testContext(t)

	var inFlight, maxInFlight, calls atomic.Int32
	r := &Runner{
		Interval: time.Millisecond,
		Tick: func(context.Context) error {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			if n > maxInFlight.Load() {
				maxInFlight.Store(n)
			}
			// Slower than the interval.
			time.Sleep(10 * time.Millisecond)
			if calls.Add(1) == 5 {
				cancel()
			}
			return nil
		},
	}

	err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.Equal(t, int32(5), calls.Load())
}

func TestRun_ErrorsDoNotStopLoop(t *testing.T) {
	ctx, cancel := testContext(t)
	boom := errors.New("backup directory not accessible")

	mt := &mockTicker{}
	mt.On("Tick", mock.Anything).Return(boom).Twice()
	mt.On("Tick", mock.Anything).Return(nil).Once()
	mt.On("Tick", mock.Anything).Return(boom).Twice()
	mt.On("Tick", mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(nil)

	r := &Runner{Tick: mt.Tick, Interval: time.Millisecond, MaxConsecutiveErrors: 2}

	err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	mt.AssertNumberOfCalls(t, "Tick", 6)
}

func TestRun_StopsAfterMaxConsecutiveErrors(t *testing.T) {
	ctx, _ := testContext(t)
	boom := errors.New("disk full")

	mt := &mockTicker{}
	mt.On("Tick", mock.Anything).Return(boom)

	r := &Runner{Tick: mt.Tick, Interval: time.Millisecond, MaxConsecutiveErrors: 2}

	err := r.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyErrors))
	assert.Contains(t, err.Error(), "disk full")
	mt.AssertNumberOfCalls(t, "Tick", 3)
}

func TestRun_DifferentErrorsResetCount(t *testing.T) {
	ctx, cancel := testContext(t)

	var calls atomic.Int32
	r := &Runner{
		Interval:             time.Millisecond,
		MaxConsecutiveErrors: 1,
		Tick: func(context.Context) error {
			n := calls.Add(1)
			if n == 6 {
				cancel()
				return nil
			}
			if n%2 == 0 {
				return errors.New("error a")
			}
			return errors.New("error b")
		},
	}

	err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(6), calls.Load())
}

func TestRun_CanceledTickErrorStops(t *testing.T) {
	ctx, cancel := testContext(t)

	var calls atomic.Int32
	r := &Runner{
		Interval: time.Millisecond,
		Tick: func(ctx context.Context) error {
			calls.Add(1)
			cancel()
			return ctx.Err()
		},
	}

	err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(1), calls.Load())
}
