package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type retryRecorder struct {
	attempts []int
	waits    []time.Duration
}

func (r *retryRecorder) onRetry(attempt int, _ error, next time.Duration) {
	r.attempts = append(r.attempts, attempt)
	r.waits = append(r.waits, next)
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	rec := &retryRecorder{}
	calls := 0

	err := Do(context.Background(), Policy{Attempts: 3, Backoff: time.Hour, OnRetry: rec.onRetry},
		func(context.Context, int) error {
			calls++
			return nil
		})

	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Empty(t, rec.waits)
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	rec := &retryRecorder{}
	var seen []int

	err := Do(context.Background(), Policy{Attempts: 4, Backoff: time.Millisecond, OnRetry: rec.onRetry},
		func(_ context.Context, attempt int) error {
			seen = append(seen, attempt)
			if attempt < 3 {
				return errBoom
			}
			return nil
		})

	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, seen)
	require.Equal(t, []int{1, 2}, rec.attempts)
	require.Equal(t, []time.Duration{time.Millisecond, time.Millisecond}, rec.waits)
}

func TestDo_WaitsBetweenAttempts(t *testing.T) {
	var at []time.Time

	err := Do(context.Background(), Policy{Attempts: 2, Backoff: 20 * time.Millisecond},
		func(context.Context, int) error {
			at = append(at, time.Now())
			return errBoom
		})

	require.ErrorIs(t, err, ErrExhausted)
	require.Len(t, at, 2)
	require.GreaterOrEqual(t, at[1].Sub(at[0]), 20*time.Millisecond)
}

func TestDo_Exhausted(t *testing.T) {
	rec := &retryRecorder{}
	calls := 0

	err := Do(context.Background(), Policy{
		Attempts: 3,
		Backoff:  time.Millisecond,
		OnRetry:  rec.onRetry,
	}, func(context.Context, int) error {
		calls++
		return errBoom
	})

	require.ErrorIs(t, err, ErrExhausted)
	require.ErrorIs(t, err, errBoom)
	require.Contains(t, err.Error(), "after 3 attempt(s)")
	require.Equal(t, 3, calls)
	require.Equal(t, []int{1, 2}, rec.attempts)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	rec := &retryRecorder{}
	calls := 0

	err := Do(context.Background(), Policy{
		Attempts:  5,
		Backoff:   time.Hour,
		Retryable: func(error) bool { return false },
		OnRetry:   rec.onRetry,
	}, func(context.Context, int) error {
		calls++
		return errBoom
	})

	require.Equal(t, errBoom, err)
	require.NotErrorIs(t, err, ErrExhausted)
	require.Equal(t, 1, calls)
	require.Empty(t, rec.waits)
}

func TestDo_NonRetryableOnLastAttempt(t *testing.T) {
	calls := 0

	err := Do(context.Background(), Policy{
		Attempts:  2,
		Backoff:   time.Millisecond,
		Retryable: func(err error) bool { return !errors.Is(err, context.DeadlineExceeded) },
	}, func(context.Context, int) error {
		calls++
		if calls == 2 {
			return context.DeadlineExceeded
		}
		return errBoom
	})

	require.Equal(t, context.DeadlineExceeded, err)
	require.Equal(t, 2, calls)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{}, func(context.Context, int) error {
		calls++
		return errBoom
	})
	require.ErrorIs(t, err, ErrExhausted)
	require.Equal(t, 1, calls)
}

func TestDo_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Do(ctx, Policy{Attempts: 5, Backoff: time.Hour}, func(context.Context, int) error {
		calls++
		cancel()
		return errBoom
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestDo_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, Policy{Attempts: 3}, func(context.Context, int) error {
		t.Fatal("op must not run")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	require.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}
