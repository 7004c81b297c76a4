// internal/retry/retry.go
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Policy bounds a retry loop with a constant backoff between attempts.
//
// Retryable defaults to "every error".
// OnRetry, if set, runs after a failed attempt and before the backoff.
type Policy struct {
	Attempts  int
	Backoff   time.Duration
	Retryable func(err error) bool
	OnRetry   func(attempt int, err error, next time.Duration)
}

// Do runs op until it succeeds, returns a non-retryable error, or runs out of
// attempts. attempt is 1-based.
//
// A non-retryable error is returned as is. Cancellation returns the context
// error. Otherwise the last error is wrapped with ErrExhausted.
func Do(ctx context.Context, p Policy, op func(ctx context.Context, attempt int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		tries     int
		last      error
		permanent bool
	)
	operation := func() (struct{}, error) {
		tries++
		err := op(ctx, tries)
		if err == nil {
			return struct{}{}, nil
		}
		last = err
		if p.Retryable != nil && !p.Retryable(err) {
			permanent = true
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Backoff)),
		backoff.WithMaxTries(uint(attempts)),
	}
	if p.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, next time.Duration) {
			p.OnRetry(tries, err, next)
		}))
	}

	_, err := backoff.Retry(ctx, operation, opts...)
	switch {
	case err == nil:
		return nil
	case permanent:
		return last
	case ctx.Err() != nil:
		return ctx.Err()
	}
	return fmt.Errorf("%w after %d attempt(s): %w", ErrExhausted, tries, last)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
