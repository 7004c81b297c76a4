// internal/poller/runner.go
package poller

import (
	"context"
	"time"

	"github.com/tamzrod/modbus-collector/internal/retry"
)

// Clock abstracts time for the polling loop.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error { return retry.Sleep(ctx, d) }

// Align returns the smallest multiple of interval, counted in whole
// milliseconds from the Unix epoch, that is >= now. The result is UTC.
func Align(now time.Time, interval time.Duration) time.Time {
	step := interval.Milliseconds()
	if step <= 0 {
		return now.UTC()
	}
	ms := now.UnixMilli()
	if now.Sub(time.UnixMilli(ms)) > 0 {
		ms++ // sub-millisecond remainder
	}
	if r := ms % step; r != 0 {
		ms += step - r
	}
	return time.UnixMilli(ms).UTC()
}

// Run polls until ctx is cancelled, handing every result to sink.
// One goroutine per table. Iterations never overlap and ticks are not queued:
// an iteration that overruns its interval is followed immediately by the next,
// stamped with Align(now). Otherwise each iteration is stamped with the tick it
// slept until, so a late wake-up keeps its tick.
func (p *Poller) Run(ctx context.Context, sink Sink) {
	interval := p.cfg.Table.PollingInterval

	p.log.Info().
		Dur("interval", interval).
		Int("tags", len(p.cfg.Tags)).
		Msg("poller started")
	defer p.log.Info().Msg("poller stopped")

	ts := Align(p.clock.Now(), interval)
	for {
		if ctx.Err() != nil {
			return
		}

		started := p.clock.Now()
		res := p.pollSafe(ctx, ts)
		if res.Outcome == "" {
			// cancelled mid-read
			return
		}

		p.deliver(ctx, sink, res)

		p.log.Debug().
			Str("outcome", res.Outcome).
			Int("values", len(res.Measurements)).
			Int("requested", res.Requested).
			Dur("elapsed", p.clock.Now().Sub(started)).
			Msg("poll complete")

		// An overrun iteration restarts on the next tick at or after now,
		// so a timestamp is never earlier than the read it labels.
		next := ts.Add(interval)
		now := p.clock.Now()
		wait := next.Sub(now)
		if wait <= 0 {
			ts = Align(now, interval)
			continue
		}
		if err := p.clock.Sleep(ctx, wait); err != nil {
			return
		}
		ts = next
	}
}

// deliver hands res to sink. A panicking sink is logged and the loop goes on.
func (p *Poller) deliver(ctx context.Context, sink Sink, res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Interface("panic", r).
				Time("timestamp", res.Timestamp).
				Msg("result delivery panicked")
		}
	}()
	if err := sink.Write(ctx, res); err != nil {
		p.log.Error().Err(err).Time("timestamp", res.Timestamp).Msg("result delivery failed")
	}
}
