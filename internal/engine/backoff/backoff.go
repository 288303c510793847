// Package backoff implements a jittered, resettable exponential delay
// generator (spec component C1) on top of github.com/cenkalti/backoff/v5.
//
// The upstream library gives us the jittered exponential sequence; the
// watchdog reset (force a reset if it has been more than 120s since the
// last reset) is not something the library models, so it lives here.
package backoff

import (
	"time"

	cenkalti "github.com/cenkalti/backoff/v5"
)

const (
	minDelay       = 800 * time.Millisecond
	maxDelay       = 30 * time.Second
	factor         = 2.0
	watchdogWindow = 120 * time.Second
)

// nowFunc is overridable in tests so the watchdog window can be exercised
// without sleeping for two real minutes.
var nowFunc = time.Now

// Backoff is a resettable, jittered exponential delay generator. It is not
// safe for concurrent use; callers (observers) own it exclusively.
type Backoff struct {
	b         *cenkalti.ExponentialBackOff
	startTime time.Time
}

// New builds a Backoff with the spec's fixed parameters: min=800ms,
// max=30s, factor=2.0, jitter on, uncapped attempts.
func New() *Backoff {
	bo := &Backoff{}
	bo.rebuild()
	return bo
}

func (bo *Backoff) rebuild() {
	b := cenkalti.NewExponentialBackOff()
	b.InitialInterval = minDelay
	b.MaxInterval = maxDelay
	b.Multiplier = factor
	b.RandomizationFactor = cenkalti.DefaultRandomizationFactor
	b.Reset()
	bo.b = b
	bo.startTime = nowFunc()
}

// Next returns the next delay to wait before retrying. The backoff never
// "gives up" on its own (max elapsed time is unbounded), matching spec.md's
// "uncapped attempts" — callers that need a give-up signal (C7) layer that
// on top. If more than 120s has elapsed since the last reset, Next first
// resets the sequence so a long-running errored session eventually retries
// at the minimum delay again (the watchdog behavior).
func (bo *Backoff) Next() time.Duration {
	if nowFunc().Sub(bo.startTime) > watchdogWindow {
		bo.rebuild()
	}
	d := bo.b.NextBackOff()
	if d == cenkalti.Stop {
		// Unreachable in practice: v5's ExponentialBackOff has no
		// elapsed-time cap, so the library never signals Stop. Fall back to
		// the max delay rather than propagate the sentinel.
		return maxDelay
	}
	if d > maxDelay {
		// Jitter can push a randomized delay above MaxInterval.
		return maxDelay
	}
	return d
}

// Reset restarts the sequence from the minimum delay and resets the
// watchdog window. Spec.md §4.1: every non-Init success event resets;
// Init events must NOT call this.
func (bo *Backoff) Reset() {
	bo.rebuild()
}
