// Package tracker implements the small state-tracking primitives views
// lean on every tick (spec component C15): detecting when a value changed
// since the last check, and debouncing a condition so it only reads true
// once it has held steady for a while. No original_source file survived
// distillation for this one — it's grounded directly on spec.md's prose
// describing both behaviors against the engine's 20Hz tick cadence
// (internal/engine/app, C17).
package tracker

import "time"

// Change detects transitions of a comparable value across successive
// calls to Update — e.g. "did the selected row change since last tick,"
// without the caller keeping its own "previous value" variable around.
type Change[T comparable] struct {
	current T
	has     bool
}

// NewChange builds a Change with no prior value recorded yet; the first
// Update always reports changed.
func NewChange[T comparable]() *Change[T] {
	return &Change[T]{}
}

// Update records value and reports whether it differs from the value
// recorded by the previous call (or true, on the very first call).
func (c *Change[T]) Update(value T) bool {
	changed := !c.has || c.current != value
	c.current = value
	c.has = true
	return changed
}

// Current returns the most recently recorded value.
func (c *Change[T]) Current() T { return c.current }

// Reset clears the recorded value, so the next Update always reports
// changed regardless of what it's called with.
func (c *Change[T]) Reset() { c.has = false }

// Debounce reports a condition as true only once it has held continuously
// for a minimum duration — e.g. "only treat the connection as lost after
// 3 consecutive failed polls," avoiding flapping on a single missed tick.
type Debounce struct {
	threshold time.Duration
	since     time.Time
	settled   bool
}

// NewDebounce builds a Debounce that reports true once a value has held
// steady for at least threshold.
func NewDebounce(threshold time.Duration) *Debounce {
	return &Debounce{threshold: threshold}
}

// Update advances the debounce with the latest raw condition value and
// the current time, returning whether the debounced (settled) value is
// currently true. Passing false resets the timer immediately, matching
// "any interruption restarts the countdown."
func (d *Debounce) Update(raw bool, now time.Time) bool {
	if !raw {
		d.since = time.Time{}
		d.settled = false
		return false
	}
	if d.since.IsZero() {
		d.since = now
	}
	if !d.settled && now.Sub(d.since) >= d.threshold {
		d.settled = true
	}
	return d.settled
}

// Reset clears the debounce back to its initial, unsettled state.
func (d *Debounce) Reset() {
	d.since = time.Time{}
	d.settled = false
}
