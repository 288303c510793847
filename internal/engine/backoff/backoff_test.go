package backoff

import (
	"testing"
	"time"
)

func TestNextStaysWithinBounds(t *testing.T) {
	bo := New()
	for i := 0; i < 20; i++ {
		d := bo.Next()
		if d < 0 || d > maxDelay {
			t.Fatalf("Next() = %v, want within [0, %v]", d, maxDelay)
		}
	}
}

func TestResetRestartsSequence(t *testing.T) {
	bo := New()
	for i := 0; i < 10; i++ {
		bo.Next()
	}
	bo.Reset()
	d := bo.Next()
	if d < 0 || d > 2*minDelay {
		t.Fatalf("Next() after Reset() = %v, want near min delay (<= %v)", d, 2*minDelay)
	}
}

func TestWatchdogResetsAfter120s(t *testing.T) {
	orig := nowFunc
	defer func() { nowFunc = orig }()

	base := time.Now()
	nowFunc = func() time.Time { return base }

	bo := New()
	for i := 0; i < 10; i++ {
		bo.Next()
	}

	// Jump forward more than 120s without an explicit Reset: the next call
	// to Next should rebuild (watchdog) and behave like a fresh sequence.
	nowFunc = func() time.Time { return base.Add(121 * time.Second) }
	d1 := bo.Next()

	// A second fresh Backoff, never advanced, should produce delays in the
	// same bounded range as the post-watchdog one (both start near minDelay
	// modulo jitter).
	nowFunc = func() time.Time { return base }
	fresh := New()
	d2 := fresh.Next()

	for _, d := range []time.Duration{d1, d2} {
		if d < 0 || d > 2*minDelay {
			t.Fatalf("delay %v out of bounds, want near min delay (<= %v)", d, 2*minDelay)
		}
	}
}
