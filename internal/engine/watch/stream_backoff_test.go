package watch

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSource replays a scripted sequence of (Event, error) pairs, one per
// Next call, matching the oracle sequences in spec.md §8
// ("Backoff reset behavior").
type fakeSource struct {
	script []scriptedItem
	pos    int
}

type scriptedItem struct {
	kind EventKind
	err  error
}

func (f *fakeSource) Next(ctx context.Context) (Event[string], error) {
	it := f.script[f.pos]
	f.pos++
	if it.err != nil {
		return Event[string]{}, it.err
	}
	return Event[string]{Kind: it.kind, Item: "x"}, nil
}

// countingBackoff records how many times Next/Reset are called, standing
// in for internal/engine/backoff.Backoff so the test can assert call
// counts directly rather than timing.
type countingBackoff struct {
	nextCalls  int
	resetCalls int
}

func (b *countingBackoff) Next() time.Duration {
	b.nextCalls++
	return 0 // zero delay keeps the test synchronous
}

func (b *countingBackoff) Reset() { b.resetCalls++ }

var errUpstream = errors.New("upstream watch error")

func TestStreamBackoffInitDoesNotReset(t *testing.T) {
	// Error, Init, Init, Error -> backoff.Next() called twice,
	// backoff.Reset() called zero times (spec.md §8).
	src := &fakeSource{script: []scriptedItem{
		{err: errUpstream},
		{kind: EventInit},
		{kind: EventInit},
		{err: errUpstream},
	}}
	bo := &countingBackoff{}
	sb := New[string](src, bo)
	ctx := context.Background()

	for i := 0; i < len(src.script); i++ {
		sb.Next(ctx)
	}

	if bo.nextCalls != 2 {
		t.Fatalf("nextCalls = %d, want 2", bo.nextCalls)
	}
	if bo.resetCalls != 0 {
		t.Fatalf("resetCalls = %d, want 0 (Init must not reset)", bo.resetCalls)
	}
}

func TestStreamBackoffApplyResets(t *testing.T) {
	// Error, Init, Apply, Error -> exactly one reset (replacing the second
	// Init with Apply per spec.md §8).
	src := &fakeSource{script: []scriptedItem{
		{err: errUpstream},
		{kind: EventInit},
		{kind: EventApply},
		{err: errUpstream},
	}}
	bo := &countingBackoff{}
	sb := New[string](src, bo)
	ctx := context.Background()

	for i := 0; i < len(src.script); i++ {
		sb.Next(ctx)
	}

	if bo.resetCalls != 1 {
		t.Fatalf("resetCalls = %d, want 1", bo.resetCalls)
	}
}

func TestStreamBackoffErrorThenRecoveryPropagatesEvents(t *testing.T) {
	src := &fakeSource{script: []scriptedItem{
		{err: errUpstream},
		{kind: EventInitApply},
	}}
	bo := &countingBackoff{}
	sb := New[string](src, bo)
	ctx := context.Background()

	_, err := sb.Next(ctx)
	if !errors.Is(err, errUpstream) {
		t.Fatalf("first Next() err = %v, want errUpstream", err)
	}
	if sb.state != stateBackingOff {
		t.Fatalf("state = %v, want stateBackingOff", sb.state)
	}

	ev, err := sb.Next(ctx)
	if err != nil {
		t.Fatalf("second Next() err = %v, want nil", err)
	}
	if ev.Kind != EventInitApply || ev.Item != "x" {
		t.Fatalf("ev = %+v, want InitApply(x)", ev)
	}
	if sb.state != stateAwake {
		t.Fatalf("state = %v, want stateAwake after waking", sb.state)
	}
}

func TestStreamBackoffGivenUpClosesStream(t *testing.T) {
	// A Backoff implementation that gives up immediately (-1 sentinel),
	// exercising the GivenUp branch that internal/engine/backoff.Backoff
	// never reaches in production (its attempts are uncapped).
	src := &fakeSource{script: []scriptedItem{{err: errUpstream}}}
	bo := givenUpBackoff{}
	sb := New[string](src, bo)

	_, err := sb.Next(context.Background())
	if !errors.Is(err, ErrGivenUp) {
		t.Fatalf("err = %v, want ErrGivenUp", err)
	}
	if !sb.IsGivenUp() {
		t.Fatal("IsGivenUp() = false, want true")
	}

	_, err = sb.Next(context.Background())
	if !errors.Is(err, ErrGivenUp) {
		t.Fatalf("subsequent Next() err = %v, want ErrGivenUp (stream stays closed)", err)
	}
}

type givenUpBackoff struct{}

func (givenUpBackoff) Next() time.Duration { return -1 }
func (givenUpBackoff) Reset()              {}

func TestStreamBackoffWaitsOutDeadlineBeforePulling(t *testing.T) {
	src := &fakeSource{script: []scriptedItem{
		{err: errUpstream},
		{kind: EventApply},
	}}
	bo := &countingBackoff{}
	sb := New[string](src, bo)
	ctx := context.Background()

	waited := false
	sb.sleep = func(ctx context.Context, d time.Duration) error {
		waited = true
		return nil
	}

	sb.Next(ctx) // triggers the error, enters BackingOff
	sb.deadline = time.Now().Add(5 * time.Millisecond)
	if _, err := sb.Next(ctx); err != nil {
		t.Fatalf("Next() err = %v, want nil", err)
	}
	if !waited {
		t.Fatal("expected the injected sleep to be invoked while BackingOff")
	}
}

func TestStreamBackoffCancellationDuringBackoffPropagates(t *testing.T) {
	src := &fakeSource{script: []scriptedItem{{err: errUpstream}}}
	bo := &countingBackoff{}
	sb := New[string](src, bo)
	ctx, cancel := context.WithCancel(context.Background())

	sb.Next(context.Background()) // enters BackingOff
	sb.deadline = time.Now().Add(time.Hour)
	cancel()

	_, err := sb.Next(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
