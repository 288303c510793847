package tracker

import (
	"testing"
	"time"
)

func TestChangeReportsChangedOnFirstCall(t *testing.T) {
	c := NewChange[string]()
	if !c.Update("a") {
		t.Fatal("first Update should report changed")
	}
	if c.Update("a") {
		t.Fatal("repeating the same value should not report changed")
	}
	if !c.Update("b") {
		t.Fatal("new value should report changed")
	}
	if c.Current() != "b" {
		t.Fatalf("Current() = %q, want %q", c.Current(), "b")
	}
}

func TestChangeResetForcesChangedNext(t *testing.T) {
	c := NewChange[int]()
	c.Update(5)
	c.Reset()
	if !c.Update(5) {
		t.Fatal("Update after Reset should report changed even for the same value")
	}
}

func TestDebounceSettlesOnlyAfterThreshold(t *testing.T) {
	d := NewDebounce(3 * time.Second)
	start := time.Now()

	if d.Update(true, start) {
		t.Fatal("should not settle immediately")
	}
	if d.Update(true, start.Add(2*time.Second)) {
		t.Fatal("should not settle before threshold elapses")
	}
	if !d.Update(true, start.Add(3*time.Second)) {
		t.Fatal("should settle once threshold has elapsed")
	}
	if !d.Update(true, start.Add(10*time.Second)) {
		t.Fatal("should remain settled while condition stays true")
	}
}

func TestDebounceResetsOnFalse(t *testing.T) {
	d := NewDebounce(time.Second)
	start := time.Now()
	d.Update(true, start)
	d.Update(true, start.Add(2*time.Second))

	if d.Update(false, start.Add(3*time.Second)) {
		t.Fatal("false should immediately unsettle")
	}
	if d.Update(true, start.Add(3100*time.Millisecond)) {
		t.Fatal("restarting after a false should require the full threshold again")
	}
	if !d.Update(true, start.Add(4200*time.Millisecond)) {
		t.Fatal("should settle again after threshold elapses post-restart")
	}
}
