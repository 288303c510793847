package log

import "testing"

func TestNewProducesUsableLogger(t *testing.T) {
	l, err := New(Options{Development: true})
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	l.Info("hello", "k", "v")
}

func TestNopIsUsable(t *testing.T) {
	Nop().Info("noop")
}
