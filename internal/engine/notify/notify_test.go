package notify

import "testing"

func TestShowInfoAndErrorDefaults(t *testing.T) {
	s := New(nil)
	s.ShowInfo("hello", DefaultMessageDuration)
	s.ShowError("boom", DefaultErrorDuration)

	m1 := <-s.Messages()
	if m1.Kind != Info || m1.Text != "hello" || m1.DurationMS != DefaultMessageDuration {
		t.Fatalf("m1 = %+v", m1)
	}
	m2 := <-s.Messages()
	if m2.Kind != Error || m2.Text != "boom" || m2.DurationMS != DefaultErrorDuration {
		t.Fatalf("m2 = %+v", m2)
	}
}

func TestHintShowAndHide(t *testing.T) {
	s := New(nil)
	s.ShowHint("press ? for help")
	s.HideHint()

	m1 := <-s.Messages()
	if m1.Kind != Hint || m1.Text != "press ? for help" {
		t.Fatalf("m1 = %+v", m1)
	}
	m2 := <-s.Messages()
	if m2.Kind != Hint || m2.Text != "" {
		t.Fatalf("m2 = %+v, want cleared hint", m2)
	}
}

func TestSetIconAddAndRemove(t *testing.T) {
	s := New(nil)
	s.SetIcon("spinner", '⣾', IconDefault)
	a1 := <-s.Icons()
	if a1.Kind != IconAdd || a1.Icon.ID != "spinner" || a1.Icon.Rune != '⣾' {
		t.Fatalf("a1 = %+v", a1)
	}

	s.SetIcon("spinner", 0, IconDefault)
	a2 := <-s.Icons()
	if a2.Kind != IconRemove || a2.ID != "spinner" {
		t.Fatalf("a2 = %+v", a2)
	}
}

func TestSetTextAddAndRemove(t *testing.T) {
	s := New(nil)
	s.SetText("ctx", "prod-cluster", IconSuccess)
	a1 := <-s.Icons()
	if a1.Kind != IconAdd || a1.Icon.Text != "prod-cluster" || a1.Icon.Kind != IconSuccess {
		t.Fatalf("a1 = %+v", a1)
	}

	s.SetText("ctx", "", IconSuccess)
	a2 := <-s.Icons()
	if a2.Kind != IconRemove || a2.ID != "ctx" {
		t.Fatalf("a2 = %+v", a2)
	}
}

func TestSetBreadcrumbTrail(t *testing.T) {
	s := New(nil)
	s.SetBreadcrumbTrail([]string{"pods", "default", "my-pod"})
	got := <-s.Trail()
	if len(got) != 3 || got[2] != "my-pod" {
		t.Fatalf("got = %v", got)
	}
}

func TestFullMailboxDropsWithoutBlocking(t *testing.T) {
	s := New(nil)
	for i := 0; i < mailboxCapacity+10; i++ {
		s.ShowInfo("spam", 1) // must never block regardless of capacity
	}
	if len(s.messages) != mailboxCapacity {
		t.Fatalf("channel len = %d, want full buffer %d", len(s.messages), mailboxCapacity)
	}
}
