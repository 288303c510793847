package response

import (
	"testing"

	"github.com/kubilitics/kcli/internal/engine/discovery"
	"github.com/kubilitics/kcli/internal/engine/kube"
)

func TestNotHandledEventIsZeroValue(t *testing.T) {
	var e Event
	if e != NotHandledEvent {
		t.Fatalf("zero Event = %+v, want NotHandledEvent", e)
	}
	if e.Kind != NotHandled {
		t.Fatalf("Kind = %v, want NotHandled", e.Kind)
	}
}

func TestIsActionMatchesNameOnly(t *testing.T) {
	e := Event{Kind: Action, ActionName: "delete"}
	if !e.IsAction("delete") {
		t.Fatal("IsAction(delete) = false, want true")
	}
	if e.IsAction("quit") {
		t.Fatal("IsAction(quit) = true, want false")
	}
	if (Event{Kind: Handled}).IsAction("delete") {
		t.Fatal("Handled event matched IsAction")
	}
}

func TestWhenActionThenOnlyFiresOnMatch(t *testing.T) {
	e := Event{Kind: Action, ActionName: "delete"}
	called := false
	result := e.WhenActionThen("delete", func() Event {
		called = true
		return Event{Kind: AskDeleteResources}
	})
	if !called {
		t.Fatal("WhenActionThen did not invoke f on matching action")
	}
	if result.Kind != AskDeleteResources {
		t.Fatalf("Kind = %v, want AskDeleteResources", result.Kind)
	}

	called = false
	result = e.WhenActionThen("quit", func() Event {
		called = true
		return Event{Kind: ExitApplication}
	})
	if called {
		t.Fatal("WhenActionThen invoked f on non-matching action")
	}
	if result != e {
		t.Fatalf("result = %+v, want unchanged %+v", result, e)
	}
}

func TestWhenEventThenComparesWholeEvent(t *testing.T) {
	e := Event{Kind: Accepted}
	result := e.WhenEventThen(Event{Kind: Accepted}, func() Event {
		return Event{Kind: Handled}
	})
	if result.Kind != Handled {
		t.Fatalf("Kind = %v, want Handled", result.Kind)
	}

	result = e.WhenEventThen(Event{Kind: Cancelled}, func() Event {
		return Event{Kind: Handled}
	})
	if result.Kind != Accepted {
		t.Fatalf("Kind = %v, want unchanged Accepted", result.Kind)
	}
}

func TestScopeDataConstructors(t *testing.T) {
	filter := kube.ResourceRefFilter{OwnerUID: "abc-123"}

	visible := NamespaceVisible(filter)
	if visible.Header != discovery.ScopeNamespaced || visible.List != discovery.ScopeNamespaced {
		t.Fatalf("NamespaceVisible scopes = %+v, want both Namespaced", visible)
	}
	if visible.Filter.OwnerUID != "abc-123" {
		t.Fatalf("Filter not carried through: %+v", visible.Filter)
	}

	hidden := NamespaceHidden(filter)
	if hidden.Header != discovery.ScopeNamespaced || hidden.List != discovery.ScopeCluster {
		t.Fatalf("NamespaceHidden scopes = %+v, want Header=Namespaced List=Cluster", hidden)
	}
}

type fakeView struct{ next Event }

func (v fakeView) ProcessEvent(event interface{}) Event { return v.next }

func TestResponsiveInterfaceSatisfiedByStruct(t *testing.T) {
	var r Responsive = fakeView{next: Event{Kind: ViewNamespaces}}
	if got := r.ProcessEvent(nil); got.Kind != ViewNamespaces {
		t.Fatalf("ProcessEvent Kind = %v, want ViewNamespaces", got.Kind)
	}
}
