// Package response implements the view response protocol (spec component
// C16): the closed set of outcomes a view can return from processing one
// input event, translated from response.rs's ResponseEvent enum into a
// tagged Go struct (Go has no sum types, so Kind discriminates which
// fields are meaningful — the same pattern the teacher uses for its own
// tea.Msg variants in internal/ui/tui.go).
package response

import (
	"github.com/kubilitics/kcli/internal/engine/discovery"
	"github.com/kubilitics/kcli/internal/engine/kube"
)

// Kind discriminates which Event variant this is, and therefore which of
// Event's fields are meaningful.
type Kind int

const (
	NotHandled Kind = iota
	Handled
	Cancelled
	Accepted
	Action

	ExitApplication

	Change
	ChangeAndSelect
	ChangeAndSelectPrev
	ChangeKind
	ChangeKindAndSelect
	ChangeNamespace
	ChangeContext
	ChangeTheme

	ViewPreviousResource
	ViewContainers
	ViewInvolved
	ViewScoped
	ViewScopedPrev
	ViewNamespaces

	ListKubeContexts
	ListThemes
	ListResourcePorts

	AskDeleteResources
	DeleteResources

	NewYaml
	ViewYaml
	ViewLogs
	ViewPreviousLogs

	OpenShell
	ShowPortForwards
	PortForward
)

// ScopeData is ResponseEvent::ViewScoped's payload: which Scope the list
// and its header render at, plus the filter narrowing which resources the
// scoped view shows.
type ScopeData struct {
	Header discovery.Scope
	List   discovery.Scope
	Filter kube.ResourceRefFilter
}

// NamespaceVisible builds a ScopeData that keeps the namespace column
// visible (both header and list at Namespaced scope).
func NamespaceVisible(filter kube.ResourceRefFilter) ScopeData {
	return ScopeData{Header: discovery.ScopeNamespaced, List: discovery.ScopeNamespaced, Filter: filter}
}

// NamespaceHidden builds a ScopeData that hides the namespace column (the
// list collapses to Cluster scope while the header stays Namespaced, so a
// "view containers of this one pod" drill-down doesn't show a redundant
// namespace column).
func NamespaceHidden(filter kube.ResourceRefFilter) ScopeData {
	return ScopeData{Header: discovery.ScopeNamespaced, List: discovery.ScopeCluster, Filter: filter}
}

// Event is the Go analogue of ResponseEvent: one value, discriminated by
// Kind, carrying only the fields that variant needs.
type Event struct {
	Kind Kind

	ActionName string // Action

	ChangeFrom, ChangeTo string // Change, ChangeAndSelect(Prev), ChangeKind*
	SelectName           string // ChangeAndSelect(Prev)'s optional select target ("" = none)

	Name      string // ChangeNamespace/Context/Theme, ViewLogs target, OpenShell target name
	Container string // ViewContainers' container name

	Ref            kube.ResourceRef // ViewYaml/NewYaml/ViewLogs/OpenShell/ListResourcePorts/PortForward target
	SecondName     string           // ViewInvolved/ViewScoped's second positional name
	ThirdName      string           // ViewScoped's optional third positional name ("" = none)
	Scope          ScopeData        // ViewScoped/ViewScopedPrev
	EditMode       bool             // NewYaml/ViewYaml's "open in edit mode" flag

	DeleteWithGracePeriodZero bool // DeleteResources first bool
	DeleteDetachFinalizers    bool // DeleteResources second bool

	LocalPort, RemotePort uint16 // PortForward
	Protocol              string // PortForward
}

// NotHandledEvent is the zero value every Responsive.ProcessEvent should
// default to returning, matching ResponseEvent::default() == NotHandled.
var NotHandledEvent = Event{Kind: NotHandled}

// Responsive is a UI object that can process one input event into a
// response, the Go analogue of the Responsive trait.
type Responsive interface {
	ProcessEvent(event interface{}) Event
}

// IsAction reports whether e is an Action event matching name.
func (e Event) IsAction(name string) bool {
	return e.Kind == Action && e.ActionName == name
}

// WhenActionThen returns f() if e is an Action event matching name,
// otherwise e unchanged — mirroring when_action_then's fluent chaining.
func (e Event) WhenActionThen(name string, f func() Event) Event {
	if e.IsAction(name) {
		return f()
	}
	return e
}

// WhenEventThen returns f() if e deep-equals other, otherwise e
// unchanged — mirroring when_event_then.
func (e Event) WhenEventThen(other Event, f func() Event) Event {
	if e == other {
		return f()
	}
	return e
}
