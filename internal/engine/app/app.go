// Package app implements the application loop (spec component C17): a
// fixed-rate tick that drains every background queue the rest of the
// engine produces (discovery, the current resource observer, the CRD
// registry, metrics, notifications, executor results) and forwards input
// events to a view stack, exactly the eight-step sequence spec.md §4.11
// prescribes.
//
// Grounded on spec.md §4.11 and the teacher's own bubbletea dispatch loop
// in internal/ui/tui.go (tickMsg/refreshTickMsg/informerUpdateMsg folded
// into one Update method); this package reuses the same tea.Tick/tea.Cmd
// idiom but ticks the engine's channel-drain sequence instead of the
// teacher's informer-notify channel. Concrete rendering stays out of the
// engine per spec.md §1 ("does not expose a public library API... feeds a
// single interactive process") — Model.View delegates to an injected
// Renderer rather than drawing anything itself.
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"

	"github.com/kubilitics/kcli/internal/engine/crd"
	"github.com/kubilitics/kcli/internal/engine/discovery"
	"github.com/kubilitics/kcli/internal/engine/exec"
	"github.com/kubilitics/kcli/internal/engine/kube"
	"github.com/kubilitics/kcli/internal/engine/metrics"
	"github.com/kubilitics/kcli/internal/engine/notify"
	"github.com/kubilitics/kcli/internal/engine/observer"
	"github.com/kubilitics/kcli/internal/engine/response"
	"github.com/kubilitics/kcli/internal/engine/rows"
)

// TickRate is the fixed 20 Hz cadence spec.md §4.11 mandates (a 50 ms
// budget per tick).
const TickRate = 50 * time.Millisecond

// View is one entry of the navigation stack. ProcessEvent receives an
// input event (a tea.KeyMsg or tea.MouseMsg, passed as interface{} so
// this package stays agnostic of bubbletea's exact message shape beyond
// what Dispatch needs) and returns a response.Event describing what the
// app should do next, per response.Responsive.
type View interface {
	response.Responsive
	// OnResourceRow is called once per projected row as the current
	// observer's queue is drained, letting the view update its own list
	// model (spec.md §4.11 step 3/5: resource rows and metrics merge).
	OnResourceRow(row rows.DynamicRow, deleted bool)
	// OnInit is called when the current observer (re)connects, carrying
	// a fresh session so the view can reset its list model (spec.md
	// §4.4/§4.11: "a fresh Init delimits old from new; consumers must
	// reset on Init").
	OnInit(init observer.InitData)
	// OnTaskResult is called for an executor Result whose TaskUUID this
	// view recognizes as one it originated (spec.md §4.11 step 7).
	OnTaskResult(result exec.Result)
}

// Stack is the navigation stack input events are forwarded through,
// top-first, until one view reports Handled/Cancelled or an action event
// — spec.md §4.11 step 1.
type Stack struct {
	views []View
}

// Push adds a view to the top of the stack.
func (s *Stack) Push(v View) { s.views = append(s.views, v) }

// Pop removes and returns the top view, if any.
func (s *Stack) Pop() (View, bool) {
	if len(s.views) == 0 {
		return nil, false
	}
	top := s.views[len(s.views)-1]
	s.views = s.views[:len(s.views)-1]
	return top, true
}

// Top returns the current top-of-stack view, if any.
func (s *Stack) Top() (View, bool) {
	if len(s.views) == 0 {
		return nil, false
	}
	return s.views[len(s.views)-1], true
}

// Dispatch forwards event to each view from the top down until one
// returns anything other than response.NotHandled.
func (s *Stack) Dispatch(event interface{}) response.Event {
	for i := len(s.views) - 1; i >= 0; i-- {
		if r := s.views[i].ProcessEvent(event); r.Kind != response.NotHandled {
			return r
		}
	}
	return response.NotHandledEvent
}

// Dependencies bundles the background engine components the app loop
// drains each tick. All fields are required except CRDRegistry (nil
// disables step 4) and Metrics (nil disables step 5's merge, though rows
// extractors already degrade gracefully without it, per
// internal/engine/rows.
type Dependencies struct {
	Discovery  *discovery.BgDiscovery
	CRDRegistry *crd.Registry
	Metrics    *metrics.BgStatistics
	Notifier   *notify.Sink
	Executor   *exec.BgExecutor
	Rows       *rows.Registry
	Log        logr.Logger
}

// ObserverFactory starts a new resource observer for ref, the Go analogue
// of spec.md §4.11's "switching kind/namespace/context... starts a new
// [observer] with a freshly allocated uuid".
type ObserverFactory func(ref kube.ResourceRef) (*observer.BgObserver, error)

// Renderer draws the current state; injected so this package never
// imports a rendering library itself (rendering is internal/ui's job,
// per spec.md §1's non-goals).
type Renderer func(m *Model) string

// FooterState is the latest drained notification state (spec.md §4.11
// step 6), exposed for a Renderer to read.
type FooterState struct {
	Message   notify.Message
	Icons     map[string]notify.Icon
	Breadcrumb []string
}

// Model is the bubbletea model driving the fixed-rate tick loop.
type Model struct {
	deps     Dependencies
	factory  ObserverFactory
	render   Renderer
	stack    Stack
	observer *observer.BgObserver
	currentPlural string
	footer   FooterState
	lastDiscovery discovery.List
	width, height int
	quitting bool
}

// New builds a Model ready to run. initialViews seeds the navigation
// stack (outermost first).
func New(deps Dependencies, factory ObserverFactory, render Renderer, initialViews ...View) *Model {
	m := &Model{
		deps:    deps,
		factory: factory,
		render:  render,
		footer:  FooterState{Icons: map[string]notify.Icon{}},
	}
	for _, v := range initialViews {
		m.stack.Push(v)
	}
	return m
}

// SwitchResource cancels the current observer (if any) and starts a new
// one for ref with a freshly allocated session, per spec.md §4.11's
// "switching kind/namespace/context cancels the current resource observer
// and starts a new one... prior queued events are dropped".
func (m *Model) SwitchResource(ref kube.ResourceRef) error {
	if m.observer != nil {
		m.observer.Stop()
		m.observer = nil
	}
	o, err := m.factory(ref)
	if err != nil {
		return err
	}
	m.observer = o
	return nil
}

// Stack exposes the navigation stack for callers that need to push/pop
// views outside of a response.Event-driven transition (e.g. at startup).
func (m *Model) Stack() *Stack { return &m.stack }

// Footer exposes the latest drained notification state for rendering.
func (m *Model) Footer() FooterState { return m.footer }

// LastDiscovery exposes the latest drained discovery list for rendering.
func (m *Model) LastDiscovery() discovery.List { return m.lastDiscovery }

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(TickRate, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the tick loop (bubbletea's tea.Model contract).
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model, draining every queue once per tick in the
// exact order spec.md §4.11 lists, then forwarding keyboard/mouse input
// to the view stack.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg, tea.MouseMsg:
		return m.dispatchInput(msg)
	case tickMsg:
		m.tick()
		if m.quitting {
			return m, tea.Quit
		}
		return m, tickCmd()
	}
	return m, nil
}

// View implements tea.Model by delegating to the injected Renderer.
func (m *Model) View() string {
	if m.render == nil {
		return ""
	}
	return m.render(m)
}

func (m *Model) dispatchInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	r := m.stack.Dispatch(msg)
	m.handleResponse(r)
	if m.quitting {
		return m, tea.Quit
	}
	return m, nil
}

// tick runs spec.md §4.11 steps 2-7 (step 1, input, is driven by
// dispatchInput on its own tea.Msg branch rather than folded into the
// timer tick — bubbletea delivers keyboard/mouse and timer messages as
// distinct tea.Msg values, there is nothing to "drain" for input beyond
// what Update already received). Step 8 (render) is bubbletea's own
// responsibility once Update returns.
func (m *Model) tick() {
	m.drainDiscovery()
	m.drainObserver()
	m.drainCRD()
	m.drainNotifications()
	m.drainExecutor()
}

func (m *Model) drainDiscovery() {
	if m.deps.Discovery == nil {
		return
	}
	if list, ok := m.deps.Discovery.TryNext(); ok {
		m.lastDiscovery = list
	}
}

func (m *Model) drainObserver() {
	if m.observer == nil {
		return
	}
	top, ok := m.stack.Top()
	for {
		res, ok2 := m.observer.TryNext()
		if !ok2 {
			return
		}
		if !ok {
			continue
		}
		switch res.Kind {
		case observer.ResultInit:
			if res.Init != nil {
				m.currentPlural = res.Init.KindPlural
				top.OnInit(*res.Init)
			}
		case observer.ResultApply:
			if res.Object != nil && m.deps.Rows != nil {
				row := m.deps.Rows.ProjectorFor(m.currentPlural).Project(res.Object, m.deps.Metrics)
				top.OnResourceRow(row, false)
			}
		case observer.ResultDelete:
			if res.Object != nil && m.deps.Rows != nil {
				row := m.deps.Rows.ProjectorFor(m.currentPlural).Project(res.Object, m.deps.Metrics)
				top.OnResourceRow(row, true)
			}
		}
	}
}

func (m *Model) drainCRD() {
	if m.deps.CRDRegistry == nil || m.observer == nil {
		return
	}
	crd.Drain(m.deps.CRDRegistry, m.observer)
}

func (m *Model) drainNotifications() {
	if m.deps.Notifier == nil {
		return
	}
	draining := true
	for draining {
		select {
		case msg := <-m.deps.Notifier.Messages():
			m.footer.Message = msg
		default:
			draining = false
		}
	}

	draining = true
	for draining {
		select {
		case action := <-m.deps.Notifier.Icons():
			switch action.Kind {
			case notify.IconAdd:
				m.footer.Icons[action.Icon.ID] = action.Icon
			case notify.IconRemove:
				delete(m.footer.Icons, action.ID)
			}
		default:
			draining = false
		}
	}

	draining = true
	for draining {
		select {
		case t := <-m.deps.Notifier.Trail():
			m.footer.Breadcrumb = t
		default:
			draining = false
		}
	}
}

func (m *Model) drainExecutor() {
	if m.deps.Executor == nil {
		return
	}
	top, ok := m.stack.Top()
	for {
		res, ok2 := m.deps.Executor.TryNext()
		if !ok2 {
			return
		}
		if ok {
			top.OnTaskResult(res)
		}
	}
}

// handleResponse reacts to navigation/lifecycle response.Events that the
// app loop itself is responsible for (everything else is the concern of
// whichever view produced the event, already applied before returning).
func (m *Model) handleResponse(r response.Event) {
	switch r.Kind {
	case response.ExitApplication:
		m.quitting = true
	case response.Change, response.ChangeAndSelect, response.ChangeAndSelectPrev:
		kind := kube.From(r.ChangeTo)
		_ = m.SwitchResource(kube.NewResourceRef(kind, kube.AllNamespacesNS()))
	case response.ChangeKind, response.ChangeKindAndSelect:
		kind := kube.From(r.ChangeTo)
		_ = m.SwitchResource(kube.NewResourceRef(kind, kube.AllNamespacesNS()))
	case response.ChangeNamespace:
		if m.observer != nil {
			ref := kube.NewResourceRef(m.observer.ObservedKind(), kube.NamespaceFrom(r.Name))
			_ = m.SwitchResource(ref)
		}
	}
}
