package app

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kubilitics/kcli/internal/engine/exec"
	"github.com/kubilitics/kcli/internal/engine/notify"
	"github.com/kubilitics/kcli/internal/engine/observer"
	"github.com/kubilitics/kcli/internal/engine/response"
	"github.com/kubilitics/kcli/internal/engine/rows"
)

type scriptedView struct {
	name       string
	respond    response.Event
	handled    bool
	rowsSeen   []rows.DynamicRow
	inits      []observer.InitData
	taskResults []exec.Result
}

func (v *scriptedView) ProcessEvent(event interface{}) response.Event {
	v.handled = true
	return v.respond
}

func (v *scriptedView) OnResourceRow(row rows.DynamicRow, deleted bool) {
	v.rowsSeen = append(v.rowsSeen, row)
}

func (v *scriptedView) OnInit(init observer.InitData) { v.inits = append(v.inits, init) }

func (v *scriptedView) OnTaskResult(result exec.Result) {
	v.taskResults = append(v.taskResults, result)
}

func TestStackDispatchStopsAtFirstHandledTopFirst(t *testing.T) {
	var s Stack
	bottom := &scriptedView{name: "bottom", respond: response.Event{Kind: response.Handled}}
	top := &scriptedView{name: "top", respond: response.NotHandledEvent}
	s.Push(bottom)
	s.Push(top)

	r := s.Dispatch(tea.KeyMsg{})
	if !top.handled {
		t.Fatal("top view should have been asked first")
	}
	if !bottom.handled {
		t.Fatal("bottom view should have been asked since top did not handle")
	}
	if r.Kind != response.Handled {
		t.Fatalf("Kind = %v, want Handled (bottom handled it)", r.Kind)
	}
}

func TestStackDispatchReturnsFirstHandlingViewsResponse(t *testing.T) {
	var s Stack
	bottom := &scriptedView{respond: response.Event{Kind: response.Handled}}
	top := &scriptedView{respond: response.Event{Kind: response.Accepted}}
	s.Push(bottom)
	s.Push(top)

	r := s.Dispatch(tea.KeyMsg{})
	if r.Kind != response.Accepted {
		t.Fatalf("Kind = %v, want Accepted (top handled it)", r.Kind)
	}
}

func TestModelHandlesExitApplication(t *testing.T) {
	view := &scriptedView{respond: response.Event{Kind: response.ExitApplication}}
	m := New(Dependencies{}, nil, nil, view)

	_, cmd := m.Update(tea.KeyMsg{})
	if cmd == nil {
		t.Fatal("expected a tea.Cmd (tea.Quit) after ExitApplication")
	}
	if !m.quitting {
		t.Fatal("Model should be marked quitting after ExitApplication")
	}
}

func TestModelDrainsNotificationsOnTick(t *testing.T) {
	sink := notify.New(nil)
	m := New(Dependencies{Notifier: sink}, nil, nil)

	sink.ShowInfo("hello", notify.DefaultMessageDuration)
	sink.SetIcon("spinner", '|', notify.IconDefault)
	sink.SetBreadcrumbTrail([]string{"pods", "default"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m.tick()
		if m.Footer().Message.Text == "hello" {
			break
		}
	}

	footer := m.Footer()
	if footer.Message.Text != "hello" {
		t.Fatalf("Message.Text = %q, want %q", footer.Message.Text, "hello")
	}
	if _, ok := footer.Icons["spinner"]; !ok {
		t.Fatal("spinner icon not recorded")
	}
	if len(footer.Breadcrumb) != 2 || footer.Breadcrumb[1] != "default" {
		t.Fatalf("Breadcrumb = %v", footer.Breadcrumb)
	}
}

type instantCommand struct{ kind exec.ResultKind }

func (c instantCommand) Execute(ctx context.Context) exec.Result { return exec.Result{Kind: c.kind} }

func TestModelDrainsExecutorResultsToTopView(t *testing.T) {
	executor := exec.New()
	defer executor.Stop()
	view := &scriptedView{respond: response.NotHandledEvent}
	m := New(Dependencies{Executor: executor}, nil, nil, view)

	executor.Submit(instantCommand{kind: exec.ThemesList})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(view.taskResults) == 0 {
		m.tick()
	}
	if len(view.taskResults) != 1 {
		t.Fatalf("len(taskResults) = %d, want 1", len(view.taskResults))
	}
	if view.taskResults[0].Kind != exec.ThemesList {
		t.Fatalf("Kind = %v, want ThemesList", view.taskResults[0].Kind)
	}
}
