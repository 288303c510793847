// Package exec implements the background executor (spec component C13):
// a goroutine pool running one-shot commands (delete resources, fetch/
// patch/create YAML, list contexts, save config, port-forward) off the
// render loop, delivering results through an unbounded, mutex-guarded
// queue the application loop (C17) drains each tick with TryNext.
//
// Grounded on original_source/b4n-tasks/{lib,commands/mod}.rs: BgExecutor
// there is a tokio task pool reading Commands off an mpsc channel and
// producing CommandResults on another; this package follows the same
// shape with one goroutine per submitted command and a slice-backed
// result queue in place of tokio tasks and channels.
package exec

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Command is anything the executor can run to completion and turn into a
// Result. Mirrors commands::Command's closed variant set, but as an
// interface so each command type owns its own execution logic (closer to
// the teacher's per-command execute() methods than a giant switch).
type Command interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of one executed Command — spec.md's CommandResult,
// a closed variant keyed by Kind with only the matching field populated.
type Result struct {
	TaskUUID string // matches the uuid Submit returned, so the app loop (C17
	// §4.11 item 7) can dispatch this Result to the view that originated it.
	Kind  ResultKind
	Value interface{} // concrete payload: see the ResultKind doc comments
	Err   error
}

// ResultKind identifies which command produced a Result, and therefore
// how to interpret Value.
type ResultKind int

const (
	// ContextsList: Value is []string (kube context names).
	ContextsList ResultKind = iota
	// ResourcePortsList: Value is []int32 (container ports found on the
	// matched resource).
	ResourcePortsList
	// ThemesList: Value is []string (theme file paths).
	ThemesList
	// KubernetesClient: Value is ClientResult on success (Err set on
	// failure).
	KubernetesClient
	// NewYaml: Value is string (a boilerplate YAML template for the kind).
	NewYaml
	// GetYaml: Value is string (the fetched object's rendered YAML).
	GetYaml
	// SetYaml: Value is string (the name of the created or patched object).
	SetYaml
	// DeleteResource: no Value and no Err. Per-resource failures (of the
	// finalizer patch or of the delete) are discarded by Execute; they are
	// neither logged nor reported in the Result.
	DeleteResource
	// SaveConfig / SaveHistory: no Value; Err set on failure.
	SaveConfig
	SaveHistory
	// PortForward: Value is PortForwardEvent (supplemented command,
	// SPEC_FULL.md §7 item 1 — not present in the original's closed
	// variant set, which only described BgTask's shape; the forwarder
	// module itself was absent from the retrieval pack).
	PortForward
)

// taskHandle is one entry in BgExecutor's task list (spec.md's "a list of
// tasks", each carrying its own cancellation signal): cancel stops just
// this task, done marks it for garbage collection on the next Submit.
type taskHandle struct {
	cancel context.CancelFunc
	done   atomic.Bool
}

// BgExecutor runs submitted Commands on one goroutine per task, tracked
// individually so a single task can be cancelled without affecting the
// rest, and collects their Results on an unbounded queue — the Go
// analogue of BgExecutor/BgTask in lib.rs.
type BgExecutor struct {
	// resultsMu guards an unbounded, slice-backed result queue (mirrors
	// internal/engine/observer.BgObserver's queue): spec.md requires
	// completion delivery never block the completing goroutine, which a
	// fixed-capacity chan cannot guarantee once full.
	resultsMu sync.Mutex
	resultsQ  []Result

	mu     sync.Mutex
	cancel context.CancelFunc
	ctx    context.Context
	tasks  map[string]*taskHandle
	wg     sync.WaitGroup
}

// New creates a running BgExecutor.
func New() *BgExecutor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BgExecutor{ctx: ctx, cancel: cancel, tasks: map[string]*taskHandle{}}
}

// Submit runs cmd on its own goroutine and returns the task uuid that
// will tag its Result, the Go analogue of spec.md's Task{uuid, command,
// running} record — the uuid lets the caller (the app loop) remember
// which view asked for this command so it can route the eventual Result
// back to it, or cancel it individually via CancelTask. Finished tasks
// are garbage-collected from the registry on every call.
func (e *BgExecutor) Submit(cmd Command) string {
	taskUUID := uuid.NewString()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.gcFinishedLocked()
	if e.ctx.Err() != nil {
		return taskUUID
	}

	taskCtx, taskCancel := context.WithCancel(e.ctx)
	h := &taskHandle{cancel: taskCancel}
	e.tasks[taskUUID] = h

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		res := cmd.Execute(taskCtx)
		res.TaskUUID = taskUUID
		h.done.Store(true)
		e.emit(res)
	}()
	return taskUUID
}

// gcFinishedLocked must be called with e.mu held; it drops registry
// entries for tasks whose goroutine has already completed.
func (e *BgExecutor) gcFinishedLocked() {
	for id, h := range e.tasks {
		if h.done.Load() {
			delete(e.tasks, id)
		}
	}
}

// CancelTask cancels and removes one task by its uuid. A uuid for a task
// that has already finished or never existed is a no-op.
func (e *BgExecutor) CancelTask(taskUUID string) {
	e.mu.Lock()
	h, ok := e.tasks[taskUUID]
	if ok {
		delete(e.tasks, taskUUID)
	}
	e.mu.Unlock()
	if ok {
		h.cancel()
	}
}

// CancelAll cancels and removes every currently-tracked task, without
// stopping the executor itself — a later Submit still runs.
func (e *BgExecutor) CancelAll() {
	e.mu.Lock()
	handles := make([]*taskHandle, 0, len(e.tasks))
	for id, h := range e.tasks {
		handles = append(handles, h)
		delete(e.tasks, id)
	}
	e.mu.Unlock()
	for _, h := range handles {
		h.cancel()
	}
}

func (e *BgExecutor) emit(r Result) {
	e.resultsMu.Lock()
	e.resultsQ = append(e.resultsQ, r)
	e.resultsMu.Unlock()
}

// TryNext returns the next completed Result without blocking.
func (e *BgExecutor) TryNext() (Result, bool) {
	e.resultsMu.Lock()
	defer e.resultsMu.Unlock()
	if len(e.resultsQ) == 0 {
		return Result{}, false
	}
	r := e.resultsQ[0]
	e.resultsQ[0] = Result{}
	e.resultsQ = e.resultsQ[1:]
	return r, true
}

// Stop cancels in-flight commands and waits for all goroutines to exit.
func (e *BgExecutor) Stop() {
	e.mu.Lock()
	e.cancel()
	e.mu.Unlock()
	e.wg.Wait()
}
