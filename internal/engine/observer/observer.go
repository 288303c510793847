package observer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	enginebackoff "github.com/kubilitics/kcli/internal/engine/backoff"
	"github.com/kubilitics/kcli/internal/engine/discovery"
	"github.com/kubilitics/kcli/internal/engine/kube"
	"github.com/kubilitics/kcli/internal/engine/notify"
	enginewatch "github.com/kubilitics/kcli/internal/engine/watch"
)

// ErrNoAccess is returned by Start when the kind supports neither list nor
// watch, or surfaced via HasAccess()==false after a forbidden error that
// exhausts the one-shot permission fallback.
var ErrNoAccess = fmt.Errorf("observer: no access to resource")

// ClientFactory binds a GroupVersionResource to namespace-scoped
// ResourceInterfaces, the Go analogue of ResourceClient in
// watcher/client.rs (which lets the observer cheaply rebind its
// namespace for permission-fallback purposes without rebuilding the
// whole kube Client).
type ClientFactory interface {
	ForNamespace(ns kube.Namespace) ResourceInterface
}

// BgObserver runs a cancellable background watch loop for one
// ResourceRef, exposing its event stream via TryNext and its
// state/health atomically.
type BgObserver struct {
	notifier           *notify.Sink
	preferredNamespace kube.Namespace

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	ref       kube.ResourceRef
	state     atomic.Int32
	health    atomic.Int32
	hasAccess atomic.Bool

	// resultsMu guards an unbounded, slice-backed result queue: spec.md §5
	// mandates the result channel never drop events under a stalled
	// consumer, only grow, so a fixed-capacity chan (which would have to
	// either block the observer goroutine or drop events) is not an option.
	resultsMu sync.Mutex
	resultsQ  []Result
}

// New creates a BgObserver. preferredNamespace is consulted only for the
// permission-fallback narrowing described in spec.md §4.4.
func New(notifier *notify.Sink, preferredNamespace kube.Namespace) *BgObserver {
	o := &BgObserver{
		notifier:           notifier,
		preferredNamespace: preferredNamespace,
	}
	o.hasAccess.Store(true)
	return o
}

// ObservedKind returns the kind this observer was started for.
func (o *BgObserver) ObservedKind() kube.Kind { return o.ref.Kind }

// State returns the current connection state.
func (o *BgObserver) State() State { return State(o.state.Load()) }

// Health returns the current connection health.
func (o *BgObserver) Health() Health { return Health(o.health.Load()) }

// IsReady reports whether the observer has reached Ready.
func (o *BgObserver) IsReady() bool { return o.State() == Ready }

// HasError reports whether health is not Good.
func (o *BgObserver) HasError() bool { return o.Health() != Good }

// HasAccess reports whether the kind was watchable and permission
// fallback (if used) has not yet been exhausted.
func (o *BgObserver) HasAccess() bool { return o.hasAccess.Load() }

// Start begins watching ref via a ResourceInterface obtained from
// factory, stopping any previously running session first. ar/cap are the
// pre-resolved discovery hit for this kind (step 1 of spec.md §4.4's
// start protocol — one-shot discovery-by-group resolution, if the caller
// has not already resolved it, is the caller's responsibility to perform
// before calling Start).
func (o *BgObserver) Start(factory ClientFactory, ref kube.ResourceRef, ar discovery.APIResource, cap discovery.APICapabilities, crd *CRDRef, hasMetrics bool) (discovery.Scope, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancelAndWaitLocked()
	}

	if !cap.HasVerb(discovery.VerbWatch) && !cap.HasVerb(discovery.VerbList) {
		o.state.Store(int32(Idle))
		o.hasAccess.Store(false)
		return cap.Scope, ErrNoAccess
	}

	o.ref = ref
	o.hasAccess.Store(true)
	o.health.Store(int32(Good))

	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel

	ns := ref.Namespace
	o.wg.Add(1)
	go o.run(ctx, factory, ref, ns, ar, cap, crd, hasMetrics)

	return cap.Scope, nil
}

func (o *BgObserver) run(ctx context.Context, factory ClientFactory, ref kube.ResourceRef, ns kube.Namespace, ar discovery.APIResource, cap discovery.APICapabilities, crd *CRDRef, hasMetrics bool) {
	defer o.wg.Done()

	o.state.Store(int32(Connecting))
	o.emit(Result{Kind: ResultInit, Init: initPtr(NewInitData(uuid.NewString(), ref, ar, cap, crd, hasMetrics))})

	bo := enginebackoff.New()
	fallbackUsed := false
	firstInit := true

	for {
		if ctx.Err() != nil {
			o.state.Store(int32(Idle))
			return
		}

		res := factory.ForNamespace(ns)
		src := newRelistSource(res)
		sb := enginewatch.New[*unstructured.Unstructured](src, bo)

		connectedThisSession := false
	sessionLoop:
		for {
			ev, err := sb.Next(ctx)
			if err != nil {
				if ctx.Err() != nil {
					o.state.Store(int32(Idle))
					return
				}
				ce, _ := err.(*ClassifiedError)
				isForbidden := ce != nil && ce.IsForbidden
				isAPIError := ce != nil && ce.IsAPIError
				isInitialList := ce != nil && ce.FromInitialList

				// Permission fallback (spec.md §4.4): conservative policy is
				// initial-list-forbidden-only — a forbidden error from a
				// later watch-open or in-stream error never triggers it,
				// even on an otherwise-eligible namespaced-all-namespaces
				// session.
				if isForbidden && isInitialList && cap.Scope == discovery.ScopeNamespaced && ns.IsAll() && !fallbackUsed {
					if preferredName, ok := o.preferredNamespace.AsOption(); ok {
						fallbackUsed = true
						ns = kube.NamespaceFrom(preferredName)
						if o.notifier != nil {
							o.notifier.ShowInfo(fmt.Sprintf("Access to all namespaces forbidden for %s; falling back to namespace %q", ref.Kind.Name(), preferredName), notify.DefaultMessageDuration)
						}
						o.state.Store(int32(Reconnecting))
						break sessionLoop
					}
				}

				// The fallback is one-shot: a forbidden error recurring
				// after it already fired is the only case that terminates
				// the session as NoAccess (spec.md §4.4: "further forbidden
				// errors surface as NoAccess").
				if isForbidden && fallbackUsed {
					o.hasAccess.Store(false)
					o.health.Store(int32(ApiError))
					o.state.Store(int32(Idle))
					if o.notifier != nil {
						o.notifier.ShowError(fmt.Sprintf("Forbidden: %v", err), notify.DefaultErrorDuration)
					}
					return
				}

				// Every other ApiError/ConnectionError — including a
				// forbidden error that isn't fallback-eligible — surfaces
				// and keeps retrying (spec.md §4.4, §8 Testable Property
				// #1). StreamBackoff.Next already consulted the backoff
				// exactly once for this error before returning it.
				o.health.Store(int32(HealthError(isAPIError)))
				o.state.Store(int32(Reconnecting))
				if o.notifier != nil {
					o.notifier.ShowError(fmt.Sprintf("Watch error for %s: %v", ref.Kind.Name(), err), notify.DefaultErrorDuration)
				}
				continue sessionLoop
			}

			switch ev.Kind {
			case enginewatch.EventInit:
				if firstInit {
					firstInit = false
					continue sessionLoop
				}
				o.emit(Result{Kind: ResultInit, Init: initPtr(NewInitData(uuid.NewString(), ref, ar, cap, crd, hasMetrics))})
				o.state.Store(int32(Connecting))
				connectedThisSession = false
			case enginewatch.EventInitApply, enginewatch.EventApply:
				if !connectedThisSession {
					o.state.Store(int32(Connected))
					connectedThisSession = true
				}
				o.emit(Result{Kind: ResultApply, Object: ev.Item})
			case enginewatch.EventInitDone:
				o.health.Store(int32(Good))
				o.state.Store(int32(Ready))
				o.emit(Result{Kind: ResultInitDone})
			case enginewatch.EventDelete:
				o.emit(Result{Kind: ResultDelete, Object: ev.Item})
			}
		}
	}
}

func initPtr(d InitData) *InitData { return &d }

func (o *BgObserver) emit(r Result) {
	o.resultsMu.Lock()
	o.resultsQ = append(o.resultsQ, r)
	o.resultsMu.Unlock()
}

// TryNext returns the next queued result without blocking. The queue is
// unbounded, so TryNext never signals an overflow; a stalled consumer
// simply leaves it to grow.
func (o *BgObserver) TryNext() (Result, bool) {
	o.resultsMu.Lock()
	defer o.resultsMu.Unlock()
	if len(o.resultsQ) == 0 {
		return Result{}, false
	}
	r := o.resultsQ[0]
	o.resultsQ[0] = Result{}
	o.resultsQ = o.resultsQ[1:]
	return r, true
}

// Cancel stops the background loop without waiting for it to exit.
func (o *BgObserver) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// Stop cancels the background loop and waits for it to exit.
func (o *BgObserver) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelAndWaitLocked()
}

// cancelAndWaitLocked must be called with o.mu held; run() never touches
// o.mu, so waiting for it to exit while holding the lock cannot deadlock.
func (o *BgObserver) cancelAndWaitLocked() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.cancel = nil
}
