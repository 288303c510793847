// Package observer implements the background resource observer (spec
// component C10): a per-kind watch loop producing an ordered
// Init/InitApply*/InitDone/Apply/Delete event stream, with reconnection,
// jittered backoff, and a one-shot permission fallback from
// all-namespaces to a preferred namespace.
//
// Grounded on original_source/b4n-kube/watcher/{state,result,client,utils}.rs
// and spec.md §4.4. kube-rs's `watcher()` combinator handles relist-on-
// disconnect internally and produces the Init/InitApply*/InitDone/Apply/
// Delete stream that StreamBackoff (internal/engine/watch, C7) merely
// wraps with a backoff delay; client-go has no equivalent combinator, so
// source.go reimplements the relist-on-disconnect state machine directly
// against k8s.io/client-go/dynamic, and BgObserver in observer.go plays
// the same role kube-rs's BgObserver struct does: owning the uuid,
// state/health pair, and the permission-fallback decision.
package observer

// State is the background observer connection state
// (BgObserverState in state.rs).
type State int

const (
	Idle State = iota
	Connecting
	Reconnecting
	Connected
	Ready
)

// IsConnected reports whether the state indicates the observer is, or
// recently was, connected.
func (s State) IsConnected() bool { return s == Connected || s == Ready }

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Connecting:
		return "Connecting"
	case Reconnecting:
		return "Reconnecting"
	case Connected:
		return "Connected"
	case Ready:
		return "Ready"
	default:
		return "Unknown"
	}
}

// Health is the background observer connection health
// (BgObserverHealth in state.rs), orthogonal to State.
type Health int

const (
	Good Health = iota
	ConnectionError
	ApiError
)

// HealthError returns ApiError if isAPIError, else ConnectionError.
func HealthError(isAPIError bool) Health {
	if isAPIError {
		return ApiError
	}
	return ConnectionError
}

func (h Health) String() string {
	switch h {
	case Good:
		return "Good"
	case ConnectionError:
		return "ConnectionError"
	case ApiError:
		return "ApiError"
	default:
		return "Unknown"
	}
}
