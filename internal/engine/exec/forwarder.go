package exec

import (
	"context"
	"net/http"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/portforward"
	"k8s.io/client-go/transport/spdy"
)

// PortForwardEventKind distinguishes the lifecycle events a running
// port-forward session can report.
type PortForwardEventKind int

const (
	PortForwardReady PortForwardEventKind = iota
	PortForwardStopped
	PortForwardFailed
)

// PortForwardEvent is delivered on BgExecutor's results channel as
// Result{Kind: PortForward, Value: PortForwardEvent}.
type PortForwardEvent struct {
	Kind      PortForwardEventKind
	LocalPort int
	Err       error
}

// PortForwardCommand opens a port-forward session to a pod and blocks
// until it is stopped or fails. This is the supplemented 11th executor
// command SPEC_FULL.md §7 item 1 calls for — the original's forwarder.rs
// was not present in the retrieval pack, so this is grounded on
// client-go's own portforward package (the standard way an idiomatic Go
// kubectl-like tool implements port-forwarding) rather than a port of
// Rust source.
type PortForwardCommand struct {
	Clientset  kubernetes.Interface
	RESTConfig restConfigGetter
	Namespace  string
	PodName    string
	Ports      []string // "LOCAL:REMOTE", as accepted by client-go portforward
	ReadyChan  chan struct{}
	StopChan   chan struct{}
}

// restConfigGetter avoids importing rest.Config's full surface into this
// file's signature; callers pass a closure binding their *rest.Config.
type restConfigGetter interface {
	RoundTripperFor() (http.RoundTripper, spdy.Upgrader, error)
}

func (c PortForwardCommand) Execute(ctx context.Context) Result {
	req := c.Clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(c.Namespace).
		Name(c.PodName).
		SubResource("portforward")

	transport, upgrader, err := c.RESTConfig.RoundTripperFor()
	if err != nil {
		return Result{Kind: PortForward, Value: PortForwardEvent{Kind: PortForwardFailed, Err: err}}
	}
	dialer := spdy.NewDialer(upgrader, &http.Client{Transport: transport}, "POST", req.URL())

	fw, err := portforward.New(dialer, c.Ports, c.StopChan, c.ReadyChan, discardWriter{}, discardWriter{})
	if err != nil {
		return Result{Kind: PortForward, Value: PortForwardEvent{Kind: PortForwardFailed, Err: err}}
	}

	done := make(chan error, 1)
	go func() {
		done <- fw.ForwardPorts()
	}()

	select {
	case <-ctx.Done():
		close(c.StopChan)
		<-done // wait for ForwardPorts to actually unwind before reporting stopped
		return Result{Kind: PortForward, Value: PortForwardEvent{Kind: PortForwardStopped}}
	case err := <-done:
		if err != nil {
			return Result{Kind: PortForward, Value: PortForwardEvent{Kind: PortForwardFailed, Err: err}}
		}
		return Result{Kind: PortForward, Value: PortForwardEvent{Kind: PortForwardStopped}}
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// restConfigAdapter adapts a *rest.Config (imported only where
// constructed, to keep this file's surface small) to restConfigGetter.
type restConfigAdapter struct {
	transport http.RoundTripper
	upgrader  spdy.Upgrader
}

func (a restConfigAdapter) RoundTripperFor() (http.RoundTripper, spdy.Upgrader, error) {
	return a.transport, a.upgrader, nil
}

// NewRestConfigAdapter builds the restConfigGetter PortForwardCommand
// needs from a pre-resolved transport/upgrader pair, normally produced by
// spdy.RoundTripperFor(restConfig) at the call site.
func NewRestConfigAdapter(transport http.RoundTripper, upgrader spdy.Upgrader) restConfigGetter {
	return restConfigAdapter{transport: transport, upgrader: upgrader}
}
