// Package discovery implements the background API-discovery observer
// (spec component C8): a periodic enumeration of the cluster's API
// groups/resources/capabilities, exposed as a non-blocking try_next()
// style channel read.
//
// Grounded on original_source/b4n-kube/discovery.rs's BgDiscovery: a
// tokio task looping {discovery.run(), sleep(interval)} with error
// handling that resets internal/engine/backoff only on the healthy→error
// edge (not on every subsequent error) and shows a toast via the
// notification sink (internal/engine/notify) on failure. The tokio
// task + CancellationToken + unbounded mpsc channel shape is reimplemented
// as a goroutine + context.Context + buffered Go channel, matching how
// this repository's own internal/informer.Store runs its background
// sync loop (context-cancellable goroutine, idempotent Stop via
// sync.Once).
package discovery

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/client-go/discovery"

	enginebackoff "github.com/kubilitics/kcli/internal/engine/backoff"
	"github.com/kubilitics/kcli/internal/engine/notify"
)

const pollInterval = 6 * time.Second

// APIResource mirrors kube's ApiResource: identity of one discovered
// resource type.
type APIResource struct {
	Group   string
	Version string
	Kind    string
	Plural  string
}

// Scope is the discovery-reported scope of a resource type.
type Scope int

const (
	ScopeNamespaced Scope = iota
	ScopeCluster
)

// Verb enumerates the supported-verbs set reported by discovery.
type Verb string

const (
	VerbGet    Verb = "get"
	VerbList   Verb = "list"
	VerbWatch  Verb = "watch"
	VerbCreate Verb = "create"
	VerbPatch  Verb = "patch"
	VerbDelete Verb = "delete"
)

// APICapabilities mirrors kube's ApiCapabilities: scope plus supported
// verbs for one resource type.
type APICapabilities struct {
	Scope          Scope
	SupportedVerbs map[Verb]struct{}
}

// HasVerb reports whether v is in the supported-verbs set.
func (c APICapabilities) HasVerb(v Verb) bool {
	_, ok := c.SupportedVerbs[v]
	return ok
}

// Entry pairs one discovered resource with its capabilities.
type Entry struct {
	Resource     APIResource
	Capabilities APICapabilities
}

// List is the full discovery snapshot: DiscoveryList in spec.md §3.
type List []Entry

// Source performs one discovery enumeration; satisfied by
// k8s.io/client-go/discovery.DiscoveryInterface via the adapter in
// client.go.
type Source interface {
	Discover(ctx context.Context) (List, error)
}

// BgDiscovery runs a cancellable background discovery loop and exposes
// its results as a non-blocking try_next() style channel read.
type BgDiscovery struct {
	notifier *notify.Sink

	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	hasError atomic.Bool

	results chan List
}

// New creates a BgDiscovery that is not yet started.
func New(notifier *notify.Sink) *BgDiscovery {
	d := &BgDiscovery{notifier: notifier, results: make(chan List, 1)}
	d.hasError.Store(true) // matches original: has_error defaults true until Start
	return d
}

// Start begins the background loop against source, stopping any
// previously running loop first.
func (d *BgDiscovery) Start(source Source) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		// run never takes d.mu, so waiting here while holding it is safe.
		d.cancel()
		d.wg.Wait()
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.hasError.Store(false)

	d.wg.Add(1)
	go d.run(ctx, source)
}

func (d *BgDiscovery) run(ctx context.Context, source Source) {
	defer d.wg.Done()

	bo := enginebackoff.New()
	interval := pollInterval
	hadError := false

	for {
		if ctx.Err() != nil {
			return
		}

		list, err := source.Discover(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			msg := fmt.Sprintf("Discovery error: %v", err)
			if d.notifier != nil {
				d.notifier.ShowError(msg, notify.DefaultErrorDuration)
			}
			if !hadError {
				bo.Reset()
				hadError = true
			}
			d.hasError.Store(true)
			interval = bo.Next()
		} else {
			select {
			case d.results <- list:
			default:
				// previous snapshot not yet consumed; drop it in favor
				// of the fresher one.
				select {
				case <-d.results:
				default:
				}
				d.results <- list
			}
			d.hasError.Store(false)
			hadError = false
			interval = pollInterval
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// TryNext returns the latest discovery snapshot if one has arrived since
// the last call, without blocking.
func (d *BgDiscovery) TryNext() (List, bool) {
	select {
	case list := <-d.results:
		return list, true
	default:
		return nil, false
	}
}

// HasError reports whether discovery is not running or is in an error
// state.
func (d *BgDiscovery) HasError() bool { return d.hasError.Load() }

// Cancel stops the background loop without waiting for it to exit.
func (d *BgDiscovery) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

func (d *BgDiscovery) cancelLocked() {
	if d.cancel != nil {
		d.cancel()
		d.hasError.Store(true)
	}
}

// Stop cancels the background loop and waits for it to exit.
func (d *BgDiscovery) Stop() {
	d.mu.Lock()
	d.cancelLocked()
	d.mu.Unlock()
	d.stopLocked()
}

func (d *BgDiscovery) stopLocked() {
	d.wg.Wait()
	d.mu.Lock()
	d.cancel = nil
	d.mu.Unlock()
}

// ClientDiscoverySource adapts k8s.io/client-go/discovery.DiscoveryInterface
// to Source.
type ClientDiscoverySource struct {
	Client discovery.DiscoveryInterface
}

// Discover enumerates every API group and its resources, converting each
// to an Entry. Grounded on convert_to_vector in discovery.rs, which
// flattens Discovery::groups() -> versions() -> versioned_resources().
func (s ClientDiscoverySource) Discover(ctx context.Context) (List, error) {
	_, apiResourceLists, err := s.Client.ServerGroupsAndResources()
	if err != nil && apiResourceLists == nil {
		return nil, err
	}

	var out List
	for _, rl := range apiResourceLists {
		group, version := splitGroupVersion(rl.GroupVersion)
		for _, r := range rl.APIResources {
			scope := ScopeCluster
			if r.Namespaced {
				scope = ScopeNamespaced
			}
			verbs := make(map[Verb]struct{}, len(r.Verbs))
			for _, v := range r.Verbs {
				verbs[Verb(v)] = struct{}{}
			}
			out = append(out, Entry{
				Resource: APIResource{
					Group:   group,
					Version: version,
					Kind:    r.Kind,
					Plural:  r.Name,
				},
				Capabilities: APICapabilities{Scope: scope, SupportedVerbs: verbs},
			})
		}
	}
	return out, err
}

func splitGroupVersion(gv string) (group, version string) {
	for i := len(gv) - 1; i >= 0; i-- {
		if gv[i] == '/' {
			return gv[:i], gv[i+1:]
		}
	}
	return "", gv
}
