package observer

import (
	"context"
	"testing"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/kubilitics/kcli/internal/engine/discovery"
	"github.com/kubilitics/kcli/internal/engine/kube"
	"github.com/kubilitics/kcli/internal/engine/notify"
)

func pod(name string) unstructured.Unstructured {
	return unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Pod",
		"metadata":   map[string]interface{}{"name": name, "namespace": "default", "uid": name + "-uid"},
	}}
}

type fakeResourceInterface struct {
	initial  []unstructured.Unstructured
	watcher  *watch.FakeWatcher
	listErrs []error // consumed one per List call, nil entries succeed
	listCall int
}

func (f *fakeResourceInterface) List(ctx context.Context, opts metav1.ListOptions) (*unstructured.UnstructuredList, error) {
	i := f.listCall
	f.listCall++
	if i < len(f.listErrs) && f.listErrs[i] != nil {
		return nil, f.listErrs[i]
	}
	return &unstructured.UnstructuredList{Items: f.initial}, nil
}

func (f *fakeResourceInterface) Watch(ctx context.Context, opts metav1.ListOptions) (watch.Interface, error) {
	f.watcher = watch.NewFake()
	return f.watcher, nil
}

type fakeFactory struct{ res *fakeResourceInterface }

func (f fakeFactory) ForNamespace(ns kube.Namespace) ResourceInterface { return f.res }

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.After(timeout)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for condition")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestBgObserverHappyPathReachesReady(t *testing.T) {
	res := &fakeResourceInterface{initial: []unstructured.Unstructured{pod("a")}}
	o := New(notify.New(nil), kube.NamespaceFrom("default"))
	ref := kube.NewResourceRef(kube.From(kube.Pods), kube.AllNamespacesNS())
	ar := discovery.APIResource{Kind: "Pod", Plural: "pods", Version: "v1"}
	cap := discovery.APICapabilities{
		Scope:          discovery.ScopeNamespaced,
		SupportedVerbs: map[discovery.Verb]struct{}{discovery.VerbList: {}, discovery.VerbWatch: {}, discovery.VerbPatch: {}},
	}

	scope, err := o.Start(fakeFactory{res}, ref, ar, cap, nil, false)
	if err != nil {
		t.Fatalf("Start() err = %v", err)
	}
	if scope != discovery.ScopeNamespaced {
		t.Fatalf("scope = %v", scope)
	}
	defer o.Stop()

	var results []Result
	waitFor(t, 2*time.Second, func() bool {
		for {
			r, ok := o.TryNext()
			if !ok {
				break
			}
			results = append(results, r)
		}
		return len(results) >= 3 // Init, Apply(a), InitDone
	})

	if results[0].Kind != ResultInit || results[0].Init.UUID == "" {
		t.Fatalf("results[0] = %+v", results[0])
	}
	if results[1].Kind != ResultApply {
		t.Fatalf("results[1] = %+v, want Apply", results[1])
	}
	if results[2].Kind != ResultInitDone {
		t.Fatalf("results[2] = %+v, want InitDone", results[2])
	}

	waitFor(t, 2*time.Second, func() bool { return o.IsReady() })
	if o.Health() != Good {
		t.Fatalf("Health() = %v, want Good", o.Health())
	}
}

func TestBgObserverNoAccessWhenNotWatchable(t *testing.T) {
	res := &fakeResourceInterface{}
	o := New(notify.New(nil), kube.NamespaceFrom("default"))
	ref := kube.NewResourceRef(kube.From(kube.Pods), kube.AllNamespacesNS())
	ar := discovery.APIResource{Kind: "Pod", Plural: "pods"}
	cap := discovery.APICapabilities{SupportedVerbs: map[discovery.Verb]struct{}{}}

	_, err := o.Start(fakeFactory{res}, ref, ar, cap, nil, false)
	if err != ErrNoAccess {
		t.Fatalf("err = %v, want ErrNoAccess", err)
	}
	if o.HasAccess() {
		t.Fatal("HasAccess() = true, want false")
	}
	if o.State() != Idle {
		t.Fatalf("State() = %v, want Idle", o.State())
	}
}

func TestBgObserverPermissionFallbackNarrowsNamespace(t *testing.T) {
	forbidden := apierrors.NewForbidden(schema.GroupResource{Resource: "pods"}, "", nil)
	res := &fakeResourceInterface{
		initial:  []unstructured.Unstructured{pod("a")},
		listErrs: []error{forbidden}, // first List (all-namespaces) is forbidden
	}
	notifier := notify.New(nil)
	o := New(notifier, kube.NamespaceFrom("default"))
	ref := kube.NewResourceRef(kube.From(kube.Pods), kube.AllNamespacesNS())
	ar := discovery.APIResource{Kind: "Pod", Plural: "pods"}
	cap := discovery.APICapabilities{
		Scope:          discovery.ScopeNamespaced,
		SupportedVerbs: map[discovery.Verb]struct{}{discovery.VerbList: {}, discovery.VerbWatch: {}},
	}

	_, err := o.Start(fakeFactory{res}, ref, ar, cap, nil, false)
	if err != nil {
		t.Fatalf("Start() err = %v", err)
	}
	defer o.Stop()

	select {
	case msg := <-notifier.Messages():
		if msg.Kind != notify.Info {
			t.Fatalf("msg.Kind = %v, want Info (fallback notice)", msg.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fallback notification")
	}

	waitFor(t, 2*time.Second, func() bool { return o.IsReady() })
	if !o.HasAccess() {
		t.Fatal("HasAccess() = false after a successful fallback, want true")
	}
}

// TestBgObserverForbiddenWatchErrorKeepsRetrying covers spec.md §8 Testable
// Property #1: a forbidden error that is not the initial-list/fallback
// case (here, the kind is watched in a single namespace, so the
// all-namespaces fallback never applies) must drive Reconnecting with
// health ApiError and keep the session alive, not terminate it.
func TestBgObserverForbiddenWatchErrorKeepsRetrying(t *testing.T) {
	forbidden := apierrors.NewForbidden(schema.GroupResource{Resource: "pods"}, "", nil)
	res := &fakeResourceInterface{
		initial:  []unstructured.Unstructured{pod("a")},
		listErrs: []error{nil, forbidden}, // first List succeeds, second (after relist) is forbidden
	}
	o := New(notify.New(nil), kube.NamespaceFrom("default"))
	ref := kube.NewResourceRef(kube.From(kube.Pods), kube.NamespaceFrom("default"))
	ar := discovery.APIResource{Kind: "Pod", Plural: "pods"}
	cap := discovery.APICapabilities{
		Scope:          discovery.ScopeNamespaced,
		SupportedVerbs: map[discovery.Verb]struct{}{discovery.VerbList: {}, discovery.VerbWatch: {}},
	}

	_, err := o.Start(fakeFactory{res}, ref, ar, cap, nil, false)
	if err != nil {
		t.Fatalf("Start() err = %v", err)
	}
	defer o.Stop()

	waitFor(t, 2*time.Second, func() bool { return o.IsReady() })

	res.watcher.Stop() // force a relist, which re-invokes List and hits the forbidden error

	waitFor(t, 2*time.Second, func() bool { return o.Health() == ApiError })
	if o.State() != Reconnecting {
		t.Fatalf("State() = %v, want Reconnecting", o.State())
	}
	if !o.HasAccess() {
		t.Fatal("HasAccess() = false, want true (session must not terminate on a non-fallback-eligible forbidden error)")
	}
}

func TestBgObserverStopIsIdempotent(t *testing.T) {
	res := &fakeResourceInterface{initial: []unstructured.Unstructured{pod("a")}}
	o := New(notify.New(nil), kube.NamespaceFrom("default"))
	ref := kube.NewResourceRef(kube.From(kube.Pods), kube.NamespaceFrom("default"))
	ar := discovery.APIResource{Kind: "Pod", Plural: "pods"}
	cap := discovery.APICapabilities{SupportedVerbs: map[discovery.Verb]struct{}{discovery.VerbList: {}, discovery.VerbWatch: {}}}

	o.Start(fakeFactory{res}, ref, ar, cap, nil, false)
	o.Stop()
	o.Stop()
}
