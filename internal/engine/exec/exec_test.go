package exec

import (
	"context"
	"testing"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"

	"github.com/kubilitics/kcli/internal/engine/kube"
)

type instantCommand struct{ kind ResultKind }

func (c instantCommand) Execute(ctx context.Context) Result { return Result{Kind: c.kind} }

func TestBgExecutorSubmitDeliversResult(t *testing.T) {
	e := New()
	defer e.Stop()
	e.Submit(instantCommand{kind: ThemesList})

	deadline := time.After(2 * time.Second)
	for {
		if r, ok := e.TryNext(); ok {
			if r.Kind != ThemesList {
				t.Fatalf("Kind = %v, want ThemesList", r.Kind)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for result")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestBgExecutorStopWaitsForInFlight(t *testing.T) {
	e := New()
	e.Submit(instantCommand{kind: SaveConfig})
	e.Stop()
	e.Stop() // idempotent
}

type blockingCommand struct{ started chan struct{} }

func (c blockingCommand) Execute(ctx context.Context) Result {
	close(c.started)
	<-ctx.Done()
	return Result{Kind: SaveConfig, Err: ctx.Err()}
}

func TestBgExecutorCancelTaskStopsOnlyThatTask(t *testing.T) {
	e := New()
	defer e.Stop()

	started := make(chan struct{})
	uuid := e.Submit(blockingCommand{started: started})
	<-started
	e.Submit(instantCommand{kind: ThemesList})

	e.CancelTask(uuid)

	var results []Result
	deadline := time.After(2 * time.Second)
	for len(results) < 2 {
		if r, ok := e.TryNext(); ok {
			results = append(results, r)
			continue
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for both results")
		case <-time.After(time.Millisecond):
		}
	}

	var sawCancelled, sawThemes bool
	for _, r := range results {
		if r.TaskUUID == uuid && r.Err != nil {
			sawCancelled = true
		}
		if r.Kind == ThemesList {
			sawThemes = true
		}
	}
	if !sawCancelled {
		t.Fatal("cancelled task did not report an error result")
	}
	if !sawThemes {
		t.Fatal("unrelated task did not complete")
	}
}

func TestBgExecutorCancelAllStopsEveryTask(t *testing.T) {
	e := New()
	defer e.Stop()

	started1, started2 := make(chan struct{}), make(chan struct{})
	e.Submit(blockingCommand{started: started1})
	e.Submit(blockingCommand{started: started2})
	<-started1
	<-started2

	e.CancelAll()

	deadline := time.After(2 * time.Second)
	seen := 0
	for seen < 2 {
		if r, ok := e.TryNext(); ok {
			if r.Err == nil {
				t.Fatalf("result %+v, want cancellation error", r)
			}
			seen++
			continue
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for both cancelled results")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestBgExecutorGCsFinishedTasksOnSubmit(t *testing.T) {
	e := New()
	defer e.Stop()

	uuid := e.Submit(instantCommand{kind: ThemesList})
	deadline := time.After(2 * time.Second)
	for {
		if _, ok := e.TryNext(); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for first task to finish")
		case <-time.After(time.Millisecond):
		}
	}

	// Give the goroutine's h.done.Store a moment to land before the next
	// Submit's gcFinishedLocked sweep runs.
	time.Sleep(10 * time.Millisecond)
	e.Submit(instantCommand{kind: SaveConfig})

	e.mu.Lock()
	_, stillTracked := e.tasks[uuid]
	e.mu.Unlock()
	if stillTracked {
		t.Fatal("finished task was not garbage-collected on next Submit")
	}
}

func podsGVR() schema.GroupVersionResource {
	return schema.GroupVersionResource{Version: "v1", Resource: "pods"}
}

func fakePod(ns, name string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Pod",
		"metadata":   map[string]interface{}{"name": name, "namespace": ns},
	}}
}

func TestDeleteResourcesCommandDeletesEachNameConcurrently(t *testing.T) {
	scheme := runtime.NewScheme()
	client := dynamicfake.NewSimpleDynamicClient(scheme, fakePod("default", "a"), fakePod("default", "b"))

	cmd := DeleteResourcesCommand{
		Client: client,
		GVR:    kube.NewResourceRef(kube.From(kube.Pods), kube.NamespaceFrom("default")),
		Names:  []string{"a", "b"},
	}
	res := cmd.Execute(context.Background())
	if res.Kind != DeleteResource {
		t.Fatalf("Kind = %v, want DeleteResource", res.Kind)
	}

	list, err := client.Resource(podsGVR()).Namespace("default").List(context.Background(), metaListOptions())
	if err != nil {
		t.Fatalf("List err: %v", err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("len(list.Items) = %d, want 0 after delete", len(list.Items))
	}
}

func TestGetResourceYamlCommandRendersYAML(t *testing.T) {
	scheme := runtime.NewScheme()
	client := dynamicfake.NewSimpleDynamicClient(scheme, fakePod("default", "a"))

	cmd := GetResourceYamlCommand{
		Client: client,
		GVR:    kube.NewResourceRef(kube.From(kube.Pods), kube.NamespaceFrom("default")),
		Name:   "a",
	}
	res := cmd.Execute(context.Background())
	if res.Err != nil {
		t.Fatalf("Execute err: %v", res.Err)
	}
	text, ok := res.Value.(string)
	if !ok || text == "" {
		t.Fatalf("Value = %v, want non-empty YAML string", res.Value)
	}
}
