package discovery

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kubilitics/kcli/internal/engine/notify"
)

type fakeSource struct {
	calls   atomic.Int32
	results []fakeResult
}

type fakeResult struct {
	list List
	err  error
}

func (f *fakeSource) Discover(ctx context.Context) (List, error) {
	i := int(f.calls.Add(1)) - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	r := f.results[i]
	return r.list, r.err
}

func TestBgDiscoveryDeliversSuccessfulSnapshot(t *testing.T) {
	src := &fakeSource{results: []fakeResult{
		{list: List{{Resource: APIResource{Kind: "Pod", Plural: "pods"}}}},
	}}
	d := New(notify.New(nil))
	d.Start(src)
	defer d.Stop()

	deadline := time.After(2 * time.Second)
	for {
		if list, ok := d.TryNext(); ok {
			if len(list) != 1 || list[0].Resource.Kind != "Pod" {
				t.Fatalf("list = %+v", list)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for discovery snapshot")
		case <-time.After(time.Millisecond):
		}
	}
	if d.HasError() {
		t.Fatal("HasError() = true after a successful discovery")
	}
}

func TestBgDiscoveryReportsErrorAndNotifies(t *testing.T) {
	src := &fakeSource{results: []fakeResult{
		{err: errors.New("connection refused")},
	}}
	sink := notify.New(nil)
	d := New(sink)
	d.Start(src)
	defer d.Stop()

	select {
	case msg := <-sink.Messages():
		if msg.Kind != notify.Error {
			t.Fatalf("msg.Kind = %v, want Error", msg.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error toast")
	}

	deadline := time.After(2 * time.Second)
	for !d.HasError() {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for HasError() to flip true")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestBgDiscoveryStopIsIdempotentAndJoins(t *testing.T) {
	src := &fakeSource{results: []fakeResult{{list: List{}}}}
	d := New(notify.New(nil))
	d.Start(src)
	d.Stop()
	d.Stop() // must not panic or deadlock
}

func TestBgDiscoveryNewDefaultsToHasError(t *testing.T) {
	d := New(notify.New(nil))
	if !d.HasError() {
		t.Fatal("HasError() = false before Start, want true")
	}
}
