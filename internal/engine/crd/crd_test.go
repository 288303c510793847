package crd

import (
	"testing"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kubilitics/kcli/internal/engine/observer"
)

func TestToJSONPointerTranslatesJSONPath(t *testing.T) {
	cases := []struct{ in, want string }{
		{".status.replicas", "/status/replicas"},
		{".spec.ports[0].port", "/spec/ports/0/port"},
		{".status.conditions[?(@.type==\"Ready\")].status", "/status/conditions/?(@.type==\"Ready\")/status"},
		{".metadata.labels.a~b", "/metadata/labels/a~0b"},
		{".metadata.labels.a/b", "/metadata/labels/a~1b"},
	}
	for _, c := range cases {
		if got := toJSONPointer(c.in); got != c.want {
			t.Errorf("toJSONPointer(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFromVersionDropsDefaultAndNonZeroPriorityColumns(t *testing.T) {
	version := map[string]interface{}{
		"name": "v1",
		"additionalPrinterColumns": []interface{}{
			map[string]interface{}{"name": "Name", "jsonPath": ".metadata.name", "type": "string", "priority": int64(0)},
			map[string]interface{}{"name": "Replicas", "jsonPath": ".status.replicas", "type": "integer", "priority": int64(0)},
			map[string]interface{}{"name": "Detail", "jsonPath": ".status.detail", "type": "string", "priority": int64(1)},
		},
	}
	cols := FromVersion("abc-uid", "Widget", version)
	if cols.UID != "abc-uid.v1" || cols.Name != "Widget/v1" {
		t.Fatalf("cols = %+v", cols)
	}
	if len(cols.Columns) != 1 || cols.Columns[0].DisplayName != "Replicas" {
		t.Fatalf("Columns = %+v, want only Replicas", cols.Columns)
	}
	if cols.HasMetadataPointer {
		t.Fatal("HasMetadataPointer should be false (only /status/replicas retained)")
	}
}

func TestFromVersionDetectsMetadataPointer(t *testing.T) {
	version := map[string]interface{}{
		"name": "v1",
		"additionalPrinterColumns": []interface{}{
			map[string]interface{}{"name": "Owner", "jsonPath": ".metadata.labels.owner", "type": "string", "priority": int64(0)},
		},
	}
	cols := FromVersion("abc-uid", "Widget", version)
	if !cols.HasMetadataPointer {
		t.Fatal("HasMetadataPointer should be true for a /metadata/... pointer")
	}
}

type scriptedResults struct {
	results []observer.Result
	pos     int
}

func (s *scriptedResults) TryNext() (observer.Result, bool) {
	if s.pos >= len(s.results) {
		return observer.Result{}, false
	}
	r := s.results[s.pos]
	s.pos++
	return r, true
}

func crdObject(uid, kind string, versionNames ...string) *unstructured.Unstructured {
	versions := make([]interface{}, len(versionNames))
	for i, vn := range versionNames {
		versions[i] = map[string]interface{}{"name": vn}
	}
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"metadata": map[string]interface{}{"name": kind, "uid": uid},
		"spec":     map[string]interface{}{"versions": versions},
	}}
}

func TestRegistryDrainAppliesInitApplyDelete(t *testing.T) {
	r := NewRegistry()
	obj := crdObject("crd-1", "Widget", "v1", "v2")

	r.apply(obj)
	if len(r.columns) != 2 {
		t.Fatalf("len(columns) = %d, want 2", len(r.columns))
	}

	// Re-applying the same object upserts in place rather than duplicating.
	r.apply(obj)
	if len(r.columns) != 2 {
		t.Fatalf("len(columns) after re-apply = %d, want still 2", len(r.columns))
	}

	r.delete(obj)
	if len(r.columns) != 0 {
		t.Fatalf("len(columns) after delete = %d, want 0", len(r.columns))
	}
}

func TestRegistryInitClearsList(t *testing.T) {
	r := NewRegistry()
	r.apply(crdObject("crd-1", "Widget", "v1"))
	if len(r.columns) == 0 {
		t.Fatal("precondition: columns should be non-empty")
	}

	fake := &scriptedResults{results: []observer.Result{{Kind: observer.ResultInit}}}
	updated := Drain(r, fake)
	if !updated {
		t.Fatal("Drain() = false, want true")
	}
	if len(r.columns) != 0 {
		t.Fatalf("len(columns) after Init = %d, want 0", len(r.columns))
	}
}
