package rows

import (
	"context"
	"testing"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kubilitics/kcli/internal/engine/crd"
	"github.com/kubilitics/kcli/internal/engine/metrics"
)

const hourDuration = time.Hour

type statsFakeSource struct {
	pods []metrics.PodUsage
}

func (f *statsFakeSource) PodMetrics(ctx context.Context) ([]metrics.PodUsage, error) {
	return f.pods, nil
}

func (f *statsFakeSource) NodeMetrics(ctx context.Context) (map[string]metrics.PodStats, error) {
	return map[string]metrics.PodStats{}, nil
}

func waitStatsReady(t *testing.T, s *metrics.BgStatistics) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !s.Available() {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for metrics to become available")
		case <-time.After(time.Millisecond):
		}
	}
}

func podObj() *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"metadata": map[string]interface{}{"name": "web-1", "namespace": "default", "uid": "u1"},
		"spec": map[string]interface{}{
			"containers": []interface{}{map[string]interface{}{"name": "web"}},
			"nodeName":   "node-1",
		},
		"status": map[string]interface{}{
			"phase": "Running",
			"podIP": "10.0.0.1",
			"containerStatuses": []interface{}{
				map[string]interface{}{"ready": true, "restartCount": int64(2)},
			},
		},
	}}
}

func TestPodProjectorRendersExpectedCells(t *testing.T) {
	row := podProjector.Project(podObj(), nil)
	if row.UID() != "u1" || row.Name() != "web-1" || row.Group() != "default" {
		t.Fatalf("row identity = %+v", row)
	}
	if got := row.ColumnText(1); got != "1/1" {
		t.Errorf("READY = %q, want 1/1", got)
	}
	if got := row.ColumnText(2); got != "Running" {
		t.Errorf("STATUS = %q, want Running", got)
	}
	if got := row.ColumnText(3); got != "2" {
		t.Errorf("RESTARTS = %q, want 2", got)
	}
	if got := row.ColumnText(5); got != "10.0.0.1" {
		t.Errorf("IP = %q, want 10.0.0.1", got)
	}
	if got := row.ColumnText(6); got != "node-1" {
		t.Errorf("NODE = %q, want node-1", got)
	}
	if got := row.ColumnText(7); got != "<unknown>" {
		t.Errorf("CPU with nil stats = %q, want <unknown>", got)
	}
}

func TestPodProjectorReadsMetricsWhenAvailable(t *testing.T) {
	stats := metrics.New()
	cpu, _ := metrics.ParseCPU("50m")
	mem, _ := metrics.ParseMemory("32Mi")
	src := &statsFakeSource{pods: []metrics.PodUsage{{
		Namespace: "default", Name: "web-1",
		Total: metrics.PodStats{CPU: cpu, Memory: mem},
	}}}
	stats.Start(src, hourDuration)
	defer stats.Stop()
	waitStatsReady(t, stats)

	row := podProjector.Project(podObj(), stats)
	if got := row.ColumnText(7); got != "50m" {
		t.Errorf("CPU = %q, want 50m", got)
	}
	if got := row.ColumnText(8); got != "32Mi" {
		t.Errorf("MEMORY = %q, want 32Mi", got)
	}
}

func TestGenericProjectorFallsBackForUnregisteredKind(t *testing.T) {
	r := NewRegistry()
	p := r.ProjectorFor("widgets")
	if len(p.Columns) != 2 {
		t.Fatalf("generic projector columns = %d, want 2", len(p.Columns))
	}
}

func TestProjectorFromCRDColumnsResolvesJSONPointer(t *testing.T) {
	cols := crd.Columns{
		UID: "crd-1.v1", Name: "Widget/v1",
		Columns: []crd.Column{{DisplayName: "Phase", JSONPointer: "/status/phase", FieldType: crd.FieldString}},
	}
	p := ProjectorFromCRDColumns(cols)
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"metadata": map[string]interface{}{"name": "w1"},
		"status":   map[string]interface{}{"phase": "Active"},
	}}
	row := p.Project(obj, nil)
	if got := row.ColumnText(2); got != "Active" {
		t.Errorf("Phase column = %q, want Active", got)
	}
}
