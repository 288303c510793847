package metrics

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSource struct {
	calls atomic.Int32
	pods  []PodUsage
	nodes map[string]PodStats
}

func (f *fakeSource) PodMetrics(ctx context.Context) ([]PodUsage, error) {
	f.calls.Add(1)
	return f.pods, nil
}

func (f *fakeSource) NodeMetrics(ctx context.Context) (map[string]PodStats, error) {
	return f.nodes, nil
}

func waitForCond(t *testing.T, timeout time.Duration, cond func() bool) {
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

func TestBgStatisticsPollsImmediatelyAndExposesSnapshot(t *testing.T) {
	cpu, _ := ParseCPU("100m")
	mem, _ := ParseMemory("64Mi")
	src := &fakeSource{
		pods: []PodUsage{{
			Namespace: "default", Name: "web-1",
			Total:      PodStats{CPU: cpu, Memory: mem},
			Containers: map[string]PodStats{"web": {CPU: cpu, Memory: mem}},
		}},
		nodes: map[string]PodStats{"node-1": {CPU: cpu, Memory: mem}},
	}

	s := New()
	s.Start(src, time.Hour) // long interval: only the immediate poll should land
	defer s.Stop()

	waitForCond(t, 2*time.Second, s.Available)

	stats, ok := s.PodStatsFor("default", "web-1")
	if !ok || stats.CPU.String() != "100m" {
		t.Fatalf("PodStatsFor = %+v, %v", stats, ok)
	}
	cstats, ok := s.ContainerStatsFor("default", "web-1", "web")
	if !ok || cstats.Memory.String() != "64Mi" {
		t.Fatalf("ContainerStatsFor = %+v, %v", cstats, ok)
	}
	nstats, ok := s.NodeStatsFor("node-1")
	if !ok || nstats.CPU.String() != "100m" {
		t.Fatalf("NodeStatsFor = %+v, %v", nstats, ok)
	}
	if _, ok := s.PodStatsFor("default", "missing"); ok {
		t.Fatal("PodStatsFor(missing) = ok, want not found")
	}
}

func TestBgStatisticsStopIsIdempotent(t *testing.T) {
	s := New()
	s.Stop()
	s.Start(&fakeSource{nodes: map[string]PodStats{}}, time.Hour)
	s.Stop()
	s.Stop()
}
