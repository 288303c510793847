package metrics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	metricsclientset "k8s.io/metrics/pkg/client/clientset/versioned"
)

// DefaultPollInterval is spec.md §4.5's default metrics-server polling
// cadence.
const DefaultPollInterval = 15 * time.Second

// PodStats is one resource's CPU/memory usage sample.
type PodStats struct {
	CPU    CpuMetrics
	Memory MemoryMetrics
}

func (p PodStats) add(other PodStats) PodStats {
	return PodStats{CPU: p.CPU.Add(other.CPU), Memory: p.Memory.Add(other.Memory)}
}

// PodUsage is one pod's total usage plus its per-container breakdown, as
// returned by the metrics-server PodMetrics API.
type PodUsage struct {
	Namespace  string
	Name       string
	Total      PodStats
	Containers map[string]PodStats
}

// Source abstracts the metrics-server client so the poller is testable
// without a live apiserver.
type Source interface {
	PodMetrics(ctx context.Context) ([]PodUsage, error)
	NodeMetrics(ctx context.Context) (map[string]PodStats, error)
}

// BgStatistics periodically polls a Source and maintains the latest
// pod/node usage snapshot, the metrics analogue of the resource observers:
// a background goroutine feeding a snapshot that row projections (C12)
// read without blocking.
type BgStatistics struct {
	mu    sync.RWMutex
	pods  map[string]PodUsage   // "namespace/name" -> usage
	nodes map[string]PodStats   // node name -> usage
	avail atomic.Bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an idle BgStatistics; call Start to begin polling.
func New() *BgStatistics {
	return &BgStatistics{pods: map[string]PodUsage{}, nodes: map[string]PodStats{}}
}

// Available reports whether the metrics-server API has answered at least
// one successful poll (spec.md's InitData.HasMetrics gate).
func (s *BgStatistics) Available() bool { return s.avail.Load() }

// Start begins polling src every interval (DefaultPollInterval if <= 0),
// stopping any previous session first.
func (s *BgStatistics) Start(src Source, interval time.Duration) {
	s.Stop()
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx, src, interval)
}

func (s *BgStatistics) run(ctx context.Context, src Source, interval time.Duration) {
	defer s.wg.Done()
	s.poll(ctx, src)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx, src)
		}
	}
}

func (s *BgStatistics) poll(ctx context.Context, src Source) {
	pods, err := src.PodMetrics(ctx)
	if err != nil {
		return
	}
	nodes, err := src.NodeMetrics(ctx)
	if err != nil {
		return
	}

	podIndex := make(map[string]PodUsage, len(pods))
	for _, p := range pods {
		podIndex[p.Namespace+"/"+p.Name] = p
	}

	s.mu.Lock()
	s.pods = podIndex
	s.nodes = nodes
	s.mu.Unlock()
	s.avail.Store(true)
}

// PodStatsFor returns the total usage for one pod, if known.
func (s *BgStatistics) PodStatsFor(namespace, name string) (PodStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pods[namespace+"/"+name]
	return p.Total, ok
}

// ContainerStatsFor returns the usage for one container within a pod, if
// known.
func (s *BgStatistics) ContainerStatsFor(namespace, pod, container string) (PodStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pods[namespace+"/"+pod]
	if !ok {
		return PodStats{}, false
	}
	c, ok := p.Containers[container]
	return c, ok
}

// NodeStatsFor returns the usage for one node, if known.
func (s *BgStatistics) NodeStatsFor(name string) (PodStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[name]
	return n, ok
}

// Stop halts polling and waits for the goroutine to exit. Safe to call
// when never started or already stopped.
func (s *BgStatistics) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.wg.Wait()
		s.cancel = nil
	}
}

// ClientSource adapts a real metrics-server clientset to Source.
type ClientSource struct {
	Client metricsclientset.Interface
}

// PodMetrics lists all-namespaces pod metrics and folds each container's
// usage into a per-pod total.
func (c ClientSource) PodMetrics(ctx context.Context) ([]PodUsage, error) {
	list, err := c.Client.MetricsV1beta1().PodMetricses("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]PodUsage, 0, len(list.Items))
	for _, item := range list.Items {
		usage := PodUsage{Namespace: item.Namespace, Name: item.Name, Containers: map[string]PodStats{}}
		for _, c := range item.Containers {
			cpu, cerr := ParseCPU(c.Usage.Cpu().String())
			mem, merr := ParseMemory(c.Usage.Memory().String())
			if cerr != nil || merr != nil {
				continue
			}
			stats := PodStats{CPU: cpu, Memory: mem}
			usage.Containers[c.Name] = stats
			usage.Total = usage.Total.add(stats)
		}
		out = append(out, usage)
	}
	return out, nil
}

// NodeMetrics lists node metrics keyed by node name.
func (c ClientSource) NodeMetrics(ctx context.Context) (map[string]PodStats, error) {
	list, err := c.Client.MetricsV1beta1().NodeMetricses().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make(map[string]PodStats, len(list.Items))
	for _, item := range list.Items {
		cpu, cerr := ParseCPU(item.Usage.Cpu().String())
		mem, merr := ParseMemory(item.Usage.Memory().String())
		if cerr != nil || merr != nil {
			continue
		}
		out[item.Name] = PodStats{CPU: cpu, Memory: mem}
	}
	return out, nil
}
