package rows

import (
	"fmt"
	"strconv"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kubilitics/kcli/internal/engine/listmodel"
	"github.com/kubilitics/kcli/internal/engine/metrics"
)

// The built-in projectors below mirror the teacher's PodLine/
// DeploymentLine/ServiceLine/NodeLine (internal/informer/store.go),
// reworked to read fields from an unstructured object (the dynamic
// client's wire shape used by the spec's resource observers) instead of a
// typed corev1/appsv1 struct, and to emit structured Cells instead of a
// whitespace-joined text line.

var podProjector = KindProjector{
	Columns: []listmodel.Column{
		{Name: "NAME", MinWidth: 12, SortSymbol: 'n'},
		{Name: "READY", MinWidth: 5, SortSymbol: 'r'},
		{Name: "STATUS", MinWidth: 8, SortSymbol: 's'},
		{Name: "RESTARTS", MinWidth: 8, SortSymbol: 'e', IsExtra: true},
		ageColumn,
		{Name: "IP", MinWidth: 8, IsExtra: true},
		{Name: "NODE", MinWidth: 8, IsExtra: true},
		{Name: "CPU", MinWidth: 6, SortSymbol: 'c', IsRightAligned: true, IsExtra: true},
		{Name: "MEMORY", MinWidth: 8, SortSymbol: 'm', IsRightAligned: true, IsExtra: true},
	},
	Extractors: []FieldExtractor{
		nameExtractor,
		podReadyExtractor,
		podStatusExtractor,
		podRestartsExtractor,
		ageExtractor,
		podIPExtractor,
		podNodeExtractor,
		podCPUExtractor,
		podMemoryExtractor,
	},
}

func podContainerStatuses(obj *unstructured.Unstructured) []interface{} {
	statuses, _, _ := unstructured.NestedSlice(obj.Object, "status", "containerStatuses")
	return statuses
}

func podReadyExtractor(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
	containers, _, _ := unstructured.NestedSlice(obj.Object, "spec", "containers")
	total := len(containers)
	ready := 0
	for _, s := range podContainerStatuses(obj) {
		m, ok := s.(map[string]interface{})
		if ok {
			if r, found, _ := unstructured.NestedBool(m, "ready"); found && r {
				ready++
			}
		}
	}
	text := fmt.Sprintf("%d/%d", ready, total)
	return Cell{Text: text, SortKey: fmt.Sprintf("%04d", ready)}
}

func podStatusExtractor(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
	phase, _, _ := unstructured.NestedString(obj.Object, "status", "phase")
	text := safeField(phase, "Unknown")
	return Cell{Text: text, SortKey: text}
}

func podRestartsExtractor(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
	var restarts int64
	for _, s := range podContainerStatuses(obj) {
		m, ok := s.(map[string]interface{})
		if !ok {
			continue
		}
		if c, found, _ := unstructured.NestedInt64(m, "restartCount"); found {
			restarts += c
		}
	}
	text := strconv.FormatInt(restarts, 10)
	return Cell{Text: text, SortKey: fmt.Sprintf("%012d", restarts)}
}

func podIPExtractor(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
	ip, _, _ := unstructured.NestedString(obj.Object, "status", "podIP")
	text := safeField(ip, "<none>")
	return Cell{Text: text, SortKey: text}
}

func podNodeExtractor(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
	node, _, _ := unstructured.NestedString(obj.Object, "spec", "nodeName")
	text := safeField(node, "<none>")
	return Cell{Text: text, SortKey: text}
}

func podCPUExtractor(obj *unstructured.Unstructured, stats *metrics.BgStatistics) Cell {
	if stats == nil {
		return Cell{Text: "<unknown>"}
	}
	s, ok := stats.PodStatsFor(obj.GetNamespace(), obj.GetName())
	if !ok {
		return Cell{Text: "<unknown>"}
	}
	text := s.CPU.String()
	return Cell{Text: text, SortKey: fmt.Sprintf("%020d", s.CPU.Nanocores())}
}

func podMemoryExtractor(obj *unstructured.Unstructured, stats *metrics.BgStatistics) Cell {
	if stats == nil {
		return Cell{Text: "<unknown>"}
	}
	s, ok := stats.PodStatsFor(obj.GetNamespace(), obj.GetName())
	if !ok {
		return Cell{Text: "<unknown>"}
	}
	text := s.Memory.String()
	return Cell{Text: text, SortKey: fmt.Sprintf("%020d", s.Memory.Bytes())}
}

var deploymentProjector = KindProjector{
	Columns: []listmodel.Column{
		{Name: "NAME", MinWidth: 12, SortSymbol: 'n'},
		{Name: "READY", MinWidth: 5, SortSymbol: 'r'},
		{Name: "UP-TO-DATE", MinWidth: 10, IsExtra: true},
		{Name: "AVAILABLE", MinWidth: 9, IsExtra: true},
		ageColumn,
	},
	Extractors: []FieldExtractor{
		nameExtractor,
		deploymentReadyExtractor,
		deploymentIntExtractor("updatedReplicas"),
		deploymentIntExtractor("availableReplicas"),
		ageExtractor,
	},
}

func deploymentReadyExtractor(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
	ready, _, _ := unstructured.NestedInt64(obj.Object, "status", "readyReplicas")
	total, _, _ := unstructured.NestedInt64(obj.Object, "status", "replicas")
	text := fmt.Sprintf("%d/%d", ready, total)
	return Cell{Text: text, SortKey: fmt.Sprintf("%04d", ready)}
}

func deploymentIntExtractor(field string) FieldExtractor {
	return func(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
		n, _, _ := unstructured.NestedInt64(obj.Object, "status", field)
		text := strconv.FormatInt(n, 10)
		return Cell{Text: text, SortKey: fmt.Sprintf("%012d", n)}
	}
}

var serviceProjector = KindProjector{
	Columns: []listmodel.Column{
		{Name: "NAME", MinWidth: 12, SortSymbol: 'n'},
		{Name: "TYPE", MinWidth: 11, SortSymbol: 't'},
		{Name: "CLUSTER-IP", MinWidth: 10, IsExtra: true},
		{Name: "EXTERNAL-IP", MinWidth: 11, IsExtra: true},
		{Name: "PORT(S)", MinWidth: 8, IsExtra: true},
		ageColumn,
	},
	Extractors: []FieldExtractor{
		nameExtractor,
		serviceTypeExtractor,
		serviceStringExtractor("clusterIP", "<none>"),
		serviceExternalIPExtractor,
		servicePortsExtractor,
		ageExtractor,
	},
}

func serviceTypeExtractor(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
	t, _, _ := unstructured.NestedString(obj.Object, "spec", "type")
	text := safeField(t, "ClusterIP")
	return Cell{Text: text, SortKey: text}
}

func serviceStringExtractor(field, placeholder string) FieldExtractor {
	return func(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
		v, _, _ := unstructured.NestedString(obj.Object, "spec", field)
		text := safeField(v, placeholder)
		return Cell{Text: text, SortKey: text}
	}
}

func serviceExternalIPExtractor(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
	ips, found, _ := unstructured.NestedStringSlice(obj.Object, "spec", "externalIPs")
	if !found || len(ips) == 0 {
		return Cell{Text: "<none>", SortKey: ""}
	}
	text := ips[0]
	return Cell{Text: text, SortKey: text}
}

func servicePortsExtractor(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
	ports, _, _ := unstructured.NestedSlice(obj.Object, "spec", "ports")
	text := ""
	for i, p := range ports {
		m, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		port, _, _ := unstructured.NestedInt64(m, "port")
		proto, _, _ := unstructured.NestedString(m, "protocol")
		if i > 0 {
			text += ","
		}
		text += fmt.Sprintf("%d/%s", port, safeField(proto, "TCP"))
	}
	if text == "" {
		text = "<none>"
	}
	return Cell{Text: text, SortKey: text}
}

var nodeProjector = KindProjector{
	Columns: []listmodel.Column{
		{Name: "NAME", MinWidth: 12, SortSymbol: 'n'},
		{Name: "STATUS", MinWidth: 8, SortSymbol: 's'},
		{Name: "ROLES", MinWidth: 8, IsExtra: true},
		ageColumn,
		{Name: "CPU", MinWidth: 6, SortSymbol: 'c', IsRightAligned: true, IsExtra: true},
		{Name: "MEMORY", MinWidth: 8, SortSymbol: 'm', IsRightAligned: true, IsExtra: true},
	},
	Extractors: []FieldExtractor{
		nameExtractor,
		nodeStatusExtractor,
		nodeRolesExtractor,
		ageExtractor,
		nodeCPUExtractor,
		nodeMemoryExtractor,
	},
}

func nodeStatusExtractor(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
	conditions, _, _ := unstructured.NestedSlice(obj.Object, "status", "conditions")
	for _, c := range conditions {
		m, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		if t, _, _ := unstructured.NestedString(m, "type"); t == "Ready" {
			if status, _, _ := unstructured.NestedString(m, "status"); status == "True" {
				return Cell{Text: "Ready", SortKey: "Ready"}
			}
			return Cell{Text: "NotReady", SortKey: "NotReady"}
		}
	}
	return Cell{Text: "Unknown", SortKey: "Unknown"}
}

func nodeRolesExtractor(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
	labels := obj.GetLabels()
	const prefix = "node-role.kubernetes.io/"
	text := ""
	for k := range labels {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			if text != "" {
				text += ","
			}
			text += k[len(prefix):]
		}
	}
	if text == "" {
		text = "<none>"
	}
	return Cell{Text: text, SortKey: text}
}

func nodeCPUExtractor(obj *unstructured.Unstructured, stats *metrics.BgStatistics) Cell {
	if stats == nil {
		return Cell{Text: "<unknown>"}
	}
	s, ok := stats.NodeStatsFor(obj.GetName())
	if !ok {
		return Cell{Text: "<unknown>"}
	}
	return Cell{Text: s.CPU.String(), SortKey: fmt.Sprintf("%020d", s.CPU.Nanocores())}
}

func nodeMemoryExtractor(obj *unstructured.Unstructured, stats *metrics.BgStatistics) Cell {
	if stats == nil {
		return Cell{Text: "<unknown>"}
	}
	s, ok := stats.NodeStatsFor(obj.GetName())
	if !ok {
		return Cell{Text: "<unknown>"}
	}
	return Cell{Text: s.Memory.String(), SortKey: fmt.Sprintf("%020d", s.Memory.Bytes())}
}
