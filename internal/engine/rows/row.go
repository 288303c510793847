// Package rows implements the row projection registry (spec component
// C12): per-kind rules turning an observed *unstructured.Unstructured
// into a listmodel.Row, the Go analogue of the teacher's per-kind
// formatter functions (internal/informer/store.go's PodLine,
// DeploymentLine, ...), generalized from fixed Kubernetes types to the
// dynamic client's unstructured objects so one registry can project both
// built-in kinds and arbitrary CRDs (via crd.Columns' JSON pointers).
package rows

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/jsonpointer"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kubilitics/kcli/internal/engine/crd"
	"github.com/kubilitics/kcli/internal/engine/listmodel"
	"github.com/kubilitics/kcli/internal/engine/metrics"
)

// Cell is one rendered column: its display text and an independent sort
// key (spec.md §4.6: sort keys may differ from display text, e.g.
// zero-padded counts or raw RFC3339 timestamps so lexical sort matches
// chronological sort).
type Cell struct {
	Text    string
	SortKey string
}

// DynamicRow is the single listmodel.Row implementation every projected
// kind shares: the registry supplies the extractors, not a new Row
// implementation per kind.
type DynamicRow struct {
	uid   string
	group string
	name  string
	cells []Cell
}

func (r DynamicRow) UID() string   { return r.uid }
func (r DynamicRow) Group() string { return r.group }
func (r DynamicRow) Name() string  { return r.name }

func (r DynamicRow) GetName(width int) string {
	if width <= 0 || len(r.name) <= width {
		return r.name
	}
	if width <= 1 {
		return r.name[:width]
	}
	return r.name[:width-1] + "…"
}

func (r DynamicRow) ColumnText(column int) string {
	if column < 0 || column >= len(r.cells) {
		return ""
	}
	return r.cells[column].Text
}

func (r DynamicRow) ColumnSortText(column int) string {
	if column < 0 || column >= len(r.cells) {
		return ""
	}
	return r.cells[column].SortKey
}

func (r DynamicRow) Contains(pattern string) bool {
	return strings.Contains(strings.ToLower(r.name), strings.ToLower(pattern))
}

func (r DynamicRow) StartsWith(pattern string) bool {
	return strings.HasPrefix(strings.ToLower(r.name), strings.ToLower(pattern))
}

func (r DynamicRow) IsEqual(pattern string) bool { return r.name == pattern }

var _ listmodel.Row = DynamicRow{}

// FieldExtractor reads one column's Cell from an observed object, given
// the resource's metrics snapshot (nil when unavailable).
type FieldExtractor func(obj *unstructured.Unstructured, stats *metrics.BgStatistics) Cell

// KindProjector is a registered kind's column layout plus its per-column
// extractors, the Go analogue of one of the teacher's XLine functions
// generalized to produce structured cells instead of a formatted string.
type KindProjector struct {
	Columns    []listmodel.Column
	Extractors []FieldExtractor
}

// Project turns obj into a DynamicRow using p's extractors.
func (p KindProjector) Project(obj *unstructured.Unstructured, stats *metrics.BgStatistics) DynamicRow {
	cells := make([]Cell, len(p.Extractors))
	for i, ext := range p.Extractors {
		cells[i] = ext(obj, stats)
	}
	return DynamicRow{
		uid:   string(obj.GetUID()),
		group: obj.GetNamespace(),
		name:  obj.GetName(),
		cells: cells,
	}
}

// Registry maps a kind's plural name to its KindProjector, falling back
// to a CRD-columns-driven generic projector for kinds with no built-in
// projector registered.
type Registry struct {
	byPlural map[string]KindProjector
}

// NewRegistry builds a Registry pre-populated with the built-in kind
// projectors (pods, deployments, services, nodes).
func NewRegistry() *Registry {
	r := &Registry{byPlural: map[string]KindProjector{}}
	r.Register("pods", podProjector)
	r.Register("deployments", deploymentProjector)
	r.Register("services", serviceProjector)
	r.Register("nodes", nodeProjector)
	return r
}

// Register adds or replaces the projector for a plural kind name.
func (r *Registry) Register(plural string, p KindProjector) { r.byPlural[plural] = p }

// ProjectorFor returns the registered projector for plural, or a generic
// name/age-only projector if none is registered.
func (r *Registry) ProjectorFor(plural string) KindProjector {
	if p, ok := r.byPlural[plural]; ok {
		return p
	}
	return genericProjector
}

// ProjectorFromCRDColumns builds a projector for a CRD kind from its
// published additionalPrinterColumns (C9's crd.Columns), each column's
// JSON pointer resolved into the unstructured object with
// go-openapi/jsonpointer.
func ProjectorFromCRDColumns(cols crd.Columns) KindProjector {
	p := KindProjector{
		Columns:    []listmodel.Column{{Name: "NAME", MinWidth: 12, SortSymbol: 'n'}, ageColumn},
		Extractors: []FieldExtractor{nameExtractor, ageExtractor},
	}
	for _, c := range cols.Columns {
		c := c
		p.Columns = append(p.Columns, listmodel.Column{
			Name: strings.ToUpper(c.DisplayName), MinWidth: len(c.DisplayName), IsExtra: true,
		})
		p.Extractors = append(p.Extractors, jsonPointerExtractor(c.JSONPointer))
	}
	return p
}

func jsonPointerExtractor(pointer string) FieldExtractor {
	ptr, err := jsonpointer.New(pointer)
	if err != nil {
		return func(*unstructured.Unstructured, *metrics.BgStatistics) Cell { return Cell{Text: "<invalid>"} }
	}
	return func(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
		val, _, err := ptr.Get(obj.Object)
		if err != nil || val == nil {
			return Cell{Text: "<none>"}
		}
		text := valueToString(val)
		return Cell{Text: text, SortKey: text}
	}
}

func valueToString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return ""
	}
}

var ageColumn = listmodel.Column{Name: "AGE", MinWidth: 4, MaxWidth: 8, SortSymbol: 'a', HasReversedSort: true}

func nameExtractor(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
	return Cell{Text: obj.GetName(), SortKey: obj.GetName()}
}

// ageExtractor renders elapsed time since creation, matching the
// teacher's FormatAge (informer/store.go), and sorts by the raw RFC3339
// timestamp so chronological and lexical order agree.
func ageExtractor(obj *unstructured.Unstructured, _ *metrics.BgStatistics) Cell {
	ts := obj.GetCreationTimestamp()
	return Cell{Text: formatAge(ts.Time), SortKey: ts.Time.UTC().Format(time.RFC3339)}
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "<unknown>"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return strconv.Itoa(int(d.Seconds())) + "s"
	case d < time.Hour:
		return strconv.Itoa(int(d.Minutes())) + "m"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d.Hours())) + "h"
	default:
		return strconv.Itoa(int(d.Hours()/24)) + "d"
	}
}

func safeField(s, placeholder string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return placeholder
	}
	return s
}

var genericProjector = KindProjector{
	Columns:    []listmodel.Column{{Name: "NAME", MinWidth: 12, SortSymbol: 'n'}, ageColumn},
	Extractors: []FieldExtractor{nameExtractor, ageExtractor},
}
