// Package crd implements the CRD observer (spec component C9): a
// BgObserver watching CustomResourceDefinitions cluster-wide, drained
// into a mutable []Columns describing each CRD version's custom printer
// columns.
//
// Grounded on original_source/b4n-kube/crds/{columns,observer}.rs.
// CrdObserver there is a thin `delegate!`-based wrapper around BgObserver
// that only adds update_list's Init/Apply/Delete -> []CrdColumns
// projection; this package mirrors that split (observer.BgObserver does
// the watching, Registry here owns the projection).
package crd

import (
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kubilitics/kcli/internal/engine/observer"
)

// FieldType is the CRD schema type of one custom printer column.
type FieldType string

const (
	FieldBoolean FieldType = "boolean"
	FieldInteger FieldType = "integer"
	FieldNumber  FieldType = "number"
	FieldString  FieldType = "string"
	FieldDate    FieldType = "date"
)

// Column is one retained additionalPrinterColumns entry, translated to an
// RFC-6901 JSON pointer.
type Column struct {
	DisplayName string
	JSONPointer string
	FieldType   FieldType
	Priority    int64
}

// Columns is the per-CRD-version record spec.md §3 calls CrdColumns.
type Columns struct {
	UID                string // "{crd-uid}.{version-name}"
	Name               string // "{kind}/{version-name}"
	Columns            []Column
	HasMetadataPointer bool
}

var defaultJSONPaths = map[string]struct{}{
	".metadata.name":              {},
	".metadata.namespace":         {},
	".metadata.creationTimestamp": {},
}

// FromVersion builds Columns from one entry of a CRD's spec.versions,
// given the owning CRD's uid and kind. Mirrors CrdColumns::from in
// columns.rs: default columns (name/namespace/creationTimestamp) and any
// column with non-zero priority are dropped.
func FromVersion(crdUID, kind string, version map[string]interface{}) Columns {
	name, _ := version["name"].(string)

	var cols []Column
	if raw, ok := version["additionalPrinterColumns"].([]interface{}); ok {
		for _, rc := range raw {
			m, ok := rc.(map[string]interface{})
			if !ok {
				continue
			}
			jsonPath, _ := m["jsonPath"].(string)
			if _, isDefault := defaultJSONPaths[jsonPath]; isDefault {
				continue
			}
			col := columnFrom(m)
			if col.Priority != 0 {
				continue
			}
			cols = append(cols, col)
		}
	}

	hasMetadataPointer := false
	for _, c := range cols {
		if strings.HasPrefix(c.JSONPointer, "/metadata") {
			hasMetadataPointer = true
			break
		}
	}

	return Columns{
		UID:                crdUID + "." + name,
		Name:                kind + "/" + name,
		Columns:            cols,
		HasMetadataPointer: hasMetadataPointer,
	}
}

func columnFrom(m map[string]interface{}) Column {
	displayName, _ := m["name"].(string)
	jsonPath, _ := m["jsonPath"].(string)
	fieldType, _ := m["type"].(string)
	var priority int64
	switch p := m["priority"].(type) {
	case int64:
		priority = p
	case float64:
		priority = int64(p)
	}
	return Column{
		DisplayName: displayName,
		JSONPointer: toJSONPointer(jsonPath),
		FieldType:   FieldType(fieldType),
		Priority:    priority,
	}
}

// toJSONPointer translates a CRD additionalPrinterColumns jsonPath (a
// restricted JSONPath, e.g. ".status.replicas" or ".spec.ports[0].port")
// into an RFC-6901 JSON pointer, matching to_json_pointer in columns.rs
// exactly: '.' and '[' become '/', '~' and '/' are escaped, ']' and '$'
// are dropped.
func toJSONPointer(jsonPath string) string {
	var b strings.Builder
	b.Grow(len(jsonPath))
	for _, ch := range jsonPath {
		switch ch {
		case '.', '[':
			b.WriteByte('/')
		case '~':
			b.WriteString("~0")
		case '/':
			b.WriteString("~1")
		case ']', '$':
			// dropped
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// Registry maintains the live []Columns projection fed by a BgObserver's
// Init/Apply/Delete event stream.
type Registry struct {
	columns []Columns
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

// Snapshot returns the current columns list.
func (r *Registry) Snapshot() []Columns { return append([]Columns(nil), r.columns...) }

// ResultSource is the subset of *observer.BgObserver that Drain needs,
// kept as an interface so tests can supply a scripted fake.
type ResultSource interface {
	TryNext() (observer.Result, bool)
}

// Drain pulls every currently queued result from obs and applies it,
// returning true if anything changed. Mirrors CrdObserver::update_list.
func Drain(r *Registry, obs ResultSource) bool {
	updated := false
	for {
		res, ok := obs.TryNext()
		if !ok {
			break
		}
		updated = true
		switch res.Kind {
		case observer.ResultInit:
			r.columns = nil
		case observer.ResultInitDone:
			// no-op
		case observer.ResultApply:
			r.apply(res.Object)
		case observer.ResultDelete:
			r.delete(res.Object)
		}
	}
	return updated
}

func (r *Registry) apply(obj *unstructured.Unstructured) {
	for _, c := range versionsFor(obj) {
		replaced := false
		for i, existing := range r.columns {
			if existing.UID == c.UID {
				r.columns[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			r.columns = append(r.columns, c)
		}
	}
}

func (r *Registry) delete(obj *unstructured.Unstructured) {
	for _, c := range versionsFor(obj) {
		for i, existing := range r.columns {
			if existing.UID == c.UID {
				r.columns = append(r.columns[:i], r.columns[i+1:]...)
				break
			}
		}
	}
}

func versionsFor(obj *unstructured.Unstructured) []Columns {
	if obj == nil {
		return nil
	}
	name := obj.GetName()
	uid := string(obj.GetUID())
	if uid == "" {
		uid = name
	}
	versions, found, _ := unstructured.NestedSlice(obj.Object, "spec", "versions")
	if !found {
		return nil
	}
	out := make([]Columns, 0, len(versions))
	for _, v := range versions {
		vm, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, FromVersion(uid, name, vm))
	}
	return out
}
