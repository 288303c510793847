package observer

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kubilitics/kcli/internal/engine/discovery"
	"github.com/kubilitics/kcli/internal/engine/kube"
)

// ResultKind tags the variant of an ObserverResult.
type ResultKind int

const (
	ResultInit ResultKind = iota
	ResultInitDone
	ResultApply
	ResultDelete
)

// Result is the background observer's output event
// (ObserverResult<T> in result.rs), specialized to *unstructured.Unstructured.
type Result struct {
	Kind   ResultKind
	Init   *InitData // valid when Kind == ResultInit
	Object *unstructured.Unstructured
}

// InitData carries the metadata emitted once per watch session, on
// (re)connect, with a fresh UUID so the UI can detect a new session and
// reset its list model.
type InitData struct {
	UUID         string
	Resource     kube.ResourceRef
	Kind         string
	KindPlural   string
	Group        string
	Version      string
	Scope        discovery.Scope
	CRD          *CRDRef
	HasMetrics   bool
	IsEditable   bool
	IsCreatable  bool
	IsDeletable  bool
}

// CRDRef identifies the CrdColumns entry (if any) backing this kind,
// keyed the same way internal/engine/crd derives its ids ("{uid}.{version}").
type CRDRef struct {
	UID string
}

// NewInitData builds InitData from the resolved capabilities, matching
// InitData::new in result.rs: kind/plural are overridden to "Container"
// for the synthetic containers pseudo-kind, and the editable/creatable/
// deletable flags come straight from the supported-verbs set.
func NewInitData(uuid string, ref kube.ResourceRef, ar discovery.APIResource, cap discovery.APICapabilities, crd *CRDRef, hasMetrics bool) InitData {
	kindName, plural := ar.Kind, ar.Plural
	if ref.IsContainer() {
		kindName = "Container"
		plural = kube.Containers
	}
	return InitData{
		UUID:        uuid,
		Resource:    ref,
		Kind:        kindName,
		KindPlural:  plural,
		Group:       ar.Group,
		Version:     ar.Version,
		Scope:       cap.Scope,
		CRD:         crd,
		HasMetrics:  hasMetrics,
		IsEditable:  cap.HasVerb(discovery.VerbPatch),
		IsCreatable: cap.HasVerb(discovery.VerbCreate),
		IsDeletable: cap.HasVerb(discovery.VerbDelete),
	}
}
