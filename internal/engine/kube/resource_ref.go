package kube

// ResourceRef addresses a single resource (or, with Container set, a
// single container within a pod) as spec.md §3 defines: (kind, namespace,
// name?, container?). Container is only meaningful when Kind denotes the
// synthetic "containers" pseudo-kind drilled into from a pod.
type ResourceRef struct {
	Kind      Kind
	Namespace Namespace
	Name      string
	Container string
}

// NewResourceRef builds a ResourceRef for a whole-kind listing (no specific
// name), e.g. what a resource observer watches.
func NewResourceRef(kind Kind, namespace Namespace) ResourceRef {
	return ResourceRef{Kind: kind, Namespace: namespace}
}

// WithName returns a copy of the ResourceRef addressing a specific object.
func (r ResourceRef) WithName(name string) ResourceRef {
	r.Name = name
	return r
}

// WithContainer returns a copy of the ResourceRef drilled into a specific
// container of the referenced pod; the Kind is switched to the synthetic
// Containers pseudo-kind.
func (r ResourceRef) WithContainer(container string) ResourceRef {
	r.Kind = From(Containers)
	r.Container = container
	return r
}

// IsContainer reports whether this ref addresses a container within a pod
// rather than a whole Kubernetes object.
func (r ResourceRef) IsContainer() bool {
	return r.Kind.IsContainers() && r.Container != ""
}

// ResourceTag is a small user-visible label attached to an observed row
// (e.g. highlighting resources matching a saved selector). Kept as a
// simple string newtype; the engine does not interpret tag values itself.
type ResourceTag string

// ResourceRefFilter narrows which resources a view cares about — used by
// the supplemented xray/relationship view (SPEC_FULL.md §7 item 3) to
// describe "only resources owned by X" without the full ResourceRef
// machinery.
type ResourceRefFilter struct {
	OwnerUID string
	Selector map[string]string
}
