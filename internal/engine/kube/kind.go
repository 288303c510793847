// Package kube implements the engine's pure Kubernetes identity value
// types: Kind (C4), Namespace (C5) and ResourceRef (C6).
package kube

import "strings"

// CoreVersion is the implicit version of the core (empty-group) API group.
const CoreVersion = "v1"

// Built-in kind name constants, mirrored from the original project's
// core/mod.rs so callers never hand-type these strings.
const (
	Nodes        = "nodes"
	Pods         = "pods"
	Containers   = "containers"
	Services     = "services"
	Jobs         = "jobs"
	Deployments  = "deployments"
	ReplicaSets  = "replicasets"
	DaemonSets   = "daemonsets"
	StatefulSets = "statefulsets"
	Secrets      = "secrets"
	Events       = "events"
	Crds         = "customresourcedefinitions"
	Pvc          = "persistentvolumeclaims"
	Pv           = "persistentvolumes"
	Namespaces   = "namespaces"
)

var knownAPIGroups = map[string]struct{}{
	"admissionregistration.k8s.io": {},
	"apiextensions.k8s.io":         {},
	"apiregistration.k8s.io":       {},
	"apps":                         {},
	"authentication.k8s.io":        {},
	"authorization.k8s.io":         {},
	"autoscaling":                  {},
	"batch":                        {},
	"certificates.k8s.io":          {},
	"coordination.k8s.io":          {},
	"core":                         {},
	"discovery.k8s.io":             {},
	"events.k8s.io":                {},
	"flowcontrol.apiserver.k8s.io": {},
	"internal.apiserver.k8s.io":    {},
	"networking.k8s.io":            {},
	"node.k8s.io":                  {},
	"policy":                       {},
	"rbac.authorization.k8s.io":    {},
	"resource.k8s.io":              {},
	"scheduling.k8s.io":            {},
	"storage.k8s.io":               {},
	"storagemigration.k8s.io":      {},
}

// IsBuiltinAPIGroup reports whether group is the core group (empty string)
// or one of the well-known Kubernetes API groups.
func IsBuiltinAPIGroup(group string) bool {
	if group == "" {
		return true
	}
	_, ok := knownAPIGroups[group]
	return ok
}

// Kind is a Kubernetes resource type identity, canonically rendered as
// "name[.group][/version]". It stores the canonical string plus byte
// offsets of the group/version separators rather than three separate
// fields, so that String() is always just the stored value and equality is
// a plain string compare — mirroring the original Rust implementation's
// choice of `Option<usize>` offsets into a single `name: String`.
//
// Two Kind values compare equal (via Equal) iff their canonical strings are
// equal; the core-group sentinel "v1" is normalized away on construction
// (see From / New), so "pod./v1" and "pod" are indistinguishable once
// parsed.
type Kind struct {
	canonical string
	group     int // byte offset of '.' in canonical, or -1
	version   int // byte offset of '/' in canonical, or -1
}

// New builds a Kind from explicit (kind, group, version) parts, applying
// the same core-group-omission rule as the canonical-string constructors:
// an empty group with an empty-or-"v1" version yields the bare kind name.
func New(kind, group, version string) Kind {
	switch {
	case group == "" && (version == "" || version == CoreVersion):
		return From(kind)
	case version == "":
		return From(kind + "." + group)
	default:
		return From(kind + "." + group + "/" + version)
	}
}

// FromAPIVersion builds a Kind from a bare kind name and a Kubernetes
// apiVersion string (e.g. "apps/v1", "v1", "").
func FromAPIVersion(kind, apiVersion string) Kind {
	switch {
	case apiVersion == "" || apiVersion == CoreVersion:
		return From(kind)
	case !strings.Contains(apiVersion, "/"):
		return From(kind + "./" + apiVersion)
	default:
		return From(kind + "." + apiVersion)
	}
}

// From parses a canonical "name[.group][/version]" string, normalizing the
// core-group form "kind./v1" down to the bare "kind".
func From(value string) Kind {
	group := strings.IndexByte(value, '.')
	version := strings.IndexByte(value, '/')

	if group >= 0 && version >= 0 && group+1 == version && value[version+1:] == CoreVersion {
		return Kind{canonical: value[:group], group: -1, version: -1}
	}
	return Kind{canonical: value, group: group, version: version}
}

// String returns the canonical "name[.group][/version]" form.
func (k Kind) String() string { return k.canonical }

// Equal reports whether two Kinds have the same canonical name (group and
// version positions are a consequence of the canonical string, not
// compared independently).
func (k Kind) Equal(other Kind) bool { return k.canonical == other.canonical }

// IsNamespaces reports whether this Kind denotes the "namespaces" kind.
func (k Kind) IsNamespaces() bool { return k.Name() == Namespaces }

// IsContainers reports whether this Kind denotes the synthetic "containers"
// pseudo-kind used for pod container drill-down (spec.md §3, ResourceRef).
func (k Kind) IsContainers() bool { return k.Name() == Containers }

// Name returns the bare kind name, stripped of group/version.
func (k Kind) Name() string {
	if k.group >= 0 {
		return k.canonical[:k.group]
	}
	return k.canonical
}

// HasGroup reports whether a non-empty group segment is present.
func (k Kind) HasGroup() bool {
	return k.group >= 0 && k.group+1 != k.version
}

// Group returns the group segment, or "" if none.
func (k Kind) Group() string {
	if k.group < 0 {
		return ""
	}
	start := k.group + 1
	if k.version >= 0 {
		if start < k.version {
			return k.canonical[start:k.version]
		}
		return ""
	}
	return k.canonical[start:]
}

// NameAndGroup returns the "name[.group]" prefix, excluding any version.
func (k Kind) NameAndGroup() string {
	if k.version >= 0 {
		return k.canonical[:k.version]
	}
	return k.canonical
}

// HasVersion reports whether a version segment is present.
func (k Kind) HasVersion() bool { return k.version >= 0 }

// Version returns the version segment, or "" if none.
func (k Kind) Version() string {
	if k.version < 0 {
		return ""
	}
	return k.canonical[k.version+1:]
}

// APIVersion returns "group/version" (or just "version" for the core
// group), matching Kubernetes' own apiVersion field convention.
func (k Kind) APIVersion() string {
	if k.group < 0 {
		return CoreVersion
	}
	if k.group+1 == k.version {
		return k.Version()
	}
	return k.canonical[k.group+1:]
}

// IsBuiltin reports whether this Kind's group is a well-known built-in API
// group.
func (k Kind) IsBuiltin() bool { return IsBuiltinAPIGroup(k.Group()) }
