package kube

// AllNamespaces is the sentinel string meaning "every namespace".
const AllNamespaces = "all"

// Namespace is either the sentinel "all namespaces" or a specific name.
// It is immutable once constructed (spec.md §3).
type Namespace struct {
	value string
	all   bool
}

// NamespaceFrom builds a Namespace from user/API input. An empty string or
// the literal "all" maps to the all-namespaces sentinel.
func NamespaceFrom(value string) Namespace {
	if value == "" || value == AllNamespaces {
		return Namespace{all: true}
	}
	return Namespace{value: value}
}

// AllNamespacesNS returns the all-namespaces sentinel.
func AllNamespacesNS() Namespace { return Namespace{all: true} }

// String renders the namespace: a specific name, or "all" for the
// sentinel.
func (n Namespace) String() string {
	if n.all {
		return AllNamespaces
	}
	return n.value
}

// Display renders the namespace the way a footer/breadcrumb would: a
// specific name quoted, or "/ALL/" for the sentinel.
func (n Namespace) Display() string {
	if n.all {
		return "/ALL/"
	}
	return "'" + n.value + "'"
}

// AsOption returns (name, true) for a specific namespace, or ("", false)
// for the all-namespaces sentinel — the Go analogue of Rust's
// Option<&str>.
func (n Namespace) AsOption() (string, bool) {
	if n.all {
		return "", false
	}
	return n.value, true
}

// IsAll reports whether this Namespace represents every namespace.
func (n Namespace) IsAll() bool { return n.all }

// Equal reports value equality.
func (n Namespace) Equal(other Namespace) bool {
	return n.all == other.all && n.value == other.value
}
