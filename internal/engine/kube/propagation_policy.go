package kube

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

// PropagationPolicy controls how a delete request cascades to dependents
// (supplemented feature, SPEC_FULL.md §7 item 2).
type PropagationPolicy int

const (
	PropagationDefault PropagationPolicy = iota
	PropagationOrphan
	PropagationBackground
	PropagationForeground
)

// PropagationPolicyFrom parses the view-layer string form, defaulting to
// PropagationDefault for anything unrecognized.
func PropagationPolicyFrom(value string) PropagationPolicy {
	switch value {
	case "Orphan":
		return PropagationOrphan
	case "Background":
		return PropagationBackground
	case "Foreground":
		return PropagationForeground
	default:
		return PropagationDefault
	}
}

// ToMetaV1 converts to the client-go DeleteOptions field, or nil for the
// default (let the API server decide).
func (p PropagationPolicy) ToMetaV1() *metav1.DeletionPropagation {
	var dp metav1.DeletionPropagation
	switch p {
	case PropagationOrphan:
		dp = metav1.DeletePropagationOrphan
	case PropagationBackground:
		dp = metav1.DeletePropagationBackground
	case PropagationForeground:
		dp = metav1.DeletePropagationForeground
	default:
		return nil
	}
	return &dp
}
