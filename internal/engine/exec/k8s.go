package exec

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"

	"github.com/kubilitics/kcli/internal/engine/kube"
)

// gvrFor derives a GroupVersionResource from a Kind, defaulting to the
// core v1 version when the ref did not carry one (every built-in kind
// this package's commands are called with has already been resolved
// through discovery by the caller, so HasVersion() is normally true).
func gvrFor(k kube.Kind) schema.GroupVersionResource {
	version := k.Version()
	if version == "" {
		version = kube.CoreVersion
	}
	return schema.GroupVersionResource{Group: k.Group(), Version: version, Resource: k.Name()}
}

func mergePatchType() types.PatchType      { return types.MergePatchType }
func applyPatchType() types.PatchType      { return types.ApplyPatchType }

func metaGetOptions() metav1.GetOptions       { return metav1.GetOptions{} }
func metaListOptions() metav1.ListOptions     { return metav1.ListOptions{} }
func metaCreateOptions() metav1.CreateOptions { return metav1.CreateOptions{} }

func metaPatchOptions() metav1.PatchOptions {
	return metav1.PatchOptions{}
}

func metaApplyOptions() metav1.PatchOptions {
	fieldManager := "kcli"
	force := true
	return metav1.PatchOptions{FieldManager: fieldManager, Force: &force}
}

func metaDeleteOptions(terminateImmediately bool, uid string) metav1.DeleteOptions {
	opts := metav1.DeleteOptions{}
	if terminateImmediately {
		zero := int64(0)
		opts.GracePeriodSeconds = &zero
	}
	if uid != "" {
		opts.Preconditions = &metav1.Preconditions{UID: uidPtr(uid)}
	}
	return opts
}

func uidPtr(uid string) *types.UID {
	u := types.UID(uid)
	return &u
}
