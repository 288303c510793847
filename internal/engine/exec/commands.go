package exec

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/dynamic"
	"sigs.k8s.io/yaml"

	"github.com/google/uuid"

	"github.com/kubilitics/kcli/internal/engine/kube"
	"github.com/kubilitics/kcli/internal/k8sclient"
)

// ListKubeContextsCommand lists every context defined in the active
// kubeconfig. Grounded on commands/mod.rs's ListKubeContexts variant
// (itself implemented against k8sclient.ListContexts, already adapted
// from the teacher's kubeconfig loader).
type ListKubeContextsCommand struct {
	KubeconfigPath string
}

func (c ListKubeContextsCommand) Execute(ctx context.Context) Result {
	names, err := k8sclient.ListContexts(c.KubeconfigPath)
	if err != nil {
		return Result{Kind: ContextsList, Err: err}
	}
	return Result{Kind: ContextsList, Value: names}
}

// ListThemesCommand lists available syntax/UI theme files from a
// directory, grounded on commands/list_themes.rs.
type ListThemesCommand struct {
	Dir string
}

func (c ListThemesCommand) Execute(ctx context.Context) Result {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return Result{Kind: ThemesList, Err: err}
	}
	var themes []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" && filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		themes = append(themes, filepath.Join(c.Dir, e.Name()))
	}
	return Result{Kind: ThemesList, Value: themes}
}

// ListResourcePortsCommand finds the container ports declared in a
// resource's spec.containers, used to offer port-forward candidates. Only
// that path is read, so a workload's pod template (spec.template) is not
// searched and yields no ports.
// Grounded on the NewKubernetesClient/DeleteResources pattern of reading
// a dynamic object's nested fields via unstructured accessors.
type ListResourcePortsCommand struct {
	Client dynamic.Interface
	GVR    kube.ResourceRef
	Name   string
}

func (c ListResourcePortsCommand) Execute(ctx context.Context) Result {
	res := resourceInterfaceFor(c.Client, c.GVR)
	obj, err := res.Get(ctx, c.Name, metaGetOptions())
	if err != nil {
		return Result{Kind: ResourcePortsList, Err: err}
	}
	containers, _, _ := unstructured.NestedSlice(obj.Object, "spec", "containers")
	var ports []int32
	for _, item := range containers {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		cports, _, _ := unstructured.NestedSlice(m, "ports")
		for _, p := range cports {
			pm, ok := p.(map[string]interface{})
			if !ok {
				continue
			}
			if n, found, _ := unstructured.NestedInt64(pm, "containerPort"); found {
				ports = append(ports, int32(n))
			}
		}
	}
	return Result{Kind: ResourcePortsList, Value: ports}
}

// ClientResult is the successful payload of NewKubernetesClientCommand.
type ClientResult struct {
	Bundle    *k8sclient.Bundle
	Namespace kube.Namespace
}

// NewKubernetesClientCommand builds a fresh client bundle for a
// (kubeconfig, context) pair, falling back to the default namespace if
// the caller's preferred namespace does not exist. Grounded on
// commands/new_kubernetes_client.rs, simplified to the bundle k8sclient
// already provides in place of re-deriving discovery/namespace fetch by
// hand.
type NewKubernetesClientCommand struct {
	KubeconfigPath    string
	Context           string
	PreferredNS       kube.Namespace
	ValidateNamespace func(ctx context.Context, bundle *k8sclient.Bundle, ns string) bool
}

func (c NewKubernetesClientCommand) Execute(ctx context.Context) Result {
	bundle, err := k8sclient.NewBundle(c.KubeconfigPath, c.Context)
	if err != nil {
		return Result{Kind: KubernetesClient, Err: err}
	}
	ns := c.PreferredNS
	if name, ok := ns.AsOption(); ok && c.ValidateNamespace != nil && !c.ValidateNamespace(ctx, bundle, name) {
		ns = kube.NamespaceFrom("default")
	}
	return Result{Kind: KubernetesClient, Value: ClientResult{Bundle: bundle, Namespace: ns}}
}

// SaveConfigCommand persists an arbitrary marshaled payload to path,
// generalized from commands/save_configuration.rs's two instantiations
// (Config and History) into one command parameterized by a Marshal func.
type SaveConfigCommand struct {
	Path     string
	Marshal  func() ([]byte, error)
	IsHistory bool
}

func (c SaveConfigCommand) Execute(ctx context.Context) Result {
	kind := SaveConfig
	if c.IsHistory {
		kind = SaveHistory
	}
	data, err := c.Marshal()
	if err != nil {
		return Result{Kind: kind, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return Result{Kind: kind, Err: err}
	}
	if err := os.WriteFile(c.Path, data, 0o644); err != nil {
		return Result{Kind: kind, Err: err}
	}
	return Result{Kind: kind}
}

// DeleteResourcesCommand deletes a batch of named resources concurrently,
// one goroutine per resource — the Go analogue of JoinSet in
// delete_resources.rs. DetachFinalizers strips metadata.finalizers via a
// merge patch before deleting, when the caller wants to force-remove a
// stuck resource.
type DeleteResourcesCommand struct {
	Client             dynamic.Interface
	GVR                kube.ResourceRef
	Names              []string
	UIDs               []string
	TerminateImmediately bool
	DetachFinalizers   bool
}

func (c DeleteResourcesCommand) Execute(ctx context.Context) Result {
	res := resourceInterfaceFor(c.Client, c.GVR)

	var wg sync.WaitGroup
	for i, name := range c.Names {
		name := name
		var uid string
		if i < len(c.UIDs) {
			uid = c.UIDs[i]
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.deleteOne(ctx, res, name, uid)
		}()
	}
	wg.Wait()
	return Result{Kind: DeleteResource}
}

func (c DeleteResourcesCommand) deleteOne(ctx context.Context, res dynamic.ResourceInterface, name, uid string) {
	if c.DetachFinalizers {
		patch := []byte(`{"metadata":{"finalizers":null}}`)
		if _, err := res.Patch(ctx, name, mergePatchType(), patch, metaPatchOptions()); err != nil {
			return
		}
	}
	opts := metaDeleteOptions(c.TerminateImmediately, uid)
	_ = res.Delete(ctx, name, opts)
}

// GetResourceYamlCommand fetches one object and renders it as YAML.
// Grounded on set_new_yaml.rs's sibling get_yaml command (the mod.rs
// re-export table names GetResourceYamlCommand, but its source file was
// filtered from the retrieval pack; this follows the same
// fetch-then-marshal shape as set_new_yaml.rs's write path in reverse).
type GetResourceYamlCommand struct {
	Client dynamic.Interface
	GVR    kube.ResourceRef
	Name   string
}

func (c GetResourceYamlCommand) Execute(ctx context.Context) Result {
	res := resourceInterfaceFor(c.Client, c.GVR)
	obj, err := res.Get(ctx, c.Name, metaGetOptions())
	if err != nil {
		return Result{Kind: GetYaml, Err: err}
	}
	out, err := yaml.Marshal(obj.Object)
	if err != nil {
		return Result{Kind: GetYaml, Err: err}
	}
	return Result{Kind: GetYaml, Value: string(out)}
}

// NewResourceYamlCommand renders a fresh boilerplate YAML template for a
// kind, used by the "create new resource" flow before the user edits it.
type NewResourceYamlCommand struct {
	Kind kube.Kind
}

func (c NewResourceYamlCommand) Execute(ctx context.Context) Result {
	obj := map[string]interface{}{
		"apiVersion": c.Kind.APIVersion(),
		"kind":       c.Kind.Name(),
		"metadata":   map[string]interface{}{"name": "new-" + uuid.NewString()[:8]},
	}
	out, err := yaml.Marshal(obj)
	if err != nil {
		return Result{Kind: NewYaml, Err: err}
	}
	return Result{Kind: NewYaml, Value: string(out)}
}

// SetResourceYamlAction distinguishes creating a brand-new object from
// patching an existing one, mirroring set_yaml.rs's SetResourceYamlAction.
type SetResourceYamlAction int

const (
	ActionCreate SetResourceYamlAction = iota
	ActionPatch
)

// SetResourceYamlCommand applies a user-edited YAML document: creates it
// if Action is ActionCreate, otherwise server-side-applies it as a patch.
// Grounded on commands/set_new_yaml.rs.
type SetResourceYamlCommand struct {
	Client dynamic.Interface
	GVR    kube.ResourceRef
	Name   string
	YAML   string
	Action SetResourceYamlAction
}

func (c SetResourceYamlCommand) Execute(ctx context.Context) Result {
	var obj unstructured.Unstructured
	if err := yaml.Unmarshal([]byte(c.YAML), &obj.Object); err != nil {
		return Result{Kind: SetYaml, Err: err}
	}

	res := resourceInterfaceFor(c.Client, c.GVR)
	if c.Action == ActionCreate {
		created, err := res.Create(ctx, &obj, metaCreateOptions())
		if err != nil {
			return Result{Kind: SetYaml, Err: err}
		}
		return Result{Kind: SetYaml, Value: created.GetName()}
	}

	data, err := yaml.Marshal(obj.Object)
	if err != nil {
		return Result{Kind: SetYaml, Err: err}
	}
	updated, err := res.Patch(ctx, c.Name, applyPatchType(), data, metaApplyOptions())
	if err != nil {
		return Result{Kind: SetYaml, Err: err}
	}
	return Result{Kind: SetYaml, Value: updated.GetName()}
}

func resourceInterfaceFor(client dynamic.Interface, ref kube.ResourceRef) dynamic.ResourceInterface {
	gvr := gvrFor(ref.Kind)
	if ns, ok := ref.Namespace.AsOption(); ok {
		return client.Resource(gvr).Namespace(ns)
	}
	return client.Resource(gvr)
}

