package kube

import "testing"

func TestKindRoundTrip(t *testing.T) {
	cases := []struct {
		input      string
		name       string
		hasGroup   bool
		group      string
		hasVersion bool
		version    string
	}{
		{"pod", "pod", false, "", false, ""},
		{"pod.apps", "pod", true, "apps", false, ""},
		{"pod.apps/v1", "pod", true, "apps", true, "v1"},
		{"pod./v1", "pod", false, "", false, ""},
	}

	for _, tc := range cases {
		k := From(tc.input)
		if got := k.Name(); got != tc.name {
			t.Errorf("From(%q).Name() = %q, want %q", tc.input, got, tc.name)
		}
		if got := k.HasGroup(); got != tc.hasGroup {
			t.Errorf("From(%q).HasGroup() = %v, want %v", tc.input, got, tc.hasGroup)
		}
		if got := k.Group(); got != tc.group {
			t.Errorf("From(%q).Group() = %q, want %q", tc.input, got, tc.group)
		}
		if got := k.HasVersion(); got != tc.hasVersion {
			t.Errorf("From(%q).HasVersion() = %v, want %v", tc.input, got, tc.hasVersion)
		}
		if got := k.Version(); got != tc.version {
			t.Errorf("From(%q).Version() = %q, want %q", tc.input, got, tc.version)
		}
	}
}

func TestKindNormalizesCoreGroupSlashV1(t *testing.T) {
	a := From("pod./v1")
	b := From("pod")
	if !a.Equal(b) {
		t.Fatalf("From(%q) should equal From(%q)", "pod./v1", "pod")
	}
	if a.String() != "pod" {
		t.Fatalf("From(%q).String() = %q, want %q", "pod./v1", a.String(), "pod")
	}
}

func TestKindEqualityIsCanonicalString(t *testing.T) {
	if !From("pod.apps/v1").Equal(From("pod.apps/v1")) {
		t.Fatal("identical canonical strings should be equal")
	}
	if From("pod.apps/v1").Equal(From("pod.apps/v2")) {
		t.Fatal("different versions should not be equal")
	}
}

func TestNewConstructor(t *testing.T) {
	if got := New("pod", "", ""); got.String() != "pod" {
		t.Errorf("New(pod,,) = %q, want pod", got.String())
	}
	if got := New("pod", "", "v1"); got.String() != "pod" {
		t.Errorf("New(pod,,v1) = %q, want pod (core version omitted)", got.String())
	}
	if got := New("pod", "apps", ""); got.String() != "pod.apps" {
		t.Errorf("New(pod,apps,) = %q, want pod.apps", got.String())
	}
	if got := New("pod", "apps", "v1"); got.String() != "pod.apps/v1" {
		t.Errorf("New(pod,apps,v1) = %q, want pod.apps/v1", got.String())
	}
}

func TestFromAPIVersion(t *testing.T) {
	if got := FromAPIVersion("pod", ""); got.String() != "pod" {
		t.Errorf("got %q, want pod", got.String())
	}
	if got := FromAPIVersion("pod", "v1"); got.String() != "pod" {
		t.Errorf("got %q, want pod", got.String())
	}
	if got := FromAPIVersion("pod", "v2"); got.String() != "pod./v2" {
		t.Errorf("got %q, want pod./v2", got.String())
	}
	if got := FromAPIVersion("deployment", "apps/v1"); got.String() != "deployment.apps/v1" {
		t.Errorf("got %q, want deployment.apps/v1", got.String())
	}
}

func TestIsBuiltinAPIGroup(t *testing.T) {
	if !IsBuiltinAPIGroup("") {
		t.Error("core group should be builtin")
	}
	if !IsBuiltinAPIGroup("apps") {
		t.Error("apps should be builtin")
	}
	if IsBuiltinAPIGroup("example.com") {
		t.Error("example.com should not be builtin")
	}
}

func TestContainersAndNamespacesSentinels(t *testing.T) {
	if !From(Containers).IsContainers() {
		t.Error("containers kind should report IsContainers")
	}
	if !From(Namespaces).IsNamespaces() {
		t.Error("namespaces kind should report IsNamespaces")
	}
}
