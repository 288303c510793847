package kube

import "testing"

func TestNamespaceFromSentinel(t *testing.T) {
	for _, s := range []string{"", "all"} {
		ns := NamespaceFrom(s)
		if !ns.IsAll() {
			t.Errorf("NamespaceFrom(%q).IsAll() = false, want true", s)
		}
		if ns.String() != "all" {
			t.Errorf("NamespaceFrom(%q).String() = %q, want all", s, ns.String())
		}
	}
}

func TestNamespaceSpecific(t *testing.T) {
	ns := NamespaceFrom("kube-system")
	if ns.IsAll() {
		t.Fatal("specific namespace reported IsAll")
	}
	if ns.String() != "kube-system" {
		t.Fatalf("String() = %q, want kube-system", ns.String())
	}
	if name, ok := ns.AsOption(); !ok || name != "kube-system" {
		t.Fatalf("AsOption() = (%q, %v), want (kube-system, true)", name, ok)
	}
}

func TestNamespaceDisplay(t *testing.T) {
	if AllNamespacesNS().Display() != "/ALL/" {
		t.Fatalf("Display() = %q, want /ALL/", AllNamespacesNS().Display())
	}
	if got := NamespaceFrom("default").Display(); got != "'default'" {
		t.Fatalf("Display() = %q, want 'default'", got)
	}
}

func TestNamespaceEqual(t *testing.T) {
	if !NamespaceFrom("a").Equal(NamespaceFrom("a")) {
		t.Fatal("equal namespaces should compare equal")
	}
	if !NamespaceFrom("").Equal(NamespaceFrom("all")) {
		t.Fatal("both-sentinel forms should compare equal")
	}
	if NamespaceFrom("a").Equal(NamespaceFrom("b")) {
		t.Fatal("different namespaces should not compare equal")
	}
}

func TestProtocolFromCaseInsensitive(t *testing.T) {
	cases := map[string]PortProtocol{
		"tcp": ProtocolTCP, "TCP": ProtocolTCP, "": ProtocolTCP, "bogus": ProtocolTCP,
		"udp": ProtocolUDP, "UDP": ProtocolUDP,
		"sctp": ProtocolSCTP, "SCTP": ProtocolSCTP,
	}
	for in, want := range cases {
		if got := ProtocolFrom(in); got != want {
			t.Errorf("ProtocolFrom(%q) = %v, want %v", in, got, want)
		}
	}
}
