package metrics

import "testing"

func TestParseMemoryFromStr(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"100KB", 100_000},
		{"100KiB", 102_400},
		{"17Mi", 17 * 1024 * 1024},
		{"250Gb", 250_000_000_000},
		{"555", 555},
		{"0", 0},
	}
	for _, c := range cases {
		got, err := ParseMemory(c.in)
		if err != nil {
			t.Fatalf("ParseMemory(%q) error: %v", c.in, err)
		}
		if got.Bytes() != c.want {
			t.Errorf("ParseMemory(%q).Bytes() = %d, want %d", c.in, got.Bytes(), c.want)
		}
	}
}

func TestParseCPUFromStr(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"555", 555_000_000_000},
		{"100m", 100_000_000},
		{"100n", 100},
		{"2u", 2_000},
	}
	for _, c := range cases {
		got, err := ParseCPU(c.in)
		if err != nil {
			t.Fatalf("ParseCPU(%q) error: %v", c.in, err)
		}
		if got.Nanocores() != c.want {
			t.Errorf("ParseCPU(%q).Nanocores() = %d, want %d", c.in, got.Nanocores(), c.want)
		}
	}
}

func mustMem(t *testing.T, s string) MemoryMetrics {
	t.Helper()
	m, err := ParseMemory(s)
	if err != nil {
		t.Fatalf("ParseMemory(%q): %v", s, err)
	}
	return m
}

func TestMemoryAddSameUnitDisplay(t *testing.T) {
	sum := mustMem(t, "512Ki").Add(mustMem(t, "128Ki"))
	if got, want := sum.String(), "640Ki"; got != want {
		t.Errorf("512Ki+128Ki displays %q, want %q", got, want)
	}
}

func TestMemoryAddSameFamilyPromotesToLargerExactUnit(t *testing.T) {
	sum := mustMem(t, "500GB").Add(mustMem(t, "500gb"))
	if got, want := sum.String(), "1TB"; got != want {
		t.Errorf("500GB+500gb displays %q, want %q", got, want)
	}
}

func TestMemoryAddDifferentUnitsSameFamilyKeepsSmallerWhenLargerInexact(t *testing.T) {
	sum := mustMem(t, "128Mi").Add(mustMem(t, "2Gi"))
	if got, want := sum.String(), "2176Mi"; got != want {
		t.Errorf("128Mi+2Gi displays %q, want %q", got, want)
	}
}

func TestMemoryAddMixedFamilyFallsBackToBytes(t *testing.T) {
	sum := mustMem(t, "15").Add(mustMem(t, "5Mi"))
	if got, want := sum.String(), "5242895B"; got != want {
		t.Errorf("15+5Mi displays %q, want %q", got, want)
	}
}

func TestCpuAddPicksExactNanoUnitAndMillicoresTruncates(t *testing.T) {
	a, _ := ParseCPU("366455n")
	b, _ := ParseCPU("15m")
	sum := a.Add(b)
	if got, want := sum.String(), "15366455n"; got != want {
		t.Errorf("366455n+15m displays %q, want %q", got, want)
	}
	if got, want := sum.Millicores().String(), "15m"; got != want {
		t.Errorf("Millicores() displays %q, want %q", got, want)
	}
}

func TestMemoryRoundTripsCanonicalForms(t *testing.T) {
	for _, s := range []string{"1Ki", "1Mi", "1Gi", "1KB", "1MB", "1GB"} {
		if got := mustMem(t, s).String(); got != s {
			t.Errorf("round trip %q -> %q", s, got)
		}
	}
}
