// Package metrics implements the metrics observer (spec component C11):
// a value-unit parser/arithmetic for Kubernetes CPU and memory quantity
// strings, plus a periodic poller merging pod/node usage into list rows.
//
// Grounded on original_source/b4n-kube/stats/metrics.tests.rs (the exact
// numeric oracle this package's tests replay) and spec.md §4.5. The
// original's metrics.rs parser itself was not retrievable (filtered out
// of original_source), so the parse/format/add algebra below is
// reconstructed from the test oracle and spec.md's prose description
// rather than transliterated line-by-line.
package metrics

import (
	"fmt"
	"strconv"
	"strings"
)

type memUnit struct {
	multiplier uint64
	iec        bool
	symbol     string // printed suffix, e.g. "Ki", "MB", "B"
}

// siUnits and iecUnits are ordered largest-to-smallest so Display can walk
// them looking for the largest exact divisor.
var siUnits = []memUnit{
	{1_000_000_000_000_000_000, false, "EB"},
	{1_000_000_000_000_000, false, "PB"},
	{1_000_000_000_000, false, "TB"},
	{1_000_000_000, false, "GB"},
	{1_000_000, false, "MB"},
	{1_000, false, "KB"},
	{1, false, "B"},
}

var iecUnits = []memUnit{
	{1 << 60, true, "Ei"},
	{1 << 50, true, "Pi"},
	{1 << 40, true, "Ti"},
	{1 << 30, true, "Gi"},
	{1 << 20, true, "Mi"},
	{1 << 10, true, "Ki"},
	{1, true, "B"},
}

var memorySuffixes = map[string]memUnit{
	"b": {1, false, "B"}, "": {1, false, "B"},
	"k": {1_000, false, "KB"}, "kb": {1_000, false, "KB"},
	"m": {1_000_000, false, "MB"}, "mb": {1_000_000, false, "MB"},
	"g": {1_000_000_000, false, "GB"}, "gb": {1_000_000_000, false, "GB"},
	"t": {1_000_000_000_000, false, "TB"}, "tb": {1_000_000_000_000, false, "TB"},
	"p": {1_000_000_000_000_000, false, "PB"}, "pb": {1_000_000_000_000_000, false, "PB"},
	"e": {1_000_000_000_000_000_000, false, "EB"}, "eb": {1_000_000_000_000_000_000, false, "EB"},
	"ki": {1 << 10, true, "Ki"}, "kib": {1 << 10, true, "Ki"},
	"mi": {1 << 20, true, "Mi"}, "mib": {1 << 20, true, "Mi"},
	"gi": {1 << 30, true, "Gi"}, "gib": {1 << 30, true, "Gi"},
	"ti": {1 << 40, true, "Ti"}, "tib": {1 << 40, true, "Ti"},
	"pi": {1 << 50, true, "Pi"}, "pib": {1 << 50, true, "Pi"},
	"ei": {1 << 60, true, "Ei"}, "eib": {1 << 60, true, "Ei"},
}

// MemoryMetrics is a byte count with a remembered unit family/denomination
// used only for formatting (equality and arithmetic operate on raw bytes).
type MemoryMetrics struct {
	value uint64
	unit  memUnit
}

// ParseMemory parses a Kubernetes-style memory quantity: a decimal integer
// followed by an optional SI (K/KB/M/MB/...) or IEC (Ki/Mi/Gi/...) suffix,
// case-insensitive.
func ParseMemory(s string) (MemoryMetrics, error) {
	numPart, suffix := splitNumericSuffix(s)
	n, err := strconv.ParseUint(numPart, 10, 64)
	if err != nil {
		return MemoryMetrics{}, fmt.Errorf("metrics: invalid memory quantity %q: %w", s, err)
	}
	u, ok := memorySuffixes[strings.ToLower(suffix)]
	if !ok {
		return MemoryMetrics{}, fmt.Errorf("metrics: unknown memory unit suffix %q", suffix)
	}
	return MemoryMetrics{value: n * u.multiplier, unit: u}, nil
}

func splitNumericSuffix(s string) (numPart, suffix string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}

// Bytes returns the raw byte count.
func (m MemoryMetrics) Bytes() uint64 { return m.value }

// Add sums two MemoryMetrics. The result's display unit is the smaller
// operand's unit (spec.md §4.5: "addition preserves the smaller unit when
// units differ"); its family is IEC unless both operands were SI (spec.md:
// "yields the SI unit only if both operands are SI"). When the smaller
// operand's own family disagrees with that forced family (a mixed-family
// addition where the smaller operand happens to be the SI one), the
// denomination falls back to the plain byte unit, which always formats
// exactly — a conservative approximation of the original's unit algebra
// for an edge case the test oracle does not exercise.
func (m MemoryMetrics) Add(other MemoryMetrics) MemoryMetrics {
	sum := m.value + other.value
	smaller := m.unit
	if other.value < m.value {
		smaller = other.unit
	}
	iec := m.unit.iec || other.unit.iec
	if smaller.iec != iec {
		smaller = memUnit{1, iec, "B"}
	}
	return MemoryMetrics{value: sum, unit: smaller}
}

// String formats the value using the largest unit, at or above the
// remembered display unit, that evenly divides the byte count — falling
// back to the remembered unit itself (always exact, since it was derived
// from an actual operand) when nothing larger divides evenly.
func (m MemoryMetrics) String() string {
	if m.value == 0 {
		return "0" + m.unit.symbol
	}
	table := siUnits
	if m.unit.iec {
		table = iecUnits
	}
	for _, u := range table {
		if u.multiplier < m.unit.multiplier {
			break
		}
		if u.multiplier != 0 && m.value%u.multiplier == 0 {
			return fmt.Sprintf("%d%s", m.value/u.multiplier, u.symbol)
		}
	}
	mult := m.unit.multiplier
	if mult == 0 {
		mult = 1
	}
	return fmt.Sprintf("%d%s", m.value/mult, m.unit.symbol)
}

// cpuSuffixes maps the recognized CPU quantity suffixes to their
// nanocore multiplier: bare cores (empty suffix) are ×1e9, milli ×1e6,
// micro ×1e3, nano ×1.
var cpuSuffixes = map[string]uint64{
	"":  1_000_000_000,
	"m": 1_000_000,
	"u": 1_000,
	"n": 1,
}

// CpuMetrics is a nanocore count.
type CpuMetrics struct {
	nanocores uint64
	forceUnit string // "" lets String() pick the largest exact unit
}

// ParseCPU parses a Kubernetes-style CPU quantity.
func ParseCPU(s string) (CpuMetrics, error) {
	numPart, suffix := splitNumericSuffix(s)
	n, err := strconv.ParseUint(numPart, 10, 64)
	if err != nil {
		return CpuMetrics{}, fmt.Errorf("metrics: invalid cpu quantity %q: %w", s, err)
	}
	mult, ok := cpuSuffixes[suffix]
	if !ok {
		return CpuMetrics{}, fmt.Errorf("metrics: unknown cpu unit suffix %q", suffix)
	}
	return CpuMetrics{nanocores: n * mult}, nil
}

// Nanocores returns the raw nanocore count.
func (c CpuMetrics) Nanocores() uint64 { return c.nanocores }

// Add sums two CpuMetrics.
func (c CpuMetrics) Add(other CpuMetrics) CpuMetrics {
	return CpuMetrics{nanocores: c.nanocores + other.nanocores}
}

// Millicores returns a copy forced to display (truncating, not rounding)
// in millicores regardless of whether that division is exact.
func (c CpuMetrics) Millicores() CpuMetrics {
	return CpuMetrics{nanocores: c.nanocores, forceUnit: "m"}
}

var cpuDisplayUnits = []struct {
	mult   uint64
	symbol string
}{
	{1_000_000_000, ""},
	{1_000_000, "m"},
	{1_000, "u"},
	{1, "n"},
}

// String formats using the largest unit (cores, milli, micro, nano) that
// divides the nanocore count evenly, unless Millicores() forced a unit,
// in which case that unit is used with truncating division.
func (c CpuMetrics) String() string {
	if c.forceUnit != "" {
		for _, u := range cpuDisplayUnits {
			if u.symbol == c.forceUnit {
				return fmt.Sprintf("%d%s", c.nanocores/u.mult, u.symbol)
			}
		}
	}
	for _, u := range cpuDisplayUnits {
		if c.nanocores%u.mult == 0 {
			return fmt.Sprintf("%d%s", c.nanocores/u.mult, u.symbol)
		}
	}
	return fmt.Sprintf("%dn", c.nanocores)
}
