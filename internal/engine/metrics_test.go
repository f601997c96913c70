package engine

import "testing"

func TestComputeMetricsSizeRatio(t *testing.T) {
	m := ComputeMetrics("aaaaaaaaaa", "aaa", 2)
	if m.InputSizeBytes != 10 || m.OutputSizeBytes != 3 {
		t.Fatalf("ComputeMetrics sizes = %d,%d want 10,3", m.InputSizeBytes, m.OutputSizeBytes)
	}
	if m.SizeRatio != 0.3 {
		t.Fatalf("ComputeMetrics SizeRatio = %v, want 0.3", m.SizeRatio)
	}
	if m.DecoratedNodes != 2 {
		t.Fatalf("ComputeMetrics DecoratedNodes = %d, want 2", m.DecoratedNodes)
	}
}

func TestComputeMetricsEmptyInputHasZeroRatio(t *testing.T) {
	m := ComputeMetrics("", "", 0)
	if m.SizeRatio != 0 {
		t.Fatalf("ComputeMetrics with empty input SizeRatio = %v, want 0", m.SizeRatio)
	}
}

func TestComputeMetricsRepeatedCharHasZeroEntropy(t *testing.T) {
	m := ComputeMetrics("aaaa", "aaaa", 0)
	if m.InputEntropy != 0 {
		t.Fatalf("entropy of a single repeated symbol = %v, want 0", m.InputEntropy)
	}
}

func TestComputeMetricsLineCount(t *testing.T) {
	m := ComputeMetrics("x", "a\nb\nc", 0)
	if m.LineCount != 3 {
		t.Fatalf("LineCount = %d, want 3", m.LineCount)
	}
}
