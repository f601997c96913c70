package engine

import (
	"fmt"
	"math"
	"os"
	"strings"
)

// Metrics holds objective measures of a deobfuscation pass: how much of the
// tree the rule catalogue managed to fold, and how that changed the
// surface shape of the source.
type Metrics struct {
	InputSizeBytes  int     // size of the original source
	OutputSizeBytes int     // size of the re-emitted source
	InputEntropy    float64 // approximate entropy (bits/symbol) of the input
	OutputEntropy   float64 // approximate entropy (bits/symbol) of the output
	DecoratedNodes  int     // parse-tree nodes the catalogue inferred a value for
	LineCount       int     // number of lines in the output
	SizeRatio       float64 // output/input size ratio (<1 usually means successful folding)
}

// entropy computes the approximate Shannon entropy (bits/symbol) of s.
func entropy(s string) float64 {
	if s == "" {
		return 0
	}
	freq := make(map[rune]int)
	n := 0
	for _, r := range s {
		freq[r]++
		n++
	}
	var h float64
	for _, c := range freq {
		p := float64(c) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}

// ComputeMetrics compares the original and deobfuscated source.
func ComputeMetrics(input, output string, decoratedNodes int) Metrics {
	m := Metrics{
		InputSizeBytes:  len(input),
		OutputSizeBytes: len(output),
		InputEntropy:    entropy(input),
		OutputEntropy:   entropy(output),
		DecoratedNodes:  decoratedNodes,
		LineCount:       strings.Count(output, "\n") + 1,
	}
	if m.InputSizeBytes > 0 {
		m.SizeRatio = float64(m.OutputSizeBytes) / float64(m.InputSizeBytes)
	}
	return m
}

// PrintMetrics prints metrics to stderr (if !quiet).
func PrintMetrics(m Metrics, quiet bool) {
	if quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "%sMetrics:%s size=%s%d%s→%s%d%s bytes | decorated=%s%d%s nodes | entropy=%.2f→%.2f | ratio=%.2fx | lines=%d\n",
		Cyan, Reset,
		Green, m.InputSizeBytes, Reset, Green, m.OutputSizeBytes, Reset,
		Green, m.DecoratedNodes, Reset,
		m.InputEntropy, m.OutputEntropy, m.SizeRatio, m.LineCount)
}
