// Package engine wires the parser, the rule catalogue, the traversal
// driver and the re-emitter into the operations the CLI exposes.
package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/benzoXdev/deobfusps/internal/detect"
	"github.com/benzoXdev/deobfusps/internal/linter"
	"github.com/benzoXdev/deobfusps/internal/psast"
	"github.com/benzoXdev/deobfusps/internal/rules"
	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// runCatalogue parses source and runs the full deobfuscation catalogue over
// it, returning the decorated tree and the driver that holds its store.
func runCatalogue(source string) (*psast.Tree, *traverse.Driver[value.Value], error) {
	tree, err := psast.Parse(context.Background(), source)
	if err != nil {
		return nil, nil, newError(ParseFailure, "parse", err)
	}
	driver := traverse.NewDriver[value.Value](rules.Catalogue(), rules.Strategy{})
	if err := driver.Run(tree.Root()); err != nil {
		return nil, nil, newError(ParseFailure, "traversal", err)
	}
	return tree, driver, nil
}

// Deobfuscate folds source and re-emits it with the default one-space
// indent unit.
func Deobfuscate(source string) (string, error) {
	return DeobfuscateFormatted(source, " ")
}

// DeobfuscateFormatted folds source and re-emits it using indentUnit for
// each nesting level.
func DeobfuscateFormatted(source, indentUnit string) (string, error) {
	tree, driver, err := runCatalogue(source)
	if err != nil {
		return "", err
	}
	l := linter.New().WithIndent(indentUnit).WithUnreachable(deadBranch(driver))
	if err := l.Print(tree.Root(), driver.Lookup); err != nil {
		return "", newError(Unknown, "re-emit", err)
	}
	return l.Output, nil
}

// deadBranch re-evaluates the same branch-predictability strategy the fold
// pass used against the now-final decoration store: a node the strategy
// would Break on is one whose governing condition was proven to never take
// that arm, so the re-emitter omits it instead of printing dead source.
func deadBranch(driver *traverse.Driver[value.Value]) func(*psast.Node) bool {
	strat := rules.Strategy{}
	return func(n *psast.Node) bool {
		return strat.Control(n, driver.Lookup) == traverse.Break
	}
}

// Detect runs the detection-mode pass and returns every suspicious range it
// finds, without rewriting the source.
func Detect(source string) ([]detect.Range, error) {
	tree, err := psast.Parse(context.Background(), source)
	if err != nil {
		return nil, newError(ParseFailure, "parse", err)
	}
	ranges, err := detect.Run(tree.Root())
	if err != nil {
		return nil, newError(Unknown, "detect", err)
	}
	return ranges, nil
}

// DebugDump parses source, runs the deobfuscation catalogue, and renders the
// decorated tree as nested (kind inferred_type: value) groups.
func DebugDump(source string) (string, error) {
	tree, err := psast.Parse(context.Background(), source)
	if err != nil {
		return "", newError(ParseFailure, "parse", err)
	}
	dv := &rules.DebugView{}
	composed := traverse.Composite[value.Value]{rules.Catalogue(), dv}
	driver := traverse.NewDriver[value.Value](composed, rules.Strategy{})
	if err := driver.Run(tree.Root()); err != nil {
		return "", newError(ParseFailure, "traversal", err)
	}
	return dv.Output.String(), nil
}

// Run drives a single CLI invocation end to end: read input, run the
// requested mode, write output, optionally print metrics/report.
func Run(opts Options) error {
	if !opts.Quiet {
		fmt.Fprintln(os.Stderr, bannerColor)
	}
	if err := requireInOut(opts); err != nil {
		return err
	}

	start := time.Now()
	data, err := readAllInput(opts)
	if err != nil {
		return err
	}
	if err := validateUTF8(data); err != nil {
		return err
	}
	source := string(data)

	var output string
	var decoratedNodes int
	var rangesByLabel map[string]int

	if opts.Detect {
		ranges, err := Detect(source)
		if err != nil {
			return err
		}
		rangesByLabel = make(map[string]int)
		for _, r := range ranges {
			rangesByLabel[r.Label]++
		}
		output = renderDetectSummary(source, ranges)
	} else if opts.Debug {
		output, err = DebugDump(source)
		if err != nil {
			return err
		}
	} else {
		tree, driver, err := runCatalogue(source)
		if err != nil {
			return err
		}
		decoratedNodes = driver.Store.Len()
		l := linter.New().WithIndent(opts.Indent).WithUnreachable(deadBranch(driver))
		if err := l.Print(tree.Root(), driver.Lookup); err != nil {
			return newError(Unknown, "re-emit", err)
		}
		output = l.Output
	}

	if opts.OutputFile != "" {
		if err := os.WriteFile(opts.OutputFile, []byte(output), 0o644); err != nil {
			return newError(IOFailure, "writing output", err)
		}
	} else if opts.UseStdout {
		fmt.Print(output)
	}

	m := ComputeMetrics(source, output, decoratedNodes)
	PrintMetrics(m, opts.Quiet)

	if opts.Report {
		mode := "deobfuscate"
		if opts.Detect {
			mode = "detect"
		}
		r := Report{InputPath: opts.InputFile, Mode: mode, DetectedRanges: rangesByLabel, Duration: time.Since(start)}
		PrintReport(r, m)
	}
	if opts.Time && !opts.Quiet {
		fmt.Fprintf(os.Stderr, "%sDone in %s%s\n", Gray, time.Since(start).Round(time.Millisecond), Reset)
	}
	return nil
}

// renderDetectSummary renders detect ranges as one "label@[start,end): text"
// line per finding, for -stdout/-out consumption in detect mode.
func renderDetectSummary(source string, ranges []detect.Range) string {
	var out string
	for _, r := range ranges {
		snippet := source[r.Start:r.End]
		out += fmt.Sprintf("%s@[%d,%d): %s\n", r.Label, r.Start, r.End, snippet)
	}
	return out
}
