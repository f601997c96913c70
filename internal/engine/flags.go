package engine

import (
	"flag"
	"fmt"
	"os"
)

// Options holds the CLI configuration for a single run.
type Options struct {
	InputFile  string
	UseStdin   bool
	OutputFile string
	UseStdout  bool
	Indent     string
	Detect     bool
	Debug      bool
	Report     bool
	Quiet      bool
	Time       bool
}

// ParseFlags parses os.Args into Options. The bool return is true when the
// caller already handled the invocation (help/version) and should exit
// without running the engine.
func ParseFlags() (Options, bool) {
	opts := Options{}
	flag.StringVar(&opts.InputFile, "path", "", "PowerShell script input file (use -stdin).")
	flag.BoolVar(&opts.UseStdin, "stdin", false, "Read script from STDIN.")
	flag.StringVar(&opts.OutputFile, "out", "", "Output file (default: stdout).")
	flag.BoolVar(&opts.UseStdout, "stdout", true, "Write result to STDOUT.")
	flag.StringVar(&opts.Indent, "indent", " ", "Indent unit for re-emitted source (e.g. \"\\t\").")
	flag.BoolVar(&opts.Detect, "detect", false, "Detection mode: report suspicious static ranges instead of rewriting.")
	flag.BoolVar(&opts.Debug, "debug", false, "Emit a decorated-tree debug dump instead of formatted source.")
	flag.BoolVar(&opts.Report, "report", false, "Emit a deobfuscation report after the run.")
	flag.BoolVar(&opts.Quiet, "q", false, "Quiet mode (no banner, no metrics).")
	flag.BoolVar(&opts.Time, "time", false, "Print elapsed wall-clock time.")
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "Show help.")
	flag.BoolVar(&showHelp, "help", false, "Show help.")
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "Show version and exit.")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  deobfusps -path input.ps1 [options]\n")
		fmt.Fprintf(os.Stderr, "  deobfusps -stdin -detect < input.ps1\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if showVersion {
		fmt.Fprintln(os.Stderr, VersionFull())
		return Options{}, true
	}
	if showHelp {
		flag.Usage()
		return Options{}, true
	}
	return opts, false
}
