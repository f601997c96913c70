// Package deobfusps is the public, embeddable surface over the internal
// engine: parse PowerShell source, fold what is statically decidable, and
// either re-emit it or report what was found.
package deobfusps

import (
	"github.com/benzoXdev/deobfusps/internal/detect"
	"github.com/benzoXdev/deobfusps/internal/engine"
)

// DetectedRange is a suspicious static span of source, flagged by detection
// mode rather than rewritten.
type DetectedRange = detect.Range

// Deobfuscate folds source and re-emits it with the default indent unit.
func Deobfuscate(source string) (string, error) {
	return engine.Deobfuscate(source)
}

// DeobfuscateFormatted folds source and re-emits it using indentUnit for
// each nesting level.
func DeobfuscateFormatted(source, indentUnit string) (string, error) {
	return engine.DeobfuscateFormatted(source, indentUnit)
}

// Detect runs detection mode over source without rewriting it.
func Detect(source string) ([]DetectedRange, error) {
	return engine.Detect(source)
}

// DebugDump renders the decorated tree as nested debug groups.
func DebugDump(source string) (string, error) {
	return engine.DebugDump(source)
}
