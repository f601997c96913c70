package rules

import (
	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// Catalogue returns the full, ordered rule composition used by the
// deobfuscation pass. Lower-level value producers (literal parsing, type
// parsing) run before the consumers that depend on their output
// (arithmetic, concatenation, casts, joins); Forward runs first so that
// transparent wrapper nodes never block a consumer from seeing its
// operand's value.
func Catalogue() traverse.Composite[value.Value] {
	return traverse.Composite[value.Value]{
		Forward{},
		ParseInt{},
		ParseString{},
		ParseBool{},
		StaticVar{},
		ParseHash{},
		Var{},
		AddInt{},
		MultInt{},
		Cast{},
		ConcatString{},
		StringReplaceMethod{},
		StringReplaceOp{},
		FormatString{},
		StringSplitMethod{},
		ParseArrayLiteral{},
		ParseRange{},
		ComputeArrayExpr{},
		AccessString{},
		Length{},
		JoinComparison{},
		JoinOperator{},
		JoinStringMethod{},
		DecodeBase64{},
		FromUTF{},
		Comparison{},
		PSItemInferrator{},
		ForEach{},
		ForStatementDeadCode{},
	}
}
