package rules

import (
	"github.com/benzoXdev/deobfusps/internal/psast"
	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// alwaysUnpredictable lists the statement kinds whose bodies can never be
// proven to run or not run, so folding must not propagate out of them. This
// mirrors the reference strategy's match arm with one addition: do_statement
// is included here even though the Rust source's strategy.rs omits it from
// its own unpredictable list — spec text calls it out explicitly, and a
// do/while loop's body is no less conditional than a while loop's.
var alwaysUnpredictable = map[string]bool{
	"while_statement":    true,
	"for_statement":      true,
	"switch_statement":   true,
	"foreach_statement":  true,
	"do_statement":       true,
	"trap_statement":     true,
	"try_statement":      true,
	"catch_clause":       true,
	"finally_clause":     true,
	"data_statement":     true,
	"parallel_statement": true,
	"sequence_statement": true,
}

// Strategy implements the PowerShell branch-predictability policy described
// in spec §4.3, grounded on original_source/src/ps/strategy.rs.
type Strategy struct{}

func (Strategy) Control(n *psast.Node, lookup traverse.Lookup[value.Value]) traverse.ControlFlow {
	kind := n.Kind()

	if alwaysUnpredictable[kind] {
		return traverse.ContinueUnpredictable
	}

	switch kind {
	case "statement_block":
		return controlStatementBlock(n, lookup)
	case "elseif_clauses", "else_clause":
		return controlElseChain(n, lookup)
	default:
		return traverse.ContinuePredictable
	}
}

// controlStatementBlock looks at the parent of a statement_block to decide
// whether this particular block is the arm actually taken.
func controlStatementBlock(n *psast.Node, lookup traverse.Lookup[value.Value]) traverse.ControlFlow {
	parent := n.Parent()
	if parent == nil {
		return traverse.ContinuePredictable
	}

	switch parent.Kind() {
	case "while_statement":
		if cond := parent.NamedChild("condition"); cond != nil {
			if v, ok := lookup(cond); ok {
				if b, isBool := v.(value.Bool); isBool && !bool(b) {
					return traverse.Break
				}
			}
		}
		return traverse.ContinueUnpredictable
	case "for_statement":
		// Mirrors the while_statement case above: a for loop proven dead
		// at initialization (ForStatementDeadCode reduces for_condition to
		// Bool(false)) skips its body entirely, the same way a statically
		// false while condition does. spec.md's own worked example (§8)
		// requires this for "for", even though neither this port's teacher
		// material nor the PowerShell strategy's prose extends the
		// while-only carve-out to for loops by name.
		if cond := parent.NamedChild("for_condition"); cond != nil {
			if v, ok := lookup(cond); ok {
				if b, isBool := v.(value.Bool); isBool && !bool(b) {
					return traverse.Break
				}
			}
		}
		return traverse.ContinueUnpredictable
	case "if_statement":
		cond := parent.NamedChild("condition")
		if cond == nil {
			return traverse.ContinueUnpredictable
		}
		v, ok := lookup(cond)
		if !ok {
			return traverse.ContinueUnpredictable
		}
		b, isBool := v.(value.Bool)
		if !isBool {
			return traverse.ContinueUnpredictable
		}
		if bool(b) {
			return traverse.ContinuePredictable
		}
		return traverse.Break
	case "elseif_clause":
		return controlElseifClause(parent, lookup)
	case "else_clause":
		return controlElseClauseBody(parent, lookup)
	case "function_statement":
		return traverse.ContinuePredictable
	default:
		return traverse.ContinuePredictable
	}
}

// controlElseChain handles the elseif_clauses aggregate and the else_clause
// node themselves (as opposed to the statement_block they each wrap),
// deciding whether the chain has already been resolved by an earlier arm.
func controlElseChain(n *psast.Node, lookup traverse.Lookup[value.Value]) traverse.ControlFlow {
	ifStmt := n.GetParentOfKind("if_statement")
	if ifStmt == nil {
		return traverse.ContinueUnpredictable
	}
	st := ifConditionState(ifStmt, lookup)
	switch st {
	case condTrue:
		return traverse.Break
	case condFalse:
		return traverse.ContinuePredictable
	default:
		return traverse.ContinueUnpredictable
	}
}

func controlElseifClause(clause *psast.Node, lookup traverse.Lookup[value.Value]) traverse.ControlFlow {
	ifStmt := clause.GetParentOfKind("if_statement")
	if ifStmt == nil {
		return traverse.ContinueUnpredictable
	}
	if ifConditionState(ifStmt, lookup) == condTrue {
		return traverse.Break
	}
	cond := clause.NamedChild("condition")
	if cond == nil {
		return traverse.ContinueUnpredictable
	}
	v, ok := lookup(cond)
	if !ok {
		return traverse.ContinueUnpredictable
	}
	b, isBool := v.(value.Bool)
	if !isBool {
		return traverse.ContinueUnpredictable
	}
	if bool(b) {
		return traverse.ContinuePredictable
	}
	return traverse.Break
}

func controlElseClauseBody(clause *psast.Node, lookup traverse.Lookup[value.Value]) traverse.ControlFlow {
	ifStmt := clause.GetParentOfKind("if_statement")
	if ifStmt == nil {
		return traverse.ContinueUnpredictable
	}
	switch ifConditionState(ifStmt, lookup) {
	case condTrue:
		return traverse.Break
	case condFalse:
		return traverse.ContinuePredictable
	default:
		return traverse.ContinueUnpredictable
	}
}

type condState int

const (
	condUnknown condState = iota
	condTrue
	condFalse
)

// ifConditionState reports whether the if_statement's own condition has
// already been proven true or false, so that later arms in the chain know
// whether they are reachable. Only that first condition is read: the
// conditions of elseif clauses earlier in the chain are not consulted.
func ifConditionState(ifStmt *psast.Node, lookup traverse.Lookup[value.Value]) condState {
	cond := ifStmt.NamedChild("condition")
	if cond == nil {
		return condUnknown
	}
	v, ok := lookup(cond)
	if !ok {
		return condUnknown
	}
	b, isBool := v.(value.Bool)
	if !isBool {
		return condUnknown
	}
	if bool(b) {
		return condTrue
	}
	return condFalse
}
