package rules

import (
	"strings"

	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// ParseHash marks every hash_literal_expression as a HashTable presence
// marker; its contents are never inferred.
type ParseHash struct{}

func (ParseHash) Enter(*MNode, traverse.Flow) error { return nil }

func (ParseHash) Leave(n *MNode, _ traverse.Flow) error {
	if n.View().Kind() == "hash_literal_expression" {
		n.Set(value.HashTable{})
	}
	return nil
}

// ForStatementDeadCode recognises a for_condition whose for_initializer
// assigns a constant to the loop variable and whose condition compares that
// same variable against a constant. When the comparison is already false at
// loop entry, the condition is reduced to Bool(false), letting the
// strategy elide the whole loop body downstream.
type ForStatementDeadCode struct{}

func (ForStatementDeadCode) Enter(*MNode, traverse.Flow) error { return nil }

func (ForStatementDeadCode) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "for_condition" {
		return nil
	}
	parent := view.Parent()
	if parent == nil || parent.Kind() != "for_statement" {
		return nil
	}
	comparison := view.SmallestChild()
	if comparison.Kind() != "comparison_expression" || comparison.ChildCount() < 3 {
		return nil
	}
	initializer := parent.NamedChild("for_initializer")
	if initializer == nil {
		return nil
	}
	assignment := initializer.SmallestChild()
	if assignment.Kind() != "assignment_expression" || assignment.ChildCount() < 3 {
		return nil
	}

	varName := variableName(assignment.Child(0))
	initValue, ok := n.DataOf(assignment.Child(2))
	if !ok {
		return nil
	}
	initScalar, isScalar := initValue.(value.Scalar)
	if !isScalar {
		return nil
	}

	compLeft, op, compRight := comparison.Child(0), comparison.Child(1), comparison.Child(2)
	operator := strings.ToLower(childText(op))

	var result bool
	var known bool
	if variableName(compLeft) == varName {
		if rv, ok := n.DataOf(compRight); ok {
			if rs, isS := rv.(value.Scalar); isS {
				result, known = infer(initScalar, operator, rs)
			}
		}
	} else if variableName(compRight) == varName {
		if lv, ok := n.DataOf(compLeft); ok {
			if ls, isS := lv.(value.Scalar); isS {
				result, known = infer(ls, operator, initScalar)
			}
		}
	}

	if known && !result {
		n.Reduce(value.Bool(false))
	}
	return nil
}
