package rules

import (
	"strings"

	"github.com/benzoXdev/deobfusps/internal/psast"
	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

type psastNode = psast.Node

// JoinComparison folds the binary `Sequence -join Text` comparison_expression
// form into a joined Text.
type JoinComparison struct{}

func (JoinComparison) Enter(*MNode, traverse.Flow) error { return nil }

func (JoinComparison) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	kind := view.Kind()
	if kind != "comparison_expression" && kind != "comparison_argument_expression" {
		return nil
	}
	if view.ChildCount() < 3 || strings.ToLower(childText(view.Child(1))) != "-join" {
		return nil
	}
	left, ok1 := n.DataOf(view.Child(0))
	right, ok2 := n.DataOf(view.Child(2))
	if !ok1 || !ok2 {
		return nil
	}
	seq, isSeq := left.(value.Sequence)
	sep, isText := right.(value.Text)
	if isSeq && isText {
		n.Set(value.Text(joinScalars(seq, string(sep))))
	}
	return nil
}

// JoinOperator folds the unary prefix `-join Sequence` form, joining with
// the empty string.
type JoinOperator struct{}

func (JoinOperator) Enter(*MNode, traverse.Flow) error { return nil }

func (JoinOperator) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if k := view.Kind(); (k != "unary_expression" && k != "expression_with_unary_operator") || view.ChildCount() < 2 {
		return nil
	}
	if strings.ToLower(childText(view.Child(0))) != "-join" {
		return nil
	}
	operand, ok := n.DataOf(view.Child(1))
	if !ok {
		return nil
	}
	if seq, isSeq := operand.(value.Sequence); isSeq {
		n.Set(value.Text(joinScalars(seq, "")))
	}
	return nil
}

// JoinStringMethod folds the `[string]::join(sep, sequence)` invocation.
type JoinStringMethod struct{}

func (JoinStringMethod) Enter(*MNode, traverse.Flow) error { return nil }

func (JoinStringMethod) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "invokation_expression" || view.ChildCount() < 4 {
		return nil
	}
	typeLit, op, member, argList := view.Child(0), view.Child(1), view.Child(2), view.Child(3)
	if castTypeName(typeLit) != "string" || childText(op) != "::" || strings.ToLower(childText(member)) != "join" {
		return nil
	}
	args := argumentScalarsAndSequences(n, argList)
	if len(args) != 2 {
		return nil
	}
	sep, isText := args[0].(value.Text)
	seq, isSeq := args[1].(value.Sequence)
	if isText && isSeq {
		n.Set(value.Text(joinScalars(seq, string(sep))))
	}
	return nil
}

func joinScalars(seq value.Sequence, sep string) string {
	parts := make([]string, len(seq))
	for i, s := range seq {
		parts[i] = value.RenderScalar(s)
	}
	return strings.Join(parts, sep)
}

// argumentScalarsAndSequences is like argumentScalars but also surfaces
// whole Sequence-valued arguments (needed by [string]::join's second arg).
func argumentScalarsAndSequences(n *MNode, argList *psastNode) []value.Value {
	if argList == nil {
		return nil
	}
	var out []value.Value
	var walk func(node *psastNode)
	walk = func(node *psastNode) {
		if node == nil {
			return
		}
		if v, ok := n.DataOf(node); ok {
			switch v.(type) {
			case value.Scalar, value.Sequence:
				out = append(out, v)
				return
			}
		}
		for i := 0; i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}
	for i := 0; i < argList.ChildCount(); i++ {
		c := argList.Child(i)
		if c.Kind() == "(" || c.Kind() == ")" || c.Kind() == "," {
			continue
		}
		walk(c)
	}
	return out
}
