package rules

import (
	"github.com/benzoXdev/deobfusps/internal/psast"
	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// MNode is the MutNode specialised to the deobfuscation lattice; every rule
// in this package operates on it.
type MNode = traverse.MutNode[value.Value]

// transparent lists grammar nodes that simply carry their single child's
// value upward: unary/additive/multiplicative/comparison/bitwise/logical/
// format/range "argument expression" wrappers, integer and string literal
// wrappers, and the plain expression forms tree-sitter-powershell produces
// for each operator family (array literals included) when there was nothing
// to the left of the operator.
var transparent = map[string]bool{
	"unary_expression":                 true,
	"additive_expression":              true,
	"additive_argument_expression":     true,
	"multiplicative_expression":        true,
	"multiplicative_argument_expression": true,
	"comparison_expression":            true,
	"comparison_argument_expression":   true,
	"bitwise_expression":               true,
	"bitwise_argument_expression":      true,
	"logical_expression":               true,
	"logical_argument_expression":      true,
	"format_expression":                true,
	"format_argument_expression":       true,
	"range_expression":                 true,
	"range_argument_expression":        true,
	"array_literal_expression":         true,
	"integer_literal":                  true,
	"string_literal":                   true,
	"argument_expression":              true,
	"expression_with_unary_operator":   true,
}

// Forward propagates values through transparent grammar nodes, the way the
// reference implementation's Forward rule does. It must run before any rule
// that consumes a value sitting one level below an aggregate wrapper.
type Forward struct{}

func (Forward) Enter(*MNode, traverse.Flow) error { return nil }

func (Forward) Leave(n *MNode, flow traverse.Flow) error {
	view := n.View()
	kind := view.Kind()

	if transparent[kind] && view.ChildCount() == 1 {
		if v, ok := n.DataOf(view.Child(0)); ok {
			n.Reduce(v)
		}
		return nil
	}

	switch kind {
	case "sub_expression":
		if view.ChildCount() == 2 {
			// '$(' ')' with nothing inside
			n.Reduce(value.Null{})
			return nil
		}
		if view.ChildCount() == 3 {
			if v, ok := n.DataOf(view.Child(1)); ok {
				n.Reduce(v)
			}
		}
	case "parenthesized_expression":
		if view.ChildCount() == 3 {
			if v, ok := n.DataOf(view.Child(1)); ok {
				n.Reduce(v)
			}
		}
	case "pipeline":
		if cnt := view.ChildCount(); cnt > 0 {
			if v, ok := n.DataOf(view.Child(cnt - 1)); ok {
				n.Reduce(v)
			}
		}
	case "command":
		if view.ChildCount() > 0 && view.Child(0).Kind() == "foreach_command" {
			if v, ok := n.DataOf(view.Child(0)); ok {
				n.Reduce(v)
			}
		}
	case "type_literal":
		if view.ChildCount() >= 2 {
			if v, ok := n.DataOf(view.Child(1)); ok {
				n.Reduce(v)
			}
		}
	}
	return nil
}

// childText is a small helper shared by several rules: the literal text of
// a leaf child, in its original case, or "" if absent/unreadable. Callers
// that need case-insensitive matching (keywords, operators, member names)
// apply their own strings.ToLower.
func childText(n *psast.Node) string {
	if n == nil {
		return ""
	}
	t, err := n.Text()
	if err != nil {
		return ""
	}
	return t
}
