// Package detect implements the detection-mode variant: a separate value
// lattice and rule set reusing the traversal driver to flag suspicious
// nodes (fully-static array literals, fully-static format expressions)
// rather than rewrite them. Grounded on original_source/src/ps/static.rs.
package detect

import (
	"github.com/benzoXdev/deobfusps/internal/psast"
	"github.com/benzoXdev/deobfusps/internal/traverse"
)

// Lattice is the detection-mode value: either a static-ness boolean or,
// reserved for forward-compatibility with the original's StaticCast
// variant, a cast type name. Only Static is populated by the rules below —
// the reference implementation never constructs StaticCast either, despite
// declaring the variant.
type Lattice struct {
	Static     bool
	isStatic   bool
	staticCast string
	isCast     bool
}

func staticValue(b bool) Lattice        { return Lattice{Static: b, isStatic: true} }
func (l Lattice) ok() bool              { return l.isStatic || l.isCast }

// Range is a detected span of source with the label identifying which
// detector fired.
type Range struct {
	Label string
	Start int
	End   int
}

// forwardingKinds lists the node kinds whose single-child static-ness
// simply propagates upward.
var forwardingKinds = map[string]bool{
	"unary_expression":               true,
	"range_expression":                true,
	"format_expression":               true,
	"comparison_expression":           true,
	"bitwise_expression":               true,
	"string_literal":                  true,
	"logical_expression":               true,
	"integer_literal":                  true,
	"argument_expression":             true,
	"range_argument_expression":        true,
	"format_argument_expression":       true,
	"comparison_argument_expression":   true,
	"bitwise_argument_expression":      true,
	"logical_argument_expression":      true,
	"command_name_expr":                true,
	"pipeline":                         true,
	"statement_list":                   true,
	"expression_with_unary_operator":   true,
}

// binaryKinds lists node kinds that are static iff both operands (child 0
// and child 2) are static, or forward a lone child's static-ness.
var binaryKinds = map[string]bool{
	"additive_argument_expression":        true,
	"additive_expression":                 true,
	"multiplicative_expression":           true,
	"multiplicative_argument_expression":  true,
	"array_literal_expression":            true,
}

// StaticRule marks a node Static(true) when every operand in its subtree is
// a literal (integer, string literal, or a cast of a static expression).
type StaticRule struct{}

func (StaticRule) Enter(*traverse.MutNode[Lattice], traverse.Flow) error { return nil }

func (StaticRule) Leave(n *traverse.MutNode[Lattice], _ traverse.Flow) error {
	view := n.View()
	kind := view.Kind()

	switch {
	case kind == "decimal_integer_literal" || kind == "hexadecimal_integer_literal":
		n.Set(staticValue(true))

	case forwardingKinds[kind]:
		if view.ChildCount() == 1 {
			if v, ok := n.DataOf(view.Child(0)); ok && v.isStatic {
				n.Set(v)
			}
		}

	case kind == "parenthesized_expression" || kind == "sub_expression":
		if view.ChildCount() == 3 {
			if v, ok := n.DataOf(view.Child(1)); ok && v.isStatic {
				n.Set(v)
			}
		}

	case binaryKinds[kind]:
		switch view.ChildCount() {
		case 1:
			if v, ok := n.DataOf(view.Child(0)); ok && v.isStatic {
				n.Set(v)
			}
		case 3:
			l, lok := n.DataOf(view.Child(0))
			r, rok := n.DataOf(view.Child(2))
			if lok && rok && l.isStatic && r.isStatic {
				n.Set(staticValue(l.Static && r.Static))
			}
		}

	case kind == "expandable_string_literal":
		if view.ChildCount() == 0 {
			n.Set(staticValue(true))
		}

	case kind == "cast_expression":
		if view.ChildCount() >= 2 {
			if v, ok := n.DataOf(view.Child(1)); ok && v.isStatic && v.Static {
				n.Set(staticValue(true))
			}
		}
	}
	return nil
}

// StaticArrayDetector accumulates offset ranges of multi-element
// array_literal_expression nodes that are fully static and not nested
// inside another array literal.
type StaticArrayDetector struct {
	Found []Range
}

func (d *StaticArrayDetector) Enter(*traverse.MutNode[Lattice], traverse.Flow) error { return nil }

func (d *StaticArrayDetector) Leave(n *traverse.MutNode[Lattice], _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "array_literal_expression" || view.ChildCount() <= 1 {
		return nil
	}
	if parent := view.Parent(); parent != nil && parent.Kind() == "array_literal_expression" {
		return nil
	}
	if v, ok := n.Data(); ok && v.isStatic && v.Static {
		d.Found = append(d.Found, Range{Label: "static-array", Start: view.StartOffset(), End: view.EndOffset()})
	}
	return nil
}

// StaticFormatDetector accumulates offset ranges of format_expression nodes
// whose both sides are static.
type StaticFormatDetector struct {
	Found []Range
}

func (d *StaticFormatDetector) Enter(*traverse.MutNode[Lattice], traverse.Flow) error { return nil }

func (d *StaticFormatDetector) Leave(n *traverse.MutNode[Lattice], _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "format_expression" || view.ChildCount() < 3 {
		return nil
	}
	left, ok1 := n.DataOf(view.Child(0))
	right, ok2 := n.DataOf(view.Child(2))
	if ok1 && ok2 && left.isStatic && left.Static && right.isStatic && right.Static {
		d.Found = append(d.Found, Range{Label: "static-format", Start: view.StartOffset(), End: view.EndOffset()})
	}
	return nil
}

// Strategy for detection mode is trivial: every node is visited predictably.
// The detection lattice has no notion of branch-dependent truth, so there
// is nothing for a strategy to gate.
type Strategy struct{}

func (Strategy) Control(*psast.Node, traverse.Lookup[Lattice]) traverse.ControlFlow {
	return traverse.ContinuePredictable
}

// Run executes the detection pass over root and returns every range found
// by either detector, each carrying its originating label.
func Run(root *psast.Node) ([]Range, error) {
	staticRule := StaticRule{}
	arrayDetector := &StaticArrayDetector{}
	formatDetector := &StaticFormatDetector{}

	composed := traverse.Composite[Lattice]{staticRule, arrayDetector, formatDetector}
	driver := traverse.NewDriver[Lattice](composed, Strategy{})
	if err := driver.Run(root); err != nil {
		return nil, err
	}

	var out []Range
	out = append(out, arrayDetector.Found...)
	out = append(out, formatDetector.Found...)
	return out, nil
}
