package rules

import (
	"strings"

	"github.com/benzoXdev/deobfusps/internal/psast"
	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// Cast recognises `[type] expr` cast expressions and folds int/byte/char
// coercions, element-wise over a PipelineItem when the operand is one,
// aborting the whole fold on the first unconvertible element. A cast
// wrapped in a unary-operator node forwards its value up via Set (not
// Reduce: the reference implementation treats this as an intrinsic
// forwarding rather than a branch-sensitive reduction).
type Cast struct{}

func (Cast) Enter(*MNode, traverse.Flow) error { return nil }

func (Cast) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()

	switch view.Kind() {
	case "cast_expression":
		if view.ChildCount() < 2 {
			return nil
		}
		typeName := castTypeName(view.Child(0))
		if typeName == "" {
			return nil
		}
		operand := view.Child(1)
		v, ok := n.DataOf(operand)
		if !ok {
			return nil
		}
		switch pv := v.(type) {
		case value.Scalar:
			if out, ok := castScalar(typeName, pv); ok {
				n.Set(out)
			}
		case value.PipelineItem:
			out := make(value.PipelineItem, 0, len(pv))
			for _, el := range pv {
				casted, ok := castScalar(typeName, el)
				if !ok {
					return nil
				}
				out = append(out, casted.(value.Scalar))
			}
			n.Set(out)
		}

	case "expression_with_unary_operator":
		// forwards a wrapped cast_expression's value, per the reference
		// implementation's ParseInt/Cast interplay: `(-[int]"5")`-shaped
		// trees funnel through here when the wrapped child already folded.
		if view.ChildCount() >= 2 && view.Child(1).Kind() == "cast_expression" {
			if v, ok := n.DataOf(view.Child(1)); ok {
				n.Set(v)
			}
		}
	}
	return nil
}

// castTypeName extracts the lower-cased simple type identifier from a
// type_literal node. The reference grammar nests this several levels deep
// (type_literal -> type_name -> type_identifier chain); only the final
// path segment matters for cast folding.
func castTypeName(typeLiteral *psast.Node) string {
	if typeLiteral == nil {
		return ""
	}
	text, err := typeLiteral.Text()
	if err != nil {
		return ""
	}
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.Trim(text, "[]")
	if idx := strings.LastIndex(text, "."); idx >= 0 {
		text = text[idx+1:]
	}
	return text
}

// castScalar performs the single-value coercion; returns ok=false when the
// type/value combination cannot be folded (PipelineItem casting aborts the
// whole fold in that case).
func castScalar(typeName string, s value.Scalar) (value.Value, bool) {
	switch typeName {
	case "int":
		if n, ok := value.AsInt(s); ok {
			return value.Int(n), true
		}
	case "byte":
		if n, ok := value.AsInt(s); ok && n > 0 && n < 256 {
			return value.Int(n), true
		}
	case "char":
		if n, ok := s.(value.Int); ok {
			return value.Text(string(rune(byte(n)))), true
		}
	}
	return nil, false
}
