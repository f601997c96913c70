package rules

import (
	"strconv"
	"strings"

	"github.com/benzoXdev/deobfusps/internal/psast"
	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// ParseString infers verbatim single-quoted string literals (unescaping
// '' -> ') and expandable double-quoted literals by rendering each child
// sub-expression's inferred value into the interpolated position. If any
// child of an expandable string lacks an inference, the whole string is
// left uninferred.
type ParseString struct{}

func (ParseString) Enter(*MNode, traverse.Flow) error { return nil }

func (ParseString) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	switch view.Kind() {
	case "string_literal":
		text, err := view.Text()
		if err != nil {
			return nil
		}
		if strings.HasPrefix(text, "'") && strings.HasSuffix(text, "'") && len(text) >= 2 {
			inner := text[1 : len(text)-1]
			n.Set(value.Text(strings.ReplaceAll(inner, "''", "'")))
		}
	case "expandable_string_literal":
		inferExpandableString(n, view)
	}
	return nil
}

func inferExpandableString(n *MNode, view *psast.Node) {
	count := view.ChildCount()
	if count == 0 {
		// a fully-literal expandable string with no interpolated children:
		// treat its raw text (sans quotes) as its value.
		text, err := view.Text()
		if err != nil || len(text) < 2 {
			return
		}
		n.Set(value.Text(text[1 : len(text)-1]))
		return
	}

	var b strings.Builder
	for i := 0; i < count; i++ {
		child := view.Child(i)
		if child.ChildCount() == 0 {
			raw, err := child.Text()
			if err != nil {
				return
			}
			if raw == `"` {
				continue
			}
			b.WriteString(raw)
			continue
		}
		v, ok := n.DataOf(child)
		if !ok {
			return
		}
		switch val := v.(type) {
		case value.Text:
			b.WriteString(string(val))
		case value.Int:
			b.WriteString(value.RenderScalar(val))
		case value.Bool:
			b.WriteString(value.RenderScalar(val))
		case value.HashTable:
			b.WriteString("System.Collections.Hashtable")
		default:
			return
		}
	}
	n.Set(value.Text(b.String()))
}

// ConcatString folds + on two Text operands by concatenation.
type ConcatString struct{}

func (ConcatString) Enter(*MNode, traverse.Flow) error { return nil }

func (ConcatString) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	kind := view.Kind()
	if kind != "additive_expression" && kind != "additive_argument_expression" {
		return nil
	}
	if view.ChildCount() < 3 || childText(view.Child(1)) != "+" {
		return nil
	}
	left, ok1 := n.DataOf(view.Child(0))
	right, ok2 := n.DataOf(view.Child(2))
	if !ok1 || !ok2 {
		return nil
	}
	l, lok := left.(value.Text)
	r, rok := right.(value.Text)
	if lok && rok {
		n.Set(value.Text(string(l) + string(r)))
	}
	return nil
}

// StringReplaceMethod folds the .replace(a, b) invocation on a Text
// receiver with two scalar arguments.
type StringReplaceMethod struct{}

func (StringReplaceMethod) Enter(*MNode, traverse.Flow) error { return nil }

func (StringReplaceMethod) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "invokation_expression" || view.ChildCount() < 4 {
		return nil
	}
	receiver, op, member, argList := view.Child(0), view.Child(1), view.Child(2), view.Child(3)
	if childText(op) != "." || strings.ToLower(childText(member)) != "replace" {
		return nil
	}
	recv, ok := n.DataOf(receiver)
	if !ok {
		return nil
	}
	src, isText := recv.(value.Text)
	if !isText {
		return nil
	}
	args := argumentScalars(n, argList)
	if len(args) != 2 {
		return nil
	}
	oldS, oldOK := args[0].(value.Text)
	newS, newOK := args[1].(value.Text)
	if oldOK && newOK {
		n.Set(value.Text(strings.ReplaceAll(string(src), string(oldS), string(newS))))
	}
	return nil
}

// StringReplaceOp folds the -replace/-creplace operator when the left side
// is Text and the right side is a Sequence of exactly two Text elements.
type StringReplaceOp struct{}

func (StringReplaceOp) Enter(*MNode, traverse.Flow) error { return nil }

func (StringReplaceOp) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	kind := view.Kind()
	if kind != "comparison_expression" && kind != "comparison_argument_expression" {
		return nil
	}
	if view.ChildCount() < 3 {
		return nil
	}
	op := strings.ToLower(childText(view.Child(1)))
	if op != "-replace" && op != "-creplace" {
		return nil
	}
	left, ok1 := n.DataOf(view.Child(0))
	right, ok2 := n.DataOf(view.Child(2))
	if !ok1 || !ok2 {
		return nil
	}
	src, isText := left.(value.Text)
	seq, isSeq := right.(value.Sequence)
	if !isText || !isSeq || len(seq) != 2 {
		return nil
	}
	oldS, oldOK := seq[0].(value.Text)
	newS, newOK := seq[1].(value.Text)
	if oldOK && newOK {
		n.Set(value.Text(strings.ReplaceAll(string(src), string(oldS), string(newS))))
	}
	return nil
}

// FormatString folds the -f format operator: a Sequence on the right
// substitutes "{i}" with args[i]'s rendered text; a bare Scalar substitutes
// "{0}".
type FormatString struct{}

func (FormatString) Enter(*MNode, traverse.Flow) error { return nil }

func (FormatString) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	kind := view.Kind()
	if kind != "format_expression" && kind != "format_argument_expression" {
		return nil
	}
	if view.ChildCount() < 3 || strings.ToLower(childText(view.Child(1))) != "-f" {
		return nil
	}
	left, ok1 := n.DataOf(view.Child(0))
	right, ok2 := n.DataOf(view.Child(2))
	if !ok1 || !ok2 {
		return nil
	}
	format, isText := left.(value.Text)
	if !isText {
		return nil
	}

	var args []value.Scalar
	switch rv := right.(type) {
	case value.Sequence:
		args = rv
	case value.Scalar:
		args = []value.Scalar{rv}
	default:
		return nil
	}

	out := string(format)
	for i, a := range args {
		placeholder := "{" + strconv.Itoa(i) + "}"
		out = strings.ReplaceAll(out, placeholder, value.RenderScalar(a))
	}
	n.Set(value.Text(out))
	return nil
}

// StringSplitMethod folds .split(sep) on a Text receiver into a Sequence of
// Text.
type StringSplitMethod struct{}

func (StringSplitMethod) Enter(*MNode, traverse.Flow) error { return nil }

func (StringSplitMethod) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "invokation_expression" || view.ChildCount() < 4 {
		return nil
	}
	receiver, op, member, argList := view.Child(0), view.Child(1), view.Child(2), view.Child(3)
	if childText(op) != "." || strings.ToLower(childText(member)) != "split" {
		return nil
	}
	recv, ok := n.DataOf(receiver)
	if !ok {
		return nil
	}
	src, isText := recv.(value.Text)
	if !isText {
		return nil
	}
	args := argumentScalars(n, argList)
	if len(args) != 1 {
		return nil
	}
	sep, isSepText := args[0].(value.Text)
	if !isSepText {
		return nil
	}
	parts := strings.Split(string(src), string(sep))
	seq := make(value.Sequence, 0, len(parts))
	for _, p := range parts {
		seq = append(seq, value.Text(p))
	}
	n.Set(seq)
	return nil
}

// argumentScalars descends into an invocation's argument_list node (the
// tree-sitter-powershell shape is argument_list -> '(' -> argument_expression_list
// -> argument) and returns each argument's inferred scalar, in order.
func argumentScalars(n *MNode, argList *psast.Node) []value.Scalar {
	if argList == nil {
		return nil
	}
	var out []value.Scalar
	var walk func(node *psast.Node)
	walk = func(node *psast.Node) {
		if node == nil {
			return
		}
		if v, ok := n.DataOf(node); ok {
			if s, isScalar := v.(value.Scalar); isScalar {
				out = append(out, s)
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
