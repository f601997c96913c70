package rules

import (
	"strconv"

	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// ParseInt recognises decimal and hexadecimal integer literals and the
// unary +/- operators applied to an already-inferred integer.
type ParseInt struct{}

func (ParseInt) Enter(*MNode, traverse.Flow) error { return nil }

func (ParseInt) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	text, err := view.Text()
	if err != nil {
		return nil
	}

	switch view.Kind() {
	case "hexadecimal_integer_literal":
		if len(text) > 2 {
			if num, err := strconv.ParseUint(text[2:], 16, 64); err == nil {
				n.Set(value.Int(int64(num)))
			}
		}
	case "decimal_integer_literal":
		if num, err := strconv.ParseInt(text, 10, 64); err == nil {
			n.Set(value.Int(num))
		}
	case "expression_with_unary_operator":
		if view.ChildCount() < 2 {
			return nil
		}
		op := childText(view.Child(0))
		if v, ok := n.DataOf(view.Child(1)); ok {
			if num, isInt := v.(value.Int); isInt {
				switch op {
				case "-":
					n.Set(value.Int(-num))
				case "+":
					n.Set(value.Int(num))
				}
			}
		}
	}
	return nil
}

// AddInt folds + and - on two already-inferred integer operands, using
// checked arithmetic: an overflow silently aborts the fold (the original
// syntax survives into re-emission) rather than wrapping.
type AddInt struct{}

func (AddInt) Enter(*MNode, traverse.Flow) error { return nil }

func (AddInt) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	kind := view.Kind()
	if kind != "additive_expression" && kind != "additive_argument_expression" {
		return nil
	}
	if view.ChildCount() < 3 {
		return nil
	}
	left, ok1 := n.DataOf(view.Child(0))
	right, ok2 := n.DataOf(view.Child(2))
	if !ok1 || !ok2 {
		return nil
	}
	l, lok := left.(value.Int)
	r, rok := right.(value.Int)
	if !lok || !rok {
		return nil
	}
	op := childText(view.Child(1))
	switch op {
	case "+":
		if sum, overflowed := checkedAdd(int64(l), int64(r)); !overflowed {
			n.Set(value.Int(sum))
		}
	case "-":
		if diff, overflowed := checkedSub(int64(l), int64(r)); !overflowed {
			n.Set(value.Int(diff))
		}
	}
	return nil
}

// MultInt folds * and / the same way AddInt folds + and -.
type MultInt struct{}

func (MultInt) Enter(*MNode, traverse.Flow) error { return nil }

func (MultInt) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	kind := view.Kind()
	if kind != "multiplicative_expression" && kind != "multiplicative_argument_expression" {
		return nil
	}
	if view.ChildCount() < 3 {
		return nil
	}
	left, ok1 := n.DataOf(view.Child(0))
	right, ok2 := n.DataOf(view.Child(2))
	if !ok1 || !ok2 {
		return nil
	}
	l, lok := left.(value.Int)
	r, rok := right.(value.Int)
	if !lok || !rok {
		return nil
	}
	op := childText(view.Child(1))
	switch op {
	case "*":
		if prod, overflowed := checkedMul(int64(l), int64(r)); !overflowed {
			n.Set(value.Int(prod))
		}
	case "/":
		if r != 0 {
			n.Set(value.Int(int64(l) / int64(r)))
		}
	}
	return nil
}

func checkedAdd(a, b int64) (result int64, overflowed bool) {
	result = a + b
	if (b > 0 && result < a) || (b < 0 && result > a) {
		return 0, true
	}
	return result, false
}

func checkedSub(a, b int64) (result int64, overflowed bool) {
	result = a - b
	if (b < 0 && result < a) || (b > 0 && result > a) {
		return 0, true
	}
	return result, false
}

func checkedMul(a, b int64) (result int64, overflowed bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	result = a * b
	if result/b != a {
		return 0, true
	}
	return result, false
}
