package rules

import (
	"strconv"
	"strings"

	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// ParseBool recognises the $true/$false magic variables.
type ParseBool struct{}

func (ParseBool) Enter(*MNode, traverse.Flow) error { return nil }

func (ParseBool) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "variable" {
		return nil
	}
	switch strings.ToLower(childText(view)) {
	case "$true":
		n.Set(value.Bool(true))
	case "$false":
		n.Set(value.Bool(false))
	}
	return nil
}

// Comparison folds comparison_expression nodes across same-type and
// cross-type operand pairs. The full table, including its deliberately
// asymmetric string/bool mixed cases, is grounded on
// original_source/src/ps/bool.rs's Comparison rule.
type Comparison struct{}

func (Comparison) Enter(*MNode, traverse.Flow) error { return nil }

func (Comparison) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "comparison_expression" || view.ChildCount() < 3 {
		return nil
	}
	left, ok1 := n.DataOf(view.Child(0))
	right, ok2 := n.DataOf(view.Child(2))
	if !ok1 || !ok2 {
		return nil
	}
	op := strings.ToLower(childText(view.Child(1)))
	if b, ok := infer(left, op, right); ok {
		n.Set(value.Bool(b))
	}
	return nil
}

// infer is a package-level function (not a method) so the
// for-statement dead-code rule can reuse the exact same comparison table
// without going through the decoration store.
func infer(left value.Value, op string, right value.Value) (bool, bool) {
	lt, lIsText := left.(value.Text)
	rt, rIsText := right.(value.Text)
	ln, lIsNum := left.(value.Int)
	rn, rIsNum := right.(value.Int)
	lb, lIsBool := left.(value.Bool)
	rb, rIsBool := right.(value.Bool)

	switch {
	case lIsText && rIsText:
		return compareOrdered(string(lt), string(rt), op)
	case lIsNum && rIsNum:
		return compareOrdered(int64(ln), int64(rn), op)
	case lIsBool && rIsBool:
		return compareOrdered(bool2int(bool(lb)), bool2int(bool(rb)), op)

	case lIsText && rIsBool:
		// bool-to-string cross-type comparison treats "true"/"false"
		// case-insensitively, per spec.
		lower := strings.ToLower(string(lt))
		switch op {
		case "-eq":
			return (lower == "true" && bool(rb)) || (lower == "false" && !bool(rb)), true
		case "-ne":
			eq := (lower == "true" && bool(rb)) || (lower == "false" && !bool(rb))
			return !eq, true
		}
	case lIsBool && rIsText:
		switch op {
		case "-eq":
			return (len(rt) != 0) == bool(lb), true
		case "-ne":
			return (len(rt) != 0) != bool(lb), true
		case "-gt":
			if bool(lb) {
				return len(rt) == 0, true
			}
			return false, true
		case "-ge":
			if bool(lb) {
				return true, true
			}
			return len(rt) == 0, true
		}

	case lIsText && rIsNum:
		return compareOrdered(string(lt), strconv.FormatInt(int64(rn), 10), op)
	case lIsNum && rIsText:
		return compareOrdered(strconv.FormatInt(int64(ln), 10), string(rt), op)
	}
	return false, false
}

func bool2int(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// compareOrdered implements -eq/-ne/-ge/-gt/-le/-lt over any ordered type.
func compareOrdered[T string | int64](a, b T, op string) (bool, bool) {
	switch op {
	case "-eq":
		return a == b, true
	case "-ne":
		return a != b, true
	case "-ge":
		return a >= b, true
	case "-gt":
		return a > b, true
	case "-le":
		return a <= b, true
	case "-lt":
		return a < b, true
	}
	return false, false
}
