package rules

import (
	"strings"

	"github.com/benzoXdev/deobfusps/internal/psast"
	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// assignmentGuardedKinds lists ancestor statement kinds inside which an
// assignment's left-hand side is not safely trackable — the assignment may
// run zero, one, or many times depending on control flow the engine does
// not model precisely enough to keep the scope table sound.
var assignmentGuardedKinds = map[string]bool{
	"for_statement":      true,
	"while_statement":    true,
	"switch_statement":   true,
	"foreach_statement":  true,
	"do_statement":       true,
	"if_statement":       true,
}

func canAssign(n *psast.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if assignmentGuardedKinds[p.Kind()] {
			return false
		}
	}
	return true
}

func variableName(n *psast.Node) string {
	return strings.ToLower(strings.TrimPrefix(childText(n), "$"))
}

// Var maintains the variable scope table: assignment_expression writes
// record the right-hand side's value (or forget it), and bare variable
// reads on the right-hand side copy the current binding onto the node.
// Pre-increment/decrement on a tracked Int mutate the stored value before
// the node's own value is read, since their enter-time side effect
// precedes use within the same statement.
type Var struct{}

func (Var) Enter(n *MNode, _ traverse.Flow) error {
	view := n.View()
	switch view.Kind() {
	case "function_statement":
		n.Scope().Enter()
	case "pre_increment_expression", "pre_decrement_expression":
		if view.ChildCount() < 2 {
			return nil
		}
		varNode := view.Child(1)
		if varNode.Kind() != "variable" {
			return nil
		}
		name := variableName(varNode)
		if cur, ok := n.Scope().Lookup(name); ok {
			if num, isInt := cur.(value.Int); isInt {
				delta := int64(1)
				if view.Kind() == "pre_decrement_expression" {
					delta = -1
				}
				n.Scope().Assign(name, value.Int(int64(num)+delta))
			}
		}
	}
	return nil
}

func (Var) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	switch view.Kind() {
	case "function_statement":
		n.Scope().Leave()

	case "assignment_expression":
		if view.ChildCount() < 3 {
			return nil
		}
		lhs := view.Child(0)
		if lhs.Kind() != "variable" || !canAssign(view) {
			return nil
		}
		name := variableName(lhs)
		if v, ok := n.DataOf(view.Child(2)); ok {
			n.Scope().Assign(name, v)
		} else {
			n.Scope().Forget(name)
		}

	case "variable":
		parent := view.Parent()
		if parent != nil && parent.Kind() == "assignment_expression" && parent.ChildCount() > 0 && parent.Child(0).ID() == view.ID() {
			// left-hand side of an assignment: handled above, not a read.
			return nil
		}
		if parent != nil {
			if parent.Kind() == "pre_increment_expression" || parent.Kind() == "pre_decrement_expression" {
				// the mutated variable's own node: forward the freshly
				// mutated value rather than re-reading, to avoid a
				// double-apply against the Enter-time mutation.
				if v, ok := n.Scope().Lookup(variableName(view)); ok {
					n.Set(v)
				}
				return nil
			}
		}
		if v, ok := n.Scope().Lookup(variableName(view)); ok {
			n.Set(v)
		}
	}
	return nil
}

// StaticVar recognises the fixed-value PowerShell automatic variables
// $shellid and $?.
type StaticVar struct{}

func (StaticVar) Enter(*MNode, traverse.Flow) error { return nil }

func (StaticVar) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "variable" {
		return nil
	}
	switch strings.ToLower(childText(view)) {
	case "$shellid":
		n.Set(value.Text("Microsoft.Powershell"))
	case "$?":
		n.Set(value.Bool(true))
	}
	return nil
}
