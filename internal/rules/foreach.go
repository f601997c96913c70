package rules

import (
	"strings"

	"github.com/benzoXdev/deobfusps/internal/psast"
	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// findPreviousExpr resolves the pipeline element immediately preceding
// command within its parent pipeline, stepping by 2 to skip the `|` token
// between elements.
func findPreviousExpr(command *psast.Node) *psast.Node {
	pipeline := command.Parent()
	if pipeline == nil {
		return nil
	}
	elements := pipeline.Range(0, 2)
	index := -1
	for i, el := range elements {
		if el.ID() == command.ID() {
			index = i
			break
		}
	}
	if index <= 0 {
		return nil
	}
	return elements[index-1]
}

// parseCommandName resolves a command node's invoked name, including
// through the `&` call-operator indirection where the command name is
// itself a previously-inferred Text value.
func parseCommandName(n *MNode, command *psast.Node) string {
	nameNode := command.NamedChild("command_name")
	if nameNode == nil {
		return ""
	}
	if command.ChildCount() > 0 && command.Child(0).Kind() == "command_invokation_operator" {
		if v, ok := n.DataOf(nameNode); ok {
			if t, isText := v.(value.Text); isText {
				return strings.ToLower(string(t))
			}
		}
		return ""
	}
	return strings.ToLower(childText(nameNode))
}

func isForEachCommandName(name string) bool {
	return name == "%" || name == "foreach-object"
}

// PSItemInferrator binds $_ inside a foreach-object/% script block to a
// PipelineItem wrapping the preceding pipeline element's Sequence values.
type PSItemInferrator struct{}

func (PSItemInferrator) Enter(*MNode, traverse.Flow) error { return nil }

func (PSItemInferrator) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "variable" || strings.ToLower(childText(view)) != "$_" {
		return nil
	}
	scriptBlockExpr := view.GetParentOfKind("script_block_expression")
	if scriptBlockExpr == nil {
		return nil
	}
	command := scriptBlockExpr.GetParentOfKind("command")
	if command == nil {
		return nil
	}
	if !isForEachCommandName(parseCommandName(n, command)) {
		return nil
	}
	previous := findPreviousExpr(command)
	if previous == nil {
		return nil
	}
	if v, ok := n.DataOf(previous); ok {
		if seq, isSeq := v.(value.Sequence); isSeq {
			pi := make(value.PipelineItem, len(seq))
			copy(pi, seq)
			n.Set(pi)
		}
	}
	return nil
}

// ForEach folds a `previous | % { ... }` / `previous | foreach-object { ... }`
// pipeline into a Sequence by iterating the preceding Sequence's length and,
// for every iteration, accumulating each body statement's per-iteration
// contribution. Any statement that is not a PipelineItem, Scalar, or
// Sequence aborts the whole fold.
type ForEach struct{}

func (ForEach) Enter(*MNode, traverse.Flow) error { return nil }

func (ForEach) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "command" {
		return nil
	}
	if !isForEachCommandName(parseCommandName(n, view)) {
		return nil
	}
	elements := view.NamedChild("command_elements")
	if elements == nil || elements.ChildCount() != 1 || elements.Child(0).Kind() != "script_block_expression" {
		return nil
	}
	scriptBlockExpr := elements.Child(0)
	previous := findPreviousExpr(view)
	if previous == nil {
		return nil
	}
	prevVal, ok := n.DataOf(previous)
	if !ok {
		return nil
	}
	values, isSeq := prevVal.(value.Sequence)
	if !isSeq {
		return nil
	}

	if scriptBlockExpr.ChildCount() < 2 {
		return nil
	}
	scriptBlock := scriptBlockExpr.Child(1)
	body := scriptBlock.NamedChild("script_block_body")
	if body == nil {
		return nil
	}
	statementList := body.NamedChild("statement_list")
	if statementList == nil {
		return nil
	}

	var result value.Sequence
	for i := range values {
		for j := 0; j < statementList.ChildCount(); j++ {
			stmt := statementList.Child(j)
			if stmt.Kind() == "empty_statement" {
				continue
			}
			v, ok := n.DataOf(stmt)
			if !ok {
				return nil
			}
			switch sv := v.(type) {
			case value.PipelineItem:
				if i >= len(sv) {
					return nil
				}
				result = append(result, sv[i])
			case value.Scalar:
				result = append(result, sv)
			case value.Sequence:
				result = append(result, sv...)
			default:
				return nil
			}
		}
	}
	n.Set(result)
	return nil
}
