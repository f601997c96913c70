// Package psast is the sole point of contact between this module and the
// external PowerShell grammar. It wraps github.com/alexaandru/go-tree-sitter-bare
// and github.com/alexaandru/go-sitter-forest/powershell behind a narrow,
// read-only projection (kind, child access, offsets, text) so that the rule
// catalogue and the re-emitter never import the tree-sitter package
// directly. Every other package in this module talks to *Node, never to
// sitter types.
package psast

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/alexaandru/go-sitter-forest/powershell"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Tree owns the parsed source and the underlying tree-sitter tree.
type Tree struct {
	source []byte
	raw    sitter.Tree
}

// Parse parses source with the PowerShell grammar, preserving its original
// case. PowerShell is case-insensitive, but that applies to how keywords,
// operators and member names are *matched*, not to the literal bytes of the
// program: original_source/src/bin/minusone-cli.rs parses the source
// as-is (only stripping comments first), never lower-casing it, and relies
// on the grammar's own case-insensitive lexing of keywords/operators. Every
// call site that needs case-insensitive matching (command names, operators,
// member names, keywords) does its own strings.ToLower on the specific
// token it cares about.
func Parse(ctx context.Context, source string) (*Tree, error) {
	parser := sitter.NewParser()
	if err := parser.SetLanguage(sitter.NewLanguage(powershell.GetLanguage())); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}

	raw, err := parser.ParseCtx(ctx, nil, []byte(source))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	root := raw.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("parse: grammar rejected input")
	}
	return &Tree{source: []byte(source), raw: raw}, nil
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node {
	n := t.raw.RootNode()
	return &Node{tree: t, raw: n}
}

// Source returns the original-case source text the tree was parsed from.
func (t *Tree) Source() []byte { return t.source }

// Node is a read-only projection of a single tree-sitter node. Node values
// are cheap; two of them denote the same node when their ID() values are
// equal. The decoration store keys on
// ID(), not on the Node value itself, because tree-sitter may hand back
// distinct Node values for the same underlying node across calls.
type Node struct {
	tree *Tree
	raw  sitter.Node
}

// ID is a stable identity for the node, suitable as a decoration-store key.
// tree-sitter node ids are stable for the lifetime of the tree they came
// from.
func (n *Node) ID() uintptr {
	return n.raw.ID()
}

// Kind is the grammar rule name for this node.
func (n *Node) Kind() string {
	return n.raw.Kind()
}

// ChildCount is the number of direct children, named and anonymous.
func (n *Node) ChildCount() int {
	return int(n.raw.ChildCount())
}

// Child returns the i-th direct child, or nil if i is out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= n.ChildCount() {
		return nil
	}
	c := n.raw.Child(uint32(i))
	if c.IsNull() {
		return nil
	}
	return &Node{tree: n.tree, raw: c}
}

// NamedChild returns the child bound to the given grammar field name, or
// nil if the field is absent on this node.
func (n *Node) NamedChild(field string) *Node {
	c := n.raw.ChildByFieldName(field)
	if c.IsNull() {
		return nil
	}
	return &Node{tree: n.tree, raw: c}
}

// Parent returns the node's parent, or nil at the root.
func (n *Node) Parent() *Node {
	p := n.raw.Parent()
	if p.IsNull() {
		return nil
	}
	return &Node{tree: n.tree, raw: p}
}

// GetParentOfKind walks up the ancestor chain and returns the nearest
// ancestor whose Kind() is a member of kinds, or nil.
func (n *Node) GetParentOfKind(kinds ...string) *Node {
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if set[p.Kind()] {
			return p
		}
	}
	return nil
}

// StartOffset is the byte offset of the node's first byte in the source.
func (n *Node) StartOffset() int { return int(n.raw.StartByte()) }

// EndOffset is the byte offset one past the node's last byte.
func (n *Node) EndOffset() int { return int(n.raw.EndByte()) }

// Text is the UTF-8 slice of source between StartOffset and EndOffset.
func (n *Node) Text() (string, error) {
	start, end := n.StartOffset(), n.EndOffset()
	src := n.tree.source
	if start < 0 || end > len(src) || start > end {
		return "", fmt.Errorf("invalid child range [%d,%d)", start, end)
	}
	if !utf8.Valid(src[start:end]) {
		return "", fmt.Errorf("non-UTF-8 source slice")
	}
	return string(src[start:end]), nil
}

// SmallestChild recursively descends through single-child chains until a
// branching or leaf node is reached.
func (n *Node) SmallestChild() *Node {
	cur := n
	for cur.ChildCount() == 1 {
		cur = cur.Child(0)
	}
	return cur
}

// Range yields every i-th child (used by the for-each rule to walk a
// pipeline's elements while skipping the `|` token between them: a step of
// 2 starting at 0 visits every element and none of the separators).
func (n *Node) Range(start, step int) []*Node {
	var out []*Node
	for i := start; i < n.ChildCount(); i += step {
		if c := n.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}
