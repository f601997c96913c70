package rules

import (
	"strings"

	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// AccessString folds element_access (`S[i]`) on a Text receiver.
// Negative indices offset from the end. A right side that is itself a
// Sequence of indices yields the corresponding Sequence of per-character
// results; a single scalar index yields a one-element Sequence.
type AccessString struct{}

func (AccessString) Enter(*MNode, traverse.Flow) error { return nil }

func (AccessString) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "element_access" || view.ChildCount() < 4 {
		return nil
	}
	recv, ok := n.DataOf(view.Child(0))
	if !ok {
		return nil
	}
	src, isText := recv.(value.Text)
	if !isText {
		return nil
	}

	// S '[' index ']': the index sits between the brackets.
	idxNode := view.Child(2)
	idxVal, ok := n.DataOf(idxNode)
	if !ok {
		return nil
	}

	switch iv := idxVal.(type) {
	case value.Sequence:
		out := make(value.Sequence, 0, len(iv))
		for _, s := range iv {
			ch, ok := getAt(string(src), s)
			if !ok {
				return nil
			}
			out = append(out, value.Text(ch))
		}
		n.Set(out)
	case value.Scalar:
		ch, ok := getAt(string(src), iv)
		if !ok {
			return nil
		}
		n.Set(value.Sequence{value.Text(ch)})
	}
	return nil
}

// getAt resolves a single character of s at a (possibly negative, possibly
// numeric-string) index.
func getAt(s string, idx value.Scalar) (string, bool) {
	n, ok := value.AsInt(idx)
	if !ok {
		return "", false
	}
	runes := []rune(s)
	if n < 0 {
		n += int64(len(runes))
	}
	if n < 0 || n >= int64(len(runes)) {
		return "", false
	}
	return string(runes[n]), true
}

// Length folds the .length member access on a Sequence or Text receiver.
type Length struct{}

func (Length) Enter(*MNode, traverse.Flow) error { return nil }

func (Length) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "member_access" || view.ChildCount() < 3 {
		return nil
	}
	if childText(view.Child(1)) != "." {
		return nil
	}
	member := view.Child(2)
	name := strings.ToLower(childText(member))
	if name != "length" && name != "count" {
		return nil
	}
	recv, ok := n.DataOf(view.Child(0))
	if !ok {
		return nil
	}
	switch rv := recv.(type) {
	case value.Sequence:
		n.Set(value.Int(len(rv)))
	case value.Text:
		n.Set(value.Int(len([]rune(string(rv)))))
	}
	return nil
}
