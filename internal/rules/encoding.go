package rules

import (
	"encoding/base64"
	"encoding/binary"
	"strings"
	"unicode/utf16"

	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// DecodeBase64 folds [convert]::frombase64string(Text) and its
// [system.convert] spelling into a Sequence of byte values.
type DecodeBase64 struct{}

func (DecodeBase64) Enter(*MNode, traverse.Flow) error { return nil }

func (DecodeBase64) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "invokation_expression" || view.ChildCount() < 4 {
		return nil
	}
	typeLit, op, member, argList := view.Child(0), view.Child(1), view.Child(2), view.Child(3)
	if childText(op) != "::" || strings.ToLower(childText(member)) != "frombase64string" {
		return nil
	}
	t := castTypeName(typeLit)
	if t != "convert" {
		return nil
	}
	args := argumentScalars(n, argList)
	if len(args) != 1 {
		return nil
	}
	text, isText := args[0].(value.Text)
	if !isText {
		return nil
	}
	decoded, err := base64.StdEncoding.DecodeString(string(text))
	if err != nil {
		return nil
	}
	seq := make(value.Sequence, len(decoded))
	for i, b := range decoded {
		seq[i] = value.Int(int64(b))
	}
	n.Set(seq)
	return nil
}

// FromUTF folds [system.text.encoding]::utf8/unicode.getstring(bytes) and
// the utf16 variant. Consecutive bytes for the utf16 variant are paired as
// little-endian code units, per the normative text this port follows (the
// Rust source pairs them native-endian, which is a latent bug on
// big-endian hosts that this implementation does not reproduce).
type FromUTF struct{}

func (FromUTF) Enter(*MNode, traverse.Flow) error { return nil }

func (FromUTF) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "invokation_expression" || view.ChildCount() < 4 {
		return nil
	}
	receiver, op, member, argList := view.Child(0), view.Child(1), view.Child(2), view.Child(3)
	if strings.ToLower(childText(member)) != "getstring" {
		return nil
	}
	if childText(op) != "." {
		return nil
	}
	encodingPath := strings.ToLower(childText(receiver))
	args := argumentScalarsAndSequences(n, argList)
	if len(args) != 1 {
		return nil
	}
	seq, isSeq := args[0].(value.Sequence)
	if !isSeq {
		return nil
	}
	bytes := make([]byte, 0, len(seq))
	for _, s := range seq {
		num, ok := s.(value.Int)
		if !ok {
			return nil
		}
		bytes = append(bytes, byte(num))
	}

	switch {
	case strings.Contains(encodingPath, "utf16"):
		if len(bytes)%2 != 0 {
			return nil
		}
		units := make([]uint16, len(bytes)/2)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(bytes[i*2 : i*2+2])
		}
		n.Set(value.Text(string(utf16.Decode(units))))
	case strings.Contains(encodingPath, "utf8"), strings.Contains(encodingPath, "unicode"):
		n.Set(value.Text(string(bytes)))
	}
	return nil
}
