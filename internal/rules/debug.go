package rules

import (
	"fmt"
	"strings"

	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// DebugView renders the decorated tree as nested
// "(kind inferred_type: <value>)" groups, one line per node, indented by
// the node's depth. Grounded
// on original_source/src/debug.rs's DebugView rule.
type DebugView struct {
	Output strings.Builder
	tab    int
}

func (d *DebugView) Enter(n *MNode, _ traverse.Flow) error {
	d.Output.WriteByte('\n')
	d.Output.WriteString(strings.Repeat(" ", d.tab))
	v, ok := n.Data()
	d.Output.WriteString(fmt.Sprintf("(%s inferred_type: %s", n.View().Kind(), renderDebugValue(v, ok)))
	d.tab++
	return nil
}

func (d *DebugView) Leave(_ *MNode, _ traverse.Flow) error {
	d.Output.WriteByte(')')
	d.tab--
	return nil
}

func renderDebugValue(v value.Value, ok bool) string {
	if !ok {
		return "None"
	}
	switch t := v.(type) {
	case value.Int:
		return fmt.Sprintf("Some(Int(%d))", int64(t))
	case value.Text:
		return fmt.Sprintf("Some(Str(%q))", string(t))
	case value.Bool:
		return fmt.Sprintf("Some(Bool(%t))", bool(t))
	case value.Sequence:
		return fmt.Sprintf("Some(Array(len=%d))", len(t))
	case value.HashTable:
		return "Some(HashTable)"
	case value.TypeName:
		return fmt.Sprintf("Some(Type(%s))", string(t))
	case value.Null:
		return "Some(Null)"
	default:
		return "Some(?)"
	}
}
