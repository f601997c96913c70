package psast

import (
	"context"
	"testing"
)

func TestParsePreservesSourceCase(t *testing.T) {
	tree, err := Parse(context.Background(), "Write-Host 'Hi'")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if string(tree.Source()) != "Write-Host 'Hi'" {
		t.Fatalf("Source() = %q, want the original case preserved", tree.Source())
	}
}

func TestParseRejectsGrammarErrors(t *testing.T) {
	if _, err := Parse(context.Background(), "$x = ("); err == nil {
		t.Fatal("Parse should reject source the grammar can't accept")
	}
}

func TestNodeKindAndChildCount(t *testing.T) {
	tree, err := Parse(context.Background(), "4 + 5")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	root := tree.Root()
	if root.Kind() != "program" {
		t.Fatalf("root.Kind() = %q, want %q", root.Kind(), "program")
	}
	if root.ChildCount() == 0 {
		t.Fatal("root should have children")
	}
}

func TestNodeTextRoundTrips(t *testing.T) {
	tree, err := Parse(context.Background(), "4 + 5")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	text, err := tree.Root().Text()
	if err != nil {
		t.Fatalf("Text() error: %v", err)
	}
	if text != "4 + 5" {
		t.Fatalf("Text() = %q, want %q", text, "4 + 5")
	}
}

func TestNodeOutOfRangeChildIsNil(t *testing.T) {
	tree, err := Parse(context.Background(), "4 + 5")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	root := tree.Root()
	if c := root.Child(root.ChildCount() + 10); c != nil {
		t.Fatalf("Child() out of range = %v, want nil", c)
	}
	if c := root.Child(-1); c != nil {
		t.Fatalf("Child(-1) = %v, want nil", c)
	}
}

func TestNodeParentAndGetParentOfKind(t *testing.T) {
	tree, err := Parse(context.Background(), "4 + 5")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	root := tree.Root()
	if root.Parent() != nil {
		t.Fatal("root.Parent() should be nil")
	}
	leaf := root.SmallestChild()
	for leaf.ChildCount() > 0 {
		leaf = leaf.Child(0)
	}
	if p := leaf.GetParentOfKind("program"); p == nil || p.Kind() != "program" {
		t.Fatalf("GetParentOfKind(program) = %v, want the program node", p)
	}
	if p := leaf.GetParentOfKind("no_such_kind"); p != nil {
		t.Fatalf("GetParentOfKind(no_such_kind) = %v, want nil", p)
	}
}

func TestNodeIDIsStableAcrossCalls(t *testing.T) {
	tree, err := Parse(context.Background(), "4 + 5")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	root := tree.Root()
	a := tree.Root()
	if root.ID() != a.ID() {
		t.Fatal("ID() should be stable for the same underlying node across separate Root() calls")
	}
}

func TestNodeRangeSkipsPipelineSeparators(t *testing.T) {
	tree, err := Parse(context.Background(), "echo a | echo b | echo c")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	var pipeline *Node
	var find func(n *Node)
	find = func(n *Node) {
		if n == nil || pipeline != nil {
			return
		}
		if n.Kind() == "pipeline" {
			pipeline = n
		}
		for i := 0; i < n.ChildCount(); i++ {
			find(n.Child(i))
		}
	}
	find(tree.Root())
	if pipeline == nil {
		t.Fatal("expected to find a pipeline node")
	}
	elements := pipeline.Range(0, 2)
	if len(elements) != 3 {
		t.Fatalf("Range(0, 2) over a 3-stage pipeline = %d elements, want 3", len(elements))
	}
	for _, e := range elements {
		if e.Kind() == "|" {
			t.Fatalf("Range(0, 2) should skip the '|' separators, got one: %v", e)
		}
	}
}
