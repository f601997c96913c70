package rules

import (
	"context"
	"testing"

	"github.com/benzoXdev/deobfusps/internal/psast"
	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// runCatalogue parses source and runs the full deobfuscation catalogue over
// it under the PowerShell strategy, returning the driver so a test can
// inspect individual node decorations directly.
func runCatalogue(t *testing.T, source string) (*psast.Tree, *traverse.Driver[value.Value]) {
	t.Helper()
	tree, err := psast.Parse(context.Background(), source)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", source, err)
	}
	driver := traverse.NewDriver[value.Value](Catalogue(), Strategy{})
	if err := driver.Run(tree.Root()); err != nil {
		t.Fatalf("Run(%q) error: %v", source, err)
	}
	return tree, driver
}

// findKind returns the first node of the given kind found via a pre-order
// DFS from root, or nil.
func findKind(root *psast.Node, kind string) *psast.Node {
	if root == nil {
		return nil
	}
	if root.Kind() == kind {
		return root
	}
	for i := 0; i < root.ChildCount(); i++ {
		if found := findKind(root.Child(i), kind); found != nil {
			return found
		}
	}
	return nil
}

func TestParseHashMarksHashTable(t *testing.T) {
	tree, driver := runCatalogue(t, `@{a=1; b=2}`)
	n := findKind(tree.Root(), "hash_literal_expression")
	if n == nil {
		t.Fatal("expected a hash_literal_expression node")
	}
	v, ok := driver.Lookup(n)
	if !ok {
		t.Fatal("hash literal should carry a decoration")
	}
	if _, isHash := v.(value.HashTable); !isHash {
		t.Fatalf("hash literal decoration = %#v, want value.HashTable", v)
	}
}

func TestStaticVarShellID(t *testing.T) {
	tree, driver := runCatalogue(t, `$shellid`)
	n := findKind(tree.Root(), "variable")
	if n == nil {
		t.Fatal("expected a variable node")
	}
	v, ok := driver.Lookup(n)
	if !ok {
		t.Fatal("$shellid should carry a decoration")
	}
	if text, isText := v.(value.Text); !isText || string(text) != "Microsoft.Powershell" {
		t.Fatalf("$shellid decoration = %#v, want Text(\"Microsoft.Powershell\")", v)
	}
}

func TestStaticVarQuestionMark(t *testing.T) {
	tree, driver := runCatalogue(t, `$?`)
	n := findKind(tree.Root(), "variable")
	if n == nil {
		t.Fatal("expected a variable node")
	}
	v, ok := driver.Lookup(n)
	if !ok {
		t.Fatal("$? should carry a decoration")
	}
	if b, isBool := v.(value.Bool); !isBool || !bool(b) {
		t.Fatalf("$? decoration = %#v, want Bool(true)", v)
	}
}

func TestForStatementDeadCodeReducesConditionFalse(t *testing.T) {
	tree, driver := runCatalogue(t, `for ($i = 0; $i -gt 1; $i++) {echo bad}`)
	n := findKind(tree.Root(), "for_condition")
	if n == nil {
		t.Fatal("expected a for_condition node")
	}
	v, ok := driver.Lookup(n)
	if !ok {
		t.Fatal("a provably-false for_condition should carry a decoration")
	}
	if b, isBool := v.(value.Bool); !isBool || bool(b) {
		t.Fatalf("for_condition decoration = %#v, want Bool(false)", v)
	}
}

func TestForStatementUnpredictableLeavesConditionUndecorated(t *testing.T) {
	tree, driver := runCatalogue(t, `for ($i = 0; $i -lt 10; $i++) {echo ok}`)
	n := findKind(tree.Root(), "for_condition")
	if n == nil {
		t.Fatal("expected a for_condition node")
	}
	if _, ok := driver.Lookup(n); ok {
		t.Fatal("a loop that genuinely runs should not have its condition forced to a static value")
	}
}

func TestVarAssignmentTrackedOutsideLoop(t *testing.T) {
	tree, driver := runCatalogue(t, "$x = 4\n$x")
	// the second $x is the bare read; the first is the assignment target.
	var reads []*psast.Node
	var walk func(n *psast.Node)
	walk = func(n *psast.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "variable" {
			reads = append(reads, n)
		}
		for i := 0; i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.Root())
	if len(reads) < 2 {
		t.Fatalf("expected at least 2 variable nodes, got %d", len(reads))
	}
	v, ok := driver.Lookup(reads[len(reads)-1])
	if !ok {
		t.Fatal("the bare read of a tracked variable should carry its assigned value")
	}
	if i, isInt := v.(value.Int); !isInt || int64(i) != 4 {
		t.Fatalf("tracked $x decoration = %#v, want Int(4)", v)
	}
}

func TestVarAssignmentInsideIfIsNotTracked(t *testing.T) {
	tree, driver := runCatalogue(t, "if ($true) { $x = 4 }\n$x")
	var reads []*psast.Node
	var walk func(n *psast.Node)
	walk = func(n *psast.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "variable" {
			reads = append(reads, n)
		}
		for i := 0; i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.Root())
	last := reads[len(reads)-1]
	if _, ok := driver.Lookup(last); ok {
		t.Fatal("an assignment guarded by an if-statement must not be tracked into the outer scope")
	}
}

func TestPSItemBindsPrecedingSequence(t *testing.T) {
	tree, driver := runCatalogue(t, `@(1,2,3) | % { $_ }`)
	command := findKind(tree.Root(), "command")
	if command == nil {
		t.Fatal("expected a command node")
	}
	v, ok := driver.Lookup(command)
	if !ok {
		t.Fatal("the foreach-object command should carry a folded Sequence decoration")
	}
	seq, isSeq := v.(value.Sequence)
	if !isSeq {
		t.Fatalf("command decoration = %#v, want value.Sequence", v)
	}
	if len(seq) != 3 {
		t.Fatalf("len(seq) = %d, want 3", len(seq))
	}
	for i, want := range []int64{1, 2, 3} {
		n, isInt := seq[i].(value.Int)
		if !isInt || int64(n) != want {
			t.Fatalf("seq[%d] = %#v, want Int(%d)", i, seq[i], want)
		}
	}
}

func TestComparisonFoldsBool(t *testing.T) {
	tree, driver := runCatalogue(t, `5 -gt 3`)
	n := findKind(tree.Root(), "comparison_expression")
	if n == nil {
		t.Fatal("expected a comparison_expression node")
	}
	v, ok := driver.Lookup(n)
	if !ok {
		t.Fatal("5 -gt 3 should fold to a decorated value")
	}
	if b, isBool := v.(value.Bool); !isBool || !bool(b) {
		t.Fatalf("5 -gt 3 decoration = %#v, want Bool(true)", v)
	}
}

func TestAddIntOverflowDoesNotSet(t *testing.T) {
	tree, driver := runCatalogue(t, `9223372036854775807 + 1`)
	n := findKind(tree.Root(), "additive_expression")
	if n == nil {
		t.Fatal("expected an additive_expression node")
	}
	if _, ok := driver.Lookup(n); ok {
		t.Fatal("an overflowing addition must not fold to a value")
	}
}
