package scope

import (
	"testing"

	"github.com/benzoXdev/deobfusps/internal/value"
)

func TestZeroManagerHasOneScope(t *testing.T) {
	var m Manager
	if d := m.Depth(); d != 1 {
		t.Fatalf("zero Manager Depth() = %d, want 1", d)
	}
}

func TestAssignAndLookupNormalizesName(t *testing.T) {
	var m Manager
	m.Assign("$Foo", value.Int(1))
	v, ok := m.Lookup("foo")
	if !ok || v != value.Int(1) {
		t.Fatalf("Lookup(\"foo\") = %v, %v; want Int(1), true", v, ok)
	}
}

func TestForgetRemovesBinding(t *testing.T) {
	var m Manager
	m.Assign("x", value.Int(1))
	m.Forget("x")
	if _, ok := m.Lookup("x"); ok {
		t.Fatalf("Lookup(\"x\") after Forget should miss")
	}
}

func TestEnterClonesThenIsolatesMutations(t *testing.T) {
	var m Manager
	m.Assign("x", value.Int(1))
	m.Enter()
	if v, ok := m.Lookup("x"); !ok || v != value.Int(1) {
		t.Fatalf("callee scope should see caller binding; got %v, %v", v, ok)
	}
	m.Assign("x", value.Int(2))
	m.Leave()
	if v, ok := m.Lookup("x"); !ok || v != value.Int(1) {
		t.Fatalf("mutation inside callee scope must not escape; got %v, %v", v, ok)
	}
}

func TestLeaveNeverPopsOutermostScope(t *testing.T) {
	var m Manager
	m.Leave()
	m.Leave()
	if d := m.Depth(); d != 1 {
		t.Fatalf("Depth() after spurious Leave calls = %d, want 1", d)
	}
}
