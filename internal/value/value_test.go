package value

import "testing"

func TestAsIntPassesThroughInt(t *testing.T) {
	n, ok := AsInt(Int(42))
	if !ok || n != 42 {
		t.Fatalf("AsInt(Int(42)) = %d, %v; want 42, true", n, ok)
	}
}

func TestAsIntParsesDecimalText(t *testing.T) {
	n, ok := AsInt(Text("123"))
	if !ok || n != 123 {
		t.Fatalf("AsInt(Text(\"123\")) = %d, %v; want 123, true", n, ok)
	}
}

func TestAsIntParsesHexTextWithPrefix(t *testing.T) {
	n, ok := AsInt(Text("0x1F"))
	if !ok || n != 31 {
		t.Fatalf("AsInt(Text(\"0x1F\")) = %d, %v; want 31, true", n, ok)
	}
}

func TestAsIntRejectsHexTextWithoutPrefix(t *testing.T) {
	// "1F" is not a valid decimal integer and carries no "0x" prefix, so it
	// must not be silently reinterpreted as hex.
	_, ok := AsInt(Text("1F"))
	if ok {
		t.Fatalf("AsInt(Text(\"1F\")) should not coerce without an explicit 0x prefix")
	}
}

func TestAsIntNeverCoercesBool(t *testing.T) {
	_, ok := AsInt(Bool(true))
	if ok {
		t.Fatalf("AsInt(Bool(true)) should never coerce")
	}
}

func TestRenderScalar(t *testing.T) {
	cases := []struct {
		in   Scalar
		want string
	}{
		{Text("hi"), "hi"},
		{Int(-7), "-7"},
		{Bool(true), "True"},
		{Bool(false), "False"},
	}
	for _, c := range cases {
		if got := RenderScalar(c.in); got != c.want {
			t.Errorf("RenderScalar(%#v) = %q, want %q", c.in, got, c.want)
		}
	}
}
