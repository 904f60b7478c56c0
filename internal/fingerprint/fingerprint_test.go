package fingerprint

import "testing"

func TestOfIsDeterministic(t *testing.T) {
	a := Of([]byte("def f(x): return x*2"))
	b := Of([]byte("def f(x): return x*2"))
	if a != b {
		t.Fatalf("expected equal fingerprints, got %s vs %s", a, b)
	}
}

func TestOfDistinguishesContent(t *testing.T) {
	a := Of([]byte("hello"))
	b := Of([]byte("world"))
	if a == b {
		t.Fatalf("expected different fingerprints for different content")
	}
}

func TestQuickHashDeterministic(t *testing.T) {
	a := QuickHashOf([]byte("same"))
	b := QuickHashOf([]byte("same"))
	if a != b {
		t.Fatalf("expected equal quick hashes")
	}
}

func TestEmpty(t *testing.T) {
	var fp Fingerprint
	if !fp.Empty() {
		t.Fatalf("zero value fingerprint should be Empty")
	}
	if Of(nil).Empty() {
		t.Fatalf("a computed fingerprint, even of nil input, is never Empty")
	}
}
