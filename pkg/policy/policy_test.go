package policy

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := New(AccessPrivate).
		With("contentLength", LTE(1024)).
		With("contentType", StartsWith("image/")).
		With("key", EndsWith(".png"))

	encoded, err := p.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.AccessControl != AccessPrivate {
		t.Errorf("access control: got %q, want %q", decoded.AccessControl, AccessPrivate)
	}
	if len(decoded.Conditions) != 3 {
		t.Fatalf("expected 3 conditions, got %d", len(decoded.Conditions))
	}
	if !decoded.Conditions["contentLength"].Matches(float64(512)) {
		t.Error("decoded contentLength condition should accept 512")
	}
	if decoded.Conditions["contentLength"].Matches(float64(2048)) {
		t.Error("decoded contentLength condition should reject 2048")
	}
	if !decoded.Conditions["contentType"].Matches("image/png") {
		t.Error("decoded contentType condition should accept image/png")
	}
	if !decoded.Conditions["key"].Matches("photos/cat.png") {
		t.Error("decoded key condition should accept photos/cat.png")
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	// The encoded form is part of the signed surface, so building the
	// same policy twice must produce identical bytes.
	build := func() Policy {
		return New(AccessPublic).
			With("b", GTE(1)).
			With("a", String("x")).
			With("c", OneOf("s", float64(3)))
	}

	first, err := build().Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := build().Encode()
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if again != first {
			t.Fatalf("encoding not deterministic:\n%s\n%s", first, again)
		}
	}
}

func TestEncodeWireShape(t *testing.T) {
	p := New(AccessPublic).With("contentLength", Range(10, 100))

	encoded, err := p.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}

	json := string(raw)
	for _, want := range []string{
		`"accessControl":"public"`,
		`"contentLength":{"range":[10,100]}`,
	} {
		if !strings.Contains(json, want) {
			t.Errorf("encoded policy %s missing %s", json, want)
		}
	}
}

func TestWithDoesNotMutate(t *testing.T) {
	base := New(AccessPublic).With("a", String("x"))
	extended := base.With("b", Number(1))

	if len(base.Conditions) != 1 {
		t.Errorf("base policy mutated: %d conditions", len(base.Conditions))
	}
	if len(extended.Conditions) != 2 {
		t.Errorf("extended policy has %d conditions, want 2", len(extended.Conditions))
	}
}

func TestZeroConditionFailsToMarshal(t *testing.T) {
	p := New(AccessPublic).With("broken", Condition{})
	if _, err := p.Encode(); err == nil {
		t.Fatal("expected encode to fail for a condition with no shape")
	}
}

func TestConditionMatches(t *testing.T) {
	tests := []struct {
		name  string
		cond  Condition
		value any
		want  bool
	}{
		{"string literal match", String("text/plain"), "text/plain", true},
		{"string literal mismatch", String("text/plain"), "text/html", false},
		{"number literal match", Number(42), float64(42), true},
		{"literal type mismatch", String("42"), float64(42), false},
		{"startsWith match", StartsWith("image/"), "image/png", true},
		{"startsWith mismatch", StartsWith("image/"), "video/mp4", false},
		{"startsWith on number", StartsWith("image/"), float64(1), false},
		{"endsWith match", EndsWith(".txt"), "a/b.txt", true},
		{"lte boundary", LTE(10), float64(10), true},
		{"lte above", LTE(10), float64(11), false},
		{"gte boundary", GTE(10), float64(10), true},
		{"gte below", GTE(10), float64(9), false},
		{"oneOf string member", OneOf("a", "b"), "b", true},
		{"oneOf number member", OneOf(float64(1), float64(2)), float64(2), true},
		{"oneOf non-member", OneOf("a", "b"), "c", false},
		{"range inside", Range(1, 10), float64(5), true},
		{"range closed endpoints", Range(1, 10), float64(10), true},
		{"range outside", Range(1, 10), float64(11), false},
		{"inverted range matches nothing", Range(10, 1), float64(5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cond.Matches(tt.value); got != tt.want {
				t.Errorf("Matches(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestConditionUnmarshalRejectsUnknownShape(t *testing.T) {
	var c Condition
	if err := c.UnmarshalJSON([]byte(`{"between":[1,2]}`)); err == nil {
		t.Fatal("expected error for unknown condition shape")
	}
	if err := c.UnmarshalJSON([]byte(`{"lte":1,"gte":0}`)); err == nil {
		t.Fatal("expected error for multi-key condition object")
	}
}
