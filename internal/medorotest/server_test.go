package medorotest

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/medoro/medoro-go/pkg/policy"
)

func TestTrustedKeys(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	t.Run("valid entry", func(t *testing.T) {
		table, err := TrustedKeys(TrustedKey{
			KeyID:     "k1",
			PublicKey: base64.StdEncoding.EncodeToString(pub),
		})
		if err != nil {
			t.Fatalf("trusted keys: %v", err)
		}
		if !table["k1"].Equal(pub) {
			t.Error("decoded key does not match")
		}
	})

	t.Run("bad base64", func(t *testing.T) {
		if _, err := TrustedKeys(TrustedKey{KeyID: "k1", PublicKey: "%%%"}); err == nil {
			t.Fatal("expected error for invalid base64")
		}
	})

	t.Run("wrong key size", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString([]byte("short"))
		if _, err := TrustedKeys(TrustedKey{KeyID: "k1", PublicKey: short}); err == nil {
			t.Fatal("expected error for truncated key")
		}
	})
}

func TestEvaluatePolicy(t *testing.T) {
	body := []byte("0123456789")

	t.Run("all conditions satisfied", func(t *testing.T) {
		pol := policy.New(policy.AccessPublic).
			With("contentLength", policy.Range(1, 100)).
			With("contentType", policy.String("text/plain")).
			With("key", policy.StartsWith("docs/"))

		if v := evaluatePolicy(pol, "docs/a.txt", "text/plain", body); len(v) != 0 {
			t.Errorf("unexpected violations: %v", v)
		}
	})

	t.Run("violated condition reported by name", func(t *testing.T) {
		pol := policy.New(policy.AccessPublic).With("contentLength", policy.LTE(5))
		v := evaluatePolicy(pol, "a", "text/plain", body)
		if len(v) != 1 {
			t.Fatalf("expected one violation, got %v", v)
		}
	})

	t.Run("unknown attribute fails closed", func(t *testing.T) {
		pol := policy.New(policy.AccessPublic).With("etag", policy.String("x"))
		if v := evaluatePolicy(pol, "a", "text/plain", body); len(v) != 1 {
			t.Fatalf("expected one violation, got %v", v)
		}
	})
}
