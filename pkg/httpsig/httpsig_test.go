package httpsig

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"
)

func testKeyPair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return pub, priv
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url %q: %v", raw, err)
	}
	return u
}

func derivedComponents() []Component {
	return []Component{
		{Identifier: ComponentMethod},
		{Identifier: ComponentScheme},
		{Identifier: ComponentAuthority},
		{Identifier: ComponentPath},
	}
}

func resolverFor(keyID string, pub ed25519.PublicKey) KeyResolver {
	return func(id string) (ed25519.PublicKey, error) {
		if id != keyID {
			return nil, fmt.Errorf("untrusted key")
		}
		return pub, nil
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	pub, priv := testKeyPair(t)
	now := time.Unix(1700000000, 0)

	req := Request{
		Method: "GET",
		URL:    mustURL(t, "https://bucket.medoro.dev/reports/2024.txt"),
	}
	params := Params{
		KeyID:     "k1",
		Algorithm: "ed25519",
		Created:   now,
		Expires:   now.Add(time.Minute),
	}

	result, err := Sign(req, derivedComponents(), "medoro", params, NewEd25519Signer(priv))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if !strings.HasPrefix(result.SignatureInput, "medoro=(") {
		t.Errorf("signature-input %q missing label", result.SignatureInput)
	}
	for _, want := range []string{`keyid="k1"`, `alg="ed25519"`, "created=1700000000", "expires=1700000060"} {
		if !strings.Contains(result.SignatureInput, want) {
			t.Errorf("signature-input %q missing %s", result.SignatureInput, want)
		}
	}

	err = Verify(req, result.SignatureInput, result.Signature, resolverFor("k1", pub), now.Add(30*time.Second))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestSignCoversQueryParam(t *testing.T) {
	pub, priv := testKeyPair(t)
	now := time.Unix(1700000000, 0)

	u := mustURL(t, "https://bucket.medoro.dev/a.txt?x-medoro-policy=eyJ9")
	components := append(derivedComponents(), QueryParam("x-medoro-policy"))
	params := Params{KeyID: "k1", Algorithm: "ed25519", Created: now, Expires: now.Add(time.Minute)}

	result, err := Sign(Request{Method: "PUT", URL: u}, components, "medoro", params, NewEd25519Signer(priv))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// The untouched URL verifies.
	if err := Verify(Request{Method: "PUT", URL: u}, result.SignatureInput, result.Signature, resolverFor("k1", pub), now); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// Mutating the covered parameter after signing must break the
	// signature.
	tampered := mustURL(t, "https://bucket.medoro.dev/a.txt?x-medoro-policy=eyJhIjoxfQ==")
	err = Verify(Request{Method: "PUT", URL: tampered}, result.SignatureInput, result.Signature, resolverFor("k1", pub), now)
	if err == nil {
		t.Fatal("expected verification to fail for a mutated policy parameter")
	}
}

func TestSignMissingQueryParam(t *testing.T) {
	_, priv := testKeyPair(t)
	u := mustURL(t, "https://bucket.medoro.dev/a.txt")

	_, err := Sign(
		Request{Method: "PUT", URL: u},
		[]Component{QueryParam("x-medoro-policy")},
		"medoro",
		Params{KeyID: "k1"},
		NewEd25519Signer(priv),
	)
	if err == nil {
		t.Fatal("expected error when the covered query parameter is absent")
	}
	if !strings.Contains(err.Error(), "x-medoro-policy") {
		t.Errorf("error %q should name the missing parameter", err)
	}
}

func TestSignCallbackFailure(t *testing.T) {
	failing := func([]byte) ([]byte, error) {
		return nil, fmt.Errorf("no key material")
	}
	_, err := Sign(
		Request{Method: "GET", URL: mustURL(t, "https://bucket.medoro.dev/a")},
		derivedComponents(), "medoro", Params{KeyID: "k1"}, failing,
	)
	if err == nil {
		t.Fatal("expected error from failing sign callback")
	}
	if !strings.Contains(err.Error(), "no key material") {
		t.Errorf("error %q should carry the callback failure", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	pub, priv := testKeyPair(t)
	now := time.Unix(1700000000, 0)

	req := Request{Method: "GET", URL: mustURL(t, "https://bucket.medoro.dev/a")}
	params := Params{KeyID: "k1", Algorithm: "ed25519", Created: now, Expires: now.Add(time.Minute)}

	result, err := Sign(req, derivedComponents(), "medoro", params, NewEd25519Signer(priv))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	err = Verify(req, result.SignatureInput, result.Signature, resolverFor("k1", pub), now.Add(2*time.Minute))
	if err == nil {
		t.Fatal("expected verification to fail after expiry")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Errorf("error %q should mention expiry", err)
	}
}

func TestVerifyUntrustedKey(t *testing.T) {
	pub, priv := testKeyPair(t)
	now := time.Unix(1700000000, 0)

	req := Request{Method: "GET", URL: mustURL(t, "https://bucket.medoro.dev/a")}
	params := Params{KeyID: "unknown", Algorithm: "ed25519", Created: now, Expires: now.Add(time.Minute)}

	result, err := Sign(req, derivedComponents(), "medoro", params, NewEd25519Signer(priv))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	err = Verify(req, result.SignatureInput, result.Signature, resolverFor("k1", pub), now)
	if err == nil {
		t.Fatal("expected verification to fail for an untrusted key id")
	}
}

func TestVerifyWrongMethod(t *testing.T) {
	pub, priv := testKeyPair(t)
	now := time.Unix(1700000000, 0)

	u := mustURL(t, "https://bucket.medoro.dev/a")
	params := Params{KeyID: "k1", Algorithm: "ed25519", Created: now, Expires: now.Add(time.Minute)}

	result, err := Sign(Request{Method: "GET", URL: u}, derivedComponents(), "medoro", params, NewEd25519Signer(priv))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	err = Verify(Request{Method: "DELETE", URL: u}, result.SignatureInput, result.Signature, resolverFor("k1", pub), now)
	if err == nil {
		t.Fatal("expected verification to fail for a different method")
	}
}
