// Package httpsig builds the canonical signature base over selected
// message components and invokes a caller-supplied signing callback.
// It produces the signature-input / signature parameter pair carried
// on signed URLs, and verifies such pairs against a public key.
package httpsig

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Derived component identifiers.
const (
	ComponentMethod     = "@method"
	ComponentScheme     = "@scheme"
	ComponentAuthority  = "@authority"
	ComponentPath       = "@path"
	ComponentQueryParam = "@query-param"
)

// Component selects one message component for the signature base.
// Parameter is set only for @query-param and names the query parameter
// to cover.
type Component struct {
	Identifier string
	Parameter  string
}

// QueryParam covers one query parameter of the request URL.
func QueryParam(name string) Component {
	return Component{Identifier: ComponentQueryParam, Parameter: name}
}

// Params are the signature metadata bound into the signature base.
type Params struct {
	KeyID     string
	Algorithm string
	Created   time.Time
	Expires   time.Time
}

// Request is the message surface the components are resolved against.
type Request struct {
	Method  string
	URL     *url.URL
	Headers http.Header
}

// SignFunc signs the canonical signature base. The callback owns the
// key material; this package never sees it.
type SignFunc func(base []byte) ([]byte, error)

// Result carries the two signature parameters in wire form.
type Result struct {
	SignatureInput string
	Signature      string
}

// NewEd25519Signer adapts an ed25519 private key to a SignFunc.
func NewEd25519Signer(key ed25519.PrivateKey) SignFunc {
	return func(base []byte) ([]byte, error) {
		if len(key) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("ed25519 private key has %d bytes, want %d", len(key), ed25519.PrivateKeySize)
		}
		return ed25519.Sign(key, base), nil
	}
}

// Sign resolves the components against the request, assembles the
// signature base, signs it and returns the signature-input metadata
// string and the signature value under the given label.
func Sign(req Request, components []Component, label string, params Params, sign SignFunc) (Result, error) {
	if sign == nil {
		return Result{}, fmt.Errorf("sign callback is required")
	}

	base, paramsLine, err := signatureBase(req, components, params)
	if err != nil {
		return Result{}, err
	}

	raw, err := sign(base)
	if err != nil {
		return Result{}, fmt.Errorf("sign signature base: %w", err)
	}

	return Result{
		SignatureInput: fmt.Sprintf("%s=%s", label, paramsLine),
		Signature:      fmt.Sprintf("%s=:%s:", label, base64.StdEncoding.EncodeToString(raw)),
	}, nil
}

// KeyResolver maps a keyid signature parameter to the public key it
// names, or fails for untrusted keys.
type KeyResolver func(keyID string) (ed25519.PublicKey, error)

// Verify re-derives the signature base from the request and checks the
// signature against the key the signature-input names. The expiry
// window is checked against now.
func Verify(req Request, sigInput, signature string, resolve KeyResolver, now time.Time) error {
	label, components, params, err := parseSignatureInput(sigInput)
	if err != nil {
		return err
	}

	pub, err := resolve(params.KeyID)
	if err != nil {
		return fmt.Errorf("resolve key %q: %w", params.KeyID, err)
	}

	sigLabel, rawSig, err := parseSignature(signature)
	if err != nil {
		return err
	}
	if sigLabel != label {
		return fmt.Errorf("signature label %q does not match signature-input label %q", sigLabel, label)
	}

	if !params.Expires.IsZero() && now.After(params.Expires) {
		return fmt.Errorf("signature expired at %s", params.Expires.UTC().Format(time.RFC3339))
	}
	if !params.Created.IsZero() && now.Before(params.Created.Add(-time.Minute)) {
		return fmt.Errorf("signature created in the future")
	}

	base, _, err := signatureBase(req, components, params)
	if err != nil {
		return err
	}

	if !ed25519.Verify(pub, base, rawSig) {
		return fmt.Errorf("signature verification failed")
	}
	return nil
}

// signatureBase builds the canonical byte string to sign: one line per
// resolved component, terminated by the @signature-params line. It also
// returns the serialized parameters line reused in signature-input.
func signatureBase(req Request, components []Component, params Params) ([]byte, string, error) {
	if req.URL == nil {
		return nil, "", fmt.Errorf("request URL is required")
	}

	var b strings.Builder
	identifiers := make([]string, 0, len(components))
	for _, c := range components {
		id, value, err := resolveComponent(req, c)
		if err != nil {
			return nil, "", err
		}
		identifiers = append(identifiers, id)
		fmt.Fprintf(&b, "%s: %s\n", id, value)
	}

	paramsLine := serializeParams(identifiers, params)
	fmt.Fprintf(&b, `"@signature-params": %s`, paramsLine)

	return []byte(b.String()), paramsLine, nil
}

func resolveComponent(req Request, c Component) (id, value string, err error) {
	switch c.Identifier {
	case ComponentMethod:
		return `"@method"`, strings.ToUpper(req.Method), nil
	case ComponentScheme:
		return `"@scheme"`, req.URL.Scheme, nil
	case ComponentAuthority:
		return `"@authority"`, req.URL.Host, nil
	case ComponentPath:
		path := req.URL.EscapedPath()
		if path == "" {
			path = "/"
		}
		return `"@path"`, path, nil
	case ComponentQueryParam:
		values, ok := req.URL.Query()[c.Parameter]
		if !ok || len(values) == 0 {
			return "", "", fmt.Errorf("query parameter %q not present on request", c.Parameter)
		}
		id := fmt.Sprintf(`"@query-param";name=%q`, c.Parameter)
		return id, values[0], nil
	default:
		// Plain field name: covered from the header set, lowercase
		// per the canonicalization rules.
		name := strings.ToLower(c.Identifier)
		if req.Headers == nil {
			return "", "", fmt.Errorf("header %q not present on request", name)
		}
		v := req.Headers.Get(name)
		if v == "" {
			return "", "", fmt.Errorf("header %q not present on request", name)
		}
		return strconv.Quote(name), strings.TrimSpace(v), nil
	}
}

func serializeParams(identifiers []string, params Params) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(strings.Join(identifiers, " "))
	b.WriteString(")")
	if !params.Created.IsZero() {
		fmt.Fprintf(&b, ";created=%d", params.Created.Unix())
	}
	if !params.Expires.IsZero() {
		fmt.Fprintf(&b, ";expires=%d", params.Expires.Unix())
	}
	if params.KeyID != "" {
		fmt.Fprintf(&b, ";keyid=%q", params.KeyID)
	}
	if params.Algorithm != "" {
		fmt.Fprintf(&b, ";alg=%q", params.Algorithm)
	}
	return b.String()
}

// parseSignatureInput parses `label=("@method" ...);created=...;...`
// back into the component list and parameters.
func parseSignatureInput(s string) (label string, components []Component, params Params, err error) {
	label, rest, ok := strings.Cut(s, "=")
	if !ok || label == "" {
		return "", nil, Params{}, fmt.Errorf("malformed signature-input %q", s)
	}

	if !strings.HasPrefix(rest, "(") {
		return "", nil, Params{}, fmt.Errorf("signature-input missing component list")
	}
	end := strings.Index(rest, ")")
	if end < 0 {
		return "", nil, Params{}, fmt.Errorf("signature-input component list not terminated")
	}

	list := rest[1:end]
	for _, item := range strings.Fields(list) {
		c, perr := parseComponentIdentifier(item)
		if perr != nil {
			return "", nil, Params{}, perr
		}
		components = append(components, c)
	}

	for _, kv := range strings.Split(rest[end+1:], ";") {
		if kv == "" {
			continue
		}
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return "", nil, Params{}, fmt.Errorf("malformed signature parameter %q", kv)
		}
		switch key {
		case "created", "expires":
			n, perr := strconv.ParseInt(value, 10, 64)
			if perr != nil {
				return "", nil, Params{}, fmt.Errorf("parse %s: %w", key, perr)
			}
			if key == "created" {
				params.Created = time.Unix(n, 0)
			} else {
				params.Expires = time.Unix(n, 0)
			}
		case "keyid":
			params.KeyID = strings.Trim(value, `"`)
		case "alg":
			params.Algorithm = strings.Trim(value, `"`)
		}
	}

	return label, components, params, nil
}

func parseComponentIdentifier(item string) (Component, error) {
	name, param, hasParam := strings.Cut(item, ";")
	name = strings.Trim(name, `"`)
	if !hasParam {
		return Component{Identifier: name}, nil
	}
	value, ok := strings.CutPrefix(param, "name=")
	if !ok {
		return Component{}, fmt.Errorf("unsupported component parameter %q", param)
	}
	return Component{Identifier: name, Parameter: strings.Trim(value, `"`)}, nil
}

func parseSignature(s string) (label string, sig []byte, err error) {
	label, rest, ok := strings.Cut(s, "=")
	if !ok || label == "" {
		return "", nil, fmt.Errorf("malformed signature %q", s)
	}
	if len(rest) < 2 || rest[0] != ':' || rest[len(rest)-1] != ':' {
		return "", nil, fmt.Errorf("signature value must be colon-delimited base64")
	}
	raw, err := base64.StdEncoding.DecodeString(rest[1 : len(rest)-1])
	if err != nil {
		return "", nil, fmt.Errorf("decode signature base64: %w", err)
	}
	return label, raw, nil
}
