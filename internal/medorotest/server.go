// Package medorotest is an in-process double of the Medoro service for
// tests and examples. It verifies request signatures against a trusted
// key table, enforces the signed upload policy on PUT and answers with
// the wire envelope.
package medorotest

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	blake3util "github.com/medoro/medoro-go/internal/utils/blake3"
	"github.com/medoro/medoro-go/pkg/httpsig"
	"github.com/medoro/medoro-go/pkg/medoro"
	"github.com/medoro/medoro-go/pkg/policy"
	"github.com/medoro/medoro-go/pkg/response"
)

// TrustedKey is one entry of the bucket's trusted-key configuration:
// a key identifier bound to a base64 ed25519 public key.
type TrustedKey struct {
	KeyID     string `json:"keyId" validate:"required"`
	PublicKey string `json:"publicKey" validate:"required,base64"`
}

// TrustedKeys decodes a trusted-key configuration into the lookup
// table the server verifies against.
func TrustedKeys(keys ...TrustedKey) (map[string]ed25519.PublicKey, error) {
	table := make(map[string]ed25519.PublicKey, len(keys))
	for _, k := range keys {
		raw, err := base64.StdEncoding.DecodeString(k.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("decode public key for %q: %w", k.KeyID, err)
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("public key for %q has %d bytes, want %d", k.KeyID, len(raw), ed25519.PublicKeySize)
		}
		table[k.KeyID] = ed25519.PublicKey(raw)
	}
	return table, nil
}

type object struct {
	content       []byte
	contentType   string
	accessControl policy.AccessControl
}

// Server holds the trusted keys and an in-memory object table.
type Server struct {
	bucket string
	keys   map[string]ed25519.PublicKey
	now    func() time.Time

	mu      sync.RWMutex
	objects map[string]object
}

// Option customizes the server.
type Option func(*Server)

// WithBucket changes the bucket name echoed in store responses.
func WithBucket(name string) Option {
	return func(s *Server) { s.bucket = name }
}

// WithClock replaces the time source for expiry-window checks.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server trusting the given keys.
func New(keys map[string]ed25519.PublicKey, opts ...Option) *Server {
	s := &Server{
		bucket:  "test-bucket",
		keys:    keys,
		now:     time.Now,
		objects: make(map[string]object),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler, ready for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	e := echo.New()
	e.Use(middleware.Recover())

	e.PUT("/*", s.handleStore)
	e.GET("/*", s.handleFetch)
	e.DELETE("/*", s.handleRemove)

	return e
}

// Object returns a stored object's content for test assertions.
func (s *Server) Object(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.content, ok
}

// verify re-derives the signature base from the received URL and
// checks it against the trusted key the signature-input names.
func (s *Server) verify(c echo.Context) error {
	req := c.Request()
	q := req.URL.Query()

	sigInput := q.Get(medoro.ParamSignatureInput)
	sig := q.Get(medoro.ParamSignature)
	if sigInput == "" || sig == "" {
		return fmt.Errorf("missing signature parameters")
	}

	u := *req.URL
	u.Host = req.Host
	u.Scheme = "http"
	if req.TLS != nil {
		u.Scheme = "https"
	}

	resolve := func(keyID string) (ed25519.PublicKey, error) {
		pub, ok := s.keys[keyID]
		if !ok {
			return nil, fmt.Errorf("untrusted key")
		}
		return pub, nil
	}

	return httpsig.Verify(
		httpsig.Request{Method: req.Method, URL: &u, Headers: req.Header},
		sigInput, sig, resolve, s.now(),
	)
}

func (s *Server) handleStore(c echo.Context) error {
	if err := s.verify(c); err != nil {
		return c.JSON(http.StatusUnauthorized,
			response.Fail("401", "signature_error", err.Error(), nil))
	}

	encoded := c.Request().URL.Query().Get(medoro.ParamPolicy)
	if encoded == "" {
		return c.JSON(http.StatusBadRequest,
			response.Fail("400", "validation_error", "store requires a signed policy", nil))
	}
	pol, err := policy.Decode(encoded)
	if err != nil {
		return c.JSON(http.StatusBadRequest,
			response.Fail("400", "validation_error", err.Error(), nil))
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest,
			response.Fail("400", "api_error", "read body: "+err.Error(), nil))
	}

	if digest := c.Request().Header.Get(medoro.HeaderContentDigest); digest != "" {
		if got := blake3util.SumBytes(body); got != digest {
			return c.JSON(http.StatusBadRequest,
				response.Fail("400", "validation_error", "content digest mismatch", map[string]string{
					"declared": digest,
					"computed": got,
				}))
		}
	}

	key := c.Param("*")
	contentType := c.Request().Header.Get("Content-Type")
	if violations := evaluatePolicy(pol, key, contentType, body); len(violations) > 0 {
		return c.JSON(http.StatusForbidden,
			response.Fail("403", "api_error", "policy violation", violations))
	}

	s.mu.Lock()
	s.objects[key] = object{content: body, contentType: contentType, accessControl: pol.AccessControl}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, response.Ok(map[string]any{
		"key":           key,
		"bucket":        s.bucket,
		"accessControl": string(pol.AccessControl),
		"message":       "ok",
	}))
}

func (s *Server) handleFetch(c echo.Context) error {
	if err := s.verify(c); err != nil {
		return c.JSON(http.StatusUnauthorized,
			response.Fail("401", "signature_error", err.Error(), nil))
	}

	key := c.Param("*")
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return c.JSON(http.StatusNotFound,
			response.Fail("404", "api_error", "Not Found", nil))
	}

	contentType := obj.contentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Response().Header().Set("X-Medoro-Access-Control", string(obj.accessControl))
	return c.Blob(http.StatusOK, contentType, obj.content)
}

func (s *Server) handleRemove(c echo.Context) error {
	if err := s.verify(c); err != nil {
		return c.JSON(http.StatusUnauthorized,
			response.Fail("401", "signature_error", err.Error(), nil))
	}

	key := c.Param("*")
	s.mu.Lock()
	_, ok := s.objects[key]
	delete(s.objects, key)
	s.mu.Unlock()
	if !ok {
		return c.JSON(http.StatusNotFound,
			response.Fail("404", "api_error", "Not Found", nil))
	}

	return c.JSON(http.StatusOK, response.Ok(map[string]any{
		"key":     key,
		"message": "deleted",
	}))
}

// evaluatePolicy checks every named condition against the attributes
// of the upload. Unknown attribute names fail closed.
func evaluatePolicy(pol policy.Policy, key, contentType string, body []byte) []string {
	attrs := map[string]any{
		"key":           key,
		"contentType":   contentType,
		"contentLength": float64(len(body)),
	}

	var violations []string
	for name, cond := range pol.Conditions {
		value, ok := attrs[name]
		if !ok {
			violations = append(violations, fmt.Sprintf("unknown condition %q", name))
			continue
		}
		if !cond.Matches(value) {
			violations = append(violations, fmt.Sprintf("condition %q not satisfied", name))
		}
	}
	return violations
}
