// Package medoro is the client for the Medoro object-storage service.
// Callers construct a command (store, fetch or remove), the client
// authenticates it with a time-bounded ed25519 signature over selected
// request components and dispatches it, returning a uniformly typed
// success or error result.
package medoro

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/medoro/medoro-go/config"
	"github.com/medoro/medoro-go/pkg/httpsig"
)

// Client is the Medoro SDK client. It holds only long-lived, read-only
// credential material; every call is self-contained, so one client is
// safe for concurrent use.
type Client struct {
	origin        *url.URL
	keyID         string
	sign          httpsig.SignFunc
	httpClient    *http.Client
	defaultExpiry time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithDefaultExpiry sets the expiry Send and CreateSignedURL use when
// the caller passes zero. It is validated on first use like any other
// expiry.
func WithDefaultExpiry(d time.Duration) Option {
	return func(c *Client) { c.defaultExpiry = d }
}

// WithClock replaces the time source used for the created/expires
// signing parameters.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger enables debug traces of the sign and dispatch phases.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the service at origin, signing as
// keyID with the given callback.
// origin is the bucket base URL, e.g. "https://bucket.medoro.dev".
func NewClient(origin, keyID string, sign httpsig.SignFunc, opts ...Option) (*Client, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("origin %q must be an absolute URL", origin)
	}
	if keyID == "" {
		return nil, fmt.Errorf("key id is required")
	}
	if sign == nil {
		return nil, fmt.Errorf("sign callback is required")
	}

	c := &Client{
		origin: u,
		keyID:  keyID,
		sign:   sign,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		defaultExpiry: DefaultExpiry,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewClientFromConfig builds a client from the loaded configuration.
// The configured private key is the base64 of an ed25519 seed or of a
// full private key.
func NewClientFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	key, err := parsePrivateKey(cfg.Client.PrivateKey)
	if err != nil {
		return nil, err
	}

	if cfg.Client.DefaultExpiry > 0 {
		opts = append([]Option{
			WithDefaultExpiry(time.Duration(cfg.Client.DefaultExpiry) * time.Second),
		}, opts...)
	}
	if cfg.Client.Timeout > 0 {
		opts = append([]Option{
			WithHTTPClient(&http.Client{Timeout: cfg.Client.Timeout}),
		}, opts...)
	}

	return NewClient(cfg.Client.Origin, cfg.Client.KeyID, httpsig.NewEd25519Signer(key), opts...)
}

func parsePrivateKey(encoded string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("private key has %d bytes, want a %d-byte seed or %d-byte key",
			len(raw), ed25519.SeedSize, ed25519.PrivateKeySize)
	}
}

func (c *Client) debugf(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
