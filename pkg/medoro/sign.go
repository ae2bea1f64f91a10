package medoro

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/medoro/medoro-go/pkg/httpsig"
)

// Signed URL query parameters. Once set they are never reordered: the
// policy parameter is part of the signed surface, the signature pair is
// appended after signing.
const (
	ParamPolicy         = "x-medoro-policy"
	ParamSignatureInput = "x-medoro-signature-input"
	ParamSignature      = "x-medoro-signature"
)

// SignatureLabel identifies the signature on the URL.
const SignatureLabel = "medoro"

const algorithmEd25519 = "ed25519"

// Expiry bounds for signed URLs.
const (
	DefaultExpiry = 60 * time.Second
	MinExpiry     = 10 * time.Second
	MaxExpiry     = 604800 * time.Second
)

// SignedRequest is a signed, time-bounded request descriptor. It is
// transient: built by CreateSignedURL, consumed by one dispatch and
// then discarded.
type SignedRequest struct {
	URL     string
	Method  string
	Headers http.Header
}

// CreateSignedURL produces a signed URL for the command, valid for the
// given expiry (zero means the client default). The command is never
// mutated; all signing state is local to this call.
//
// The pipeline has three strictly ordered phases: assemble the URL
// (including the policy parameter for store commands, which must be on
// the URL before the signature is computed), sign, then append the
// signature parameters.
func (c *Client) CreateSignedURL(cmd Command, expiry time.Duration) (SignedRequest, error) {
	if expiry == 0 {
		expiry = c.defaultExpiry
	}
	if expiry < MinExpiry || expiry > MaxExpiry {
		return SignedRequest{}, ErrExpiryOutOfRange.Fmt(
			int64(expiry/time.Second), int64(MinExpiry/time.Second), int64(MaxExpiry/time.Second))
	}

	// Phase 1: assemble. Resolve the key against the origin and, for
	// store commands, bind the policy into the signed surface.
	u := c.origin.ResolveReference(&url.URL{Path: "/" + strings.TrimPrefix(cmd.key, "/")})

	components := []httpsig.Component{
		{Identifier: httpsig.ComponentMethod},
		{Identifier: httpsig.ComponentScheme},
		{Identifier: httpsig.ComponentAuthority},
		{Identifier: httpsig.ComponentPath},
	}
	if cmd.policy != nil {
		encoded, err := cmd.policy.Encode()
		if err != nil {
			return SignedRequest{}, ErrPolicyInvalid.Fmt(err.Error())
		}
		q := u.Query()
		q.Set(ParamPolicy, encoded)
		u.RawQuery = q.Encode()
		components = append(components, httpsig.QueryParam(ParamPolicy))
	}

	// Phase 2: sign.
	now := c.now()
	result, err := httpsig.Sign(
		httpsig.Request{Method: cmd.method, URL: u, Headers: cmd.headers},
		components,
		SignatureLabel,
		httpsig.Params{
			KeyID:     c.keyID,
			Algorithm: algorithmEd25519,
			Created:   now,
			Expires:   now.Add(expiry),
		},
		c.sign,
	)
	if err != nil {
		return SignedRequest{}, ErrSigning.Fmt(err.Error())
	}

	// Phase 3: append the signature parameters.
	q := u.Query()
	q.Set(ParamSignatureInput, result.SignatureInput)
	q.Set(ParamSignature, result.Signature)
	u.RawQuery = q.Encode()

	c.debugf("signed url created", "op", cmd.op, "key", cmd.key, "expires", now.Add(expiry))

	return SignedRequest{
		URL:     u.String(),
		Method:  cmd.method,
		Headers: cmd.Headers(),
	}, nil
}
