package medoro

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	blake3util "github.com/medoro/medoro-go/internal/utils/blake3"
	"github.com/medoro/medoro-go/pkg/policy"
)

// Request headers set by the dispatcher.
const (
	HeaderRequestID     = "X-Medoro-Request-Id"
	HeaderContentDigest = "X-Medoro-Content-Digest"
)

// FetchResult is the raw response of a successful fetch: headers plus
// a streamable body the caller consumes and closes.
type FetchResult struct {
	StatusCode int
	Headers    http.Header
	Body       io.ReadCloser
}

// Result is the typed outcome of one dispatched command. Data carries
// the envelope payload for store and remove; Fetch carries the raw
// response for successful fetches.
type Result struct {
	Data  any
	Fetch *FetchResult
}

// Send signs the command with the default expiry, performs exactly one
// HTTP exchange and classifies the response. Signing strictly precedes
// dispatch, dispatch strictly precedes classification; a failure at any
// phase short-circuits the rest. No phase retries.
func (c *Client) Send(ctx context.Context, cmd Command) (*Result, error) {
	signed, err := c.CreateSignedURL(cmd, 0)
	if err != nil {
		return nil, err
	}

	req, err := c.buildRequest(ctx, cmd, signed)
	if err != nil {
		return nil, ErrNetwork.Fmt(err.Error())
	}

	c.debugf("dispatching", "op", cmd.op, "method", signed.Method, "key", cmd.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ErrNetwork.Fmt(err.Error())
	}

	if cmd.op == OpFetch {
		return c.finishFetch(resp)
	}
	return c.finishEnvelope(resp)
}

// Store uploads content under key constrained by the policy and
// returns the envelope data.
func (c *Client) Store(ctx context.Context, key string, content []byte, pol policy.Policy) (any, error) {
	cmd, err := NewStore(key, content, pol)
	if err != nil {
		return nil, err
	}
	res, err := c.Send(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// Fetch downloads the object under key. The caller consumes and closes
// the returned body.
func (c *Client) Fetch(ctx context.Context, key string) (*FetchResult, error) {
	res, err := c.Send(ctx, NewFetch(key))
	if err != nil {
		return nil, err
	}
	return res.Fetch, nil
}

// Remove deletes the object under key and returns the envelope data.
func (c *Client) Remove(ctx context.Context, key string) (any, error) {
	res, err := c.Send(ctx, NewRemove(key))
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) buildRequest(ctx context.Context, cmd Command, signed SignedRequest) (*http.Request, error) {
	var body io.Reader
	if cmd.op == OpStore {
		body = bytes.NewReader(cmd.content)
	}

	req, err := http.NewRequestWithContext(ctx, signed.Method, signed.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for name, values := range signed.Headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())

	if cmd.op == OpStore {
		digest, err := blake3util.Compute(bytes.NewReader(cmd.content))
		if err != nil {
			return nil, fmt.Errorf("compute content digest: %w", err)
		}
		req.Header.Set(HeaderContentDigest, digest)
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/octet-stream")
		}
		req.ContentLength = int64(len(cmd.content))
	}

	return req, nil
}

// finishFetch returns the raw response on success; on a non-success
// status the body is parsed as the error envelope, and the parse
// failure itself is returned when that parse fails.
func (c *Client) finishFetch(resp *http.Response) (*Result, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Result{Fetch: &FetchResult{
			StatusCode: resp.StatusCode,
			Headers:    resp.Header,
			Body:       resp.Body,
		}}, nil
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrNetwork.Fmt(err.Error())
	}

	if _, cerr := classify(resp.StatusCode, resp.Header.Get("Content-Type"), body); cerr != nil {
		return nil, cerr
	}
	// A non-success status wrapped in a success envelope carries no
	// structured error to surface; embed the status as the code.
	return nil, statusError(resp.StatusCode)
}

// finishEnvelope always classifies the body, regardless of status.
func (c *Client) finishEnvelope(resp *http.Response) (*Result, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrNetwork.Fmt(err.Error())
	}

	data, cerr := classify(resp.StatusCode, resp.Header.Get("Content-Type"), body)
	if cerr != nil {
		return nil, cerr
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, statusError(resp.StatusCode)
	}
	return &Result{Data: data}, nil
}

func statusError(status int) Error {
	e := ErrUnexpectedStatus.Fmt(status)
	e.ErrCode = fmt.Sprintf("%d", status)
	return e
}
