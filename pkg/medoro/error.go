package medoro

import "fmt"

// Kind classifies every failure the client can surface. The set is
// stable: callers branch on it to decide whether retrying makes sense.
type Kind string

const (
	// KindValidation: an input (expiry, policy) was rejected before any
	// network or cryptographic call. Adjust the input and call again.
	KindValidation Kind = "validation"
	// KindSignature: the signing primitive failed (bad or missing key
	// material). A configuration problem, not retryable.
	KindSignature Kind = "signature_error"
	// KindNetwork: the transport failed (connection, timeout, DNS,
	// TLS). The caller may retry with backoff; the client never does.
	KindNetwork Kind = "network_error"
	// KindJSONParse: the response was not JSON or was malformed JSON
	// where JSON was expected. A server contract violation.
	KindJSONParse Kind = "json_parse_error"
	// KindEnvelope: the response parsed as JSON but does not match the
	// success/error envelope schema. A server contract violation.
	KindEnvelope Kind = "validation_error"
	// KindAPI: the server returned a non-success HTTP status without a
	// structured error body; the status is embedded as the code.
	KindAPI Kind = "api_error"
)

// Error is the uniform failure value returned across the public
// boundary. Context carries structured diagnostic data whose shape
// legitimately varies by kind, so it stays opaque.
type Error struct {
	Kind    Kind   `json:"kind"`
	ErrCode string `json:"code,omitempty"`
	Message string `json:"message"`
	Context any    `json:"context,omitempty"`
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) Code() string {
	return e.ErrCode
}

// Fmt creates a new error from the base error template with provided arguments
func (e Error) Fmt(args ...any) Error {
	return Error{
		Kind:    e.Kind,
		ErrCode: e.ErrCode,
		Message: fmt.Sprintf(e.Message, args...),
	}
}

// WithContext returns a copy of the error carrying diagnostic context.
func (e Error) WithContext(ctx any) Error {
	e.Context = ctx
	return e
}

func NewError(kind Kind, message string) Error {
	return Error{
		Kind:    kind,
		Message: message,
	}
}

// Base error templates.
var (
	ErrExpiryOutOfRange = NewError(KindValidation, "expiry %ds out of range [%d, %d] seconds")
	ErrPolicyInvalid    = NewError(KindValidation, "invalid policy: %s")
	ErrSigning          = NewError(KindSignature, "signing failed: %s")
	ErrNetwork          = NewError(KindNetwork, "request failed: %s")
	ErrNotJSON          = NewError(KindJSONParse, "expected JSON response, got content type %q")
	ErrMalformedJSON    = NewError(KindJSONParse, "malformed JSON response: %s")
	ErrEnvelopeSchema   = NewError(KindEnvelope, "response does not match the envelope schema")
	ErrUnexpectedStatus = NewError(KindAPI, "request failed with status code: %d")
)
