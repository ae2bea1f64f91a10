package medoro

import (
	"mime"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/medoro/medoro-go/pkg/response"
	"github.com/medoro/medoro-go/pkg/validator"
)

// classify deterministically turns a raw HTTP body into the envelope's
// success payload or a typed error. The checks are ordered and
// non-overlapping; malformed input is never silently accepted, and the
// presence of a response, however malformed, counts as a completed
// exchange — nothing here retries.
func classify(status int, contentType string, body []byte) (any, error) {
	statusText := http.StatusText(status)

	// 1. Declared content type must be JSON on envelope endpoints.
	if contentType != "" && !isJSONContentType(contentType) {
		return nil, ErrNotJSON.Fmt(contentType).WithContext(map[string]any{
			"status":      status,
			"statusText":  statusText,
			"contentType": contentType,
			"body":        string(body),
		})
	}

	// 2. The body must parse as JSON; the parse failure message is
	// embedded, never swallowed.
	var raw any
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, ErrMalformedJSON.Fmt(err.Error()).WithContext(map[string]any{
			"status":     status,
			"statusText": statusText,
		})
	}

	// 3. The JSON must match the envelope schema. Violations and the
	// raw payload travel as context; a partially valid payload is
	// never coerced.
	var env response.Envelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return nil, ErrEnvelopeSchema.WithContext(map[string]any{
			"violations": []string{err.Error()},
			"payload":    raw,
		})
	}
	violations := env.Violations()
	if env.Error != nil {
		violations = append(violations, validator.Violations(env.Error)...)
	}
	if len(violations) > 0 {
		return nil, ErrEnvelopeSchema.WithContext(map[string]any{
			"violations": violations,
			"payload":    raw,
		})
	}

	// 4. Success: data is opaque at this boundary.
	if *env.Success {
		return env.Data, nil
	}

	// 5. Failure: surface the embedded error. The status text stands
	// in as context only when the server sent no structured detail.
	apiErr := env.Error
	var errCtx any = apiErr.Details
	if errCtx == nil {
		errCtx = statusText
	}
	return nil, Error{
		Kind:    Kind(apiErr.Type),
		ErrCode: apiErr.Code,
		Message: apiErr.Message,
		Context: errCtx,
	}
}

func isJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
