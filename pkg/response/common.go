// Package response defines the JSON envelope every Medoro API response
// is expected to conform to.
package response

// Envelope is the wire contract: a discriminated union keyed on the
// boolean "success" field.
//
//	Success: { "success": true,  "data": <any> }
//	Failure: { "success": false, "error": { code, type, message, details? } }
//
// Success is a pointer so a missing discriminant is distinguishable
// from an explicit false.
type Envelope struct {
	Success *bool     `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError is the structured error body the service returns.
type APIError struct {
	Code    string `json:"code" validate:"required"`
	Type    string `json:"type" validate:"required"`
	Message string `json:"message" validate:"required"`
	Details any    `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return e.Message
}

// Violations checks the union shape and reports every problem, one
// string each. The field-level constraints on APIError are left to the
// validator; this covers what tags cannot express.
func (e Envelope) Violations() []string {
	if e.Success == nil {
		return []string{`missing required field "success"`}
	}
	var violations []string
	if *e.Success {
		if e.Error != nil {
			violations = append(violations, `"error" must be absent when success is true`)
		}
	} else if e.Error == nil {
		violations = append(violations, `missing required field "error" when success is false`)
	}
	return violations
}

// Ok wraps a success payload.
func Ok(data any) Envelope {
	success := true
	return Envelope{Success: &success, Data: data}
}

// Fail wraps a structured error.
func Fail(code, errType, message string, details any) Envelope {
	success := false
	return Envelope{Success: &success, Error: &APIError{
		Code:    code,
		Type:    errType,
		Message: message,
		Details: details,
	}}
}
