// Package types holds the JSON envelopes every API response is wrapped in.
package types

// SuccessEnvelope wraps a successful payload as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public view of a failure. Retryable tells clients whether
// repeating the same request (with the same idempotency key, where one is
// required) may succeed.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	RequestID string `json:"request_id,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps a failure as {"error": ...}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
