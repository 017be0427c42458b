// Package types defines the JSON envelopes every API response uses.
package types

// SuccessEnvelope wraps successful payloads under a "data" key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error body. Details carries structured
// context such as validation field errors or credit shortfall amounts.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps APIError under an "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
