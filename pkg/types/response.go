// Package types holds the wire-level envelope shapes every API response
// uses, so handlers and clients agree on one payload layout.
package types

// SuccessEnvelope wraps a successful payload under the data key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a failure: a stable machine-readable code,
// a human-readable message, and optional structured details.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under the error key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
