// Package core provides the shared types, interfaces and errors of the
// streaming chat client.
package core

import (
	"fmt"
	"net/http"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeProfileMissing indicates that no profile is configured or selected
	ErrorTypeProfileMissing ErrorType = "profile_missing"
	// ErrorTypeInvalidProfile indicates a profile that cannot be used (e.g. empty base URL)
	ErrorTypeInvalidProfile ErrorType = "invalid_profile"
	// ErrorTypeHeaderEncoding indicates a credential that is not a valid HTTP header value
	ErrorTypeHeaderEncoding ErrorType = "header_encoding_error"
	// ErrorTypeRequestFailure indicates a transport-level send failure (DNS, connect, ...)
	ErrorTypeRequestFailure ErrorType = "request_failure"
	// ErrorTypeAPI indicates a non-2xx response from the provider
	ErrorTypeAPI ErrorType = "api_error"
	// ErrorTypeStream indicates a read failure after streaming started
	ErrorTypeStream ErrorType = "stream_error"
	// ErrorTypeDecode indicates a non-streaming response body that is not valid JSON
	ErrorTypeDecode ErrorType = "decode_error"
)

// Error is the error type returned by every operation of the client.
type Error struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	// Body is the raw provider response body of an API error.
	Body string `json:"-"`
	// Partial is the text accumulated before a stream error.
	Partial string `json:"-"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the status code the local HTTP API answers with for this error.
func (e *Error) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeProfileMissing:
		return http.StatusNotFound
	case ErrorTypeInvalidProfile, ErrorTypeHeaderEncoding:
		return http.StatusBadRequest
	case ErrorTypeAPI:
		if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden ||
			e.StatusCode == http.StatusTooManyRequests {
			return e.StatusCode
		}
		return http.StatusBadGateway
	case ErrorTypeRequestFailure, ErrorTypeStream, ErrorTypeDecode:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map
func (e *Error) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// NewProfileMissingError reports that no profile could be resolved.
func NewProfileMissingError(name string) *Error {
	msg := "no active LLM profile"
	if name != "" {
		msg = fmt.Sprintf("LLM profile %q not found", name)
	}
	return &Error{Type: ErrorTypeProfileMissing, Message: msg}
}

// NewInvalidProfileError reports a profile that fails validation.
func NewInvalidProfileError(message string) *Error {
	return &Error{Type: ErrorTypeInvalidProfile, Message: message}
}

// NewHeaderEncodingError reports a header value that cannot be sent.
func NewHeaderEncodingError(header string, err error) *Error {
	return &Error{
		Type:    ErrorTypeHeaderEncoding,
		Message: "invalid characters in " + header + " header value",
		Err:     err,
	}
}

// NewRequestFailureError reports a failure to send the request.
func NewRequestFailureError(provider string, err error) *Error {
	return &Error{
		Type:     ErrorTypeRequestFailure,
		Message:  "request failed: " + err.Error(),
		Provider: provider,
		Err:      err,
	}
}

// NewAPIError reports a non-2xx provider response together with its body.
func NewAPIError(provider string, statusCode int, body []byte) *Error {
	return &Error{
		Type:       ErrorTypeAPI,
		Message:    fmt.Sprintf("API error %d %s: %s", statusCode, http.StatusText(statusCode), body),
		StatusCode: statusCode,
		Provider:   provider,
		Body:       string(body),
	}
}

// NewStreamError reports a read failure in the middle of a stream.
// partial is the text accumulated up to the failure.
func NewStreamError(provider string, partial string, err error) *Error {
	return &Error{
		Type:     ErrorTypeStream,
		Message:  "stream error: " + err.Error(),
		Provider: provider,
		Partial:  partial,
		Err:      err,
	}
}

// NewDecodeError reports a response body that could not be parsed.
func NewDecodeError(provider string, message string) *Error {
	return &Error{
		Type:     ErrorTypeDecode,
		Message:  message,
		Provider: provider,
	}
}
