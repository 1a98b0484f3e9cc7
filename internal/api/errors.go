package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// APIError is the error type for every failed control-plane call.
type APIError struct {
	StatusCode int
	Message    string
	// Body is the raw error response body, for callers that display it
	// verbatim instead of the extracted message.
	Body []byte
	// Original error for debugging, not shown to the operator.
	Err error
}

// RawDetail returns the response body text, falling back to the status text
// when the body is empty.
func (e *APIError) RawDetail() string {
	if s := strings.TrimSpace(string(e.Body)); s != "" {
		return s
	}
	if e.StatusCode != 0 {
		return http.StatusText(e.StatusCode)
	}
	return e.Message
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("control plane returned %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is an APIError carrying HTTP 401.
// The session manager uses this to force a logout on profile refresh.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// NewTransportError wraps a transport-level failure (no HTTP status received).
func NewTransportError(msg string, err error) *APIError {
	return &APIError{Message: msg, Err: err}
}

// ParseAPIError turns a non-2xx response into an APIError, extracting the most
// specific message the control plane's error envelope offers.
func ParseAPIError(statusCode int, body []byte) *APIError {
	msg := ErrorMessage(body)
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	return &APIError{StatusCode: statusCode, Message: msg, Body: body}
}

// errorMessagePaths are probed in order against an error response body.
// Mirrors the envelope variations the control plane handlers produce.
var errorMessagePaths = []string{"error.error", "error", "data.error", "message"}

// ErrorMessage extracts a human-readable message from an error response body.
// Returns "" when the body holds nothing usable.
func ErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if gjson.ValidBytes(body) {
		for _, path := range errorMessagePaths {
			if v := gjson.GetBytes(body, path); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
				return strings.TrimSpace(v.Str)
			}
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" && !strings.HasPrefix(s, "{") {
		return s
	}
	return ""
}
