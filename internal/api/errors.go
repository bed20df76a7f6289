package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError is a failure reported by the server: a non-2xx status or a body
// with "success": false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// newAPIError extracts the server's "error" string, falling back to the raw
// body when it is not JSON.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("status %d", status)
	}
	return &APIError{StatusCode: status, Message: msg}
}

// Message returns the user-facing text of err: the server-supplied message
// for an APIError, otherwise err.Error().
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
