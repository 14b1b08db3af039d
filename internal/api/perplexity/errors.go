package perplexity

import (
	"encoding/json"
	"fmt"
)

// APIError is a structured error returned by the Perplexity API.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("perplexity API error (status %d, %s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("perplexity API error (status %d): %s", e.StatusCode, e.Message)
}

// errorEnvelope matches the OpenAI-style {"error": {...}} wrapper.
type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// ParseErrorResponse extracts an APIError from a non-2xx response body.
// Returns nil if the body does not carry a recognizable error object.
func ParseErrorResponse(statusCode int, body []byte) *APIError {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		envelope.Error.StatusCode = statusCode
		return envelope.Error
	}

	var direct APIError
	if err := json.Unmarshal(body, &direct); err == nil && direct.Message != "" {
		direct.StatusCode = statusCode
		return &direct
	}

	return nil
}
