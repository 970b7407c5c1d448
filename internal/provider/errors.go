// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the HTTP transport to the playground backend.
package provider

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// APIError represents a non-2xx response from the backend. The message is
// extracted from the response body when present, otherwise a generic string
// keyed on the status code.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return "api error (HTTP " + strconv.Itoa(e.Status) + "): " + e.Message
}

// IsAPIError extracts an *APIError from an error chain.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// newAPIError builds an APIError from a status code and raw body.
func newAPIError(status int, body []byte) *APIError {
	if msg := extractErrorMessage(body); msg != "" {
		return &APIError{Status: status, Message: msg}
	}
	return &APIError{Status: status, Message: genericMessage(status)}
}

// extractErrorMessage pulls a human-readable message out of an error body.
// The backend proxies several upstreams, so the message may appear as
// {"message": ...}, {"error": "..."} or {"error": {"message": ...}}.
func extractErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var withMessage struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &withMessage); err == nil && withMessage.Message != "" {
		return withMessage.Message
	}

	var withErrorString struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &withErrorString); err == nil && withErrorString.Error != "" {
		return withErrorString.Error
	}

	var withErrorObject struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &withErrorObject); err == nil && withErrorObject.Error.Message != "" {
		return withErrorObject.Error.Message
	}

	return ""
}

// genericMessage returns a fallback message for a status code.
func genericMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "authentication failed"
	case http.StatusForbidden:
		return "access denied"
	case http.StatusNotFound:
		return "model or endpoint not found"
	case http.StatusTooManyRequests:
		return "rate limited"
	case http.StatusServiceUnavailable:
		return "service unavailable"
	default:
		if status >= 500 {
			return "backend error"
		}
		return "request failed"
	}
}
