// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the HTTP transport to the playground backend.
package provider

import (
	"github.com/verifywise/playground/internal/attachment"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Message represents one turn in the wire format sent to the backend.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Request is the body for one conversational turn. It carries the full turn
// history plus model identity and generation parameters.
type Request struct {
	Provider    string                `json:"provider"`
	Model       string                `json:"model"`
	Messages    []Message             `json:"messages"`
	Temperature float64               `json:"temperature,omitempty"`
	MaxTokens   int                   `json:"max_tokens,omitempty"`
	Stream      bool                  `json:"stream"`
	Attachments []*attachment.Payload `json:"attachments,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// completionBody is the shape of a non-streaming JSON response. The backend
// proxies several upstream providers, so the answer text may appear under
// any of these fields.
type completionBody struct {
	Content string `json:"content"`
	Message string `json:"message"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

