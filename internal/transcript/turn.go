// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript contains the data structures for playground conversations.
package transcript

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// AttachmentKind classifies an attachment.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
)

// Attachment describes a file attached to a turn. Attachments are immutable
// once the turn is created.
type Attachment struct {
	Kind           AttachmentKind `json:"kind"`
	Name           string         `json:"name"`
	PreviewLocator string         `json:"preview_locator,omitempty"`
	MimeType       string         `json:"mime_type"`
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn represents a single message in a conversation.
type Turn struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Attachments (immutable after creation)
	Attachments []Attachment `json:"attachments,omitempty"`

	// Streaming state (not persisted; streamContent is unexported and thus
	// invisible to encoding/json)
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	IsStreaming   bool `json:"-"`
	streamContent strings.Builder
}

// NewTurn creates a new turn with a generated ID.
func NewTurn(role Role, content string) *Turn {
	return &Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserTurn creates a new user turn with optional attachments.
func NewUserTurn(content string, attachments []Attachment) *Turn {
	t := NewTurn(RoleUser, content)
	t.Attachments = attachments
	return t
}

// NewStreamingTurn creates an empty turn that accepts appended deltas.
func NewStreamingTurn(role Role) *Turn {
	return &Turn{
		ID:          uuid.NewString(),
		Role:        role,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// =============================================================================
// TURN METHODS
// =============================================================================

// appendDelta appends a delta to a streaming turn.
func (t *Turn) appendDelta(delta string) {
	if t.IsStreaming {
		t.streamContent.WriteString(delta)
	}
}

// finalize completes streaming and freezes the content.
func (t *Turn) finalize() {
	if !t.IsStreaming {
		return
	}
	t.Content = t.streamContent.String()
	t.streamContent.Reset()
	t.IsStreaming = false
}

// DisplayContent returns the content to display (streaming or final).
func (t *Turn) DisplayContent() string {
	if t.IsStreaming {
		return t.streamContent.String()
	}
	return t.Content
}

// Preview returns a truncated preview of the turn content.
// Uses rune-based truncation to handle Unicode correctly.
func (t *Turn) Preview(maxLen int) string {
	content := t.DisplayContent()
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the turn has no content.
func (t *Turn) IsEmpty() bool {
	return len(t.Content) == 0 && t.streamContent.Len() == 0
}

// newID creates a unique identifier for turns and transcripts.
func newID() string {
	return uuid.NewString()
}
