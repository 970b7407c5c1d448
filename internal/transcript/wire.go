// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript contains the data structures for playground conversations.
package transcript

import (
	"github.com/verifywise/playground/internal/provider"
)

// ToWireMessages converts the transcript to the backend message format.
// The in-flight streaming turn is skipped: the history sent with a request
// must not include the empty placeholder being filled by that same request.
func (tr *Transcript) ToWireMessages() []provider.Message {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	messages := make([]provider.Message, 0, len(tr.turns))
	for _, t := range tr.turns {
		if t.IsStreaming {
			continue
		}
		content := t.DisplayContent()
		if content == "" {
			continue
		}
		messages = append(messages, provider.Message{
			Role:    t.Role.String(),
			Content: content,
		})
	}
	return messages
}
