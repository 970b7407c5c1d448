// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript contains the data structures for playground conversations.
//
// A Transcript owns the ordered list of conversation turns. While a response
// is streaming, exactly one assistant turn (always the last element) accepts
// appended deltas; every other turn is immutable. Appends carry a Handle tied
// to the request that opened the turn, so stragglers from a cancelled or
// superseded request are dropped instead of corrupting a newer turn.
//
// # Key Types
//
//   - Turn: one message attributed to user, assistant, or system
//   - Transcript: the mutable turn list plus streaming bookkeeping
//   - Handle: capability to append to the in-flight assistant turn
//
// # Usage
//
//	tr := transcript.New()
//	tr.AddUserTurn("hello", nil)
//	h := tr.BeginTurn(transcript.RoleAssistant, requestID)
//	tr.AppendDelta(h, "Hel")
//	tr.AppendDelta(h, "lo")
//	tr.EndTurn(h)
package transcript
