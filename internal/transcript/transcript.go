// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript contains the data structures for playground conversations.
package transcript

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MaxTurns is the maximum number of turns to keep in conversation history.
// When exceeded, old turns are pruned to prevent unbounded memory growth.
const MaxTurns = 1000

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies a transcript mutation.
type EventKind int

const (
	EventBegin EventKind = iota // a streaming turn was opened
	EventDelta                  // a delta was appended to the streaming turn
	EventSet                    // the streaming turn content was replaced wholesale
	EventEnd                    // the streaming turn was finalized
	EventAppend                 // a complete (non-streaming) turn was added
)

// Event describes a single mutation of the transcript. Subscribers receive
// one event per mutation so the rendering layer can update on every delta.
type Event struct {
	Kind   EventKind
	TurnID string
	Delta  string // populated for EventDelta
}

// =============================================================================
// HANDLE
// =============================================================================

// Handle is the capability to mutate the in-flight streaming turn. It binds
// the turn to the request that opened it; appends with a stale handle are
// dropped.
type Handle struct {
	TurnID    string
	RequestID string
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript holds a complete playground conversation with history and
// metadata.
//
// Mutations come from the single task chain driving one active stream
// session, but deltas arrive on a streaming goroutine while the UI reads from
// the event loop, so access is guarded by a mutex.
type Transcript struct {
	mu sync.Mutex

	// Identity
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Provider configuration used for this conversation
	Provider string
	Model    string

	// Turns
	turns []*Turn

	// Streaming bookkeeping: the request that owns the current streaming
	// turn, or empty when no stream is active.
	activeRequest string
	activeTurn    *Turn

	// Observers
	subscribers []func(Event)

	log zerolog.Logger
}

// New creates an empty transcript.
func New() *Transcript {
	now := time.Now()
	return &Transcript{
		ID:        newID(),
		CreatedAt: now,
		UpdatedAt: now,
		turns:     make([]*Turn, 0),
		log:       zerolog.Nop(),
	}
}

// NewWithModel creates an empty transcript bound to a provider and model.
func NewWithModel(provider, model string) *Transcript {
	tr := New()
	tr.Provider = provider
	tr.Model = model
	return tr
}

// Restore rebuilds a transcript from persisted state. The turns must all be
// final; a restored transcript never has a stream in flight.
func Restore(id, title, provider, model string, createdAt, updatedAt time.Time, turns []*Turn) *Transcript {
	return &Transcript{
		ID:        id,
		Title:     title,
		Provider:  provider,
		Model:     model,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		turns:     turns,
		log:       zerolog.Nop(),
	}
}

// SetLogger attaches a logger used for dropped-append diagnostics.
func (tr *Transcript) SetLogger(log zerolog.Logger) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.log = log
}

// Subscribe registers a callback invoked on every transcript mutation.
// The callback runs with the transcript lock released.
func (tr *Transcript) Subscribe(fn func(Event)) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.subscribers = append(tr.subscribers, fn)
}

func (tr *Transcript) notify(ev Event) {
	tr.mu.Lock()
	subs := make([]func(Event), len(tr.subscribers))
	copy(subs, tr.subscribers)
	tr.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// =============================================================================
// TURN MANAGEMENT
// =============================================================================

// AddUserTurn appends a complete user turn.
func (tr *Transcript) AddUserTurn(content string, attachments []Attachment) *Turn {
	return tr.addTurn(NewUserTurn(content, attachments))
}

// AddSystemTurn appends a complete system turn.
func (tr *Transcript) AddSystemTurn(content string) *Turn {
	return tr.addTurn(NewTurn(RoleSystem, content))
}

func (tr *Transcript) addTurn(t *Turn) *Turn {
	tr.mu.Lock()
	tr.turns = append(tr.turns, t)
	tr.UpdatedAt = time.Now()
	tr.updateTitle()
	tr.prune()
	tr.mu.Unlock()

	tr.notify(Event{Kind: EventAppend, TurnID: t.ID})
	return t
}

// BeginTurn opens a streaming turn for the given role and returns the handle
// required to append to it. The turn is always the last element of the
// transcript while the stream is active. requestID correlates the handle
// with the stream session that owns it.
func (tr *Transcript) BeginTurn(role Role, requestID string) Handle {
	t := NewStreamingTurn(role)

	tr.mu.Lock()
	tr.turns = append(tr.turns, t)
	tr.activeRequest = requestID
	tr.activeTurn = t
	tr.UpdatedAt = time.Now()
	tr.mu.Unlock()

	tr.notify(Event{Kind: EventBegin, TurnID: t.ID})
	return Handle{TurnID: t.ID, RequestID: requestID}
}

// AppendDelta appends a delta to the streaming turn identified by the handle.
// Calls with a stale handle (turn already ended, or a superseded request) are
// logged no-ops: a straggler chunk arriving after cancellation must not
// mutate anything.
func (tr *Transcript) AppendDelta(h Handle, delta string) {
	tr.mu.Lock()
	if !tr.ownsLocked(h) {
		tr.log.Debug().
			Str("turn_id", h.TurnID).
			Str("request_id", h.RequestID).
			Msg("dropped stale delta")
		tr.mu.Unlock()
		return
	}
	tr.activeTurn.appendDelta(delta)
	tr.UpdatedAt = time.Now()
	tr.mu.Unlock()

	tr.notify(Event{Kind: EventDelta, TurnID: h.TurnID, Delta: delta})
}

// SetContent replaces the streaming turn's content wholesale. Used for the
// non-streaming JSON path and for error surfacing, where the turn goes from
// empty to final in one observable update.
func (tr *Transcript) SetContent(h Handle, content string) {
	tr.mu.Lock()
	if !tr.ownsLocked(h) {
		tr.log.Debug().
			Str("turn_id", h.TurnID).
			Msg("dropped stale content update")
		tr.mu.Unlock()
		return
	}
	tr.activeTurn.streamContent.Reset()
	tr.activeTurn.streamContent.WriteString(content)
	tr.UpdatedAt = time.Now()
	tr.mu.Unlock()

	tr.notify(Event{Kind: EventSet, TurnID: h.TurnID})
}

// EndTurn finalizes the streaming turn. Whatever content has accumulated is
// frozen; there is no rollback. Ending with a stale handle is a no-op.
func (tr *Transcript) EndTurn(h Handle) {
	tr.mu.Lock()
	if !tr.ownsLocked(h) {
		tr.mu.Unlock()
		return
	}
	tr.activeTurn.finalize()
	tr.activeTurn = nil
	tr.activeRequest = ""
	tr.UpdatedAt = time.Now()
	tr.updateTitle()
	tr.mu.Unlock()

	tr.notify(Event{Kind: EventEnd, TurnID: h.TurnID})
}

// ownsLocked reports whether the handle still owns the active streaming turn.
func (tr *Transcript) ownsLocked(h Handle) bool {
	return tr.activeTurn != nil &&
		tr.activeTurn.ID == h.TurnID &&
		tr.activeRequest == h.RequestID
}

// Streaming returns true while a streaming turn is open.
func (tr *Transcript) Streaming() bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.activeTurn != nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Turns returns a snapshot of the turn list.
func (tr *Transcript) Turns() []*Turn {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]*Turn, len(tr.turns))
	copy(out, tr.turns)
	return out
}

// Last returns the most recent turn, or nil if empty.
func (tr *Transcript) Last() *Turn {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.turns) == 0 {
		return nil
	}
	return tr.turns[len(tr.turns)-1]
}

// Len returns the number of turns.
func (tr *Transcript) Len() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.turns)
}

// Clear removes all turns. Fails silently while a stream is active so the
// last-element invariant cannot be broken mid-stream.
func (tr *Transcript) Clear() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.activeTurn != nil {
		return
	}
	tr.turns = make([]*Turn, 0)
	tr.Title = ""
	tr.UpdatedAt = time.Now()
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle auto-generates a title from the first user turn if not set.
// Caller must hold the lock.
func (tr *Transcript) updateTitle() {
	if tr.Title != "" {
		return
	}
	for _, t := range tr.turns {
		if t.Role == RoleUser {
			tr.Title = t.Preview(50)
			return
		}
	}
}

// GetTitle returns the transcript title or a default.
func (tr *Transcript) GetTitle() string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.Title != "" {
		return tr.Title
	}
	return "New Conversation"
}

// prune removes old turns when the history exceeds MaxTurns, keeping system
// turns and the most recent conversation turns. Caller must hold the lock.
func (tr *Transcript) prune() {
	if len(tr.turns) <= MaxTurns {
		return
	}

	var system []*Turn
	var other []*Turn
	for _, t := range tr.turns {
		if t.Role == RoleSystem {
			system = append(system, t)
		} else {
			other = append(other, t)
		}
	}

	if len(other) > MaxTurns {
		other = other[len(other)-MaxTurns:]
	}

	tr.turns = make([]*Turn, 0, len(system)+len(other))
	tr.turns = append(tr.turns, system...)
	tr.turns = append(tr.turns, other...)
}
