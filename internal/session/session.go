// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the lifetime of one request/response exchange.
//
// A Session is created when a send is issued and discarded once a terminal
// state is reached. It owns nothing beyond the cancel handle for the
// in-flight request. Exactly one session may be active per conversation;
// cancel-then-resend creates a brand-new session.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBusy is returned when a send is issued while a session is still active.
var ErrBusy = errors.New("a response is already streaming")

// =============================================================================
// STATES
// =============================================================================

// State is the lifecycle position of a session.
type State int

const (
	// Idle: created but the request has not been issued yet.
	Idle State = iota
	// Sending: between issuing the request and the first byte/JSON.
	Sending
	// Streaming: entered on the first successful chunk read. The
	// non-streaming JSON path skips this state entirely.
	Streaming
	// Completed, Cancelled and Failed are absorbing.
	Completed
	Cancelled
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Streaming:
		return "streaming"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is absorbing.
func (s State) Terminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

// =============================================================================
// SESSION
// =============================================================================

// Session correlates one transport request with its accumulator target turn.
type Session struct {
	mu sync.Mutex

	// RequestID ties stray chunks back to the session that produced them.
	RequestID string
	StartedAt time.Time

	state  State
	cancel context.CancelFunc
}

// ID returns the session's request ID.
func (s *Session) ID() string {
	return s.RequestID
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MarkSending records that the request has been issued.
func (s *Session) MarkSending() {
	s.transition(Sending)
}

// MarkStreaming records the first successful chunk read.
func (s *Session) MarkStreaming() {
	s.transition(Streaming)
}

// Complete moves the session to Completed and releases the cancel handle.
func (s *Session) Complete() {
	s.finish(Completed)
}

// Fail moves the session to Failed and releases the cancel handle.
func (s *Session) Fail() {
	s.finish(Failed)
}

// Cancel aborts the in-flight request. Safe to call repeatedly or after
// natural completion: only the first call on a live session has any effect.
// Partial content already accumulated is untouched.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = Cancelled
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// transition advances to a non-terminal state; terminal states absorb.
func (s *Session) transition(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = next
}

// finish enters a terminal state and cancels the context to release the
// request's resources. Once terminal the state never changes again.
func (s *Session) finish(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = next
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller enforces the one-active-session rule for a conversation and
// owns the mapping from "cancel" to the session's abort handle.
//
// IMPORTANT: use as a pointer; the mutex must not be copied.
type Controller struct {
	mu     sync.Mutex
	active *Session
}

// NewController creates an empty controller.
func NewController() *Controller {
	return &Controller{}
}

// Begin starts a new session. It fails with ErrBusy while another session is
// still live. The returned context is the abort signal for the whole
// exchange; it is derived from parent so external cancellation propagates.
func (c *Controller) Begin(parent context.Context) (*Session, context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil && !c.active.State().Terminal() {
		return nil, nil, ErrBusy
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		RequestID: uuid.NewString(),
		StartedAt: time.Now(),
		state:     Idle,
		cancel:    cancel,
	}
	c.active = s
	return s, ctx, nil
}

// Cancel aborts the active session, if any. Idempotent.
func (c *Controller) Cancel() {
	c.mu.Lock()
	s := c.active
	c.mu.Unlock()
	if s != nil {
		s.Cancel()
	}
}

// Busy reports whether a session is currently live.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil && !c.active.State().Terminal()
}

// Active returns the current session, which may be terminal or nil.
func (c *Controller) Active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}
