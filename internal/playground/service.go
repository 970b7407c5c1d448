// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package playground wires transport, decoder and transcript into the
// streaming chat response assembler.
//
// Control flow per send: append the user turn and an empty assistant turn,
// open a session, issue the request, then either pump decoded deltas into
// the assistant turn (streaming) or set its content in one update (JSON).
// Cancellation keeps whatever partial content has accumulated.
package playground

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/verifywise/playground/internal/attachment"
	"github.com/verifywise/playground/internal/provider"
	"github.com/verifywise/playground/internal/session"
	"github.com/verifywise/playground/internal/stream"
	"github.com/verifywise/playground/internal/transcript"
)

// emptyResponseFallback is shown instead of an indistinguishable empty
// bubble when a stream completes with zero deltas.
const emptyResponseFallback = "No response received from the model."

// errTemplateSuffix is appended to surfaced API errors.
const errTemplateSuffix = ". Please check that your API key is configured and the model is available."

// =============================================================================
// OPTIONS
// =============================================================================

// Options are the generation parameters carried on every request.
type Options struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
}

// =============================================================================
// SERVICE
// =============================================================================

// Service owns one conversation's send/cancel lifecycle.
type Service struct {
	client     *provider.Client
	transcript *transcript.Transcript
	sessions   *session.Controller
	log        zerolog.Logger

	// opts is read by the send path on its own goroutine and written by the
	// config watcher and /model, hence the mutex.
	optsMu sync.Mutex
	opts   Options
}

// NewService creates a service around an existing transcript.
func NewService(client *provider.Client, tr *transcript.Transcript, opts Options, log zerolog.Logger) *Service {
	tr.SetLogger(log)
	return &Service{
		client:     client,
		transcript: tr,
		sessions:   session.NewController(),
		opts:       opts,
		log:        log,
	}
}

// Transcript returns the conversation this service drives.
func (s *Service) Transcript() *transcript.Transcript {
	return s.transcript
}

// Options returns the current generation parameters.
func (s *Service) Options() Options {
	s.optsMu.Lock()
	defer s.optsMu.Unlock()
	return s.opts
}

// SetModel switches the model used for subsequent sends. An in-flight
// exchange keeps the options it was issued with.
func (s *Service) SetModel(providerName, model string) {
	s.optsMu.Lock()
	defer s.optsMu.Unlock()
	s.opts.Provider = providerName
	s.opts.Model = model
}

// Busy reports whether a response is currently in flight.
func (s *Service) Busy() bool {
	return s.sessions.Busy()
}

// Cancel aborts the in-flight response, keeping partial content. Idempotent;
// a no-op when nothing is streaming.
func (s *Service) Cancel() {
	s.sessions.Cancel()
}

// =============================================================================
// SEND
// =============================================================================

// Send issues one conversational turn and blocks until the assistant turn is
// final. Returns session.ErrBusy if a response is already streaming.
//
// Errors are surfaced into the assistant turn, not just returned:
// cancellation ends the turn silently with partial content retained; API
// errors and empty responses become fixed explanatory messages.
func (s *Service) Send(ctx context.Context, prompt string, attachments []*attachment.Payload) error {
	sess, reqCtx, err := s.sessions.Begin(ctx)
	if err != nil {
		return err
	}

	s.transcript.AddUserTurn(prompt, toTurnAttachments(attachments))
	handle := s.transcript.BeginTurn(transcript.RoleAssistant, sess.ID())

	err = s.exchange(reqCtx, sess, handle, attachments)
	return s.settle(sess, handle, err)
}

// exchange runs one request/response cycle against the backend.
func (s *Service) exchange(ctx context.Context, sess *session.Session, handle transcript.Handle, attachments []*attachment.Payload) error {
	opts := s.Options()
	req := provider.Request{
		Provider:    opts.Provider,
		Model:       opts.Model,
		Messages:    s.transcript.ToWireMessages(),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      true,
		Attachments: attachments,
	}

	sess.MarkSending()
	resp, err := s.client.Send(ctx, req)
	if err != nil {
		return err
	}

	if resp.Kind == provider.KindJSON {
		// Non-streaming path: Sending -> Completed, one content update.
		content, err := resp.Complete()
		if err != nil {
			return err
		}
		if content == "" {
			return stream.ErrEmptyResponse
		}
		s.transcript.SetContent(handle, content)
		return nil
	}

	defer resp.Body.Close()
	return s.pump(ctx, sess, handle, resp)
}

// pump is the accumulator loop: the decoder runs as an owned task producing
// a channel of deltas, consumed here one at a time. This keeps all turn
// mutation on a single task chain.
func (s *Service) pump(ctx context.Context, sess *session.Session, handle transcript.Handle, resp *provider.Response) error {
	decoder := stream.NewDecoder(resp.Body)
	deltas, errs := decoder.Deltas(ctx)

	for delta := range deltas {
		sess.MarkStreaming()
		s.transcript.AppendDelta(handle, delta)
	}
	return <-errs
}

// settle maps the exchange result onto the assistant turn and moves the
// session to its terminal state.
func (s *Service) settle(sess *session.Session, handle transcript.Handle, err error) error {
	switch {
	case err == nil:
		sess.Complete()
		s.transcript.EndTurn(handle)
		return nil

	case errors.Is(err, context.Canceled):
		// User-initiated abort: keep partial content, no failure banner.
		// The session is already in Cancelled if the user drove this; a
		// parent-context cancel lands here too.
		sess.Cancel()
		s.transcript.EndTurn(handle)
		s.log.Debug().Str("request_id", sess.ID()).Msg("send cancelled")
		return nil

	case errors.Is(err, stream.ErrEmptyResponse):
		s.transcript.SetContent(handle, emptyResponseFallback)
		sess.Fail()
		s.transcript.EndTurn(handle)
		s.log.Warn().Str("request_id", sess.ID()).Msg("empty response")
		return err

	default:
		if apiErr, ok := provider.IsAPIError(err); ok {
			s.transcript.SetContent(handle, "Error: "+apiErr.Message+errTemplateSuffix)
		} else {
			s.transcript.SetContent(handle, "Error: "+err.Error()+errTemplateSuffix)
		}
		sess.Fail()
		s.transcript.EndTurn(handle)
		s.log.Error().Err(err).Str("request_id", sess.ID()).Msg("send failed")
		return err
	}
}

// toTurnAttachments converts payloads to the immutable turn records.
func toTurnAttachments(payloads []*attachment.Payload) []transcript.Attachment {
	if len(payloads) == 0 {
		return nil
	}
	out := make([]transcript.Attachment, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, transcript.Attachment{
			Kind:     transcript.AttachmentKind(p.Kind),
			Name:     p.Name,
			MimeType: p.MimeType,
		})
	}
	return out
}
