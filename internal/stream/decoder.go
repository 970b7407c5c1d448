// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes a streaming chat response into text deltas.
//
// The backend answers either with SSE framing ("data: {json}" lines, blank
// line separators, a "[DONE]" sentinel) or with naive chunked text that has
// no framing at all. The decoder tolerates both, plus anything in between:
// well-formed JSON frames yield the extracted delta field, unparseable
// non-comment lines are passed through verbatim.
package stream

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// ErrEmptyResponse reports a stream that ended without a single delta.
// Callers must surface a fallback message instead of leaving the target
// turn blank.
var ErrEmptyResponse = errors.New("stream completed with no deltas")

// doneSentinel terminates the stream when received as a data payload.
const doneSentinel = "[DONE]"

// =============================================================================
// DECODER
// =============================================================================

// Decoder turns a byte stream into a finite sequence of text deltas.
// A decoder is single-use: create a new one per stream session.
type Decoder struct {
	// UNICODE: the UTF-8 transform holds partial multi-byte sequences across
	// chunk reads, so a rune split between two network chunks decodes whole.
	reader  *bufio.Reader
	emitted int
	done    bool
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		reader: bufio.NewReader(unicode.UTF8.NewDecoder().Reader(r)),
	}
}

// Run reads the stream to completion, calling emit for each delta as soon as
// it is identified. Blocks until end-of-stream, the [DONE] sentinel, or
// context cancellation. Returns ErrEmptyResponse when the stream finished
// without emitting anything. The context is checked before every read.
func (d *Decoder) Run(ctx context.Context, emit func(delta string)) error {
	for !d.done {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := d.reader.ReadString('\n')

		// Process whatever arrived, even a final unterminated line.
		if len(line) > 0 {
			if delta, ok := d.decodeLine(line); ok {
				d.emitted++
				emit(delta)
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err == io.EOF {
				break
			}
			return err
		}
	}

	if d.emitted == 0 {
		return ErrEmptyResponse
	}
	return nil
}

// Deltas runs the decoder in a goroutine, returning a channel of deltas and
// a single-element error channel. The delta channel is closed when the
// stream ends; the error channel then yields Run's result.
func (d *Decoder) Deltas(ctx context.Context) (<-chan string, <-chan error) {
	deltas := make(chan string, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(deltas)
		errs <- d.Run(ctx, func(delta string) {
			select {
			case deltas <- delta:
			case <-ctx.Done():
			}
		})
	}()

	return deltas, errs
}

// Emitted returns how many deltas have been produced so far.
func (d *Decoder) Emitted() int {
	return d.emitted
}

// =============================================================================
// LINE DECODING
// =============================================================================

// decodeLine extracts a delta from one complete line. The boolean is false
// when the line contributes nothing: blank separator lines, SSE comments,
// [DONE], and JSON frames without an extractable field.
func (d *Decoder) decodeLine(raw string) (string, bool) {
	line := strings.TrimRight(raw, "\r\n")
	if line == "" {
		return "", false
	}

	if payload, framed := strings.CutPrefix(line, "data:"); framed {
		payload = strings.TrimPrefix(payload, " ")
		if payload == doneSentinel {
			d.done = true
			return "", false
		}
		if delta, parsed := extractDelta([]byte(payload)); parsed {
			return delta, delta != ""
		}
		// Plain-text fallback: an unparseable non-empty payload is the
		// delta itself.
		return payload, payload != ""
	}

	// SSE comment lines are ignored; any other unframed line is treated as
	// a verbatim delta (naive chunked-text streams).
	if strings.HasPrefix(line, ":") {
		return "", false
	}
	return line, true
}
