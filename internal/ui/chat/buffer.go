// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view for the playground.
package chat

import (
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches deltas between repaints. Streams can deliver
// hundreds of tiny deltas per second; repainting on every one causes flicker
// and burns CPU. Deltas accumulate here and the view repaints when either the
// batch size is reached or the rate limiter grants a slot.
//
// Writes come from the streaming goroutine while flushes come from the
// Bubble Tea loop, hence the mutex.
type StreamingBuffer struct {
	mu         sync.Mutex
	buffer     strings.Builder
	deltaCount int

	batchSize int
	limiter   *rate.Limiter
}

// NewStreamingBuffer creates a buffer flushing at most maxFPS times per
// second, or immediately once batchSize deltas have accumulated.
func NewStreamingBuffer(batchSize, maxFPS int) *StreamingBuffer {
	if batchSize <= 0 {
		batchSize = 15
	}
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = 30
	}
	return &StreamingBuffer{
		batchSize: batchSize,
		limiter:   rate.NewLimiter(rate.Limit(maxFPS), 1),
	}
}

// Write adds a delta to the buffer.
func (sb *StreamingBuffer) Write(delta string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.WriteString(delta)
	sb.deltaCount++
}

// Flush returns the accumulated content when a repaint is due. The second
// return is false when the buffer is empty or the frame budget says wait.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	if sb.deltaCount < sb.batchSize && !sb.limiter.Allow() {
		return "", false
	}
	return sb.takeLocked(), true
}

// ForceFlush drains the buffer regardless of thresholds. Called when a stream
// ends so the tail is never lost.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.buffer.Len() == 0 {
		return "", false
	}
	return sb.takeLocked(), true
}

// Reset discards buffered content. Used when a stream is cancelled.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.Reset()
	sb.deltaCount = 0
}

// Pending returns how many deltas are waiting.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.deltaCount
}

func (sb *StreamingBuffer) takeLocked() string {
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.deltaCount = 0
	return content
}
