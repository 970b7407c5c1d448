// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"sync"
	"testing"
)

func TestBufferBatchThreshold(t *testing.T) {
	sb := NewStreamingBuffer(3, 1) // 1fps: only the batch size can trigger

	// Burn the limiter's initial token so timing can't interfere.
	sb.limiter.Allow()

	sb.Write("a")
	sb.Write("b")
	if _, ok := sb.Flush(); ok {
		t.Error("Flush() fired below the batch threshold")
	}

	sb.Write("c")
	content, ok := sb.Flush()
	if !ok {
		t.Fatal("Flush() did not fire at the batch threshold")
	}
	if content != "abc" {
		t.Errorf("content = %q, want %q", content, "abc")
	}
	if sb.Pending() != 0 {
		t.Errorf("Pending() = %d after flush, want 0", sb.Pending())
	}
}

func TestBufferEmptyFlush(t *testing.T) {
	sb := NewStreamingBuffer(15, 30)
	if _, ok := sb.Flush(); ok {
		t.Error("Flush() on empty buffer returned content")
	}
	if _, ok := sb.ForceFlush(); ok {
		t.Error("ForceFlush() on empty buffer returned content")
	}
}

func TestBufferForceFlush(t *testing.T) {
	sb := NewStreamingBuffer(100, 1)
	sb.limiter.Allow()
	sb.Write("tail")

	content, ok := sb.ForceFlush()
	if !ok || content != "tail" {
		t.Errorf("ForceFlush() = %q/%v, want tail/true", content, ok)
	}
}

func TestBufferReset(t *testing.T) {
	sb := NewStreamingBuffer(15, 30)
	sb.Write("discard me")
	sb.Reset()
	if _, ok := sb.ForceFlush(); ok {
		t.Error("content survived Reset()")
	}
}

func TestBufferConcurrentWrites(t *testing.T) {
	sb := NewStreamingBuffer(1, 60)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sb.Write(fmt.Sprintf("[%d]", n))
		}(i)
	}
	wg.Wait()

	content, ok := sb.ForceFlush()
	if !ok {
		t.Fatal("no content after concurrent writes")
	}
	if len(content) == 0 {
		t.Error("empty content after concurrent writes")
	}
}
