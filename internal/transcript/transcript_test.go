// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTurnJSONExcludesStreamingState(t *testing.T) {
	tr := New()
	h := tr.BeginTurn(RoleAssistant, "req-1")
	tr.AppendDelta(h, "in flight")

	raw, err := json.Marshal(tr.Last())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(raw), "in flight") {
		t.Errorf("serialized turn leaks unfinalized content: %s", raw)
	}
	if strings.Contains(string(raw), "IsStreaming") || strings.Contains(string(raw), "streamContent") {
		t.Errorf("serialized turn carries streaming bookkeeping: %s", raw)
	}
}

func TestAddUserTurn(t *testing.T) {
	tr := New()
	turn := tr.AddUserTurn("hello", nil)

	if tr.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tr.Len())
	}
	if turn.Role != RoleUser || turn.Content != "hello" {
		t.Errorf("turn = %v/%q, want user/hello", turn.Role, turn.Content)
	}
	if turn.IsStreaming {
		t.Error("complete turn marked streaming")
	}
}

func TestStreamingTurnLifecycle(t *testing.T) {
	tr := New()
	h := tr.BeginTurn(RoleAssistant, "req-1")

	last := tr.Last()
	if last == nil || !last.IsStreaming {
		t.Fatal("streaming turn is not the last element")
	}

	tr.AppendDelta(h, "Hel")
	tr.AppendDelta(h, "lo")
	if got := tr.Last().DisplayContent(); got != "Hello" {
		t.Errorf("DisplayContent() = %q, want %q", got, "Hello")
	}

	tr.EndTurn(h)
	last = tr.Last()
	if last.IsStreaming {
		t.Error("turn still streaming after EndTurn")
	}
	if last.Content != "Hello" {
		t.Errorf("final content = %q, want %q", last.Content, "Hello")
	}
}

func TestStreamingTurnIsLastElement(t *testing.T) {
	tr := New()
	tr.AddUserTurn("question", nil)
	h := tr.BeginTurn(RoleAssistant, "req-1")
	tr.AppendDelta(h, "answer")

	turns := tr.Turns()
	if !turns[len(turns)-1].IsStreaming {
		t.Error("streaming turn is not the last element of the transcript")
	}
}

func TestStaleHandleIsNoOp(t *testing.T) {
	tr := New()
	h := tr.BeginTurn(RoleAssistant, "req-1")
	tr.AppendDelta(h, "partial")
	tr.EndTurn(h)

	// Straggler delta after the turn ended.
	tr.AppendDelta(h, " straggler")
	if got := tr.Last().Content; got != "partial" {
		t.Errorf("content = %q, straggler delta mutated a closed turn", got)
	}

	// Handle from a superseded request must not touch the new turn.
	h2 := tr.BeginTurn(RoleAssistant, "req-2")
	tr.AppendDelta(Handle{TurnID: h2.TurnID, RequestID: "req-1"}, "intruder")
	if got := tr.Last().DisplayContent(); got != "" {
		t.Errorf("content = %q, stale request wrote into new turn", got)
	}
	tr.EndTurn(h2)

	// Double EndTurn is harmless.
	tr.EndTurn(h2)
}

func TestSetContentReplacesWholesale(t *testing.T) {
	tr := New()
	h := tr.BeginTurn(RoleAssistant, "req-1")
	tr.AppendDelta(h, "draft")
	tr.SetContent(h, "final answer")
	tr.EndTurn(h)

	if got := tr.Last().Content; got != "final answer" {
		t.Errorf("content = %q, want %q", got, "final answer")
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	tr := New()
	var kinds []EventKind
	var deltas []string
	tr.Subscribe(func(ev Event) {
		kinds = append(kinds, ev.Kind)
		if ev.Kind == EventDelta {
			deltas = append(deltas, ev.Delta)
		}
	})

	tr.AddUserTurn("q", nil)
	h := tr.BeginTurn(RoleAssistant, "req-1")
	tr.AppendDelta(h, "a")
	tr.AppendDelta(h, "b")
	tr.EndTurn(h)

	want := []EventKind{EventAppend, EventBegin, EventDelta, EventDelta, EventEnd}
	if len(kinds) != len(want) {
		t.Fatalf("got %d events, want %d", len(kinds), len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
	if strings.Join(deltas, "") != "ab" {
		t.Errorf("deltas = %v, want [a b]", deltas)
	}
}

func TestClearRefusedMidStream(t *testing.T) {
	tr := New()
	tr.AddUserTurn("q", nil)
	h := tr.BeginTurn(RoleAssistant, "req-1")

	tr.Clear()
	if tr.Len() != 2 {
		t.Error("Clear() removed turns while a stream was active")
	}

	tr.EndTurn(h)
	tr.Clear()
	if tr.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", tr.Len())
	}
}

func TestTitleFromFirstUserTurn(t *testing.T) {
	tr := New()
	tr.AddSystemTurn("you are helpful")
	tr.AddUserTurn("what is the airspeed velocity of an unladen swallow", nil)

	if got := tr.GetTitle(); !strings.HasPrefix(got, "what is the airspeed") {
		t.Errorf("GetTitle() = %q, want prefix of the first user turn", got)
	}
}

func TestToWireMessagesSkipsInFlightTurn(t *testing.T) {
	tr := New()
	tr.AddUserTurn("first", nil)
	h := tr.BeginTurn(RoleAssistant, "req-1")
	tr.AppendDelta(h, "partial answer")

	msgs := tr.ToWireMessages()
	if len(msgs) != 1 {
		t.Fatalf("got %d wire messages, want 1", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "first" {
		t.Errorf("wire message = %+v", msgs[0])
	}

	tr.EndTurn(h)
	msgs = tr.ToWireMessages()
	if len(msgs) != 2 {
		t.Fatalf("got %d wire messages after EndTurn, want 2", len(msgs))
	}
	if msgs[1].Role != "assistant" || msgs[1].Content != "partial answer" {
		t.Errorf("wire message = %+v", msgs[1])
	}
}

func TestTurnPreview(t *testing.T) {
	turn := NewTurn(RoleUser, "héllo wörld, this is a long message for preview")
	p := turn.Preview(10)
	if len([]rune(p)) != 10 {
		t.Errorf("Preview(10) = %q (%d runes)", p, len([]rune(p)))
	}
	if !strings.HasSuffix(p, "...") {
		t.Errorf("Preview(10) = %q, want ellipsis suffix", p)
	}

	short := NewTurn(RoleUser, "hi")
	if got := short.Preview(10); got != "hi" {
		t.Errorf("Preview(10) = %q, want %q", got, "hi")
	}
}

func TestPruneKeepsSystemTurns(t *testing.T) {
	tr := New()
	tr.AddSystemTurn("system prompt")
	for i := 0; i <= MaxTurns; i++ {
		tr.AddUserTurn("msg", nil)
	}

	turns := tr.Turns()
	if len(turns) != MaxTurns+1 {
		t.Fatalf("Len() = %d, want %d", len(turns), MaxTurns+1)
	}
	if turns[0].Role != RoleSystem {
		t.Error("system turn was pruned")
	}
}

func TestRestore(t *testing.T) {
	orig := New()
	orig.AddUserTurn("q", nil)
	h := orig.BeginTurn(RoleAssistant, "req-1")
	orig.AppendDelta(h, "a")
	orig.EndTurn(h)

	restored := Restore(orig.ID, orig.GetTitle(), "openai", "gpt-4o-mini",
		orig.CreatedAt, orig.UpdatedAt, orig.Turns())
	if restored.Len() != 2 {
		t.Errorf("restored Len() = %d, want 2", restored.Len())
	}
	if restored.Streaming() {
		t.Error("restored transcript reports an active stream")
	}
}
