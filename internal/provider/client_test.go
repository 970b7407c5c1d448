// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(url string) *Client {
	return NewClient(&ClientConfig{BaseURL: url, Token: "test-token"})
}

// =============================================================================
// RESPONSE CLASSIFICATION
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		contentType string
		want        ResponseKind
	}{
		{"text/event-stream", KindStream},
		{"text/event-stream; charset=utf-8", KindStream},
		{"text/plain", KindStream},
		{"text/plain; charset=utf-8", KindStream},
		{"application/json", KindJSON},
		{"application/json; charset=utf-8", KindJSON},
		{"", KindJSON},
		{"application/octet-stream", KindJSON},
	}

	for _, tt := range tests {
		if got := classify(tt.contentType); got != tt.want {
			t.Errorf("classify(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}

func TestSendClassifiesByContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        ResponseKind
	}{
		{"event stream", "text/event-stream", "data: [DONE]\n", KindStream},
		{"plain text", "text/plain; charset=utf-8", "raw text", KindStream},
		{"json", "application/json", `{"content":"x"}`, KindJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			resp, err := newTestClient(srv.URL).Send(context.Background(), Request{Stream: true})
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			defer resp.Body.Close()
			if resp.Kind != tt.want {
				t.Errorf("Kind = %v, want %v", resp.Kind, tt.want)
			}
		})
	}
}

// =============================================================================
// REQUEST SHAPE
// =============================================================================

func TestSendRequestShape(t *testing.T) {
	var (
		gotPath   string
		gotAuth   string
		gotMethod string
		gotBody   Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"content":"ok"}`)
	}))
	defer srv.Close()

	req := Request{
		Provider: "openai",
		Model:    "gpt-4o-mini",
		Messages: []Message{
			{Role: "system", Content: "sys"},
			{Role: "user", Content: "hi"},
		},
		Stream:   true,
	}
	resp, err := newTestClient(srv.URL).Send(context.Background(), req)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	resp.Body.Close()

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotPath != "/api/playground/chat" {
		t.Errorf("path = %q, want /api/playground/chat", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody.Model != "gpt-4o-mini" || len(gotBody.Messages) != 2 || !gotBody.Stream {
		t.Errorf("request body = %+v", gotBody)
	}
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestSendNon2xxBecomesAPIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", http.StatusTooManyRequests, `{"message":"rate limited"}`, "rate limited"},
		{"error string", http.StatusBadRequest, `{"error":"bad model"}`, "bad model"},
		{"error object", http.StatusInternalServerError, `{"error":{"message":"upstream exploded"}}`, "upstream exploded"},
		{"unparseable body", http.StatusUnauthorized, "<html>nope</html>", "authentication failed"},
		{"empty body 500", http.StatusInternalServerError, "", "backend error"},
		{"empty body 404", http.StatusNotFound, "", "model or endpoint not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Send(context.Background(), Request{})
			apiErr, ok := IsAPIError(err)
			if !ok {
				t.Fatalf("Send() error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestSendCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL).Send(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Send() error = %v, want context.Canceled", err)
	}
}

// =============================================================================
// JSON COMPLETION
// =============================================================================

func TestCompleteFieldPrecedence(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"content", `{"content":"a"}`, "a"},
		{"message", `{"message":"b"}`, "b"},
		{"choices", `{"choices":[{"message":{"content":"c"}}]}`, "c"},
		{"content wins", `{"content":"a","message":"b"}`, "a"},
		{"message wins over choices", `{"message":"b","choices":[{"message":{"content":"c"}}]}`, "b"},
		{"nothing extractable", `{"usage":{}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &Response{Kind: KindJSON, Body: io.NopCloser(strings.NewReader(tt.body))}
			got, err := resp.Complete()
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Complete() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompleteInvalidJSON(t *testing.T) {
	resp := &Response{Kind: KindJSON, Body: io.NopCloser(strings.NewReader("not json"))}
	if _, err := resp.Complete(); err == nil {
		t.Error("Complete() on invalid JSON did not fail")
	}
}
