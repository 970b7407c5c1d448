// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the HTTP transport to the playground backend.
//
// The client issues exactly one POST per conversational turn. There is no
// retry loop: a failed generation already cost tokens, so the resend decision
// belongs to the user, not the transport.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL of the playground backend.
	BaseURL string

	// Token is the bearer token attached to every request.
	Token string

	// Timeout for non-streaming requests (default: 60s). Streaming requests
	// carry no client timeout; they are bounded by the caller's context.
	Timeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://127.0.0.1:3000",
		Timeout: 60 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the playground backend.
// It is safe for concurrent use.
type Client struct {
	config *ClientConfig

	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// The streaming client carries no timeout; cancellation comes from the
	// request context.
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a client with the given configuration.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:3000"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		config:       config,
		httpClient:   &http.Client{Transport: transport, Timeout: config.Timeout},
		streamClient: &http.Client{Transport: transport},
	}
}

// =============================================================================
// RESPONSE CLASSIFICATION
// =============================================================================

// ResponseKind classifies a backend response by its declared content type.
type ResponseKind int

const (
	// KindStream is a chunked event-stream or plain-text body to be decoded
	// incrementally.
	KindStream ResponseKind = iota
	// KindJSON is a single JSON object carrying the full answer.
	KindJSON
)

// Response wraps a successful backend response. For KindStream the caller
// owns Body and must close it; for KindJSON use Complete, which closes the
// body itself.
type Response struct {
	Kind ResponseKind
	Body io.ReadCloser
}

// Complete reads the whole JSON body and extracts the answer text, checking
// content, message and choices[0].message.content in that order.
func (r *Response) Complete() (string, error) {
	defer r.Body.Close()

	var body completionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", errors.New("invalid JSON response: " + err.Error())
	}

	if body.Content != "" {
		return body.Content, nil
	}
	if body.Message != "" {
		return body.Message, nil
	}
	if len(body.Choices) > 0 {
		return body.Choices[0].Message.Content, nil
	}
	return "", nil
}

// classify maps a Content-Type header to a response kind.
func classify(contentType string) ResponseKind {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.ToLower(contentType))
	}
	switch mediaType {
	case "text/event-stream", "text/plain":
		return KindStream
	default:
		return KindJSON
	}
}

// =============================================================================
// SEND
// =============================================================================

// Send issues one POST for a conversational turn. The context is the abort
// signal: if it is cancelled before or during the call, Send returns the
// context error and nothing further happens. Non-2xx responses become
// *APIError with the message extracted from the body. Single attempt, no
// retries.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/api/playground/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream, application/json")
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	client := c.httpClient
	if req.Stream {
		client = c.streamClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		// Normalize the wrapped *url.Error so callers can match
		// context.Canceled directly.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		resp.Body.Close()
		return nil, newAPIError(resp.StatusCode, raw)
	}

	return &Response{
		Kind: classify(resp.Header.Get("Content-Type")),
		Body: resp.Body,
	}, nil
}
