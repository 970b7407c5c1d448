// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes a streaming chat response into text deltas.
package stream

import "encoding/json"

// =============================================================================
// DELTA EXTRACTION
// =============================================================================

// Different upstream providers frame their deltas differently. The decoder
// tries a fixed, ordered list of extractors and keeps the first non-empty
// match; the order here is the documented precedence.
var deltaExtractors = []func([]byte) (string, bool){
	extractChoicesDelta, // OpenAI-style: choices[0].delta.content
	extractContent,      // top-level content
	extractDeltaContent, // top-level delta.content
	extractText,         // top-level text
}

// extractDelta parses payload as JSON and applies the extractor chain.
// parsed is false when the payload is not valid JSON at all; delta is ""
// when it parsed but no extractor produced a non-empty match.
func extractDelta(payload []byte) (delta string, parsed bool) {
	if !json.Valid(payload) {
		return "", false
	}
	for _, extract := range deltaExtractors {
		if v, ok := extract(payload); ok {
			return v, true
		}
	}
	return "", true
}

func extractChoicesDelta(payload []byte) (string, bool) {
	var v struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if json.Unmarshal(payload, &v) != nil {
		return "", false
	}
	if len(v.Choices) > 0 && v.Choices[0].Delta.Content != "" {
		return v.Choices[0].Delta.Content, true
	}
	return "", false
}

func extractContent(payload []byte) (string, bool) {
	var v struct {
		Content string `json:"content"`
	}
	if json.Unmarshal(payload, &v) != nil || v.Content == "" {
		return "", false
	}
	return v.Content, true
}

func extractDeltaContent(payload []byte) (string, bool) {
	var v struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	}
	if json.Unmarshal(payload, &v) != nil || v.Delta.Content == "" {
		return "", false
	}
	return v.Delta.Content, true
}

func extractText(payload []byte) (string, bool) {
	var v struct {
		Text string `json:"text"`
	}
	if json.Unmarshal(payload, &v) != nil || v.Text == "" {
		return "", false
	}
	return v.Text, true
}
