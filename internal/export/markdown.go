// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/verifywise/playground/internal/transcript"
)

// Markdown renders a transcript as a Markdown document. In-flight streaming
// turns are skipped; only final content is exported.
func Markdown(tr *transcript.Transcript, opts *Options) ([]byte, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	turns := tr.Turns()
	if len(turns) == 0 {
		return nil, ErrEmptyTranscript
	}

	var sb strings.Builder

	if opts.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString("title: " + escapeYAML(tr.GetTitle()) + "\n")
		if tr.Model != "" {
			sb.WriteString("model: " + tr.Provider + "/" + tr.Model + "\n")
		}
		sb.WriteString("date: " + tr.CreatedAt.Format(time.RFC3339) + "\n")
		sb.WriteString(fmt.Sprintf("turns: %d\n", len(turns)))
		sb.WriteString("---\n\n")
	}

	sb.WriteString("# " + escapeHeading(tr.GetTitle()) + "\n\n")

	for i, t := range turns {
		if t.IsStreaming {
			continue
		}

		if opts.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
				t.Role.DisplayName(), t.Timestamp.Format("15:04:05")))
		} else {
			sb.WriteString("### " + t.Role.DisplayName() + "\n\n")
		}

		sb.WriteString(strings.TrimSpace(t.Content))
		sb.WriteString("\n\n")

		for _, a := range t.Attachments {
			sb.WriteString(fmt.Sprintf("*Attachment: %s (%s)*\n\n", a.Name, a.MimeType))
		}

		if i < len(turns)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// escapeHeading escapes characters that would break a Markdown heading.
func escapeHeading(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes a frontmatter value when it contains special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") ||
		strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return "\"" + s + "\""
	}
	return s
}
