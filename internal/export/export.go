// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes transcripts to shareable files.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/verifywise/playground/internal/transcript"
	"github.com/verifywise/playground/internal/util"
)

// Options configures export behavior.
type Options struct {
	// OutputDir is where exported files land. Default: current directory.
	OutputDir string

	// IncludeMetadata adds a frontmatter block with model and timestamps.
	IncludeMetadata bool

	// IncludeTimestamps adds per-turn timestamps.
	IncludeTimestamps bool
}

// DefaultOptions returns the default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
}

// ToFile renders the transcript as Markdown and writes it to a timestamped
// file in the output directory, returning the path.
func ToFile(tr *transcript.Transcript, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := Markdown(tr, opts)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("conversation_%s_%s.md",
		sanitizeFilename(tr.GetTitle()),
		time.Now().Format("20060102_150405"))
	outputPath := filepath.Join(opts.OutputDir, filename)

	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return outputPath, nil
}

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no turns")

// sanitizeFilename replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(s, 50)

	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			out = append(out, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			out = append(out, '_')
		case r < 32 || r == 127:
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "conversation"
	}
	return string(out)
}
