// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attachment converts raw files into transportable payloads.
//
// The streaming core treats attachment payloads as opaque: this package is
// the only place that knows about base64 encoding and mime sniffing.
package attachment

import (
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSize is the largest file accepted for encoding (10MB). Larger files
// would bloat the request body past what the backend accepts.
const MaxFileSize = 10 * 1024 * 1024

// ErrTooLarge is returned for files exceeding MaxFileSize.
var ErrTooLarge = errors.New("attachment exceeds maximum size")

// Kind classifies a payload for the backend.
type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
)

// Payload is the transportable form of an attachment. Data is base64.
type Payload struct {
	Kind     Kind   `json:"kind"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// EncodeFile reads a file from disk and encodes it as a payload.
func EncodeFile(path string) (*Payload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxFileSize {
		return nil, ErrTooLarge
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Encode(filepath.Base(path), f)
}

// Encode reads the full content of r and encodes it as a payload. The mime
// type is sniffed from the first bytes, falling back to the file extension.
func Encode(name string, r io.Reader) (*Payload, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxFileSize {
		return nil, ErrTooLarge
	}

	mimeType := sniffMime(name, data)

	return &Payload{
		Kind:     kindFor(mimeType),
		Name:     name,
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

// sniffMime determines the mime type from content, then extension.
func sniffMime(name string, data []byte) string {
	detected := http.DetectContentType(data)
	if detected != "application/octet-stream" && !strings.HasPrefix(detected, "text/plain") {
		return detected
	}
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		// Strip parameters like "; charset=utf-8"
		if i := strings.Index(byExt, ";"); i >= 0 {
			byExt = byExt[:i]
		}
		return byExt
	}
	return detected
}

// kindFor maps a mime type to an attachment kind.
func kindFor(mimeType string) Kind {
	if strings.HasPrefix(mimeType, "image/") {
		return KindImage
	}
	return KindDocument
}
