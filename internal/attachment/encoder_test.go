// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attachment

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pngHeader is the 8-byte PNG signature plus padding so DetectContentType
// recognizes it.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestEncodeImage(t *testing.T) {
	p, err := Encode("shot.png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if p.Kind != KindImage {
		t.Errorf("Kind = %v, want image", p.Kind)
	}
	if p.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png", p.MimeType)
	}
	decoded, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		t.Fatalf("Data is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, pngHeader) {
		t.Error("decoded data does not round-trip")
	}
}

func TestEncodeDocumentByExtension(t *testing.T) {
	// Plain text content: sniffing is inconclusive, the extension decides.
	p, err := Encode("notes.json", strings.NewReader(`{"k":"v"}`))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if p.Kind != KindDocument {
		t.Errorf("Kind = %v, want document", p.Kind)
	}
	if p.MimeType != "application/json" {
		t.Errorf("MimeType = %q, want application/json", p.MimeType)
	}
}

func TestEncodeTooLarge(t *testing.T) {
	big := bytes.NewReader(make([]byte, MaxFileSize+1))
	if _, err := Encode("big.bin", big); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Encode() error = %v, want ErrTooLarge", err)
	}
}

func TestEncodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.png")
	if err := os.WriteFile(path, pngHeader, 0600); err != nil {
		t.Fatal(err)
	}

	p, err := EncodeFile(path)
	if err != nil {
		t.Fatalf("EncodeFile() error = %v", err)
	}
	if p.Name != "img.png" {
		t.Errorf("Name = %q, want the base name", p.Name)
	}
	if p.Kind != KindImage {
		t.Errorf("Kind = %v, want image", p.Kind)
	}
}

func TestEncodeFileMissing(t *testing.T) {
	if _, err := EncodeFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("EncodeFile() on missing file did not fail")
	}
}
