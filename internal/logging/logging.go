// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging sets up the process-wide structured logger.
//
// The terminal is owned by the chat UI, so logs go to a file under the
// config directory rather than stderr. Set VERIFYWISE_LOG_LEVEL=debug for
// delta-level diagnostics.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const logFileName = "playground.log"

// New opens the log file in dir and returns a logger writing to it plus a
// closer for shutdown. If the file cannot be opened the logger discards
// everything; the chat client should never fail to start over logging.
func New(dir string) (zerolog.Logger, io.Closer, error) {
	level := parseLevel(os.Getenv("VERIFYWISE_LOG_LEVEL"))

	if err := os.MkdirAll(dir, 0755); err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	log := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return log, f, nil
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
