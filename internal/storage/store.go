// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides transcript persistence backed by SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/verifywise/playground/internal/transcript"
)

// ErrNotFound is returned when a transcript ID does not exist.
var ErrNotFound = errors.New("transcript not found")

// schema is applied on open; idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	provider   TEXT NOT NULL DEFAULT '',
	model      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS turns (
	id            TEXT PRIMARY KEY,
	transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
	seq           INTEGER NOT NULL,
	role          TEXT NOT NULL,
	content       TEXT NOT NULL,
	attachments   TEXT NOT NULL DEFAULT '[]',
	created_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turns_transcript ON turns(transcript_id, seq);
`

// =============================================================================
// STORE
// =============================================================================

// Store persists transcripts in a local SQLite database.
type Store struct {
	db *sql.DB
}

// Meta is the lightweight listing row for saved transcripts.
type Meta struct {
	ID        string
	Title     string
	Provider  string
	Model     string
	UpdatedAt time.Time
	TurnCount int
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// SAVE
// =============================================================================

// Save persists a transcript, replacing any previous version of the same ID.
// In-flight streaming turns are skipped; only final content is stored.
func (s *Store) Save(tr *transcript.Transcript) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO transcripts (id, title, provider, model, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			provider = excluded.provider,
			model = excluded.model,
			updated_at = excluded.updated_at`,
		tr.ID, tr.GetTitle(), tr.Provider, tr.Model, tr.CreatedAt, tr.UpdatedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM turns WHERE transcript_id = ?`, tr.ID); err != nil {
		return err
	}

	insert, err := tx.Prepare(`
		INSERT INTO turns (id, transcript_id, seq, role, content, attachments, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insert.Close()

	seq := 0
	for _, t := range tr.Turns() {
		if t.IsStreaming {
			continue
		}
		atts, err := json.Marshal(t.Attachments)
		if err != nil {
			return err
		}
		if _, err := insert.Exec(t.ID, tr.ID, seq, t.Role.String(), t.Content, string(atts), t.Timestamp); err != nil {
			return err
		}
		seq++
	}

	return tx.Commit()
}

// =============================================================================
// LOAD
// =============================================================================

// Load reconstructs a transcript by ID.
func (s *Store) Load(id string) (*transcript.Transcript, error) {
	var (
		title, provider, model string
		createdAt, updatedAt   time.Time
	)
	err := s.db.QueryRow(`
		SELECT title, provider, model, created_at, updated_at
		FROM transcripts WHERE id = ?`, id).
		Scan(&title, &provider, &model, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT id, role, content, attachments, created_at
		FROM turns WHERE transcript_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []*transcript.Turn
	for rows.Next() {
		var (
			turnID, role, content, atts string
			ts                          time.Time
		)
		if err := rows.Scan(&turnID, &role, &content, &atts, &ts); err != nil {
			return nil, err
		}

		t := &transcript.Turn{
			ID:        turnID,
			Role:      transcript.Role(role),
			Content:   content,
			Timestamp: ts,
		}
		if atts != "" && atts != "[]" {
			if err := json.Unmarshal([]byte(atts), &t.Attachments); err != nil {
				return nil, err
			}
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transcript.Restore(id, title, provider, model, createdAt, updatedAt, turns), nil
}

// =============================================================================
// LIST / DELETE
// =============================================================================

// List returns saved transcripts, most recently updated first.
func (s *Store) List() ([]Meta, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.title, t.provider, t.model, t.updated_at,
		       (SELECT COUNT(*) FROM turns WHERE transcript_id = t.id)
		FROM transcripts t
		ORDER BY t.updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var m Meta
		if err := rows.Scan(&m.ID, &m.Title, &m.Provider, &m.Model, &m.UpdatedAt, &m.TurnCount); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes a transcript and its turns.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM transcripts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
