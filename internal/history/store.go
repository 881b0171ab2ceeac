// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package history records search lookups in SQLite for the "Recent searches" list.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/pokemon-app/internal/persistence/sqlite"
)

const (
	schemaVersion = 1

	DefaultLimit = 10
	MaxLimit     = 100
)

// Kinds of lookups.
const (
	KindPokemon   = "pokemon"
	KindEvolution = "evolution"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history: store closed")

// Entry is one recorded lookup.
type Entry struct {
	ID        int64     `json:"id"`
	Term      string    `json:"term"`
	Kind      string    `json:"kind"`
	Pokemon   string    `json:"pokemon,omitempty"`
	PokemonID int       `json:"pokemonId,omitempty"`
	Outcome   string    `json:"outcome"`
	TraceID   string    `json:"traceId,omitempty"`
	At        time.Time `json:"at"`
}

// Store persists lookups. It is safe for concurrent use.
type Store struct {
	db         *sql.DB
	path       string
	maxEntries int
	now        func() time.Time
}

// Open opens or creates the history database at path and applies the schema.
// maxEntries bounds the table; zero keeps everything.
func Open(ctx context.Context, path string, maxEntries int) (*Store, error) {
	db, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, path: path, maxEntries: maxEntries, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}
	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS lookups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		term TEXT NOT NULL,
		kind TEXT NOT NULL,
		pokemon TEXT NOT NULL DEFAULT '',
		pokemon_id INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		trace_id TEXT NOT NULL DEFAULT '',
		created_at_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lookups_created ON lookups(created_at_ms);
	`
	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// Record stores e, stamping it with the current time when At is zero.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.Kind) == "" {
		e.Kind = KindPokemon
	}
	if e.At.IsZero() {
		e.At = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO lookups (term, kind, pokemon, pokemon_id, outcome, trace_id, created_at_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Term, e.Kind, e.Pokemon, e.PokemonID, e.Outcome, e.TraceID, e.At.UnixMilli(),
	)
	if err != nil {
		return s.wrap("record", err)
	}

	if s.maxEntries > 0 {
		_, err = s.db.ExecContext(ctx, `
		DELETE FROM lookups WHERE id NOT IN (
			SELECT id FROM lookups ORDER BY id DESC LIMIT ?
		)`, s.maxEntries)
		if err != nil {
			return s.wrap("prune", err)
		}
	}
	return nil
}

// Recent returns up to limit entries, newest first. Non-positive limits
// select DefaultLimit and limits above MaxLimit are clamped.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, term, kind, pokemon, pokemon_id, outcome, trace_id, created_at_ms
	FROM lookups ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, s.wrap("recent", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var atMS int64
		if err := rows.Scan(&e.ID, &e.Term, &e.Kind, &e.Pokemon, &e.PokemonID, &e.Outcome, &e.TraceID, &atMS); err != nil {
			return nil, s.wrap("recent", err)
		}
		e.At = time.UnixMilli(atMS).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("recent", err)
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lookups").Scan(&n); err != nil {
		return 0, s.wrap("count", err)
	}
	return n, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.wrap("ping", s.db.PingContext(ctx))
}

// Verify runs an integrity check on the database file.
func (s *Store) Verify(ctx context.Context, mode string) ([]string, error) {
	if s.path == sqlite.MemoryPath {
		return nil, nil
	}
	return sqlite.VerifyIntegrity(ctx, s.path, mode)
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "sql: database is closed") {
		return fmt.Errorf("history: %s: %w", op, ErrClosed)
	}
	return fmt.Errorf("history: %s: %w", op, err)
}
