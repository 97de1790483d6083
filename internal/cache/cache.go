// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists conversion results in a SQLite database keyed by a
// content hash, so repeated CLI runs over unchanged inputs skip the parse.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/developer0hye/anytomd/pkg/types"
)

// Store manages the conversion cache database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at path, creating the schema if
// it does not exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS conversions (
			key        TEXT PRIMARY KEY,
			title      TEXT,
			markdown   TEXT NOT NULL,
			warnings   TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`)
	return err
}

// Key derives the cache key for an input: a SHA-256 over the content plus an
// options fingerprint, so runs with different switches do not collide.
func Key(data []byte, fingerprint string) string {
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached result for key, with a hit flag.
func (s *Store) Get(key string) (*types.Result, bool, error) {
	var title sql.NullString
	var markdown, warnings string
	err := s.db.QueryRow(
		`SELECT title, markdown, warnings FROM conversions WHERE key = ?`, key,
	).Scan(&title, &markdown, &warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	res := &types.Result{Markdown: markdown}
	if title.Valid {
		t := title.String
		res.Title = &t
	}
	if err := json.Unmarshal([]byte(warnings), &res.Warnings); err != nil {
		return nil, false, fmt.Errorf("decoding cached warnings: %w", err)
	}
	return res, true, nil
}

// Put stores a result under key, replacing any previous entry. Extracted
// image bytes are not cached.
func (s *Store) Put(key string, res *types.Result) error {
	warnings, err := json.Marshal(res.Warnings)
	if err != nil {
		return fmt.Errorf("encoding warnings: %w", err)
	}
	var title sql.NullString
	if res.Title != nil {
		title = sql.NullString{String: *res.Title, Valid: true}
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO conversions (key, title, markdown, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		key, title, res.Markdown, string(warnings), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}
