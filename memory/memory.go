// Package memory provides the full-text memory index: markdown documents
// ingested into SQLite and searched through an FTS5 virtual table.
package memory

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates no memory entry exists for the requested ID.
var ErrNotFound = errors.New("memory not found")

// Entry is one ingested document.
type Entry struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// Result is a search hit with its BM25 rank (lower is better).
type Result struct {
	Entry
	Rank float64 `json:"rank"`
}

// Store indexes memory documents in SQLite with an FTS5 side table.
type Store struct {
	db *sql.DB
}

// NewStore ensures the memory tables exist on db and returns a Store. The
// caller owns the database handle.
func NewStore(db *sql.DB) (*Store, error) {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS memory (
	id         TEXT PRIMARY KEY,
	path       TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	category   TEXT NOT NULL DEFAULT 'general',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);`)
	if err != nil {
		return nil, fmt.Errorf("memory table: %w", err)
	}

	// Standalone FTS5 virtual table — populated explicitly in Ingest to
	// avoid trigger issues.
	_, err = db.Exec(`
CREATE VIRTUAL TABLE IF NOT EXISTS memory_fts USING fts5(
	id UNINDEXED,
	title,
	content,
	category
);`)
	if err != nil {
		return nil, fmt.Errorf("memory_fts table: %w", err)
	}
	return &Store{db: db}, nil
}

// Ingest reads the markdown file at path and upserts it into the index. The
// title is the file's base name without extension; category defaults to the
// parent directory's name.
func (s *Store) Ingest(path, category string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read memory file: %w", err)
	}
	if category == "" {
		category = filepath.Base(filepath.Dir(path))
	}
	e := &Entry{
		ID:       uuid.New().String(),
		Path:     path,
		Title:    strings.TrimSuffix(filepath.Base(path), ".md"),
		Content:  string(data),
		Category: category,
	}

	// Replace any prior entry for the same path, FTS row included.
	var oldID string
	err = s.db.QueryRow(`SELECT id FROM memory WHERE path = ?`, e.Path).Scan(&oldID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("memory lookup: %w", err)
	}
	if oldID != "" {
		if _, err := s.db.Exec(`DELETE FROM memory WHERE id = ?`, oldID); err != nil {
			return nil, fmt.Errorf("memory replace: %w", err)
		}
		if _, err := s.db.Exec(`DELETE FROM memory_fts WHERE id = ?`, oldID); err != nil {
			return nil, fmt.Errorf("memory replace fts: %w", err)
		}
	}

	if _, err := s.db.Exec(`
		INSERT INTO memory (id, path, title, content, category, created_at)
		VALUES (?,?,?,?,?, datetime('now'))`,
		e.ID, e.Path, e.Title, e.Content, e.Category); err != nil {
		return nil, fmt.Errorf("memory insert: %w", err)
	}
	if _, err := s.db.Exec(`
		INSERT INTO memory_fts (id, title, content, category)
		VALUES (?,?,?,?)`,
		e.ID, e.Title, e.Content, e.Category); err != nil {
		return nil, fmt.Errorf("memory insert fts: %w", err)
	}
	return e, nil
}

// Reindex ingests every .md file directly under dir with the given category
// and returns the number of files processed.
func (s *Store) Reindex(dir, category string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read memory dir: %w", err)
	}
	if category == "" {
		category = "daily-log"
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		if _, err := s.Ingest(filepath.Join(dir, entry.Name()), category); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Search runs an FTS5 match ranked by BM25.
func (s *Store) Search(query string, limit, offset int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
SELECT m.id, m.path, m.title, m.content, m.category, m.created_at,
       bm25(memory_fts) AS rank
FROM memory_fts
JOIN memory m ON m.id = memory_fts.id
WHERE memory_fts MATCH ?
ORDER BY rank ASC
LIMIT ? OFFSET ?`,
		sanitizeFTSQuery(query), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("memory search: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Path, &r.Title, &r.Content, &r.Category, &r.CreatedAt, &r.Rank); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Get returns a single entry by ID, content included.
func (s *Store) Get(id string) (*Entry, error) {
	var e Entry
	err := s.db.QueryRow(`
		SELECT id, path, title, content, category, created_at
		FROM memory WHERE id = ?`, id).
		Scan(&e.ID, &e.Path, &e.Title, &e.Content, &e.Category, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("memory %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("memory get: %w", err)
	}
	return &e, nil
}

// List returns entry metadata (no content), newest first, optionally
// filtered by category.
func (s *Store) List(category string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT id, path, title, category, created_at FROM memory`
	args := []any{}
	if category != "" {
		q += ` WHERE category = ?`
		args = append(args, category)
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("memory list: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Path, &e.Title, &e.Category, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of indexed entries.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM memory`).Scan(&n); err != nil {
		return 0, fmt.Errorf("memory count: %w", err)
	}
	return n, nil
}

// sanitizeFTSQuery strips characters with FTS5 operator meaning so arbitrary
// user input cannot produce a syntax error.
func sanitizeFTSQuery(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return `""`
	}
	words := strings.Fields(q)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		cleaned := strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || r == '-' || r == '_' {
				return r
			}
			return -1
		}, w)
		if cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}
	if len(tokens) == 0 {
		return `""`
	}
	return strings.Join(tokens, " ")
}
