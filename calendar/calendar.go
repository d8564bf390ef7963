// Package calendar persists calendar events and recurring templates. It has
// the same CRUD shape as the task store but no lifecycle notification.
package calendar

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for the API boundary.
var (
	ErrNotFound      = errors.New("event not found")
	ErrMissingFields = errors.New("missing required fields: id, title, datetime")
)

// Event is a single calendar entry. Datetime strings are stored as given;
// ordering and range filters compare them lexically (ISO 8601 by
// convention).
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Datetime    string   `json:"datetime"`
	Duration    int      `json:"duration"`
	Recurring   bool     `json:"recurring"`
	RecurringID string   `json:"recurring_id,omitempty"`
	Source      string   `json:"source"`
	Category    string   `json:"category"`
	Reminders   []int    `json:"reminders"`
	Notes       string   `json:"notes,omitempty"`
	AllDay      bool     `json:"all_day"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

// Template is a recurring event template.
type Template struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Frequency string `json:"frequency"`
	Time      string `json:"time"`
	Duration  int    `json:"duration"`
	Category  string `json:"category"`
	Reminders []int  `json:"reminders"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at,omitempty"`
}

// EventFields is a partial event update. Nil pointers leave the column
// unchanged.
type EventFields struct {
	Title       *string `json:"title,omitempty"`
	Datetime    *string `json:"datetime,omitempty"`
	Duration    *int    `json:"duration,omitempty"`
	Recurring   *bool   `json:"recurring,omitempty"`
	RecurringID *string `json:"recurring_id,omitempty"`
	Source      *string `json:"source,omitempty"`
	Category    *string `json:"category,omitempty"`
	Reminders   *[]int  `json:"reminders,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	AllDay      *bool   `json:"all_day,omitempty"`
}

// ListFilter narrows List results. Zero values impose no constraint.
type ListFilter struct {
	Category string
	From     string
	To       string
	Limit    int
}

// Store persists calendar events in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore ensures the calendar tables exist on db and returns a Store. The
// caller owns the database handle.
func NewStore(db *sql.DB) (*Store, error) {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS calendar_events (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	datetime     TEXT NOT NULL,
	duration     INTEGER NOT NULL DEFAULT 60,
	recurring    INTEGER NOT NULL DEFAULT 0,
	recurring_id TEXT,
	source       TEXT NOT NULL DEFAULT 'api',
	category     TEXT NOT NULL DEFAULT 'personal',
	reminders    TEXT NOT NULL DEFAULT '[]',
	notes        TEXT,
	all_day      INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS recurring_templates (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	frequency  TEXT NOT NULL,
	time       TEXT NOT NULL DEFAULT '',
	duration   INTEGER NOT NULL DEFAULT 60,
	category   TEXT NOT NULL DEFAULT 'personal',
	reminders  TEXT NOT NULL DEFAULT '[]',
	active     INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);`)
	if err != nil {
		return nil, fmt.Errorf("calendar schema: %w", err)
	}
	return &Store{db: db}, nil
}

const eventColumns = `id, title, datetime, duration, recurring, recurring_id,
	source, category, reminders, notes, all_day, created_at, updated_at`

// Create inserts a new event. ID, title, and datetime are required; an
// empty ID is replaced with a generated UUID before validation by callers
// that permit it.
func (s *Store) Create(e *Event) error {
	if e.ID == "" || e.Title == "" || e.Datetime == "" {
		return ErrMissingFields
	}
	if e.Duration == 0 {
		e.Duration = 60
	}
	if e.Source == "" {
		e.Source = "api"
	}
	if e.Category == "" {
		e.Category = "personal"
	}
	if e.Reminders == nil {
		e.Reminders = []int{}
	}
	reminders, _ := json.Marshal(e.Reminders)

	_, err := s.db.Exec(`
		INSERT INTO calendar_events
			(id, title, datetime, duration, recurring, recurring_id, source,
			 category, reminders, notes, all_day)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.Title, e.Datetime, e.Duration, boolInt(e.Recurring),
		nullString(e.RecurringID), e.Source, e.Category, string(reminders),
		nullString(e.Notes), boolInt(e.AllDay))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// NewEventID returns a fresh event ID for callers that did not supply one.
func NewEventID() string {
	return "evt-" + uuid.New().String()
}

// Get retrieves a single event.
func (s *Store) Get(id string) (*Event, error) {
	row := s.db.QueryRow(`SELECT `+eventColumns+` FROM calendar_events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return e, err
}

// List returns events matching the filter, soonest first.
func (s *Store) List(filter ListFilter) ([]*Event, error) {
	q := strings.Builder{}
	q.WriteString(`SELECT ` + eventColumns + ` FROM calendar_events WHERE 1=1`)
	args := []any{}

	if filter.Category != "" {
		q.WriteString(" AND category = ?")
		args = append(args, filter.Category)
	}
	if filter.From != "" {
		q.WriteString(" AND datetime >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		q.WriteString(" AND datetime <= ?")
		args = append(args, filter.To)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	q.WriteString(" ORDER BY datetime ASC LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.Query(q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Upcoming returns events within the next days days.
func (s *Store) Upcoming(days, limit int) ([]*Event, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = 20
	}
	now := time.Now().UTC()
	return s.List(ListFilter{
		From:  now.Format(time.RFC3339),
		To:    now.AddDate(0, 0, days).Format(time.RFC3339),
		Limit: limit,
	})
}

// Update applies a partial update and reports how many rows changed.
func (s *Store) Update(id string, f EventFields) (int64, error) {
	sets := []string{"updated_at = datetime('now')"}
	args := []any{}

	if f.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *f.Title)
	}
	if f.Datetime != nil {
		sets = append(sets, "datetime = ?")
		args = append(args, *f.Datetime)
	}
	if f.Duration != nil {
		sets = append(sets, "duration = ?")
		args = append(args, *f.Duration)
	}
	if f.Recurring != nil {
		sets = append(sets, "recurring = ?")
		args = append(args, boolInt(*f.Recurring))
	}
	if f.RecurringID != nil {
		sets = append(sets, "recurring_id = ?")
		args = append(args, *f.RecurringID)
	}
	if f.Source != nil {
		sets = append(sets, "source = ?")
		args = append(args, *f.Source)
	}
	if f.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *f.Category)
	}
	if f.Reminders != nil {
		reminders, _ := json.Marshal(*f.Reminders)
		sets = append(sets, "reminders = ?")
		args = append(args, string(reminders))
	}
	if f.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *f.Notes)
	}
	if f.AllDay != nil {
		sets = append(sets, "all_day = ?")
		args = append(args, boolInt(*f.AllDay))
	}

	args = append(args, id)
	res, err := s.db.Exec(`UPDATE calendar_events SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return 0, fmt.Errorf("update event: %w", err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if changed == 0 {
		return 0, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return changed, nil
}

// Delete physically removes an event. Calendar entries have no archive
// semantics.
func (s *Store) Delete(id string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM calendar_events WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete event: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return deleted, nil
}

// Templates returns recurring templates, newest first.
func (s *Store) Templates() ([]*Template, error) {
	rows, err := s.db.Query(`
		SELECT id, title, frequency, time, duration, category, reminders, active, created_at
		FROM recurring_templates ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := []*Template{}
	for rows.Next() {
		var t Template
		var reminders string
		var active int
		if err := rows.Scan(&t.ID, &t.Title, &t.Frequency, &t.Time, &t.Duration,
			&t.Category, &reminders, &active, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Active = active == 1
		if err := json.Unmarshal([]byte(reminders), &t.Reminders); err != nil {
			t.Reminders = []int{}
		}
		templates = append(templates, &t)
	}
	return templates, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for scanEvent.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*Event, error) {
	var e Event
	var recurring, allDay int
	var recurringID, notes sql.NullString
	var reminders string

	err := s.Scan(
		&e.ID, &e.Title, &e.Datetime, &e.Duration, &recurring, &recurringID,
		&e.Source, &e.Category, &reminders, &notes, &allDay,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Recurring = recurring == 1
	e.AllDay = allDay == 1
	e.RecurringID = recurringID.String
	e.Notes = notes.String
	if err := json.Unmarshal([]byte(reminders), &e.Reminders); err != nil {
		e.Reminders = []int{}
	}
	return &e, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
