package task

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'NEW',
	priority     TEXT NOT NULL DEFAULT 'MEDIUM',
	assignee     TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	due_date     DATETIME,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS task_dependencies (
	task_id    TEXT NOT NULL,
	depends_on TEXT NOT NULL,
	PRIMARY KEY (task_id, depends_on)
);

CREATE TABLE IF NOT EXISTS task_links (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id    TEXT NOT NULL,
	link_type  TEXT NOT NULL DEFAULT '',
	link_url   TEXT NOT NULL DEFAULT '',
	link_text  TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
`

const taskColumns = `id, title, description, status, priority, assignee, category,
	due_date, created_at, updated_at, completed_at`

// SQLiteStore persists tasks in a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// AllowCycles permits self-referential and cyclic dependency edges.
	AllowCycles bool
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the task tables exist. The caller is responsible for calling Close.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying handle so sibling stores can share one database file.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Create persists a new task under its caller-supplied ID, setting CreatedAt
// and UpdatedAt. A duplicate ID yields ErrConflict.
func (s *SQLiteStore) Create(t *Task) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO tasks
			(id, title, description, status, priority, assignee, category,
			 due_date, created_at, updated_at, completed_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority),
		t.Assignee, t.Category,
		nullTime(t.DueDate), t.CreatedAt, t.UpdatedAt, nullTime(t.CompletedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("task %s: %w", t.ID, ErrConflict)
		}
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Get retrieves a task by ID.
func (s *SQLiteStore) Get(id string) (*Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return t, err
}

// UpdateFields applies a partial update inside a single transaction: the
// prior status is read, exactly one UPDATE runs, and the row is re-read, so
// concurrent updates cannot interleave between the status check and the
// write. UpdatedAt is always refreshed.
func (s *SQLiteStore) UpdateFields(id string, f Fields) (Status, *Task, error) {
	if f.Empty() {
		return "", nil, ErrEmptyUpdate
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var prior Status
	err = tx.QueryRow(`SELECT status FROM tasks WHERE id = ?`, id).Scan(&prior)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", nil, fmt.Errorf("read task %s: %w", id, err)
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if f.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *f.Title)
	}
	if f.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *f.Description)
	}
	if f.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*f.Status))
		if *f.Status == StatusCompleted && prior != StatusCompleted {
			sets = append(sets, "completed_at = ?")
			args = append(args, time.Now().UTC())
		}
	}
	if f.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, string(*f.Priority))
	}
	if f.Assignee != nil {
		sets = append(sets, "assignee = ?")
		args = append(args, *f.Assignee)
	}
	if f.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *f.Category)
	}
	if f.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, *f.DueDate)
	}

	args = append(args, id)
	if _, err := tx.Exec(`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return "", nil, fmt.Errorf("update task %s: %w", id, err)
	}

	t, err := scanTask(tx.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return "", nil, fmt.Errorf("reread task %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return "", nil, fmt.Errorf("commit update: %w", err)
	}
	return prior, t, nil
}

// Archive unconditionally sets the task's status to ARCHIVED. The record is
// preserved; archiving an already-archived task succeeds.
func (s *SQLiteStore) Archive(id string) (*Task, error) {
	res, err := s.db.Exec(`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(StatusArchived), time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("archive task %s: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return s.Get(id)
}

// List returns tasks matching the filter, newest first. Omitted filter
// fields impose no constraint.
func (s *SQLiteStore) List(filter Filter) ([]*Task, error) {
	q := strings.Builder{}
	q.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`)
	args := []any{}

	if filter.Status != "" {
		q.WriteString(" AND status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		q.WriteString(" AND priority = ?")
		args = append(args, string(filter.Priority))
	}
	if filter.Assignee != "" {
		q.WriteString(" AND assignee = ?")
		args = append(args, filter.Assignee)
	}
	if filter.Category != "" {
		q.WriteString(" AND category = ?")
		args = append(args, filter.Category)
	}
	q.WriteString(" ORDER BY created_at DESC")

	rows, err := s.db.Query(q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Relationships returns every dependency edge where id is either the
// dependent or the dependency target.
func (s *SQLiteStore) Relationships(id string) ([]Dependency, error) {
	rows, err := s.db.Query(`
		SELECT task_id, depends_on FROM task_dependencies
		WHERE task_id = ? OR depends_on = ?`, id, id)
	if err != nil {
		return nil, fmt.Errorf("task relationships: %w", err)
	}
	defer rows.Close()

	var deps []Dependency
	for rows.Next() {
		var d Dependency
		if err := rows.Scan(&d.TaskID, &d.DependsOn); err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// AddDependency records an edge from taskID to dependsOn. Unless AllowCycles
// is set, self-edges and edges that would close a cycle are rejected with
// ErrCycle.
func (s *SQLiteStore) AddDependency(taskID, dependsOn string) error {
	if !s.AllowCycles {
		if taskID == dependsOn {
			return fmt.Errorf("%s -> %s: %w", taskID, dependsOn, ErrCycle)
		}
		reachable, err := s.reaches(dependsOn, taskID)
		if err != nil {
			return err
		}
		if reachable {
			return fmt.Errorf("%s -> %s: %w", taskID, dependsOn, ErrCycle)
		}
	}

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO task_dependencies (task_id, depends_on)
		VALUES (?, ?)`, taskID, dependsOn)
	if err != nil {
		return fmt.Errorf("add dependency: %w", err)
	}
	return nil
}

// reaches reports whether target is reachable from start by following
// depends_on edges.
func (s *SQLiteStore) reaches(start, target string) (bool, error) {
	rows, err := s.db.Query(`SELECT task_id, depends_on FROM task_dependencies`)
	if err != nil {
		return false, fmt.Errorf("load dependencies: %w", err)
	}
	defer rows.Close()

	edges := make(map[string][]string)
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return false, err
		}
		edges[from] = append(edges[from], to)
	}
	if err := rows.Err(); err != nil {
		return false, err
	}

	seen := map[string]bool{start: true}
	frontier := []string{start}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		if cur == target {
			return true, nil
		}
		for _, next := range edges[cur] {
			if !seen[next] {
				seen[next] = true
				frontier = append(frontier, next)
			}
		}
	}
	return false, nil
}

// AddLink appends a link row and returns the generated ID.
func (s *SQLiteStore) AddLink(l *Link) (int64, error) {
	l.CreatedAt = time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO task_links (task_id, link_type, link_url, link_text, created_at)
		VALUES (?,?,?,?,?)`,
		l.TaskID, l.LinkType, l.LinkURL, l.LinkText, l.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert link: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	l.ID = id
	return id, nil
}

// TableCounts returns the row count of every user table in the database.
func (s *SQLiteStore) TableCounts() (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(names))
	for _, name := range names {
		var n int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + name).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		counts[name] = n
	}
	return counts, nil
}

// IntegrityCheck runs SQLite's integrity check and returns its verdict.
func (s *SQLiteStore) IntegrityCheck() (string, error) {
	var verdict string
	if err := s.db.QueryRow(`PRAGMA integrity_check`).Scan(&verdict); err != nil {
		return "", fmt.Errorf("integrity check: %w", err)
	}
	return verdict, nil
}

// ActiveTaskCount counts tasks not yet completed or archived.
func (s *SQLiteStore) ActiveTaskCount() (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM tasks WHERE status NOT IN (?, ?)`,
		string(StatusCompleted), string(StatusArchived)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("active task count: %w", err)
	}
	return n, nil
}

// scanner abstracts sql.Row and sql.Rows for scanTask.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*Task, error) {
	var t Task
	var status, priority string
	var dueDate, completedAt sql.NullTime

	err := s.Scan(
		&t.ID, &t.Title, &t.Description, &status, &priority,
		&t.Assignee, &t.Category,
		&dueDate, &t.CreatedAt, &t.UpdatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = Status(status)
	t.Priority = Priority(priority)
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
