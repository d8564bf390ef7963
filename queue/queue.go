// Package queue reads and writes the TASK-QUEUE.md mirror file, a
// human-editable markdown table projecting a subset of task fields. The
// mirror has no transactional link to the task store; drift between the two
// is reported by Reconcile, never auto-resolved.
package queue

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openclaw/missionctl/internal/fsutil"
)

var (
	// ErrNotFound indicates the mirror file does not exist.
	ErrNotFound = errors.New("task queue file not found")

	// ErrRowNotFound indicates no table row matches the requested ID.
	ErrRowNotFound = errors.New("task not found in queue file")

	// ErrMissingID indicates an update request without a task ID.
	ErrMissingID = errors.New("task id is required")
)

// Row is one task entry in the mirror table.
type Row struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Assignee string `json:"assignee"`
	Status   string `json:"status"`
	Notes    string `json:"notes"`
}

// File is a handle to the mirror file at a fixed path.
type File struct {
	path string
}

// NewFile creates a handle for the mirror at path. The file is re-read on
// every operation; there is no cached state.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the mirror file's path.
func (f *File) Path() string { return f.path }

// Read parses the mirror table and returns its rows plus the file's
// modification time.
func (f *File) Read() ([]Row, time.Time, error) {
	info, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, time.Time{}, fmt.Errorf("%s: %w", f.path, ErrNotFound)
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("stat queue file: %w", err)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read queue file: %w", err)
	}
	return Parse(string(data)), info.ModTime(), nil
}

// Parse extracts task rows from the markdown table in content. The table
// starts at the "| ID |" header row; body rows begin with "| T". A row must
// yield at least five non-empty columns (id, title, assignee, status,
// notes); excess columns are ignored. The table region ends at the first
// non-pipe line after the header.
func Parse(content string) []Row {
	var rows []Row
	inTable := false

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "| ID |") {
			inTable = true
			continue
		}
		if !inTable {
			continue
		}
		if !strings.HasPrefix(line, "|") {
			inTable = false
			continue
		}
		if !strings.HasPrefix(line, "| T") {
			continue
		}
		cols := splitColumns(line)
		if len(cols) < 5 {
			continue
		}
		rows = append(rows, Row{
			ID:       cols[0],
			Title:    cols[1],
			Assignee: cols[2],
			Status:   cols[3],
			Notes:    cols[4],
		})
	}
	return rows
}

// splitColumns splits a table line on pipes, trims each cell, and drops
// empty segments (including the artifacts of leading/trailing pipes).
func splitColumns(line string) []string {
	var cols []string
	for _, part := range strings.Split(line, "|") {
		part = strings.TrimSpace(part)
		if part != "" {
			cols = append(cols, part)
		}
	}
	return cols
}

// UpdateRow rewrites the status and/or notes cells of the first row whose ID
// matches. Empty arguments leave the corresponding cell unchanged. The row
// is re-emitted from its parsed form, so the column layout on write always
// matches the layout Parse reads.
func (f *File) UpdateRow(id, status, notes string) error {
	if id == "" {
		return ErrMissingID
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", f.path, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read queue file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	updated := false
	prefix := "| " + id + " |"

	for i, line := range lines {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		cols := splitColumns(line)
		if len(cols) < 5 {
			continue
		}
		if status != "" {
			cols[3] = status
		}
		if notes != "" {
			cols[4] = notes
		}
		lines[i] = formatRow(Row{
			ID:       cols[0],
			Title:    cols[1],
			Assignee: cols[2],
			Status:   cols[3],
			Notes:    cols[4],
		})
		updated = true
		break
	}
	if !updated {
		return fmt.Errorf("task %s: %w", id, ErrRowNotFound)
	}

	return fsutil.AtomicWrite(f.path, []byte(strings.Join(lines, "\n")), 0o644)
}

// formatRow renders a row as a markdown table line.
func formatRow(r Row) string {
	return fmt.Sprintf("| %s | %s | %s | %s | %s |", r.ID, r.Title, r.Assignee, r.Status, r.Notes)
}
