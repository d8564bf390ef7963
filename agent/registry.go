// Package agent implements the file-backed agent registry. Each agent is one
// markdown card in the agents directory; its coarse state is encoded in two
// free-text marker lines ("**State:**" and "**Current Task:**"). The
// directory is re-scanned on every read; there is no cached index.
package agent

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/openclaw/missionctl/internal/fsutil"
)

var (
	// ErrNotFound indicates no card file exists for the agent.
	ErrNotFound = errors.New("agent not found")

	// ErrDirNotFound indicates the agents directory does not exist.
	ErrDirNotFound = errors.New("agents directory not found")
)

var (
	stateRe = regexp.MustCompile(`\*\*State:\*\*\s*(\w+)`)
	taskRe  = regexp.MustCompile(`\*\*Current Task:\*\*\s*(.+)`)
)

// StateUnknown is reported when a card has no State marker.
const StateUnknown = "unknown"

// Card is the parsed view of one agent document.
type Card struct {
	Name         string    `json:"name"`
	State        string    `json:"state"`
	CurrentTask  *string   `json:"current_task"`
	CardPath     string    `json:"card_path"`
	LastModified time.Time `json:"last_modified"`
}

// Document is the raw content of one agent card.
type Document struct {
	Name         string    `json:"name"`
	Card         string    `json:"card"`
	CardPath     string    `json:"card_path"`
	LastModified time.Time `json:"last_modified"`
}

// Update is a partial change to an agent card. Nil pointers leave the
// corresponding marker untouched.
type Update struct {
	State       *string `json:"state,omitempty"`
	CurrentTask *string `json:"current_task,omitempty"`
}

// Registry reads and writes agent cards under a fixed directory.
type Registry struct {
	dir string
}

// NewRegistry creates a registry over dir. The directory is not created;
// reads against a missing directory report ErrDirNotFound.
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir}
}

// Dir returns the agents directory path.
func (r *Registry) Dir() string { return r.dir }

// List scans the directory and parses every .md card. Cards with missing
// markers are still listed: state defaults to "unknown" and current_task to
// nil.
func (r *Registry) List() ([]Card, error) {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", r.dir, ErrDirNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read agents dir: %w", err)
	}

	cards := []Card{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read agent card %s: %w", path, err)
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat agent card %s: %w", path, err)
		}
		card := parseCard(string(content))
		card.Name = strings.TrimSuffix(entry.Name(), ".md")
		card.CardPath = path
		card.LastModified = info.ModTime()
		cards = append(cards, card)
	}
	return cards, nil
}

// Get returns the raw card document for one agent.
func (r *Registry) Get(name string) (*Document, error) {
	path := r.cardPath(name)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("agent %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stat agent card: %w", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent card: %w", err)
	}
	return &Document{
		Name:         name,
		Card:         string(content),
		CardPath:     path,
		LastModified: info.ModTime(),
	}, nil
}

// Apply writes a partial update to the agent's card. A supplied non-empty
// state replaces the State marker's value in place; an empty state is
// ignored. A supplied current_task
// replaces the Current Task value only if the marker already exists; when
// the marker is absent the field is silently skipped. An empty current_task
// writes "none".
func (r *Registry) Apply(name string, u Update) error {
	path := r.cardPath(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("agent %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read agent card: %w", err)
	}
	content := string(data)

	// An empty state would strip the marker's value and leave it
	// unparseable, so it is skipped rather than written.
	if u.State != nil && *u.State != "" {
		content = replaceFirst(content, stateRe, "**State:** "+*u.State)
	}
	if u.CurrentTask != nil {
		value := *u.CurrentTask
		if value == "" {
			value = "none"
		}
		if taskRe.MatchString(content) {
			content = replaceFirst(content, taskRe, "**Current Task:** "+value)
		}
	}

	return fsutil.AtomicWrite(path, []byte(content), 0o644)
}

func (r *Registry) cardPath(name string) string {
	return filepath.Join(r.dir, name+".md")
}

// parseCard extracts the marker values from a card body.
func parseCard(content string) Card {
	card := Card{State: StateUnknown}
	if m := stateRe.FindStringSubmatch(content); m != nil {
		card.State = m[1]
	}
	if m := taskRe.FindStringSubmatch(content); m != nil {
		value := strings.TrimSpace(m[1])
		card.CurrentTask = &value
	}
	return card
}

// replaceFirst substitutes only the first match of re, mirroring the
// single-replacement semantics the card format was designed around.
func replaceFirst(content string, re *regexp.Regexp, replacement string) string {
	loc := re.FindStringIndex(content)
	if loc == nil {
		return content
	}
	return content[:loc[0]] + replacement + content[loc[1]:]
}
