package queue

import "github.com/openclaw/missionctl/task"

// Conflict records a field whose value differs between the task store and
// the mirror file for the same task ID.
type Conflict struct {
	ID    string `json:"id"`
	Field string `json:"field"`
	Store string `json:"store"`
	File  string `json:"file"`
}

// Report summarizes the drift between the task store and the mirror file.
// Reconciliation only reports; it never rewrites either side.
type Report struct {
	MissingInStore []string   `json:"missing_in_store"`
	MissingInFile  []string   `json:"missing_in_file"`
	Conflicts      []Conflict `json:"conflicts"`
	InSync         int        `json:"in_sync"`
}

// Reconcile diffs store tasks against mirror rows by ID. The comparison
// covers the mirrored fields only: title, assignee, and status. Archived
// tasks absent from the file are not flagged, since the mirror drops
// finished work.
func Reconcile(tasks []*task.Task, rows []Row) Report {
	report := Report{
		MissingInStore: []string{},
		MissingInFile:  []string{},
		Conflicts:      []Conflict{},
	}

	byID := make(map[string]*task.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		seen[r.ID] = true
		t, ok := byID[r.ID]
		if !ok {
			report.MissingInStore = append(report.MissingInStore, r.ID)
			continue
		}
		conflicts := false
		if t.Title != r.Title {
			report.Conflicts = append(report.Conflicts, Conflict{ID: r.ID, Field: "title", Store: t.Title, File: r.Title})
			conflicts = true
		}
		if t.Assignee != r.Assignee {
			report.Conflicts = append(report.Conflicts, Conflict{ID: r.ID, Field: "assignee", Store: t.Assignee, File: r.Assignee})
			conflicts = true
		}
		if string(t.Status) != r.Status {
			report.Conflicts = append(report.Conflicts, Conflict{ID: r.ID, Field: "status", Store: string(t.Status), File: r.Status})
			conflicts = true
		}
		if !conflicts {
			report.InSync++
		}
	}

	for _, t := range tasks {
		if !seen[t.ID] && t.Status != task.StatusArchived {
			report.MissingInFile = append(report.MissingInFile, t.ID)
		}
	}
	return report
}
