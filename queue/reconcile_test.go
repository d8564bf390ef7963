package queue

import (
	"testing"

	"github.com/openclaw/missionctl/task"
)

func TestReconcile_InSync(t *testing.T) {
	tasks := []*task.Task{
		{ID: "T1", Title: "a", Assignee: "olex", Status: task.StatusNew},
	}
	rows := []Row{
		{ID: "T1", Title: "a", Assignee: "olex", Status: "NEW"},
	}

	report := Reconcile(tasks, rows)
	if report.InSync != 1 {
		t.Errorf("InSync = %d, want 1", report.InSync)
	}
	if len(report.Conflicts) != 0 || len(report.MissingInStore) != 0 || len(report.MissingInFile) != 0 {
		t.Errorf("unexpected drift: %+v", report)
	}
}

func TestReconcile_Conflicts(t *testing.T) {
	tasks := []*task.Task{
		{ID: "T1", Title: "a", Assignee: "olex", Status: task.StatusInProgress},
	}
	rows := []Row{
		{ID: "T1", Title: "b", Assignee: "olex", Status: "NEW"},
	}

	report := Reconcile(tasks, rows)
	if report.InSync != 0 {
		t.Errorf("InSync = %d, want 0", report.InSync)
	}
	if len(report.Conflicts) != 2 {
		t.Fatalf("Conflicts = %+v, want title and status", report.Conflicts)
	}
	if report.Conflicts[0].Field != "title" || report.Conflicts[0].Store != "a" || report.Conflicts[0].File != "b" {
		t.Errorf("Conflicts[0] = %+v", report.Conflicts[0])
	}
	if report.Conflicts[1].Field != "status" {
		t.Errorf("Conflicts[1] = %+v", report.Conflicts[1])
	}
}

func TestReconcile_Missing(t *testing.T) {
	tasks := []*task.Task{
		{ID: "T1", Title: "a", Status: task.StatusNew},
		{ID: "T2", Title: "b", Status: task.StatusArchived},
	}
	rows := []Row{
		{ID: "T9", Title: "ghost", Status: "NEW"},
	}

	report := Reconcile(tasks, rows)
	if len(report.MissingInStore) != 1 || report.MissingInStore[0] != "T9" {
		t.Errorf("MissingInStore = %v, want [T9]", report.MissingInStore)
	}
	// T1 is live and absent from the file; archived T2 is not flagged.
	if len(report.MissingInFile) != 1 || report.MissingInFile[0] != "T1" {
		t.Errorf("MissingInFile = %v, want [T1]", report.MissingInFile)
	}
}

func TestReconcile_Empty(t *testing.T) {
	report := Reconcile(nil, nil)
	if report.MissingInStore == nil || report.MissingInFile == nil || report.Conflicts == nil {
		t.Error("report slices must be non-nil for JSON encoding")
	}
	if report.InSync != 0 {
		t.Errorf("InSync = %d, want 0", report.InSync)
	}
}
