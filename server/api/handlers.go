// Package api implements the versioned REST handlers for mission control.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/openclaw/missionctl/agent"
	"github.com/openclaw/missionctl/calendar"
	"github.com/openclaw/missionctl/cron"
	"github.com/openclaw/missionctl/memory"
	"github.com/openclaw/missionctl/queue"
	"github.com/openclaw/missionctl/task"
)

// TaskService is the task orchestration surface the handlers depend on.
type TaskService interface {
	List(filter task.Filter) ([]*task.Task, error)
	Get(id string) (*task.Task, error)
	Create(t *task.Task) error
	Update(id string, f task.Fields) (*task.Task, error)
	Archive(id string) (*task.Task, error)
	Relationships(id string) ([]task.Dependency, error)
	AddDependency(taskID, dependsOn string) error
	AddLink(l *task.Link) (int64, error)
}

// AgentRegistry is the file-backed agent card surface.
type AgentRegistry interface {
	Dir() string
	List() ([]agent.Card, error)
	Get(name string) (*agent.Document, error)
	Apply(name string, u agent.Update) error
}

// QueueFile is the task queue mirror surface.
type QueueFile interface {
	Path() string
	Read() ([]queue.Row, time.Time, error)
	UpdateRow(id, status, notes string) error
}

// MemoryIndex is the full-text memory surface.
type MemoryIndex interface {
	Ingest(path, category string) (*memory.Entry, error)
	Reindex(dir, category string) (int, error)
	Search(query string, limit, offset int) ([]memory.Result, error)
	Get(id string) (*memory.Entry, error)
	List(category string, limit int) ([]memory.Entry, error)
	Count() (int, error)
}

// CalendarStore is the calendar CRUD surface.
type CalendarStore interface {
	Create(e *calendar.Event) error
	Get(id string) (*calendar.Event, error)
	List(filter calendar.ListFilter) ([]*calendar.Event, error)
	Upcoming(days, limit int) ([]*calendar.Event, error)
	Update(id string, f calendar.EventFields) (int64, error)
	Delete(id string) (int64, error)
	Templates() ([]*calendar.Template, error)
}

// CronRunner is the scheduler CLI surface.
type CronRunner interface {
	Jobs(ctx context.Context) ([]cron.Job, error)
	Job(ctx context.Context, id string) (*cron.Job, error)
	Runs(ctx context.Context, id string, limit int) ([]cron.Run, error)
	Trigger(ctx context.Context, id string) (string, error)
	Status(ctx context.Context) (json.RawMessage, error)
}

// SystemInfo exposes store-level diagnostics for the system endpoints.
type SystemInfo interface {
	TableCounts() (map[string]int, error)
	IntegrityCheck() (string, error)
	ActiveTaskCount() (int, error)
}

// Handlers bundles all REST API handler dependencies.
type Handlers struct {
	Tasks    TaskService
	Agents   AgentRegistry
	Queue    QueueFile
	Memory   MemoryIndex
	Calendar CalendarStore
	Cron     CronRunner
	System   SystemInfo
	Logger   *slog.Logger
	Version  string
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/tasks", h.listTasks)
	mux.HandleFunc("POST /api/v1/tasks", h.createTask)
	mux.HandleFunc("GET /api/v1/tasks/{id}", h.getTask)
	mux.HandleFunc("PATCH /api/v1/tasks/{id}", h.updateTask)
	mux.HandleFunc("DELETE /api/v1/tasks/{id}", h.archiveTask)
	mux.HandleFunc("GET /api/v1/tasks/{id}/relationships", h.taskRelationships)
	mux.HandleFunc("POST /api/v1/tasks/{id}/dependencies", h.addTaskDependency)
	mux.HandleFunc("POST /api/v1/tasks/{id}/links", h.addTaskLink)

	mux.HandleFunc("GET /api/v1/agents", h.listAgents)
	mux.HandleFunc("GET /api/v1/agents/{name}", h.getAgent)
	mux.HandleFunc("PATCH /api/v1/agents/{name}", h.updateAgent)

	mux.HandleFunc("GET /api/v1/sync/tasks", h.syncTasks)
	mux.HandleFunc("POST /api/v1/sync/tasks/update", h.syncTasksUpdate)
	mux.HandleFunc("POST /api/v1/sync/reconcile", h.syncReconcile)
	mux.HandleFunc("GET /api/v1/sync/agents", h.syncAgents)
	mux.HandleFunc("GET /api/v1/sync/agents/{name}", h.syncAgent)

	mux.HandleFunc("GET /api/v1/memory", h.listMemory)
	mux.HandleFunc("GET /api/v1/memory/search", h.searchMemory)
	mux.HandleFunc("GET /api/v1/memory/{id}", h.getMemory)
	mux.HandleFunc("POST /api/v1/memory/ingest", h.ingestMemory)
	mux.HandleFunc("POST /api/v1/memory/reindex", h.reindexMemory)

	mux.HandleFunc("GET /api/v1/calendar/events", h.listEvents)
	mux.HandleFunc("POST /api/v1/calendar/events", h.createEvent)
	mux.HandleFunc("GET /api/v1/calendar/events/{id}", h.getEvent)
	mux.HandleFunc("PUT /api/v1/calendar/events/{id}", h.updateEvent)
	mux.HandleFunc("DELETE /api/v1/calendar/events/{id}", h.deleteEvent)
	mux.HandleFunc("GET /api/v1/calendar/recurring", h.listTemplates)
	mux.HandleFunc("GET /api/v1/calendar/upcoming", h.upcomingEvents)

	mux.HandleFunc("GET /api/v1/cron/jobs", h.listCronJobs)
	mux.HandleFunc("GET /api/v1/cron/jobs/{id}", h.getCronJob)
	mux.HandleFunc("GET /api/v1/cron/jobs/{id}/runs", h.cronJobRuns)
	mux.HandleFunc("POST /api/v1/cron/jobs/{id}/run", h.triggerCronJob)
	mux.HandleFunc("GET /api/v1/cron/status", h.cronStatus)

	mux.HandleFunc("GET /api/v1/system/health", h.systemHealth)
	mux.HandleFunc("GET /api/v1/system/metrics", h.systemMetrics)
	mux.HandleFunc("GET /api/v1/system/status", h.systemStatus)
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps a typed error to its HTTP status and writes the error envelope.
// Unrecognized errors surface verbatim as 500s.
func (h *Handlers) fail(w http.ResponseWriter, err error) {
	writeError(w, errStatus(err), err.Error())
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, task.ErrNotFound),
		errors.Is(err, queue.ErrNotFound),
		errors.Is(err, queue.ErrRowNotFound),
		errors.Is(err, agent.ErrNotFound),
		errors.Is(err, agent.ErrDirNotFound),
		errors.Is(err, memory.ErrNotFound),
		errors.Is(err, calendar.ErrNotFound),
		errors.Is(err, cron.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, task.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, task.ErrEmptyUpdate),
		errors.Is(err, task.ErrMissingTitle),
		errors.Is(err, task.ErrMissingID),
		errors.Is(err, task.ErrInvalidStatus),
		errors.Is(err, task.ErrInvalidPriority),
		errors.Is(err, task.ErrCycle),
		errors.Is(err, queue.ErrMissingID),
		errors.Is(err, calendar.ErrMissingFields):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
