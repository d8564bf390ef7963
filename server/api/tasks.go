package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/openclaw/missionctl/task"
)

func (h *Handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := task.Filter{
		Status:   task.Status(q.Get("status")),
		Priority: task.Priority(q.Get("priority")),
		Assignee: q.Get("assignee"),
		Category: q.Get("category"),
	}

	tasks, err := h.Tasks.List(filter)
	if err != nil {
		h.fail(w, err)
		return
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	})
}

func (h *Handlers) getTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tasks.Get(r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type createTaskRequest struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Priority    task.Priority `json:"priority"`
	Assignee    string        `json:"assignee"`
	Category    string        `json:"category"`
	DueDate     *time.Time    `json:"due_date"`
}

func (h *Handlers) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t := &task.Task{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Assignee:    req.Assignee,
		Category:    req.Category,
		DueDate:     req.DueDate,
	}
	if err := h.Tasks.Create(t); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) updateTask(w http.ResponseWriter, r *http.Request) {
	var fields task.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t, err := h.Tasks.Update(r.PathValue("id"), fields)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) archiveTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, err := h.Tasks.Archive(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Task archived",
		"id":      id,
		"task":    t,
	})
}

func (h *Handlers) taskRelationships(w http.ResponseWriter, r *http.Request) {
	deps, err := h.Tasks.Relationships(r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if deps == nil {
		deps = []task.Dependency{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"dependencies": deps})
}

func (h *Handlers) addTaskDependency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DependsOn string `json:"depends_on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id := r.PathValue("id")
	if err := h.Tasks.AddDependency(id, req.DependsOn); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Dependency created",
		"task_id":    id,
		"depends_on": req.DependsOn,
	})
}

func (h *Handlers) addTaskLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LinkType string `json:"link_type"`
		LinkURL  string `json:"link_url"`
		LinkText string `json:"link_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id, err := h.Tasks.AddLink(&task.Link{
		TaskID:   r.PathValue("id"),
		LinkType: req.LinkType,
		LinkURL:  req.LinkURL,
		LinkText: req.LinkText,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Link created",
		"id":      id,
	})
}
