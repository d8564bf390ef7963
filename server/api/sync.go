package api

import (
	"encoding/json"
	"net/http"

	"github.com/openclaw/missionctl/queue"
	"github.com/openclaw/missionctl/task"
)

func (h *Handlers) syncTasks(w http.ResponseWriter, _ *http.Request) {
	rows, modified, err := h.Queue.Read()
	if err != nil {
		h.fail(w, err)
		return
	}
	if rows == nil {
		rows = []queue.Row{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file":          h.Queue.Path(),
		"tasks":         rows,
		"count":         len(rows),
		"last_modified": modified,
	})
}

func (h *Handlers) syncTasksUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.Queue.UpdateRow(req.ID, req.Status, req.Notes); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Task updated",
		"id":      req.ID,
		"status":  req.Status,
		"notes":   req.Notes,
	})
}

// syncReconcile diffs the task store against the mirror file and reports the
// drift. Nothing is rewritten on either side; running it twice in a row
// yields the same report.
func (h *Handlers) syncReconcile(w http.ResponseWriter, _ *http.Request) {
	tasks, err := h.Tasks.List(task.Filter{})
	if err != nil {
		h.fail(w, err)
		return
	}
	rows, _, err := h.Queue.Read()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queue.Reconcile(tasks, rows))
}

func (h *Handlers) syncAgents(w http.ResponseWriter, _ *http.Request) {
	cards, err := h.Agents.List()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agents":    cards,
		"count":     len(cards),
		"directory": h.Agents.Dir(),
	})
}

func (h *Handlers) syncAgent(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Agents.Get(r.PathValue("name"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
