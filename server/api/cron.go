package api

import (
	"errors"
	"net/http"

	"github.com/openclaw/missionctl/cron"
)

func (h *Handlers) listCronJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Cron.Jobs(r.Context())
	if err != nil {
		h.failCron(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(jobs),
		"jobs":    jobs,
	})
}

func (h *Handlers) getCronJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Cron.Job(r.Context(), r.PathValue("id"))
	if err != nil {
		h.failCron(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"job":     job,
	})
}

func (h *Handlers) cronJobRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Cron.Runs(r.Context(), r.PathValue("id"), intParam(r.URL.Query().Get("limit"), 10))
	if err != nil {
		h.failCron(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(runs),
		"runs":    runs,
	})
}

func (h *Handlers) triggerCronJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	output, err := h.Cron.Trigger(r.Context(), id)
	if err != nil {
		h.failCron(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Cron job " + id + " triggered",
		"output":  output,
	})
}

func (h *Handlers) cronStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Cron.Status(r.Context())
	if err != nil {
		h.failCron(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  status,
	})
}

// failCron annotates CLI failures with a pointer at the usual cause.
func (h *Handlers) failCron(w http.ResponseWriter, err error) {
	if errors.Is(err, cron.ErrJobNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"error":   err.Error(),
		"note":    cron.Note,
	})
}
