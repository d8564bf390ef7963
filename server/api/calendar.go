package api

import (
	"encoding/json"
	"net/http"

	"github.com/openclaw/missionctl/calendar"
)

func (h *Handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := h.Calendar.List(calendar.ListFilter{
		Category: q.Get("category"),
		From:     q.Get("from"),
		To:       q.Get("to"),
		Limit:    intParam(q.Get("limit"), 100),
	})
	if err != nil {
		h.failCalendar(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(events),
		"events":  events,
	})
}

func (h *Handlers) getEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.Calendar.Get(r.PathValue("id"))
	if err != nil {
		h.failCalendar(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"event":   e,
	})
}

func (h *Handlers) createEvent(w http.ResponseWriter, r *http.Request) {
	var e calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeCalendarError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if e.ID == "" {
		e.ID = calendar.NewEventID()
	}
	if err := h.Calendar.Create(&e); err != nil {
		h.failCalendar(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"event":   e,
	})
}

func (h *Handlers) updateEvent(w http.ResponseWriter, r *http.Request) {
	var f calendar.EventFields
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeCalendarError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	updated, err := h.Calendar.Update(r.PathValue("id"), f)
	if err != nil {
		h.failCalendar(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"updated": updated,
	})
}

func (h *Handlers) deleteEvent(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Calendar.Delete(r.PathValue("id"))
	if err != nil {
		h.failCalendar(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"deleted": deleted,
	})
}

func (h *Handlers) listTemplates(w http.ResponseWriter, _ *http.Request) {
	templates, err := h.Calendar.Templates()
	if err != nil {
		h.failCalendar(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"count":     len(templates),
		"templates": templates,
	})
}

func (h *Handlers) upcomingEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := h.Calendar.Upcoming(intParam(q.Get("days"), 7), intParam(q.Get("limit"), 20))
	if err != nil {
		h.failCalendar(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(events),
		"events":  events,
	})
}

// Calendar responses carry a success flag alongside the error message.
func (h *Handlers) failCalendar(w http.ResponseWriter, err error) {
	writeCalendarError(w, errStatus(err), err.Error())
}

func writeCalendarError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
	})
}
