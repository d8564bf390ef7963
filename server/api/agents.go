package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openclaw/missionctl/agent"
)

func (h *Handlers) listAgents(w http.ResponseWriter, _ *http.Request) {
	cards, err := h.Agents.List()
	if errors.Is(err, agent.ErrDirNotFound) {
		// A missing agents directory just means no agents yet.
		cards = []agent.Card{}
	} else if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agents": cards,
		"count":  len(cards),
	})
}

func (h *Handlers) getAgent(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Agents.Get(r.PathValue("name"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handlers) updateAgent(w http.ResponseWriter, r *http.Request) {
	var u agent.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	name := r.PathValue("name")
	if err := h.Agents.Apply(name, u); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Agent updated",
		"name":         name,
		"state":        u.State,
		"current_task": u.CurrentTask,
	})
}
