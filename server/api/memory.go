package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/openclaw/missionctl/memory"
)

func (h *Handlers) searchMemory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, `Query parameter "q" required`)
		return
	}
	limit := intParam(q.Get("limit"), 20)
	offset := intParam(q.Get("offset"), 0)

	results, err := h.Memory.Search(query, limit, offset)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

func (h *Handlers) getMemory(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Memory.Get(r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handlers) listMemory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.Memory.List(q.Get("category"), intParam(q.Get("limit"), 50))
	if err != nil {
		h.fail(w, err)
		return
	}
	if entries == nil {
		entries = []memory.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"memories": entries,
		"count":    len(entries),
	})
}

func (h *Handlers) ingestMemory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path     string `json:"path"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "Valid path required")
		return
	}

	entry, err := h.Memory.Ingest(req.Path, req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Memory ingested",
		"id":      entry.ID,
		"path":    entry.Path,
		"title":   entry.Title,
	})
}

func (h *Handlers) reindexMemory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Directory string `json:"directory"`
		Category  string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Directory == "" {
		writeError(w, http.StatusBadRequest, "Directory required")
		return
	}

	count, err := h.Memory.Reindex(req.Directory, req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "Reindex complete",
		"files_processed": count,
		"directory":       req.Directory,
	})
}

// intParam parses a query parameter, falling back to def for absent or
// malformed values.
func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
