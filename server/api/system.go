package api

import (
	"net/http"
	"runtime"
	"time"
)

func (h *Handlers) systemHealth(w http.ResponseWriter, _ *http.Request) {
	integrity, err := h.System.IntegrityCheck()
	if err != nil {
		h.fail(w, err)
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.Version,
		"memory": map[string]any{
			"heap_used_mb":  mem.HeapAlloc / 1024 / 1024,
			"heap_total_mb": mem.HeapSys / 1024 / 1024,
			"sys_mb":        mem.Sys / 1024 / 1024,
		},
		"database": map[string]any{
			"status": integrity,
		},
		"system": map[string]any{
			"platform":   runtime.GOOS,
			"arch":       runtime.GOARCH,
			"cpus":       runtime.NumCPU(),
			"goroutines": runtime.NumGoroutine(),
		},
	})
}

func (h *Handlers) systemMetrics(w http.ResponseWriter, _ *http.Request) {
	counts, err := h.System.TableCounts()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"tables":       counts,
		"total_tables": len(counts),
	})
}

func (h *Handlers) systemStatus(w http.ResponseWriter, _ *http.Request) {
	active, err := h.System.ActiveTaskCount()
	if err != nil {
		h.fail(w, err)
		return
	}
	memories, err := h.Memory.Count()
	if err != nil {
		h.fail(w, err)
		return
	}
	agents := 0
	if cards, err := h.Agents.List(); err == nil {
		agents = len(cards)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"tasks":     map[string]any{"active": active},
		"memory":    map[string]any{"count": memories},
		"agents":    map[string]any{"count": agents},
	})
}
