package server

import (
	"encoding/json"
	"net/http"

	"github.com/nullgraph/brain/internal/brain"
)

// statsHandler serves GET /api/stats: get_stats() over HTTP (spec.md §6).
type statsHandler struct {
	brain *brain.Brain
}

func newStatsHandler(b *brain.Brain) *statsHandler {
	return &statsHandler{brain: b}
}

func (h *statsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.brain.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
