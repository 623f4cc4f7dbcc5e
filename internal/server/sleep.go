package server

import (
	"encoding/json"
	"net/http"

	"github.com/nullgraph/brain/internal/brain"
	"github.com/nullgraph/brain/web/handlers"
)

// sleepHandler serves POST /api/sleep: sleep_cycle() over HTTP (spec.md §6
// "sleep_cycle"), broadcasting start/complete events over the WebSocket hub
// so a dashboard can show progress without polling.
type sleepHandler struct {
	brain *brain.Brain
	hub   *handlers.WebSocketHub
}

func newSleepHandler(b *brain.Brain, hub *handlers.WebSocketHub) *sleepHandler {
	return &sleepHandler{brain: b, hub: hub}
}

func (h *sleepHandler) Post(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var phases []string
	if p := r.URL.Query()["phase"]; len(p) > 0 {
		phases = p
	}

	h.hub.Broadcast(map[string]interface{}{"type": "sleep_cycle_started", "phases": phases})

	results, err := h.brain.SleepCycle(r.Context(), phases)
	if err != nil {
		h.hub.Broadcast(map[string]interface{}{"type": "sleep_cycle_failed", "error": err.Error()})
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.hub.Broadcast(map[string]interface{}{"type": "sleep_cycle_complete", "results": results})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
}
