package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nullgraph/brain/internal/brain"
	"github.com/nullgraph/brain/internal/retrieval"
)

// searchHandler serves GET /api/search: retrieve() over HTTP (spec.md §6
// "retrieve"), accepting the same parameters the CLI's recall command does.
type searchHandler struct {
	brain *brain.Brain
}

func newSearchHandler(b *brain.Brain) *searchHandler {
	return &searchHandler{brain: b}
}

func (h *searchHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	opts := retrieval.Options{
		Query:       q.Get("q"),
		Author:      q.Get("author"),
		Since:       q.Get("since"),
		SortBy:      q.Get("sort_by"),
		Compact:     q.Get("compact") == "true",
		Reinforce:   q.Get("reinforce") != "false",
		TopK:        atoiOr(q.Get("top_k"), 0),
		SpreadDepth: atoiOr(q.Get("spread_depth"), 0),
	}
	if labels := q["label"]; len(labels) > 0 {
		opts.Labels = labels
	}

	full, compact, err := h.brain.Retrieve(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if opts.Compact {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": compact})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": full})
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
