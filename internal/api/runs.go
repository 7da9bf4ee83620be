package api

import (
	"net/http"
	"strconv"
)

const maxRunsLimit = 200

// handleGetRuns returns the most recent update runs
func (s *Server) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch runs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"runs":        runs,
		"total_count": len(runs),
	})
}
