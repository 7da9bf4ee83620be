package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"rocketpass/internal"
)

// handleGetSeasons lists every stored season with its counts
func (s *Server) handleGetSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := s.store.ListSeasons()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch seasons")
		return
	}
	respondJSON(w, http.StatusOK, seasons)
}

// handleGetSeason returns one season summary and its last update time
func (s *Server) handleGetSeason(w http.ResponseWriter, r *http.Request) {
	season, ok := seasonParam(w, r)
	if !ok {
		return
	}

	seasons, err := s.store.ListSeasons()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch season")
		return
	}
	for _, summary := range seasons {
		if summary.Season != season {
			continue
		}
		lastUpdate, err := s.store.GetMetadata("rewards.last_update." + strconv.Itoa(season))
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch season")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"season":     summary,
			"lastUpdate": lastUpdate,
		})
		return
	}
	respondError(w, http.StatusNotFound, "Season not found")
}

// handleGetRewards returns the rewards of a season, optionally one track
func (s *Server) handleGetRewards(w http.ResponseWriter, r *http.Request) {
	season, ok := seasonParam(w, r)
	if !ok {
		return
	}

	track := internal.Track(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("track"))))
	if track != "" && track != internal.TrackFree && track != internal.TrackPremium {
		respondError(w, http.StatusBadRequest, "track must be free or premium")
		return
	}

	all, err := s.store.ListRewards(season, "")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch rewards")
		return
	}
	if len(all) == 0 {
		respondError(w, http.StatusNotFound, "Season not found")
		return
	}

	items := all
	if track != "" {
		items, err = s.store.ListRewards(season, track)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch rewards")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"season":      season,
		"items":       items,
		"total_count": len(items),
	})
}

func seasonParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	season, err := strconv.Atoi(chi.URLParam(r, "season"))
	if err != nil || season <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid season")
		return 0, false
	}
	return season, true
}
