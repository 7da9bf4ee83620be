package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"rocketpass/internal"
)

// Store is the read side of the rewards database.
type Store interface {
	ListSeasons() ([]internal.SeasonSummary, error)
	ListRewards(season int, track internal.Track) ([]internal.RewardItem, error)
	ListRuns(limit int) ([]internal.RunRecord, error)
	GetMetadata(key string) (*string, error)
}

// Server holds the HTTP server dependencies
type Server struct {
	store          Store
	router         chi.Router
	allowedOrigins []string
}

// New creates a new API server
func New(store Store, allowedOrigins []string) *Server {
	s := &Server{
		store:          store,
		router:         chi.NewRouter(),
		allowedOrigins: allowedOrigins,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/seasons", s.handleGetSeasons)
		r.Get("/seasons/{season}", s.handleGetSeason)
		r.Get("/seasons/{season}/rewards", s.handleGetRewards)

		r.Get("/runs", s.handleGetRuns)
	})

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
