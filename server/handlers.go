package server

import (
	"encoding/json"
	"net/http"

	"soundbay/config"
	"soundbay/core/session"
	"soundbay/repository"
	"soundbay/storage"
)

// APIHandler handles all API requests. It is constructed once at startup
// and holds every store handle the operations need.
type APIHandler struct {
	userRepo   repository.UserRepository
	songRepo   repository.SongRepository
	ratingRepo repository.RatingRepository
	sessions   session.Store
	uploads    storage.Store
	cfg        *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	userRepo repository.UserRepository,
	songRepo repository.SongRepository,
	ratingRepo repository.RatingRepository,
	sessions session.Store,
	uploads storage.Store,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:   userRepo,
		songRepo:   songRepo,
		ratingRepo: ratingRepo,
		sessions:   sessions,
		uploads:    uploads,
		cfg:        cfg,
	}
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError writes a JSON error body with the given status.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// HealthHandler answers liveness probes.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
