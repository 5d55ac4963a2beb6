package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/shared"
	"github.com/harmonia-app/harmonia/internal/tasks"
)

// HealthHandler reports service liveness.
type HealthHandler struct{}

func (h *HealthHandler) Routes() []string {
	return []string{"GET /health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SyncRequest is the request body for a sync run.
type SyncRequest struct {
	UserID     string   `json:"user_id"`
	PlaylistID string   `json:"playlist_id"`
	Platforms  []string `json:"platforms"`
}

// SyncHandler triggers playlist sync runs.
//
// The handler stays thin: it validates and types the request, then delegates
// to the engine and renders the outcome.
type SyncHandler struct {
	engine tasks.SyncEngine
	logger *log.Logger
}

// NewSyncHandler creates a SyncHandler backed by the given engine.
func NewSyncHandler(engine tasks.SyncEngine, logger *log.Logger) *SyncHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &SyncHandler{engine: engine, logger: logger}
}

func (h *SyncHandler) Routes() []string {
	return []string{"POST /api/playlists/sync"}
}

func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" || req.PlaylistID == "" {
		writeError(w, http.StatusBadRequest, "user_id and playlist_id are required")
		return
	}

	platforms := make([]models.Platform, 0, len(req.Platforms))
	for _, raw := range req.Platforms {
		platform, err := models.ParsePlatform(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		platforms = append(platforms, platform)
	}

	outcome, err := h.engine.SyncPlaylist(r.Context(), nil, req.PlaylistID, req.UserID, platforms)
	if err != nil {
		if errors.Is(err, shared.ErrPlaylistNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("sync run failed to start", "playlist", req.PlaylistID, "err", err)
		writeError(w, http.StatusInternalServerError, "sync failed to start")
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
