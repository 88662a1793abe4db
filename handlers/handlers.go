package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cpressland/playlist/errors"
	"github.com/cpressland/playlist/jukebox"
	"github.com/cpressland/playlist/middleware"
	"github.com/cpressland/playlist/models"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *jukebox.Service
}

func NewHandler(service *jukebox.Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the v1 API.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/status", h.Status)
	r.Get("/v1/lookup/{searchTerm}", h.Lookup)
	r.Get("/v1/enqueue/{videoID}", h.Enqueue)
	r.Get("/v1/queue", h.Queue)
}

type lookupResponse struct {
	OK        bool              `json:"ok"`
	Reason    string            `json:"reason,omitempty"`
	Token     string            `json:"token"`
	VideoInfo *models.VideoInfo `json:"video_info"`
}

type queueResponse struct {
	OK     bool               `json:"ok"`
	Length int                `json:"length"`
	Items  []models.QueueItem `json:"items"`
}

// Status reports jukebox liveness.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// Lookup searches for a specific video to request. Oversized videos are
// reported with ok=false but still include the token and metadata, so
// clients can show what was found and why it was refused.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())
	term := chi.URLParam(r, "searchTerm")

	logger.WithField("term", term).Info("Looking up search term")

	meta, err := h.service.Lookup(r.Context(), term)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := lookupResponse{
		OK:        true,
		Token:     meta.ID,
		VideoInfo: models.NewVideoInfo(meta),
	}
	if err := h.service.CheckDuration(meta.Duration); err != nil {
		resp.OK = false
		resp.Reason = errors.Message(err)
	}

	respondJSON(w, http.StatusOK, resp)
}

// Enqueue downloads the audio for a video id (unless cached) and appends
// it to the playback queue.
func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())
	videoID := chi.URLParam(r, "videoID")

	logger.WithField("id", videoID).Info("Enqueue requested")

	if _, err := h.service.Enqueue(r.Context(), videoID); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// Queue returns the playback queue in order.
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	items := h.service.QueueItems()
	respondJSON(w, http.StatusOK, queueResponse{
		OK:     true,
		Length: len(items),
		Items:  items,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	logger := middleware.GetLogger(r.Context())

	code := errors.Code(err)
	reason := errors.Message(err)

	entry := logger.WithError(err)
	if code >= 500 {
		entry.Error("Request failed")
	} else {
		entry.Info("Request rejected")
	}

	respondJSON(w, code, map[string]interface{}{
		"ok":     false,
		"reason": reason,
	})
}
