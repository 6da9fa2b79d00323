package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"shownames/internal/batcher"
	"shownames/internal/config"
)

// StatsSource reports batching counters for the health endpoint
type StatsSource interface {
	Stats() batcher.StatsSnapshot
}

// Handler serves the mention operations over plain HTTP
type Handler struct {
	service     *Service
	stats       StatsSource
	maxBodySize int64
	mux         *http.ServeMux
	logger      zerolog.Logger
}

// NewHandler creates a new Handler
func NewHandler(service *Service, stats StatsSource, cfg *config.Config, logger zerolog.Logger) *Handler {
	h := &Handler{
		service:     service,
		stats:       stats,
		maxBodySize: cfg.MaxBodySize,
		mux:         http.NewServeMux(),
		logger:      logger.With().Str("component", "http").Logger(),
	}

	h.mux.HandleFunc("POST /decorate", h.handleDecorate)
	h.mux.HandleFunc("POST /restore", h.handleRestore)
	h.mux.HandleFunc("POST /card-usernames", h.handleCardUsernames)
	h.mux.HandleFunc("GET /resolve/{username}", h.handleResolve)
	h.mux.HandleFunc("GET /health", h.handleHealth)

	return h
}

// ServeHTTP handles HTTP requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleDecorate(w http.ResponseWriter, r *http.Request) {
	var params DecorateParams
	if !h.readJSON(w, r, &params) {
		return
	}

	result, err := h.service.Decorate(r.Context(), params)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	var params RestoreParams
	if !h.readJSON(w, r, &params) {
		return
	}

	result, err := h.service.Restore(r.Context(), params)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCardUsernames(w http.ResponseWriter, r *http.Request) {
	var params RestoreParams
	if !h.readJSON(w, r, &params) {
		return
	}

	result, err := h.service.CardUsernames(r.Context(), params)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Resolve(r.Context(), ResolveParams{Username: r.PathValue("username")})
	if err != nil {
		if errors.Is(err, ErrUsernameRequired) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Warn().Err(err).Str("username", r.PathValue("username")).Msg("resolve failed")
		h.writeError(w, http.StatusBadGateway, "search failed")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "ok"}
	if h.stats != nil {
		body["batching"] = h.stats.Stats()
	}
	h.writeJSON(w, http.StatusOK, body)
}

// readJSON decodes the request body into v, writing an error response on failure
func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	var body []byte
	var err error
	if h.maxBodySize > 0 {
		body, err = io.ReadAll(io.LimitReader(r.Body, h.maxBodySize+1))
		if err == nil && int64(len(body)) > h.maxBodySize {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
	} else {
		body, err = io.ReadAll(r.Body)
	}
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, v); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("failed to write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
