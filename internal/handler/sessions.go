// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/spot2/intake-engine/internal/docstore"
	"github.com/spot2/intake-engine/internal/middleware"
	"github.com/spot2/intake-engine/internal/model"
	"github.com/spot2/intake-engine/internal/service"
	"github.com/spot2/intake-engine/internal/session"
	"github.com/spot2/intake-engine/pkg/logger"
)

// SessionHandler handles intake session endpoints.
type SessionHandler struct {
	intake       *service.Intake
	maxPromptLen int
	logger       *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(intake *service.Intake, maxPromptLen int, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		intake:       intake,
		maxPromptLen: maxPromptLen,
		logger:       log,
	}
}

// SendMessage handles POST /api/v1/sessions/{id}/messages
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageText(req.Text, h.maxPromptLen); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.intake.HandleMessage(ctx, sessionID, req.Text)
	switch {
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, "session busy")
		return
	case errors.Is(err, service.ErrSessionNotActive):
		writeJSON(w, http.StatusGone, result)
		return
	case errors.Is(err, docstore.ErrStorageUnavailable):
		// Fields are intact; the caller can retry by sending any message.
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":  "storage unavailable",
			"result": result,
		})
		return
	case err != nil:
		h.logger.Error("failed to handle message", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to handle message")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.intake.Get(ctx, sessionID)
	switch {
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, "session busy")
		return
	case err != nil:
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Abandon handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.intake.Abandon(ctx, sessionID)
	switch {
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, "session busy")
		return
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
		return
	case errors.Is(err, service.ErrSessionNotActive):
		writeError(w, http.StatusGone, "session not active")
		return
	case err != nil:
		h.logger.Error("failed to abandon session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to abandon session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
