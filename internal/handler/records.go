package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/spot2/intake-engine/internal/docstore"
	"github.com/spot2/intake-engine/internal/middleware"
	"github.com/spot2/intake-engine/pkg/logger"
)

// RecordHandler exposes the stored-record read path for inspection tooling.
type RecordHandler struct {
	gateway docstore.Gateway
	logger  *logger.Logger
}

// NewRecordHandler creates a new record handler.
func NewRecordHandler(gateway docstore.Gateway, log *logger.Logger) *RecordHandler {
	return &RecordHandler{
		gateway: gateway,
		logger:  log,
	}
}

// ListCollections handles GET /api/v1/records/collections
func (h *RecordHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	names, err := h.gateway.ListCollections(r.Context())
	if err != nil {
		h.logger.Error("failed to list collections", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": names})
}

// CountDocuments handles GET /api/v1/records/{collection}/count
func (h *RecordHandler) CountDocuments(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	if err := middleware.ValidateCollectionName(collection); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	count, err := h.gateway.Count(r.Context(), collection)
	if err != nil {
		h.logger.Error("failed to count documents", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection": collection,
		"count":      count,
	})
}

// ListDocuments handles GET /api/v1/records/{collection}
func (h *RecordHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	if err := middleware.ValidateCollectionName(collection); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page := 1
	pageSize := 50
	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= 100 {
			pageSize = parsed
		}
	}

	docs, err := h.gateway.ListDocuments(r.Context(), collection, page, pageSize)
	if err != nil {
		h.logger.Error("failed to list documents", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"page":      page,
		"page_size": pageSize,
	})
}
