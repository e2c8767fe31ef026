package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spot2/intake-engine/pkg/logger"
)

func newRecordRouter() *chi.Mux {
	h := NewRecordHandler(&stubGateway{}, logger.NewNop())
	r := chi.NewRouter()
	r.Get("/records/collections", h.ListCollections)
	r.Get("/records/{collection}", h.ListDocuments)
	r.Get("/records/{collection}/count", h.CountDocuments)
	return r
}

func TestCountDocuments(t *testing.T) {
	r := newRecordRouter()

	req := httptest.NewRequest(http.MethodGet, "/records/intake-records/count", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
	assert.Contains(t, w.Body.String(), `"collection":"intake-records"`)
}

func TestListCollections(t *testing.T) {
	r := newRecordRouter()

	req := httptest.NewRequest(http.MethodGet, "/records/collections", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "intake-records")
}

func TestListDocuments(t *testing.T) {
	r := newRecordRouter()

	req := httptest.NewRequest(http.MethodGet, "/records/intake-records?page=2&page_size=10", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"page":2`)
	assert.Contains(t, w.Body.String(), `"page_size":10`)
}

func TestListDocumentsRejectsBadCollection(t *testing.T) {
	r := newRecordRouter()

	req := httptest.NewRequest(http.MethodGet, "/records/Not.Valid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
