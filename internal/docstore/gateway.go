// Package docstore is the persistence gateway for finalized intake records.
package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/spot2/intake-engine/internal/model"
)

// ErrStorageUnavailable is returned when the document store cannot
// acknowledge a write or serve a read. Callers may retry Save without
// re-collecting fields; the in-memory session is never mutated on failure.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Document is a stored record with its assigned id.
type Document struct {
	ID        string         `json:"id"`
	Body      map[string]any `json:"body"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
}

// Gateway shapes session snapshots into the document store's form and
// exposes the read path used by inspection tooling.
type Gateway interface {
	// Save persists a completed session snapshot and returns the record id.
	Save(ctx context.Context, snap model.Snapshot) (string, error)

	// ListCollections returns the names of all record collections.
	ListCollections(ctx context.Context) ([]string, error)

	// ListDocuments returns one page of documents from a collection,
	// ordered by record id.
	ListDocuments(ctx context.Context, collection string, page, pageSize int) ([]Document, error)

	// Count returns the number of documents in a collection.
	Count(ctx context.Context, collection string) (int, error)
}
