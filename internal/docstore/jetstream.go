package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/spot2/intake-engine/internal/model"
	natsclient "github.com/spot2/intake-engine/internal/nats"
	"github.com/spot2/intake-engine/pkg/logger"
	"github.com/spot2/intake-engine/pkg/metrics"
)

const (
	// RecordsBucket holds finalized requirement records.
	RecordsBucket = "intake-records"

	bucketPrefix = "intake-"
)

// JetStreamGateway stores records in NATS JetStream key-value buckets.
// Bucket = collection, key = record id, value = JSON document. Durability
// is the store's concern; this gateway only shapes documents and reports
// store failures upward.
type JetStreamGateway struct {
	client *natsclient.Client
	logger *logger.Logger
}

// NewJetStreamGateway creates a gateway backed by the given NATS client.
func NewJetStreamGateway(client *natsclient.Client, log *logger.Logger) *JetStreamGateway {
	return &JetStreamGateway{client: client, logger: log}
}

// EnsureBuckets creates the records bucket if it does not exist.
func (g *JetStreamGateway) EnsureBuckets(ctx context.Context) error {
	js := g.client.JetStream()
	if _, err := js.KeyValue(ctx, RecordsBucket); err == nil {
		return nil
	}
	_, err := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      RecordsBucket,
		Description: "Finalized real-estate requirement records",
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("failed to create records bucket: %w", err)
	}
	return nil
}

// Save persists a snapshot and returns the assigned record id. Completion
// depends on this acknowledgment: a session is only observable as complete
// after Save succeeds.
func (g *JetStreamGateway) Save(ctx context.Context, snap model.Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	kv, err := g.client.JetStream().KeyValue(ctx, RecordsBucket)
	if err != nil {
		metrics.RecordSavesTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	recordID := uuid.Must(uuid.NewV7()).String()
	if _, err := kv.Put(ctx, recordID, data); err != nil {
		metrics.RecordSavesTotal.WithLabelValues("error").Inc()
		g.logger.Error("record save failed",
			zap.String("session_id", snap.SessionID),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	metrics.RecordSavesTotal.WithLabelValues("ok").Inc()
	return recordID, nil
}

// ListCollections returns the names of all intake buckets.
func (g *JetStreamGateway) ListCollections(ctx context.Context) ([]string, error) {
	lister := g.client.JetStream().KeyValueStoreNames(ctx)

	var names []string
	for name := range lister.Name() {
		if strings.HasPrefix(name, bucketPrefix) {
			names = append(names, name)
		}
	}
	if err := lister.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	sort.Strings(names)
	return names, nil
}

// Count returns the number of documents in a collection.
func (g *JetStreamGateway) Count(ctx context.Context, collection string) (int, error) {
	kv, err := g.client.JetStream().KeyValue(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	keyLister, err := kv.ListKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	count := 0
	for range keyLister.Keys() {
		count++
	}
	return count, nil
}

// ListDocuments returns one page of documents from a collection, ordered by
// record id. UUIDv7 record ids make this a creation-time ordering.
func (g *JetStreamGateway) ListDocuments(ctx context.Context, collection string, page, pageSize int) ([]Document, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 100
	}

	kv, err := g.client.JetStream().KeyValue(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	keyLister, err := kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	var keys []string
	for key := range keyLister.Keys() {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	start := (page - 1) * pageSize
	if start >= len(keys) {
		return []Document{}, nil
	}
	end := start + pageSize
	if end > len(keys) {
		end = len(keys)
	}

	docs := make([]Document, 0, end-start)
	for _, key := range keys[start:end] {
		entry, err := kv.Get(ctx, key)
		if err != nil {
			continue
		}
		var body map[string]any
		if err := json.Unmarshal(entry.Value(), &body); err != nil {
			continue
		}
		docs = append(docs, Document{
			ID:        key,
			Body:      body,
			CreatedAt: entry.Created(),
		})
	}
	return docs, nil
}
