package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/spot2/intake-engine/internal/model"
)

const (
	// StreamName is the name of the intake audit stream.
	StreamName = "INTAKE"

	// SubjectPrefix is the prefix for all intake subjects.
	SubjectPrefix = "intake"
)

// AuditStream publishes turns and session lifecycle events to JetStream.
// Publishing is best-effort from the engine's point of view: a failed
// publish is logged by the caller, never fatal to the conversation.
type AuditStream struct {
	client *Client
}

// NewAuditStream creates an audit stream manager.
func NewAuditStream(client *Client) *AuditStream {
	return &AuditStream{client: client}
}

// EnsureStream ensures the intake stream exists with proper configuration.
func (a *AuditStream) EnsureStream(ctx context.Context) error {
	js := a.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Intake session turns and lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// TurnSubject returns the subject for a turn.
func TurnSubject(sessionID string, role model.Role) string {
	return fmt.Sprintf("%s.%s.msg.%s", SubjectPrefix, sessionID, role)
}

// EventSubject returns the subject for a lifecycle event.
func EventSubject(sessionID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.event.%s", SubjectPrefix, sessionID, eventType)
}

// PublishTurn publishes an appended turn to the audit stream.
func (a *AuditStream) PublishTurn(ctx context.Context, sessionID string, turn model.Turn) (uint64, error) {
	data, err := json.Marshal(turn)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal turn: %w", err)
	}

	ack, err := a.client.JetStream().Publish(ctx, TurnSubject(sessionID, turn.Role), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish turn: %w", err)
	}

	return ack.Sequence, nil
}

// PublishEvent publishes a session lifecycle event to the audit stream.
func (a *AuditStream) PublishEvent(ctx context.Context, event model.SessionEvent) (uint64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := a.client.JetStream().Publish(ctx, EventSubject(event.SessionID, event.Type), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	return ack.Sequence, nil
}
