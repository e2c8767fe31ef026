package model

import (
	"time"
)

// EventType represents the type of session lifecycle event.
type EventType string

const (
	EventTypeCompleted     EventType = "completed"
	EventTypeAbandoned     EventType = "abandoned"
	EventTypeDegraded      EventType = "degraded"
	EventTypeRejectedInput EventType = "rejected_input"
	EventTypeSaveFailed    EventType = "save_failed"
)

// SessionEvent records a lifecycle event on the audit stream.
type SessionEvent struct {
	SessionID string         `json:"session_id"`
	Type      EventType      `json:"type"`
	Reason    string         `json:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
