// Package model defines data structures for the intake engine.
package model

import (
	"time"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusComplete  Status = "complete"
	StatusAbandoned Status = "abandoned"
)

// Session is one user's requirement-collection conversation. It is owned
// exclusively by the intake service while active and handed to the
// persistence gateway as an immutable snapshot at completion.
type Session struct {
	ID     string `json:"id"`
	Status Status `json:"status"`

	// History is append-only; Seq values are strictly increasing and
	// gap-free.
	History []Turn `json:"history"`

	// Fields maps schema field name to its latest FieldValue.
	Fields map[string]FieldValue `json:"fields"`

	// Extra holds user-volunteered attributes outside the schema,
	// sanitized but not type-validated.
	Extra map[string]string `json:"extra,omitempty"`

	// Audit retains every extraction/validation attempt, including
	// rejected and superseded values.
	Audit []FieldValue `json:"audit,omitempty"`

	// RecordID is set once the completed session has been durably saved.
	RecordID string `json:"record_id,omitempty"`

	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// NextSeq returns the sequence index for the next appended turn.
func (s *Session) NextSeq() int {
	return len(s.History)
}

// Append adds a turn to the history with the next sequence index.
func (s *Session) Append(role Role, text string, flagged bool) Turn {
	t := Turn{
		Role:      role,
		Text:      text,
		Seq:       s.NextSeq(),
		Flagged:   flagged,
		CreatedAt: time.Now(),
	}
	s.History = append(s.History, t)
	s.LastActivity = t.CreatedAt
	return t
}

// ValidFields returns the names of fields whose latest value is valid.
func (s *Session) ValidFields() map[string]string {
	out := make(map[string]string, len(s.Fields))
	for name, fv := range s.Fields {
		if fv.IsValid() {
			out[name] = fv.Value
		}
	}
	return out
}

// Snapshot is the immutable document form of a session handed to the
// persistence gateway.
type Snapshot struct {
	SessionID   string            `json:"session_id"`
	Fields      map[string]string `json:"fields"`
	Extra       map[string]string `json:"extra_fields,omitempty"`
	TurnCount   int               `json:"turn_count"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt time.Time         `json:"completed_at"`
}

// Snapshot shapes the session into its document form.
func (s *Session) Snapshot(completedAt time.Time) Snapshot {
	return Snapshot{
		SessionID:   s.ID,
		Fields:      s.ValidFields(),
		Extra:       s.Extra,
		TurnCount:   len(s.History),
		CreatedAt:   s.CreatedAt,
		CompletedAt: completedAt,
	}
}
