package model

import (
	"time"
)

// Role represents the role of a turn's author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message within a session. Immutable once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Seq       int       `json:"seq"`
	Flagged   bool      `json:"flagged,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
