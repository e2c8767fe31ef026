package model

// SendMessageRequest is the request body for posting a user message to a
// session.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// HandleMessageResult is what one processed user message produces.
type HandleMessageResult struct {
	Reply    string            `json:"reply"`
	Status   Status            `json:"status"`
	Fields   map[string]string `json:"collected_fields"`
	Extra    map[string]string `json:"extra_fields,omitempty"`
	RecordID string            `json:"record_id,omitempty"`
	Degraded bool              `json:"degraded,omitempty"`
}

// SessionView is the read-only representation of a session returned by the
// API.
type SessionView struct {
	ID           string            `json:"id"`
	Status       Status            `json:"status"`
	Fields       map[string]string `json:"collected_fields"`
	Extra        map[string]string `json:"extra_fields,omitempty"`
	TurnCount    int               `json:"turn_count"`
	RecordID     string            `json:"record_id,omitempty"`
	CreatedAt    string            `json:"created_at"`
	LastActivity string            `json:"last_activity"`
}
