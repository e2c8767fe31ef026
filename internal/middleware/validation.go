package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidateMessageText validates the raw text of an inbound message before
// the engine's own sanitization runs. Field-agnostic transport-level
// checks only.
func ValidateMessageText(text string, maxLen int) error {
	if len(text) == 0 {
		return errors.New("text cannot be empty")
	}
	if maxLen > 0 && len(text) > 4*maxLen {
		// The sanitizer enforces the real bound; this guards against
		// grossly oversized request bodies.
		return errors.New("text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("text must be valid UTF-8")
	}
	return nil
}

// ValidateSessionID validates an externally supplied session id.
func ValidateSessionID(id string) error {
	if len(id) == 0 {
		return errors.New("session ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("session ID exceeds maximum length")
	}
	for _, r := range id {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return errors.New("session ID contains invalid characters")
		}
	}
	return nil
}

// ValidateCollectionName validates a record collection name for the
// inspection endpoints.
func ValidateCollectionName(name string) error {
	if len(name) == 0 || len(name) > 64 {
		return errors.New("invalid collection name")
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return errors.New("invalid collection name")
		}
	}
	return nil
}
