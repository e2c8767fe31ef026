// Package session provides the session store abstraction.
package session

import (
	"context"
	"errors"

	"github.com/spot2/intake-engine/internal/model"
)

// ErrNotFound is returned when no session exists for an id.
var ErrNotFound = errors.New("session not found")

// ErrBusy is returned when a session is already processing a message.
// Callers surface it as a machine-readable "session busy" status; concurrent
// messages are never silently reordered.
var ErrBusy = errors.New("session busy")

// Store holds sessions between requests and provides exclusive per-key
// mutation. Implementations must support TryLock so a second concurrent
// request for the same session is rejected rather than interleaved.
type Store interface {
	// Get returns the session for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Session, error)

	// Put stores the session under its id.
	Put(ctx context.Context, s *model.Session) error

	// TryLock acquires the per-session lock, or returns ErrBusy.
	TryLock(id string) error

	// Unlock releases the per-session lock.
	Unlock(id string)
}
