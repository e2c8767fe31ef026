package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spot2/intake-engine/internal/model"
)

func TestMemoryStoreGetPut(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	s := &model.Session{ID: "s1", Status: model.StatusActive}
	require.NoError(t, store.Put(ctx, s))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestMemoryStoreTryLock(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.TryLock("s1"))
	assert.ErrorIs(t, store.TryLock("s1"), ErrBusy)

	// A different session is unaffected.
	require.NoError(t, store.TryLock("s2"))
	store.Unlock("s2")

	store.Unlock("s1")
	require.NoError(t, store.TryLock("s1"))
	store.Unlock("s1")
}

func TestMemoryStoreTryLockConcurrent(t *testing.T) {
	store := NewMemoryStore()

	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.TryLock("contended") == nil {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired, "exactly one concurrent caller wins the lock")
	store.Unlock("contended")
}
