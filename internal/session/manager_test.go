package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore fails every operation
type failingStore struct{ err error }

func (s failingStore) Set(context.Context, string, string, time.Duration) error { return s.err }
func (s failingStore) Get(context.Context, string) (string, error)              { return "", s.err }
func (s failingStore) Delete(context.Context, string) error                     { return s.err }
func (s failingStore) Exists(context.Context, string) (bool, error)             { return false, s.err }
func (s failingStore) Ping(context.Context) error                               { return s.err }

func TestManager_SetAndGet(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(NewMemoryStore(), time.Hour)
	id := mgr.NewClientID()

	_, ok, err := mgr.Get(ctx, id, "theme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mgr.Set(ctx, id, "theme", "dark"))
	require.NoError(t, mgr.Set(ctx, id, "summary_time", "07:30"))

	value, ok, err := mgr.Get(ctx, id, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", value)

	value, _, err = mgr.Get(ctx, id, "summary_time")
	require.NoError(t, err)
	assert.Equal(t, "07:30", value)
}

func TestManager_ClientsAreIsolated(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(NewMemoryStore(), time.Hour)

	require.NoError(t, mgr.Set(ctx, "client-a", "theme", "dark"))

	_, ok, err := mgr.Get(ctx, "client-b", "theme")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_ClearRemovesEverything(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	mgr := NewManager(store, time.Hour)

	require.NoError(t, mgr.Set(ctx, "client-a", "theme", "dark"))
	require.NoError(t, mgr.Set(ctx, "client-a", "summary_time", "09:00"))
	require.NoError(t, mgr.Clear(ctx, "client-a"))

	exists, err := store.Exists(ctx, stateKey("client-a"))
	require.NoError(t, err)
	assert.False(t, exists)

	_, ok, err := mgr.Get(ctx, "client-a", "theme")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_EmptyClientID(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(NewMemoryStore(), time.Hour)

	_, _, err := mgr.Get(ctx, "", "theme")
	assert.ErrorIs(t, err, ErrInvalidClientID)
	assert.ErrorIs(t, mgr.Set(ctx, "", "theme", "dark"), ErrInvalidClientID)
	assert.ErrorIs(t, mgr.Clear(ctx, ""), ErrInvalidClientID)
}

func TestManager_CorruptRecordIsReplaced(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	mgr := NewManager(store, time.Hour)

	require.NoError(t, store.Set(ctx, stateKey("client-a"), "{not json", time.Hour))

	_, _, err := mgr.Get(ctx, "client-a", "theme")
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, mgr.Set(ctx, "client-a", "theme", "light"))
	value, ok, err := mgr.Get(ctx, "client-a", "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", value)
}

func TestManager_StoreFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	mgr := NewManager(failingStore{err: boom}, time.Hour)

	_, _, err := mgr.Get(ctx, "client-a", "theme")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, mgr.Set(ctx, "client-a", "theme", "dark"), boom)
	assert.ErrorIs(t, mgr.Clear(ctx, "client-a"), boom)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	store := &memoryStore{
		entries: make(map[string]memoryEntry),
		now:     func() time.Time { return now },
	}

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))
	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := store.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}
