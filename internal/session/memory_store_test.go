package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SaveLoadDelete(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	loaded, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	s := &Session{ID: "sid-1", User: "alice", CSRFToken: "tok"}
	require.NoError(t, store.Save(ctx, s))

	loaded, err = store.Load(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "alice", loaded.User)
	assert.Equal(t, "tok", loaded.CSRFToken)

	require.NoError(t, store.Delete(ctx, "sid-1"))
	loaded, err = store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryStore_NoCrossSessionReads(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "a", User: "alice"}))
	require.NoError(t, store.Save(ctx, &Session{ID: "b", User: "bob"}))

	a, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "alice", a.User)

	b, err := store.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "bob", b.User)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "x", Flashes: []Flash{{Message: "hi", Category: "primary"}}}))

	first, err := store.Load(ctx, "x")
	require.NoError(t, err)
	first.User = "mutated"
	first.Flashes[0].Message = "changed"

	second, err := store.Load(ctx, "x")
	require.NoError(t, err)
	assert.Empty(t, second.User)
	assert.Equal(t, "hi", second.Flashes[0].Message)
}

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "short", User: "alice"}))

	time.Sleep(30 * time.Millisecond)

	loaded, err := store.Load(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
