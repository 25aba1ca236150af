package cache

import (
	"context"
	"testing"
	"time"

	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_Reserve(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	t.Run("first reservation wins", func(t *testing.T) {
		existing, reserved, err := store.Reserve(ctx, "k1", time.Hour)
		require.NoError(t, err)
		assert.True(t, reserved)
		assert.Empty(t, existing)
	})

	t.Run("second reservation sees pending", func(t *testing.T) {
		_, _, err := store.Reserve(ctx, "k2", time.Hour)
		require.NoError(t, err)

		existing, reserved, err := store.Reserve(ctx, "k2", time.Hour)
		require.NoError(t, err)
		assert.False(t, reserved)
		assert.Equal(t, portsrepo.IdempotencyPending, existing)
	})

	t.Run("completed key returns movement id", func(t *testing.T) {
		_, _, err := store.Reserve(ctx, "k3", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Complete(ctx, "k3", "mov-1", time.Hour))

		existing, reserved, err := store.Reserve(ctx, "k3", time.Hour)
		require.NoError(t, err)
		assert.False(t, reserved)
		assert.Equal(t, "mov-1", existing)
	})

	t.Run("released key can be reserved again", func(t *testing.T) {
		_, _, err := store.Reserve(ctx, "k4", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "k4"))

		_, reserved, err := store.Reserve(ctx, "k4", time.Hour)
		require.NoError(t, err)
		assert.True(t, reserved)
	})

	t.Run("expired key can be reserved again", func(t *testing.T) {
		_, _, err := store.Reserve(ctx, "k5", 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		_, reserved, err := store.Reserve(ctx, "k5", time.Hour)
		require.NoError(t, err)
		assert.True(t, reserved)
	})
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	_, _, err := store.Reserve(ctx, "short", time.Minute)
	require.NoError(t, err)
	_, _, err = store.Reserve(ctx, "long", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Size())

	store.now = func() time.Time { return base.Add(10 * time.Minute) }
	store.sweep()
	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Millisecond)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
