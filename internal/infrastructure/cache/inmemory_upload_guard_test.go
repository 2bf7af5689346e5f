package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryUploadGuard(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	contractID := uuid.New()

	t.Run("acquire then conflict then release", func(t *testing.T) {
		guard := NewInMemoryUploadGuard(time.Minute)

		acquired, err := guard.TryAcquire(ctx, tenantID, contractID)
		require.NoError(t, err)
		assert.True(t, acquired)

		acquired, err = guard.TryAcquire(ctx, tenantID, contractID)
		require.NoError(t, err)
		assert.False(t, acquired)

		guard.Release(ctx, tenantID, contractID)

		acquired, err = guard.TryAcquire(ctx, tenantID, contractID)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("different contracts do not conflict", func(t *testing.T) {
		guard := NewInMemoryUploadGuard(time.Minute)

		acquired, err := guard.TryAcquire(ctx, tenantID, contractID)
		require.NoError(t, err)
		assert.True(t, acquired)

		acquired, err = guard.TryAcquire(ctx, tenantID, uuid.New())
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("expired claim can be retaken", func(t *testing.T) {
		guard := NewInMemoryUploadGuard(time.Millisecond)

		acquired, err := guard.TryAcquire(ctx, tenantID, contractID)
		require.NoError(t, err)
		assert.True(t, acquired)

		time.Sleep(5 * time.Millisecond)

		acquired, err = guard.TryAcquire(ctx, tenantID, contractID)
		require.NoError(t, err)
		assert.True(t, acquired)
	})
}
