package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySummaryCache(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	cartID := uuid.New()

	t.Run("miss returns not present", func(t *testing.T) {
		c := NewInMemorySummaryCache()
		_, ok, err := c.Get(ctx, tenantID, cartID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("put then get round-trips", func(t *testing.T) {
		c := NewInMemorySummaryCache()
		require.NoError(t, c.Put(ctx, tenantID, cartID, []byte(`{"total":"105"}`), time.Minute))

		payload, ok, err := c.Get(ctx, tenantID, cartID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"total":"105"}`, string(payload))
	})

	t.Run("expired entries are misses", func(t *testing.T) {
		c := NewInMemorySummaryCache()
		require.NoError(t, c.Put(ctx, tenantID, cartID, []byte("x"), -time.Second))

		_, ok, err := c.Get(ctx, tenantID, cartID)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("invalidate drops the entry", func(t *testing.T) {
		c := NewInMemorySummaryCache()
		require.NoError(t, c.Put(ctx, tenantID, cartID, []byte("x"), time.Minute))
		require.NoError(t, c.Invalidate(ctx, tenantID, cartID))

		_, ok, err := c.Get(ctx, tenantID, cartID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("entries are isolated per cart", func(t *testing.T) {
		c := NewInMemorySummaryCache()
		otherCart := uuid.New()
		require.NoError(t, c.Put(ctx, tenantID, cartID, []byte("a"), time.Minute))
		require.NoError(t, c.Put(ctx, tenantID, otherCart, []byte("b"), time.Minute))

		payload, ok, _ := c.Get(ctx, tenantID, otherCart)
		assert.True(t, ok)
		assert.Equal(t, "b", string(payload))
	})
}
