package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampQuantity(t *testing.T) {
	assert.Equal(t, 0, ClampQuantity(-5))
	assert.Equal(t, 0, ClampQuantity(0))
	assert.Equal(t, 42, ClampQuantity(42))
	assert.Equal(t, MaxQuantity, ClampQuantity(MaxQuantity))
	assert.Equal(t, MaxQuantity, ClampQuantity(MaxQuantity+1))
}

func TestNewCart(t *testing.T) {
	tenantID := uuid.New()
	actorID := uuid.New()

	t.Run("creates an open cart", func(t *testing.T) {
		c, err := NewCart(tenantID, actorID, ModeDineIn, "T7")
		require.NoError(t, err)
		assert.Equal(t, StatusOpen, c.Status)
		assert.Equal(t, ModeDineIn, c.Mode)
		assert.Equal(t, "T7", c.TableCode)
		require.NotNil(t, c.ActorID)
		assert.Equal(t, actorID, *c.ActorID)
	})

	t.Run("rejects missing actor", func(t *testing.T) {
		_, err := NewCart(tenantID, uuid.Nil, ModeTakeaway, "")
		assert.ErrorIs(t, err, ErrUserIDRequired)
	})

	t.Run("defaults invalid mode to takeaway", func(t *testing.T) {
		c, err := NewCart(tenantID, actorID, Mode("drive_through"), "")
		require.NoError(t, err)
		assert.Equal(t, ModeTakeaway, c.Mode)
	})
}

func TestCartComplete(t *testing.T) {
	tenantID := uuid.New()
	actorID := uuid.New()

	t.Run("open cart completes", func(t *testing.T) {
		c, _ := NewCart(tenantID, actorID, ModeDineIn, "")
		require.NoError(t, c.Complete())
		assert.Equal(t, StatusCompleted, c.Status)
	})

	t.Run("inactive cart completes", func(t *testing.T) {
		c, _ := NewCart(tenantID, actorID, ModeDineIn, "")
		c.Status = StatusInactive
		require.NoError(t, c.Complete())
	})

	t.Run("completed cart is terminal", func(t *testing.T) {
		c, _ := NewCart(tenantID, actorID, ModeDineIn, "")
		require.NoError(t, c.Complete())
		assert.ErrorIs(t, c.Complete(), ErrCartNotOpen)
	})
}

func TestNewLineItem(t *testing.T) {
	cartID := uuid.New()
	tenantID := uuid.New()
	menuItemID := uuid.New()
	price := decimal.NewFromFloat(129.50)

	t.Run("clamps quantity above the maximum", func(t *testing.T) {
		item, err := NewLineItem(cartID, tenantID, menuItemID, "Paneer Tikka", 500, price)
		require.NoError(t, err)
		assert.Equal(t, MaxQuantity, item.Quantity)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewLineItem(cartID, tenantID, menuItemID, "Paneer Tikka", 1, decimal.NewFromInt(-1))
		assert.Error(t, err)
	})
}

func TestItemsTotal(t *testing.T) {
	cartID, tenantID := uuid.New(), uuid.New()
	a, _ := NewLineItem(cartID, tenantID, uuid.New(), "Dosa", 2, decimal.NewFromInt(80))
	b, _ := NewLineItem(cartID, tenantID, uuid.New(), "Chai", 3, decimal.NewFromFloat(15.50))

	total := ItemsTotal([]LineItem{*a, *b})
	assert.True(t, total.Equal(decimal.NewFromFloat(206.50)), "got %s", total)
}
