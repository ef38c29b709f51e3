package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dinecart/backend/internal/domain/cart"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newMockCartRepository creates a GormCartRepository with a mocked SQL connection
func newMockCartRepository(t *testing.T) (*GormCartRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormCartRepository(gormDB), mock, mockDB
}

// newSqliteCartRepository creates a repository on an in-memory database so
// the set/increment semantics run against real SQL
func newSqliteCartRepository(t *testing.T) *GormCartRepository {
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	// a single connection keeps every session on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gormDB.AutoMigrate(&cart.Cart{}, &cart.LineItem{}))

	return NewGormCartRepository(gormDB)
}

func seedCart(t *testing.T, repo *GormCartRepository, tenantID, actorID uuid.UUID) *cart.Cart {
	c, err := cart.NewCart(tenantID, actorID, cart.ModeDineIn, "T1")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestNewGormCartRepository_StrategySelection(t *testing.T) {
	t.Run("postgres selects atomic batch", func(t *testing.T) {
		repo, _, mockDB := newMockCartRepository(t)
		defer mockDB.Close()

		assert.Equal(t, "atomic_batch", repo.IncrementStrategyName())
	})

	t.Run("sqlite falls back to read-modify-write", func(t *testing.T) {
		repo := newSqliteCartRepository(t)

		assert.Equal(t, "read_modify_write", repo.IncrementStrategyName())
	})
}

func TestGormCartRepository_FindByID(t *testing.T) {
	t.Run("finds existing cart", func(t *testing.T) {
		repo, mock, mockDB := newMockCartRepository(t)
		defer mockDB.Close()

		cartID := uuid.New()
		tenantID := uuid.New()
		actorID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "tenant_id", "actor_id", "status", "mode", "table_code"}).
			AddRow(cartID, now, now, tenantID, actorID, "open", "dine_in", "T1")

		mock.ExpectQuery(`SELECT \* FROM "carts" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, cartID, 1).
			WillReturnRows(rows)

		c, err := repo.FindByID(context.Background(), tenantID, cartID)

		assert.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, cartID, c.ID)
		assert.Equal(t, cart.StatusOpen, c.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing cart to domain error", func(t *testing.T) {
		repo, mock, mockDB := newMockCartRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		cartID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "carts" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, cartID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		c, err := repo.FindByID(context.Background(), tenantID, cartID)

		assert.Nil(t, c)
		assert.ErrorIs(t, err, cart.ErrCartNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCartRepository_FindOpenByActor(t *testing.T) {
	t.Run("no cart yields nil without error", func(t *testing.T) {
		repo, mock, mockDB := newMockCartRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		actorID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "carts" WHERE tenant_id = \$1 AND actor_id = \$2 AND status IN \(\$3,\$4\) ORDER BY created_at DESC.* LIMIT .*`).
			WithArgs(tenantID, actorID, "open", "inactive", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		c, err := repo.FindOpenByActor(context.Background(), tenantID, actorID)

		assert.NoError(t, err)
		assert.Nil(t, c)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns newest resumable cart", func(t *testing.T) {
		repo := newSqliteCartRepository(t)
		tenantID := uuid.New()
		actorID := uuid.New()

		older := seedCart(t, repo, tenantID, actorID)
		older.CreatedAt = older.CreatedAt.Add(-time.Hour)
		require.NoError(t, repo.db.Save(older).Error)
		newer := seedCart(t, repo, tenantID, actorID)

		found, err := repo.FindOpenByActor(context.Background(), tenantID, actorID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, newer.ID, found.ID)
	})

	t.Run("completed carts are not resumable", func(t *testing.T) {
		repo := newSqliteCartRepository(t)
		tenantID := uuid.New()
		actorID := uuid.New()

		c := seedCart(t, repo, tenantID, actorID)
		require.NoError(t, repo.UpdateStatus(context.Background(), tenantID, c.ID, cart.StatusCompleted))

		found, err := repo.FindOpenByActor(context.Background(), tenantID, actorID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormCartRepository_UpdateStatus(t *testing.T) {
	t.Run("unknown cart yields cart not found", func(t *testing.T) {
		repo := newSqliteCartRepository(t)

		err := repo.UpdateStatus(context.Background(), uuid.New(), uuid.New(), cart.StatusCompleted)

		assert.ErrorIs(t, err, cart.ErrCartNotFound)
	})
}

func TestGormCartRepository_SetItems(t *testing.T) {
	ctx := context.Background()
	chai := uuid.New()
	dosa := uuid.New()

	t.Run("replaces quantities absolutely", func(t *testing.T) {
		repo := newSqliteCartRepository(t)
		tenantID := uuid.New()
		c := seedCart(t, repo, tenantID, uuid.New())

		require.NoError(t, repo.SetItems(ctx, tenantID, c.ID, []cart.ItemWrite{
			{MenuItemID: chai, Name: "Chai", Quantity: 2, UnitPrice: decimal.NewFromInt(20)},
			{MenuItemID: dosa, Name: "Dosa", Quantity: 1, UnitPrice: decimal.NewFromInt(60)},
		}))
		// re-setting is idempotent, not additive
		require.NoError(t, repo.SetItems(ctx, tenantID, c.ID, []cart.ItemWrite{
			{MenuItemID: chai, Name: "Chai", Quantity: 2, UnitPrice: decimal.NewFromInt(20)},
		}))

		items, err := repo.ListItems(ctx, tenantID, c.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, 2, itemQuantity(items, chai))
		assert.Equal(t, 1, itemQuantity(items, dosa))
	})

	t.Run("zero quantity deletes the row", func(t *testing.T) {
		repo := newSqliteCartRepository(t)
		tenantID := uuid.New()
		c := seedCart(t, repo, tenantID, uuid.New())

		require.NoError(t, repo.SetItems(ctx, tenantID, c.ID, []cart.ItemWrite{
			{MenuItemID: chai, Name: "Chai", Quantity: 3, UnitPrice: decimal.NewFromInt(20)},
		}))
		require.NoError(t, repo.SetItems(ctx, tenantID, c.ID, []cart.ItemWrite{
			{MenuItemID: chai, Name: "Chai", Quantity: 0, UnitPrice: decimal.NewFromInt(20)},
		}))

		items, err := repo.ListItems(ctx, tenantID, c.ID)
		require.NoError(t, err)
		assert.Empty(t, items)

		// the cart itself stays open
		stored, err := repo.FindByID(ctx, tenantID, c.ID)
		require.NoError(t, err)
		assert.Equal(t, cart.StatusOpen, stored.Status)
	})

	t.Run("quantities clamp to the maximum", func(t *testing.T) {
		repo := newSqliteCartRepository(t)
		tenantID := uuid.New()
		c := seedCart(t, repo, tenantID, uuid.New())

		require.NoError(t, repo.SetItems(ctx, tenantID, c.ID, []cart.ItemWrite{
			{MenuItemID: chai, Name: "Chai", Quantity: 150, UnitPrice: decimal.NewFromInt(20)},
		}))

		items, err := repo.ListItems(ctx, tenantID, c.ID)
		require.NoError(t, err)
		assert.Equal(t, cart.MaxQuantity, itemQuantity(items, chai))
	})
}

func TestAtomicBatchIncrement_SQL(t *testing.T) {
	repo, mock, mockDB := newMockCartRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	cartID := uuid.New()
	chai := uuid.New()
	samosa := uuid.New()

	mock.ExpectBegin()
	// One multi-row upsert with in-database clamping, then the overflow and
	// non-positive rows are normalized before commit.
	mock.ExpectExec(`INSERT INTO cart_line_items \(id, cart_id, tenant_id, menu_item_id, name, quantity, unit_price, created_at, updated_at\) VALUES \(.+\), \(.+\) ON CONFLICT \(cart_id, menu_item_id\) DO UPDATE SET quantity = GREATEST\(0, LEAST\(99, cart_line_items\.quantity \+ EXCLUDED\.quantity\)\), updated_at = EXCLUDED\.updated_at`).
		WithArgs(
			sqlmock.AnyArg(), cartID, tenantID, chai, "Chai",
			2, decimal.NewFromInt(3), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), cartID, tenantID, samosa, "Samosa",
			-1, decimal.NewFromInt(5), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE cart_line_items SET quantity = \$1 WHERE cart_id = \$2 AND quantity > \$3`).
		WithArgs(cart.MaxQuantity, cartID, cart.MaxQuantity).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM cart_line_items WHERE cart_id = \$1 AND quantity <= 0`).
		WithArgs(cartID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.IncrementItems(context.Background(), tenantID, cartID, []cart.ItemDelta{
		{MenuItemID: chai, Name: "Chai", Delta: 2, UnitPrice: decimal.NewFromInt(3)},
		{MenuItemID: samosa, Name: "Samosa", Delta: -1, UnitPrice: decimal.NewFromInt(5)},
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCartRepository_IncrementItems(t *testing.T) {
	ctx := context.Background()
	chai := uuid.New()

	t.Run("accumulates deltas", func(t *testing.T) {
		repo := newSqliteCartRepository(t)
		tenantID := uuid.New()
		c := seedCart(t, repo, tenantID, uuid.New())

		require.NoError(t, repo.IncrementItems(ctx, tenantID, c.ID, []cart.ItemDelta{
			{MenuItemID: chai, Name: "Chai", Delta: 2, UnitPrice: decimal.NewFromInt(20)},
		}))
		require.NoError(t, repo.IncrementItems(ctx, tenantID, c.ID, []cart.ItemDelta{
			{MenuItemID: chai, Name: "Chai", Delta: 3, UnitPrice: decimal.NewFromInt(20)},
		}))

		items, err := repo.ListItems(ctx, tenantID, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, itemQuantity(items, chai))
	})

	t.Run("clamps at the maximum", func(t *testing.T) {
		repo := newSqliteCartRepository(t)
		tenantID := uuid.New()
		c := seedCart(t, repo, tenantID, uuid.New())

		require.NoError(t, repo.IncrementItems(ctx, tenantID, c.ID, []cart.ItemDelta{
			{MenuItemID: chai, Name: "Chai", Delta: 90, UnitPrice: decimal.NewFromInt(20)},
		}))
		require.NoError(t, repo.IncrementItems(ctx, tenantID, c.ID, []cart.ItemDelta{
			{MenuItemID: chai, Name: "Chai", Delta: 20, UnitPrice: decimal.NewFromInt(20)},
		}))

		items, err := repo.ListItems(ctx, tenantID, c.ID)
		require.NoError(t, err)
		assert.Equal(t, cart.MaxQuantity, itemQuantity(items, chai))
	})

	t.Run("decrement to zero deletes the row", func(t *testing.T) {
		repo := newSqliteCartRepository(t)
		tenantID := uuid.New()
		c := seedCart(t, repo, tenantID, uuid.New())

		require.NoError(t, repo.IncrementItems(ctx, tenantID, c.ID, []cart.ItemDelta{
			{MenuItemID: chai, Name: "Chai", Delta: 2, UnitPrice: decimal.NewFromInt(20)},
		}))
		require.NoError(t, repo.IncrementItems(ctx, tenantID, c.ID, []cart.ItemDelta{
			{MenuItemID: chai, Name: "Chai", Delta: -5, UnitPrice: decimal.NewFromInt(20)},
		}))

		items, err := repo.ListItems(ctx, tenantID, c.ID)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("negative delta on a missing row is a no-op", func(t *testing.T) {
		repo := newSqliteCartRepository(t)
		tenantID := uuid.New()
		c := seedCart(t, repo, tenantID, uuid.New())

		require.NoError(t, repo.IncrementItems(ctx, tenantID, c.ID, []cart.ItemDelta{
			{MenuItemID: chai, Name: "Chai", Delta: -3, UnitPrice: decimal.NewFromInt(20)},
		}))

		items, err := repo.ListItems(ctx, tenantID, c.ID)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestGormCartRepository_RemoveItems(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes only the named rows", func(t *testing.T) {
		repo := newSqliteCartRepository(t)
		tenantID := uuid.New()
		c := seedCart(t, repo, tenantID, uuid.New())
		chai := uuid.New()
		dosa := uuid.New()

		require.NoError(t, repo.SetItems(ctx, tenantID, c.ID, []cart.ItemWrite{
			{MenuItemID: chai, Name: "Chai", Quantity: 2, UnitPrice: decimal.NewFromInt(20)},
			{MenuItemID: dosa, Name: "Dosa", Quantity: 1, UnitPrice: decimal.NewFromInt(60)},
		}))
		require.NoError(t, repo.RemoveItems(ctx, tenantID, c.ID, []uuid.UUID{chai}))

		items, err := repo.ListItems(ctx, tenantID, c.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, dosa, items[0].MenuItemID)
	})

	t.Run("empty id list is a no-op", func(t *testing.T) {
		repo := newSqliteCartRepository(t)

		assert.NoError(t, repo.RemoveItems(ctx, uuid.New(), uuid.New(), nil))
	})
}

func itemQuantity(items []cart.LineItem, menuItemID uuid.UUID) int {
	for _, it := range items {
		if it.MenuItemID == menuItemID {
			return it.Quantity
		}
	}
	return 0
}
