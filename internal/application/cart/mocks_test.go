package cart

import (
	"context"
	"time"

	"github.com/dinecart/backend/internal/domain/cart"
	"github.com/dinecart/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCartRepository is a mock implementation of cart.Repository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) FindOpenByActor(ctx context.Context, tenantID, actorID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, tenantID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) Create(ctx context.Context, c *cart.Cart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCartRepository) UpdateStatus(ctx context.Context, tenantID, cartID uuid.UUID, status cart.Status) error {
	args := m.Called(ctx, tenantID, cartID, status)
	return args.Error(0)
}

func (m *MockCartRepository) ListItems(ctx context.Context, tenantID, cartID uuid.UUID) ([]cart.LineItem, error) {
	args := m.Called(ctx, tenantID, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.LineItem), args.Error(1)
}

func (m *MockCartRepository) SetItems(ctx context.Context, tenantID, cartID uuid.UUID, rows []cart.ItemWrite) error {
	args := m.Called(ctx, tenantID, cartID, rows)
	return args.Error(0)
}

func (m *MockCartRepository) IncrementItems(ctx context.Context, tenantID, cartID uuid.UUID, rows []cart.ItemDelta) error {
	args := m.Called(ctx, tenantID, cartID, rows)
	return args.Error(0)
}

func (m *MockCartRepository) RemoveItems(ctx context.Context, tenantID, cartID uuid.UUID, menuItemIDs []uuid.UUID) error {
	args := m.Called(ctx, tenantID, cartID, menuItemIDs)
	return args.Error(0)
}

// MockTaxProfileRepository is a mock implementation of tax.ProfileRepository
type MockTaxProfileRepository struct {
	mock.Mock
}

func (m *MockTaxProfileRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*tax.Profile, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.Profile), args.Error(1)
}

func (m *MockTaxProfileRepository) Save(ctx context.Context, profile *tax.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// MockCatalogReader is a mock implementation of cart.CatalogReader
type MockCatalogReader struct {
	mock.Mock
}

func (m *MockCatalogReader) DisplayInfo(ctx context.Context, tenantID uuid.UUID, menuItemIDs []uuid.UUID) (map[uuid.UUID]cart.MenuDisplay, error) {
	args := m.Called(ctx, tenantID, menuItemIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]cart.MenuDisplay), args.Error(1)
}

// MockOrderCreator is a mock implementation of cart.OrderCreator
type MockOrderCreator struct {
	mock.Mock
}

func (m *MockOrderCreator) CreateOrder(ctx context.Context, tenantID uuid.UUID, draft cart.OrderDraft) (uuid.UUID, error) {
	args := m.Called(ctx, tenantID, draft)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MockSummaryCache is a mock implementation of cart.SummaryCache
type MockSummaryCache struct {
	mock.Mock
}

func (m *MockSummaryCache) Put(ctx context.Context, tenantID, cartID uuid.UUID, payload []byte, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, cartID, payload, ttl)
	return args.Error(0)
}

func (m *MockSummaryCache) Get(ctx context.Context, tenantID, cartID uuid.UUID) ([]byte, bool, error) {
	args := m.Called(ctx, tenantID, cartID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockSummaryCache) Invalidate(ctx context.Context, tenantID, cartID uuid.UUID) error {
	args := m.Called(ctx, tenantID, cartID)
	return args.Error(0)
}
