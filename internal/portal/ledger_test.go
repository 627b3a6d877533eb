package portal

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository simula o ProductRepository usado pelo ledger
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) CreateProduct(ctx context.Context, tx Tx, product *Product) error {
	args := m.Called(ctx, tx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetProduct(ctx context.Context, tx Tx, productID string) (*Product, error) {
	args := m.Called(ctx, tx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockProductRepository) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error) {
	args := m.Called(ctx, tx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockProductRepository) ListProducts(ctx context.Context, tx Tx, filter ProductFilter) ([]Product, error) {
	args := m.Called(ctx, tx, filter)
	return args.Get(0).([]Product), args.Error(1)
}

func (m *MockProductRepository) UpdateProduct(ctx context.Context, tx Tx, product *Product) error {
	args := m.Called(ctx, tx, product)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateStock(ctx context.Context, tx Tx, productID string, newStock int) error {
	args := m.Called(ctx, tx, productID, newStock)
	return args.Error(0)
}

func (m *MockProductRepository) DeleteProduct(ctx context.Context, tx Tx, productID string) error {
	args := m.Called(ctx, tx, productID)
	return args.Error(0)
}

func (m *MockProductRepository) CreateStockMovement(ctx context.Context, tx Tx, movement *StockMovement) error {
	args := m.Called(ctx, tx, movement)
	return args.Error(0)
}

func (m *MockProductRepository) ListStockMovements(ctx context.Context, tx Tx, productID string) ([]StockMovement, error) {
	args := m.Called(ctx, tx, productID)
	return args.Get(0).([]StockMovement), args.Error(1)
}

// MockTx simula uma transação
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	return m.Called().Error(0)
}

func (m *MockTx) Rollback() error {
	return m.Called().Error(0)
}

func TestStockLedger_AdjustStock_Debit(t *testing.T) {
	// Arrange
	repo := new(MockProductRepository)
	tx := new(MockTx)
	ctx := context.Background()
	ledger := newTestLedger(t, repo)

	repo.On("GetProductForUpdate", ctx, tx, "product-1").
		Return(&Product{ID: "product-1", StockQuantity: 50, IsActive: true}, nil)
	repo.On("UpdateStock", ctx, tx, "product-1", 47).Return(nil)
	repo.On("CreateStockMovement", ctx, tx, mock.MatchedBy(func(m *StockMovement) bool {
		return m.ProductID == "product-1" &&
			m.SaleID == "sale-1" &&
			m.ChangeQuantity == -3 &&
			m.ResultingStock == 47 &&
			m.Reason == MovementReasonSale
	})).Return(nil)

	// Act
	product, err := ledger.AdjustStock(ctx, tx, StockAdjustment{
		ProductID: "product-1",
		Delta:     -3,
		Reason:    MovementReasonSale,
		SaleID:    "sale-1",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 47, product.StockQuantity)
	repo.AssertExpectations(t)
}

func TestStockLedger_AdjustStock_RejectsNegative(t *testing.T) {
	// Arrange
	repo := new(MockProductRepository)
	tx := new(MockTx)
	ctx := context.Background()
	ledger := newTestLedger(t, repo)

	repo.On("GetProductForUpdate", ctx, tx, "product-1").
		Return(&Product{ID: "product-1", StockQuantity: 3, IsActive: true}, nil)

	// Act
	product, err := ledger.AdjustStock(ctx, tx, StockAdjustment{
		ProductID: "product-1",
		Delta:     -5,
		Reason:    MovementReasonAdjustment,
	})

	// Assert
	assert.Nil(t, product)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
	repo.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "CreateStockMovement", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestStockLedger_AdjustStock_ProductNotFound(t *testing.T) {
	repo := new(MockProductRepository)
	tx := new(MockTx)
	ctx := context.Background()
	ledger := newTestLedger(t, repo)

	repo.On("GetProductForUpdate", ctx, tx, "missing").Return(nil, ErrProductNotFound)

	_, err := ledger.AdjustStock(ctx, tx, StockAdjustment{ProductID: "missing", Delta: 1})

	assert.ErrorIs(t, err, ErrNotFound)
	repo.AssertExpectations(t)
}

func TestStockLedger_AdjustStock_OutOfRange(t *testing.T) {
	ctx := context.Background()

	t.Run("delta beyond the column is rejected before locking", func(t *testing.T) {
		repo := new(MockProductRepository)
		tx := new(MockTx)

		_, err := newTestLedger(t, repo).AdjustStock(ctx, tx, StockAdjustment{ProductID: "product-1", Delta: math.MaxInt})

		assert.ErrorIs(t, err, ErrValidation)
		repo.AssertNotCalled(t, "GetProductForUpdate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("resulting stock beyond the column is rejected", func(t *testing.T) {
		repo := new(MockProductRepository)
		tx := new(MockTx)
		repo.On("GetProductForUpdate", ctx, tx, "product-1").
			Return(&Product{ID: "product-1", StockQuantity: MaxStockQuantity}, nil)

		_, err := newTestLedger(t, repo).AdjustStock(ctx, tx, StockAdjustment{ProductID: "product-1", Delta: 1})

		assert.ErrorIs(t, err, ErrValidation)
		repo.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStockLedger_AdjustStock_MovementFailure(t *testing.T) {
	repo := new(MockProductRepository)
	tx := new(MockTx)
	ctx := context.Background()
	ledger := newTestLedger(t, repo)
	boom := errors.New("disk full")

	repo.On("GetProductForUpdate", ctx, tx, "product-1").Return(&Product{ID: "product-1", StockQuantity: 1}, nil)
	repo.On("UpdateStock", ctx, tx, "product-1", 3).Return(nil)
	repo.On("CreateStockMovement", ctx, tx, mock.Anything).Return(boom)

	_, err := ledger.AdjustStock(ctx, tx, StockAdjustment{ProductID: "product-1", Delta: 2})

	assert.ErrorIs(t, err, boom)
}

func TestStockLedger_AdjustStock_ZeroDeltaIsRecorded(t *testing.T) {
	// Arrange
	repo := NewMemoryRepository()
	ledger := newTestLedger(t, repo)
	ctx := context.Background()
	product := NewProduct("Caneta", "", dec("2.50"), 0)
	require.NoError(t, repo.CreateProduct(ctx, nil, product))

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	// Act
	updated, err := ledger.AdjustStock(ctx, tx, StockAdjustment{ProductID: product.ID, Delta: 0, Reason: MovementReasonAdjustment})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	// Assert
	assert.Equal(t, 0, updated.StockQuantity)
	movements, err := repo.ListStockMovements(ctx, nil, product.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}
