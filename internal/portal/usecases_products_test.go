package portal

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct_InitialStockGoesThroughLedger(t *testing.T) {
	// Arrange
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Act
	product := mustProduct(t, svc, "Teclado", "150.00", 12)

	// Assert
	assert.Equal(t, 12, product.StockQuantity)
	movements, err := svc.Products.ListMovements(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, 12, movements[0].ChangeQuantity)
	assert.Equal(t, 12, movements[0].ResultingStock)
	assert.Equal(t, MovementReasonAdjustment, movements[0].Reason)
	assert.Empty(t, movements[0].SaleID)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	price := dec("10.00")
	negative := dec("-0.01")
	subCent := dec("1.005")
	huge := dec("10000000000")

	tests := []struct {
		name string
		req  CreateProductRequest
	}{
		{"blank name", CreateProductRequest{Name: "  ", Price: &price}},
		{"missing price", CreateProductRequest{Name: "Mouse"}},
		{"negative price", CreateProductRequest{Name: "Mouse", Price: &negative}},
		{"negative stock", CreateProductRequest{Name: "Mouse", Price: &price, StockQuantity: -1}},
		{"sub-cent price", CreateProductRequest{Name: "Mouse", Price: &subCent}},
		{"price beyond the column", CreateProductRequest{Name: "Mouse", Price: &huge}},
		{"stock beyond the column", CreateProductRequest{Name: "Mouse", Price: &price, StockQuantity: MaxStockQuantity + 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Products.CreateProduct(ctx, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAdjustStock(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	product := mustProduct(t, svc, "Cabo", "15.00", 3)

	t.Run("debit beyond stock is rejected", func(t *testing.T) {
		_, err := svc.Products.AdjustStock(ctx, product.ID, -5)

		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 3, stockErr.Available)
		assert.Equal(t, 3, mustStock(t, svc, product.ID))
	})

	t.Run("credit", func(t *testing.T) {
		updated, err := svc.Products.AdjustStock(ctx, product.ID, 5)

		require.NoError(t, err)
		assert.Equal(t, 8, updated.StockQuantity)
		assert.Equal(t, 8, mustStock(t, svc, product.ID))
	})

	t.Run("debit to zero", func(t *testing.T) {
		updated, err := svc.Products.AdjustStock(ctx, product.ID, -8)

		require.NoError(t, err)
		assert.Equal(t, 0, updated.StockQuantity)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.Products.AdjustStock(ctx, "missing", 1)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	movements, err := svc.Products.ListMovements(ctx, product.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 3, "rejected adjustment must not leave a movement")
}

func TestAdjustStock_StaysWithinColumn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	product := mustProduct(t, svc, "Parafuso", "0.10", MaxStockQuantity-1)

	_, err := svc.Products.AdjustStock(ctx, product.ID, 2)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Products.AdjustStock(ctx, product.ID, math.MaxInt)
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.Products.AdjustStock(ctx, product.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, MaxStockQuantity, updated.StockQuantity)
}

func TestUpdateProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	product := mustProduct(t, svc, "Monitor", "900.00", 4)

	t.Run("partial update keeps other fields", func(t *testing.T) {
		name := "Monitor 27"
		updated, err := svc.Products.UpdateProduct(ctx, product.ID, UpdateProductRequest{Name: &name})

		require.NoError(t, err)
		assert.Equal(t, "Monitor 27", updated.Name)
		assert.True(t, updated.Price.Equal(dec("900.00")))
		assert.Equal(t, 4, updated.StockQuantity)
	})

	t.Run("stock change is recorded as update movement", func(t *testing.T) {
		stock := 10
		updated, err := svc.Products.UpdateProduct(ctx, product.ID, UpdateProductRequest{StockQuantity: &stock})

		require.NoError(t, err)
		assert.Equal(t, 10, updated.StockQuantity)

		movements, err := svc.Products.ListMovements(ctx, product.ID)
		require.NoError(t, err)
		last := movements[len(movements)-1]
		assert.Equal(t, MovementReasonUpdate, last.Reason)
		assert.Equal(t, 6, last.ChangeQuantity)
	})

	t.Run("negative stock rolls back the whole update", func(t *testing.T) {
		name := "Should not stick"
		stock := -1
		_, err := svc.Products.UpdateProduct(ctx, product.ID, UpdateProductRequest{Name: &name, StockQuantity: &stock})

		assert.ErrorIs(t, err, ErrValidation)
		current, err := svc.Products.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, "Monitor 27", current.Name)
		assert.Equal(t, 10, current.StockQuantity)
	})

	t.Run("sub-cent price is rejected", func(t *testing.T) {
		price := dec("899.999")
		_, err := svc.Products.UpdateProduct(ctx, product.ID, UpdateProductRequest{Price: &price})

		assert.ErrorIs(t, err, ErrValidation)
		current, err := svc.Products.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.True(t, current.Price.Equal(dec("900.00")))
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.Products.UpdateProduct(ctx, "missing", UpdateProductRequest{})
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestDeactivateProduct(t *testing.T) {
	// Arrange
	svc, _ := newTestService(t)
	ctx := context.Background()
	kept := mustProduct(t, svc, "Cadeira", "450.00", 2)
	gone := mustProduct(t, svc, "Cadeira antiga", "300.00", 2)

	// Act
	err := svc.Products.Deactivate(ctx, gone.ID)

	// Assert
	require.NoError(t, err)

	active, err := svc.Products.ListProducts(ctx, Page{Limit: DefaultLimit}, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, kept.ID, active[0].ID)

	all, err := svc.Products.ListProducts(ctx, Page{Limit: DefaultLimit}, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	stored, err := svc.Products.GetProduct(ctx, gone.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	found, err := svc.Products.SearchProducts(ctx, "cadeira")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, kept.ID, found[0].ID)

	assert.ErrorIs(t, svc.Products.Deactivate(ctx, "missing"), ErrProductNotFound)
}

func TestSearchAndInStock(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	mustProduct(t, svc, "Café Especial", "42.00", 10)
	mustProduct(t, svc, "Cafeteira", "250.00", 0)
	mustProduct(t, svc, "Chá", "12.00", 7)

	found, err := svc.Products.SearchProducts(ctx, "CAF")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = svc.Products.SearchProducts(ctx, "  ")
	assert.ErrorIs(t, err, ErrValidation)

	inStock, err := svc.Products.ListInStock(ctx)
	require.NoError(t, err)
	assert.Len(t, inStock, 2)
	for _, p := range inStock {
		assert.Positive(t, p.StockQuantity)
	}
}

func TestPurgeProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := mustUser(t, svc, "ivo@example.com")
	sold := mustProduct(t, svc, "Vendido", "10.00", 5)
	unsold := mustProduct(t, svc, "Encalhado", "10.00", 5)

	_, err := svc.Sales.CreateSale(ctx, CreateSaleRequest{UserID: user.ID, ProductID: sold.ID, Quantity: 1})
	require.NoError(t, err)

	t.Run("product with sales is kept", func(t *testing.T) {
		err := svc.Products.Purge(ctx, sold.ID)

		assert.ErrorIs(t, err, ErrProductHasSales)
		assert.ErrorIs(t, err, ErrConflict)
		_, err = svc.Products.GetProduct(ctx, sold.ID)
		assert.NoError(t, err)
	})

	t.Run("product without sales is removed with its movements", func(t *testing.T) {
		require.NoError(t, svc.Products.Purge(ctx, unsold.ID))

		_, err := svc.Products.GetProduct(ctx, unsold.ID)
		assert.ErrorIs(t, err, ErrProductNotFound)
		_, err = svc.Products.ListMovements(ctx, unsold.ID)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("unknown product", func(t *testing.T) {
		assert.ErrorIs(t, svc.Products.Purge(ctx, "missing"), ErrProductNotFound)
	})
}

func TestListProducts_Pagination(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	names := []string{"A", "B", "C", "D", "E"}
	for _, n := range names {
		mustProduct(t, svc, n, "1.00", 1)
	}

	page, err := svc.Products.ListProducts(ctx, Page{Skip: 1, Limit: 2}, true)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "B", page[0].Name)
	assert.Equal(t, "C", page[1].Name)

	empty, err := svc.Products.ListProducts(ctx, Page{Skip: 10, Limit: 2}, true)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
