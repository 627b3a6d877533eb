package portal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSale(t *testing.T) {
	// Arrange
	userID := "user-456"
	productID := "product-789"

	// Act
	sale := NewSale(userID, productID, 3, dec("45.90"))

	// Assert
	assert.NotEmpty(t, sale.ID)
	assert.Equal(t, userID, sale.UserID)
	assert.Equal(t, productID, sale.ProductID)
	assert.Equal(t, 3, sale.Quantity)
	assert.True(t, sale.TotalPrice.Equal(dec("137.70")), "total=%s", sale.TotalPrice)
	assert.WithinDuration(t, time.Now(), sale.SaleDate, time.Second)
	assert.Equal(t, time.UTC, sale.SaleDate.Location())
}

func TestNewProduct(t *testing.T) {
	product := NewProduct("Notebook", "15 pol", dec("3500.00"), 5)

	assert.NotEmpty(t, product.ID)
	assert.True(t, product.IsActive)
	assert.Equal(t, 5, product.StockQuantity)
	assert.False(t, product.CreatedAt.IsZero())
	assert.Equal(t, product.CreatedAt, product.UpdatedAt)
}

func TestProduct_CanSell(t *testing.T) {
	tests := []struct {
		name     string
		product  Product
		quantity int
		want     bool
	}{
		{"enough stock", Product{IsActive: true, StockQuantity: 5}, 5, true},
		{"not enough stock", Product{IsActive: true, StockQuantity: 4}, 5, false},
		{"inactive", Product{IsActive: false, StockQuantity: 10}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.CanSell(tt.quantity))
		})
	}
}

func TestProduct_InStock(t *testing.T) {
	assert.True(t, (&Product{IsActive: true, StockQuantity: 1}).InStock())
	assert.False(t, (&Product{IsActive: true, StockQuantity: 0}).InStock())
	assert.False(t, (&Product{IsActive: false, StockQuantity: 3}).InStock())
}

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		summary := Summarize(nil)

		assert.Equal(t, 0, summary.TotalSales)
		assert.Equal(t, 0, summary.TotalQuantity)
		assert.True(t, summary.TotalValue.IsZero())
		assert.True(t, summary.AverageSaleValue.IsZero())
	})

	t.Run("average rounded to cents", func(t *testing.T) {
		sales := []Sale{
			{Quantity: 1, TotalPrice: dec("10.00")},
			{Quantity: 2, TotalPrice: dec("10.00")},
			{Quantity: 3, TotalPrice: dec("10.01")},
		}

		summary := Summarize(sales)

		assert.Equal(t, 3, summary.TotalSales)
		assert.Equal(t, 6, summary.TotalQuantity)
		assert.True(t, summary.TotalValue.Equal(dec("30.01")))
		assert.Equal(t, "10.00", summary.AverageSaleValue.StringFixed(2))
	})
}

func TestInsufficientStockError(t *testing.T) {
	err := &InsufficientStockError{ProductID: "p1", Available: 0, Requested: 2}

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "available=0")
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestErrorTaxonomy(t *testing.T) {
	assert.ErrorIs(t, ErrProductInactive, ErrProductNotFound)
	assert.ErrorIs(t, ErrProductInactive, ErrNotFound)
	assert.ErrorIs(t, ErrUserHasSales, ErrConflict)
	assert.ErrorIs(t, validationError("bad %s", "input"), ErrValidation)
	assert.Equal(t, "product not found or inactive", ErrProductInactive.Error())
}
