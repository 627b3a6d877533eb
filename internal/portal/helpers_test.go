package portal

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

// newTestService monta o Service sobre um MemoryRepository novo
func newTestService(t *testing.T) (*Service, *MemoryRepository) {
	t.Helper()

	metrics, err := NewMetrics()
	require.NoError(t, err)

	repo := NewMemoryRepository()
	return NewService(repo, otel.Tracer("portal-test"), metrics, time.UTC), repo
}

func newTestLedger(t *testing.T, repo ProductRepository) *StockLedger {
	t.Helper()

	metrics, err := NewMetrics()
	require.NoError(t, err)
	return NewStockLedger(repo, metrics)
}

func mustUser(t *testing.T, svc *Service, email string) *User {
	t.Helper()

	user, err := svc.Users.CreateUser(context.Background(), CreateUserRequest{Name: "Test User", Email: email})
	require.NoError(t, err)
	return user
}

func mustProduct(t *testing.T, svc *Service, name, price string, stock int) *Product {
	t.Helper()

	p := decimal.RequireFromString(price)
	product, err := svc.Products.CreateProduct(context.Background(), CreateProductRequest{
		Name:          name,
		Price:         &p,
		StockQuantity: stock,
	})
	require.NoError(t, err)
	return product
}

func mustStock(t *testing.T, svc *Service, productID string) int {
	t.Helper()

	product, err := svc.Products.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return product.StockQuantity
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
