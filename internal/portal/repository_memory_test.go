package portal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryImplementsRepository(t *testing.T) {
	assert.Implements(t, (*Repository)(nil), NewMemoryRepository())
}

func TestMemoryTx_RollbackUndoesWrites(t *testing.T) {
	// Arrange
	repo := NewMemoryRepository()
	ctx := context.Background()
	product := NewProduct("Borracha", "", dec("1.00"), 0)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateProduct(ctx, tx, product))
	require.NoError(t, repo.UpdateStock(ctx, tx, product.ID, 9))
	require.NoError(t, repo.CreateStockMovement(ctx, tx, NewStockMovement(product.ID, "", 9, MovementReasonAdjustment, 9)))

	// Act
	require.NoError(t, tx.Rollback())

	// Assert
	_, err = repo.GetProduct(ctx, nil, product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	movements, err := repo.ListStockMovements(ctx, nil, product.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)

	// Rollback depois de encerrada não tem efeito e Commit falha
	assert.NoError(t, tx.Rollback())
	assert.Error(t, tx.Commit())
}

func TestMemoryRepository_UniqueEmail(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, nil, NewUser("A", "same@example.com")))

	err := repo.CreateUser(ctx, nil, NewUser("B", "same@example.com"))

	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemoryRepository_UpdateProductKeepsStock(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	product := NewProduct("Régua", "", dec("3.00"), 7)
	require.NoError(t, repo.CreateProduct(ctx, nil, product))

	changed := *product
	changed.Name = "Régua 30cm"
	changed.StockQuantity = 999
	require.NoError(t, repo.UpdateProduct(ctx, nil, &changed))

	stored, err := repo.GetProduct(ctx, nil, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Régua 30cm", stored.Name)
	assert.Equal(t, 7, stored.StockQuantity)
}

func TestMemoryRepository_NameSearchIsLiteral(t *testing.T) {
	// Arrange
	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateProduct(ctx, nil, NewProduct("Caneta Azul", "", dec("2.00"), 1)))
	require.NoError(t, repo.CreateProduct(ctx, nil, NewProduct("Cupom 50%_off", "", dec("0.00"), 1)))

	// Act
	wildcard, err := repo.ListProducts(ctx, nil, ProductFilter{NameContains: "_"})
	require.NoError(t, err)
	percent, err := repo.ListProducts(ctx, nil, ProductFilter{NameContains: "50%"})
	require.NoError(t, err)

	// Assert
	require.Len(t, wildcard, 1)
	assert.Equal(t, "Cupom 50%_off", wildcard[0].Name)
	require.Len(t, percent, 1)
}
