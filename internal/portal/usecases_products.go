package portal

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest representa a requisição para criar um produto
type CreateProductRequest struct {
	Name          string           `json:"name" binding:"required"`
	Description   string           `json:"description"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	StockQuantity int              `json:"stock_quantity" binding:"gte=0"`
}

// UpdateProductRequest representa uma atualização parcial. Campos nulos não são alterados.
type UpdateProductRequest struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

// ProductUseCase contém a lógica de negócio dos produtos
type ProductUseCase struct {
	repository Repository
	ledger     *StockLedger
}

// NewProductUseCase cria uma nova instância de ProductUseCase
func NewProductUseCase(repository Repository, ledger *StockLedger) *ProductUseCase {
	return &ProductUseCase{
		repository: repository,
		ledger:     ledger,
	}
}

// CreateProduct cria o produto e lança o estoque inicial pelo ledger
func (uc *ProductUseCase) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	if req.Price == nil {
		return nil, validationError("price is required")
	}
	if err := validatePrice("price", *req.Price); err != nil {
		return nil, err
	}
	if err := validateStockQuantity("stock_quantity", req.StockQuantity); err != nil {
		return nil, err
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	product := NewProduct(name, req.Description, *req.Price, 0)
	if err := uc.repository.CreateProduct(ctx, tx, product); err != nil {
		return nil, err
	}

	if req.StockQuantity > 0 {
		product, err = uc.ledger.AdjustStock(ctx, tx, StockAdjustment{
			ProductID: product.ID,
			Delta:     req.StockQuantity,
			Reason:    MovementReasonAdjustment,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product: %w", err)
	}

	log.Printf("✅ [PRODUCT] Created: ProductID=%s | Stock=%d", product.ID, product.StockQuantity)
	return product, nil
}

// GetProduct busca um produto pelo ID, inclusive inativo
func (uc *ProductUseCase) GetProduct(ctx context.Context, productID string) (*Product, error) {
	return uc.repository.GetProduct(ctx, nil, productID)
}

// ListProducts lista produtos com paginação
func (uc *ProductUseCase) ListProducts(ctx context.Context, page Page, activeOnly bool) ([]Product, error) {
	return uc.repository.ListProducts(ctx, nil, ProductFilter{Page: page, ActiveOnly: activeOnly})
}

// SearchProducts busca produtos ativos cujo nome contém o termo
func (uc *ProductUseCase) SearchProducts(ctx context.Context, name string) ([]Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("name is required")
	}
	return uc.repository.ListProducts(ctx, nil, ProductFilter{ActiveOnly: true, NameContains: name})
}

// ListInStock lista produtos ativos com estoque positivo
func (uc *ProductUseCase) ListInStock(ctx context.Context) ([]Product, error) {
	return uc.repository.ListProducts(ctx, nil, ProductFilter{ActiveOnly: true, InStockOnly: true})
}

// UpdateProduct aplica a atualização parcial. Mudança de estoque vira um ajuste no ledger.
func (uc *ProductUseCase) UpdateProduct(ctx context.Context, productID string, req UpdateProductRequest) (*Product, error) {
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	product, err := uc.repository.GetProductForUpdate(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validationError("name must not be empty")
		}
		product.Name = name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if err := validatePrice("price", *req.Price); err != nil {
			return nil, err
		}
		product.Price = *req.Price
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	product.UpdatedAt = time.Now().UTC()

	if err := uc.repository.UpdateProduct(ctx, tx, product); err != nil {
		return nil, err
	}

	if req.StockQuantity != nil && *req.StockQuantity != product.StockQuantity {
		if err := validateStockQuantity("stock_quantity", *req.StockQuantity); err != nil {
			return nil, err
		}
		adjusted, err := uc.ledger.AdjustStock(ctx, tx, StockAdjustment{
			ProductID: productID,
			Delta:     *req.StockQuantity - product.StockQuantity,
			Reason:    MovementReasonUpdate,
		})
		if err != nil {
			return nil, err
		}
		product.StockQuantity = adjusted.StockQuantity
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product: %w", err)
	}

	return product, nil
}

// AdjustStock aplica um ajuste manual de estoque numa transação própria
func (uc *ProductUseCase) AdjustStock(ctx context.Context, productID string, delta int) (*Product, error) {
	log.Printf("📦 [ADJUST STOCK] ProductID=%s | Delta=%d", productID, delta)

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	product, err := uc.ledger.AdjustStock(ctx, tx, StockAdjustment{
		ProductID: productID,
		Delta:     delta,
		Reason:    MovementReasonAdjustment,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}

	return product, nil
}

// Deactivate faz o soft delete: o produto sai das vendas e listagens mas continua legível pelo ID
func (uc *ProductUseCase) Deactivate(ctx context.Context, productID string) error {
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	product, err := uc.repository.GetProductForUpdate(ctx, tx, productID)
	if err != nil {
		return err
	}

	product.IsActive = false
	product.UpdatedAt = time.Now().UTC()
	if err := uc.repository.UpdateProduct(ctx, tx, product); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deactivation: %w", err)
	}

	log.Printf("ℹ️ [PRODUCT] Deactivated: ProductID=%s", productID)
	return nil
}

// Purge remove o produto permanentemente. Produtos com vendas não podem ser removidos.
func (uc *ProductUseCase) Purge(ctx context.Context, productID string) error {
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := uc.repository.GetProductForUpdate(ctx, tx, productID); err != nil {
		return err
	}

	count, err := uc.repository.CountSales(ctx, tx, SaleFilter{ProductID: productID})
	if err != nil {
		return err
	}
	if count > 0 {
		log.Printf("❌ [PRODUCT] Purge refused: ProductID=%s has %d sales", productID, count)
		return ErrProductHasSales
	}

	if err := uc.repository.DeleteProduct(ctx, tx, productID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit purge: %w", err)
	}

	log.Printf("🗑️ [PRODUCT] Purged: ProductID=%s", productID)
	return nil
}

// ListMovements lista o histórico de estoque do produto
func (uc *ProductUseCase) ListMovements(ctx context.Context, productID string) ([]StockMovement, error) {
	if _, err := uc.repository.GetProduct(ctx, nil, productID); err != nil {
		return nil, err
	}
	return uc.repository.ListStockMovements(ctx, nil, productID)
}
