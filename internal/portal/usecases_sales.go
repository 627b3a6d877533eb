package portal

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CreateSaleRequest representa a requisição para registrar uma venda.
// UnitPrice nulo significa usar o preço atual do produto.
type CreateSaleRequest struct {
	UserID    string           `json:"user_id" binding:"required"`
	ProductID string           `json:"product_id" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// SaleUseCase contém a lógica de negócio das vendas
type SaleUseCase struct {
	repository Repository
	ledger     *StockLedger
	tracer     trace.Tracer
	metrics    *Metrics
}

// NewSaleUseCase cria uma nova instância de SaleUseCase
func NewSaleUseCase(
	repository Repository,
	ledger *StockLedger,
	tracer trace.Tracer,
	metrics *Metrics,
) *SaleUseCase {
	return &SaleUseCase{
		repository: repository,
		ledger:     ledger,
		tracer:     tracer,
		metrics:    metrics,
	}
}

func (req CreateSaleRequest) validate() error {
	if req.UserID == "" {
		return validationError("user_id is required")
	}
	if req.ProductID == "" {
		return validationError("product_id is required")
	}
	if req.Quantity <= 0 {
		return validationError("quantity must be greater than zero")
	}
	if req.Quantity > MaxStockQuantity {
		return validationError("quantity must not exceed %d", MaxStockQuantity)
	}
	if req.UnitPrice != nil {
		return validatePrice("unit_price", *req.UnitPrice)
	}
	return nil
}

// CreateSale registra a venda e debita o estoque numa única transação.
// Qualquer falha desfaz a transação inteira: não sobra venda sem débito nem débito sem venda.
func (uc *SaleUseCase) CreateSale(ctx context.Context, req CreateSaleRequest) (*Sale, error) {
	ctx, span := uc.tracer.Start(ctx, "sales.CreateSale")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("product_id", req.ProductID),
		attribute.Int("quantity", req.Quantity),
	)

	log.Printf("➡️ [CREATE SALE] UserID: %s | ProductID: %s | Quantity: %d", req.UserID, req.ProductID, req.Quantity)

	sale, err := uc.createSale(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("❌ [CREATE SALE] FAILED | ProductID=%s | Error=%v", req.ProductID, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("sale_id", sale.ID))
	uc.metrics.SalesCreated.Add(ctx, 1)
	uc.metrics.SalesRevenue.Add(ctx, sale.TotalPrice.InexactFloat64())

	log.Printf("✅ [CREATE SALE] Success: SaleID=%s | Total=%s", sale.ID, sale.TotalPrice.StringFixed(2))
	return sale, nil
}

func (uc *SaleUseCase) createSale(ctx context.Context, req CreateSaleRequest) (*Sale, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	// 1. Inicia a transação
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 2. Usuário precisa existir
	if _, err := uc.repository.GetUser(ctx, tx, req.UserID); err != nil {
		return nil, err
	}

	// 3. Obtém o produto com LOCK PESSIMISTA (SELECT FOR UPDATE)
	// Vendas concorrentes do mesmo produto esperam aqui até o Commit ou Rollback
	product, err := uc.repository.GetProductForUpdate(ctx, tx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductInactive
	}

	// 4. Regra de Negócio: verifica estoque sob o lock
	if product.StockQuantity < req.Quantity {
		return nil, &InsufficientStockError{
			ProductID: product.ID,
			Available: product.StockQuantity,
			Requested: req.Quantity,
		}
	}

	// 5. Resolve o preço unitário e grava a venda
	unitPrice := product.Price
	if req.UnitPrice != nil {
		unitPrice = *req.UnitPrice
	}

	sale := NewSale(req.UserID, product.ID, req.Quantity, unitPrice)
	if err := validateTotal(sale.TotalPrice); err != nil {
		return nil, err
	}
	if err := uc.repository.CreateSale(ctx, tx, sale); err != nil {
		return nil, err
	}

	// 6. Debita o estoque pelo ledger
	if _, err := uc.ledger.AdjustStock(ctx, tx, StockAdjustment{
		ProductID: product.ID,
		Delta:     -req.Quantity,
		Reason:    MovementReasonSale,
		SaleID:    sale.ID,
	}); err != nil {
		return nil, err
	}

	// 7. Commit da transação
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}

	return sale, nil
}

// CancelSale estorna o estoque e remove a venda.
// Retorna false, sem erro, quando a venda não existe (inclusive se já foi cancelada).
func (uc *SaleUseCase) CancelSale(ctx context.Context, saleID string) (bool, error) {
	ctx, span := uc.tracer.Start(ctx, "sales.CancelSale")
	defer span.End()

	span.SetAttributes(attribute.String("sale_id", saleID))

	log.Printf("↩️ [CANCEL SALE] SaleID: %s", saleID)

	// 1. Inicia a transação
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 2. Obtém a venda com LOCK PESSIMISTA, dois cancelamentos simultâneos serializam aqui
	sale, err := uc.repository.GetSaleForUpdate(ctx, tx, saleID)
	if errors.Is(err, ErrSaleNotFound) {
		log.Printf("ℹ️ [CANCEL SALE] Nothing to cancel for SaleID=%s", saleID)
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	// 3. Estorna o estoque. Produto inexistente não impede o cancelamento.
	_, err = uc.ledger.AdjustStock(ctx, tx, StockAdjustment{
		ProductID: sale.ProductID,
		Delta:     sale.Quantity,
		Reason:    MovementReasonSaleCancel,
		SaleID:    sale.ID,
	})
	if errors.Is(err, ErrNotFound) {
		log.Printf("ℹ️ [CANCEL SALE] Stock credit skipped for SaleID=%s: %v", saleID, err)
	} else if err != nil {
		span.RecordError(err)
		return false, err
	}

	// 4. Remove a venda
	if err := uc.repository.DeleteSale(ctx, tx, sale.ID); err != nil {
		span.RecordError(err)
		return false, err
	}

	// 5. Commit da transação
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	uc.metrics.SalesCancelled.Add(ctx, 1, metric.WithAttributes(attribute.String("product_id", sale.ProductID)))

	log.Printf("✅ [CANCEL SALE] Success: SaleID=%s | Restored=%d", saleID, sale.Quantity)
	return true, nil
}

// GetSale busca uma venda pelo ID
func (uc *SaleUseCase) GetSale(ctx context.Context, saleID string) (*Sale, error) {
	return uc.repository.GetSale(ctx, nil, saleID)
}

// ListSales lista as vendas com paginação
func (uc *SaleUseCase) ListSales(ctx context.Context, page Page) ([]Sale, error) {
	return uc.repository.ListSales(ctx, nil, SaleFilter{Page: page})
}

// ListSalesByUser lista as vendas de um usuário
func (uc *SaleUseCase) ListSalesByUser(ctx context.Context, userID string) ([]Sale, error) {
	return uc.repository.ListSales(ctx, nil, SaleFilter{UserID: userID})
}

// ListSalesByProduct lista as vendas de um produto
func (uc *SaleUseCase) ListSalesByProduct(ctx context.Context, productID string) ([]Sale, error) {
	return uc.repository.ListSales(ctx, nil, SaleFilter{ProductID: productID})
}
