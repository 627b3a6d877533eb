package portal

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StockLedger é o único ponto de escrita de stock_quantity.
// Garante que o estoque de um produto nunca fica negativo.
type StockLedger struct {
	repository ProductRepository
	metrics    *Metrics
}

// NewStockLedger cria uma nova instância de StockLedger
func NewStockLedger(repository ProductRepository, metrics *Metrics) *StockLedger {
	return &StockLedger{
		repository: repository,
		metrics:    metrics,
	}
}

// StockAdjustment descreve um ajuste de estoque. Delta positivo repõe, negativo debita.
type StockAdjustment struct {
	ProductID string
	Delta     int
	Reason    string
	SaleID    string
}

// AdjustStock aplica o ajuste dentro da transação informada.
// O produto é lido com lock pessimista, então o valor verificado é o valor gravado.
func (l *StockLedger) AdjustStock(ctx context.Context, tx Tx, adj StockAdjustment) (*Product, error) {
	if adj.Delta > MaxStockQuantity || adj.Delta < -MaxStockQuantity {
		return nil, validationError("stock change must be between %d and %d", -MaxStockQuantity, MaxStockQuantity)
	}

	// 1. Obtém o produto com LOCK PESSIMISTA (SELECT FOR UPDATE)
	product, err := l.repository.GetProductForUpdate(ctx, tx, adj.ProductID)
	if err != nil {
		return nil, err
	}

	// 2. Regra de Negócio: estoque nunca negativo e dentro da coluna INTEGER
	newStock := product.StockQuantity + adj.Delta
	if newStock > MaxStockQuantity {
		return nil, validationError("resulting stock must not exceed %d", MaxStockQuantity)
	}
	if newStock < 0 {
		log.Printf("❌ [STOCK] Rejected | ProductID=%s | Current=%d | Delta=%d", adj.ProductID, product.StockQuantity, adj.Delta)
		l.metrics.StockRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", adj.Reason)))
		return nil, &InsufficientStockError{
			ProductID: adj.ProductID,
			Available: product.StockQuantity,
			Requested: -adj.Delta,
		}
	}

	// 3. Grava o estoque e o registro de movimentação
	if err := l.repository.UpdateStock(ctx, tx, adj.ProductID, newStock); err != nil {
		return nil, err
	}

	movement := NewStockMovement(adj.ProductID, adj.SaleID, adj.Delta, adj.Reason, newStock)
	if err := l.repository.CreateStockMovement(ctx, tx, movement); err != nil {
		return nil, err
	}

	l.metrics.StockAdjustments.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", adj.Reason)))

	product.StockQuantity = newStock
	return product, nil
}
