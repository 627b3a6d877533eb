package portal

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/matheusmosca/sales-portal/internal/portal"

// Metrics agrupa os instrumentos OpenTelemetry do portal
type Metrics struct {
	SalesCreated     metric.Int64Counter
	SalesCancelled   metric.Int64Counter
	SalesRevenue     metric.Float64Counter
	StockAdjustments metric.Int64Counter
	StockRejections  metric.Int64Counter
}

// NewMetrics registra os instrumentos no MeterProvider global
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	var (
		m   Metrics
		err error
	)

	if m.SalesCreated, err = meter.Int64Counter("sales.created",
		metric.WithDescription("Number of sales created")); err != nil {
		return nil, fmt.Errorf("failed to create sales.created counter: %w", err)
	}
	if m.SalesCancelled, err = meter.Int64Counter("sales.cancelled",
		metric.WithDescription("Number of sales cancelled")); err != nil {
		return nil, fmt.Errorf("failed to create sales.cancelled counter: %w", err)
	}
	if m.SalesRevenue, err = meter.Float64Counter("sales.revenue",
		metric.WithDescription("Total value of created sales")); err != nil {
		return nil, fmt.Errorf("failed to create sales.revenue counter: %w", err)
	}
	if m.StockAdjustments, err = meter.Int64Counter("stock.adjustments",
		metric.WithDescription("Stock adjustments applied by the ledger")); err != nil {
		return nil, fmt.Errorf("failed to create stock.adjustments counter: %w", err)
	}
	if m.StockRejections, err = meter.Int64Counter("stock.rejections",
		metric.WithDescription("Stock adjustments rejected for insufficient stock")); err != nil {
		return nil, fmt.Errorf("failed to create stock.rejections counter: %w", err)
	}

	return &m, nil
}
