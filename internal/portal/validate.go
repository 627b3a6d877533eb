package portal

import (
	"math"

	"github.com/shopspring/decimal"
)

// Limites das colunas: preços em NUMERIC(12,2), totais em NUMERIC(14,2) e quantidades em INTEGER
const (
	moneyPlaces      = 2
	MaxStockQuantity = math.MaxInt32
)

var (
	maxPrice = decimal.New(1, 10)
	maxTotal = decimal.New(1, 12)
)

// validatePrice aceita valores em centavos: não negativos, no máximo duas casas e dentro da coluna
func validatePrice(field string, price decimal.Decimal) error {
	if price.IsNegative() {
		return validationError("%s must not be negative", field)
	}
	if !price.Equal(price.Round(moneyPlaces)) {
		return validationError("%s must have at most %d decimal places", field, moneyPlaces)
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return validationError("%s must be less than %s", field, maxPrice)
	}
	return nil
}

func validateTotal(total decimal.Decimal) error {
	if total.GreaterThanOrEqual(maxTotal) {
		return validationError("total_price must be less than %s", maxTotal)
	}
	return nil
}

func validateStockQuantity(field string, quantity int) error {
	if quantity < 0 {
		return validationError("%s must not be negative", field)
	}
	if quantity > MaxStockQuantity {
		return validationError("%s must not exceed %d", field, MaxStockQuantity)
	}
	return nil
}
