package portal

import (
	"errors"
	"fmt"
)

// Erros de domínio. Os handlers traduzem estes erros para status HTTP com errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")

	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrSaleNotFound    = fmt.Errorf("sale %w", ErrNotFound)
	ErrProductInactive = fmt.Errorf("%w or inactive", ErrProductNotFound)

	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateEmail    = errors.New("email already registered")

	ErrUserHasSales    = fmt.Errorf("user is referenced by sales: %w", ErrConflict)
	ErrProductHasSales = fmt.Errorf("product is referenced by sales: %w", ErrConflict)
)

// InsufficientStockError carrega a quantidade disponível no momento da recusa
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available=%d, requested=%d",
		e.ProductID, e.Available, e.Requested)
}

// Is permite errors.Is(err, ErrInsufficientStock)
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
