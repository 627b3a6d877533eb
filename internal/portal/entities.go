package portal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User representa um cliente do portal de vendas
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser cria uma nova instância de User
func NewUser(name, email string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Product representa um produto à venda. StockQuantity só é alterado pelo StockLedger.
type Product struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// NewProduct cria uma nova instância de Product
func NewProduct(name, description string, price decimal.Decimal, stock int) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:            uuid.New().String(),
		Name:          name,
		Description:   description,
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// InStock indica se o produto pode aparecer na listagem de produtos em estoque
func (p *Product) InStock() bool {
	return p.IsActive && p.StockQuantity > 0
}

// CanSell verifica se é possível vender a quantidade solicitada
func (p *Product) CanSell(quantity int) bool {
	return p.IsActive && p.StockQuantity >= quantity
}

// Sale representa uma venda. É um snapshot imutável: unit_price não acompanha o preço do produto.
type Sale struct {
	ID         string          `json:"id" db:"id"`
	UserID     string          `json:"user_id" db:"user_id"`
	ProductID  string          `json:"product_id" db:"product_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	SaleDate   time.Time       `json:"sale_date" db:"sale_date"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// NewSale cria uma nova instância de Sale calculando o total
func NewSale(userID, productID string, quantity int, unitPrice decimal.Decimal) *Sale {
	now := time.Now().UTC()
	return &Sale{
		ID:         uuid.New().String(),
		UserID:     userID,
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		SaleDate:   now,
		CreatedAt:  now,
	}
}

// StockMovement registra cada ajuste de estoque feito pelo StockLedger
type StockMovement struct {
	ID             string    `json:"id" db:"id"`
	ProductID      string    `json:"product_id" db:"product_id"`
	SaleID         string    `json:"sale_id,omitempty" db:"sale_id"`
	ChangeQuantity int       `json:"change_quantity" db:"change_quantity"`
	Reason         string    `json:"reason" db:"reason"`
	ResultingStock int       `json:"resulting_stock" db:"resulting_stock"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// NewStockMovement cria uma nova instância de StockMovement
func NewStockMovement(productID, saleID string, change int, reason string, resulting int) *StockMovement {
	return &StockMovement{
		ID:             uuid.New().String(),
		ProductID:      productID,
		SaleID:         saleID,
		ChangeQuantity: change,
		Reason:         reason,
		ResultingStock: resulting,
		CreatedAt:      time.Now().UTC(),
	}
}

// Motivos de movimentação de estoque
const (
	MovementReasonSale       = "sale"
	MovementReasonSaleCancel = "sale_cancel"
	MovementReasonAdjustment = "adjustment"
	MovementReasonUpdate     = "update"
)

// SalesSummary é o resumo agregado de um conjunto de vendas
type SalesSummary struct {
	TotalSales       int             `json:"total_sales"`
	TotalValue       decimal.Decimal `json:"total_value"`
	TotalQuantity    int             `json:"total_quantity"`
	AverageSaleValue decimal.Decimal `json:"average_sale_value"`
}

// Summarize recalcula o resumo a partir das vendas informadas
func Summarize(sales []Sale) SalesSummary {
	summary := SalesSummary{
		TotalValue:       decimal.Zero,
		AverageSaleValue: decimal.Zero,
	}
	for _, s := range sales {
		summary.TotalSales++
		summary.TotalValue = summary.TotalValue.Add(s.TotalPrice)
		summary.TotalQuantity += s.Quantity
	}
	if summary.TotalSales > 0 {
		summary.AverageSaleValue = summary.TotalValue.DivRound(decimal.NewFromInt(int64(summary.TotalSales)), 2)
	}
	return summary
}
