package portal

import (
	"context"
	"time"
)

// Tx representa uma transação de banco de dados.
// Rollback depois de Commit não tem efeito, então pode ser sempre usado com defer.
type Tx interface {
	Commit() error
	Rollback() error
}

// Repository agrega as operações de persistência do portal.
// Todos os métodos aceitam tx == nil para leituras fora de transação.
type Repository interface {
	// Gerenciamento de transação
	BeginTx(ctx context.Context) (Tx, error)

	UserRepository
	ProductRepository
	SaleRepository
}

// UserRepository define as operações de persistência de usuários
type UserRepository interface {
	CreateUser(ctx context.Context, tx Tx, user *User) error
	GetUser(ctx context.Context, tx Tx, userID string) (*User, error)
	GetUserByEmail(ctx context.Context, tx Tx, email string) (*User, error)
	ListUsers(ctx context.Context, tx Tx, page Page) ([]User, error)
	UpdateUser(ctx context.Context, tx Tx, user *User) error
	DeleteUser(ctx context.Context, tx Tx, userID string) error
}

// ProductRepository define as operações de persistência de produtos
type ProductRepository interface {
	CreateProduct(ctx context.Context, tx Tx, product *Product) error
	GetProduct(ctx context.Context, tx Tx, productID string) (*Product, error)

	// Lock pessimista
	GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error)

	ListProducts(ctx context.Context, tx Tx, filter ProductFilter) ([]Product, error)

	// UpdateProduct grava nome, descrição, preço e flag de ativo. Nunca grava stock_quantity.
	UpdateProduct(ctx context.Context, tx Tx, product *Product) error

	// UpdateStock grava stock_quantity. Só deve ser chamado pelo StockLedger.
	UpdateStock(ctx context.Context, tx Tx, productID string, newStock int) error

	DeleteProduct(ctx context.Context, tx Tx, productID string) error

	CreateStockMovement(ctx context.Context, tx Tx, movement *StockMovement) error
	ListStockMovements(ctx context.Context, tx Tx, productID string) ([]StockMovement, error)
}

// SaleRepository define as operações de persistência de vendas
type SaleRepository interface {
	CreateSale(ctx context.Context, tx Tx, sale *Sale) error
	GetSale(ctx context.Context, tx Tx, saleID string) (*Sale, error)

	// Lock pessimista, impede cancelamento duplo
	GetSaleForUpdate(ctx context.Context, tx Tx, saleID string) (*Sale, error)

	DeleteSale(ctx context.Context, tx Tx, saleID string) error
	ListSales(ctx context.Context, tx Tx, filter SaleFilter) ([]Sale, error)
	CountSales(ctx context.Context, tx Tx, filter SaleFilter) (int, error)
}

// Page representa paginação skip/limit. Limit zero significa sem limite.
type Page struct {
	Skip  int
	Limit int
}

// ProductFilter filtra a listagem de produtos
type ProductFilter struct {
	Page
	ActiveOnly   bool
	NameContains string
	InStockOnly  bool
}

// SaleFilter filtra a listagem de vendas. Campos vazios não filtram.
// O intervalo de datas é [From, To).
type SaleFilter struct {
	Page
	UserID    string
	ProductID string
	From      *time.Time
	To        *time.Time
}
