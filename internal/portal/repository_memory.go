package portal

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var errTxClosed = errors.New("transaction already closed")

// MemoryRepository implementa Repository em memória.
// Uma transação segura o lock de escrita do store até Commit ou Rollback, então
// transações são serializáveis e leituras fora de transação esperam o commit.
type MemoryRepository struct {
	mu        sync.RWMutex
	seq       int64
	order     map[string]int64
	users     map[string]User
	products  map[string]Product
	sales     map[string]Sale
	movements []StockMovement
}

// NewMemoryRepository cria uma nova instância de MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		order:    make(map[string]int64),
		users:    make(map[string]User),
		products: make(map[string]Product),
		sales:    make(map[string]Sale),
	}
}

// memoryTx guarda as operações de desfazer aplicadas no Rollback
type memoryTx struct {
	repo *MemoryRepository
	undo []func()
	done bool
}

func (t *memoryTx) Commit() error {
	if t.done {
		return errTxClosed
	}
	t.done = true
	t.undo = nil
	t.repo.mu.Unlock()
	return nil
}

func (t *memoryTx) Rollback() error {
	if t.done {
		return nil
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.done = true
	t.undo = nil
	t.repo.mu.Unlock()
	return nil
}

// BeginTx inicia uma nova transação
func (r *MemoryRepository) BeginTx(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	return &memoryTx{repo: r}, nil
}

// read executa fn com lock de leitura, ou sem lock quando já está dentro de uma transação
func (r *MemoryRepository) read(tx Tx, fn func()) {
	if tx == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}
	fn()
}

// write executa fn dentro da transação informada, ou de uma transação implícita
func (r *MemoryRepository) write(ctx context.Context, tx Tx, fn func(t *memoryTx) error) error {
	if tx != nil {
		t := tx.(*memoryTx)
		if t.done {
			return errTxClosed
		}
		return fn(t)
	}

	implicit, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer implicit.Rollback()

	if err := fn(implicit.(*memoryTx)); err != nil {
		return err
	}
	return implicit.Commit()
}

func (r *MemoryRepository) nextSeq(t *memoryTx, id string) {
	r.seq++
	r.order[id] = r.seq
	t.undo = append(t.undo, func() { delete(r.order, id) })
}

func (r *MemoryRepository) sortByInsertion(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return r.order[ids[i]] < r.order[ids[j]] })
}

func paginate[T any](items []T, page Page) []T {
	if page.Skip >= len(items) {
		return []T{}
	}
	items = items[page.Skip:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (r *MemoryRepository) emailTaken(email, exceptID string) bool {
	for _, u := range r.users {
		if u.ID != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

// CreateUser insere um novo usuário
func (r *MemoryRepository) CreateUser(ctx context.Context, tx Tx, user *User) error {
	return r.write(ctx, tx, func(t *memoryTx) error {
		if r.emailTaken(user.Email, "") {
			return ErrDuplicateEmail
		}
		r.users[user.ID] = *user
		r.nextSeq(t, user.ID)
		id := user.ID
		t.undo = append(t.undo, func() { delete(r.users, id) })
		return nil
	})
}

// GetUser busca um usuário pelo ID
func (r *MemoryRepository) GetUser(ctx context.Context, tx Tx, userID string) (*User, error) {
	var (
		user User
		ok   bool
	)
	r.read(tx, func() { user, ok = r.users[userID] })
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// GetUserByEmail busca um usuário pelo email
func (r *MemoryRepository) GetUserByEmail(ctx context.Context, tx Tx, email string) (*User, error) {
	var found *User
	r.read(tx, func() {
		for _, u := range r.users {
			if u.Email == email {
				u := u
				found = &u
				return
			}
		}
	})
	if found == nil {
		return nil, ErrUserNotFound
	}
	return found, nil
}

// ListUsers lista usuários com paginação
func (r *MemoryRepository) ListUsers(ctx context.Context, tx Tx, page Page) ([]User, error) {
	var users []User
	r.read(tx, func() {
		ids := make([]string, 0, len(r.users))
		for id := range r.users {
			ids = append(ids, id)
		}
		r.sortByInsertion(ids)
		for _, id := range ids {
			users = append(users, r.users[id])
		}
	})
	return paginate(users, page), nil
}

// UpdateUser atualiza nome, email e flag de ativo
func (r *MemoryRepository) UpdateUser(ctx context.Context, tx Tx, user *User) error {
	return r.write(ctx, tx, func(t *memoryTx) error {
		prev, ok := r.users[user.ID]
		if !ok {
			return ErrUserNotFound
		}
		if r.emailTaken(user.Email, user.ID) {
			return ErrDuplicateEmail
		}
		r.users[user.ID] = *user
		t.undo = append(t.undo, func() { r.users[prev.ID] = prev })
		return nil
	})
}

// DeleteUser remove o usuário. Usuários referenciados por vendas não podem ser removidos.
func (r *MemoryRepository) DeleteUser(ctx context.Context, tx Tx, userID string) error {
	return r.write(ctx, tx, func(t *memoryTx) error {
		prev, ok := r.users[userID]
		if !ok {
			return ErrUserNotFound
		}
		for _, s := range r.sales {
			if s.UserID == userID {
				return ErrUserHasSales
			}
		}
		delete(r.users, userID)
		t.undo = append(t.undo, func() { r.users[prev.ID] = prev })
		return nil
	})
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// CreateProduct insere um novo produto
func (r *MemoryRepository) CreateProduct(ctx context.Context, tx Tx, product *Product) error {
	return r.write(ctx, tx, func(t *memoryTx) error {
		r.products[product.ID] = *product
		r.nextSeq(t, product.ID)
		id := product.ID
		t.undo = append(t.undo, func() { delete(r.products, id) })
		return nil
	})
}

// GetProduct busca um produto pelo ID, ativo ou não
func (r *MemoryRepository) GetProduct(ctx context.Context, tx Tx, productID string) (*Product, error) {
	var (
		product Product
		ok      bool
	)
	r.read(tx, func() { product, ok = r.products[productID] })
	if !ok {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// GetProductForUpdate obtém o produto dentro da transação, que já detém o lock do store
func (r *MemoryRepository) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error) {
	if tx == nil {
		return nil, errors.New("GetProductForUpdate requires a transaction")
	}
	return r.GetProduct(ctx, tx, productID)
}

// ListProducts lista produtos aplicando os filtros informados
func (r *MemoryRepository) ListProducts(ctx context.Context, tx Tx, filter ProductFilter) ([]Product, error) {
	var products []Product
	needle := strings.ToLower(filter.NameContains)
	r.read(tx, func() {
		ids := make([]string, 0, len(r.products))
		for id := range r.products {
			ids = append(ids, id)
		}
		r.sortByInsertion(ids)
		for _, id := range ids {
			p := r.products[id]
			if filter.ActiveOnly && !p.IsActive {
				continue
			}
			if filter.InStockOnly && p.StockQuantity <= 0 {
				continue
			}
			if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
				continue
			}
			products = append(products, p)
		}
	})
	return paginate(products, filter.Page), nil
}

// UpdateProduct atualiza os campos descritivos do produto, preservando o estoque gravado
func (r *MemoryRepository) UpdateProduct(ctx context.Context, tx Tx, product *Product) error {
	return r.write(ctx, tx, func(t *memoryTx) error {
		prev, ok := r.products[product.ID]
		if !ok {
			return ErrProductNotFound
		}
		next := *product
		next.StockQuantity = prev.StockQuantity
		r.products[product.ID] = next
		t.undo = append(t.undo, func() { r.products[prev.ID] = prev })
		return nil
	})
}

// UpdateStock grava o novo estoque do produto
func (r *MemoryRepository) UpdateStock(ctx context.Context, tx Tx, productID string, newStock int) error {
	return r.write(ctx, tx, func(t *memoryTx) error {
		prev, ok := r.products[productID]
		if !ok {
			return ErrProductNotFound
		}
		next := prev
		next.StockQuantity = newStock
		next.UpdatedAt = time.Now().UTC()
		r.products[productID] = next
		t.undo = append(t.undo, func() { r.products[prev.ID] = prev })
		return nil
	})
}

// DeleteProduct remove o produto permanentemente junto com suas movimentações
func (r *MemoryRepository) DeleteProduct(ctx context.Context, tx Tx, productID string) error {
	return r.write(ctx, tx, func(t *memoryTx) error {
		prev, ok := r.products[productID]
		if !ok {
			return ErrProductNotFound
		}
		for _, s := range r.sales {
			if s.ProductID == productID {
				return ErrProductHasSales
			}
		}
		prevMovements := r.movements
		kept := make([]StockMovement, 0, len(r.movements))
		for _, m := range r.movements {
			if m.ProductID != productID {
				kept = append(kept, m)
			}
		}
		delete(r.products, productID)
		r.movements = kept
		t.undo = append(t.undo, func() {
			r.products[prev.ID] = prev
			r.movements = prevMovements
		})
		return nil
	})
}

// CreateStockMovement insere o registro de movimentação
func (r *MemoryRepository) CreateStockMovement(ctx context.Context, tx Tx, m *StockMovement) error {
	return r.write(ctx, tx, func(t *memoryTx) error {
		if _, ok := r.products[m.ProductID]; !ok {
			return ErrProductNotFound
		}
		n := len(r.movements)
		r.movements = append(r.movements, *m)
		t.undo = append(t.undo, func() { r.movements = r.movements[:n] })
		return nil
	})
}

// ListStockMovements lista as movimentações de um produto, mais antigas primeiro
func (r *MemoryRepository) ListStockMovements(ctx context.Context, tx Tx, productID string) ([]StockMovement, error) {
	movements := []StockMovement{}
	r.read(tx, func() {
		for _, m := range r.movements {
			if m.ProductID == productID {
				movements = append(movements, m)
			}
		}
	})
	return movements, nil
}

// ---------------------------------------------------------------------------
// Sales
// ---------------------------------------------------------------------------

// CreateSale insere uma nova venda
func (r *MemoryRepository) CreateSale(ctx context.Context, tx Tx, sale *Sale) error {
	return r.write(ctx, tx, func(t *memoryTx) error {
		if _, ok := r.users[sale.UserID]; !ok {
			return ErrUserNotFound
		}
		if _, ok := r.products[sale.ProductID]; !ok {
			return ErrProductNotFound
		}
		r.sales[sale.ID] = *sale
		r.nextSeq(t, sale.ID)
		id := sale.ID
		t.undo = append(t.undo, func() { delete(r.sales, id) })
		return nil
	})
}

// GetSale busca uma venda pelo ID
func (r *MemoryRepository) GetSale(ctx context.Context, tx Tx, saleID string) (*Sale, error) {
	var (
		sale Sale
		ok   bool
	)
	r.read(tx, func() { sale, ok = r.sales[saleID] })
	if !ok {
		return nil, ErrSaleNotFound
	}
	return &sale, nil
}

// GetSaleForUpdate obtém a venda dentro da transação, que já detém o lock do store
func (r *MemoryRepository) GetSaleForUpdate(ctx context.Context, tx Tx, saleID string) (*Sale, error) {
	if tx == nil {
		return nil, errors.New("GetSaleForUpdate requires a transaction")
	}
	return r.GetSale(ctx, tx, saleID)
}

// DeleteSale remove a venda
func (r *MemoryRepository) DeleteSale(ctx context.Context, tx Tx, saleID string) error {
	return r.write(ctx, tx, func(t *memoryTx) error {
		prev, ok := r.sales[saleID]
		if !ok {
			return ErrSaleNotFound
		}
		delete(r.sales, saleID)
		t.undo = append(t.undo, func() { r.sales[prev.ID] = prev })
		return nil
	})
}

func (r *MemoryRepository) matchSales(filter SaleFilter) []Sale {
	ids := make([]string, 0, len(r.sales))
	for id := range r.sales {
		ids = append(ids, id)
	}
	r.sortByInsertion(ids)

	var sales []Sale
	for _, id := range ids {
		s := r.sales[id]
		if filter.UserID != "" && s.UserID != filter.UserID {
			continue
		}
		if filter.ProductID != "" && s.ProductID != filter.ProductID {
			continue
		}
		if filter.From != nil && s.SaleDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !s.SaleDate.Before(*filter.To) {
			continue
		}
		sales = append(sales, s)
	}
	return sales
}

// ListSales lista vendas aplicando os filtros informados
func (r *MemoryRepository) ListSales(ctx context.Context, tx Tx, filter SaleFilter) ([]Sale, error) {
	var sales []Sale
	r.read(tx, func() { sales = r.matchSales(filter) })
	return paginate(sales, filter.Page), nil
}

// CountSales conta as vendas que atendem ao filtro (paginação ignorada)
func (r *MemoryRepository) CountSales(ctx context.Context, tx Tx, filter SaleFilter) (int, error) {
	var count int
	r.read(tx, func() { count = len(r.matchSales(filter)) })
	return count, nil
}
