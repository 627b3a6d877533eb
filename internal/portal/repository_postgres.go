package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Códigos SQLSTATE usados para traduzir violações de constraint
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// querier é satisfeito tanto por *pgxpool.Pool quanto por pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxPool é o subconjunto de *pgxpool.Pool usado pelo repositório
type pgxPool interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository implementa Repository usando PostgreSQL
type PostgresRepository struct {
	pool pgxPool
}

// NewPostgresRepository cria uma nova instância de PostgresRepository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return newPostgresRepository(pool)
}

func newPostgresRepository(pool pgxPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// PostgresTx implementa a interface Tx
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *PostgresTx) Rollback() error {
	err := t.tx.Rollback(context.Background())
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// BeginTx inicia uma nova transação
func (r *PostgresRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &PostgresTx{tx: tx}, nil
}

func (r *PostgresRepository) conn(tx Tx) querier {
	if tx == nil {
		return r.pool
	}
	return tx.(*PostgresTx).tx
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike faz o termo casar literalmente dentro de um padrão LIKE
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

const userColumns = `id, name, email, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser insere um novo usuário
func (r *PostgresRepository) CreateUser(ctx context.Context, tx Tx, user *User) error {
	_, err := r.conn(tx).Exec(ctx, `
		INSERT INTO users (id, name, email, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Name, user.Email, user.IsActive, user.CreatedAt, user.UpdatedAt)
	if pgErrorCode(err) == pgUniqueViolation {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser busca um usuário pelo ID
func (r *PostgresRepository) GetUser(ctx context.Context, tx Tx, userID string) (*User, error) {
	user, err := scanUser(r.conn(tx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail busca um usuário pelo email
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, tx Tx, email string) (*User, error) {
	user, err := scanUser(r.conn(tx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// ListUsers lista usuários com paginação
func (r *PostgresRepository) ListUsers(ctx context.Context, tx Tx, page Page) ([]User, error) {
	q := newQuery(`SELECT ` + userColumns + ` FROM users`)
	q.orderBy("created_at, id")
	q.paginate(page)

	rows, err := r.conn(tx).Query(ctx, q.String(), q.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser atualiza nome, email e flag de ativo
func (r *PostgresRepository) UpdateUser(ctx context.Context, tx Tx, user *User) error {
	tag, err := r.conn(tx).Exec(ctx, `
		UPDATE users
		SET name = $2, email = $3, is_active = $4, updated_at = $5
		WHERE id = $1
	`, user.ID, user.Name, user.Email, user.IsActive, user.UpdatedAt)
	if pgErrorCode(err) == pgUniqueViolation {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser remove o usuário. Usuários referenciados por vendas não podem ser removidos.
func (r *PostgresRepository) DeleteUser(ctx context.Context, tx Tx, userID string) error {
	tag, err := r.conn(tx).Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if pgErrorCode(err) == pgForeignKeyViolation {
		return ErrUserHasSales
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

const productColumns = `id, name, description, price, stock_quantity, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct insere um novo produto
func (r *PostgresRepository) CreateProduct(ctx context.Context, tx Tx, product *Product) error {
	_, err := r.conn(tx).Exec(ctx, `
		INSERT INTO products (id, name, description, price, stock_quantity, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, product.ID, product.Name, product.Description, product.Price.String(), product.StockQuantity,
		product.IsActive, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// GetProduct busca um produto pelo ID, ativo ou não
func (r *PostgresRepository) GetProduct(ctx context.Context, tx Tx, productID string) (*Product, error) {
	product, err := scanProduct(r.conn(tx).QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// GetProductForUpdate obtém o produto com lock pessimista (FOR UPDATE)
func (r *PostgresRepository) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error) {
	if tx == nil {
		return nil, errors.New("GetProductForUpdate requires a transaction")
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
		FOR UPDATE
	`

	product, err := scanProduct(r.conn(tx).QueryRow(ctx, query, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product for update: %w", err)
	}
	return product, nil
}

// ListProducts lista produtos aplicando os filtros informados
func (r *PostgresRepository) ListProducts(ctx context.Context, tx Tx, filter ProductFilter) ([]Product, error) {
	q := newQuery(`SELECT ` + productColumns + ` FROM products`)
	if filter.ActiveOnly {
		q.where("is_active = TRUE")
	}
	if filter.InStockOnly {
		q.where("stock_quantity > 0")
	}
	if filter.NameContains != "" {
		q.where(`name ILIKE '%' || ? || '%' ESCAPE '\'`, escapeLike(filter.NameContains))
	}
	q.orderBy("created_at, id")
	q.paginate(filter.Page)

	rows, err := r.conn(tx).Query(ctx, q.String(), q.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// UpdateProduct atualiza os campos descritivos do produto
func (r *PostgresRepository) UpdateProduct(ctx context.Context, tx Tx, product *Product) error {
	tag, err := r.conn(tx).Exec(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, is_active = $5, updated_at = $6
		WHERE id = $1
	`, product.ID, product.Name, product.Description, product.Price.String(), product.IsActive, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// UpdateStock grava o novo estoque do produto
func (r *PostgresRepository) UpdateStock(ctx context.Context, tx Tx, productID string, newStock int) error {
	tag, err := r.conn(tx).Exec(ctx, `
		UPDATE products
		SET stock_quantity = $2,
		    updated_at = NOW()
		WHERE id = $1
	`, productID, newStock)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteProduct remove o produto permanentemente
func (r *PostgresRepository) DeleteProduct(ctx context.Context, tx Tx, productID string) error {
	tag, err := r.conn(tx).Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if pgErrorCode(err) == pgForeignKeyViolation {
		return ErrProductHasSales
	}
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CreateStockMovement insere o registro de movimentação
func (r *PostgresRepository) CreateStockMovement(ctx context.Context, tx Tx, m *StockMovement) error {
	var saleID *string
	if m.SaleID != "" {
		saleID = &m.SaleID
	}

	_, err := r.conn(tx).Exec(ctx, `
		INSERT INTO stock_movements (id, product_id, sale_id, change_quantity, reason, resulting_stock, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.ProductID, saleID, m.ChangeQuantity, m.Reason, m.ResultingStock, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert movement record: %w", err)
	}
	return nil
}

// ListStockMovements lista as movimentações de um produto, mais antigas primeiro
func (r *PostgresRepository) ListStockMovements(ctx context.Context, tx Tx, productID string) ([]StockMovement, error) {
	rows, err := r.conn(tx).Query(ctx, `
		SELECT id, product_id, COALESCE(sale_id, ''), change_quantity, reason, resulting_stock, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at, id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	movements := []StockMovement{}
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.SaleID, &m.ChangeQuantity, &m.Reason, &m.ResultingStock, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ---------------------------------------------------------------------------
// Sales
// ---------------------------------------------------------------------------

const saleColumns = `id, user_id, product_id, quantity, unit_price, total_price, sale_date, created_at`

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.UserID, &s.ProductID, &s.Quantity, &s.UnitPrice, &s.TotalPrice, &s.SaleDate, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSale insere uma nova venda
func (r *PostgresRepository) CreateSale(ctx context.Context, tx Tx, sale *Sale) error {
	_, err := r.conn(tx).Exec(ctx, `
		INSERT INTO sales (id, user_id, product_id, quantity, unit_price, total_price, sale_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, sale.ID, sale.UserID, sale.ProductID, sale.Quantity, sale.UnitPrice.String(), sale.TotalPrice.String(),
		sale.SaleDate, sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}
	return nil
}

// GetSale busca uma venda pelo ID
func (r *PostgresRepository) GetSale(ctx context.Context, tx Tx, saleID string) (*Sale, error) {
	sale, err := scanSale(r.conn(tx).QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE id = $1`, saleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	return sale, nil
}

// GetSaleForUpdate obtém a venda com lock pessimista (FOR UPDATE)
func (r *PostgresRepository) GetSaleForUpdate(ctx context.Context, tx Tx, saleID string) (*Sale, error) {
	if tx == nil {
		return nil, errors.New("GetSaleForUpdate requires a transaction")
	}

	sale, err := scanSale(r.conn(tx).QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, saleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sale for update: %w", err)
	}
	return sale, nil
}

// DeleteSale remove a venda
func (r *PostgresRepository) DeleteSale(ctx context.Context, tx Tx, saleID string) error {
	tag, err := r.conn(tx).Exec(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
	if err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSaleNotFound
	}
	return nil
}

func saleWhere(q *query, filter SaleFilter) {
	if filter.UserID != "" {
		q.where("user_id = ?", filter.UserID)
	}
	if filter.ProductID != "" {
		q.where("product_id = ?", filter.ProductID)
	}
	if filter.From != nil {
		q.where("sale_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q.where("sale_date < ?", *filter.To)
	}
}

// ListSales lista vendas aplicando os filtros informados
func (r *PostgresRepository) ListSales(ctx context.Context, tx Tx, filter SaleFilter) ([]Sale, error) {
	q := newQuery(`SELECT ` + saleColumns + ` FROM sales`)
	saleWhere(q, filter)
	q.orderBy("sale_date, id")
	q.paginate(filter.Page)

	rows, err := r.conn(tx).Query(ctx, q.String(), q.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, *s)
	}
	return sales, rows.Err()
}

// CountSales conta as vendas que atendem ao filtro (paginação ignorada)
func (r *PostgresRepository) CountSales(ctx context.Context, tx Tx, filter SaleFilter) (int, error) {
	q := newQuery(`SELECT COUNT(*) FROM sales`)
	saleWhere(q, filter)

	var count int
	if err := r.conn(tx).QueryRow(ctx, q.String(), q.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return count, nil
}

// ---------------------------------------------------------------------------
// query builder
// ---------------------------------------------------------------------------

// query monta SELECTs com placeholders posicionais. Condições usam "?" que é
// renumerado para $n na ordem em que os argumentos são adicionados.
type query struct {
	base       string
	conditions []string
	order      string
	suffix     string
	args       []any
}

func newQuery(base string) *query {
	return &query{base: base}
}

func (q *query) where(cond string, args ...any) {
	for _, arg := range args {
		q.args = append(q.args, arg)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(q.args)), 1)
	}
	q.conditions = append(q.conditions, cond)
}

func (q *query) orderBy(order string) {
	q.order = order
}

func (q *query) paginate(page Page) {
	if page.Limit > 0 {
		q.args = append(q.args, page.Limit)
		q.suffix += fmt.Sprintf(" LIMIT $%d", len(q.args))
	}
	if page.Skip > 0 {
		q.args = append(q.args, page.Skip)
		q.suffix += fmt.Sprintf(" OFFSET $%d", len(q.args))
	}
}

func (q *query) String() string {
	var b strings.Builder
	b.WriteString(q.base)
	if len(q.conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.conditions, " AND "))
	}
	if q.order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.order)
	}
	b.WriteString(q.suffix)
	return b.String()
}
