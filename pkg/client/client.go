// Package client é um cliente HTTP da API do portal de vendas
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/sales-portal/internal/portal"
)

const apiPrefix = "/api/v1"

// APIError é devolvido para qualquer resposta fora da faixa 2xx
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sales portal returned %d: %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

// StockUpdate é a resposta do ajuste de estoque
type StockUpdate struct {
	Message   string `json:"message"`
	ProductID string `json:"product_id"`
	NewStock  int    `json:"new_stock"`
	Change    int    `json:"change"`
}

// SummaryReport é a resposta de /sales/summary
type SummaryReport struct {
	Period  portal.Period       `json:"period"`
	Summary portal.SalesSummary `json:"summary"`
}

// TotalValueReport é a resposta de /sales/total-value
type TotalValueReport struct {
	Period     portal.Period   `json:"period"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// Health é a resposta de /health
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Client encapsula um resty.Client apontado para a API
type Client struct {
	http *resty.Client
}

// New cria uma nova instância de Client para baseURL (ex.: http://localhost:8080)
func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30*time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&errorBody{})
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsSuccess() {
		return nil
	}
	msg := http.StatusText(resp.StatusCode())
	if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
		msg = body.Error
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}

func dateParams(r portal.DateRange) map[string]string {
	params := map[string]string{}
	if r.Start != nil {
		params["start_date"] = r.Start.Format(portal.DateLayout)
	}
	if r.End != nil {
		params["end_date"] = r.End.Format(portal.DateLayout)
	}
	return params
}

func pageParams(page portal.Page) map[string]string {
	params := map[string]string{"skip": strconv.Itoa(page.Skip)}
	if page.Limit > 0 {
		params["limit"] = strconv.Itoa(page.Limit)
	}
	return params
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := check(c.request(ctx).SetResult(&out).Get("/health")); err != nil {
		return nil, err
	}
	return &out, nil
}

// Users

func (c *Client) CreateUser(ctx context.Context, req portal.CreateUserRequest) (*portal.User, error) {
	var out portal.User
	if err := check(c.request(ctx).SetBody(req).SetResult(&out).Post(apiPrefix + "/users")); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*portal.User, error) {
	var out portal.User
	if err := check(c.request(ctx).SetResult(&out).Get(apiPrefix + "/users/" + id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context, page portal.Page) ([]portal.User, error) {
	var out []portal.User
	if err := check(c.request(ctx).SetQueryParams(pageParams(page)).SetResult(&out).Get(apiPrefix + "/users")); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, req portal.UpdateUserRequest) (*portal.User, error) {
	var out portal.User
	if err := check(c.request(ctx).SetBody(req).SetResult(&out).Put(apiPrefix + "/users/" + id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return check(c.request(ctx).Delete(apiPrefix + "/users/" + id))
}

// Products

func (c *Client) CreateProduct(ctx context.Context, req portal.CreateProductRequest) (*portal.Product, error) {
	var out portal.Product
	if err := check(c.request(ctx).SetBody(req).SetResult(&out).Post(apiPrefix + "/products")); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*portal.Product, error) {
	var out portal.Product
	if err := check(c.request(ctx).SetResult(&out).Get(apiPrefix + "/products/" + id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListProducts(ctx context.Context, page portal.Page, activeOnly bool) ([]portal.Product, error) {
	params := pageParams(page)
	params["active_only"] = strconv.FormatBool(activeOnly)

	var out []portal.Product
	if err := check(c.request(ctx).SetQueryParams(params).SetResult(&out).Get(apiPrefix + "/products")); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchProducts(ctx context.Context, name string) ([]portal.Product, error) {
	var out []portal.Product
	if err := check(c.request(ctx).SetQueryParam("name", name).SetResult(&out).Get(apiPrefix + "/products/search")); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListInStock(ctx context.Context) ([]portal.Product, error) {
	var out []portal.Product
	if err := check(c.request(ctx).SetResult(&out).Get(apiPrefix + "/products/in-stock")); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, req portal.UpdateProductRequest) (*portal.Product, error) {
	var out portal.Product
	if err := check(c.request(ctx).SetBody(req).SetResult(&out).Put(apiPrefix + "/products/" + id)); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdjustStock aplica delta ao estoque do produto
func (c *Client) AdjustStock(ctx context.Context, id string, delta int) (*StockUpdate, error) {
	var out StockUpdate
	err := check(c.request(ctx).
		SetQueryParam("quantity_change", strconv.Itoa(delta)).
		SetResult(&out).
		Patch(apiPrefix + "/products/" + id + "/stock"))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListMovements(ctx context.Context, id string) ([]portal.StockMovement, error) {
	var out []portal.StockMovement
	if err := check(c.request(ctx).SetResult(&out).Get(apiPrefix + "/products/" + id + "/movements")); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeactivateProduct(ctx context.Context, id string) error {
	return check(c.request(ctx).Delete(apiPrefix + "/products/" + id))
}

func (c *Client) PurgeProduct(ctx context.Context, id string) error {
	return check(c.request(ctx).Delete(apiPrefix + "/products/" + id + "/hard"))
}

// Sales

func (c *Client) CreateSale(ctx context.Context, req portal.CreateSaleRequest) (*portal.Sale, error) {
	var out portal.Sale
	if err := check(c.request(ctx).SetBody(req).SetResult(&out).Post(apiPrefix + "/sales")); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSale(ctx context.Context, id string) (*portal.Sale, error) {
	var out portal.Sale
	if err := check(c.request(ctx).SetResult(&out).Get(apiPrefix + "/sales/" + id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSales(ctx context.Context, page portal.Page) ([]portal.Sale, error) {
	var out []portal.Sale
	if err := check(c.request(ctx).SetQueryParams(pageParams(page)).SetResult(&out).Get(apiPrefix + "/sales")); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListSalesByUser(ctx context.Context, userID string) ([]portal.Sale, error) {
	var out []portal.Sale
	if err := check(c.request(ctx).SetResult(&out).Get(apiPrefix + "/sales/user/" + userID)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListSalesByProduct(ctx context.Context, productID string) ([]portal.Sale, error) {
	var out []portal.Sale
	if err := check(c.request(ctx).SetResult(&out).Get(apiPrefix + "/sales/product/" + productID)); err != nil {
		return nil, err
	}
	return out, nil
}

// CancelSale estorna a venda. Venda inexistente devolve APIError 404.
func (c *Client) CancelSale(ctx context.Context, id string) error {
	return check(c.request(ctx).Delete(apiPrefix + "/sales/" + id))
}

func (c *Client) SalesByDateRange(ctx context.Context, start, end time.Time) (*portal.DateRangeSales, error) {
	var out portal.DateRangeSales
	err := check(c.request(ctx).
		SetQueryParams(dateParams(portal.DateRange{Start: &start, End: &end})).
		SetResult(&out).
		Get(apiPrefix + "/sales/date-range"))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SalesToday(ctx context.Context) ([]portal.Sale, error) {
	var out []portal.Sale
	if err := check(c.request(ctx).SetResult(&out).Get(apiPrefix + "/sales/today")); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Summary(ctx context.Context, r portal.DateRange) (*SummaryReport, error) {
	var out SummaryReport
	err := check(c.request(ctx).SetQueryParams(dateParams(r)).SetResult(&out).Get(apiPrefix + "/sales/summary"))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TotalValue(ctx context.Context, r portal.DateRange) (*TotalValueReport, error) {
	var out TotalValueReport
	err := check(c.request(ctx).SetQueryParams(dateParams(r)).SetResult(&out).Get(apiPrefix + "/sales/total-value"))
	if err != nil {
		return nil, err
	}
	return &out, nil
}
