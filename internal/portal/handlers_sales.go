package portal

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SaleHandler contém os handlers HTTP de vendas e relatórios
type SaleHandler struct {
	useCase *SaleUseCase
	reports *ReportUseCase
}

// NewSaleHandler cria uma nova instância de SaleHandler
func NewSaleHandler(useCase *SaleUseCase, reports *ReportUseCase) *SaleHandler {
	return &SaleHandler{
		useCase: useCase,
		reports: reports,
	}
}

// CreateSale registra uma venda. Usuário ou produto inexistente é erro do cliente (400).
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	trace.SpanFromContext(c.Request.Context()).SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("product_id", req.ProductID),
		attribute.Int("quantity", req.Quantity),
	)

	sale, err := h.useCase.CreateSale(c.Request.Context(), req)
	if errors.Is(err, ErrNotFound) {
		badRequest(c, err)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sale)
}

func (h *SaleHandler) ListSales(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		respondError(c, err)
		return
	}

	sales, err := h.useCase.ListSales(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sales)
}

func (h *SaleHandler) ListSalesByUser(c *gin.Context) {
	sales, err := h.useCase.ListSalesByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sales)
}

func (h *SaleHandler) ListSalesByProduct(c *gin.Context) {
	sales, err := h.useCase.ListSalesByProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sales)
}

func (h *SaleHandler) GetSale(c *gin.Context) {
	sale, err := h.useCase.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sale)
}

// CancelSale estorna o estoque e remove a venda
func (h *SaleHandler) CancelSale(c *gin.Context) {
	cancelled, err := h.useCase.CancelSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !cancelled {
		respondError(c, ErrSaleNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "sale cancelled"})
}

// optionalDate lê uma data opcional da query string
func (h *SaleHandler) optionalDate(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	day, err := h.reports.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &day, nil
}

func (h *SaleHandler) dateRange(c *gin.Context) (DateRange, error) {
	start, err := h.optionalDate(c, "start_date")
	if err != nil {
		return DateRange{}, err
	}
	end, err := h.optionalDate(c, "end_date")
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: start, End: end}, nil
}

func (h *SaleHandler) SalesByDateRange(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if r.Start == nil || r.End == nil {
		respondError(c, validationError("start_date and end_date are required"))
		return
	}

	result, err := h.reports.SalesByDateRange(c.Request.Context(), *r.Start, *r.End)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *SaleHandler) SalesToday(c *gin.Context) {
	sales, err := h.reports.SalesToday(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sales)
}

func (h *SaleHandler) Summary(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.reports.Summary(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period":  r.Period(),
		"summary": summary,
	})
}

func (h *SaleHandler) TotalValue(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	total, err := h.reports.TotalValue(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period":      r.Period(),
		"total_value": total,
	})
}
