package portal

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ProductHandler contém os handlers HTTP de produtos
type ProductHandler struct {
	useCase *ProductUseCase
}

// NewProductHandler cria uma nova instância de ProductHandler
func NewProductHandler(useCase *ProductUseCase) *ProductHandler {
	return &ProductHandler{useCase: useCase}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.useCase.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		respondError(c, err)
		return
	}
	activeOnly, err := parseBoolQuery(c, "active_only", true)
	if err != nil {
		respondError(c, err)
		return
	}

	products, err := h.useCase.ListProducts(c.Request.Context(), page, activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) SearchProducts(c *gin.Context) {
	products, err := h.useCase.SearchProducts(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) ListInStock(c *gin.Context) {
	products, err := h.useCase.ListInStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.useCase.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.useCase.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// AdjustStock aplica quantity_change ao estoque pelo ledger
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	productID := c.Param("id")

	change, err := strconv.Atoi(c.Query("quantity_change"))
	if err != nil {
		respondError(c, validationError("quantity_change must be an integer"))
		return
	}

	trace.SpanFromContext(c.Request.Context()).SetAttributes(
		attribute.String("product_id", productID),
		attribute.Int("quantity_change", change),
	)

	product, err := h.useCase.AdjustStock(c.Request.Context(), productID, change)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "stock updated",
		"product_id": product.ID,
		"new_stock":  product.StockQuantity,
		"change":     change,
	})
}

func (h *ProductHandler) ListMovements(c *gin.Context) {
	movements, err := h.useCase.ListMovements(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, movements)
}

// Deactivate é o soft delete
func (h *ProductHandler) Deactivate(c *gin.Context) {
	if err := h.useCase.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product deactivated"})
}

// Purge é a remoção permanente
func (h *ProductHandler) Purge(c *gin.Context) {
	if err := h.useCase.Purge(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product permanently removed"})
}
