package portal

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

// Service agrupa os casos de uso do portal sobre um mesmo Repository
type Service struct {
	Users    *UserUseCase
	Products *ProductUseCase
	Sales    *SaleUseCase
	Reports  *ReportUseCase
}

// NewService monta os casos de uso compartilhando o mesmo StockLedger
func NewService(repository Repository, tracer trace.Tracer, metrics *Metrics, location *time.Location) *Service {
	ledger := NewStockLedger(repository, metrics)
	return &Service{
		Users:    NewUserUseCase(repository),
		Products: NewProductUseCase(repository, ledger),
		Sales:    NewSaleUseCase(repository, ledger, tracer, metrics),
		Reports:  NewReportUseCase(repository, location),
	}
}

// NewRouter registra as rotas HTTP do portal em /api/v1
func NewRouter(svc *Service, serviceName string) *gin.Engine {
	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.RecoveryWithWriter(gin.DefaultWriter, func(c *gin.Context, recovered interface{}) {
		log.Printf("🚨 PANIC RECOVERED: %v", recovered)
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
	r.Use(otelgin.Middleware(serviceName))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Sales Portal API"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	})

	users := NewUserHandler(svc.Users)
	products := NewProductHandler(svc.Products)
	sales := NewSaleHandler(svc.Sales, svc.Reports)

	api := r.Group("/api/v1")

	u := api.Group("/users")
	u.POST("", users.CreateUser)
	u.GET("", users.ListUsers)
	u.GET("/:id", users.GetUser)
	u.PUT("/:id", users.UpdateUser)
	u.DELETE("/:id", users.DeleteUser)

	p := api.Group("/products")
	p.POST("", products.CreateProduct)
	p.GET("", products.ListProducts)
	p.GET("/search", products.SearchProducts)
	p.GET("/in-stock", products.ListInStock)
	p.GET("/:id", products.GetProduct)
	p.PUT("/:id", products.UpdateProduct)
	p.PATCH("/:id/stock", products.AdjustStock)
	p.GET("/:id/movements", products.ListMovements)
	p.DELETE("/:id", products.Deactivate)
	p.DELETE("/:id/hard", products.Purge)

	s := api.Group("/sales")
	s.POST("", sales.CreateSale)
	s.GET("", sales.ListSales)
	s.GET("/user/:id", sales.ListSalesByUser)
	s.GET("/product/:id", sales.ListSalesByProduct)
	s.GET("/date-range", sales.SalesByDateRange)
	s.GET("/today", sales.SalesToday)
	s.GET("/summary", sales.Summary)
	s.GET("/total-value", sales.TotalValue)
	s.GET("/:id", sales.GetSale)
	s.DELETE("/:id", sales.CancelSale)

	return r
}
