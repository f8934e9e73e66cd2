// Package api serves the practice store and the analytics catalogue over
// HTTP with gin. Every response uses the same envelope.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interview-practice/internal/analytics"
	"interview-practice/internal/database"
	"interview-practice/internal/shop"
	"interview-practice/internal/store"
)

// Store is the subset of *store.Store the handlers call.
type Store interface {
	CreateCustomer(ctx context.Context, in store.NewCustomer) (int64, error)
	CustomerProfile(ctx context.Context, id int64) (*store.Profile, error)
	UpdatePreferences(ctx context.Context, id int64, prefs map[string]any) error
	CreateOrder(ctx context.Context, in store.NewOrder) (*shop.Order, error)
	GetOrder(ctx context.Context, id int64) (*store.OrderDetail, error)
	CancelOrder(ctx context.Context, id int64, reason string) (int64, error)
	ListOrders(ctx context.Context, f store.OrderFilter) ([]store.OrderListing, error)
	SearchProducts(ctx context.Context, params store.SearchParams) (*store.SearchResult, error)
	Recommendations(ctx context.Context, productID int64, limit int) ([]store.Recommendation, error)
	UpdateInventory(ctx context.Context, updates []store.InventoryUpdate) (*store.InventoryResult, error)
	SalesReport(ctx context.Context, kind string, start, end time.Time) (*store.SalesReport, error)
	DailySalesReport(ctx context.Context, day time.Time) (*store.DailyReport, error)
	Dashboard(ctx context.Context, rangeName string, asOf time.Time) (*store.Dashboard, error)
}

// Analytics runs catalogue queries and reads the summary views.
type Analytics interface {
	RunQuery(ctx context.Context, name string) (*analytics.Result, error)
	CustomerSummaries(ctx context.Context) ([]shop.CustomerSummary, error)
	ProductSummaries(ctx context.Context) ([]shop.ProductSummary, error)
	Ping(ctx context.Context) error
}

type dbAnalytics struct {
	db database.DatabaseDriver
}

func NewAnalytics(db database.DatabaseDriver) Analytics {
	return dbAnalytics{db: db}
}

func (a dbAnalytics) RunQuery(ctx context.Context, name string) (*analytics.Result, error) {
	q, ok := analytics.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("query %q: %w", name, store.ErrNotFound)
	}
	return analytics.Run(ctx, a.db, q)
}

func (a dbAnalytics) CustomerSummaries(ctx context.Context) ([]shop.CustomerSummary, error) {
	return analytics.CustomerOrderSummaries(ctx, a.db)
}

func (a dbAnalytics) ProductSummaries(ctx context.Context) ([]shop.ProductSummary, error) {
	return analytics.ProductSalesSummaries(ctx, a.db)
}

func (a dbAnalytics) Ping(ctx context.Context) error {
	return a.db.Ping(ctx)
}

type Handler struct {
	store     Store
	analytics Analytics
	logger    *zap.Logger
}

func NewHandler(s Store, a Analytics, logger *zap.Logger) *Handler {
	return &Handler{store: s, analytics: a, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)

	api := router.Group("/api/v1")
	{
		api.POST("/customers", h.CreateCustomer)
		api.GET("/customers/:id", h.GetCustomer)
		api.PUT("/customers/:id/preferences", h.UpdatePreferences)

		api.POST("/orders", h.CreateOrder)
		api.GET("/orders", h.ListOrders)
		api.GET("/orders/:id", h.GetOrder)
		api.POST("/orders/:id/cancel", h.CancelOrder)

		api.GET("/products/search", h.SearchProducts)
		api.GET("/products/:id/recommendations", h.Recommendations)
		api.PUT("/products/inventory", h.UpdateInventory)

		api.GET("/reports/sales", h.SalesReport)
		api.GET("/reports/daily", h.DailySalesReport)
		api.GET("/reports/dashboard", h.Dashboard)

		api.GET("/analytics/queries", h.ListQueries)
		api.GET("/analytics/queries/:name", h.RunQuery)
		api.GET("/analytics/customers", h.CustomerSummaries)
		api.GET("/analytics/products", h.ProductSummaries)
	}
}

// NewRouter builds a gin engine with recovery, request logging and the
// handler's routes.
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	h.RegisterRoutes(router)
	router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "route not found")
	})
	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.analytics.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		fail(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	ok(c, http.StatusOK, gin.H{"status": "healthy"})
}
