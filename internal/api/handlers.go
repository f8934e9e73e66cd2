package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"interview-practice/internal/analytics"
	"interview-practice/internal/shop"
	"interview-practice/internal/store"
)

func (h *Handler) CreateCustomer(c *gin.Context) {
	var in store.NewCustomer
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := h.store.CreateCustomer(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"customer_id": id, "message": "customer created"})
}

func (h *Handler) GetCustomer(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	p, err := h.store.CustomerProfile(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

func (h *Handler) UpdatePreferences(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var prefs map[string]any
	if err := c.ShouldBindJSON(&prefs); err != nil {
		fail(c, http.StatusBadRequest, "preferences must be a JSON object")
		return
	}
	if err := h.store.UpdatePreferences(c.Request.Context(), id, prefs); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"customer_id": id, "preferences": prefs})
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var in store.NewOrder
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	o, err := h.store.CreateOrder(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, o)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	o, err := h.store.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelOrder(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	removed, err := h.store.CancelOrder(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"order_id": id, "status": shop.StatusCancelled, "items_restocked": removed})
}

func (h *Handler) ListOrders(c *gin.Context) {
	start, end, valid := dateRange(c)
	if !valid {
		return
	}
	orders, err := h.store.ListOrders(c.Request.Context(), store.OrderFilter{
		Start:  start,
		End:    end,
		Status: shop.OrderStatus(c.Query("status")),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (h *Handler) SearchProducts(c *gin.Context) {
	params := store.SearchParams{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		SortBy:   c.Query("sort_by"),
	}
	var valid bool
	if params.Page, valid = intQuery(c, "page"); !valid {
		return
	}
	if params.PageSize, valid = intQuery(c, "page_size"); !valid {
		return
	}
	if params.MinPrice, valid = decimalQuery(c, "min_price"); !valid {
		return
	}
	if params.MaxPrice, valid = decimalQuery(c, "max_price"); !valid {
		return
	}

	res, err := h.store.SearchProducts(c.Request.Context(), params)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

func (h *Handler) Recommendations(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	limit, valid := intQuery(c, "limit")
	if !valid {
		return
	}
	recs, err := h.store.Recommendations(c.Request.Context(), id, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"product_id": id, "recommendations": recs})
}

type inventoryRequest struct {
	Updates []store.InventoryUpdate `json:"updates"`
}

func (h *Handler) UpdateInventory(c *gin.Context) {
	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.store.UpdateInventory(c.Request.Context(), req.Updates)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

func (h *Handler) SalesReport(c *gin.Context) {
	start, end, valid := dateRange(c)
	if !valid {
		return
	}
	kind := c.DefaultQuery("type", store.ReportSummary)
	report, err := h.store.SalesReport(c.Request.Context(), kind, start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, report)
}

func (h *Handler) DailySalesReport(c *gin.Context) {
	day, valid := dateQuery(c, "date", time.Time{})
	if !valid {
		return
	}
	report, err := h.store.DailySalesReport(c.Request.Context(), day)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, report)
}

// Dashboard defaults to the last 30 days ending today.
func (h *Handler) Dashboard(c *gin.Context) {
	asOf, valid := dateQuery(c, "as_of", time.Now().UTC())
	if !valid {
		return
	}
	d, err := h.store.Dashboard(c.Request.Context(), c.Query("range"), asOf)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

func (h *Handler) ListQueries(c *gin.Context) {
	ok(c, http.StatusOK, analytics.Catalogue())
}

func (h *Handler) RunQuery(c *gin.Context) {
	res, err := h.analytics.RunQuery(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"query":       res.Query,
		"columns":     res.Columns,
		"rows":        res.Records(),
		"row_count":   len(res.Rows),
		"fingerprint": res.Fingerprint(),
	})
}

func (h *Handler) CustomerSummaries(c *gin.Context) {
	rows, err := h.analytics.CustomerSummaries(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, rows)
}

func (h *Handler) ProductSummaries(c *gin.Context) {
	rows, err := h.analytics.ProductSummaries(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, rows)
}
