package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interview-practice/internal/analytics"
	"interview-practice/internal/shop"
	"interview-practice/internal/store"
)

// fakeStore records the arguments it was called with and returns err when set.
type fakeStore struct {
	err error

	newCustomer store.NewCustomer
	newOrder    store.NewOrder
	filter      store.OrderFilter
	search      store.SearchParams
	reason      string
	report      string
	day         time.Time
	dateRange   string
	asOf        time.Time
	limit       int
	updates     []store.InventoryUpdate
}

func (f *fakeStore) CreateCustomer(_ context.Context, in store.NewCustomer) (int64, error) {
	f.newCustomer = in
	return 11, f.err
}

func (f *fakeStore) CustomerProfile(_ context.Context, id int64) (*store.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &store.Profile{Customer: shop.Customer{ID: id, Name: "John Smith"}}, nil
}

func (f *fakeStore) UpdatePreferences(context.Context, int64, map[string]any) error {
	return f.err
}

func (f *fakeStore) CreateOrder(_ context.Context, in store.NewOrder) (*shop.Order, error) {
	f.newOrder = in
	if f.err != nil {
		return nil, f.err
	}
	return &shop.Order{ID: 21, CustomerID: in.CustomerID, Status: shop.StatusConfirmed, TotalAmount: decimal.RequireFromString("269.98")}, nil
}

func (f *fakeStore) GetOrder(_ context.Context, id int64) (*store.OrderDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &store.OrderDetail{Order: shop.Order{ID: id}}, nil
}

func (f *fakeStore) CancelOrder(_ context.Context, _ int64, reason string) (int64, error) {
	f.reason = reason
	return 2, f.err
}

func (f *fakeStore) ListOrders(_ context.Context, filter store.OrderFilter) ([]store.OrderListing, error) {
	f.filter = filter
	return []store.OrderListing{{OrderID: 4}, {OrderID: 1}}, f.err
}

func (f *fakeStore) SearchProducts(_ context.Context, params store.SearchParams) (*store.SearchResult, error) {
	f.search = params
	if f.err != nil {
		return nil, f.err
	}
	return &store.SearchResult{SearchQuery: params.Query}, nil
}

func (f *fakeStore) Recommendations(_ context.Context, _ int64, limit int) ([]store.Recommendation, error) {
	f.limit = limit
	return nil, f.err
}

func (f *fakeStore) UpdateInventory(_ context.Context, updates []store.InventoryUpdate) (*store.InventoryResult, error) {
	f.updates = updates
	if f.err != nil {
		return nil, f.err
	}
	return &store.InventoryResult{Total: len(updates), Successful: len(updates)}, nil
}

func (f *fakeStore) SalesReport(_ context.Context, kind string, _, _ time.Time) (*store.SalesReport, error) {
	f.report = kind
	if f.err != nil {
		return nil, f.err
	}
	return &store.SalesReport{Kind: kind}, nil
}

func (f *fakeStore) DailySalesReport(_ context.Context, day time.Time) (*store.DailyReport, error) {
	f.day = day
	if f.err != nil {
		return nil, f.err
	}
	return &store.DailyReport{Date: day.Format(time.DateOnly)}, nil
}

func (f *fakeStore) Dashboard(_ context.Context, rangeName string, asOf time.Time) (*store.Dashboard, error) {
	f.dateRange, f.asOf = rangeName, asOf
	if f.err != nil {
		return nil, f.err
	}
	return &store.Dashboard{DateRange: rangeName}, nil
}

type fakeAnalytics struct {
	pingErr error
}

func (fakeAnalytics) RunQuery(_ context.Context, name string) (*analytics.Result, error) {
	if name != "products_never_ordered" {
		return nil, fmt.Errorf("query %q: %w", name, store.ErrNotFound)
	}
	return &analytics.Result{
		Query:   name,
		Columns: []string{"product_id", "product_name"},
		Rows:    [][]any{{int64(14), "Garden Hose"}, {int64(15), "Desk Lamp"}},
	}, nil
}

func (fakeAnalytics) CustomerSummaries(context.Context) ([]shop.CustomerSummary, error) {
	return []shop.CustomerSummary{{CustomerID: 1, TotalOrders: 3}}, nil
}

func (fakeAnalytics) ProductSummaries(context.Context) ([]shop.ProductSummary, error) {
	return []shop.ProductSummary{{ProductID: 2, TotalSold: 1}}, nil
}

func (f fakeAnalytics) Ping(context.Context) error { return f.pingErr }

type response struct {
	Success   bool            `json:"success"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
}

func newTestRouter(s *fakeStore, a fakeAnalytics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(s, a, zap.NewNop()), zap.NewNop())
}

func do(t *testing.T, router *gin.Engine, method, target, body string) (int, response) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	assert.False(t, resp.Timestamp.IsZero())
	return w.Code, resp
}

func TestCreateCustomer(t *testing.T) {
	s := &fakeStore{}
	router := newTestRouter(s, fakeAnalytics{})

	code, resp := do(t, router, http.MethodPost, "/api/v1/customers",
		`{"customer_name":"Ivy Chen","email":"ivy@email.com","preferences":{"theme":"dark"}}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `{"customer_id":11,"message":"customer created"}`, string(resp.Data))
	assert.Equal(t, "Ivy Chen", s.newCustomer.Name)
	assert.Equal(t, map[string]any{"theme": "dark"}, s.newCustomer.Preferences)

	code, resp = do(t, router, http.MethodPost, "/api/v1/customers", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
}

func TestOverlongCustomerFieldIsBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(NewHandler(store.New(nil, zap.NewNop()), fakeAnalytics{}, zap.NewNop()), zap.NewNop())

	code, resp := do(t, router, http.MethodPost, "/api/v1/customers",
		`{"customer_name":"Ada","email":"ada@example.com","phone":"555-0101-0101-0101-01"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "phone longer than 20 characters")
}

func TestErrorMapping(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want int
	}{
		{fmt.Errorf("customer 9: %w", store.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("a@b.c: %w", store.ErrEmailTaken), http.StatusConflict},
		{fmt.Errorf("product 1: %w", store.ErrInsufficientStock), http.StatusConflict},
		{fmt.Errorf("order 1 is shipped: %w", store.ErrNotCancellable), http.StatusConflict},
		{fmt.Errorf("%w: bad", store.ErrInvalidInput), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	} {
		router := newTestRouter(&fakeStore{err: tc.err}, fakeAnalytics{})
		code, resp := do(t, router, http.MethodGet, "/api/v1/customers/9", "")
		assert.Equal(t, tc.want, code, tc.err.Error())
		assert.False(t, resp.Success)
		if tc.want == http.StatusInternalServerError {
			assert.Equal(t, "internal server error", resp.Error)
		} else {
			assert.Equal(t, tc.err.Error(), resp.Error)
		}
	}
}

func TestBadIDs(t *testing.T) {
	router := newTestRouter(&fakeStore{}, fakeAnalytics{})
	for _, target := range []string{"/api/v1/customers/abc", "/api/v1/orders/0", "/api/v1/products/-1/recommendations"} {
		code, resp := do(t, router, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, code, target)
		assert.Equal(t, "invalid id", resp.Error)
	}
}

func TestOrders(t *testing.T) {
	s := &fakeStore{}
	router := newTestRouter(s, fakeAnalytics{})

	code, resp := do(t, router, http.MethodPost, "/api/v1/orders",
		`{"customer_id":10,"items":[{"product_id":2,"quantity":1}]}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, []store.OrderLine{{ProductID: 2, Quantity: 1}}, s.newOrder.Items)
	var o shop.Order
	require.NoError(t, json.Unmarshal(resp.Data, &o))
	assert.Equal(t, int64(21), o.ID)
	assert.Equal(t, "269.98", o.TotalAmount.String())

	code, _ = do(t, router, http.MethodGet, "/api/v1/orders?start_date=2023-01-01&end_date=2023-01-31&status=delivered", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), s.filter.End)
	assert.Equal(t, shop.StatusDelivered, s.filter.Status)

	code, resp = do(t, router, http.MethodGet, "/api/v1/orders?start_date=january", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "start_date must be YYYY-MM-DD", resp.Error)

	code, resp = do(t, router, http.MethodPost, "/api/v1/orders/7/cancel", `{"reason":"changed mind"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "changed mind", s.reason)
	assert.JSONEq(t, `{"order_id":7,"status":"cancelled","items_restocked":2}`, string(resp.Data))
}

func TestProducts(t *testing.T) {
	s := &fakeStore{}
	router := newTestRouter(s, fakeAnalytics{})

	code, _ := do(t, router, http.MethodGet, "/api/v1/products/search?q=lamp&min_price=10.50&sort_by=price_asc&page=2", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "lamp", s.search.Query)
	assert.Equal(t, 2, s.search.Page)
	require.NotNil(t, s.search.MinPrice)
	assert.Equal(t, "10.5", s.search.MinPrice.String())
	assert.Nil(t, s.search.MaxPrice)

	code, resp := do(t, router, http.MethodGet, "/api/v1/products/search?q=lamp&max_price=cheap", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid max_price", resp.Error)

	code, _ = do(t, router, http.MethodGet, "/api/v1/products/2/recommendations?limit=3", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, s.limit)

	code, resp = do(t, router, http.MethodPut, "/api/v1/products/inventory",
		`{"updates":[{"product_id":1,"quantity":40},{"product_id":3}]}`)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, s.updates, 2)
	require.NotNil(t, s.updates[0].Quantity)
	assert.Equal(t, 40, *s.updates[0].Quantity)
	assert.Nil(t, s.updates[1].Quantity)
	assert.Contains(t, string(resp.Data), `"total_updates":2`)
}

func TestSalesReport(t *testing.T) {
	s := &fakeStore{}
	router := newTestRouter(s, fakeAnalytics{})

	code, _ := do(t, router, http.MethodGet, "/api/v1/reports/sales?start_date=2023-01-01&end_date=2023-12-31", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, store.ReportSummary, s.report)

	code, _ = do(t, router, http.MethodGet, "/api/v1/reports/sales?type=detailed&start_date=2023-01-01&end_date=2023-12-31", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, store.ReportDetailed, s.report)
}

func TestDailyAndDashboardReports(t *testing.T) {
	s := &fakeStore{}
	router := newTestRouter(s, fakeAnalytics{})

	code, resp := do(t, router, http.MethodGet, "/api/v1/reports/daily?date=2023-03-03", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, time.Date(2023, 3, 3, 0, 0, 0, 0, time.UTC), s.day)
	assert.Contains(t, string(resp.Data), `"date":"2023-03-03"`)

	code, resp = do(t, router, http.MethodGet, "/api/v1/reports/daily?date=03/03/2023", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "date must be YYYY-MM-DD", resp.Error)

	code, _ = do(t, router, http.MethodGet, "/api/v1/reports/dashboard?range=last_7_days&as_of=2023-08-20", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "last_7_days", s.dateRange)
	assert.Equal(t, time.Date(2023, 8, 20, 0, 0, 0, 0, time.UTC), s.asOf)

	code, _ = do(t, router, http.MethodGet, "/api/v1/reports/dashboard", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, s.dateRange)
	assert.WithinDuration(t, time.Now(), s.asOf, time.Minute)

	bad := &fakeStore{err: fmt.Errorf("%w: unknown date range", store.ErrInvalidInput)}
	code, _ = do(t, newTestRouter(bad, fakeAnalytics{}), http.MethodGet, "/api/v1/reports/dashboard?range=forever", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAnalyticsRoutes(t *testing.T) {
	router := newTestRouter(&fakeStore{}, fakeAnalytics{})

	code, resp := do(t, router, http.MethodGet, "/api/v1/analytics/queries", "")
	assert.Equal(t, http.StatusOK, code)
	var qs []analytics.Query
	require.NoError(t, json.Unmarshal(resp.Data, &qs))
	assert.Len(t, qs, len(analytics.Catalogue()))

	code, resp = do(t, router, http.MethodGet, "/api/v1/analytics/queries/products_never_ordered", "")
	assert.Equal(t, http.StatusOK, code)
	var run struct {
		Rows     []map[string]any `json:"rows"`
		RowCount int              `json:"row_count"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &run))
	assert.Equal(t, 2, run.RowCount)
	assert.Equal(t, "Garden Hose", run.Rows[0]["product_name"])

	code, _ = do(t, router, http.MethodGet, "/api/v1/analytics/queries/nope", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = do(t, router, http.MethodGet, "/api/v1/analytics/customers", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"total_orders":3`)

	code, _ = do(t, router, http.MethodGet, "/api/v1/analytics/products", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestHealth(t *testing.T) {
	code, resp := do(t, newTestRouter(&fakeStore{}, fakeAnalytics{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	code, resp = do(t, newTestRouter(&fakeStore{}, fakeAnalytics{pingErr: errors.New("down")}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "database unavailable", resp.Error)

	code, _ = do(t, newTestRouter(&fakeStore{}, fakeAnalytics{}), http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, code)
}
