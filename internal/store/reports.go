package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"interview-practice/internal/shop"
)

const (
	ReportSummary  = "summary"
	ReportDetailed = "detailed"

	detailedReportLimit = 1000
)

type SalesMetrics struct {
	TotalOrders     int64           `json:"total_orders"`
	UniqueCustomers int64           `json:"unique_customers"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	AvgOrderValue   decimal.Decimal `json:"avg_order_value"`
	MinOrderValue   decimal.Decimal `json:"min_order_value"`
	MaxOrderValue   decimal.Decimal `json:"max_order_value"`
}

type ReportOrder struct {
	OrderListing
	ItemCount int64 `json:"item_count"`
}

// SalesReport carries Metrics for a summary report and Orders for a
// detailed one.
type SalesReport struct {
	Kind    string        `json:"report_type"`
	Period  string        `json:"period"`
	Metrics *SalesMetrics `json:"metrics,omitempty"`
	Orders  []ReportOrder `json:"orders,omitempty"`
}

var salesSummaryQuery = `SELECT
		COUNT(*),
		COUNT(DISTINCT customer_id),
		COALESCE(SUM(total_amount), 0),
		COALESCE(ROUND(AVG(total_amount), 2), 0),
		COALESCE(MIN(total_amount), 0),
		COALESCE(MAX(total_amount), 0)
	FROM orders
	WHERE DATE(order_date) BETWEEN $1::date AND $2::date
	  AND status <> 'cancelled'`

var salesDetailQuery = `SELECT o.order_id, o.customer_id, c.customer_name, o.order_date, o.status,
		o.total_amount, COUNT(oi.order_item_id)
	FROM orders o
	JOIN customers c ON c.customer_id = o.customer_id
	LEFT JOIN order_items oi ON oi.order_id = o.order_id
	WHERE DATE(o.order_date) BETWEEN $1::date AND $2::date
	GROUP BY o.order_id, c.customer_name
	ORDER BY o.order_date DESC, o.order_id DESC
	LIMIT $3`

// SalesReport aggregates the orders placed from start to end inclusive.
// Cancelled orders are left out of the summary metrics but listed in the
// detailed report.
func (s *Store) SalesReport(ctx context.Context, kind string, start, end time.Time) (*SalesReport, error) {
	var problems []string
	if kind != ReportSummary && kind != ReportDetailed {
		problems = append(problems, fmt.Sprintf("unknown report type %q", kind))
	}
	if start.IsZero() || end.IsZero() {
		problems = append(problems, "start and end dates are required")
	} else if end.Before(start) {
		problems = append(problems, "end date is before start date")
	}
	if len(problems) > 0 {
		return nil, invalid("sales report", problems...)
	}

	report := &SalesReport{
		Kind:   kind,
		Period: fmt.Sprintf("%s to %s", start.Format(time.DateOnly), end.Format(time.DateOnly)),
	}

	if kind == ReportSummary {
		var m SalesMetrics
		err := s.db.QueryRowContext(ctx, salesSummaryQuery, start, end).Scan(&m.TotalOrders, &m.UniqueCustomers,
			&m.TotalRevenue, &m.AvgOrderValue, &m.MinOrderValue, &m.MaxOrderValue)
		if err != nil {
			return nil, fmt.Errorf("sales summary: %w", err)
		}
		report.Metrics = &m
		return report, nil
	}

	rows, err := s.db.QueryContext(ctx, salesDetailQuery, start, end, detailedReportLimit)
	if err != nil {
		return nil, fmt.Errorf("sales detail: %w", err)
	}
	report.Orders, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (ReportOrder, error) {
		var o ReportOrder
		var status string
		err := row.Scan(&o.OrderID, &o.CustomerID, &o.CustomerName, &o.OrderDate, &status, &o.TotalAmount, &o.ItemCount)
		o.Status = shop.OrderStatus(status)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("sales detail: %w", err)
	}
	return report, nil
}

type ProductRevenue struct {
	ProductName string          `json:"product_name"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type CategoryRevenue struct {
	CategoryName string          `json:"category_name"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type CityRevenue struct {
	City    string          `json:"city"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Queries over a half-open window [$1, $2) of order dates. Cancelled orders
// are left out.
var (
	topProductsQuery = `SELECT p.product_name, SUM(oi.total_price) AS revenue
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.order_id
		JOIN products p ON p.product_id = oi.product_id
		WHERE o.order_date >= $1::date AND o.order_date < $2::date
		  AND o.status <> 'cancelled'
		GROUP BY p.product_id, p.product_name
		ORDER BY revenue DESC, p.product_id
		LIMIT $3`
	topCategoriesQuery = `SELECT c.category_name, SUM(oi.total_price) AS revenue
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.order_id
		JOIN products p ON p.product_id = oi.product_id
		JOIN categories c ON c.category_id = p.category_id
		WHERE o.order_date >= $1::date AND o.order_date < $2::date
		  AND o.status <> 'cancelled'
		GROUP BY c.category_id, c.category_name
		ORDER BY revenue DESC, c.category_id
		LIMIT $3`
	cityRevenueQuery = `SELECT c.city, COUNT(DISTINCT o.order_id), SUM(o.total_amount) AS revenue
		FROM orders o
		JOIN customers c ON c.customer_id = o.customer_id
		WHERE o.order_date >= $1::date AND o.order_date < $2::date
		  AND o.status <> 'cancelled'
		  AND c.city IS NOT NULL
		GROUP BY c.city
		ORDER BY revenue DESC, c.city
		LIMIT $3`
	periodTotalsQuery = `SELECT
			COALESCE(SUM(total_amount), 0),
			COUNT(*),
			COUNT(DISTINCT customer_id),
			COALESCE(ROUND(AVG(total_amount), 2), 0)
		FROM orders
		WHERE order_date >= $1::date AND order_date < $2::date
		  AND status <> 'cancelled'`
	dailyCustomersQuery = `WITH first_orders AS (
			SELECT customer_id, MIN(DATE(order_date)) AS first_date
			FROM orders
			WHERE status <> 'cancelled'
			GROUP BY customer_id
		)
		SELECT
			COUNT(DISTINCT o.customer_id) FILTER (WHERE f.first_date = $1::date),
			COUNT(DISTINCT o.customer_id) FILTER (WHERE f.first_date < $1::date)
		FROM orders o
		JOIN first_orders f ON f.customer_id = o.customer_id
		WHERE DATE(o.order_date) = $1::date
		  AND o.status <> 'cancelled'`
)

func (s *Store) topProducts(ctx context.Context, start, end time.Time, limit int) ([]ProductRevenue, error) {
	rows, err := s.db.QueryContext(ctx, topProductsQuery, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ProductRevenue, error) {
		var p ProductRevenue
		err := row.Scan(&p.ProductName, &p.Revenue)
		return p, err
	})
}

func (s *Store) topCategories(ctx context.Context, start, end time.Time, limit int) ([]CategoryRevenue, error) {
	rows, err := s.db.QueryContext(ctx, topCategoriesQuery, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("top categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CategoryRevenue, error) {
		var c CategoryRevenue
		err := row.Scan(&c.CategoryName, &c.Revenue)
		return c, err
	})
}

func (s *Store) cityRevenue(ctx context.Context, start, end time.Time, limit int) ([]CityRevenue, error) {
	rows, err := s.db.QueryContext(ctx, cityRevenueQuery, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("city revenue: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CityRevenue, error) {
		var c CityRevenue
		err := row.Scan(&c.City, &c.Orders, &c.Revenue)
		return c, err
	})
}

type PeriodTotals struct {
	TotalSales     decimal.Decimal `json:"total_sales"`
	TotalOrders    int64           `json:"total_orders"`
	TotalCustomers int64           `json:"total_customers"`
	AvgOrderValue  decimal.Decimal `json:"avg_order_value"`
}

func (s *Store) periodTotals(ctx context.Context, start, end time.Time) (PeriodTotals, error) {
	var t PeriodTotals
	err := s.db.QueryRowContext(ctx, periodTotalsQuery, start, end).Scan(&t.TotalSales, &t.TotalOrders,
		&t.TotalCustomers, &t.AvgOrderValue)
	if err != nil {
		return t, fmt.Errorf("period totals: %w", err)
	}
	return t, nil
}

type DailySummary struct {
	PeriodTotals
	NewCustomers       int64 `json:"new_customers"`
	ReturningCustomers int64 `json:"returning_customers"`
}

type DailyReport struct {
	Date        string           `json:"date"`
	Summary     DailySummary     `json:"summary"`
	TopProducts []ProductRevenue `json:"top_products"`
	Geography   []CityRevenue    `json:"geographic_breakdown"`
}

const dailyTopProducts = 5

// DailySalesReport summarises one calendar day. A customer is new on the day
// of their first order and returning on any later day.
func (s *Store) DailySalesReport(ctx context.Context, day time.Time) (*DailyReport, error) {
	if day.IsZero() {
		return nil, invalid("daily report", "date is required")
	}
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, 1)

	report := &DailyReport{Date: day.Format(time.DateOnly)}
	var err error
	if report.Summary.PeriodTotals, err = s.periodTotals(ctx, day, next); err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, dailyCustomersQuery, day).Scan(&report.Summary.NewCustomers,
		&report.Summary.ReturningCustomers)
	if err != nil {
		return nil, fmt.Errorf("daily customers: %w", err)
	}
	if report.TopProducts, err = s.topProducts(ctx, day, next, dailyTopProducts); err != nil {
		return nil, err
	}
	if report.Geography, err = s.cityRevenue(ctx, day, next, MaxPageSize); err != nil {
		return nil, err
	}
	return report, nil
}

// Dashboard ranges, in days ending on the as-of date.
var dashboardRanges = map[string]int{
	"last_7_days":   7,
	"last_30_days":  30,
	"last_90_days":  90,
	"last_365_days": 365,
}

const DefaultDashboardRange = "last_30_days"

type GrowthRates struct {
	Sales     decimal.Decimal `json:"sales_growth"`
	Orders    decimal.Decimal `json:"orders_growth"`
	Customers decimal.Decimal `json:"customers_growth"`
}

type Dashboard struct {
	DateRange     string            `json:"date_range"`
	Period        string            `json:"period"`
	Metrics       PeriodTotals      `json:"metrics"`
	Previous      PeriodTotals      `json:"previous_period"`
	Growth        GrowthRates       `json:"growth_rates"`
	TopProducts   []ProductRevenue  `json:"top_products"`
	TopCategories []CategoryRevenue `json:"top_categories"`
	Geography     []CityRevenue     `json:"geographic_distribution"`
}

// growth is the percentage change from prev to cur, or zero without a
// previous value.
func growth(cur, prev decimal.Decimal) decimal.Decimal {
	if !prev.IsPositive() {
		return decimal.Zero
	}
	return cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(2)
}

// Dashboard compares the window of the named range ending on asOf with the
// window of equal length before it.
func (s *Store) Dashboard(ctx context.Context, rangeName string, asOf time.Time) (*Dashboard, error) {
	if rangeName == "" {
		rangeName = DefaultDashboardRange
	}
	var problems []string
	days, known := dashboardRanges[rangeName]
	if !known {
		problems = append(problems, fmt.Sprintf("unknown date range %q", rangeName))
	}
	if asOf.IsZero() {
		problems = append(problems, "as-of date is required")
	}
	if len(problems) > 0 {
		return nil, invalid("dashboard", problems...)
	}

	end := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)
	prevStart := start.AddDate(0, 0, -days)

	d := &Dashboard{
		DateRange: rangeName,
		Period:    fmt.Sprintf("%s to %s", start.Format(time.DateOnly), end.AddDate(0, 0, -1).Format(time.DateOnly)),
	}
	var err error
	if d.Metrics, err = s.periodTotals(ctx, start, end); err != nil {
		return nil, err
	}
	if d.Previous, err = s.periodTotals(ctx, prevStart, start); err != nil {
		return nil, err
	}
	d.Growth = GrowthRates{
		Sales:     growth(d.Metrics.TotalSales, d.Previous.TotalSales),
		Orders:    growth(decimal.NewFromInt(d.Metrics.TotalOrders), decimal.NewFromInt(d.Previous.TotalOrders)),
		Customers: growth(decimal.NewFromInt(d.Metrics.TotalCustomers), decimal.NewFromInt(d.Previous.TotalCustomers)),
	}
	if d.TopProducts, err = s.topProducts(ctx, start, end, 5); err != nil {
		return nil, err
	}
	if d.TopCategories, err = s.topCategories(ctx, start, end, 5); err != nil {
		return nil, err
	}
	if d.Geography, err = s.cityRevenue(ctx, start, end, 10); err != nil {
		return nil, err
	}
	return d, nil
}
