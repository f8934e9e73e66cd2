package analytics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"interview-practice/internal/database"
	"interview-practice/internal/shop"
)

const (
	customerSummarySQL = `SELECT customer_id, customer_name, email, total_orders, total_spent,
		avg_order_value, first_order_date, last_order_date
	FROM customer_order_summary
	ORDER BY customer_id`

	productSummarySQL = `SELECT product_id, product_name, COALESCE(category_name, ''), total_sold,
		total_revenue, order_count
	FROM product_sales_summary
	ORDER BY product_id`
)

func CustomerOrderSummaries(ctx context.Context, db database.DatabaseDriver) ([]shop.CustomerSummary, error) {
	rows, err := db.QueryContext(ctx, customerSummarySQL)
	if err != nil {
		return nil, fmt.Errorf("read customer_order_summary: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (shop.CustomerSummary, error) {
		var s shop.CustomerSummary
		err := row.Scan(&s.CustomerID, &s.CustomerName, &s.Email, &s.TotalOrders, &s.TotalSpent,
			&s.AvgOrderValue, &s.FirstOrderDate, &s.LastOrderDate)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("read customer_order_summary: %w", err)
	}
	return out, nil
}

func ProductSalesSummaries(ctx context.Context, db database.DatabaseDriver) ([]shop.ProductSummary, error) {
	rows, err := db.QueryContext(ctx, productSummarySQL)
	if err != nil {
		return nil, fmt.Errorf("read product_sales_summary: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (shop.ProductSummary, error) {
		var s shop.ProductSummary
		err := row.Scan(&s.ProductID, &s.ProductName, &s.CategoryName, &s.TotalSold, &s.TotalRevenue, &s.OrderCount)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("read product_sales_summary: %w", err)
	}
	return out, nil
}
