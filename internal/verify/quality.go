package verify

import (
	"context"
	"fmt"

	"interview-practice/internal/database"
)

type QualityReport struct {
	MissingData          []string `json:"missing_data"`
	Duplicates           []string `json:"duplicates"`
	Outliers             []string `json:"outliers"`
	ReferentialIntegrity []string `json:"referential_integrity"`
}

// Clean reports whether no probe found anything.
func (r QualityReport) Clean() bool {
	return len(r.MissingData)+len(r.Duplicates)+len(r.Outliers)+len(r.ReferentialIntegrity) == 0
}

type probe struct {
	section     *[]string
	query       string
	description string
}

func (r *QualityReport) probes() []probe {
	return []probe{
		{&r.MissingData, "SELECT COUNT(*) FROM customers WHERE customer_name IS NULL OR customer_name = ''", "customers with missing names"},
		{&r.MissingData, "SELECT COUNT(*) FROM customers WHERE email IS NULL OR email = ''", "customers with missing emails"},
		{&r.MissingData, "SELECT COUNT(*) FROM products WHERE product_name IS NULL OR price IS NULL", "products with missing critical data"},
		{&r.MissingData, "SELECT COUNT(*) FROM orders WHERE customer_id IS NULL OR total_amount IS NULL", "orders with missing critical data"},

		{&r.Duplicates, "SELECT COUNT(*) FROM (SELECT LOWER(email) FROM customers GROUP BY LOWER(email) HAVING COUNT(*) > 1) d", "duplicate customer emails"},
		{&r.Duplicates, `SELECT COUNT(*) FROM (
			SELECT customer_id, order_date, total_amount FROM orders
			GROUP BY customer_id, order_date, total_amount HAVING COUNT(*) > 1) d`, "potential duplicate orders"},

		{&r.Outliers, "SELECT COUNT(*) FROM products WHERE price < 0 OR price > 10000", "products with extreme prices"},
		{&r.Outliers, "SELECT COUNT(*) FROM orders WHERE total_amount < 0 OR total_amount > 50000", "orders with extreme amounts"},
		{&r.Outliers, "SELECT COUNT(*) FROM order_items WHERE quantity <= 0 OR quantity > 1000", "order items with extreme quantities"},
		{&r.Outliers, "SELECT COUNT(*) FROM products WHERE cost > price", "products sold below cost"},

		{&r.ReferentialIntegrity, "SELECT COUNT(*) FROM orders o LEFT JOIN customers c ON o.customer_id = c.customer_id WHERE c.customer_id IS NULL", "orders with invalid customer_id"},
		{&r.ReferentialIntegrity, "SELECT COUNT(*) FROM order_items oi LEFT JOIN orders o ON oi.order_id = o.order_id WHERE o.order_id IS NULL", "order_items with invalid order_id"},
		{&r.ReferentialIntegrity, "SELECT COUNT(*) FROM order_items oi LEFT JOIN products p ON oi.product_id = p.product_id WHERE p.product_id IS NULL", "order_items with invalid product_id"},
		{&r.ReferentialIntegrity, `SELECT COUNT(*) FROM orders o WHERE o.status <> 'cancelled'
			AND NOT EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = o.order_id)`, "active orders without items"},
	}
}

// Quality runs each probe and records a finding for every non-zero count.
func Quality(ctx context.Context, db database.DatabaseDriver) (*QualityReport, error) {
	r := &QualityReport{MissingData: []string{}, Duplicates: []string{}, Outliers: []string{}, ReferentialIntegrity: []string{}}
	for _, p := range r.probes() {
		var n int64
		if err := db.QueryRowContext(ctx, p.query).Scan(&n); err != nil {
			return nil, fmt.Errorf("quality probe %q: %w", p.description, err)
		}
		if n > 0 {
			*p.section = append(*p.section, fmt.Sprintf("%d %s", n, p.description))
		}
	}
	return r, nil
}
