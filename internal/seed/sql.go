package seed

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"interview-practice/internal/shop"
)

// SQL renders ds as a standalone script of INSERT statements, the portable
// form of Load for pasting into psql.
func SQL(ds *shop.Dataset) (string, error) {
	var b strings.Builder
	b.WriteString("BEGIN;\n\n")

	for _, c := range ds.Categories {
		fmt.Fprintf(&b, "INSERT INTO categories (category_id, category_name, description) VALUES (%d, %s, %s);\n",
			c.ID, quote(c.Name), nullableText(c.Description))
	}
	b.WriteString("\n")

	for _, c := range ds.Customers {
		prefs := c.Preferences
		if prefs == nil {
			prefs = map[string]any{}
		}
		raw, err := json.Marshal(prefs)
		if err != nil {
			return "", fmt.Errorf("customer %d preferences: %w", c.ID, err)
		}
		country := c.Country
		if country == "" {
			country = "USA"
		}
		fmt.Fprintf(&b, "INSERT INTO customers (customer_id, customer_name, email, phone, city, state, country, registration_date, preferences) VALUES (%d, %s, %s, %s, %s, %s, %s, %s, %s::jsonb);\n",
			c.ID, quote(c.Name), quote(c.Email), nullableText(c.Phone), nullableText(c.City), nullableText(c.State),
			quote(country), quote(c.RegistrationDate.Format(time.DateOnly)), quote(string(raw)))
	}
	b.WriteString("\n")

	for _, p := range ds.Products {
		fmt.Fprintf(&b, "INSERT INTO products (product_id, product_name, description, category_id, price, cost, stock_quantity, average_rating) VALUES (%d, %s, %s, %d, %s, %s, %d, %s);\n",
			p.ID, quote(p.Name), nullableText(p.Description), p.CategoryID, p.Price.StringFixed(2), p.Cost.StringFixed(2),
			p.StockQuantity, nullableDecimal(p.AverageRating))
	}
	b.WriteString("\n")

	for _, o := range ds.Orders {
		fmt.Fprintf(&b, "INSERT INTO orders (order_id, customer_id, order_date, status, total_amount, tax_amount, shipping_cost, notes) VALUES (%d, %d, %s, %s, %s, %s, %s, %s);\n",
			o.ID, o.CustomerID, quote(o.OrderDate.UTC().Format(time.DateTime)), quote(string(o.Status)),
			o.TotalAmount.StringFixed(2), o.TaxAmount.StringFixed(2), o.ShippingCost.StringFixed(2), nullableText(o.Notes))
	}
	b.WriteString("\n")

	for _, it := range ds.Items() {
		fmt.Fprintf(&b, "INSERT INTO order_items (order_item_id, order_id, product_id, quantity, unit_price, total_price) VALUES (%d, %d, %d, %d, %s, %s);\n",
			it.ID, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice.StringFixed(2), it.TotalPrice.StringFixed(2))
	}
	b.WriteString("\n")

	for _, s := range serials {
		fmt.Fprintf(&b, "SELECT setval(pg_get_serial_sequence('%s', '%s'), COALESCE(MAX(%s), 1)) FROM %s;\n", s[0], s[1], s[1], s[0])
	}
	b.WriteString("\nCOMMIT;\n")
	return b.String(), nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func nullableText(s string) string {
	if s == "" {
		return "NULL"
	}
	return quote(s)
}

func nullableDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return "NULL"
	}
	return d.Decimal.StringFixed(2)
}
