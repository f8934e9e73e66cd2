package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"interview-practice/internal/database"
	"interview-practice/internal/shop"
)

const (
	insertCategory = `INSERT INTO categories (category_id, category_name, description) VALUES ($1, $2, $3)`
	insertCustomer = `INSERT INTO customers (customer_id, customer_name, email, phone, city, state, country, registration_date, preferences)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	insertProduct = `INSERT INTO products (product_id, product_name, description, category_id, price, cost, stock_quantity, average_rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	insertOrder = `INSERT INTO orders (order_id, customer_id, order_date, status, total_amount, tax_amount, shipping_cost, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	insertOrderItem = `INSERT INTO order_items (order_item_id, order_id, product_id, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)`
)

// serials pairs each table with its SERIAL column so the sequences can be
// moved past the explicit ids the seed inserts.
var serials = [][2]string{
	{"customers", "customer_id"},
	{"categories", "category_id"},
	{"products", "product_id"},
	{"orders", "order_id"},
	{"order_items", "order_item_id"},
}

// Load inserts ds in a single transaction. Order items go in after their
// products, so the stock trigger leaves each product at initial stock minus
// units sold.
func Load(ctx context.Context, db database.DatabaseDriver, ds *shop.Dataset, logger *zap.Logger) error {
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("seed dataset is inconsistent: %w", err)
	}

	return db.ExecuteTx(ctx, func(ctx context.Context) error {
		steps := []struct {
			table string
			batch *pgx.Batch
		}{
			{"categories", categoryBatch(ds)},
			{"customers", customerBatch(ds)},
			{"products", productBatch(ds)},
			{"orders", orderBatch(ds)},
			{"order_items", itemBatch(ds)},
		}
		for _, s := range steps {
			if err := db.SendBatch(ctx, s.batch).Close(); err != nil {
				return fmt.Errorf("seed %s: %w", s.table, database.Classify(err))
			}
			logger.Info("seeded table", zap.String("table", s.table), zap.Int("rows", s.batch.Len()))
		}

		for _, s := range serials {
			q := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', '%s'), COALESCE(MAX(%s), 1)) FROM %s", s[0], s[1], s[1], s[0])
			if _, err := db.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("advance %s sequence: %w", s[0], err)
			}
		}
		return nil
	})
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func categoryBatch(ds *shop.Dataset) *pgx.Batch {
	b := &pgx.Batch{}
	for _, c := range ds.Categories {
		b.Queue(insertCategory, c.ID, c.Name, nullIfEmpty(c.Description))
	}
	return b
}

func customerBatch(ds *shop.Dataset) *pgx.Batch {
	b := &pgx.Batch{}
	for _, c := range ds.Customers {
		prefs := c.Preferences
		if prefs == nil {
			prefs = map[string]any{}
		}
		country := c.Country
		if country == "" {
			country = "USA"
		}
		b.Queue(insertCustomer, c.ID, c.Name, c.Email, nullIfEmpty(c.Phone), nullIfEmpty(c.City), nullIfEmpty(c.State),
			country, c.RegistrationDate, prefs)
	}
	return b
}

func productBatch(ds *shop.Dataset) *pgx.Batch {
	b := &pgx.Batch{}
	for _, p := range ds.Products {
		b.Queue(insertProduct, p.ID, p.Name, nullIfEmpty(p.Description), p.CategoryID, p.Price, p.Cost, p.StockQuantity, p.AverageRating)
	}
	return b
}

func orderBatch(ds *shop.Dataset) *pgx.Batch {
	b := &pgx.Batch{}
	for _, o := range ds.Orders {
		b.Queue(insertOrder, o.ID, o.CustomerID, o.OrderDate, string(o.Status), o.TotalAmount, o.TaxAmount, o.ShippingCost, nullIfEmpty(o.Notes))
	}
	return b
}

func itemBatch(ds *shop.Dataset) *pgx.Batch {
	b := &pgx.Batch{}
	for _, it := range ds.Items() {
		b.Queue(insertOrderItem, it.ID, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice)
	}
	return b
}
