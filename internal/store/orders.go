package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"interview-practice/internal/database"
	"interview-practice/internal/shop"
)

type OrderLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type NewOrder struct {
	CustomerID int64       `json:"customer_id"`
	Items      []OrderLine `json:"items"`
	Notes      string      `json:"notes"`
}

// validate checks the request shape and folds repeated products into one line.
func (o NewOrder) validate() ([]OrderLine, error) {
	var problems []string
	if o.CustomerID <= 0 {
		problems = append(problems, "customer_id is required")
	}
	if len(o.Items) == 0 {
		problems = append(problems, "order must contain at least one item")
	}
	var lines []OrderLine
	index := map[int64]int{}
	for _, it := range o.Items {
		if it.ProductID <= 0 {
			problems = append(problems, "product_id is required for every item")
			continue
		}
		if it.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("invalid quantity %d for product %d", it.Quantity, it.ProductID))
			continue
		}
		if i, ok := index[it.ProductID]; ok {
			lines[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(lines)
		lines = append(lines, it)
	}
	if len(problems) > 0 {
		return nil, invalid("order", problems...)
	}
	return lines, nil
}

var (
	customerExistsQuery = "SELECT EXISTS (SELECT 1 FROM customers WHERE customer_id = $1)"
	lockProductsQuery   = `SELECT product_id, price, stock_quantity FROM products
		WHERE product_id = ANY($1) ORDER BY product_id FOR UPDATE`
	createOrderQuery = `INSERT INTO orders (customer_id, status, total_amount, tax_amount, shipping_cost, notes)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING order_id, order_date`
	createOrderItemQuery = `INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING order_item_id`
)

// CreateOrder prices and places an order in one transaction. The products
// are locked before their stock is checked, and inserting the items lets the
// trigger take the stock.
func (s *Store) CreateOrder(ctx context.Context, in NewOrder) (*shop.Order, error) {
	lines, err := in.validate()
	if err != nil {
		return nil, err
	}

	var order *shop.Order
	err = s.db.ExecuteTx(ctx, func(ctx context.Context) error {
		var exists bool
		if err := s.db.QueryRowContext(ctx, customerExistsQuery, in.CustomerID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return notFound("customer %d", in.CustomerID)
		}

		ids := make([]int64, len(lines))
		for i, l := range lines {
			ids[i] = l.ProductID
		}
		type stocked struct {
			price decimal.Decimal
			stock int
		}
		rows, err := s.db.QueryContext(ctx, lockProductsQuery, ids)
		if err != nil {
			return err
		}
		products := map[int64]stocked{}
		for rows.Next() {
			var id int64
			var p stocked
			if err := rows.Scan(&id, &p.price, &p.stock); err != nil {
				rows.Close()
				return err
			}
			products[id] = p
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		priced := make([]shop.Line, 0, len(lines))
		var missing, short []string
		for _, l := range lines {
			p, ok := products[l.ProductID]
			switch {
			case !ok:
				missing = append(missing, fmt.Sprint(l.ProductID))
			case p.stock < l.Quantity:
				short = append(short, fmt.Sprintf("product %d has %d, requested %d", l.ProductID, p.stock, l.Quantity))
			default:
				priced = append(priced, shop.Line{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: p.price})
			}
		}
		if len(missing) > 0 {
			return notFound("products %s", strings.Join(missing, ", "))
		}
		if len(short) > 0 {
			return fmt.Errorf("%s: %w", strings.Join(short, "; "), ErrInsufficientStock)
		}

		q := shop.QuoteLines(priced)
		o := &shop.Order{
			CustomerID:   in.CustomerID,
			Status:       shop.StatusConfirmed,
			TotalAmount:  q.Total,
			TaxAmount:    q.Tax,
			ShippingCost: q.Shipping,
			Notes:        in.Notes,
		}
		err = s.db.QueryRowContext(ctx, createOrderQuery, o.CustomerID, string(o.Status),
			o.TotalAmount, o.TaxAmount, o.ShippingCost, o.Notes).Scan(&o.ID, &o.OrderDate)
		if err != nil {
			return fmt.Errorf("insert order: %w", database.Classify(err))
		}

		for _, l := range priced {
			it := shop.NewOrderItem(0, o.ID, l.ProductID, l.Quantity, l.UnitPrice)
			err := s.db.QueryRowContext(ctx, createOrderItemQuery, it.OrderID, it.ProductID, it.Quantity,
				it.UnitPrice, it.TotalPrice).Scan(&it.ID)
			if stockViolation(err) {
				return fmt.Errorf("product %d: %w", l.ProductID, ErrInsufficientStock)
			}
			if err != nil {
				return fmt.Errorf("insert order item: %w", database.Classify(err))
			}
			o.Items = append(o.Items, it)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("order created", zap.Int64("order_id", order.ID), zap.Int("items", len(order.Items)))
	return order, nil
}

type OrderDetail struct {
	shop.Order
	CustomerName string       `json:"customer_name"`
	Items        []ItemDetail `json:"items"`
}

type ItemDetail struct {
	shop.OrderItem
	ProductName string `json:"product_name"`
}

var (
	getOrderQuery = `SELECT o.order_id, o.customer_id, c.customer_name, o.order_date, o.status,
			o.total_amount, o.tax_amount, o.shipping_cost, COALESCE(o.notes, '')
		FROM orders o
		JOIN customers c ON c.customer_id = o.customer_id
		WHERE o.order_id = $1`
	getOrderItemsQuery = `SELECT oi.order_item_id, oi.order_id, oi.product_id, p.product_name,
			oi.quantity, oi.unit_price, oi.total_price
		FROM order_items oi
		JOIN products p ON p.product_id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.order_item_id`
)

func (s *Store) GetOrder(ctx context.Context, id int64) (*OrderDetail, error) {
	var d OrderDetail
	var status string
	err := s.db.QueryRowContext(ctx, getOrderQuery, id).Scan(&d.ID, &d.CustomerID, &d.CustomerName, &d.OrderDate,
		&status, &d.TotalAmount, &d.TaxAmount, &d.ShippingCost, &d.Notes)
	if errors.Is(err, database.ErrNoRows) {
		return nil, notFound("order %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	d.Status = shop.OrderStatus(status)

	rows, err := s.db.QueryContext(ctx, getOrderItemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get order %d items: %w", id, err)
	}
	d.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (ItemDetail, error) {
		var it ItemDetail
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.TotalPrice)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("get order %d items: %w", id, err)
	}
	return &d, nil
}

var (
	lockOrderQuery   = "SELECT status FROM orders WHERE order_id = $1 FOR UPDATE"
	cancelOrderQuery = `UPDATE orders
		SET status = 'cancelled',
			notes = COALESCE(notes || '; ', '') || 'Cancelled: ' || $1::text
		WHERE order_id = $2`
	deleteOrderItemsQuery = "DELETE FROM order_items WHERE order_id = $1"
)

// CancelOrder marks a pending or confirmed order cancelled and deletes its
// items; the trigger puts their quantities back in stock. It returns the
// number of items removed.
func (s *Store) CancelOrder(ctx context.Context, id int64, reason string) (int64, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return 0, invalid("cancellation", "reason is required")
	}

	var removed int64
	err := s.db.ExecuteTx(ctx, func(ctx context.Context) error {
		var status string
		err := s.db.QueryRowContext(ctx, lockOrderQuery, id).Scan(&status)
		if errors.Is(err, database.ErrNoRows) {
			return notFound("order %d", id)
		}
		if err != nil {
			return err
		}
		if !shop.OrderStatus(status).Cancellable() {
			return fmt.Errorf("order %d is %s: %w", id, status, ErrNotCancellable)
		}

		if _, err := s.db.ExecContext(ctx, cancelOrderQuery, reason, id); err != nil {
			return fmt.Errorf("cancel order %d: %w", id, err)
		}
		tag, err := s.db.ExecContext(ctx, deleteOrderItemsQuery, id)
		if err != nil {
			return fmt.Errorf("delete order %d items: %w", id, err)
		}
		removed = tag.RowsAffected()
		return nil
	})
	return removed, err
}

type OrderFilter struct {
	Start  time.Time
	End    time.Time
	Status shop.OrderStatus
}

type OrderListing struct {
	OrderID      int64            `json:"order_id"`
	CustomerID   int64            `json:"customer_id"`
	CustomerName string           `json:"customer_name"`
	OrderDate    time.Time        `json:"order_date"`
	Status       shop.OrderStatus `json:"status"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
}

var listOrdersQuery = `SELECT o.order_id, o.customer_id, c.customer_name, o.order_date, o.status, o.total_amount
	FROM orders o
	JOIN customers c ON c.customer_id = o.customer_id
	WHERE DATE(o.order_date) BETWEEN $1::date AND $2::date
	  AND ($3::text = '' OR o.status = $3::text)
	ORDER BY o.order_date DESC, o.order_id DESC`

// ListOrders returns orders placed on any day from f.Start to f.End
// inclusive, newest first, optionally restricted to one status.
func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]OrderListing, error) {
	var problems []string
	if f.Start.IsZero() || f.End.IsZero() {
		problems = append(problems, "start and end dates are required")
	} else if f.End.Before(f.Start) {
		problems = append(problems, "end date is before start date")
	}
	if f.Status != "" && !f.Status.Valid() {
		problems = append(problems, fmt.Sprintf("unknown status %q", f.Status))
	}
	if len(problems) > 0 {
		return nil, invalid("order filter", problems...)
	}

	rows, err := s.db.QueryContext(ctx, listOrdersQuery, f.Start, f.End, string(f.Status))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (OrderListing, error) {
		var l OrderListing
		var status string
		err := row.Scan(&l.OrderID, &l.CustomerID, &l.CustomerName, &l.OrderDate, &status, &l.TotalAmount)
		l.Status = shop.OrderStatus(status)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}
