package shop

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Dataset is a complete, self-consistent set of rows for every table.
type Dataset struct {
	Customers  []Customer
	Categories []Category
	Products   []Product
	Orders     []Order
}

func (d *Dataset) Items() []OrderItem {
	var out []OrderItem
	for _, o := range d.Orders {
		out = append(out, o.Items...)
	}
	return out
}

// Counts returns the row count the dataset produces for each table.
func (d *Dataset) Counts() map[string]int {
	return map[string]int{
		"customers":   len(d.Customers),
		"categories":  len(d.Categories),
		"products":    len(d.Products),
		"orders":      len(d.Orders),
		"order_items": len(d.Items()),
	}
}

// Ledger replays every order item against the products' initial stock, which
// is what the trigger leaves behind after a seed load.
func (d *Dataset) Ledger() *StockLedger {
	l := NewStockLedger(d.Products)
	for _, it := range d.Items() {
		l.Apply(it)
	}
	return l
}

func (d *Dataset) Customer(id int64) (Customer, bool) {
	for _, c := range d.Customers {
		if c.ID == id {
			return c, true
		}
	}
	return Customer{}, false
}

func (d *Dataset) ProductByName(name string) (Product, bool) {
	for _, p := range d.Products {
		if p.Name == name {
			return p, true
		}
	}
	return Product{}, false
}

func (d *Dataset) CategoryName(id int64) string {
	for _, c := range d.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

func (d *Dataset) OrdersFor(customerID int64) []Order {
	var out []Order
	for _, o := range d.Orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out
}

// CustomerSummary is one row of the customer_order_summary view.
type CustomerSummary struct {
	CustomerID     int64           `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	Email          string          `json:"email"`
	TotalOrders    int64           `json:"total_orders"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	AvgOrderValue  decimal.Decimal `json:"avg_order_value"`
	FirstOrderDate *time.Time      `json:"first_order_date"`
	LastOrderDate  *time.Time      `json:"last_order_date"`
}

// ProductSummary is one row of the product_sales_summary view.
type ProductSummary struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	CategoryName string          `json:"category_name"`
	TotalSold    int64           `json:"total_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	OrderCount   int64           `json:"order_count"`
}

// CustomerSummaries computes customer_order_summary, ordered by customer id.
func (d *Dataset) CustomerSummaries() []CustomerSummary {
	out := make([]CustomerSummary, 0, len(d.Customers))
	for _, c := range d.Customers {
		s := CustomerSummary{
			CustomerID:    c.ID,
			CustomerName:  c.Name,
			Email:         c.Email,
			TotalSpent:    decimal.Zero,
			AvgOrderValue: decimal.Zero,
		}
		for _, o := range d.OrdersFor(c.ID) {
			s.TotalOrders++
			s.TotalSpent = s.TotalSpent.Add(o.TotalAmount)
			date := o.OrderDate
			if s.FirstOrderDate == nil || date.Before(*s.FirstOrderDate) {
				s.FirstOrderDate = &date
			}
			if s.LastOrderDate == nil || date.After(*s.LastOrderDate) {
				s.LastOrderDate = &date
			}
		}
		if s.TotalOrders > 0 {
			s.AvgOrderValue = s.TotalSpent.Div(decimal.NewFromInt(s.TotalOrders))
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

// ProductSummaries computes product_sales_summary, ordered by product id.
func (d *Dataset) ProductSummaries() []ProductSummary {
	out := make([]ProductSummary, 0, len(d.Products))
	for _, p := range d.Products {
		s := ProductSummary{
			ProductID:    p.ID,
			ProductName:  p.Name,
			CategoryName: d.CategoryName(p.CategoryID),
			TotalRevenue: decimal.Zero,
		}
		orders := map[int64]bool{}
		for _, it := range d.Items() {
			if it.ProductID != p.ID {
				continue
			}
			s.TotalSold += int64(it.Quantity)
			s.TotalRevenue = s.TotalRevenue.Add(it.TotalPrice)
			orders[it.OrderID] = true
		}
		s.OrderCount = int64(len(orders))
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
