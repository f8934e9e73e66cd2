// Package seed provides the deterministic sample dataset every exercise is
// written against, and loads it into a migrated database.
package seed

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"interview-practice/internal/shop"
)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func rating(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

var categories = []shop.Category{
	{ID: 1, Name: "Electronics", Description: "Computers, phones and accessories"},
	{ID: 2, Name: "Books", Description: "Technical and interview-preparation books"},
	{ID: 3, Name: "Clothing", Description: "Everyday apparel"},
	{ID: 4, Name: "Home & Garden", Description: "Kitchen, lighting and garden supplies"},
	{ID: 5, Name: "Sports", Description: "Fitness and outdoor gear"},
}

var customers = []shop.Customer{
	{ID: 1, Name: "John Smith", Email: "john.smith@email.com", Phone: "555-0101", City: "New York", State: "NY", Country: "USA",
		RegistrationDate: date(2022, 11, 2), Preferences: map[string]any{"newsletter": true, "categories": []any{"Electronics", "Books"}}},
	{ID: 2, Name: "Jane Doe", Email: "jane.doe@email.com", Phone: "555-0102", City: "Los Angeles", State: "CA", Country: "USA",
		RegistrationDate: date(2022, 11, 15), Preferences: map[string]any{"newsletter": false, "theme": "dark"}},
	{ID: 3, Name: "Bob Johnson", Email: "bob.johnson@email.com", Phone: "555-0103", City: "Chicago", State: "IL", Country: "USA",
		RegistrationDate: date(2022, 12, 1), Preferences: map[string]any{"newsletter": true}},
	{ID: 4, Name: "Alice Brown", Email: "alice.brown@email.com", Phone: "555-0104", City: "New York", State: "NY", Country: "USA",
		RegistrationDate: date(2022, 12, 7), Preferences: map[string]any{"categories": []any{"Sports", "Clothing"}}},
	{ID: 5, Name: "Charlie Wilson", Email: "charlie.wilson@email.com", Phone: "555-0105", City: "Houston", State: "TX", Country: "USA",
		RegistrationDate: date(2022, 12, 19), Preferences: map[string]any{}},
	{ID: 6, Name: "Diana Prince", Email: "diana.prince@email.com", Phone: "555-0106", City: "Chicago", State: "IL", Country: "USA",
		RegistrationDate: date(2023, 1, 4), Preferences: map[string]any{"newsletter": true, "theme": "light"}},
	{ID: 7, Name: "Edward Norton", Email: "edward.norton@email.com", Phone: "555-0107", City: "Seattle", State: "WA", Country: "USA",
		RegistrationDate: date(2023, 1, 10), Preferences: map[string]any{}},
	{ID: 8, Name: "Fiona Green", Email: "fiona.green@email.com", City: "Boston", State: "MA", Country: "USA",
		RegistrationDate: date(2023, 1, 22), Preferences: map[string]any{"newsletter": false}},
	{ID: 9, Name: "George Lee", Email: "george.lee@email.com", Phone: "555-0109", City: "Seattle", State: "WA", Country: "USA",
		RegistrationDate: date(2023, 2, 3), Preferences: map[string]any{"categories": []any{"Home & Garden"}}},
	{ID: 10, Name: "Hannah White", Email: "hannah.white@email.com", Phone: "555-0110", City: "Denver", State: "CO", Country: "USA",
		RegistrationDate: date(2023, 2, 14), Preferences: map[string]any{}},
}

var products = []shop.Product{
	{ID: 1, Name: "Laptop Pro 15", Description: "15-inch laptop with 32GB RAM", CategoryID: 1, Price: money("1299.99"), Cost: money("900.00"), StockQuantity: 25, AverageRating: rating("4.50")},
	{ID: 2, Name: "Wireless Headphones", Description: "Noise-cancelling over-ear headphones", CategoryID: 1, Price: money("199.99"), Cost: money("120.00"), StockQuantity: 50, AverageRating: rating("4.20")},
	{ID: 3, Name: "Smartphone X", Description: "6.1-inch smartphone, 256GB", CategoryID: 1, Price: money("899.99"), Cost: money("600.00"), StockQuantity: 30, AverageRating: rating("4.60")},
	{ID: 4, Name: "USB-C Hub", Description: "7-in-1 USB-C adapter", CategoryID: 1, Price: money("49.99"), Cost: money("20.00"), StockQuantity: 100, AverageRating: rating("4.00")},
	{ID: 5, Name: "SQL Fundamentals", Description: "Relational queries from SELECT to window functions", CategoryID: 2, Price: money("39.99"), Cost: money("15.00"), StockQuantity: 80, AverageRating: rating("4.70")},
	{ID: 6, Name: "Go in Practice", Description: "Idiomatic Go for backend engineers", CategoryID: 2, Price: money("44.99"), Cost: money("18.00"), StockQuantity: 60, AverageRating: rating("4.40")},
	{ID: 7, Name: "Data Structures Handbook", Description: "Arrays, hash maps, trees and graphs", CategoryID: 2, Price: money("29.99"), Cost: money("10.00"), StockQuantity: 70, AverageRating: rating("4.10")},
	{ID: 8, Name: "Cotton T-Shirt", Description: "Plain crew-neck cotton t-shirt", CategoryID: 3, Price: money("19.99"), Cost: money("5.00"), StockQuantity: 200, AverageRating: rating("3.90")},
	{ID: 9, Name: "Denim Jacket", Description: "Classic fit denim jacket", CategoryID: 3, Price: money("89.99"), Cost: money("35.00"), StockQuantity: 40, AverageRating: rating("4.30")},
	{ID: 10, Name: "Running Shoes", Description: "Lightweight road running shoes", CategoryID: 5, Price: money("129.99"), Cost: money("60.00"), StockQuantity: 45, AverageRating: rating("4.50")},
	{ID: 11, Name: "Yoga Mat", Description: "Non-slip 6mm yoga mat", CategoryID: 5, Price: money("34.99"), Cost: money("12.00"), StockQuantity: 90, AverageRating: rating("4.20")},
	{ID: 12, Name: "Dumbbell Set", Description: "Adjustable dumbbells, 2 x 20kg", CategoryID: 5, Price: money("149.99"), Cost: money("80.00"), StockQuantity: 20, AverageRating: rating("4.60")},
	{ID: 13, Name: "Coffee Maker", Description: "12-cup programmable coffee maker", CategoryID: 4, Price: money("79.99"), Cost: money("40.00"), StockQuantity: 35, AverageRating: rating("4.00")},
	{ID: 14, Name: "Garden Hose", Description: "50ft expandable garden hose", CategoryID: 4, Price: money("24.99"), Cost: money("8.00"), StockQuantity: 60, AverageRating: rating("3.80")},
	{ID: 15, Name: "Desk Lamp", Description: "LED desk lamp with dimmer", CategoryID: 4, Price: money("39.99"), Cost: money("15.00"), StockQuantity: 55, AverageRating: rating("")},
}

type line struct {
	product  int64
	quantity int
}

type orderSpec struct {
	id       int64
	customer int64
	placed   time.Time
	status   shop.OrderStatus
	lines    []line
	notes    string
}

var orderSpecs = []orderSpec{
	{id: 1, customer: 1, placed: at(2023, 1, 15, 10, 30), status: shop.StatusDelivered, lines: []line{{1, 1}, {4, 2}}},
	{id: 2, customer: 1, placed: at(2023, 3, 10, 14, 5), status: shop.StatusDelivered, lines: []line{{5, 1}, {6, 1}}},
	{id: 3, customer: 1, placed: at(2023, 6, 5, 9, 45), status: shop.StatusShipped, lines: []line{{10, 1}}},
	{id: 4, customer: 2, placed: at(2023, 1, 20, 16, 0), status: shop.StatusDelivered, lines: []line{{3, 1}}},
	{id: 5, customer: 2, placed: at(2023, 4, 2, 11, 20), status: shop.StatusDelivered, lines: []line{{8, 3}, {9, 1}}},
	{id: 6, customer: 3, placed: at(2023, 2, 11, 13, 15), status: shop.StatusDelivered, lines: []line{{2, 1}, {4, 1}}},
	{id: 7, customer: 3, placed: at(2023, 5, 18, 18, 40), status: shop.StatusConfirmed, lines: []line{{7, 2}}},
	{id: 8, customer: 4, placed: at(2023, 2, 14, 8, 55), status: shop.StatusDelivered, lines: []line{{11, 2}, {8, 2}}},
	{id: 9, customer: 4, placed: at(2023, 7, 1, 12, 0), status: shop.StatusPending, lines: []line{{12, 1}}},
	{id: 10, customer: 5, placed: at(2023, 3, 3, 9, 10), status: shop.StatusDelivered, lines: []line{{1, 1}}},
	{id: 11, customer: 5, placed: at(2023, 3, 3, 17, 25), status: shop.StatusDelivered, lines: []line{{13, 1}}},
	{id: 12, customer: 6, placed: at(2023, 3, 22, 15, 30), status: shop.StatusDelivered, lines: []line{{5, 2}, {7, 1}}},
	{id: 13, customer: 6, placed: at(2023, 8, 9, 10, 0), status: shop.StatusCancelled, lines: []line{{14, 1}}, notes: "Cancelled: ordered by mistake"},
	{id: 14, customer: 7, placed: at(2023, 4, 15, 19, 5), status: shop.StatusDelivered, lines: []line{{3, 1}, {4, 1}}},
	{id: 15, customer: 7, placed: at(2023, 6, 20, 7, 50), status: shop.StatusShipped, lines: []line{{10, 2}, {11, 1}}},
	{id: 16, customer: 8, placed: at(2023, 5, 5, 12, 35), status: shop.StatusDelivered, lines: []line{{6, 1}, {8, 1}}},
	{id: 17, customer: 8, placed: at(2023, 7, 12, 20, 15), status: shop.StatusConfirmed, lines: []line{{9, 2}}},
	{id: 18, customer: 9, placed: at(2023, 6, 1, 10, 10), status: shop.StatusDelivered, lines: []line{{12, 1}, {11, 1}}},
	{id: 19, customer: 9, placed: at(2023, 8, 15, 16, 45), status: shop.StatusPending, lines: []line{{13, 1}, {5, 1}}},
	{id: 20, customer: 2, placed: at(2023, 8, 20, 9, 0), status: shop.StatusDelivered, lines: []line{{4, 3}}},
}

// Dataset returns a fresh copy of the sample data. Order totals are priced
// with shop.QuoteLines. Cancelled orders keep the total they were placed with
// but carry no items, the state left after the items are deleted.
func Dataset() *shop.Dataset {
	ds := &shop.Dataset{
		Customers:  make([]shop.Customer, len(customers)),
		Categories: make([]shop.Category, len(categories)),
		Products:   make([]shop.Product, len(products)),
	}
	copy(ds.Categories, categories)
	copy(ds.Products, products)
	for i, c := range customers {
		c.Preferences = clonePrefs(c.Preferences)
		ds.Customers[i] = c
	}

	prices := make(map[int64]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}

	var itemID int64
	for _, spec := range orderSpecs {
		lines := make([]shop.Line, 0, len(spec.lines))
		for _, l := range spec.lines {
			price, ok := prices[l.product]
			if !ok {
				panic(fmt.Sprintf("seed: order %d references unknown product %d", spec.id, l.product))
			}
			lines = append(lines, shop.Line{ProductID: l.product, Quantity: l.quantity, UnitPrice: price})
		}
		q := shop.QuoteLines(lines)
		o := shop.Order{
			ID:           spec.id,
			CustomerID:   spec.customer,
			OrderDate:    spec.placed,
			Status:       spec.status,
			TotalAmount:  q.Total,
			TaxAmount:    q.Tax,
			ShippingCost: q.Shipping,
			Notes:        spec.notes,
		}
		if spec.status != shop.StatusCancelled {
			for _, l := range lines {
				itemID++
				o.Items = append(o.Items, shop.NewOrderItem(itemID, o.ID, l.ProductID, l.Quantity, l.UnitPrice))
			}
		}
		ds.Orders = append(ds.Orders, o)
	}
	return ds
}

func clonePrefs(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if list, ok := v.([]any); ok {
			v = append([]any(nil), list...)
		}
		out[k] = v
	}
	return out
}
