// Package shop holds the row types of the practice schema and the pure-Go
// rules that mirror its constraints, trigger and views.
package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

var Statuses = []OrderStatus{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

func (s OrderStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order in this status may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Customer struct {
	ID               int64          `json:"customer_id"`
	Name             string         `json:"customer_name"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone,omitempty"`
	City             string         `json:"city,omitempty"`
	State            string         `json:"state,omitempty"`
	Country          string         `json:"country"`
	RegistrationDate time.Time      `json:"registration_date"`
	Preferences      map[string]any `json:"preferences"`
}

type Category struct {
	ID          int64  `json:"category_id"`
	Name        string `json:"category_name"`
	Description string `json:"description,omitempty"`
}

type Product struct {
	ID            int64               `json:"product_id"`
	Name          string              `json:"product_name"`
	Description   string              `json:"description,omitempty"`
	CategoryID    int64               `json:"category_id"`
	Price         decimal.Decimal     `json:"price"`
	Cost          decimal.Decimal     `json:"cost"`
	StockQuantity int                 `json:"stock_quantity"`
	AverageRating decimal.NullDecimal `json:"average_rating"`
}

type Order struct {
	ID           int64           `json:"order_id"`
	CustomerID   int64           `json:"customer_id"`
	OrderDate    time.Time       `json:"order_date"`
	Status       OrderStatus     `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Notes        string          `json:"notes,omitempty"`
	Items        []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID         int64           `json:"order_item_id"`
	OrderID    int64           `json:"order_id"`
	ProductID  int64           `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// NewOrderItem prices a line so that total_price = quantity * unit_price holds.
func NewOrderItem(id, orderID, productID int64, quantity int, unitPrice decimal.Decimal) OrderItem {
	return OrderItem{
		ID:         id,
		OrderID:    orderID,
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
}
