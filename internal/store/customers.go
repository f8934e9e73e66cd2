package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"interview-practice/internal/database"
	"interview-practice/internal/shop"
)

type NewCustomer struct {
	Name        string         `json:"customer_name"`
	Email       string         `json:"email"`
	Phone       string         `json:"phone"`
	City        string         `json:"city"`
	State       string         `json:"state"`
	Country     string         `json:"country"`
	Preferences map[string]any `json:"preferences"`
}

type OrderSummary struct {
	TotalOrders   int64           `json:"total_orders"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	LastOrderDate *time.Time      `json:"last_order_date"`
}

type Profile struct {
	shop.Customer
	OrderSummary OrderSummary `json:"order_summary"`
}

var createCustomerQuery = `INSERT INTO customers (customer_name, email, phone, city, state, country, preferences)
	VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7)
	RETURNING customer_id`

// CreateCustomer inserts a customer and returns its id. A duplicate email is
// reported as ErrEmailTaken by way of the unique constraint.
func (s *Store) CreateCustomer(ctx context.Context, in NewCustomer) (int64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Country == "" {
		in.Country = "USA"
	}
	if in.Preferences == nil {
		in.Preferences = map[string]any{}
	}
	c := shop.Customer{Name: in.Name, Email: in.Email, Phone: in.Phone, City: in.City, State: in.State, Country: in.Country}
	if err := c.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	var id int64
	err := s.db.QueryRowContext(ctx, createCustomerQuery,
		in.Name, in.Email, in.Phone, in.City, in.State, in.Country, in.Preferences).Scan(&id)
	if err != nil {
		err = database.Classify(err)
		if errors.Is(err, database.ErrUniqueViolation) {
			return 0, fmt.Errorf("%s: %w", in.Email, ErrEmailTaken)
		}
		if errors.Is(err, database.ErrValueTooLong) {
			return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return 0, fmt.Errorf("create customer: %w", err)
	}
	return id, nil
}

var customerProfileQuery = `SELECT
		c.customer_id, c.customer_name, c.email,
		COALESCE(c.phone, ''), COALESCE(c.city, ''), COALESCE(c.state, ''), c.country,
		c.registration_date, c.preferences,
		COALESCE(cos.total_orders, 0), COALESCE(cos.total_spent, 0), cos.last_order_date
	FROM customers c
	LEFT JOIN customer_order_summary cos ON cos.customer_id = c.customer_id
	WHERE c.customer_id = $1`

func (s *Store) CustomerProfile(ctx context.Context, id int64) (*Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx, customerProfileQuery, id).Scan(
		&p.ID, &p.Name, &p.Email, &p.Phone, &p.City, &p.State, &p.Country,
		&p.RegistrationDate, &p.Preferences,
		&p.OrderSummary.TotalOrders, &p.OrderSummary.TotalSpent, &p.OrderSummary.LastOrderDate)
	if errors.Is(err, database.ErrNoRows) {
		return nil, notFound("customer %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("customer profile %d: %w", id, err)
	}
	return &p, nil
}

var updatePreferencesQuery = `UPDATE customers
	SET preferences = $1, last_updated = CURRENT_TIMESTAMP
	WHERE customer_id = $2`

func (s *Store) UpdatePreferences(ctx context.Context, id int64, prefs map[string]any) error {
	if prefs == nil {
		prefs = map[string]any{}
	}
	tag, err := s.db.ExecContext(ctx, updatePreferencesQuery, prefs, id)
	if err != nil {
		return fmt.Errorf("update preferences %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("customer %d", id)
	}
	return nil
}
