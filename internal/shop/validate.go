package shop

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var five = decimal.NewFromInt(5)

// ValidationError lists every rule a value breaks.
type ValidationError struct {
	Entity   string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(e.Problems, "; "))
}

type problems struct {
	entity string
	list   []string
}

func (p *problems) addf(format string, args ...any) {
	p.list = append(p.list, fmt.Sprintf(format, args...))
}

func (p *problems) err() error {
	if len(p.list) == 0 {
		return nil
	}
	return &ValidationError{Entity: p.entity, Problems: p.list}
}

// ValidEmail is the loose check used by the API: an @ and a dot.
func ValidEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

// Column widths of the customers table, counted in characters.
const (
	MaxNameLen    = 100
	MaxEmailLen   = 255
	MaxPhoneLen   = 20
	MaxAddressLen = 50
)

func (p *problems) maxLen(field, v string, n int) {
	if utf8.RuneCountInString(v) > n {
		p.addf("%s longer than %d characters", field, n)
	}
}

func (c Customer) Validate() error {
	p := problems{entity: "customer"}
	if strings.TrimSpace(c.Name) == "" {
		p.addf("customer_name is required")
	} else {
		p.maxLen("customer_name", c.Name, MaxNameLen)
	}
	switch {
	case c.Email == "":
		p.addf("email is required")
	case !ValidEmail(c.Email):
		p.addf("email %q is not a valid address", c.Email)
	default:
		p.maxLen("email", c.Email, MaxEmailLen)
	}
	p.maxLen("phone", c.Phone, MaxPhoneLen)
	p.maxLen("city", c.City, MaxAddressLen)
	p.maxLen("state", c.State, MaxAddressLen)
	p.maxLen("country", c.Country, MaxAddressLen)
	return p.err()
}

func (c Category) Validate() error {
	p := problems{entity: "category"}
	if strings.TrimSpace(c.Name) == "" {
		p.addf("category_name is required")
	}
	return p.err()
}

func (pr Product) Validate() error {
	p := problems{entity: "product"}
	if strings.TrimSpace(pr.Name) == "" {
		p.addf("product_name is required")
	}
	if pr.Price.IsNegative() {
		p.addf("price %s is negative", pr.Price)
	}
	if pr.Cost.IsNegative() {
		p.addf("cost %s is negative", pr.Cost)
	}
	if pr.StockQuantity < 0 {
		p.addf("stock_quantity %d is negative", pr.StockQuantity)
	}
	if r := pr.AverageRating; r.Valid && (r.Decimal.IsNegative() || r.Decimal.GreaterThan(five)) {
		p.addf("average_rating %s outside [0,5]", r.Decimal)
	}
	return p.err()
}

func (o Order) Validate() error {
	p := problems{entity: "order"}
	if o.CustomerID <= 0 {
		p.addf("customer_id is required")
	}
	if !o.Status.Valid() {
		p.addf("status %q is not one of %v", o.Status, Statuses)
	}
	if o.TotalAmount.IsNegative() {
		p.addf("total_amount %s is negative", o.TotalAmount)
	}
	if o.TaxAmount.IsNegative() {
		p.addf("tax_amount %s is negative", o.TaxAmount)
	}
	if o.ShippingCost.IsNegative() {
		p.addf("shipping_cost %s is negative", o.ShippingCost)
	}
	return p.err()
}

func (it OrderItem) Validate() error {
	p := problems{entity: "order item"}
	if it.Quantity <= 0 {
		p.addf("quantity %d must be positive", it.Quantity)
	}
	if it.UnitPrice.IsNegative() {
		p.addf("unit_price %s is negative", it.UnitPrice)
	}
	if want := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))); !it.TotalPrice.Equal(want) {
		p.addf("total_price %s != quantity %d * unit_price %s", it.TotalPrice, it.Quantity, it.UnitPrice)
	}
	return p.err()
}

// Validate checks every row plus the uniqueness and referential rules the
// schema enforces across rows.
func (d *Dataset) Validate() error {
	var errs []error

	emails := map[string]bool{}
	customers := map[int64]bool{}
	for _, c := range d.Customers {
		if err := c.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("customer %d: %w", c.ID, err))
		}
		if customers[c.ID] {
			errs = append(errs, fmt.Errorf("duplicate customer_id %d", c.ID))
		}
		customers[c.ID] = true
		if emails[c.Email] {
			errs = append(errs, fmt.Errorf("duplicate email %q", c.Email))
		}
		emails[c.Email] = true
	}

	names := map[string]bool{}
	categories := map[int64]bool{}
	for _, c := range d.Categories {
		if err := c.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("category %d: %w", c.ID, err))
		}
		if names[c.Name] {
			errs = append(errs, fmt.Errorf("duplicate category_name %q", c.Name))
		}
		names[c.Name] = true
		categories[c.ID] = true
	}

	products := map[int64]bool{}
	for _, pr := range d.Products {
		if err := pr.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("product %d: %w", pr.ID, err))
		}
		if !categories[pr.CategoryID] {
			errs = append(errs, fmt.Errorf("product %d references missing category %d", pr.ID, pr.CategoryID))
		}
		products[pr.ID] = true
	}

	items := map[int64]bool{}
	for _, o := range d.Orders {
		if err := o.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("order %d: %w", o.ID, err))
		}
		if !customers[o.CustomerID] {
			errs = append(errs, fmt.Errorf("order %d references missing customer %d", o.ID, o.CustomerID))
		}
		for _, it := range o.Items {
			if err := it.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("order item %d: %w", it.ID, err))
			}
			if it.OrderID != o.ID {
				errs = append(errs, fmt.Errorf("order item %d belongs to order %d, filed under %d", it.ID, it.OrderID, o.ID))
			}
			if !products[it.ProductID] {
				errs = append(errs, fmt.Errorf("order item %d references missing product %d", it.ID, it.ProductID))
			}
			if items[it.ID] {
				errs = append(errs, fmt.Errorf("duplicate order_item_id %d", it.ID))
			}
			items[it.ID] = true
		}
	}

	ledger := d.Ledger()
	for _, id := range ledger.Negative() {
		lvl, _ := ledger.Level(id)
		errs = append(errs, fmt.Errorf("product %d ends with negative stock %d", id, lvl))
	}

	return errors.Join(errs...)
}
