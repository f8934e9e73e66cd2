package shop

import "github.com/shopspring/decimal"

var (
	TaxRate               = decimal.RequireFromString("0.08")
	FreeShippingThreshold = decimal.NewFromInt(100)
	FlatShipping          = decimal.NewFromInt(10)
)

type Line struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax_amount"`
	Shipping decimal.Decimal `json:"shipping_cost"`
	Total    decimal.Decimal `json:"total_amount"`
}

// QuoteLines prices an order: 8% tax rounded to cents, and flat shipping
// unless the subtotal reaches the free-shipping threshold.
func QuoteLines(lines []Line) Quote {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	tax := subtotal.Mul(TaxRate).Round(2)
	shipping := decimal.Zero
	if subtotal.LessThan(FreeShippingThreshold) {
		shipping = FlatShipping
	}
	return Quote{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}
