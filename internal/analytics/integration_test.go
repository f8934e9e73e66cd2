package analytics_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-practice/internal/analytics"
	"interview-practice/internal/testdb"
)

func TestEveryQueryRunsOnSeed(t *testing.T) {
	db, _ := testdb.Seeded(t)
	ctx := context.Background()

	for _, q := range analytics.Catalogue() {
		t.Run(q.Name, func(t *testing.T) {
			first, err := analytics.Run(ctx, db, q)
			require.NoError(t, err)
			assert.NotEmpty(t, first.Columns)

			second, err := analytics.Run(ctx, db, q)
			require.NoError(t, err)
			assert.Equal(t, first.Fingerprint(), second.Fingerprint())
		})
	}
}

func TestQueryResultsOnSeed(t *testing.T) {
	db, _ := testdb.Seeded(t)
	ctx := context.Background()

	run := func(name string) *analytics.Result {
		q, ok := analytics.Lookup(name)
		require.True(t, ok, name)
		res, err := analytics.Run(ctx, db, q)
		require.NoError(t, err)
		return res
	}

	never := run("products_never_ordered")
	assert.Equal(t, []any{"Garden Hose", "Desk Lamp"}, never.Column("product_name"))

	perCategory := map[any]int{}
	for _, cat := range run("top_products_per_category").Column("category_name") {
		perCategory[cat]++
	}
	for cat, n := range perCategory {
		assert.LessOrEqual(t, n, 2, cat)
	}

	assert.Contains(t, run("high_value_customers").Column("customer_name"), "John Smith")

	for _, class := range run("abc_classification").Column("abc_class") {
		assert.Contains(t, []any{"A", "B", "C"}, class)
	}
}

// Windows in these queries end at the latest seeded order, 2023-08-20 09:00.
func TestInventoryAndCustomerQueriesOnSeed(t *testing.T) {
	db, _ := testdb.Seeded(t)
	ctx := context.Background()

	run := func(name string) *analytics.Result {
		q, ok := analytics.Lookup(name)
		require.True(t, ok, name)
		res, err := analytics.Run(ctx, db, q)
		require.NoError(t, err)
		return res
	}
	decimals := func(vals []any) []string {
		out := make([]string, len(vals))
		for i, v := range vals {
			out[i] = v.(decimal.Decimal).StringFixed(2)
		}
		return out
	}

	reorder := run("reorder_recommendations")
	assert.Equal(t, []any{"USB-C Hub", "Coffee Maker", "SQL Fundamentals"}, reorder.Column("product_name"))
	assert.Equal(t, []string{"930.00", "990.00", "2280.00"}, decimals(reorder.Column("days_until_stockout")))
	assert.Equal(t, []any{int64(3), int64(1), int64(1)}, reorder.Column("units_sold"))
	assert.Equal(t, []any{false, false, false}, reorder.Column("needs_reorder"))

	slow := run("slow_moving_products")
	assert.Equal(t, []any{
		"Laptop Pro 15", "Smartphone X", "Wireless Headphones", "Cotton T-Shirt",
		"Go in Practice", "Desk Lamp", "Data Structures Handbook", "Garden Hose",
	}, slow.Column("product_name"))
	assert.Equal(t, []string{"29899.77", "25199.72", "9799.51", "3878.06", "2609.42", "2199.45", "2009.33", "1499.40"},
		decimals(slow.Column("inventory_value")))
	assert.Equal(t, int64(170), slow.Column("days_since_sale")[0])
	assert.Nil(t, slow.Column("last_sale_date")[7])

	retention := run("customer_retention_rate")
	require.Len(t, retention.Rows, 1)
	assert.Equal(t, []any{int64(3)}, retention.Column("past_customers"))
	assert.Equal(t, []any{int64(1)}, retention.Column("retained_customers"))
	assert.Equal(t, []string{"33.33"}, decimals(retention.Column("retention_rate")))

	segments := map[string][]any{}
	res := run("customer_segments")
	names := res.Column("customer_name")
	for i, seg := range res.Column("segment") {
		segments[seg.(string)] = append(segments[seg.(string)], names[i])
	}
	assert.Equal(t, []any{"John Smith", "Jane Doe", "Charlie Wilson", "Edward Norton", "Fiona Green", "George Lee"}, segments["frequent"])
	assert.Equal(t, []any{"John Smith", "Jane Doe", "Charlie Wilson", "Edward Norton"}, segments["big_spender"])
	assert.Equal(t, []any{"Bob Johnson", "Charlie Wilson"}, segments["at_risk"])
	assert.Empty(t, segments["new"])
}

func TestViewReadersMatchDataset(t *testing.T) {
	db, ds := testdb.Seeded(t)
	ctx := context.Background()

	customers, err := analytics.CustomerOrderSummaries(ctx, db)
	require.NoError(t, err)
	want := ds.CustomerSummaries()
	require.Len(t, customers, len(want))
	for i := range want {
		assert.Equal(t, want[i].CustomerID, customers[i].CustomerID)
		assert.Equal(t, want[i].TotalOrders, customers[i].TotalOrders)
		assert.True(t, want[i].TotalSpent.Equal(customers[i].TotalSpent), "customer %d", want[i].CustomerID)
		assert.True(t, want[i].AvgOrderValue.Round(2).Equal(customers[i].AvgOrderValue.Round(2)))
	}
	assert.Nil(t, customers[9].FirstOrderDate)

	products, err := analytics.ProductSalesSummaries(ctx, db)
	require.NoError(t, err)
	require.Len(t, products, len(ds.Products))
	for i, p := range ds.ProductSummaries() {
		assert.Equal(t, p.TotalSold, products[i].TotalSold, p.ProductName)
		assert.Equal(t, p.OrderCount, products[i].OrderCount, p.ProductName)
		assert.True(t, p.TotalRevenue.Equal(products[i].TotalRevenue), p.ProductName)
	}
}
