package verify

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-practice/internal/analytics"
	"interview-practice/internal/seed"
)

func TestDiffCounts(t *testing.T) {
	want := seed.Dataset().Counts()
	assert.Empty(t, diffCounts(want, want))

	got := map[string]int{}
	for k, v := range want {
		got[k] = v
	}
	got["order_items"] = 29
	assert.Equal(t, []string{"order_items: expected 30 rows, found 29"}, diffCounts(want, got))
}

func TestDiffStock(t *testing.T) {
	want := map[int64]int{1: 5, 2: 3, 3: 0}
	assert.Empty(t, diffStock(want, map[int64]int{1: 5, 2: 3, 3: 0}))

	problems := diffStock(want, map[int64]int{1: 4, 3: -1})
	assert.Equal(t, []string{
		"product 1: expected stock 5, found 4",
		"product 2 missing",
		"product 3 has negative stock -1",
	}, problems)
}

func TestDiffSummaries(t *testing.T) {
	ds := seed.Dataset()
	cs := ds.CustomerSummaries()
	assert.Empty(t, diffCustomerSummaries(cs, ds.CustomerSummaries()))

	tampered := ds.CustomerSummaries()
	tampered[0].TotalSpent = tampered[0].TotalSpent.Add(decimal.NewFromInt(1))
	later := tampered[1].LastOrderDate.Add(time.Hour)
	tampered[1].LastOrderDate = &later
	assert.Len(t, diffCustomerSummaries(cs, tampered), 2)
	assert.Len(t, diffCustomerSummaries(cs, tampered[:3]), 1)

	// Postgres averages carry more digits than the in-memory division.
	precise := ds.CustomerSummaries()
	precise[0].AvgOrderValue = precise[0].AvgOrderValue.Add(decimal.RequireFromString("0.000000001"))
	assert.Empty(t, diffCustomerSummaries(cs, precise))

	ps := ds.ProductSummaries()
	assert.Empty(t, diffProductSummaries(ps, ds.ProductSummaries()))
	other := ds.ProductSummaries()
	other[1].TotalSold++
	assert.Equal(t, []string{"product 2: expected total_sold 1, found 2"}, diffProductSummaries(ps, other))
}

func TestTopProducts(t *testing.T) {
	want := ExpectedTopProducts(seed.Dataset())
	assert.Equal(t, []int64{4, 1}, want["Electronics"])
	assert.Equal(t, []int64{13}, want["Home & Garden"])

	res := &analytics.Result{
		Columns: []string{"category_name", "product_id", "product_name", "total_quantity", "total_revenue", "rank"},
		Rows: [][]any{
			{"Electronics", int64(4), "USB-C Hub", int64(7), nil, int64(1)},
			{"Electronics", int64(1), "Laptop Pro 15", int64(2), nil, int64(2)},
			{"Home & Garden", int64(13), "Coffee Maker", int64(2), nil, int64(1)},
		},
	}
	got, problems := groupTopProducts(res)
	assert.Empty(t, problems)
	assert.Equal(t, []int64{4, 1}, got["Electronics"])

	diff := diffTopProducts(want, got)
	assert.NotEmpty(t, diff, "categories missing from the result are reported")
	assert.NotContains(t, diff, "Electronics: expected products [4 1], found [4 1]")

	res.Rows = append(res.Rows,
		[]any{"Electronics", int64(3), "Smartphone X", int64(9), nil, int64(3)})
	_, problems = groupTopProducts(res)
	assert.Equal(t, []string{
		"Electronics: 3 rows, at most 2 allowed",
		"Electronics: quantities not in descending order",
	}, problems)
}

func TestPassed(t *testing.T) {
	assert.True(t, Passed(nil))
	assert.True(t, Passed([]Check{{Name: "a", Passed: true}}))
	assert.False(t, Passed([]Check{{Name: "a", Passed: true}, {Name: "b"}}))
}

func TestQualityReportClean(t *testing.T) {
	r := &QualityReport{}
	assert.True(t, r.Clean())
	require.Len(t, r.probes(), 14)
	r.Outliers = append(r.Outliers, "1 products sold below cost")
	assert.False(t, r.Clean())
}

func TestSameTime(t *testing.T) {
	a := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.In(time.FixedZone("x", 3600))
	assert.True(t, sameTime(&a, &b))
	assert.True(t, sameTime(nil, nil))
	assert.False(t, sameTime(&a, nil))
}
