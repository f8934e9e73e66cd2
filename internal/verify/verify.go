// Package verify checks a seeded database against the dataset it was loaded
// from, and reports data-quality findings over whatever the tables hold.
package verify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"interview-practice/internal/analytics"
	"interview-practice/internal/database"
	"interview-practice/internal/schema"
	"interview-practice/internal/shop"
)

type Check struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Problems []string      `json:"problems,omitempty"`
	Duration time.Duration `json:"duration"`
}

type checkFunc func(ctx context.Context, db database.DatabaseDriver, ds *shop.Dataset) ([]string, error)

var checks = []struct {
	name string
	fn   checkFunc
}{
	{"table_counts", checkTableCounts},
	{"order_item_totals", checkItemTotals},
	{"stock_levels", checkStockLevels},
	{"customer_order_summary", checkCustomerSummary},
	{"product_sales_summary", checkProductSummary},
	{"top_products_per_category", checkTopProducts},
	{"query_idempotence", checkIdempotence},
}

// Run executes every check concurrently. A check that finds problems fails;
// an error talking to the database aborts the whole run.
func Run(ctx context.Context, db database.DatabaseDriver, ds *shop.Dataset, logger *zap.Logger) ([]Check, error) {
	results := make([]Check, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		g.Go(func() error {
			start := time.Now()
			problems, err := c.fn(gctx, db, ds)
			if err != nil {
				return fmt.Errorf("check %s: %w", c.name, err)
			}
			results[i] = Check{Name: c.name, Passed: len(problems) == 0, Problems: problems, Duration: time.Since(start)}
			logger.Debug("check finished", zap.String("check", c.name), zap.Bool("passed", results[i].Passed),
				zap.Duration("duration", results[i].Duration))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Passed reports whether every check passed.
func Passed(cs []Check) bool {
	for _, c := range cs {
		if !c.Passed {
			return false
		}
	}
	return true
}

func checkTableCounts(ctx context.Context, db database.DatabaseDriver, ds *shop.Dataset) ([]string, error) {
	got := make(map[string]int, len(schema.Tables))
	for _, table := range schema.Tables {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, err
		}
		got[table] = n
	}
	return diffCounts(ds.Counts(), got), nil
}

func diffCounts(want, got map[string]int) []string {
	var problems []string
	for _, table := range schema.Tables {
		if want[table] != got[table] {
			problems = append(problems, fmt.Sprintf("%s: expected %d rows, found %d", table, want[table], got[table]))
		}
	}
	return problems
}

func checkItemTotals(ctx context.Context, db database.DatabaseDriver, _ *shop.Dataset) ([]string, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM order_items WHERE total_price <> quantity * unit_price").Scan(&n)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return []string{fmt.Sprintf("%d order items with total_price <> quantity * unit_price", n)}, nil
	}
	return nil, nil
}

func checkStockLevels(ctx context.Context, db database.DatabaseDriver, ds *shop.Dataset) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT product_id, stock_quantity FROM products ORDER BY product_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	got := map[int64]int{}
	for rows.Next() {
		var id int64
		var stock int
		if err := rows.Scan(&id, &stock); err != nil {
			return nil, err
		}
		got[id] = stock
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return diffStock(ds.Ledger().Levels(), got), nil
}

func diffStock(want, got map[int64]int) []string {
	ids := make([]int64, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var problems []string
	for _, id := range ids {
		stock, ok := got[id]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("product %d missing", id))
		case stock < 0:
			problems = append(problems, fmt.Sprintf("product %d has negative stock %d", id, stock))
		case stock != want[id]:
			problems = append(problems, fmt.Sprintf("product %d: expected stock %d, found %d", id, want[id], stock))
		}
	}
	return problems
}

func checkCustomerSummary(ctx context.Context, db database.DatabaseDriver, ds *shop.Dataset) ([]string, error) {
	got, err := analytics.CustomerOrderSummaries(ctx, db)
	if err != nil {
		return nil, err
	}
	return diffCustomerSummaries(ds.CustomerSummaries(), got), nil
}

func diffCustomerSummaries(want, got []shop.CustomerSummary) []string {
	if len(want) != len(got) {
		return []string{fmt.Sprintf("expected %d rows, found %d", len(want), len(got))}
	}
	var problems []string
	for i := range want {
		w, g := want[i], got[i]
		switch {
		case w.CustomerID != g.CustomerID:
			problems = append(problems, fmt.Sprintf("row %d: expected customer %d, found %d", i, w.CustomerID, g.CustomerID))
		case w.TotalOrders != g.TotalOrders:
			problems = append(problems, fmt.Sprintf("customer %d: expected %d orders, found %d", w.CustomerID, w.TotalOrders, g.TotalOrders))
		case !w.TotalSpent.Equal(g.TotalSpent):
			problems = append(problems, fmt.Sprintf("customer %d: expected total_spent %s, found %s", w.CustomerID, w.TotalSpent, g.TotalSpent))
		case !w.AvgOrderValue.Round(2).Equal(g.AvgOrderValue.Round(2)):
			problems = append(problems, fmt.Sprintf("customer %d: expected avg_order_value %s, found %s",
				w.CustomerID, w.AvgOrderValue.StringFixed(2), g.AvgOrderValue.StringFixed(2)))
		case !sameTime(w.FirstOrderDate, g.FirstOrderDate) || !sameTime(w.LastOrderDate, g.LastOrderDate):
			problems = append(problems, fmt.Sprintf("customer %d: order date range differs", w.CustomerID))
		}
	}
	return problems
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func checkProductSummary(ctx context.Context, db database.DatabaseDriver, ds *shop.Dataset) ([]string, error) {
	got, err := analytics.ProductSalesSummaries(ctx, db)
	if err != nil {
		return nil, err
	}
	return diffProductSummaries(ds.ProductSummaries(), got), nil
}

func diffProductSummaries(want, got []shop.ProductSummary) []string {
	if len(want) != len(got) {
		return []string{fmt.Sprintf("expected %d rows, found %d", len(want), len(got))}
	}
	var problems []string
	for i := range want {
		w, g := want[i], got[i]
		switch {
		case w.ProductID != g.ProductID:
			problems = append(problems, fmt.Sprintf("row %d: expected product %d, found %d", i, w.ProductID, g.ProductID))
		case w.TotalSold != g.TotalSold:
			problems = append(problems, fmt.Sprintf("product %d: expected total_sold %d, found %d", w.ProductID, w.TotalSold, g.TotalSold))
		case !w.TotalRevenue.Equal(g.TotalRevenue):
			problems = append(problems, fmt.Sprintf("product %d: expected total_revenue %s, found %s", w.ProductID, w.TotalRevenue, g.TotalRevenue))
		case w.OrderCount != g.OrderCount:
			problems = append(problems, fmt.Sprintf("product %d: expected order_count %d, found %d", w.ProductID, w.OrderCount, g.OrderCount))
		}
	}
	return problems
}

// ExpectedTopProducts is the top_products_per_category answer for ds: product
// ids per category, best seller first, ties broken by the lower id.
func ExpectedTopProducts(ds *shop.Dataset) map[string][]int64 {
	var sold []shop.ProductSummary
	for _, s := range ds.ProductSummaries() {
		if s.TotalSold > 0 {
			sold = append(sold, s)
		}
	}
	top := analytics.TopNPerGroup(sold, 2,
		func(s shop.ProductSummary) string { return s.CategoryName },
		func(a, b shop.ProductSummary) bool {
			if a.TotalSold != b.TotalSold {
				return a.TotalSold > b.TotalSold
			}
			return a.ProductID < b.ProductID
		})
	out := make(map[string][]int64, len(top))
	for cat, rows := range top {
		for _, r := range rows {
			out[cat] = append(out[cat], r.ProductID)
		}
	}
	return out
}

func checkTopProducts(ctx context.Context, db database.DatabaseDriver, ds *shop.Dataset) ([]string, error) {
	q, ok := analytics.Lookup("top_products_per_category")
	if !ok {
		return nil, fmt.Errorf("query top_products_per_category not in catalogue")
	}
	res, err := analytics.Run(ctx, db, q)
	if err != nil {
		return nil, err
	}
	got, problems := groupTopProducts(res)
	return append(problems, diffTopProducts(ExpectedTopProducts(ds), got)...), nil
}

// groupTopProducts collects product ids per category from a
// top_products_per_category result and reports ordering violations.
func groupTopProducts(res *analytics.Result) (map[string][]int64, []string) {
	cats := res.Column("category_name")
	ids := res.Column("product_id")
	qty := res.Column("total_quantity")

	got := map[string][]int64{}
	last := map[string]int64{}
	var problems []string
	for i := range cats {
		cat, _ := cats[i].(string)
		id, _ := ids[i].(int64)
		q, _ := qty[i].(int64)
		if prev, ok := last[cat]; ok && q > prev {
			problems = append(problems, fmt.Sprintf("%s: quantities not in descending order", cat))
		}
		last[cat] = q
		got[cat] = append(got[cat], id)
	}
	for cat, list := range got {
		if len(list) > 2 {
			problems = append(problems, fmt.Sprintf("%s: %d rows, at most 2 allowed", cat, len(list)))
		}
	}
	sort.Strings(problems)
	return got, problems
}

func diffTopProducts(want, got map[string][]int64) []string {
	cats := make([]string, 0, len(want))
	for cat := range want {
		cats = append(cats, cat)
	}
	for cat := range got {
		if _, ok := want[cat]; !ok {
			cats = append(cats, cat)
		}
	}
	sort.Strings(cats)

	var problems []string
	for _, cat := range cats {
		if fmt.Sprint(want[cat]) != fmt.Sprint(got[cat]) {
			problems = append(problems, fmt.Sprintf("%s: expected products %v, found %v", cat, want[cat], got[cat]))
		}
	}
	return problems
}

func checkIdempotence(ctx context.Context, db database.DatabaseDriver, _ *shop.Dataset) ([]string, error) {
	var problems []string
	for _, q := range analytics.Catalogue() {
		first, err := analytics.Run(ctx, db, q)
		if err != nil {
			return nil, err
		}
		second, err := analytics.Run(ctx, db, q)
		if err != nil {
			return nil, err
		}
		if first.Fingerprint() != second.Fingerprint() {
			problems = append(problems, fmt.Sprintf("%s: results differ between runs", q.Name))
		}
	}
	return problems, nil
}
