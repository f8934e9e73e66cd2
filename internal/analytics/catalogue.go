// Package analytics holds the catalogue of practice queries, a generic runner
// that turns their rows into JSON-friendly values, and pure-Go references for
// the algorithms the queries express in SQL.
package analytics

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"interview-practice/internal/database"
)

//go:embed queries/*.sql
var queryFiles embed.FS

// Query is one parameterless, read-only analytic query over the practice schema.
type Query struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Technique string `json:"technique"`
	SQL       string `json:"sql"`
}

var entries = []Query{
	{Name: "high_value_customers", Title: "Customers who spent more than $500", Technique: "aggregation + HAVING"},
	{Name: "customers_sharing_city", Title: "Pairs of customers in the same city", Technique: "self-join"},
	{Name: "product_price_tiers", Title: "Products bucketed into price tiers", Technique: "CASE bucketing"},
	{Name: "running_daily_revenue", Title: "Daily revenue with running total", Technique: "window running total"},
	{Name: "top_products_per_category", Title: "Top 2 products per category by units sold", Technique: "ROW_NUMBER PARTITION BY"},
	{Name: "daily_revenue_anomalies", Title: "Days with anomalous revenue", Technique: "z-score outliers"},
	{Name: "abc_classification", Title: "ABC classification of products by revenue", Technique: "Pareto running share"},
	{Name: "monthly_revenue_growth", Title: "Month over month revenue growth", Technique: "LAG growth rate"},
	{Name: "products_never_ordered", Title: "Products that were never ordered", Technique: "LEFT JOIN anti-join"},
	{Name: "category_revenue_share", Title: "Revenue share per category", Technique: "windowed share of total"},
	{Name: "customer_lifetime_value", Title: "Predicted customer lifetime value", Technique: "CTE chain"},
	{Name: "frequently_bought_together", Title: "Products frequently bought together", Technique: "order_items self-join"},
	{Name: "reorder_recommendations", Title: "Days until stockout at recent sales velocity", Technique: "anchored window + derived rate"},
	{Name: "slow_moving_products", Title: "Stocked products with no recent sale", Technique: "LEFT JOIN + HAVING on MAX"},
	{Name: "customer_retention_rate", Title: "Customers retained from six months back", Technique: "set intersection with CTEs"},
	{Name: "customer_segments", Title: "Customer segments", Technique: "UNION ALL of CTE segments"},
}

var catalogue = mustLoad(entries)

func mustLoad(qs []Query) []Query {
	out := make([]Query, len(qs))
	for i, q := range qs {
		raw, err := queryFiles.ReadFile("queries/" + q.Name + ".sql")
		if err != nil {
			panic(fmt.Sprintf("analytics: missing query file for %s: %v", q.Name, err))
		}
		q.SQL = strings.TrimSpace(string(raw))
		out[i] = q
	}
	return out
}

// Catalogue returns every query in presentation order.
func Catalogue() []Query {
	out := make([]Query, len(catalogue))
	copy(out, catalogue)
	return out
}

func Lookup(name string) (Query, bool) {
	for _, q := range catalogue {
		if q.Name == name {
			return q, true
		}
	}
	return Query{}, false
}

// Result holds the rows of one query execution. NUMERIC values are
// decimal.Decimal, JSONB values are decoded maps, and NULL is nil.
type Result struct {
	Query   string   `json:"query"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func Run(ctx context.Context, db database.DatabaseDriver, q Query) (*Result, error) {
	rows, err := db.QueryContext(ctx, q.SQL)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Name, err)
	}
	defer rows.Close()

	res := &Result{Query: q.Name, Rows: [][]any{}}
	for _, fd := range rows.FieldDescriptions() {
		res.Columns = append(res.Columns, fd.Name)
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("query %s: read row: %w", q.Name, err)
		}
		row := make([]any, len(vals))
		for i, v := range vals {
			if row[i], err = normalize(v); err != nil {
				return nil, fmt.Errorf("query %s: column %s: %w", q.Name, res.Columns[i], err)
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Name, err)
	}
	return res, nil
}

func normalize(v any) (any, error) {
	switch v := v.(type) {
	case pgtype.Numeric:
		if !v.Valid {
			return nil, nil
		}
		text, err := v.Value()
		if err != nil {
			return nil, err
		}
		s, ok := text.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected numeric encoding %T", text)
		}
		return decimal.NewFromString(s)
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case time.Time:
		return v.UTC(), nil
	default:
		return v, nil
	}
}

// Column returns the values of the named column, or nil if there is no such column.
func (r *Result) Column(name string) []any {
	idx := -1
	for i, c := range r.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]any, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row[idx]
	}
	return out
}

// Records returns each row keyed by column name.
func (r *Result) Records() []map[string]any {
	out := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		rec := make(map[string]any, len(r.Columns))
		for j, c := range r.Columns {
			rec[c] = row[j]
		}
		out[i] = rec
	}
	return out
}

// Fingerprint is a digest of the column names and row values in order. Two
// executions over the same data produce the same fingerprint.
func (r *Result) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(strings.Join(r.Columns, "\x1f")))
	for _, row := range r.Rows {
		h.Write([]byte{0x1e})
		for i, v := range row {
			if i > 0 {
				h.Write([]byte{0x1f})
			}
			h.Write([]byte(render(v)))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func render(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case string:
		return v
	case map[string]any, []any:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(raw)
	default:
		return fmt.Sprint(v)
	}
}
