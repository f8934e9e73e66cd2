package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"interview-practice/internal/database"
)

// Sort orders accepted by SearchProducts. Every order ends on product_id so
// pages never overlap.
var sortOrders = map[string]string{
	"relevance":  "relevance_score DESC, p.product_name, p.product_id",
	"price_asc":  "p.price ASC, p.product_id",
	"price_desc": "p.price DESC, p.product_id",
	"rating":     "p.average_rating DESC NULLS LAST, p.product_id",
	"popularity": "COALESCE(pss.total_sold, 0) DESC, p.product_id",
}

type SearchParams struct {
	Query    string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	SortBy   string
	Page     int
	PageSize int
}

type ProductHit struct {
	ProductID      int64               `json:"product_id"`
	ProductName    string              `json:"product_name"`
	Description    string              `json:"description"`
	Price          decimal.Decimal     `json:"price"`
	StockQuantity  int                 `json:"stock_quantity"`
	AverageRating  decimal.NullDecimal `json:"average_rating"`
	Category       string              `json:"category"`
	RelevanceScore int                 `json:"relevance_score"`
}

type SearchResult struct {
	Products    []ProductHit `json:"products"`
	TotalCount  int          `json:"total_count"`
	Pagination  Pagination   `json:"pagination"`
	SearchQuery string       `json:"search_query"`
	SortBy      string       `json:"sort_by"`
}

// likePattern builds a case-insensitive substring pattern with the LIKE
// wildcards in s escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// searchFilter renders the WHERE clause shared by the count and page queries.
// $1 is always the name/description pattern.
func (p SearchParams) searchFilter() (string, []any) {
	args := []any{likePattern(p.Query)}
	conds := []string{"(p.product_name ILIKE $1 OR p.description ILIKE $1)"}
	if p.Category != "" {
		args = append(args, p.Category)
		conds = append(conds, fmt.Sprintf("c.category_name = $%d", len(args)))
	}
	if p.MinPrice != nil {
		args = append(args, *p.MinPrice)
		conds = append(conds, fmt.Sprintf("p.price >= $%d", len(args)))
	}
	if p.MaxPrice != nil {
		args = append(args, *p.MaxPrice)
		conds = append(conds, fmt.Sprintf("p.price <= $%d", len(args)))
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (p *SearchParams) validate() error {
	var problems []string
	p.Query = strings.TrimSpace(p.Query)
	if p.Query == "" {
		problems = append(problems, "search query is required")
	}
	if p.SortBy == "" {
		p.SortBy = "relevance"
	}
	if _, ok := sortOrders[p.SortBy]; !ok {
		problems = append(problems, fmt.Sprintf("unknown sort %q", p.SortBy))
	}
	if p.MinPrice != nil && p.MinPrice.IsNegative() {
		problems = append(problems, "min_price cannot be negative")
	}
	if p.MinPrice != nil && p.MaxPrice != nil && p.MaxPrice.LessThan(*p.MinPrice) {
		problems = append(problems, "max_price is below min_price")
	}
	p.Page, p.PageSize = normalizePage(p.Page, p.PageSize)
	if !offsetInRange(p.Page, p.PageSize) {
		problems = append(problems, fmt.Sprintf("page %d is out of range", p.Page))
	}
	if len(problems) > 0 {
		return invalid("search", problems...)
	}
	return nil
}

const searchFrom = `FROM products p
	LEFT JOIN categories c ON c.category_id = p.category_id
	LEFT JOIN product_sales_summary pss ON pss.product_id = p.product_id
	`

// SearchProducts matches the query against product names and descriptions.
// A name match scores 3, a description match 2.
func (s *Store) SearchProducts(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	where, args := params.searchFilter()

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) "+searchFrom+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	args = append(args, params.PageSize, offset)
	query := `SELECT p.product_id, p.product_name, COALESCE(p.description, ''), p.price,
			p.stock_quantity, p.average_rating, COALESCE(c.category_name, ''),
			CASE
				WHEN p.product_name ILIKE $1 THEN 3
				WHEN p.description ILIKE $1 THEN 2
				ELSE 1
			END AS relevance_score
		` + searchFrom + where +
		" ORDER BY " + sortOrders[params.SortBy] +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ProductHit, error) {
		var h ProductHit
		err := row.Scan(&h.ProductID, &h.ProductName, &h.Description, &h.Price,
			&h.StockQuantity, &h.AverageRating, &h.Category, &h.RelevanceScore)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	return &SearchResult{
		Products:    hits,
		TotalCount:  total,
		Pagination:  Paginate(total, params.Page, params.PageSize),
		SearchQuery: params.Query,
		SortBy:      params.SortBy,
	}, nil
}

type Recommendation struct {
	ProductID     int64               `json:"product_id"`
	ProductName   string              `json:"product_name"`
	Price         decimal.Decimal     `json:"price"`
	AverageRating decimal.NullDecimal `json:"average_rating"`
	Reason        string              `json:"recommendation_reason"`
}

const DefaultRecommendations = 5

// Each candidate keeps only its strongest reason: same category, then a
// price within 30% in another category, then bought in the same order.
var recommendationsQuery = `WITH target AS (
		SELECT category_id, price FROM products WHERE product_id = $1
	),
	candidates AS (
		SELECT p.product_id, 1 AS recommendation_type, 'Same category' AS reason
		FROM products p, target t
		WHERE p.category_id = t.category_id AND p.product_id <> $1
		UNION ALL
		SELECT p.product_id, 2, 'Similar price'
		FROM products p, target t
		WHERE ABS(p.price - t.price) <= t.price * 0.3
		  AND p.product_id <> $1
		  AND p.category_id IS DISTINCT FROM t.category_id
		UNION ALL
		SELECT DISTINCT oi2.product_id, 3, 'Frequently bought together'
		FROM order_items oi1
		JOIN order_items oi2 ON oi2.order_id = oi1.order_id
		WHERE oi1.product_id = $1 AND oi2.product_id <> $1
	),
	best AS (
		SELECT DISTINCT ON (product_id) product_id, recommendation_type, reason
		FROM candidates
		ORDER BY product_id, recommendation_type
	)
	SELECT p.product_id, p.product_name, p.price, p.average_rating, b.reason
	FROM best b
	JOIN products p ON p.product_id = b.product_id
	ORDER BY b.recommendation_type, p.average_rating DESC NULLS LAST, p.product_id
	LIMIT $2`

var productExistsQuery = "SELECT EXISTS (SELECT 1 FROM products WHERE product_id = $1)"

func (s *Store) Recommendations(ctx context.Context, productID int64, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = DefaultRecommendations
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx, productExistsQuery, productID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("recommendations for %d: %w", productID, err)
	}
	if !exists {
		return nil, notFound("product %d", productID)
	}

	rows, err := s.db.QueryContext(ctx, recommendationsQuery, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("recommendations for %d: %w", productID, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Recommendation, error) {
		var r Recommendation
		err := row.Scan(&r.ProductID, &r.ProductName, &r.Price, &r.AverageRating, &r.Reason)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("recommendations for %d: %w", productID, err)
	}
	return out, nil
}

type InventoryUpdate struct {
	ProductID int64 `json:"product_id"`
	Quantity  *int  `json:"quantity"`
}

type InventoryItemResult struct {
	ProductID   int64  `json:"product_id"`
	Success     bool   `json:"success"`
	NewQuantity *int   `json:"new_quantity,omitempty"`
	Error       string `json:"error,omitempty"`
}

type InventoryResult struct {
	Total      int                   `json:"total_updates"`
	Successful int                   `json:"successful_updates"`
	Failed     int                   `json:"failed_updates"`
	Results    []InventoryItemResult `json:"results"`
}

var setStockQuery = `UPDATE products
	SET stock_quantity = $1, last_updated = CURRENT_TIMESTAMP
	WHERE product_id = $2`

// UpdateInventory sets absolute stock levels. Each update succeeds or fails
// on its own and the outcome is reported per item.
func (s *Store) UpdateInventory(ctx context.Context, updates []InventoryUpdate) (*InventoryResult, error) {
	if len(updates) == 0 {
		return nil, invalid("inventory", "at least one update is required")
	}

	res := &InventoryResult{Total: len(updates), Results: make([]InventoryItemResult, 0, len(updates))}
	for _, u := range updates {
		item := InventoryItemResult{ProductID: u.ProductID}
		switch {
		case u.ProductID <= 0 || u.Quantity == nil:
			item.Error = "missing product_id or quantity"
		case *u.Quantity < 0:
			item.Error = "quantity cannot be negative"
		default:
			tag, err := s.db.ExecContext(ctx, setStockQuery, *u.Quantity, u.ProductID)
			switch {
			case err != nil:
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				s.logger.Warn("inventory update failed", zap.Int64("product_id", u.ProductID), zap.Error(err))
				item.Error = "update failed: " + database.Classify(err).Error()
			case tag.RowsAffected() == 0:
				item.Error = "product not found"
			default:
				q := *u.Quantity
				item.Success = true
				item.NewQuantity = &q
			}
		}
		if item.Success {
			res.Successful++
		}
		res.Results = append(res.Results, item)
	}
	res.Failed = res.Total - res.Successful
	return res, nil
}
