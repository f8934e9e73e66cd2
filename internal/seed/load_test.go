package seed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interview-practice/internal/seed"
	"interview-practice/internal/testdb"
)

func TestLoadAppliesTrigger(t *testing.T) {
	db, ds := testdb.Seeded(t)
	ctx := context.Background()

	for table, want := range ds.Counts() {
		var got int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&got))
		assert.Equal(t, want, got, table)
	}

	ledger := ds.Ledger()
	rows, err := db.QueryContext(ctx, "SELECT product_id, stock_quantity FROM products")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var id int64
		var stock int
		require.NoError(t, rows.Scan(&id, &stock))
		want, _ := ledger.Level(id)
		assert.Equal(t, want, stock, "product %d", id)
	}
	require.NoError(t, rows.Err())

	// Sequences continue after the explicit ids.
	var next int64
	require.NoError(t, db.QueryRowContext(ctx,
		"INSERT INTO categories (category_name) VALUES ('Toys') RETURNING category_id").Scan(&next))
	assert.Equal(t, int64(len(ds.Categories)+1), next)
}

func TestLoadRollsBackOnConflict(t *testing.T) {
	db, ds := testdb.Seeded(t)
	ctx := context.Background()

	err := seed.Load(ctx, db, ds, zap.NewNop())
	require.Error(t, err)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&n))
	assert.Equal(t, len(ds.Customers), n)
}
