package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableside/internal/config"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenSQLite_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, "", db.ForUpdate())
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Migrate(ctx), "iteration %d", i)
	}

	for _, table := range []string{"employees", "dining_tables", "products", "orders", "order_lines", "order_status_log"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %q", table)
	}
}

func TestSeedAndDrop(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))

	res, err := db.Seed(ctx)
	require.NoError(t, err)
	assert.NotZero(t, res.EmployeeID)
	assert.NotZero(t, res.TableID)
	require.Len(t, res.ProductIDs, 2)

	var price decimal.Decimal
	require.NoError(t, db.QueryRow("SELECT price FROM products WHERE id = $1", res.ProductIDs[1]).Scan(&price))
	assert.True(t, price.Equal(decimal.RequireFromString("2.02")), "got %s", price)

	require.NoError(t, db.Drop(ctx))
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='orders'").Scan(&n))
	assert.Zero(t, n)
}

func TestOpenOrderUniqueIndex(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))
	res, err := db.Seed(ctx)
	require.NoError(t, err)

	insert := `INSERT INTO orders (table_id, employee_id, status, total_price, created_at) VALUES ($1, $2, $3, 0, CURRENT_TIMESTAMP)`
	_, err = db.Exec(insert, res.TableID, res.EmployeeID, "ordered")
	require.NoError(t, err)
	_, err = db.Exec(insert, res.TableID, res.EmployeeID, "paid")
	require.NoError(t, err, "paid orders do not count as open")
	_, err = db.Exec(insert, res.TableID, res.EmployeeID, "ordered")
	require.Error(t, err, "second open order for the same table must be rejected")
}

func TestPostgresDSN(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "tableside", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=tableside sslmode=disable", PostgresDSN(cfg))

	cfg.DSN = "postgres://u:p@db:5432/tableside"
	assert.Equal(t, cfg.DSN, PostgresDSN(cfg))
}
