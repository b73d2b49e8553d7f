// Package testutil builds throwaway SQLite stores for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tableside/internal/connections/database"
)

// NewSQLite opens a migrated SQLite database inside t.TempDir().
func NewSQLite(t testing.TB) *database.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	return db
}

type Fixtures struct {
	GuestID    int64
	WaiterID   int64
	TableID    int64
	OtherTable int64
	ProductA   int64 // 3.00
	ProductB   int64 // 5.00
	ProductC   int64 // 1.01
}

func Seed(t testing.TB, db *database.DB) Fixtures {
	t.Helper()
	var f Fixtures
	now := time.Now().UTC()

	mustID := func(query string, args ...any) int64 {
		t.Helper()
		var id int64
		if err := db.QueryRow(query, args...).Scan(&id); err != nil {
			t.Fatalf("seed %q: %v", query, err)
		}
		return id
	}
	employee := `INSERT INTO employees (first_name, last_name, password_hash, created_at) VALUES ($1, $2, '', $3) RETURNING id`
	table := `INSERT INTO dining_tables (name) VALUES ($1) RETURNING id`
	product := `INSERT INTO products (name, description, price) VALUES ($1, '', $2) RETURNING id`

	f.GuestID = mustID(employee, "guest", "", now)
	f.WaiterID = mustID(employee, "Anna", "Waiter", now)
	f.TableID = mustID(table, "Table 1")
	f.OtherTable = mustID(table, "Table 2")
	f.ProductA = mustID(product, "A", decimal.RequireFromString("3.00"))
	f.ProductB = mustID(product, "B", decimal.RequireFromString("5.00"))
	f.ProductC = mustID(product, "C", decimal.RequireFromString("1.01"))
	return f
}
