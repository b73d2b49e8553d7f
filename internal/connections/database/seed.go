package database

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type SeedResult struct {
	EmployeeID int64
	TableID    int64
	ProductIDs []int64
}

type seedProduct struct {
	name, description string
	price             decimal.Decimal
}

var seedProducts = []seedProduct{
	{"Test product 1", "Nice test product 1", decimal.RequireFromString("1.01")},
	{"Test product 2", "Nice test product 2", decimal.RequireFromString("2.02")},
}

// Seed inserts the admin employee, a test table and two test products. The
// admin id is the usual guest employee for local setups.
func (db *DB) Seed(ctx context.Context) (SeedResult, error) {
	var res SeedResult
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Authentication is handled upstream; the hash is a non-matching placeholder.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO employees (first_name, last_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, "admin", "admin", "!", time.Now().UTC()).Scan(&res.EmployeeID)
	if err != nil {
		return res, fmt.Errorf("failed to insert employee: %w", err)
	}

	err = tx.QueryRowContext(ctx, `INSERT INTO dining_tables (name) VALUES ($1) RETURNING id`, "Test table").Scan(&res.TableID)
	if err != nil {
		return res, fmt.Errorf("failed to insert table: %w", err)
	}

	for _, p := range seedProducts {
		var id int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO products (name, description, price) VALUES ($1, $2, $3) RETURNING id
		`, p.name, p.description, p.price).Scan(&id)
		if err != nil {
			return res, fmt.Errorf("failed to insert product %s: %w", p.name, err)
		}
		res.ProductIDs = append(res.ProductIDs, id)
	}

	if err = tx.Commit(); err != nil {
		return res, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return res, nil
}
