package repository

import (
	"context"
	"database/sql"
	"errors"

	"tableside/internal/connections/database"
	"tableside/internal/domain"
)

type CatalogRepositoryInterface interface {
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetTable(ctx context.Context, id int64) (domain.Table, error)
	ListTables(ctx context.Context) ([]domain.Table, error)
	GetEmployee(ctx context.Context, id int64) (domain.Employee, error)
}

type CatalogRepository struct {
	db *database.DB
}

func NewCatalogRepository(db *database.DB) CatalogRepositoryInterface {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.NewError(domain.KindNotFound, "product %d: %s", id, domain.ErrMsgProductNotFound)
	}
	if err != nil {
		return domain.Product{}, classify(err, "get product")
	}
	return p, nil
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, price FROM products ORDER BY id`)
	if err != nil {
		return nil, classify(err, "list products")
	}
	defer rows.Close()

	out := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price); err != nil {
			return nil, classify(err, "scan product")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) GetTable(ctx context.Context, id int64) (domain.Table, error) {
	var t domain.Table
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM dining_tables WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Table{}, domain.NewError(domain.KindNotFound, "table %d: %s", id, domain.ErrMsgTableNotFound)
	}
	if err != nil {
		return domain.Table{}, classify(err, "get table")
	}
	return t, nil
}

func (r *CatalogRepository) ListTables(ctx context.Context) ([]domain.Table, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM dining_tables ORDER BY id`)
	if err != nil {
		return nil, classify(err, "list tables")
	}
	defer rows.Close()

	out := make([]domain.Table, 0)
	for rows.Next() {
		var t domain.Table
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, classify(err, "scan table")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) GetEmployee(ctx context.Context, id int64) (domain.Employee, error) {
	var e domain.Employee
	err := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, password_hash, created_at FROM employees WHERE id = $1
	`, id).Scan(&e.ID, &e.FirstName, &e.LastName, &e.PasswordHash, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Employee{}, domain.NewError(domain.KindNotFound, "employee %d does not exist", id)
	}
	if err != nil {
		return domain.Employee{}, classify(err, "get employee")
	}
	return e, nil
}
