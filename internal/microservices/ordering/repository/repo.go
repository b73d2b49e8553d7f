package repository

import "tableside/internal/connections/database"

type Repository struct {
	CatalogRepo CatalogRepositoryInterface
	OrderRepo   OrderRepositoryInterface
}

func New(db *database.DB) *Repository {
	return &Repository{
		CatalogRepo: NewCatalogRepository(db),
		OrderRepo:   NewOrderRepository(db),
	}
}
