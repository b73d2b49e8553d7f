package dto

import (
	"github.com/shopspring/decimal"

	"tableside/internal/domain"
)

type AddCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
}

type CartItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Unavailable bool            `json:"unavailable,omitempty"`
}

// CartView is the bound table's cart at current catalog prices.
type CartView struct {
	TableID   int64           `json:"table_id"`
	TableName string          `json:"table_name"`
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
}

type BindResponse struct {
	TableID   int64  `json:"table_id"`
	TableName string `json:"table_name"`
}

type TimelineResponse struct {
	OrderID int64                   `json:"order_id"`
	Events  []domain.StatusLogEntry `json:"events"`
}

type LineResponse struct {
	OrderID    int64            `json:"order_id"`
	Line       domain.OrderLine `json:"order_line"`
	TotalPrice decimal.Decimal  `json:"total_price"`
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

type TablesResponse struct {
	Tables []domain.Table `json:"tables"`
}
