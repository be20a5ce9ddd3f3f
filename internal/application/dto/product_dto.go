package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
// InitialStock crea el registro de stock y, si es > 0, un movimiento INIT.
type CreateProductRequest struct {
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	MinStockLevel int64           `json:"min_stock_level"`
	InitialStock  int64           `json:"initial_stock"`
}

// UpdateProductRequest entrada para actualizar un producto (el stock no se edita aquí;
// usar ajustes de stock para que el ledger quede consistente).
type UpdateProductRequest struct {
	SKU           *string          `json:"sku,omitempty"`
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	CostPrice     *decimal.Decimal `json:"cost_price,omitempty"`
	SellingPrice  *decimal.Decimal `json:"selling_price,omitempty"`
	MinStockLevel *int64           `json:"min_stock_level,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

// ProductResponse salida de un producto con su stock actual.
type ProductResponse struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	MinStockLevel int64           `json:"min_stock_level"`
	IsActive      bool            `json:"is_active"`
	Quantity      int64           `json:"quantity"`
	LowStock      bool            `json:"low_stock"` // Quantity < MinStockLevel
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Data []ProductResponse `json:"data"`
	Meta Meta              `json:"meta"`
}
