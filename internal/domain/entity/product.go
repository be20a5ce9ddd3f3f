package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// SKU es único entre productos activos; el stock vive en la tabla stock (1:1).
type Product struct {
	ID            string
	SKU           string
	Name          string
	Description   string
	CostPrice     decimal.Decimal // costo de compra
	SellingPrice  decimal.Decimal // precio de venta
	MinStockLevel int64           // umbral de stock bajo
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
