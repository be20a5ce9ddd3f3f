package dto

import "time"

// Tipos de ajuste manual de stock.
const (
	AdjustmentAdd    = "add"
	AdjustmentRemove = "remove"
	AdjustmentSet    = "set"
)

// AdjustStockRequest body para POST /api/stock/adjustments.
// Para add/remove, Quantity es la cantidad a sumar/restar (> 0).
// Para set, Quantity es la cantidad objetivo (≥ 0).
// MovementType opcional: ADJUST (por defecto) o DAMAGE para bajas por daño.
type AdjustStockRequest struct {
	ProductID    string `json:"product_id"`
	Type         string `json:"type"` // add | remove | set
	Quantity     int64  `json:"quantity"`
	MovementType string `json:"movement_type,omitempty"`
	Reason       string `json:"reason"`
	Notes        string `json:"notes,omitempty"`
}

// AdjustStockResponse resultado de un ajuste.
type AdjustStockResponse struct {
	ProductID        string `json:"product_id"`
	PreviousQuantity int64  `json:"previous_quantity"`
	NewQuantity      int64  `json:"new_quantity"`
	Adjustment       int64  `json:"adjustment"` // delta con signo aplicado
}

// MovementResponse una entrada del ledger en listados.
type MovementResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	ProductSKU    string    `json:"product_sku"`
	ProductName   string    `json:"product_name"`
	Type          string    `json:"type"`
	Quantity      int64     `json:"quantity"`
	BalanceAfter  int64     `json:"balance_after"`
	Notes         string    `json:"notes,omitempty"`
	ReferenceType string    `json:"reference_type,omitempty"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Data []MovementResponse `json:"data"`
	Meta Meta               `json:"meta"`
}
