package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionItemRequest línea de una transacción nueva.
type TransactionItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateTransactionRequest body para POST /api/transactions.
type CreateTransactionRequest struct {
	Type            string                   `json:"type"` // SALE | PURCHASE
	CounterpartName string                   `json:"counterpart_name,omitempty"`
	Notes           string                   `json:"notes,omitempty"`
	Items           []TransactionItemRequest `json:"items"`
}

// TransactionItemResponse línea de detalle en respuestas.
type TransactionItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// TransactionLogResponse entrada del log de auditoría.
type TransactionLogResponse struct {
	Action    string    `json:"action"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TransactionResponse salida de una transacción con ítems y log.
type TransactionResponse struct {
	ID              string                    `json:"id"`
	Code            string                    `json:"code"`
	Type            string                    `json:"type"`
	Status          string                    `json:"status"`
	CounterpartName string                    `json:"counterpart_name,omitempty"`
	Subtotal        decimal.Decimal           `json:"subtotal"`
	TaxAmount       decimal.Decimal           `json:"tax_amount"`
	Total           decimal.Decimal           `json:"total"`
	Notes           string                    `json:"notes,omitempty"`
	CreatedBy       string                    `json:"created_by"`
	ConfirmedBy     *string                   `json:"confirmed_by,omitempty"`
	CompletedAt     *time.Time                `json:"completed_at,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
	Items           []TransactionItemResponse `json:"items"`
	Logs            []TransactionLogResponse  `json:"logs,omitempty"`
}

// TransactionListResponse lista paginada de transacciones.
type TransactionListResponse struct {
	Data []TransactionResponse `json:"data"`
	Meta Meta                  `json:"meta"`
}
