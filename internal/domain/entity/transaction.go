package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción comercial.
const (
	TransactionTypeSale     = "SALE"
	TransactionTypePurchase = "PURCHASE"
)

// Estados del ciclo de vida de una transacción.
// DRAFT → CONFIRMED → COMPLETED, con salida a CANCELED desde DRAFT o CONFIRMED.
// COMPLETED y CANCELED son terminales.
const (
	TransactionStatusDraft     = "DRAFT"
	TransactionStatusConfirmed = "CONFIRMED"
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusCanceled  = "CANCELED"
)

// Acciones registradas en el log de auditoría de la transacción.
const (
	TransactionActionCreated   = "Created"
	TransactionActionConfirmed = "Confirmed"
	TransactionActionCompleted = "Completed"
	TransactionActionCanceled  = "Canceled"
)

// TaxRate tasa de impuesto fija aplicada sobre el subtotal (8%).
var TaxRate = decimal.NewFromFloat(0.08)

// Transaction es el documento comercial (venta o compra) con sus ítems,
// totales calculados, estado y log de auditoría.
type Transaction struct {
	ID              string
	Code            string // código legible único, ej. TRX-20250114-A3F9
	Type            string // SALE | PURCHASE
	Status          string
	CounterpartName string // cliente (SALE) o proveedor (PURCHASE)
	Subtotal        decimal.Decimal
	TaxAmount       decimal.Decimal
	Total           decimal.Decimal
	Notes           string
	CreatedBy       string
	ConfirmedBy     *string
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Items           []*TransactionItem
	Logs            []*TransactionLog
}

// TransactionItem línea de detalle. Inmutable una vez creada la transacción:
// una transacción equivocada se cancela o elimina y se crea de nuevo.
type TransactionItem struct {
	ID            string
	TransactionID string
	ProductID     string
	Quantity      int64
	UnitPrice     decimal.Decimal
	LineTotal     decimal.Decimal // Quantity × UnitPrice
}

// TransactionLog entrada append-only del log de auditoría de cambios de estado.
type TransactionLog struct {
	ID            string
	TransactionID string
	Action        string
	CreatedBy     string
	CreatedAt     time.Time
}

// IsTerminal indica si el estado no admite más transiciones.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusCanceled
}

// StockDelta devuelve el delta de stock por ítem al completar: negativo para
// ventas (SALE_OUT), positivo para compras (PURCHASE_IN).
func (t *Transaction) StockDelta(item *TransactionItem) int64 {
	if t.Type == TransactionTypeSale {
		return -item.Quantity
	}
	return item.Quantity
}

// MovementType devuelve el tipo de movimiento del ledger que genera la completación.
func (t *Transaction) MovementType() string {
	if t.Type == TransactionTypeSale {
		return MovementTypeSaleOut
	}
	return MovementTypePurchaseIn
}

// ComputeTotals calcula LineTotal por ítem y devuelve subtotal, impuesto (8%) y total.
func ComputeTotals(items []*TransactionItem) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, it := range items {
		it.LineTotal = it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
		subtotal = subtotal.Add(it.LineTotal)
	}
	tax = subtotal.Mul(TaxRate).Round(2)
	total = subtotal.Add(tax)
	return subtotal, tax, total
}
