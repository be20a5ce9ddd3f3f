package entity

import "time"

// Tipos de movimiento del ledger de inventario.
const (
	MovementTypeINIT       = "INIT"        // stock inicial al crear el producto
	MovementTypeADJUST     = "ADJUST"      // ajuste manual (add/remove/set)
	MovementTypeSaleOut    = "SALE_OUT"    // salida por venta completada
	MovementTypePurchaseIn = "PURCHASE_IN" // entrada por compra completada
	MovementTypeDamage     = "DAMAGE"      // baja por daño o pérdida
)

// Tipos de referencia de un movimiento (documento que lo causó).
const (
	ReferenceTypeTransaction = "TRANSACTION"
)

// StockMovement es una entrada del ledger: delta con signo y saldo resultante.
// Append-only: nunca se actualiza ni se borra.
// Invariante por producto: BalanceAfter[i] = BalanceAfter[i-1] + Quantity[i], con saldo inicial 0.
type StockMovement struct {
	ID            string
	ProductID     string
	Type          string
	Quantity      int64 // delta con signo: positivo entrada, negativo salida
	BalanceAfter  int64 // saldo del producto después de aplicar el delta
	Notes         string
	ReferenceType string // vacío para ajustes manuales
	ReferenceID   string // ID de la transacción que causó el movimiento
	CreatedBy     string // actor que causó el movimiento
	CreatedAt     time.Time
}
