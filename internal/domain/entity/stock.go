package entity

import "time"

// Stock representa la cantidad actual en mano de un producto (proyección cacheada del ledger).
// Invariante: Quantity siempre es igual al BalanceAfter del movimiento más reciente del producto.
type Stock struct {
	ProductID      string
	Quantity       int64
	ReservedQty    int64
	LastMovementAt time.Time
}
