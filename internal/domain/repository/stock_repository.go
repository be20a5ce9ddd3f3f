package repository

import (
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar el registro de stock.
// Solo el Stock Ledger Service debe mutar stock, y siempre dentro de una transacción
// junto con el append del movimiento correspondiente.
type StockRepository interface {
	Create(stock *entity.Stock) error
	// Get retorna nil, nil si el producto no tiene registro de stock.
	Get(productID string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) antes de leerla, para que
	// dos mutaciones concurrentes del mismo producto se serialicen.
	GetForUpdate(productID string) (*entity.Stock, error)
	UpdateQuantity(productID string, quantity int64, at time.Time) error
}
