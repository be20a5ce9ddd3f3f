package repository

import "github.com/jhoicas/stockflow-api/internal/domain/entity"

// MovementWithProduct movimiento enriquecido con SKU y nombre del producto para listados.
type MovementWithProduct struct {
	entity.StockMovement
	ProductSKU  string
	ProductName string
}

// StockMovementRepository define el puerto de persistencia del ledger (append-only).
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	// GetLastByProduct retorna nil, nil si el producto no tiene movimientos.
	GetLastByProduct(productID string) (*entity.StockMovement, error)
	// List filtra por producto si productID no está vacío. Retorna página y total.
	List(productID string, limit, offset int) ([]*MovementWithProduct, int, error)
}
