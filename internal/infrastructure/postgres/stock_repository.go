package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Create inserta el registro de stock de un producto nuevo.
func (r *StockRepo) Create(stock *entity.Stock) error {
	query := `
		INSERT INTO stock (product_id, quantity, reserved_qty, last_movement_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.q.Exec(context.Background(), query,
		stock.ProductID, stock.Quantity, stock.ReservedQty, stock.LastMovementAt)
	if err != nil {
		return fmt.Errorf("create stock: %w", err)
	}
	return nil
}

// Get obtiene el stock actual de un producto. Retorna nil, nil si no existe.
func (r *StockRepo) Get(productID string) (*entity.Stock, error) {
	query := `
		SELECT product_id, quantity, reserved_qty, last_movement_at
		FROM stock WHERE product_id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, productID))
}

// GetForUpdate obtiene el stock y bloquea la fila (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(productID string) (*entity.Stock, error) {
	query := `
		SELECT product_id, quantity, reserved_qty, last_movement_at
		FROM stock WHERE product_id = $1
		FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, productID))
}

// UpdateQuantity fija la cantidad y el timestamp del último movimiento.
// Solo debe llamarse con la fila ya bloqueada por GetForUpdate.
func (r *StockRepo) UpdateQuantity(productID string, quantity int64, at time.Time) error {
	query := `
		UPDATE stock SET quantity = $2, last_movement_at = $3
		WHERE product_id = $1 AND $2 >= 0`
	tag, err := r.q.Exec(context.Background(), query, productID, quantity, at)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update stock: fila no actualizada (product %s)", productID)
	}
	return nil
}

func (r *StockRepo) scanOne(row pgx.Row) (*entity.Stock, error) {
	var s entity.Stock
	err := row.Scan(&s.ProductID, &s.Quantity, &s.ReservedQty, &s.LastMovementAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}
