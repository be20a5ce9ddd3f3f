package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del ledger sobre PostgreSQL (usable con pool o tx).
// La tabla es append-only: no hay UPDATE ni DELETE de movimientos.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create agrega un movimiento al ledger.
func (r *StockMovementRepo) Create(movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, product_id, type, quantity, balance_after, notes, reference_type, reference_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	refType := (*string)(nil)
	refID := (*string)(nil)
	if movement.ReferenceType != "" {
		refType = &movement.ReferenceType
		refID = &movement.ReferenceID
	}
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.ProductID, movement.Type, movement.Quantity, movement.BalanceAfter,
		movement.Notes, refType, refID, movement.CreatedBy, movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetLastByProduct obtiene el movimiento más reciente de un producto (nil, nil si no hay).
func (r *StockMovementRepo) GetLastByProduct(productID string) (*entity.StockMovement, error) {
	query := `
		SELECT id, product_id, type, quantity, balance_after, notes, reference_type, reference_id, created_by, created_at
		FROM stock_movements WHERE product_id = $1
		ORDER BY created_at DESC, id DESC LIMIT 1`
	var m entity.StockMovement
	var refType, refID *string
	err := r.q.QueryRow(context.Background(), query, productID).Scan(
		&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.BalanceAfter,
		&m.Notes, &refType, &refID, &m.CreatedBy, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get last movement: %w", err)
	}
	if refType != nil {
		m.ReferenceType = *refType
	}
	if refID != nil {
		m.ReferenceID = *refID
	}
	return &m, nil
}

// List lista movimientos (con SKU y nombre del producto), más recientes primero.
// productID vacío lista todos los productos. Retorna la página y el total.
func (r *StockMovementRepo) List(productID string, limit, offset int) ([]*repository.MovementWithProduct, int, error) {
	where := ""
	args := []any{}
	pos := 1
	if productID != "" {
		where = fmt.Sprintf(" WHERE m.product_id = $%d", pos)
		args = append(args, productID)
		pos++
	}

	var total int
	countQuery := "SELECT count(*) FROM stock_movements m" + where
	if err := r.q.QueryRow(context.Background(), countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	query := `
		SELECT m.id, m.product_id, m.type, m.quantity, m.balance_after, m.notes,
		       m.reference_type, m.reference_id, m.created_by, m.created_at,
		       p.sku, p.name
		FROM stock_movements m
		JOIN products p ON p.id = m.product_id` + where +
		fmt.Sprintf(" ORDER BY m.created_at DESC, m.id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var list []*repository.MovementWithProduct
	for rows.Next() {
		var m repository.MovementWithProduct
		var refType, refID *string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.BalanceAfter, &m.Notes,
			&refType, &refID, &m.CreatedBy, &m.CreatedAt, &m.ProductSKU, &m.ProductName); err != nil {
			return nil, 0, fmt.Errorf("scan movement: %w", err)
		}
		if refType != nil {
			m.ReferenceType = *refType
		}
		if refID != nil {
			m.ReferenceID = *refID
		}
		list = append(list, &m)
	}
	return list, total, rows.Err()
}
