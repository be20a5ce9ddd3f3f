package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

const transactionColumns = "id, code, type, status, counterpart_name, subtotal, tax_amount, total, notes, created_by, confirmed_by, completed_at, created_at, updated_at"

// TransactionRepo implementación sobre PostgreSQL (usable con pool o tx).
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Create inserta cabecera e ítems. Colisión del código único retorna domain.ErrDuplicate
// para que el caso de uso reintente con otro sufijo.
func (r *TransactionRepo) Create(tx *entity.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(context.Background(), query,
		tx.ID, tx.Code, tx.Type, tx.Status, tx.CounterpartName,
		tx.Subtotal, tx.TaxAmount, tx.Total, tx.Notes,
		tx.CreatedBy, tx.ConfirmedBy, tx.CompletedAt, tx.CreatedAt, tx.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	itemQuery := `
		INSERT INTO transaction_items (id, transaction_id, product_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, item := range tx.Items {
		if _, err := r.q.Exec(context.Background(), itemQuery,
			item.ID, item.TransactionID, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal,
		); err != nil {
			return fmt.Errorf("insert transaction item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene una transacción con ítems y logs. Retorna nil, nil si no existe.
func (r *TransactionRepo) GetByID(id string) (*entity.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE id = $1"
	return r.getOne(query, id, true)
}

// GetByIDForUpdate bloquea la fila de la transacción (SELECT FOR UPDATE) y la retorna
// con sus ítems. Guarda contra transiciones de estado concurrentes.
func (r *TransactionRepo) GetByIDForUpdate(id string) (*entity.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE id = $1 FOR UPDATE"
	return r.getOne(query, id, false)
}

// UpdateStatus persiste la transición de estado (status, confirmed_by, completed_at, updated_at).
func (r *TransactionRepo) UpdateStatus(tx *entity.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $2, confirmed_by = $3, completed_at = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		tx.ID, tx.Status, tx.ConfirmedBy, tx.CompletedAt, tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddLog agrega una entrada al log de auditoría (append-only).
func (r *TransactionRepo) AddLog(log *entity.TransactionLog) error {
	query := `
		INSERT INTO transaction_logs (id, transaction_id, action, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(context.Background(), query,
		log.ID, log.TransactionID, log.Action, log.CreatedBy, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction log: %w", err)
	}
	return nil
}

// Delete elimina la transacción; ítems y logs caen por ON DELETE CASCADE.
func (r *TransactionRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), "DELETE FROM transactions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// List lista transacciones filtradas por tipo y/o estado, más recientes primero.
func (r *TransactionRepo) List(txType, status string, limit, offset int) ([]*entity.Transaction, int, error) {
	where := ""
	args := []any{}
	pos := 1
	if txType != "" {
		where += fmt.Sprintf(" AND type = $%d", pos)
		args = append(args, txType)
		pos++
	}
	if status != "" {
		where += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, status)
		pos++
	}
	if where != "" {
		where = " WHERE" + where[4:]
	}

	var total int
	if err := r.q.QueryRow(context.Background(), "SELECT count(*) FROM transactions"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := "SELECT " + transactionColumns + " FROM transactions" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var list []*entity.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, tx := range list {
		if tx.Items, err = r.getItems(tx.ID); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}

// CountByProduct cuenta transacciones que referencian un producto (guarda de borrado del catálogo).
func (r *TransactionRepo) CountByProduct(productID string) (int, error) {
	var n int
	err := r.q.QueryRow(context.Background(),
		"SELECT count(DISTINCT transaction_id) FROM transaction_items WHERE product_id = $1", productID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions by product: %w", err)
	}
	return n, nil
}

func (r *TransactionRepo) getOne(query, id string, withLogs bool) (*entity.Transaction, error) {
	row := r.q.QueryRow(context.Background(), query, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if tx.Items, err = r.getItems(tx.ID); err != nil {
		return nil, err
	}
	if withLogs {
		if tx.Logs, err = r.getLogs(tx.ID); err != nil {
			return nil, err
		}
	}
	return tx, nil
}

func (r *TransactionRepo) getItems(transactionID string) ([]*entity.TransactionItem, error) {
	query := `
		SELECT id, transaction_id, product_id, quantity, unit_price, line_total
		FROM transaction_items WHERE transaction_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction items: %w", err)
	}
	defer rows.Close()
	var items []*entity.TransactionItem
	for rows.Next() {
		var it entity.TransactionItem
		if err := rows.Scan(&it.ID, &it.TransactionID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan transaction item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *TransactionRepo) getLogs(transactionID string) ([]*entity.TransactionLog, error) {
	query := `
		SELECT id, transaction_id, action, created_by, created_at
		FROM transaction_logs WHERE transaction_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(context.Background(), query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction logs: %w", err)
	}
	defer rows.Close()
	var logs []*entity.TransactionLog
	for rows.Next() {
		var l entity.TransactionLog
		if err := rows.Scan(&l.ID, &l.TransactionID, &l.Action, &l.CreatedBy, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction log: %w", err)
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

func scanTransaction(row pgx.Row) (*entity.Transaction, error) {
	var tx entity.Transaction
	err := row.Scan(&tx.ID, &tx.Code, &tx.Type, &tx.Status, &tx.CounterpartName,
		&tx.Subtotal, &tx.TaxAmount, &tx.Total, &tx.Notes,
		&tx.CreatedBy, &tx.ConfirmedBy, &tx.CompletedAt, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
