package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	apptransaction "github.com/jhoicas/stockflow-api/internal/application/transaction"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// Ensure TxRunner implements inventory.TxRunner and transaction.TxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)
var _ apptransaction.TxRunner = (*TxRunner)(nil)

// maxTxAttempts reintentos ante fallos de serialización o deadlock antes de
// rendirse con domain.ErrUnavailable. Los errores de dominio no se reintentan.
const maxTxAttempts = 3

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción con los repos del ledger, ejecuta fn y hace Commit o
// Rollback. Fallos de serialización/deadlock se reintentan hasta maxTxAttempts.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.withRetry(ctx, func(q Querier) error {
		return fn(NewStockMovementRepository(q), NewStockRepository(q), NewProductRepository(q))
	})
}

// RunTransaction inicia una transacción con los repos del workflow de transacciones
// (para completaciones: estado + movimientos + stock en una sola unidad atómica).
func (r *TxRunner) RunTransaction(ctx context.Context, fn func(
	txRepo repository.TransactionRepository,
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.withRetry(ctx, func(q Querier) error {
		return fn(NewTransactionRepository(q), NewStockMovementRepository(q), NewStockRepository(q), NewProductRepository(q))
	})
}

func (r *TxRunner) withRetry(ctx context.Context, fn func(q Querier) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		lastErr = r.runOnce(ctx, fn)
		if lastErr == nil || !isRetryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrUnavailable, lastErr)
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
