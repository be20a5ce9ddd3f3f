package transaction

import (
	"context"
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los repositorios
// del workflow. La transición de estado, los movimientos del ledger y la actualización
// de stock de una completación comparten la misma unidad atómica.
type TxRunner interface {
	RunTransaction(ctx context.Context, fn func(
		txRepo repository.TransactionRepository,
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// LedgerService interfaz para integrar el workflow con el ledger de inventario.
// ApplyDeltaInTx aplica un delta usando los repositorios del caller (misma transacción);
// si retorna error (ej. InsufficientStockError), el caller hace rollback completo.
type LedgerService interface {
	ApplyDeltaInTx(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		product *entity.Product,
		delta int64,
		movementType, referenceType, referenceID, actorID string,
		now time.Time,
	) (previous, current int64, err error)
}
