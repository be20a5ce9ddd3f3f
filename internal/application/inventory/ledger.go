package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// LedgerUseCase es el único componente que muta registros de stock. Cada mutación
// actualiza la cantidad y agrega un movimiento con el saldo resultante en una sola
// transacción, con bloqueo de fila (SELECT FOR UPDATE) contra carreras de lectura-escritura.
type LedgerUseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository // lecturas fuera de tx (listados)
	events       ports.EventSink
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	events ports.EventSink,
) *LedgerUseCase {
	return &LedgerUseCase{txRunner: txRunner, productRepo: productRepo, movementRepo: movementRepo, events: events}
}

// AdjustInput entrada para un ajuste manual de stock.
// Kind: add (suma n), remove (resta n, falla si n > cantidad actual),
// set (lleva la cantidad al objetivo, que debe ser ≥ 0).
type AdjustInput struct {
	ProductID    string
	Kind         string // add | remove | set
	Quantity     int64
	MovementType string // ADJUST (por defecto) o DAMAGE
	Reason       string
	Notes        string
	ActorID      string
}

// AdjustResult cantidades antes y después del ajuste.
type AdjustResult struct {
	ProductID        string
	PreviousQuantity int64
	NewQuantity      int64
	Adjustment       int64
}

// Adjust aplica un ajuste manual: valida la entrada, bloquea la fila de stock,
// calcula el delta según el tipo y persiste stock + movimiento atómicamente.
// El evento inventory.changed se emite después del commit, fuera de la unidad atómica.
func (uc *LedgerUseCase) Adjust(ctx context.Context, input AdjustInput) (*AdjustResult, error) {
	switch input.Kind {
	case dto.AdjustmentAdd, dto.AdjustmentRemove:
		if input.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
	case dto.AdjustmentSet:
		if input.Quantity < 0 {
			return nil, domain.ErrInvalidInput
		}
	default:
		return nil, domain.ErrInvalidInput
	}
	movType := input.MovementType
	if movType == "" {
		movType = entity.MovementTypeADJUST
	}
	if movType != entity.MovementTypeADJUST && movType != entity.MovementTypeDamage {
		return nil, domain.ErrInvalidInput
	}

	product, err := uc.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	notes := input.Reason
	if input.Notes != "" {
		if notes != "" {
			notes += ": "
		}
		notes += input.Notes
	}

	var result *AdjustResult
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		stock, err := stockRepo.GetForUpdate(input.ProductID)
		if err != nil {
			return err
		}
		if stock == nil {
			return domain.ErrNotFound
		}

		var delta int64
		switch input.Kind {
		case dto.AdjustmentAdd:
			delta = input.Quantity
		case dto.AdjustmentRemove:
			if input.Quantity > stock.Quantity {
				return &domain.InsufficientStockError{Items: []domain.StockShortage{{
					ProductID:   product.ID,
					SKU:         product.SKU,
					ProductName: product.Name,
					Required:    input.Quantity,
					Available:   stock.Quantity,
				}}}
			}
			delta = -input.Quantity
		case dto.AdjustmentSet:
			delta = input.Quantity - stock.Quantity
		}

		result = &AdjustResult{
			ProductID:        input.ProductID,
			PreviousQuantity: stock.Quantity,
			NewQuantity:      stock.Quantity + delta,
			Adjustment:       delta,
		}
		if delta == 0 {
			// set al valor actual: no hay nada que escribir en el ledger
			return nil
		}
		_, _, err = applyDelta(movRepo, stockRepo, stock, delta, movType, notes, "", "", input.ActorID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.publishInventoryChanged(result)
	return result, nil
}

// ApplyDeltaInTx aplica un delta usando los repositorios del caller (misma transacción).
// Lo usa el workflow de transacciones al completar: una llamada por ítem, todas dentro
// de la misma unidad atómica que la transición de estado.
func (uc *LedgerUseCase) ApplyDeltaInTx(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	product *entity.Product,
	delta int64,
	movementType, referenceType, referenceID, actorID string,
	now time.Time,
) (previous, current int64, err error) {
	stock, err := stockRepo.GetForUpdate(product.ID)
	if err != nil {
		return 0, 0, err
	}
	if stock == nil {
		return 0, 0, domain.ErrNotFound
	}
	if stock.Quantity+delta < 0 {
		return 0, 0, &domain.InsufficientStockError{Items: []domain.StockShortage{{
			ProductID:   product.ID,
			SKU:         product.SKU,
			ProductName: product.Name,
			Required:    -delta,
			Available:   stock.Quantity,
		}}}
	}
	return applyDelta(movRepo, stockRepo, stock, delta, movementType, "", referenceType, referenceID, actorID, now)
}

// InitStockInTx crea el registro de stock de un producto nuevo con su cantidad inicial
// y, si es > 0, el movimiento INIT correspondiente. Misma transacción que el caller.
func (uc *LedgerUseCase) InitStockInTx(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	productID string,
	initial int64,
	actorID string,
	now time.Time,
) error {
	if initial < 0 {
		return domain.ErrInvalidInput
	}
	stock := &entity.Stock{ProductID: productID, Quantity: initial, LastMovementAt: now}
	if err := stockRepo.Create(stock); err != nil {
		return err
	}
	if initial == 0 {
		return nil
	}
	return movRepo.Create(&entity.StockMovement{
		ID:           uuid.New().String(),
		ProductID:    productID,
		Type:         entity.MovementTypeINIT,
		Quantity:     initial,
		BalanceAfter: initial,
		Notes:        "stock inicial",
		CreatedBy:    actorID,
		CreatedAt:    now,
	})
}

// applyDelta muta el stock ya bloqueado y agrega el movimiento del ledger.
// El caller garantiza que stock.Quantity+delta ≥ 0.
// Antes de escribir verifica que el registro de stock (proyección cacheada)
// coincida con el saldo del movimiento más reciente; si divergen, aborta sin
// escribir para no propagar la corrupción.
func applyDelta(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	stock *entity.Stock,
	delta int64,
	movementType, notes, referenceType, referenceID, actorID string,
	now time.Time,
) (previous, current int64, err error) {
	last, err := movRepo.GetLastByProduct(stock.ProductID)
	if err != nil {
		return 0, 0, err
	}
	var ledgerBalance int64
	if last != nil {
		ledgerBalance = last.BalanceAfter
	}
	if ledgerBalance != stock.Quantity {
		return 0, 0, fmt.Errorf("stock de %s desincronizado del ledger: registro %d, saldo %d",
			stock.ProductID, stock.Quantity, ledgerBalance)
	}
	previous = stock.Quantity
	current = previous + delta
	if err := stockRepo.UpdateQuantity(stock.ProductID, current, now); err != nil {
		return 0, 0, err
	}
	mov := &entity.StockMovement{
		ID:            uuid.New().String(),
		ProductID:     stock.ProductID,
		Type:          movementType,
		Quantity:      delta,
		BalanceAfter:  current,
		Notes:         notes,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		CreatedBy:     actorID,
		CreatedAt:     now,
	}
	if err := movRepo.Create(mov); err != nil {
		return 0, 0, err
	}
	return previous, current, nil
}

// publishInventoryChanged emite el evento fuera de la unidad atómica (fire-and-forget).
func (uc *LedgerUseCase) publishInventoryChanged(result *AdjustResult) {
	if uc.events == nil || result == nil {
		return
	}
	go uc.events.Publish(context.Background(), ports.ChannelInventoryChanged, map[string]interface{}{
		"product_id":   result.ProductID,
		"new_quantity": result.NewQuantity,
	})
}
