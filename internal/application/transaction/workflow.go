package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// WorkflowUseCase lleva una transacción por su máquina de estados:
// DRAFT → CONFIRMED → COMPLETED, con salida a CANCELED antes de completar.
// Solo la completación toca stock: un ApplyDeltaInTx por ítem, todos en la misma
// unidad atómica que la transición de estado y el log de auditoría.
type WorkflowUseCase struct {
	txRunner    TxRunner
	txRepo      repository.TransactionRepository // lecturas fuera de tx
	productRepo repository.ProductRepository
	ledger      LedgerService
	events      ports.EventSink
}

// NewWorkflowUseCase construye el caso de uso.
func NewWorkflowUseCase(
	txRunner TxRunner,
	txRepo repository.TransactionRepository,
	productRepo repository.ProductRepository,
	ledger LedgerService,
	events ports.EventSink,
) *WorkflowUseCase {
	return &WorkflowUseCase{
		txRunner:    txRunner,
		txRepo:      txRepo,
		productRepo: productRepo,
		ledger:      ledger,
		events:      events,
	}
}

// Create valida los ítems, calcula totales (impuesto fijo 8%) y persiste la
// transacción con sus ítems en estado DRAFT. Sin efectos sobre stock.
// Ante colisión del código generado reintenta con un sufijo nuevo.
func (uc *WorkflowUseCase) Create(ctx context.Context, actorID string, in dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	if in.Type != entity.TransactionTypeSale && in.Type != entity.TransactionTypePurchase {
		return nil, domain.ErrInvalidInput
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, item := range in.Items {
		if item.ProductID == "" || item.Quantity <= 0 || item.UnitPrice.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	}

	// Validar que los productos existan y estén activos (solo lectura, fuera de la tx)
	for _, item := range in.Items {
		product, err := uc.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, domain.ErrNotFound
		}
	}

	now := time.Now()
	tx := &entity.Transaction{
		ID:              uuid.New().String(),
		Type:            in.Type,
		Status:          entity.TransactionStatusDraft,
		CounterpartName: in.CounterpartName,
		Notes:           in.Notes,
		CreatedBy:       actorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, item := range in.Items {
		tx.Items = append(tx.Items, &entity.TransactionItem{
			ID:            uuid.New().String(),
			TransactionID: tx.ID,
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
		})
	}
	tx.Subtotal, tx.TaxAmount, tx.Total = entity.ComputeTotals(tx.Items)

	// El constraint único sobre code resuelve la carrera de creación concurrente:
	// ante 23505 se reintenta con otro sufijo aleatorio.
	var err error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		tx.Code, err = generateCode(now)
		if err != nil {
			return nil, err
		}
		err = uc.txRunner.RunTransaction(ctx, func(
			txRepo repository.TransactionRepository,
			_ repository.StockMovementRepository,
			_ repository.StockRepository,
			_ repository.ProductRepository,
		) error {
			if err := txRepo.Create(tx); err != nil {
				return err
			}
			return txRepo.AddLog(&entity.TransactionLog{
				ID:            uuid.New().String(),
				TransactionID: tx.ID,
				Action:        entity.TransactionActionCreated,
				CreatedBy:     actorID,
				CreatedAt:     now,
			})
		})
		if !errors.Is(err, domain.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}

	uc.publishChanged(tx.ID, tx.Status)
	return uc.GetByID(ctx, tx.ID)
}

// Confirm pasa la transacción de DRAFT a CONFIRMED y registra el actor confirmante.
// Sin efectos sobre stock.
func (uc *WorkflowUseCase) Confirm(ctx context.Context, id, actorID string) (*dto.TransactionResponse, error) {
	err := uc.txRunner.RunTransaction(ctx, func(
		txRepo repository.TransactionRepository,
		_ repository.StockMovementRepository,
		_ repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		tx, err := txRepo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if tx == nil {
			return domain.ErrNotFound
		}
		if tx.Status != entity.TransactionStatusDraft {
			return &domain.StateError{Action: "confirmar", Status: tx.Status}
		}
		now := time.Now()
		tx.Status = entity.TransactionStatusConfirmed
		tx.ConfirmedBy = &actorID
		tx.UpdatedAt = now
		if err := txRepo.UpdateStatus(tx); err != nil {
			return err
		}
		return txRepo.AddLog(&entity.TransactionLog{
			ID:            uuid.New().String(),
			TransactionID: id,
			Action:        entity.TransactionActionConfirmed,
			CreatedBy:     actorID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.publishChanged(id, entity.TransactionStatusConfirmed)
	return uc.GetByID(ctx, id)
}

// Complete pasa la transacción de CONFIRMED a COMPLETED y aplica el efecto sobre
// stock: decremento SALE_OUT por ítem en ventas, incremento PURCHASE_IN en compras.
// En ventas primero corre el validador sobre todos los ítems; si alguno falla no
// se muta nada y se retorna InsufficientStockError con la lista completa.
// Transición, movimientos y stock comparten una sola unidad atómica: cualquier
// falla aborta la completación sin efectos parciales.
func (uc *WorkflowUseCase) Complete(ctx context.Context, id, actorID string) (*dto.TransactionResponse, error) {
	var productIDs []string
	err := uc.txRunner.RunTransaction(ctx, func(
		txRepo repository.TransactionRepository,
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		// el runner puede reejecutar el callback tras un fallo de serialización
		productIDs = productIDs[:0]
		tx, err := txRepo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if tx == nil {
			return domain.ErrNotFound
		}
		// Confirmar es paso obligatorio: completar exige CONFIRMED
		if tx.Status != entity.TransactionStatusConfirmed {
			return &domain.StateError{Action: "completar", Status: tx.Status}
		}

		products := make(map[string]*entity.Product, len(tx.Items))
		for _, item := range tx.Items {
			product, err := productRepo.GetByID(item.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.ErrNotFound
			}
			products[item.ProductID] = product
		}

		// Las compras nunca se bloquean por stock
		if tx.Type == entity.TransactionTypeSale {
			if err := validateSaleStock(stockRepo, tx.Items, products); err != nil {
				return err
			}
		}

		now := time.Now()
		for _, item := range tx.Items {
			product := products[item.ProductID]
			if _, _, err := uc.ledger.ApplyDeltaInTx(
				movRepo, stockRepo, product,
				tx.StockDelta(item), tx.MovementType(),
				entity.ReferenceTypeTransaction, tx.ID,
				actorID, now,
			); err != nil {
				return err
			}
			productIDs = append(productIDs, item.ProductID)
		}

		tx.Status = entity.TransactionStatusCompleted
		tx.CompletedAt = &now
		tx.UpdatedAt = now
		if err := txRepo.UpdateStatus(tx); err != nil {
			return err
		}
		return txRepo.AddLog(&entity.TransactionLog{
			ID:            uuid.New().String(),
			TransactionID: id,
			Action:        entity.TransactionActionCompleted,
			CreatedBy:     actorID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.publishChanged(id, entity.TransactionStatusCompleted)
	uc.publishInventoryChanged(productIDs)
	return uc.GetByID(ctx, id)
}

// Cancel pasa la transacción a CANCELED desde DRAFT o CONFIRMED. No hay reversa de
// stock: las transacciones no completadas nunca lo tocaron. COMPLETED y CANCELED
// son terminales y no admiten cancelación.
func (uc *WorkflowUseCase) Cancel(ctx context.Context, id, actorID string) (*dto.TransactionResponse, error) {
	err := uc.txRunner.RunTransaction(ctx, func(
		txRepo repository.TransactionRepository,
		_ repository.StockMovementRepository,
		_ repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		tx, err := txRepo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if tx == nil {
			return domain.ErrNotFound
		}
		if tx.IsTerminal() {
			return &domain.StateError{Action: "cancelar", Status: tx.Status}
		}
		now := time.Now()
		tx.Status = entity.TransactionStatusCanceled
		tx.UpdatedAt = now
		if err := txRepo.UpdateStatus(tx); err != nil {
			return err
		}
		return txRepo.AddLog(&entity.TransactionLog{
			ID:            uuid.New().String(),
			TransactionID: id,
			Action:        entity.TransactionActionCanceled,
			CreatedBy:     actorID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.publishChanged(id, entity.TransactionStatusCanceled)
	return uc.GetByID(ctx, id)
}

// Delete elimina la transacción con ítems y logs. Las completadas son historial
// inmutable y nunca se eliminan.
func (uc *WorkflowUseCase) Delete(ctx context.Context, id string) error {
	return uc.txRunner.RunTransaction(ctx, func(
		txRepo repository.TransactionRepository,
		_ repository.StockMovementRepository,
		_ repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		tx, err := txRepo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if tx == nil {
			return domain.ErrNotFound
		}
		if tx.Status == entity.TransactionStatusCompleted {
			return &domain.StateError{Action: "eliminar", Status: tx.Status}
		}
		return txRepo.Delete(id)
	})
}

// GetByID obtiene una transacción con ítems y log de auditoría.
func (uc *WorkflowUseCase) GetByID(ctx context.Context, id string) (*dto.TransactionResponse, error) {
	tx, err := uc.txRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domain.ErrNotFound
	}
	return toResponse(tx), nil
}

// List lista transacciones filtradas por tipo y/o estado.
func (uc *WorkflowUseCase) List(ctx context.Context, txType, status string, page dto.PageRequest) (*dto.TransactionListResponse, error) {
	page.DefaultPage()
	txs, total, err := uc.txRepo.List(txType, status, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	resp := &dto.TransactionListResponse{
		Data: make([]dto.TransactionResponse, 0, len(txs)),
		Meta: dto.Meta{Total: total, Page: page.Page, Limit: page.Limit},
	}
	for _, tx := range txs {
		resp.Data = append(resp.Data, *toResponse(tx))
	}
	return resp, nil
}

func toResponse(tx *entity.Transaction) *dto.TransactionResponse {
	resp := &dto.TransactionResponse{
		ID:              tx.ID,
		Code:            tx.Code,
		Type:            tx.Type,
		Status:          tx.Status,
		CounterpartName: tx.CounterpartName,
		Subtotal:        tx.Subtotal,
		TaxAmount:       tx.TaxAmount,
		Total:           tx.Total,
		Notes:           tx.Notes,
		CreatedBy:       tx.CreatedBy,
		ConfirmedBy:     tx.ConfirmedBy,
		CompletedAt:     tx.CompletedAt,
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
		Items:           make([]dto.TransactionItemResponse, 0, len(tx.Items)),
	}
	for _, item := range tx.Items {
		resp.Items = append(resp.Items, dto.TransactionItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	for _, l := range tx.Logs {
		resp.Logs = append(resp.Logs, dto.TransactionLogResponse{
			Action:    l.Action,
			CreatedBy: l.CreatedBy,
			CreatedAt: l.CreatedAt,
		})
	}
	return resp
}

// publishChanged emite transaction.changed fuera de la unidad atómica (fire-and-forget).
func (uc *WorkflowUseCase) publishChanged(id, status string) {
	if uc.events == nil {
		return
	}
	go uc.events.Publish(context.Background(), ports.ChannelTransactionChanged, map[string]interface{}{
		"transaction_id": id,
		"status":         status,
	})
}

func (uc *WorkflowUseCase) publishInventoryChanged(productIDs []string) {
	if uc.events == nil || len(productIDs) == 0 {
		return
	}
	go uc.events.Publish(context.Background(), ports.ChannelInventoryChanged, map[string]interface{}{
		"product_ids": productIDs,
	})
}
