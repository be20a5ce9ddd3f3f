package repository

import "github.com/jhoicas/stockflow-api/internal/domain/entity"

// TransactionRepository define el puerto de persistencia de transacciones.
// Create persiste cabecera e ítems; el caller decide el límite transaccional (TxRunner).
type TransactionRepository interface {
	// Create inserta la transacción y sus ítems. Retorna domain.ErrDuplicate si el
	// código generado colisiona (constraint único), para que el caller reintente.
	Create(tx *entity.Transaction) error
	// GetByID retorna la transacción con ítems y logs; nil, nil si no existe.
	GetByID(id string) (*entity.Transaction, error)
	// GetByIDForUpdate bloquea la fila de la transacción y la retorna con sus ítems.
	// Guarda de concurrencia de las transiciones de estado.
	GetByIDForUpdate(id string) (*entity.Transaction, error)
	UpdateStatus(tx *entity.Transaction) error
	AddLog(log *entity.TransactionLog) error
	Delete(id string) error
	List(txType, status string, limit, offset int) ([]*entity.Transaction, int, error)
	// CountByProduct cuenta las transacciones que referencian un producto (guarda de borrado).
	CountByProduct(productID string) (int, error)
}
