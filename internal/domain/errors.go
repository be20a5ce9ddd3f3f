package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInvalidState      = errors.New("transición de estado no permitida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrUnavailable       = errors.New("operación no disponible, reintente")
)

// StockShortage detalle de un ítem que no pasó la validación de stock.
type StockShortage struct {
	ProductID   string `json:"product_id"`
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	Required    int64  `json:"required"`
	Available   int64  `json:"available"`
}

// InsufficientStockError agrupa todos los ítems sin stock suficiente de una misma
// completación, para que el caller pueda reportar todos los problemas en una sola respuesta.
type InsufficientStockError struct {
	Items []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		if it.Available == 0 {
			parts = append(parts, fmt.Sprintf("%s (%s): sin stock", it.ProductName, it.SKU))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s): solo %d disponibles de %d", it.ProductName, it.SKU, it.Available, it.Required))
	}
	return "stock insuficiente: " + strings.Join(parts, "; ")
}

// Is permite errors.Is(err, domain.ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// StateError indica una acción intentada sobre una transacción en un estado que no la permite.
type StateError struct {
	Action string // confirm, complete, cancel, delete
	Status string // estado actual de la transacción
}

func (e *StateError) Error() string {
	return fmt.Sprintf("no se puede %s una transacción en estado %s", e.Action, e.Status)
}

// Is permite errors.Is(err, domain.ErrInvalidState).
func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}
