package transaction

import (
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// validateSaleStock verifica, para cada ítem de una venta, que el stock disponible
// cubre la cantidad solicitada. Acumula TODAS las fallas (no solo la primera) para
// que el caller pueda reportarlas en una sola respuesta.
//
// Se ejecuta dentro de la transacción de completación pero sin bloquear filas: la
// mutación final de cada ítem re-verifica bajo SELECT FOR UPDATE, así que dos
// completaciones concurrentes no pueden pasar ambas del punto donde la demanda
// combinada supera el stock.
func validateSaleStock(
	stockRepo repository.StockRepository,
	items []*entity.TransactionItem,
	products map[string]*entity.Product,
) error {
	var shortages []domain.StockShortage
	for _, item := range items {
		product := products[item.ProductID]
		stock, err := stockRepo.Get(item.ProductID)
		if err != nil {
			return err
		}
		var available int64
		if stock != nil {
			available = stock.Quantity
		}
		if available < item.Quantity {
			shortages = append(shortages, domain.StockShortage{
				ProductID:   product.ID,
				SKU:         product.SKU,
				ProductName: product.Name,
				Required:    item.Quantity,
				Available:   available,
			})
		}
	}
	if len(shortages) > 0 {
		return &domain.InsufficientStockError{Items: shortages}
	}
	return nil
}
