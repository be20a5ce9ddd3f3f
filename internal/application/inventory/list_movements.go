package inventory

import (
	"context"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
)

// ListMovements lista el ledger, opcionalmente filtrado por producto, más reciente primero.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, productID string, page dto.PageRequest) (*dto.MovementListResponse, error) {
	page.DefaultPage()
	movements, total, err := uc.movementRepo.List(productID, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	resp := &dto.MovementListResponse{
		Data: make([]dto.MovementResponse, 0, len(movements)),
		Meta: dto.Meta{Total: total, Page: page.Page, Limit: page.Limit},
	}
	for _, m := range movements {
		resp.Data = append(resp.Data, dto.MovementResponse{
			ID:            m.ID,
			ProductID:     m.ProductID,
			ProductSKU:    m.ProductSKU,
			ProductName:   m.ProductName,
			Type:          m.Type,
			Quantity:      m.Quantity,
			BalanceAfter:  m.BalanceAfter,
			Notes:         m.Notes,
			ReferenceType: m.ReferenceType,
			ReferenceID:   m.ReferenceID,
			CreatedBy:     m.CreatedBy,
			CreatedAt:     m.CreatedAt,
		})
	}
	return resp, nil
}
