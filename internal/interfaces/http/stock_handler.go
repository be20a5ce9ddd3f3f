package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
)

// StockHandler maneja ajustes manuales de stock y el listado del ledger (protegido).
type StockHandler struct {
	ledger *inventory.LedgerUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *inventory.LedgerUseCase) *StockHandler {
	return &StockHandler{ledger: ledger}
}

// Adjust godoc
// @Summary      Ajustar stock de un producto (add | remove | set)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, type (add|remove|set), quantity, movement_type (ADJUST|DAMAGE), reason, notes"
// @Success      200   {object}  dto.AdjustStockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/adjustments [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.ledger.Adjust(c.Context(), inventory.AdjustInput{
		ProductID:    in.ProductID,
		Kind:         in.Type,
		Quantity:     in.Quantity,
		MovementType: in.MovementType,
		Reason:       in.Reason,
		Notes:        in.Notes,
		ActorID:      actorID,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(dto.AdjustStockResponse{
		ProductID:        result.ProductID,
		PreviousQuantity: result.PreviousQuantity,
		NewQuantity:      result.NewQuantity,
		Adjustment:       result.Adjustment,
	})
}

// ListMovements godoc
// @Summary      Listar movimientos del ledger
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Param        page        query  int     false  "Página (1-based)"
// @Param        limit       query  int     false  "Tamaño de página (máx 100)"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/stock/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	resp, err := h.ledger.ListMovements(c.Context(), c.Query("product_id"), page)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(resp)
}
