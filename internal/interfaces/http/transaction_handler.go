package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/transaction"
)

// TransactionHandler maneja el ciclo de vida de transacciones (protegido).
type TransactionHandler struct {
	workflow *transaction.WorkflowUseCase
}

// NewTransactionHandler construye el handler.
func NewTransactionHandler(workflow *transaction.WorkflowUseCase) *TransactionHandler {
	return &TransactionHandler{workflow: workflow}
}

// Create godoc
// @Summary      Crear transacción (SALE | PURCHASE) en estado DRAFT
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransactionRequest  true  "type, counterpart_name, notes, items"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transactions [post]
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.workflow.Create(c.Context(), actorID, in)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetByID godoc
// @Summary      Obtener transacción con ítems y log de auditoría
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la transacción"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [get]
func (h *TransactionHandler) GetByID(c *fiber.Ctx) error {
	resp, err := h.workflow.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(resp)
}

// List godoc
// @Summary      Listar transacciones
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        type    query  string  false  "SALE | PURCHASE"
// @Param        status  query  string  false  "DRAFT | CONFIRMED | COMPLETED | CANCELED"
// @Param        page    query  int     false  "Página (1-based)"
// @Param        limit   query  int     false  "Tamaño de página (máx 100)"
// @Success      200  {object}  dto.TransactionListResponse
// @Router       /api/transactions [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	resp, err := h.workflow.List(c.Context(), c.Query("type"), c.Query("status"), page)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(resp)
}

// Confirm godoc
// @Summary      Confirmar transacción (DRAFT → CONFIRMED)
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la transacción"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id}/confirm [post]
func (h *TransactionHandler) Confirm(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	resp, err := h.workflow.Confirm(c.Context(), c.Params("id"), actorID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(resp)
}

// Complete godoc
// @Summary      Completar transacción (CONFIRMED → COMPLETED, muta stock)
// @Description  En ventas valida stock de todos los ítems; si alguno falla retorna 409 INSUFFICIENT_STOCK con la lista completa en details y no muta nada.
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la transacción"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id}/complete [post]
func (h *TransactionHandler) Complete(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	resp, err := h.workflow.Complete(c.Context(), c.Params("id"), actorID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(resp)
}

// Cancel godoc
// @Summary      Cancelar transacción (DRAFT|CONFIRMED → CANCELED)
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la transacción"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id}/cancel [post]
func (h *TransactionHandler) Cancel(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	resp, err := h.workflow.Cancel(c.Context(), c.Params("id"), actorID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(resp)
}

// Delete godoc
// @Summary      Eliminar transacción no completada
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la transacción"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	if err := h.workflow.Delete(c.Context(), c.Params("id")); err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"message": "transacción eliminada"})
}
