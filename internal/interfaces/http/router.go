package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/application/transaction"
	"github.com/jhoicas/stockflow-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC *usecase.ProductUseCase
	Ledger    *inventory.LedgerUseCase
	Workflow  *transaction.WorkflowUseCase
	JWTSecret string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	// Stock: ajustes manuales y ledger
	stock := api.Group("/stock")
	stockHandler := NewStockHandler(deps.Ledger)
	stock.Post("/adjustments", stockHandler.Adjust)
	stock.Get("/movements", stockHandler.ListMovements)

	// Transactions: ciclo de vida completo
	transactions := api.Group("/transactions")
	txHandler := NewTransactionHandler(deps.Workflow)
	transactions.Post("/", txHandler.Create)
	transactions.Get("/", txHandler.List)
	transactions.Get("/:id", txHandler.GetByID)
	transactions.Post("/:id/confirm", txHandler.Confirm)
	transactions.Post("/:id/complete", txHandler.Complete)
	transactions.Post("/:id/cancel", txHandler.Cancel)
	transactions.Delete("/:id", txHandler.Delete)
}
