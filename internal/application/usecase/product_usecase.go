package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// StockInitializer crea el registro de stock y el movimiento INIT de un producto
// nuevo dentro de la transacción del caller. Lo implementa inventory.LedgerUseCase.
type StockInitializer interface {
	InitStockInTx(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productID string,
		initial int64,
		actorID string,
		now time.Time,
	) error
}

// ProductUseCase operaciones del catálogo. El alta crea producto + stock + movimiento
// INIT en una sola transacción; el stock nunca se edita por aquí (usar ajustes).
type ProductUseCase struct {
	txRunner    inventory.TxRunner
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
	txRepo      repository.TransactionRepository
	stockInit   StockInitializer
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	txRunner inventory.TxRunner,
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	txRepo repository.TransactionRepository,
	stockInit StockInitializer,
) *ProductUseCase {
	return &ProductUseCase{txRunner: txRunner, productRepo: productRepo, stockRepo: stockRepo, txRepo: txRepo, stockInit: stockInit}
}

// Create da de alta un producto con su registro de stock inicial.
func (uc *ProductUseCase) Create(ctx context.Context, actorID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if in.SKU == "" || in.Name == "" || in.InitialStock < 0 || in.MinStockLevel < 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.CostPrice.LessThan(decimal.Zero) || in.SellingPrice.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.productRepo.GetBySKU(in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	product := &entity.Product{
		ID:            uuid.New().String(),
		SKU:           in.SKU,
		Name:          in.Name,
		Description:   in.Description,
		CostPrice:     in.CostPrice,
		SellingPrice:  in.SellingPrice,
		MinStockLevel: in.MinStockLevel,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		if err := productRepo.Create(product); err != nil {
			return err
		}
		return uc.stockInit.InitStockInTx(movRepo, stockRepo, product.ID, in.InitialStock, actorID, now)
	})
	if err != nil {
		return nil, err
	}
	return uc.toResponse(product)
}

// GetByID obtiene un producto con su stock actual.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return uc.toResponse(product)
}

// List lista productos con cantidad y bandera de stock bajo.
func (uc *ProductUseCase) List(ctx context.Context, onlyActive bool, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	products, total, err := uc.productRepo.List(onlyActive, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	resp := &dto.ProductListResponse{
		Data: make([]dto.ProductResponse, 0, len(products)),
		Meta: dto.Meta{Total: total, Page: page.Page, Limit: page.Limit},
	}
	for _, p := range products {
		pr, err := uc.toResponse(p)
		if err != nil {
			return nil, err
		}
		resp.Data = append(resp.Data, *pr)
	}
	return resp, nil
}

// Update modifica datos del catálogo. SKU duplicado retorna ErrDuplicate.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if in.SKU != nil && *in.SKU != product.SKU {
		if *in.SKU == "" {
			return nil, domain.ErrInvalidInput
		}
		other, err := uc.productRepo.GetBySKU(*in.SKU)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, domain.ErrDuplicate
		}
		product.SKU = *in.SKU
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, domain.ErrInvalidInput
		}
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.CostPrice != nil {
		if in.CostPrice.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		product.CostPrice = *in.CostPrice
	}
	if in.SellingPrice != nil {
		if in.SellingPrice.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		product.SellingPrice = *in.SellingPrice
	}
	if in.MinStockLevel != nil {
		if *in.MinStockLevel < 0 {
			return nil, domain.ErrInvalidInput
		}
		product.MinStockLevel = *in.MinStockLevel
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	product.UpdatedAt = time.Now()
	if err := uc.productRepo.Update(product); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrDuplicate
		}
		return nil, err
	}
	return uc.toResponse(product)
}

// Delete elimina un producto junto con su stock y movimientos. Prohibido una vez
// referenciado por cualquier transacción: el historial comercial es inmutable.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	product, err := uc.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	refs, err := uc.txRepo.CountByProduct(id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrConflict
	}
	// el FK de transaction_items respalda esta guarda ante carreras
	return uc.productRepo.Delete(id)
}

func (uc *ProductUseCase) toResponse(product *entity.Product) (*dto.ProductResponse, error) {
	var qty int64
	stock, err := uc.stockRepo.Get(product.ID)
	if err != nil {
		return nil, err
	}
	if stock != nil {
		qty = stock.Quantity
	}
	return &dto.ProductResponse{
		ID:            product.ID,
		SKU:           product.SKU,
		Name:          product.Name,
		Description:   product.Description,
		CostPrice:     product.CostPrice,
		SellingPrice:  product.SellingPrice,
		MinStockLevel: product.MinStockLevel,
		IsActive:      product.IsActive,
		Quantity:      qty,
		LowStock:      qty < product.MinStockLevel,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}, nil
}
