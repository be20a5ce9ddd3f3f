package repository

import "github.com/jhoicas/stockflow-api/internal/domain/entity"

// ProductRepository define el puerto de persistencia del catálogo (DIP).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetBySKU(sku string) (*entity.Product, error)
	List(onlyActive bool, limit, offset int) ([]*entity.Product, int, error)
	Update(product *entity.Product) error
	// Delete elimina el producto. Retorna domain.ErrConflict si está referenciado
	// por alguna transacción (el historial completado es inmutable).
	Delete(id string) error
}
