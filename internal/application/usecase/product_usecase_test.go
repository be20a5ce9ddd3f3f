package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/application/usecase"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria (con rollback por snapshot en el TxRunner)
// ──────────────────────────────────────────────────────────────────────────────

type store struct {
	products  map[string]*entity.Product
	stocks    map[string]*entity.Stock
	movements []*entity.StockMovement
	txRefs    map[string]int // transacciones que referencian cada producto
}

func newStore() *store {
	return &store{
		products: make(map[string]*entity.Product),
		stocks:   make(map[string]*entity.Stock),
		txRefs:   make(map[string]int),
	}
}

func (s *store) snapshot() *store {
	cp := newStore()
	for id, p := range s.products {
		c := *p
		cp.products[id] = &c
	}
	for id, st := range s.stocks {
		c := *st
		cp.stocks[id] = &c
	}
	cp.movements = append(cp.movements, s.movements...)
	return cp
}

func (s *store) restore(snap *store) {
	s.products = snap.products
	s.stocks = snap.stocks
	s.movements = snap.movements
}

type fakeProductRepo struct{ s *store }

func (r *fakeProductRepo) Create(p *entity.Product) error { r.s.products[p.ID] = p; return nil }

func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *fakeProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	for _, p := range r.s.products {
		if p.SKU == sku && p.IsActive {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) List(onlyActive bool, limit, offset int) ([]*entity.Product, int, error) {
	var out []*entity.Product
	for _, p := range r.s.products {
		if onlyActive && !p.IsActive {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	return out, len(out), nil
}

func (r *fakeProductRepo) Update(p *entity.Product) error { r.s.products[p.ID] = p; return nil }

func (r *fakeProductRepo) Delete(id string) error {
	delete(r.s.products, id)
	delete(r.s.stocks, id)
	return nil
}

type fakeStockRepo struct{ s *store }

func (r *fakeStockRepo) Create(st *entity.Stock) error { r.s.stocks[st.ProductID] = st; return nil }

func (r *fakeStockRepo) Get(productID string) (*entity.Stock, error) {
	st, ok := r.s.stocks[productID]
	if !ok {
		return nil, nil
	}
	c := *st
	return &c, nil
}

func (r *fakeStockRepo) GetForUpdate(productID string) (*entity.Stock, error) {
	return r.Get(productID)
}

func (r *fakeStockRepo) UpdateQuantity(productID string, quantity int64, at time.Time) error {
	st, ok := r.s.stocks[productID]
	if !ok {
		return domain.ErrNotFound
	}
	st.Quantity = quantity
	st.LastMovementAt = at
	return nil
}

type fakeMovementRepo struct{ s *store }

func (r *fakeMovementRepo) Create(m *entity.StockMovement) error {
	r.s.movements = append(r.s.movements, m)
	return nil
}

func (r *fakeMovementRepo) GetLastByProduct(productID string) (*entity.StockMovement, error) {
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		if r.s.movements[i].ProductID == productID {
			c := *r.s.movements[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeMovementRepo) List(productID string, limit, offset int) ([]*repository.MovementWithProduct, int, error) {
	return nil, 0, nil
}

// fakeTxnRepo solo implementa lo que el catálogo necesita: el conteo de referencias.
type fakeTxnRepo struct{ s *store }

func (r *fakeTxnRepo) Create(*entity.Transaction) error                     { return nil }
func (r *fakeTxnRepo) GetByID(string) (*entity.Transaction, error)          { return nil, nil }
func (r *fakeTxnRepo) GetByIDForUpdate(string) (*entity.Transaction, error) { return nil, nil }
func (r *fakeTxnRepo) UpdateStatus(*entity.Transaction) error               { return nil }
func (r *fakeTxnRepo) AddLog(*entity.TransactionLog) error                  { return nil }
func (r *fakeTxnRepo) Delete(string) error                                  { return nil }

func (r *fakeTxnRepo) List(string, string, int, int) ([]*entity.Transaction, int, error) {
	return nil, 0, nil
}

func (r *fakeTxnRepo) CountByProduct(productID string) (int, error) {
	return r.s.txRefs[productID], nil
}

type fakeTxRunner struct{ s *store }

func (r *fakeTxRunner) Run(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	snap := r.s.snapshot()
	err := fn(&fakeMovementRepo{s: r.s}, &fakeStockRepo{s: r.s}, &fakeProductRepo{s: r.s})
	if err != nil {
		r.s.restore(snap)
	}
	return err
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

const testActorID = "user-1"

func buildUseCase(s *store) *usecase.ProductUseCase {
	runner := &fakeTxRunner{s: s}
	ledger := inventory.NewLedgerUseCase(runner, &fakeProductRepo{s: s}, &fakeMovementRepo{s: s}, nil)
	return usecase.NewProductUseCase(runner, &fakeProductRepo{s: s}, &fakeStockRepo{s: s}, &fakeTxnRepo{s: s}, ledger)
}

func createRequest() dto.CreateProductRequest {
	return dto.CreateProductRequest{
		SKU:           "BRK-PAD-F",
		Name:          "Pastillas de freno delanteras",
		Description:   "Juego de pastillas cerámicas",
		CostPrice:     decimal.RequireFromString("45.00"),
		SellingPrice:  decimal.RequireFromString("65.00"),
		MinStockLevel: 5,
		InitialStock:  12,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_AltaConStockInicial(t *testing.T) {
	s := newStore()
	uc := buildUseCase(s)

	resp, err := uc.Create(context.Background(), testActorID, createRequest())
	require.NoError(t, err)

	assert.Equal(t, "BRK-PAD-F", resp.SKU)
	assert.True(t, resp.IsActive, "un producto nuevo nace activo")
	assert.Equal(t, int64(12), resp.Quantity)
	assert.False(t, resp.LowStock, "12 en mano con umbral 5 no es stock bajo")

	// stock + movimiento INIT en la misma alta
	require.NotNil(t, s.stocks[resp.ID])
	assert.Equal(t, int64(12), s.stocks[resp.ID].Quantity)
	require.Len(t, s.movements, 1)
	assert.Equal(t, entity.MovementTypeINIT, s.movements[0].Type)
	assert.Equal(t, int64(12), s.movements[0].BalanceAfter)
	assert.Equal(t, testActorID, s.movements[0].CreatedBy)
}

func TestCreate_StockInicialCero_SinMovimiento(t *testing.T) {
	s := newStore()
	uc := buildUseCase(s)

	req := createRequest()
	req.InitialStock = 0
	resp, err := uc.Create(context.Background(), testActorID, req)
	require.NoError(t, err)

	assert.Equal(t, int64(0), resp.Quantity)
	assert.True(t, resp.LowStock, "cero en mano con umbral 5 es stock bajo")
	require.NotNil(t, s.stocks[resp.ID], "el registro de stock existe aunque arranque vacío")
	assert.Empty(t, s.movements)
}

func TestCreate_SKUDuplicado(t *testing.T) {
	s := newStore()
	uc := buildUseCase(s)
	ctx := context.Background()

	_, err := uc.Create(ctx, testActorID, createRequest())
	require.NoError(t, err)

	_, err = uc.Create(ctx, testActorID, createRequest())
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCreate_EntradasInvalidas(t *testing.T) {
	uc := buildUseCase(newStore())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*dto.CreateProductRequest)
	}{
		{"SKU vacío", func(r *dto.CreateProductRequest) { r.SKU = "" }},
		{"nombre vacío", func(r *dto.CreateProductRequest) { r.Name = "" }},
		{"stock inicial negativo", func(r *dto.CreateProductRequest) { r.InitialStock = -1 }},
		{"umbral negativo", func(r *dto.CreateProductRequest) { r.MinStockLevel = -1 }},
		{"costo negativo", func(r *dto.CreateProductRequest) { r.CostPrice = decimal.RequireFromString("-1") }},
		{"precio negativo", func(r *dto.CreateProductRequest) { r.SellingPrice = decimal.RequireFromString("-1") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := createRequest()
			tc.mutate(&req)
			_, err := uc.Create(ctx, testActorID, req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Update / Delete
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_CambiaCampos(t *testing.T) {
	s := newStore()
	uc := buildUseCase(s)
	ctx := context.Background()

	created, err := uc.Create(ctx, testActorID, createRequest())
	require.NoError(t, err)

	name := "Pastillas de freno traseras"
	price := decimal.RequireFromString("70.00")
	inactive := false
	resp, err := uc.Update(ctx, created.ID, dto.UpdateProductRequest{
		Name:         &name,
		SellingPrice: &price,
		IsActive:     &inactive,
	})
	require.NoError(t, err)

	assert.Equal(t, name, resp.Name)
	assert.True(t, resp.SellingPrice.Equal(price))
	assert.False(t, resp.IsActive)
	assert.Equal(t, int64(12), resp.Quantity, "el stock no se edita por catálogo")
}

func TestUpdate_SKUEnConflicto(t *testing.T) {
	s := newStore()
	uc := buildUseCase(s)
	ctx := context.Background()

	first, err := uc.Create(ctx, testActorID, createRequest())
	require.NoError(t, err)

	other := createRequest()
	other.SKU = "OIL-FLT-1"
	second, err := uc.Create(ctx, testActorID, other)
	require.NoError(t, err)

	sku := first.SKU
	_, err = uc.Update(ctx, second.ID, dto.UpdateProductRequest{SKU: &sku})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUpdate_ProductoInexistente(t *testing.T) {
	uc := buildUseCase(newStore())
	name := "x"
	_, err := uc.Update(context.Background(), "no-existe", dto.UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_ProductoInexistente(t *testing.T) {
	uc := buildUseCase(newStore())
	err := uc.Delete(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_SinReferencias_Elimina(t *testing.T) {
	s := newStore()
	uc := buildUseCase(s)
	ctx := context.Background()

	created, err := uc.Create(ctx, testActorID, createRequest())
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, created.ID))
	assert.Nil(t, s.products[created.ID])
	assert.Nil(t, s.stocks[created.ID], "el stock se va con el producto")
}

func TestDelete_ReferenciadoPorTransaccion_Prohibido(t *testing.T) {
	s := newStore()
	uc := buildUseCase(s)
	ctx := context.Background()

	created, err := uc.Create(ctx, testActorID, createRequest())
	require.NoError(t, err)
	s.txRefs[created.ID] = 1

	err = uc.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrConflict,
		"un producto con historial comercial no se elimina")
	assert.NotNil(t, s.products[created.ID])
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas
// ──────────────────────────────────────────────────────────────────────────────

func TestList_BanderaDeStockBajo(t *testing.T) {
	s := newStore()
	uc := buildUseCase(s)
	ctx := context.Background()

	low := createRequest()
	low.SKU = "LOW-1"
	low.InitialStock = 2 // por debajo del umbral 5
	_, err := uc.Create(ctx, testActorID, low)
	require.NoError(t, err)

	ok := createRequest()
	ok.SKU = "OK-1"
	ok.InitialStock = 20
	_, err = uc.Create(ctx, testActorID, ok)
	require.NoError(t, err)

	resp, err := uc.List(ctx, true, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)

	bySKU := make(map[string]dto.ProductResponse)
	for _, p := range resp.Data {
		bySKU[p.SKU] = p
	}
	assert.True(t, bySKU["LOW-1"].LowStock)
	assert.False(t, bySKU["OK-1"].LowStock)
}
