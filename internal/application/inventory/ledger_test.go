package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
//
// store simula la BD; el fake de TxRunner toma un snapshot antes de ejecutar fn
// y lo restaura si fn falla, imitando el rollback real. Así los tests de
// atomicidad verifican que una falla a mitad de la unidad atómica no deja
// efectos parciales.
// ──────────────────────────────────────────────────────────────────────────────

type store struct {
	products  map[string]*entity.Product
	stocks    map[string]*entity.Stock
	movements []*entity.StockMovement

	failMovementCreate bool // simula falla de BD al insertar el movimiento
}

func newStore() *store {
	return &store{
		products: make(map[string]*entity.Product),
		stocks:   make(map[string]*entity.Stock),
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

// lastMovement devuelve el movimiento más reciente de un producto, o nil.
func (s *store) lastMovement(productID string) *entity.StockMovement {
	for i := len(s.movements) - 1; i >= 0; i-- {
		if s.movements[i].ProductID == productID {
			return s.movements[i]
		}
	}
	return nil
}

type fakeProductRepo struct{ s *store }

func (r *fakeProductRepo) Create(p *entity.Product) error {
	r.s.products[p.ID] = p
	return nil
}

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

func (r *fakeProductRepo) Update(p *entity.Product) error {
	r.s.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) Delete(id string) error {
	delete(r.s.products, id)
	return nil
}

type fakeStockRepo struct{ s *store }

func (r *fakeStockRepo) Create(st *entity.Stock) error {
	r.s.stocks[st.ProductID] = st
	return nil
}

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
	if r.s.failMovementCreate {
		return errors.New("falla simulada de BD")
	}
	r.s.movements = append(r.s.movements, m)
	return nil
}

func (r *fakeMovementRepo) GetLastByProduct(productID string) (*entity.StockMovement, error) {
	m := r.s.lastMovement(productID)
	if m == nil {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (r *fakeMovementRepo) List(productID string, limit, offset int) ([]*repository.MovementWithProduct, int, error) {
	var all []*repository.MovementWithProduct
	// más reciente primero, como el repositorio real
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if productID != "" && m.ProductID != productID {
			continue
		}
		mw := &repository.MovementWithProduct{StockMovement: *m}
		if p, ok := r.s.products[m.ProductID]; ok {
			mw.ProductSKU = p.SKU
			mw.ProductName = p.Name
		}
		all = append(all, mw)
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
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

const (
	testActorID   = "user-1"
	testProductID = "prod-1"
)

// seedProduct siembra producto, stock y el movimiento INIT correspondiente, igual
// que un alta real: el registro de stock siempre coincide con el saldo del ledger.
func seedProduct(s *store, id, sku, name string, quantity int64) {
	now := time.Now()
	s.products[id] = &entity.Product{
		ID:           id,
		SKU:          sku,
		Name:         name,
		SellingPrice: decimal.NewFromInt(100),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.stocks[id] = &entity.Stock{ProductID: id, Quantity: quantity, LastMovementAt: now}
	if quantity > 0 {
		s.movements = append(s.movements, &entity.StockMovement{
			ID:           "init-" + id,
			ProductID:    id,
			Type:         entity.MovementTypeINIT,
			Quantity:     quantity,
			BalanceAfter: quantity,
			CreatedBy:    testActorID,
			CreatedAt:    now,
		})
	}
}

func buildLedger(s *store) *inventory.LedgerUseCase {
	return inventory.NewLedgerUseCase(
		&fakeTxRunner{s: s},
		&fakeProductRepo{s: s},
		&fakeMovementRepo{s: s},
		nil, // sin sink de eventos en tests unitarios
	)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustes manuales: add / remove / set
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjust_Add_SumaYRegistraMovimiento(t *testing.T) {
	s := newStore()
	seedProduct(s, testProductID, "BRK-PAD-F", "Pastillas de freno", 10)
	uc := buildLedger(s)

	result, err := uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: testProductID,
		Kind:      dto.AdjustmentAdd,
		Quantity:  5,
		Reason:    "reposición",
		ActorID:   testActorID,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), result.PreviousQuantity)
	assert.Equal(t, int64(15), result.NewQuantity)
	assert.Equal(t, int64(5), result.Adjustment)
	assert.Equal(t, int64(15), s.stocks[testProductID].Quantity,
		"el registro de stock debe reflejar la nueva cantidad")

	mov := s.lastMovement(testProductID)
	require.NotNil(t, mov, "debe agregarse un movimiento al ledger")
	assert.Equal(t, entity.MovementTypeADJUST, mov.Type)
	assert.Equal(t, int64(5), mov.Quantity, "el delta del movimiento lleva signo positivo")
	assert.Equal(t, int64(15), mov.BalanceAfter)
	assert.Equal(t, testActorID, mov.CreatedBy)
	assert.Empty(t, mov.ReferenceType, "un ajuste manual no referencia ningún documento")
}

func TestAdjust_Remove_RestaConDeltaNegativo(t *testing.T) {
	s := newStore()
	seedProduct(s, testProductID, "SKU-1", "Producto", 10)
	uc := buildLedger(s)

	result, err := uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: testProductID,
		Kind:      dto.AdjustmentRemove,
		Quantity:  4,
		ActorID:   testActorID,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(6), result.NewQuantity)
	assert.Equal(t, int64(-4), result.Adjustment)

	mov := s.lastMovement(testProductID)
	require.NotNil(t, mov)
	assert.Equal(t, int64(-4), mov.Quantity)
	assert.Equal(t, int64(6), mov.BalanceAfter)
}

func TestAdjust_Remove_MasQueDisponible_Falla(t *testing.T) {
	s := newStore()
	seedProduct(s, testProductID, "SKU-1", "Producto", 3)
	uc := buildLedger(s)

	_, err := uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: testProductID,
		Kind:      dto.AdjustmentRemove,
		Quantity:  5,
		ActorID:   testActorID,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Items, 1)
	assert.Equal(t, int64(5), stockErr.Items[0].Required)
	assert.Equal(t, int64(3), stockErr.Items[0].Available)

	assert.Equal(t, int64(3), s.stocks[testProductID].Quantity, "el stock no debe cambiar")
	assert.Len(t, s.movements, 1, "solo debe quedar el INIT de la siembra")
}

func TestAdjust_Set_CalculaDeltaContraCantidadActual(t *testing.T) {
	s := newStore()
	seedProduct(s, testProductID, "SKU-1", "Producto", 10)
	uc := buildLedger(s)

	// set por encima: delta positivo
	result, err := uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: testProductID,
		Kind:      dto.AdjustmentSet,
		Quantity:  25,
		ActorID:   testActorID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15), result.Adjustment)
	assert.Equal(t, int64(25), s.lastMovement(testProductID).BalanceAfter)

	// set por debajo: delta negativo
	result, err = uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: testProductID,
		Kind:      dto.AdjustmentSet,
		Quantity:  20,
		ActorID:   testActorID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-5), result.Adjustment)
	assert.Equal(t, int64(20), s.stocks[testProductID].Quantity)
}

func TestAdjust_Set_AlValorActual_NoEscribeMovimiento(t *testing.T) {
	s := newStore()
	seedProduct(s, testProductID, "SKU-1", "Producto", 10)
	uc := buildLedger(s)

	result, err := uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: testProductID,
		Kind:      dto.AdjustmentSet,
		Quantity:  10,
		ActorID:   testActorID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Adjustment)
	assert.Len(t, s.movements, 1, "set al valor actual no debe generar movimiento (queda solo el INIT)")
}

func TestAdjust_Set_ACero_EsValido(t *testing.T) {
	s := newStore()
	seedProduct(s, testProductID, "SKU-1", "Producto", 7)
	uc := buildLedger(s)

	result, err := uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: testProductID,
		Kind:      dto.AdjustmentSet,
		Quantity:  0,
		ActorID:   testActorID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.NewQuantity)
	assert.Equal(t, int64(-7), s.lastMovement(testProductID).Quantity)
}

func TestAdjust_EntradasInvalidas(t *testing.T) {
	s := newStore()
	seedProduct(s, testProductID, "SKU-1", "Producto", 10)
	uc := buildLedger(s)

	cases := []struct {
		name  string
		input inventory.AdjustInput
	}{
		{"add con cantidad cero", inventory.AdjustInput{ProductID: testProductID, Kind: dto.AdjustmentAdd, Quantity: 0}},
		{"remove con cantidad negativa", inventory.AdjustInput{ProductID: testProductID, Kind: dto.AdjustmentRemove, Quantity: -3}},
		{"set con objetivo negativo", inventory.AdjustInput{ProductID: testProductID, Kind: dto.AdjustmentSet, Quantity: -1}},
		{"tipo de ajuste desconocido", inventory.AdjustInput{ProductID: testProductID, Kind: "increment", Quantity: 5}},
		{"tipo de movimiento no manual", inventory.AdjustInput{ProductID: testProductID, Kind: dto.AdjustmentAdd, Quantity: 5, MovementType: entity.MovementTypeSaleOut}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.input.ActorID = testActorID
			_, err := uc.Adjust(context.Background(), tc.input)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Len(t, s.movements, 1, "ninguna entrada inválida debe tocar el ledger (queda solo el INIT)")
}

func TestAdjust_ProductoInexistente(t *testing.T) {
	uc := buildLedger(newStore())

	_, err := uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: "no-existe",
		Kind:      dto.AdjustmentAdd,
		Quantity:  1,
		ActorID:   testActorID,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjust_TipoDamage_QuedaEnElLedger(t *testing.T) {
	s := newStore()
	seedProduct(s, testProductID, "SKU-1", "Producto", 10)
	uc := buildLedger(s)

	_, err := uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID:    testProductID,
		Kind:         dto.AdjustmentRemove,
		Quantity:     2,
		MovementType: entity.MovementTypeDamage,
		Reason:       "caja dañada en bodega",
		ActorID:      testActorID,
	})
	require.NoError(t, err)

	mov := s.lastMovement(testProductID)
	assert.Equal(t, entity.MovementTypeDamage, mov.Type)
	assert.Equal(t, "caja dañada en bodega", mov.Notes)
}

// ──────────────────────────────────────────────────────────────────────────────
// Invariantes del ledger
// ──────────────────────────────────────────────────────────────────────────────

// La cadena de saldos debe ser consistente: cada BalanceAfter es el anterior más
// el delta, y la cantidad del stock siempre coincide con el último BalanceAfter.
func TestAdjust_CadenaDeSaldosConsistente(t *testing.T) {
	s := newStore()
	seedProduct(s, testProductID, "SKU-1", "Producto", 0)
	uc := buildLedger(s)
	ctx := context.Background()

	steps := []struct {
		kind string
		qty  int64
	}{
		{dto.AdjustmentAdd, 10},
		{dto.AdjustmentRemove, 3},
		{dto.AdjustmentAdd, 8},
		{dto.AdjustmentSet, 20},
		{dto.AdjustmentRemove, 5},
	}
	for _, step := range steps {
		_, err := uc.Adjust(ctx, inventory.AdjustInput{
			ProductID: testProductID,
			Kind:      step.kind,
			Quantity:  step.qty,
			ActorID:   testActorID,
		})
		require.NoError(t, err)
	}

	var balance int64
	for i, mov := range s.movements {
		assert.Equal(t, balance+mov.Quantity, mov.BalanceAfter,
			"movimiento %d: BalanceAfter debe ser el saldo anterior más el delta", i)
		balance = mov.BalanceAfter
	}
	assert.Equal(t, balance, s.stocks[testProductID].Quantity,
		"la cantidad del stock debe coincidir con el BalanceAfter más reciente")
	assert.Equal(t, int64(15), balance)
}

// Si el insert del movimiento falla, la actualización del stock debe revertirse:
// stock y movimiento son una sola unidad atómica.
func TestAdjust_FallaAlInsertarMovimiento_RevierteStock(t *testing.T) {
	s := newStore()
	seedProduct(s, testProductID, "SKU-1", "Producto", 10)
	s.failMovementCreate = true
	uc := buildLedger(s)

	_, err := uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: testProductID,
		Kind:      dto.AdjustmentAdd,
		Quantity:  5,
		ActorID:   testActorID,
	})
	require.Error(t, err)

	assert.Equal(t, int64(10), s.stocks[testProductID].Quantity,
		"el stock debe quedar como estaba antes del ajuste fallido")
	assert.Len(t, s.movements, 1)
}

// El registro de stock es una proyección del ledger: si alguien lo toca por fuera
// y deja de coincidir con el saldo del último movimiento, toda mutación aborta
// antes de escribir.
func TestAdjust_ProyeccionDesincronizada_AbortaSinEscribir(t *testing.T) {
	s := newStore()
	seedProduct(s, testProductID, "SKU-1", "Producto", 10)
	s.stocks[testProductID].Quantity = 7 // corrupción simulada: el ledger dice 10
	uc := buildLedger(s)

	_, err := uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: testProductID,
		Kind:      dto.AdjustmentAdd,
		Quantity:  5,
		ActorID:   testActorID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "desincronizado")

	assert.Equal(t, int64(7), s.stocks[testProductID].Quantity, "nada debe escribirse sobre un registro corrupto")
	assert.Len(t, s.movements, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// InitStockInTx
// ──────────────────────────────────────────────────────────────────────────────

func TestInitStock_ConCantidadInicial_CreaMovimientoINIT(t *testing.T) {
	s := newStore()
	s.products[testProductID] = &entity.Product{ID: testProductID, SKU: "SKU-1", Name: "Producto", IsActive: true}
	uc := buildLedger(s)

	err := uc.InitStockInTx(&fakeMovementRepo{s: s}, &fakeStockRepo{s: s}, testProductID, 12, testActorID, time.Now())
	require.NoError(t, err)

	require.NotNil(t, s.stocks[testProductID])
	assert.Equal(t, int64(12), s.stocks[testProductID].Quantity)

	mov := s.lastMovement(testProductID)
	require.NotNil(t, mov)
	assert.Equal(t, entity.MovementTypeINIT, mov.Type)
	assert.Equal(t, int64(12), mov.Quantity)
	assert.Equal(t, int64(12), mov.BalanceAfter)
}

func TestInitStock_SinCantidadInicial_NoEscribeMovimiento(t *testing.T) {
	s := newStore()
	uc := buildLedger(s)

	err := uc.InitStockInTx(&fakeMovementRepo{s: s}, &fakeStockRepo{s: s}, testProductID, 0, testActorID, time.Now())
	require.NoError(t, err)

	require.NotNil(t, s.stocks[testProductID], "el registro de stock se crea aunque arranque en cero")
	assert.Equal(t, int64(0), s.stocks[testProductID].Quantity)
	assert.Empty(t, s.movements, "cantidad inicial cero no genera movimiento INIT")
}

// ──────────────────────────────────────────────────────────────────────────────
// Listado del ledger
// ──────────────────────────────────────────────────────────────────────────────

func TestListMovements_FiltraPorProductoYEnriquece(t *testing.T) {
	s := newStore()
	seedProduct(s, "prod-a", "SKU-A", "Producto A", 10)
	seedProduct(s, "prod-b", "SKU-B", "Producto B", 10)
	uc := buildLedger(s)
	ctx := context.Background()

	for _, id := range []string{"prod-a", "prod-b", "prod-a"} {
		_, err := uc.Adjust(ctx, inventory.AdjustInput{
			ProductID: id, Kind: dto.AdjustmentAdd, Quantity: 1, ActorID: testActorID,
		})
		require.NoError(t, err)
	}

	resp, err := uc.ListMovements(ctx, "prod-a", dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Meta.Total, "INIT de la siembra más dos ajustes")
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "SKU-A", resp.Data[0].ProductSKU)
	assert.Equal(t, "Producto A", resp.Data[0].ProductName)

	// sin filtro: los movimientos de ambos productos
	resp, err = uc.ListMovements(ctx, "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Meta.Total)
}
