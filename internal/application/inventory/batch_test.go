package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-scan/internal/application/inventory"
	"github.com/jhoicas/Inventario-scan/internal/domain"
	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
	"github.com/jhoicas/Inventario-scan/internal/infrastructure/memory"
)

const (
	codeA = code.ProductCode("AA-01-01-01")
	codeB = code.ProductCode("BB-01-01-01")
	codeC = code.ProductCode("CC-01-01-01")
)

func newBatch(t *testing.T) (*inventory.BatchAggregator, *memory.Store) {
	t.Helper()
	s := newStore(t)
	for _, c := range []code.ProductCode{codeA, codeB, codeC} {
		s.AddProduct(entity.Product{Code: c, Name: string(c)})
	}
	eng, _ := newEngine(t, s)
	return inventory.NewBatchAggregator(eng, zerolog.Nop()), s
}

func add(t *testing.T, b *inventory.BatchAggregator, c code.ProductCode, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		_, err := b.AddOrIncrement(c)
		require.NoError(t, err)
	}
}

func TestBatch_AgregarIncrementaEnOrden(t *testing.T) {
	b, _ := newBatch(t)
	add(t, b, codeA, 1)
	add(t, b, codeB, 1)
	qty, err := b.AddOrIncrement(codeA)
	require.NoError(t, err)
	assert.Equal(t, 2, qty)

	assert.Equal(t, []entity.CartLine{{Code: codeA, Qty: 2}, {Code: codeB, Qty: 1}}, b.Lines())
	assert.Equal(t, 3, b.TotalUnits())
}

func TestBatch_SetQtyYRemove(t *testing.T) {
	b, _ := newBatch(t)
	add(t, b, codeA, 1)
	add(t, b, codeB, 1)
	add(t, b, codeC, 1)

	require.NoError(t, b.SetQty(codeB, 7))
	assert.ErrorIs(t, b.SetQty(codeB, 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, b.SetQty("ZZ-01-01-01", 2), domain.ErrNotFound)

	require.NoError(t, b.Remove(codeA))
	require.NoError(t, b.Remove("ZZ-01-01-01"))
	assert.Equal(t, []entity.CartLine{{Code: codeB, Qty: 7}, {Code: codeC, Qty: 1}}, b.Lines())

	// el índice sigue consistente tras quitar una línea
	qty, err := b.AddOrIncrement(codeC)
	require.NoError(t, err)
	assert.Equal(t, 2, qty)
}

func TestBatch_SubmitFallaParcialConservaLineasFallidas(t *testing.T) {
	b, s := newBatch(t)
	add(t, b, codeA, 2)
	add(t, b, codeB, 1)
	add(t, b, codeC, 3)
	s.SetFault(func(c memory.Call) error {
		if c.Op == memory.OpRecordLocationDelta && c.Code == codeB {
			return errors.New("fila bloqueada")
		}
		return nil
	})

	res, err := b.Submit(context.Background(), inventory.BatchParams{Kind: inventory.KindReceive, ToLocationID: l1})
	require.NoError(t, err)
	assert.Equal(t, []entity.CartLine{{Code: codeA, Qty: 2}, {Code: codeC, Qty: 3}}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, entity.CartLine{Code: codeB, Qty: 1}, res.Failed[0].Line)
	assert.ErrorIs(t, res.Failed[0].Err, domain.ErrStore)
	assert.Equal(t, 5, res.UnitsApplied)
	assert.ErrorIs(t, res.Err(), domain.ErrPartialBatchFailure)

	assert.Equal(t, []entity.CartLine{{Code: codeB, Qty: 1}}, b.Lines())
	assert.Equal(t, 3, s.Calls(memory.OpRecordLocationDelta), "una llamada por línea, sin detenerse")
}

func TestBatch_SubmitCompletoVaciaCarrito(t *testing.T) {
	b, _ := newBatch(t)
	add(t, b, codeA, 2)

	res, err := b.Submit(context.Background(), inventory.BatchParams{Kind: inventory.KindReceive, ToLocationID: l1})
	require.NoError(t, err)
	assert.NoError(t, res.Err())
	assert.Empty(t, b.Lines())
	assert.Equal(t, 2, res.UnitsApplied)
}

func TestBatch_SubmitRechazos(t *testing.T) {
	b, s := newBatch(t)
	ctx := context.Background()

	_, err := b.Submit(ctx, inventory.BatchParams{Kind: inventory.KindReceive, ToLocationID: l1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "carrito vacío")

	add(t, b, codeA, 1)
	_, err = b.Submit(ctx, inventory.BatchParams{Kind: inventory.KindAdjust})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "ajuste en lote")

	_, err = b.Submit(ctx, inventory.BatchParams{Kind: inventory.KindSend})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "salida sin origen")

	assert.Len(t, b.Lines(), 1, "el carrito no cambia si el lote no inicia")
	assert.Zero(t, s.Calls(memory.OpRecordLocationDelta))
}

func TestBatch_SubmitContextoCancelado(t *testing.T) {
	b, _ := newBatch(t)
	add(t, b, codeA, 1)
	add(t, b, codeB, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := b.Submit(ctx, inventory.BatchParams{Kind: inventory.KindReceive, ToLocationID: l1})
	require.NoError(t, err)
	assert.Len(t, res.Failed, 2)
	assert.ErrorIs(t, res.Failed[0].Err, context.Canceled)
	assert.Len(t, b.Lines(), 2)
}

// blockingApplier retiene Apply hasta que se cierre release.
type blockingApplier struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (a *blockingApplier) Validate(inventory.MovementRequest) error { return nil }

func (a *blockingApplier) Apply(ctx context.Context, req inventory.MovementRequest) (*inventory.ApplyResult, error) {
	a.once.Do(func() { close(a.entered) })
	<-a.release
	return &inventory.ApplyResult{Movements: []*entity.Movement{{Code: req.Code, Delta: req.Quantity}}}, nil
}

func TestBatch_MutacionesDuranteEnvioDevuelvenBusy(t *testing.T) {
	ap := &blockingApplier{entered: make(chan struct{}), release: make(chan struct{})}
	b := inventory.NewBatchAggregator(ap, zerolog.Nop())
	add(t, b, codeA, 1)

	done := make(chan *inventory.BatchResult)
	go func() {
		res, _ := b.Submit(context.Background(), inventory.BatchParams{Kind: inventory.KindReceive, ToLocationID: l1})
		done <- res
	}()
	<-ap.entered

	_, err := b.AddOrIncrement(codeB)
	assert.ErrorIs(t, err, domain.ErrBusy)
	assert.ErrorIs(t, b.SetQty(codeA, 3), domain.ErrBusy)
	assert.ErrorIs(t, b.Remove(codeA), domain.ErrBusy)
	assert.ErrorIs(t, b.Clear(), domain.ErrBusy)
	_, err = b.Submit(context.Background(), inventory.BatchParams{Kind: inventory.KindReceive, ToLocationID: l1})
	assert.ErrorIs(t, err, domain.ErrBusy)

	close(ap.release)
	res := <-done
	require.NotNil(t, res)
	assert.Equal(t, 1, res.UnitsApplied)
	assert.Empty(t, b.Lines())
}
