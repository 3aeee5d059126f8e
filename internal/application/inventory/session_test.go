package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-scan/internal/application/inventory"
	"github.com/jhoicas/Inventario-scan/internal/application/scan"
	"github.com/jhoicas/Inventario-scan/internal/domain"
	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
	"github.com/jhoicas/Inventario-scan/internal/infrastructure/memory"
)

type fakeImages struct{ err error }

func (f fakeImages) ResolveImageURL(_ context.Context, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.test/" + path, nil
}

// fakeClock reloj manual.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock { return &fakeClock{t: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// gatedStore retiene FindProduct del código indicado hasta que se cierre release.
type gatedStore struct {
	*memory.Store
	gate    code.ProductCode
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) FindProduct(ctx context.Context, c code.ProductCode) (bool, error) {
	if c == g.gate {
		close(g.entered)
		<-g.release
	}
	return g.Store.FindProduct(ctx, c)
}

func newSession(t *testing.T, store inventory.Store) (*inventory.Session, *fakeClock) {
	t.Helper()
	clk := newClock()
	return inventory.NewSession("op-1", inventory.SessionDeps{
		Store:  store,
		Images: fakeImages{},
		Log:    zerolog.Nop(),
		Now:    clk.Now,
	}), clk
}

func TestSession_LookupResuelveProducto(t *testing.T) {
	s := newStore(t)
	s.SetOnHand(rb, l1, 5)
	sess, _ := newSession(t, s)

	res, err := sess.Lookup(context.Background(), "https://cdn.example.com/p/rb-10-02-16.jpg")
	require.NoError(t, err)
	require.False(t, res.Superseded)
	require.NotNil(t, res.Product)
	assert.Equal(t, rb, res.Product.Code)
	assert.Equal(t, "https://cdn.test/products/RB-10-02-16.jpg", res.Product.ImageURL)
	assert.Equal(t, 5, res.Product.Balances.Global)

	snap := sess.Snapshot()
	assert.Equal(t, inventory.StateReady, snap.State)
	assert.Empty(t, snap.LastError)
}

func TestSession_LookupCodigoInvalido(t *testing.T) {
	sess, _ := newSession(t, newStore(t))
	_, err := sess.Lookup(context.Background(), "no-es-un-codigo")
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	assert.NotEmpty(t, sess.Snapshot().LastError)
}

func TestSession_LookupProductoInexistente(t *testing.T) {
	sess, _ := newSession(t, newStore(t))
	_, err := sess.Lookup(context.Background(), "ZZ-99-99-99")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	snap := sess.Snapshot()
	assert.Equal(t, inventory.StateIdle, snap.State)
	assert.Nil(t, snap.Product)
	assert.NotEmpty(t, snap.LastError)
}

func TestSession_FallaDeImagenNoEsFatal(t *testing.T) {
	s := newStore(t)
	sess := inventory.NewSession("op-1", inventory.SessionDeps{
		Store:  s,
		Images: fakeImages{err: errors.New("bucket caído")},
		Log:    zerolog.Nop(),
	})
	res, err := sess.Lookup(context.Background(), rb.String())
	require.NoError(t, err)
	assert.Empty(t, res.Product.ImageURL)
	assert.Equal(t, inventory.StateReady, sess.Snapshot().State)
}

func TestSession_FallaDeSaldosVuelveAIdle(t *testing.T) {
	s := newStore(t)
	s.SetFault(func(c memory.Call) error {
		if c.Op == memory.OpGetGlobalOnHand {
			return errors.New("timeout")
		}
		return nil
	})
	sess, _ := newSession(t, s)
	_, err := sess.Lookup(context.Background(), rb.String())
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.Equal(t, inventory.StateIdle, sess.Snapshot().State)
}

func TestSession_ConsultaReemplazadaSeDescarta(t *testing.T) {
	const other = code.ProductCode("TX-4-40-100")
	base := newStore(t)
	base.AddProduct(entity.Product{Code: other, Name: "Tornillo"})
	base.SetOnHand(other, l2, 9)
	g := &gatedStore{Store: base, gate: rb, entered: make(chan struct{}), release: make(chan struct{})}
	sess, _ := newSession(t, g)

	first := make(chan *inventory.LookupResult)
	go func() {
		res, err := sess.Lookup(context.Background(), rb.String())
		assert.NoError(t, err)
		first <- res
	}()
	<-g.entered

	second, err := sess.Lookup(context.Background(), other.String())
	require.NoError(t, err)
	assert.Equal(t, other, second.Product.Code)

	close(g.release)
	res := <-first
	assert.True(t, res.Superseded)
	assert.Nil(t, res.Product)

	snap := sess.Snapshot()
	assert.Equal(t, inventory.StateReady, snap.State)
	require.NotNil(t, snap.Product)
	assert.Equal(t, other, snap.Product.Code, "la consulta vieja no debe pisar el producto actual")
	assert.Equal(t, 9, snap.Product.Balances.Global)
}

func TestSession_ResetInvalidaConsultaEnCurso(t *testing.T) {
	g := &gatedStore{Store: newStore(t), gate: rb, entered: make(chan struct{}), release: make(chan struct{})}
	sess, _ := newSession(t, g)

	done := make(chan *inventory.LookupResult)
	go func() {
		res, _ := sess.Lookup(context.Background(), rb.String())
		done <- res
	}()
	<-g.entered
	require.NoError(t, sess.Reset())
	close(g.release)

	assert.True(t, (<-done).Superseded)
	snap := sess.Snapshot()
	assert.Equal(t, inventory.StateIdle, snap.State)
	assert.Nil(t, snap.Product)
}

func TestSession_ApplySinProducto(t *testing.T) {
	sess, _ := newSession(t, newStore(t))
	_, err := sess.Apply(context.Background(), inventory.MovementRequest{Kind: inventory.KindReceive, Quantity: 1, ToLocationID: l1})
	assert.ErrorIs(t, err, domain.ErrNoProduct)
}

func TestSession_ApplyExitoso(t *testing.T) {
	s := newStore(t)
	sess, _ := newSession(t, s)
	ctx := context.Background()
	_, err := sess.Lookup(ctx, rb.String())
	require.NoError(t, err)

	res, err := sess.Apply(ctx, inventory.MovementRequest{Kind: inventory.KindReceive, Quantity: 4, ToLocationID: l1, CreatedBy: "op-1"})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Balances.OnHandAt(l1))

	snap := sess.Snapshot()
	assert.Equal(t, inventory.StateApplied, snap.State)
	assert.Nil(t, snap.Draft)
	require.NotNil(t, snap.Product)
	assert.Equal(t, rb, snap.Product.Code, "el producto se conserva tras aplicar")
	assert.Equal(t, 4, snap.Product.Balances.Global)
	require.Len(t, snap.Product.RecentMovements, 1)
	assert.Equal(t, "L1", snap.Product.RecentMovements[0].ToLocationCode)
}

func TestSession_ApplyFallidoConservaBorrador(t *testing.T) {
	s := newStore(t)
	s.SetOnHand(rb, l1, 2)
	sess, _ := newSession(t, s)
	ctx := context.Background()
	_, err := sess.Lookup(ctx, rb.String())
	require.NoError(t, err)

	_, err = sess.Apply(ctx, inventory.MovementRequest{Kind: inventory.KindSend, Quantity: 3, FromLocationID: l1})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	snap := sess.Snapshot()
	assert.Equal(t, inventory.StateReady, snap.State)
	require.NotNil(t, snap.Draft)
	assert.Equal(t, 3, snap.Draft.Quantity)
	assert.Contains(t, snap.LastError, "stock insuficiente")
}

func TestSession_ApplyCodigoDistintoAlActual(t *testing.T) {
	sess, _ := newSession(t, newStore(t))
	_, err := sess.Lookup(context.Background(), rb.String())
	require.NoError(t, err)
	_, err = sess.Apply(context.Background(), inventory.MovementRequest{Kind: inventory.KindReceive, Code: "ZZ-01-01-01", Quantity: 1, ToLocationID: l1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSession_HandleScanAplicaDebounce(t *testing.T) {
	s := newStore(t)
	sess, clk := newSession(t, s)
	ctx := context.Background()

	out, err := sess.HandleScan(ctx, scan.Event{RawText: rb.String()})
	require.NoError(t, err)
	require.NotNil(t, out.Lookup)
	assert.False(t, out.Suppressed)

	clk.Advance(300 * time.Millisecond)
	out, err = sess.HandleScan(ctx, scan.Event{RawText: "https://x.test/RB-10-02-16.png"})
	require.NoError(t, err)
	assert.True(t, out.Suppressed)
	assert.Equal(t, 1, s.Calls(memory.OpFindProduct))

	clk.Advance(time.Second)
	out, err = sess.HandleScan(ctx, scan.Event{RawText: rb.String()})
	require.NoError(t, err)
	assert.False(t, out.Suppressed)
	assert.Equal(t, 2, s.Calls(memory.OpFindProduct))
}

func TestSession_ModoLote(t *testing.T) {
	s := newStore(t)
	sess, clk := newSession(t, s)
	ctx := context.Background()

	_, _, err := sess.AddToBatch(ctx, rb.String())
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "modo lote inactivo")

	require.NoError(t, sess.SetBatchMode(true))
	out, err := sess.HandleScan(ctx, scan.Event{RawText: rb.String()})
	require.NoError(t, err)
	assert.Equal(t, 1, out.CartQty)
	assert.Nil(t, out.Lookup)

	clk.Advance(time.Second)
	out, err = sess.HandleScan(ctx, scan.Event{RawText: rb.String()})
	require.NoError(t, err)
	assert.Equal(t, 2, out.CartQty)

	_, _, err = sess.AddToBatch(ctx, "ZZ-99-99-99")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	res, err := sess.SubmitBatch(ctx, inventory.BatchParams{Kind: inventory.KindReceive, ToLocationID: l2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.UnitsApplied)

	snap := sess.Snapshot()
	assert.Empty(t, snap.Cart)
	require.NotNil(t, snap.LastBatch)
	assert.Len(t, s.Movements(), 1, "una línea, un movimiento")

	require.NoError(t, sess.SetBatchMode(false))
	assert.Nil(t, sess.Snapshot().LastBatch)
}

func TestSession_ResetLimpiaCarritoYProducto(t *testing.T) {
	sess, _ := newSession(t, newStore(t))
	ctx := context.Background()
	_, err := sess.Lookup(ctx, rb.String())
	require.NoError(t, err)
	require.NoError(t, sess.SetBatchMode(true))
	_, _, err = sess.AddToBatch(ctx, rb.String())
	require.NoError(t, err)

	before := sess.Snapshot().Generation
	require.NoError(t, sess.Reset())
	snap := sess.Snapshot()
	assert.Equal(t, inventory.StateIdle, snap.State)
	assert.Nil(t, snap.Product)
	assert.Empty(t, snap.Cart)
	assert.True(t, snap.BatchMode, "el modo lote se mantiene")
	assert.Greater(t, snap.Generation, before)
}

func TestSessionRegistry_SweepExpulsaInactivas(t *testing.T) {
	clk := newClock()
	reg := inventory.NewSessionRegistry(inventory.SessionDeps{
		Store: newStore(t),
		Log:   zerolog.Nop(),
		Now:   clk.Now,
	}, time.Hour)

	a := reg.Get("op-a")
	assert.Same(t, a, reg.Get("op-a"))
	clk.Advance(45 * time.Minute)
	reg.Get("op-b")
	clk.Advance(30 * time.Minute)

	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
	assert.NotSame(t, a, reg.Get("op-a"), "la sesión expulsada se recrea")
}

func TestSessionRegistry_StartStop(t *testing.T) {
	reg := inventory.NewSessionRegistry(inventory.SessionDeps{Store: newStore(t), Log: zerolog.Nop()}, time.Hour)
	reg.Start()
	reg.Start()
	reg.Stop()
	reg.Stop()
}
