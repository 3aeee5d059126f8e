package postgres

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
	"github.com/jhoicas/Inventario-scan/pkg/config"
)

// Estos tests corren contra una base real: TEST_DATABASE_URL=postgres://... go test ./internal/infrastructure/postgres/
// Cada test usa un schema propio que se elimina al terminar.

const (
	itCode = code.ProductCode("RB-10-02-16")
	itL1   = "loc-1"
	itL2   = "loc-2"
)

// steppedClock avanza un segundo por llamada para que el orden del historial sea determinista.
func steppedClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newIntegrationStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()

	admin, err := NewPool(ctx, config.DBConfig{DatabaseURL: dsn}, zerolog.Nop())
	require.NoError(t, err)
	schema := "it_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()

	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: u.String()}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, EnsureSchema(ctx, pool))
	require.NoError(t, EnsureSchema(ctx, pool), "el esquema es idempotente")

	store := NewStore(pool)
	store.MovementRepo.now = steppedClock()

	require.NoError(t, store.UpsertLocation(ctx, entity.Location{ID: itL1, Code: "L1", Name: "Uno"}))
	require.NoError(t, store.UpsertLocation(ctx, entity.Location{ID: itL2, Code: "L2", Name: "Dos"}))
	require.NoError(t, store.UpsertProduct(ctx, &entity.Product{Code: itCode, Name: "Rodamiento", ImagePath: "products/rb.jpg"}))
	return store, pool
}

func receive(t *testing.T, s *Store, loc string, qty int, cost *decimal.Decimal) *entity.Movement {
	t.Helper()
	m, err := s.RecordLocationDelta(context.Background(), repository.LocationDeltaInput{
		Code: itCode, LocationID: loc, ToLocationID: loc, Delta: qty, Type: entity.MovementReceive, UnitCost: cost,
	})
	require.NoError(t, err)
	return m
}

func TestIntegration_CatalogoYUbicaciones(t *testing.T) {
	s, _ := newIntegrationStore(t)
	ctx := context.Background()

	exists, err := s.FindProduct(ctx, itCode)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.FindProduct(ctx, "ZZ-0-0-0")
	require.NoError(t, err)
	assert.False(t, exists)

	ref, err := s.GetImageRef(ctx, itCode)
	require.NoError(t, err)
	assert.Equal(t, "products/rb.jpg", ref)
	ref, err = s.GetImageRef(ctx, "ZZ-0-0-0")
	require.NoError(t, err)
	assert.Empty(t, ref)

	missing, err := s.GetProduct(ctx, "ZZ-0-0-0")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// ON CONFLICT: nombre e imagen se actualizan, el costo no.
	receive(t, s, itL1, 10, ptr(decimal.NewFromInt(100)))
	require.NoError(t, s.UpsertProduct(ctx, &entity.Product{Code: itCode, Name: "Rodamiento 2", Cost: decimal.NewFromInt(999)}))
	p, err := s.GetProduct(ctx, itCode)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Rodamiento 2", p.Name)
	assert.True(t, p.Cost.Equal(decimal.NewFromInt(100)), "costo %s", p.Cost)

	require.NoError(t, s.UpsertLocation(ctx, entity.Location{ID: itL2, Code: "L2B", Name: "Dos bis"}))
	locs, err := s.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "L1", locs[0].Code)
	assert.Equal(t, "L2B", locs[1].Code)
}

func TestIntegration_EntradaValorizadaYSaldos(t *testing.T) {
	s, _ := newIntegrationStore(t)
	ctx := context.Background()

	global, err := s.GetGlobalOnHand(ctx, itCode)
	require.NoError(t, err)
	assert.Zero(t, global, "sin fila cuenta como cero")

	receive(t, s, itL1, 10, ptr(decimal.NewFromInt(100)))
	m := receive(t, s, itL2, 10, ptr(decimal.NewFromInt(200)))
	require.NotNil(t, m.UnitCost)

	p, err := s.GetProduct(ctx, itCode)
	require.NoError(t, err)
	assert.True(t, p.Cost.Equal(decimal.NewFromInt(150)), "promedio ponderado: %s", p.Cost)

	global, err = s.GetGlobalOnHand(ctx, itCode)
	require.NoError(t, err)
	assert.Equal(t, 20, global)

	bals, err := s.GetLocationBalances(ctx, itCode)
	require.NoError(t, err)
	require.Len(t, bals, 2)
	assert.Equal(t, entity.LocationBalance{LocationID: itL1, LocationCode: "L1", OnHand: 10}, bals[0])
	assert.Equal(t, entity.LocationBalance{LocationID: itL2, LocationCode: "L2", OnHand: 10}, bals[1])

	// SetLocationOnHand recalcula el global como suma de ubicaciones.
	require.NoError(t, s.SetLocationOnHand(ctx, itCode, itL1, 3))
	global, err = s.GetGlobalOnHand(ctx, itCode)
	require.NoError(t, err)
	assert.Equal(t, 13, global)
}

func TestIntegration_SalidaNegativaSeRevierte(t *testing.T) {
	s, pool := newIntegrationStore(t)
	ctx := context.Background()
	receive(t, s, itL1, 5, nil)

	_, err := s.RecordLocationDelta(ctx, repository.LocationDeltaInput{
		Code: itCode, LocationID: itL1, FromLocationID: itL1, Delta: -6, Type: entity.MovementSend,
	})
	require.ErrorIs(t, err, ErrNegativeStock)

	bals, err := s.GetLocationBalances(ctx, itCode)
	require.NoError(t, err)
	assert.Equal(t, 5, bals[0].OnHand)
	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM inventory_movements`).Scan(&n))
	assert.Equal(t, 1, n, "la transacción fallida no deja movimiento")

	_, err = s.RecordAdjustment(ctx, repository.AdjustmentInput{Code: itCode, Delta: -6})
	require.ErrorIs(t, err, ErrNegativeStock)
}

func TestIntegration_ReferenciasDesconocidas(t *testing.T) {
	s, _ := newIntegrationStore(t)
	ctx := context.Background()

	_, err := s.RecordLocationDelta(ctx, repository.LocationDeltaInput{
		Code: itCode, LocationID: "loc-x", Delta: 1, Type: entity.MovementReceive,
	})
	assert.ErrorIs(t, err, ErrUnknownLocation)

	_, err = s.RecordLocationDelta(ctx, repository.LocationDeltaInput{
		Code: "ZZ-0-0-0", LocationID: itL1, Delta: 1, Type: entity.MovementReceive,
	})
	assert.ErrorIs(t, err, ErrUnknownProduct)

	cost := decimal.NewFromInt(10)
	_, err = s.RecordLocationDelta(ctx, repository.LocationDeltaInput{
		Code: "ZZ-0-0-0", LocationID: itL1, Delta: 1, Type: entity.MovementReceive, UnitCost: &cost,
	})
	assert.ErrorIs(t, err, ErrUnknownProduct, "el bloqueo del costo detecta el producto inexistente")
}

func TestIntegration_HistorialConCodigosDeUbicacion(t *testing.T) {
	s, _ := newIntegrationStore(t)
	ctx := context.Background()
	receive(t, s, itL1, 8, nil)

	transferID := uuid.NewString()
	for _, leg := range []repository.LocationDeltaInput{
		{LocationID: itL1, Delta: -3, Type: entity.MovementTransferOut},
		{LocationID: itL2, Delta: 3, Type: entity.MovementTransferIn},
	} {
		leg.Code = itCode
		leg.FromLocationID = itL1
		leg.ToLocationID = itL2
		leg.TransferID = transferID
		_, err := s.RecordLocationDelta(ctx, leg)
		require.NoError(t, err)
	}
	_, err := s.RecordAdjustment(ctx, repository.AdjustmentInput{Code: itCode, Delta: -1, Reason: "conteo"})
	require.NoError(t, err)

	moves, err := s.ListRecentMovements(ctx, itCode, 10)
	require.NoError(t, err)
	require.Len(t, moves, 3)
	assert.Equal(t, entity.MovementTransferIn, moves[0].Type, "más reciente primero")
	assert.Equal(t, "L1", moves[0].FromLocationCode)
	assert.Equal(t, "L2", moves[0].ToLocationCode)
	assert.Equal(t, transferID, moves[0].TransferID)
	assert.Equal(t, moves[0].TransferID, moves[1].TransferID)
	assert.Equal(t, entity.MovementReceive, moves[2].Type)
	assert.Empty(t, moves[2].TransferID)

	limited, err := s.ListRecentMovements(ctx, itCode, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	adj, err := s.ListRecentAdjustments(ctx, itCode, 10)
	require.NoError(t, err)
	require.Len(t, adj, 1)
	assert.Equal(t, "conteo", adj[0].Reason)
	assert.Empty(t, adj[0].LocationID)

	global, err := s.GetGlobalOnHand(ctx, itCode)
	require.NoError(t, err)
	assert.Equal(t, 7, global)
}

func TestIntegration_TipoDesconocidoEnHistorial(t *testing.T) {
	s, pool := newIntegrationStore(t)
	ctx := context.Background()
	_, err := pool.Exec(ctx, `
		INSERT INTO inventory_movements (id, type, product_code, delta, created_at)
		VALUES ($1, 'merma', $2, -1, now())`, uuid.NewString(), itCode.String())
	require.NoError(t, err)

	_, err = s.ListRecentMovements(ctx, itCode, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("%q", "merma"))
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }
