package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Inventario-scan/internal/domain"
	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
)

// BalanceCache vista en memoria de las existencias de los productos consultados en la sesión.
// Cada refresco reemplaza por completo la entrada del producto (sin merge incremental).
// No hay bloqueo contra el almacén: la vista puede quedar desactualizada frente a
// movimientos de otras sesiones.
type BalanceCache struct {
	stock repository.StockRepository
	log   zerolog.Logger
	now   Clock

	mu      sync.RWMutex
	entries map[code.ProductCode]entity.Balances
}

// NewBalanceCache construye la caché sobre el puerto de existencias.
func NewBalanceCache(stock repository.StockRepository, log zerolog.Logger, now Clock) *BalanceCache {
	if now == nil {
		now = time.Now
	}
	return &BalanceCache{
		stock:   stock,
		log:     log,
		now:     now,
		entries: make(map[code.ProductCode]entity.Balances),
	}
}

// Fetch consulta el total global (fila ausente = 0) y el desglose por ubicación sin tocar la caché.
// Permite al flujo verificar la generación antes de publicar el resultado con Put.
func (c *BalanceCache) Fetch(ctx context.Context, pc code.ProductCode) (entity.Balances, error) {
	ctx, span := tracer.Start(ctx, "balance_cache.fetch",
		trace.WithAttributes(attribute.String("product.code", pc.String())))
	defer span.End()

	global, err := c.stock.GetGlobalOnHand(ctx, pc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "getGlobalOnHand")
		return entity.Balances{}, domain.NewStoreError("getGlobalOnHand", err)
	}
	byLocation, err := c.stock.GetLocationBalances(ctx, pc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "getLocationBalances")
		return entity.Balances{}, domain.NewStoreError("getLocationBalances", err)
	}

	b := entity.Balances{
		Code:        pc,
		Global:      global,
		ByLocation:  append([]entity.LocationBalance(nil), byLocation...),
		RefreshedAt: c.now(),
	}
	span.SetAttributes(attribute.Int("balance.global", global), attribute.Int("balance.locations", len(byLocation)))
	return b, nil
}

// Put publica un resultado de Fetch reemplazando la entrada previa del producto.
func (c *BalanceCache) Put(b entity.Balances) {
	c.mu.Lock()
	c.entries[b.Code] = b
	c.mu.Unlock()
}

// Refresh = Fetch + Put. Lo usa el motor tras cada movimiento aplicado.
func (c *BalanceCache) Refresh(ctx context.Context, pc code.ProductCode) (entity.Balances, error) {
	b, err := c.Fetch(ctx, pc)
	if err != nil {
		return entity.Balances{}, err
	}
	c.Put(b)
	c.log.Debug().Str("code", pc.String()).Int("global", b.Global).Msg("saldos refrescados")
	return b, nil
}

// Get devuelve la última vista del producto, si existe.
func (c *BalanceCache) Get(pc code.ProductCode) (entity.Balances, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.entries[pc]
	return b, ok
}

// OnHandAt existencias en caché del producto en la ubicación; cero si no figura.
func (c *BalanceCache) OnHandAt(pc code.ProductCode, locationID string) int {
	b, _ := c.Get(pc)
	return b.OnHandAt(locationID)
}

// Clear descarta todas las entradas (reinicio del flujo).
func (c *BalanceCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[code.ProductCode]entity.Balances)
	c.mu.Unlock()
}
