package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
)

// AdjustmentInput ajuste global de existencias (sin ubicación).
type AdjustmentInput struct {
	Code      code.ProductCode
	Delta     int
	Reason    string
	Note      string
	CreatedBy string
}

// LocationDeltaInput variación de existencias en una ubicación: entrada, salida
// o una pata de traslado. Type hace de etiqueta de razón del movimiento.
type LocationDeltaInput struct {
	Code           code.ProductCode
	LocationID     string
	Delta          int
	Type           entity.MovementType
	FromLocationID string // solo patas de traslado
	ToLocationID   string
	TransferID     string
	Reason         string
	Note           string
	UnitCost       *decimal.Decimal // entradas valorizadas
	CreatedBy      string
}

// MovementRepository puerto de escritura y consulta de movimientos.
// Cada llamada Record* es atómica por sí sola; no hay atomicidad entre llamadas.
type MovementRepository interface {
	RecordAdjustment(ctx context.Context, in AdjustmentInput) (*entity.Movement, error)
	RecordLocationDelta(ctx context.Context, in LocationDeltaInput) (*entity.Movement, error)
	// ListRecentAdjustments últimos ajustes, más reciente primero.
	ListRecentAdjustments(ctx context.Context, c code.ProductCode, limit int) ([]*entity.Movement, error)
	// ListRecentMovements últimos movimientos por ubicación con códigos de ubicación resueltos.
	ListRecentMovements(ctx context.Context, c code.ProductCode, limit int) ([]*entity.Movement, error)
}

// Store agrupa todos los colaboradores que consume el núcleo.
type Store interface {
	CatalogRepository
	StockRepository
	LocationRepository
	MovementRepository
}
