package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
)

//go:embed schema.sql
var schemaSQL string

// Store reúne los adaptadores PostgreSQL detrás de repository.Store.
type Store struct {
	*CatalogRepo
	*StockRepo
	*LocationRepo
	*MovementRepo
}

var _ repository.Store = (*Store)(nil)

// NewStore construye el almacén sobre el pool.
func NewStore(db TxBeginner) *Store {
	return &Store{
		CatalogRepo:  NewCatalogRepository(db),
		StockRepo:    NewStockRepository(db),
		LocationRepo: NewLocationRepository(db),
		MovementRepo: NewMovementRepository(db),
	}
}

// EnsureSchema crea las tablas si no existen.
func EnsureSchema(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("aplicar esquema: %w", err)
	}
	return nil
}
