package repository

import (
	"context"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
)

// StockRepository puerto de lectura de existencias globales y por ubicación.
type StockRepository interface {
	// GetGlobalOnHand devuelve 0 cuando no existe fila para el producto.
	GetGlobalOnHand(ctx context.Context, c code.ProductCode) (int, error)
	GetLocationBalances(ctx context.Context, c code.ProductCode) ([]entity.LocationBalance, error)
}
