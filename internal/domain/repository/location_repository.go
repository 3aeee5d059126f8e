package repository

import (
	"context"

	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
)

// LocationRepository puerto de ubicaciones.
type LocationRepository interface {
	ListLocations(ctx context.Context) ([]entity.Location, error)
}
