package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
)

// Product fila del catálogo identificada por su código canónico.
// Cost es promedio ponderado, actualizado en entradas valorizadas.
type Product struct {
	Code      code.ProductCode
	Name      string
	ImagePath string // ruta relativa en el bucket; vacío = sin imagen
	Cost      decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
