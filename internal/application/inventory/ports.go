package inventory

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
)

var tracer = otel.Tracer("inventario-scan/inventory")

// Store colaboradores que consume el flujo de escaneo (catálogo, saldos, ubicaciones, movimientos).
type Store = repository.Store

// MovementApplier ejecuta un movimiento. Lo implementa Engine; el agregador de lotes
// depende solo de esta interfaz.
type MovementApplier interface {
	Validate(req MovementRequest) error
	Apply(ctx context.Context, req MovementRequest) (*ApplyResult, error)
}

// Clock fuente de tiempo inyectable.
type Clock func() time.Time
